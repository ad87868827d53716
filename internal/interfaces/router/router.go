package router

import (
	eventsvc "cafe-backend/internal/application/events"
	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/application/pins"
	prodsvc "cafe-backend/internal/application/producers"
	walletsvc "cafe-backend/internal/application/wallet"
	"cafe-backend/internal/config"
	"cafe-backend/internal/domain"
	"cafe-backend/internal/infrastructure/database"
	adminhandler "cafe-backend/internal/interfaces/handlers/admin"
	authhandler "cafe-backend/internal/interfaces/handlers/auth"
	eventhandler "cafe-backend/internal/interfaces/handlers/events"
	healthhandler "cafe-backend/internal/interfaces/handlers/health"
	markethandler "cafe-backend/internal/interfaces/handlers/market"
	microhandler "cafe-backend/internal/interfaces/handlers/microlots"
	payhandler "cafe-backend/internal/interfaces/handlers/payments"
	prodhandler "cafe-backend/internal/interfaces/handlers/producers"
	redhandler "cafe-backend/internal/interfaces/handlers/redemptions"
	tokenhandler "cafe-backend/internal/interfaces/handlers/tokens"
	wallethandler "cafe-backend/internal/interfaces/handlers/wallet"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Webhook is mounted before the session middleware so nothing touches
	// the raw body Stripe signed.
	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/payments/webhook", func(c *fiber.Ctx) error {
		return stripeWebhook.HandleWebhook(c)
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.JSON)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if errDB = database.AutoMigrate(db); errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db != nil {
		if err := registry.EnsureConfig(db, cfg.RegistryOwner); err != nil {
			return nil, nil, nil, err
		}
		reg := registry.New(db)

		weiPerCent, err := domain.ParseWei(cfg.WeiPerCent)
		if err != nil {
			return nil, nil, nil, err
		}

		ps := &prodsvc.Service{DB: db}
		ms := &microsvc.Service{DB: db}
		ws := &walletsvc.Service{DB: db, Registry: reg, WeiPerCent: weiPerCent}
		es := &eventsvc.Service{DB: db}
		pinSvc := &pins.Service{
			Client:  &pins.HTTPClient{APIKey: cfg.PinataAPIKey, SecretKey: cfg.PinataSecret},
			Gateway: cfg.PinataGateway,
		}
		stripeWebhook.Wallet = ws

		ah := &authhandler.Handlers{Producers: ps, Rdb: rdb, Config: sessionCfg}
		ag := app.Group("/api/v1/auth")
		ag.Post("/connect-wallet", ah.ConnectWallet)
		ag.Post("/register", ah.Register)
		ag.Post("/login", ah.Login)
		ag.Get("/me", ah.Me)
		ag.Delete("/logout", ah.Logout)

		// Tokens: reads are public, mint/transfer need a wallet.
		th := &tokenhandler.Handlers{Registry: reg, Microlots: ms}
		tg := app.Group("/api/v1/tokens")
		tg.Get("/total-minted", th.TotalMinted)
		tg.Get("/owned/:address", th.Owned)
		tg.Get("/:token_id", th.GetCoffeeLot)
		tg.Get("/:token_id/uri", th.TokenURI)
		tg.Get("/:token_id/metadata", th.Metadata)
		tg.Post("/mint", middleware.RequireWallet(), th.Mint)
		tg.Post("/transfer", middleware.RequireWallet(), th.Transfer)

		// Marketplace
		mkh := &markethandler.Handlers{Registry: reg, Microlots: ms}
		mg := app.Group("/api/v1/market")
		mg.Get("/active", mkh.ActiveListings)
		mg.Get("/fees", mkh.Fees)
		mg.Get("/listing/:token_id", mkh.GetListing)
		mg.Post("/list", middleware.RequireWallet(), mkh.List)
		mg.Post("/update-price", middleware.RequireWallet(), mkh.UpdatePrice)
		mg.Post("/cancel", middleware.RequireWallet(), mkh.Cancel)
		mg.Post("/buy", middleware.RequireWallet(), mkh.Buy)

		// Redemptions
		rh := &redhandler.Handlers{Registry: reg, Microlots: ms}
		rg := app.Group("/api/v1/redemptions")
		rg.Get("/certificate/:token_id", rh.CertificateForToken)
		rg.Get("/certificates/:address", rh.Certificates)
		rg.Post("/redeem", middleware.RequireWallet(), rh.Redeem)

		// Producers
		ph := &prodhandler.Handlers{Service: ps, Registry: reg}
		pg := app.Group("/api/v1/producers")
		pg.Get("/me", middleware.RequireWallet(), ph.Profile)
		pg.Patch("/me", middleware.RequireWallet(), ph.UpdateProfile)
		pg.Get("/:address", ph.GetByWallet)

		// Microlots
		mlh := &microhandler.Handlers{Service: ms, Pins: pinSvc}
		mlg := app.Group("/api/v1/microlots", middleware.RequireWallet())
		mlg.Post("/", mlh.Create)
		mlg.Get("/mine", mlh.Mine)
		mlg.Get("/status/:status", middleware.RequireRegistryOwner(reg), mlh.ByStatus)
		mlg.Post("/:id/approve", middleware.RequireRegistryOwner(reg), mlh.Approve)
		mlg.Post("/:id/quality-report", mlh.PinQualityReport)
		mlg.Get("/:id", mlh.Get)
		mlg.Patch("/:id", mlh.Update)

		// Wallet balance and Stripe-funded deposits
		wh := &wallethandler.Handlers{
			Service:       ws,
			StripeCreator: &wallethandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		wg := app.Group("/api/v1/wallet", middleware.RequireWallet())
		wg.Get("/balance", wh.Balance)
		wg.Get("/quote/:amount_cents", wh.Quote)
		wg.Get("/deposits", wh.Deposits)
		wg.Post("/deposit", wh.Deposit)

		// Events
		eh := &eventhandler.Handlers{Service: es}
		eg := app.Group("/api/v1/events")
		eg.Get("/token/:token_id", eh.ForToken)
		eg.Get("/actor/:address", eh.ForActor)
		eg.Get("/recent", eh.Recent)

		// Admin: owner only
		adh := &adminhandler.Handlers{Registry: reg, Producers: ps}
		adg := app.Group("/api/v1/admin", middleware.RequireWallet(), middleware.RequireRegistryOwner(reg))
		adg.Get("/config", adh.Config)
		adg.Post("/mint-fee", adh.SetMintFee)
		adg.Post("/marketplace-fee", adh.SetMarketplaceFee)
		adg.Post("/verify-producer", adh.VerifyProducer)
		adg.Post("/withdraw", adh.Withdraw)
	}

	return app, db, rdb, nil
}

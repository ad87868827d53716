package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	RegistryOwner       string // wallet address that holds the admin role
	PinataAPIKey        string
	PinataSecret        string
	PinataGateway       string
	StripeSecretKey     string
	StripeWebhookSecret string
	WeiPerCent          string // deposit conversion rate, wei credited per fiat cent
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		RegistryOwner:       strings.ToLower(viper.GetString("REGISTRY_OWNER_ADDRESS")),
		PinataAPIKey:        viper.GetString("PINATA_API_KEY"),
		PinataSecret:        viper.GetString("PINATA_SECRET"),
		PinataGateway:       pinataGateway(viper.GetString("PINATA_GATEWAY")),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		WeiPerCent:          weiPerCent(viper.GetString("WEI_PER_CENT")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func pinataGateway(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://gateway.pinata.cloud/ipfs/"
	}
	return s
}

func weiPerCent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		// 1 cent buys 10^13 wei by default (matches a 1000 USD/ether peg
		// for local development; production sets the real rate).
		return "10000000000000"
	}
	return s
}

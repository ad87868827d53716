package redemptions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/domain"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerAddr  = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	holderAddr = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	otherAddr  = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func setupRedemptionsTest(t *testing.T) (*Handlers, *registry.Registry) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.RegistryConfig{},
		&domain.Account{},
		&domain.Token{},
		&domain.CoffeeLot{},
		&domain.Listing{},
		&domain.TokenEvent{},
		&domain.RedemptionCertificate{},
		&domain.ProducerVerification{},
		&domain.Microlot{},
	))
	require.NoError(t, registry.EnsureConfig(db, ownerAddr))
	reg := registry.New(db)
	return &Handlers{Registry: reg, Microlots: &microsvc.Service{DB: db}}, reg
}

func appAs(h *Handlers, address string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("wallet", map[string]interface{}{"address": address})
		return c.Next()
	})
	app.Post("/redemptions/redeem", h.Redeem)
	app.Get("/redemptions/certificate/:token_id", h.CertificateForToken)
	app.Get("/redemptions/certificates/:address", h.Certificates)
	return app
}

func reqJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func mintTo(t *testing.T, reg *registry.Registry, address, lotCode string) uint64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, reg.Deposit(ctx, address, domain.NewWei(1_000_000_000_000_000_000)))
	id, err := reg.MintCoffeeLot(ctx, address, registry.DefaultMintFee, registry.MintInput{
		TokenURI:         "ipfs://Qm" + lotCode,
		LotCode:          lotCode,
		WeightKg:         60,
		ScaScore:         8600,
		HarvestTimestamp: 1718409600,
	})
	require.NoError(t, err)
	return id
}

func TestRedeemIssuesCertificate(t *testing.T) {
	h, reg := setupRedemptionsTest(t)
	tokenID := mintTo(t, reg, holderAddr, "HUILA-2024-001")
	app := appAs(h, holderAddr)

	code, out := reqJSON(t, app, "POST", "/redemptions/redeem", map[string]interface{}{"token_id": tokenID})
	require.Equal(t, 201, code)
	cert := out["data"].(map[string]interface{})
	assert.Equal(t, "HUILA-2024-001", cert["lot_code"])
	assert.Equal(t, holderAddr, cert["redeemer"])
	assert.NotEmpty(t, cert["certificate_number"])

	// Second redemption of the same token conflicts.
	code, out = reqJSON(t, app, "POST", "/redemptions/redeem", map[string]interface{}{"token_id": tokenID})
	assert.Equal(t, 409, code)
	errObj := out["error"].(map[string]interface{})
	assert.Equal(t, "Coffee already redeemed", errObj["message"])
}

func TestRedeem_NotOwner_403(t *testing.T) {
	h, reg := setupRedemptionsTest(t)
	tokenID := mintTo(t, reg, holderAddr, "HUILA-2024-002")
	app := appAs(h, otherAddr)

	code, out := reqJSON(t, app, "POST", "/redemptions/redeem", map[string]interface{}{"token_id": tokenID})
	assert.Equal(t, 403, code)
	errObj := out["error"].(map[string]interface{})
	assert.Equal(t, "Not token owner", errObj["message"])
}

func TestCertificateLookup(t *testing.T) {
	h, reg := setupRedemptionsTest(t)
	app := appAs(h, holderAddr)

	id1 := mintTo(t, reg, holderAddr, "NARINO-2024-001")
	id2 := mintTo(t, reg, holderAddr, "NARINO-2024-002")
	for _, id := range []uint64{id1, id2} {
		code, _ := reqJSON(t, app, "POST", "/redemptions/redeem", map[string]interface{}{"token_id": id})
		require.Equal(t, 201, code)
	}

	code, out := reqJSON(t, app, "GET", "/redemptions/certificate/1", nil)
	require.Equal(t, 200, code)
	cert := out["data"].(map[string]interface{})
	assert.Equal(t, float64(1), cert["token_id"])

	code, out = reqJSON(t, app, "GET", "/redemptions/certificates/"+holderAddr, nil)
	require.Equal(t, 200, code)
	certs := out["data"].([]interface{})
	assert.Len(t, certs, 2)
}

func TestCertificate_Unknown_404(t *testing.T) {
	h, _ := setupRedemptionsTest(t)
	app := appAs(h, holderAddr)
	code, out := reqJSON(t, app, "GET", "/redemptions/certificate/99", nil)
	assert.Equal(t, 404, code)
	errObj := out["error"].(map[string]interface{})
	assert.Equal(t, "Certificate not found", errObj["message"])
}

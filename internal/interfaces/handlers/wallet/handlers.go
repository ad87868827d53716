package wallet

import (
	"strconv"

	walletsvc "cafe-backend/internal/application/wallet"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Handlers struct {
	Service       *walletsvc.Service
	StripeCreator StripePaymentIntentCreator
}

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type StripePaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(501, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &StripePaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// Balance GET /api/v1/wallet/balance — registry-held balance of the
// connected wallet.
func (h *Handlers) Balance(c *fiber.Ctx) error {
	address := middleware.WalletAddress(c)
	balance, err := h.Service.Registry.AccountBalance(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Balance fetched successfully", fiber.Map{
		"address": address,
		"balance": balance,
	}, nil)
}

// Deposit POST /api/v1/wallet/deposit — creates the Stripe PaymentIntent and
// records the pending deposit; the webhook credits the balance on success.
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	var body struct {
		AmountCents int64  `json:"amount_cents"`
		Currency    string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.AmountCents <= 0 {
		return response.Error(c, "Amount must be a positive number", 400, nil)
	}
	currency := body.Currency
	if currency == "" {
		currency = "usd"
	}
	address := middleware.WalletAddress(c)

	amountWei, err := h.Service.QuoteWei(body.AmountCents)
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}

	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", 500, nil)
	}
	pi, err := h.StripeCreator.Create(body.AmountCents, currency, map[string]string{
		"address":      address,
		"amount_cents": strconv.FormatInt(body.AmountCents, 10),
		"amount_wei":   amountWei.String(),
	})
	if err != nil {
		code := 500
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		return response.Error(c, err.Error(), code, nil)
	}

	deposit, err := h.Service.RecordPending(c.Context(), pi.ID, address, body.AmountCents, currency)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	return response.Success(c, "Payment intent created", fiber.Map{
		"payment_intent_id": pi.ID,
		"client_secret":     pi.ClientSecret,
		"deposit":           deposit,
	}, nil)
}

// Quote GET /api/v1/wallet/quote/:amount_cents — wei a charge would credit.
func (h *Handlers) Quote(c *fiber.Ctx) error {
	amountCents, err := strconv.ParseInt(c.Params("amount_cents"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid amount format", 400, nil)
	}
	amountWei, err := h.Service.QuoteWei(amountCents)
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.Success(c, "Quote fetched successfully", fiber.Map{
		"amount_cents": amountCents,
		"amount_wei":   amountWei,
	}, nil)
}

// Deposits GET /api/v1/wallet/deposits — deposit history for the connected wallet.
func (h *Handlers) Deposits(c *fiber.Ctx) error {
	address := middleware.WalletAddress(c)
	out, err := h.Service.History(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Deposits fetched successfully", out, nil)
}

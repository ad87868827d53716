package admin

import (
	prodsvc "cafe-backend/internal/application/producers"
	"cafe-backend/internal/domain"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/pkg/validation"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
)

// Handlers for owner-only registry administration. Routes are mounted behind
// RequireWallet + RequireRegistryOwner, but every operation still re-checks
// the caller inside the registry transaction.
type Handlers struct {
	Registry  *registry.Registry
	Producers *prodsvc.Service
}

var revertStatus = map[string]int{
	"Ownable: caller is not the owner": 403,
	"Fee too high":                     400,
	"Invalid address":                  400,
}

func registryError(c *fiber.Ctx, err error) error {
	if reason := registry.Reason(err); reason != "" {
		if code, ok := revertStatus[reason]; ok {
			return response.Error(c, reason, code, nil)
		}
		return response.Error(c, reason, 400, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}

// SetMintFee POST /api/v1/admin/mint-fee
func (h *Handlers) SetMintFee(c *fiber.Ctx) error {
	var body struct {
		NewFee domain.Wei `json:"new_fee"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.SetMintFee(c.Context(), caller, body.NewFee); err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Mint fee updated", fiber.Map{"mint_fee": body.NewFee}, nil)
}

// SetMarketplaceFee POST /api/v1/admin/marketplace-fee
func (h *Handlers) SetMarketplaceFee(c *fiber.Ctx) error {
	var body struct {
		NewFeeBps int64 `json:"new_fee_bps"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.SetMarketplaceFee(c.Context(), caller, body.NewFeeBps); err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Marketplace fee updated", fiber.Map{"marketplace_fee_bps": body.NewFeeBps}, nil)
}

// VerifyProducer POST /api/v1/admin/verify-producer — flips the on-registry
// flag and mirrors it onto the producer profile when one exists.
func (h *Handlers) VerifyProducer(c *fiber.Ctx) error {
	var body struct {
		Producer string `json:"producer"`
		Verified bool   `json:"verified"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if !validation.IsValidAddress(body.Producer) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	producer := validation.NormalizeAddress(body.Producer)
	if err := h.Registry.SetProducerVerification(c.Context(), caller, producer, body.Verified); err != nil {
		return registryError(c, err)
	}
	if err := h.Producers.SetVerified(c.Context(), producer, body.Verified); err != nil {
		return response.Error(c, "Verification recorded but profile not updated", 500, nil)
	}
	return response.Success(c, "Producer verification updated", fiber.Map{
		"producer": producer,
		"verified": body.Verified,
	}, nil)
}

// Withdraw POST /api/v1/admin/withdraw — sweeps accrued fees to the owner.
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	caller := middleware.WalletAddress(c)
	amount, err := h.Registry.Withdraw(c.Context(), caller)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Fees withdrawn", fiber.Map{"amount": amount}, nil)
}

// Config GET /api/v1/admin/config
func (h *Handlers) Config(c *fiber.Ctx) error {
	cfg, err := h.Registry.Config(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Registry config fetched successfully", cfg, nil)
}

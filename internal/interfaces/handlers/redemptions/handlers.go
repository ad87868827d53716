package redemptions

import (
	"strconv"

	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/pkg/validation"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Registry  *registry.Registry
	Microlots *microsvc.Service
}

var revertStatus = map[string]int{
	"Not token owner":         403,
	"Coffee already redeemed": 409,
	"Token does not exist":    404,
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

// Redeem POST /api/v1/redemptions/redeem — marks the lot redeemed and issues
// the certificate that accompanies the physical coffee.
func (h *Handlers) Redeem(c *fiber.Ctx) error {
	var body struct {
		TokenID uint64 `json:"token_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	cert, err := h.Registry.RedeemCoffee(c.Context(), caller, body.TokenID)
	if err != nil {
		return registryError(c, err)
	}
	_ = h.Microlots.MarkRedeemed(c.Context(), body.TokenID)
	return response.SuccessCreated(c, "Coffee redeemed successfully", cert, nil)
}

// CertificateForToken GET /api/v1/redemptions/certificate/:token_id
func (h *Handlers) CertificateForToken(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("token_id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	cert, err := h.Registry.CertificateForToken(c.Context(), tokenID)
	if err != nil {
		if registry.Reason(err) != "" {
			return response.Error(c, "Certificate not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Certificate fetched successfully", cert, nil)
}

// Certificates GET /api/v1/redemptions/certificates/:address
func (h *Handlers) Certificates(c *fiber.Ctx) error {
	address := c.Params("address")
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	certs, err := h.Registry.CertificatesForRedeemer(c.Context(), validation.NormalizeAddress(address))
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Certificates fetched successfully", certs, nil)
}

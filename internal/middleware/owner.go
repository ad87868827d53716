package middleware

import (
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
)

// RequireRegistryOwner gates the admin routes on the registry's designated
// owner address. The registry setters re-check ownership themselves; this
// just rejects obvious non-owners before any work happens.
func RequireRegistryOwner(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		addr := WalletAddress(c)
		if addr == "" {
			return response.Unauthorized(c, "Wallet not connected")
		}
		cfg, err := reg.Config(c.Context())
		if err != nil {
			return response.Error(c, "Internal Server Error", 500, nil)
		}
		if addr != cfg.OwnerAddress {
			return response.Error(c, "Ownable: caller is not the owner", 403, nil)
		}
		return c.Next()
	}
}

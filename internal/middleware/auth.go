package middleware

import (
	"cafe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const walletLocal = "wallet"

// RequireWallet ensures a connected wallet is in the session. Returns 401
// with the standard error format if not.
func RequireWallet() fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := c.Locals(walletLocal)
		if wallet == nil {
			return response.Unauthorized(c, "Wallet not connected")
		}
		return c.Next()
	}
}

// GetWallet returns the session wallet map from Locals (nil if not connected).
func GetWallet(c *fiber.Ctx) interface{} {
	return c.Locals(walletLocal)
}

// WalletAddress extracts the connected wallet address, "" when absent.
func WalletAddress(c *fiber.Ctx) string {
	m, ok := GetWallet(c).(map[string]interface{})
	if !ok {
		return ""
	}
	addr, _ := m["address"].(string)
	return addr
}

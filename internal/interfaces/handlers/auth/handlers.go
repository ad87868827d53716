package auth

import (
	"context"

	prodsvc "cafe-backend/internal/application/producers"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const walletSessionsPrefix = "wallet_sessions:"

// Handlers holds dependencies for wallet and producer auth endpoints.
type Handlers struct {
	Producers *prodsvc.Service
	Rdb       *redis.Client
	Config    middleware.SessionConfig
}

// ConnectWallet POST /api/v1/auth/connect-wallet — starts a session for a
// bare wallet address (buyers don't need a producer account).
func (h *Handlers) ConnectWallet(c *fiber.Ctx) error {
	var body struct {
		Address string `json:"address"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if !validation.IsValidAddress(body.Address) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	address := validation.NormalizeAddress(body.Address)

	sessionID := middleware.RegenerateSessionID(c)
	wallet := middleware.SessionWallet{Address: address}

	// If the wallet belongs to a producer account, attach the profile.
	if p, err := h.Producers.GetByWallet(c.Context(), address); err == nil {
		id := p.ID.String()
		wallet.ProducerID = &id
		wallet.Email = &p.Email
	}
	middleware.SetSessionWallet(c, wallet)

	if err := h.Rdb.SAdd(context.Background(), walletSessionsPrefix+address, sessionID).Err(); err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Wallet connected", fiber.Map{"wallet": wallet}, nil)
}

// Register POST /api/v1/auth/register — creates a producer account and opens
// a session for its wallet.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var body prodsvc.RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	p, err := h.Producers.Register(c.Context(), body)
	if err != nil {
		switch err {
		case prodsvc.ErrEmailTaken, prodsvc.ErrWalletTaken:
			return response.Error(c, err.Error(), 409, nil)
		case prodsvc.ErrEmailPasswordRequired, prodsvc.ErrInvalidEmail,
			prodsvc.ErrWeakPassword, prodsvc.ErrInvalidWallet:
			return response.Error(c, err.Error(), 400, nil)
		default:
			return response.Error(c, err.Error(), 400, nil)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	id := p.ID.String()
	middleware.SetSessionWallet(c, middleware.SessionWallet{
		Address:    p.WalletAddress,
		ProducerID: &id,
		Email:      &p.Email,
	})
	_ = h.Rdb.SAdd(context.Background(), walletSessionsPrefix+p.WalletAddress, sessionID).Err()

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	return response.SuccessCreated(c, "Producer registered", fiber.Map{"producer": p}, nil)
}

// Login POST /api/v1/auth/login — producer email/password login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body prodsvc.LoginInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Email and password are required", 400, nil)
	}

	p, err := h.Producers.Login(c.Context(), body)
	if err != nil {
		switch err {
		case prodsvc.ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), 400, nil)
		case prodsvc.ErrInvalidEmail, prodsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), 401, nil)
		default:
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}

	sessionID := middleware.RegenerateSessionID(c)
	id := p.ID.String()
	middleware.SetSessionWallet(c, middleware.SessionWallet{
		Address:    p.WalletAddress,
		ProducerID: &id,
		Email:      &p.Email,
	})
	_ = h.Rdb.SAdd(context.Background(), walletSessionsPrefix+p.WalletAddress, sessionID).Err()

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{"producer": p}, nil)
}

// Me GET /api/v1/auth/me — current session wallet.
func (h *Handlers) Me(c *fiber.Ctx) error {
	wallet := middleware.GetWallet(c)
	if wallet == nil {
		return response.Error(c, "Wallet not connected", 401, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"wallet": wallet}, nil)
}

// Logout DELETE /api/v1/auth/logout — drops the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	address := middleware.WalletAddress(c)

	ctx := context.Background()
	if address != "" && sessionID != "" {
		_ = h.Rdb.SRem(ctx, walletSessionsPrefix+address, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}

	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out", nil, nil)
}

package producers

import (
	prodsvc "cafe-backend/internal/application/producers"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/pkg/validation"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service  *prodsvc.Service
	Registry *registry.Registry
}

func producerID(c *fiber.Ctx) string {
	m, ok := middleware.GetWallet(c).(map[string]interface{})
	if !ok {
		return ""
	}
	switch v := m["producer_id"].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

// Profile GET /api/v1/producers/me
func (h *Handlers) Profile(c *fiber.Ctx) error {
	id := producerID(c)
	if id == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	p, err := h.Service.GetByID(c.Context(), id)
	if err != nil {
		if err == prodsvc.ErrProducerNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Profile fetched successfully", p, nil)
}

// UpdateProfile PATCH /api/v1/producers/me
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	id := producerID(c)
	if id == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	p, err := h.Service.UpdateProfile(c.Context(), id, fields)
	if err != nil {
		switch err {
		case prodsvc.ErrProducerNotFound:
			return response.Error(c, err.Error(), 404, nil)
		case prodsvc.ErrWeakPassword:
			return response.Error(c, err.Error(), 400, nil)
		default:
			return response.Error(c, err.Error(), 400, nil)
		}
	}
	return response.Success(c, "Profile updated successfully", p, nil)
}

// GetByWallet GET /api/v1/producers/:address — public profile card, with the
// registry verification flag read live rather than from the mirror.
func (h *Handlers) GetByWallet(c *fiber.Ctx) error {
	address := c.Params("address")
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	address = validation.NormalizeAddress(address)

	p, err := h.Service.GetByWallet(c.Context(), address)
	if err != nil {
		if err == prodsvc.ErrProducerNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}

	verified, err := h.Registry.VerifiedProducers(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Producer fetched successfully", fiber.Map{
		"producer":          p,
		"registry_verified": verified,
	}, nil)
}

package events

import (
	"strconv"

	eventsvc "cafe-backend/internal/application/events"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// ForToken GET /api/v1/events/token/:token_id — provenance timeline.
func (h *Handlers) ForToken(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("token_id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	out, err := h.Service.ForToken(c.Context(), tokenID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Token events fetched successfully", out, nil)
}

// ForActor GET /api/v1/events/actor/:address
func (h *Handlers) ForActor(c *fiber.Ctx) error {
	address := c.Params("address")
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	out, err := h.Service.ForActor(c.Context(), validation.NormalizeAddress(address))
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Actor events fetched successfully", out, nil)
}

// Recent GET /api/v1/events/recent?type=CoffeeSold&limit=20
func (h *Handlers) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.Service.Recent(c.Context(), c.Query("type"), limit)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Recent events fetched successfully", out, nil)
}

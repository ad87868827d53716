package market

import (
	"strconv"

	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/domain"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"
	"cafe-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Registry  *registry.Registry
	Microlots *microsvc.Service
}

var revertStatus = map[string]int{
	"Not token owner":             403,
	"Price must be positive":      400,
	"Already listed":              409,
	"Coffee already redeemed":     409,
	"Not for sale":                400,
	"Insufficient payment":        400,
	"Cannot buy own NFT":          400,
	"Not the seller":              403,
	"Token does not exist":        404,
	"Insufficient balance":        402,
	"Seller no longer owns token": 409,
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

// List POST /api/v1/market/list
func (h *Handlers) List(c *fiber.Ctx) error {
	var body struct {
		TokenID uint64     `json:"token_id"`
		Price   domain.Wei `json:"price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.ListForSale(c.Context(), caller, body.TokenID, body.Price); err != nil {
		return registryError(c, err)
	}
	return response.SuccessCreated(c, "Token listed for sale", fiber.Map{
		"token_id": body.TokenID,
		"price":    body.Price,
	}, nil)
}

// UpdatePrice POST /api/v1/market/update-price
func (h *Handlers) UpdatePrice(c *fiber.Ctx) error {
	var body struct {
		TokenID  uint64     `json:"token_id"`
		NewPrice domain.Wei `json:"new_price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.UpdateListingPrice(c.Context(), caller, body.TokenID, body.NewPrice); err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Listing price updated", fiber.Map{
		"token_id": body.TokenID,
		"price":    body.NewPrice,
	}, nil)
}

// Cancel POST /api/v1/market/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	var body struct {
		TokenID uint64 `json:"token_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.CancelListing(c.Context(), caller, body.TokenID); err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Listing cancelled", fiber.Map{"token_id": body.TokenID}, nil)
}

// Buy POST /api/v1/market/buy — value must cover the asking price; any
// excess stays with the buyer.
func (h *Handlers) Buy(c *fiber.Ctx) error {
	var body struct {
		TokenID uint64     `json:"token_id"`
		Value   domain.Wei `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if err := h.Registry.BuyNFT(c.Context(), caller, body.Value, body.TokenID); err != nil {
		return registryError(c, err)
	}
	// Workflow write-back is best effort; the sale itself has committed.
	_ = h.Microlots.MarkSold(c.Context(), body.TokenID)
	return response.Success(c, "Purchase complete", fiber.Map{
		"token_id": body.TokenID,
		"buyer":    caller,
	}, nil)
}

// GetListing GET /api/v1/market/listing/:token_id
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("token_id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	listing, err := h.Registry.GetListing(c.Context(), tokenID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Listing fetched successfully", listing, nil)
}

// ActiveListings GET /api/v1/market/active
func (h *Handlers) ActiveListings(c *fiber.Ctx) error {
	ids, listings, err := h.Registry.GetActiveListings(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Active listings fetched successfully", fiber.Map{
		"token_ids": ids,
		"listings":  listings,
	}, nil)
}

// Fees GET /api/v1/market/fees — public fee card for the frontend.
func (h *Handlers) Fees(c *fiber.Ctx) error {
	mintFee, err := h.Registry.MintFee(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	feeBps, err := h.Registry.MarketplaceFee(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Fees fetched successfully", fiber.Map{
		"mint_fee":            mintFee,
		"marketplace_fee_bps": feeBps,
	}, nil)
}

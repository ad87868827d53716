package tokens

import (
	"strconv"

	"cafe-backend/internal/application/metadata"
	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/domain"
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

// revertStatus maps registry revert reasons to HTTP codes. Unknown errors
// fall through to 500 in the callers.
var revertStatus = map[string]int{
	"Insufficient mint fee":            400,
	"Lot code required":                400,
	"Lot code already exists":          409,
	"Invalid SCA score":                400,
	"Not token owner":                  403,
	"Token does not exist":             404,
	"Insufficient balance":             402,
	"Invalid address":                  400,
	"Ownable: caller is not the owner": 403,
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

func parseTokenID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("token_id"), 10, 64)
}

// Mint POST /api/v1/tokens/mint — mints a lot NFT to the connected wallet.
// token_uri is optional: when absent the metadata document is built from the
// lot fields and embedded as a data URI.
func (h *Handlers) Mint(c *fiber.Ctx) error {
	var body struct {
		LotCode           string     `json:"lot_code"`
		WeightKg          uint64     `json:"weight_kg"`
		ScaScore          uint64     `json:"sca_score"`
		HarvestTimestamp  int64      `json:"harvest_timestamp"`
		QualityReportHash string     `json:"quality_report_hash"`
		TokenURI          string     `json:"token_uri"`
		ImageURL          string     `json:"image_url"`
		Value             domain.Wei `json:"value"`
		MicrolotID        string     `json:"microlot_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	caller := middleware.WalletAddress(c)
	tokenURI := body.TokenURI
	if tokenURI == "" {
		uri, err := metadata.BuildTokenURI(domain.CoffeeLot{
			LotCode:           body.LotCode,
			Producer:          caller,
			WeightKg:          body.WeightKg,
			ScaScore:          body.ScaScore,
			HarvestTimestamp:  body.HarvestTimestamp,
			QualityReportHash: body.QualityReportHash,
		}, body.ImageURL)
		if err != nil {
			return response.Error(c, "Failed to build token metadata", 500, nil)
		}
		tokenURI = uri
	}

	tokenID, err := h.Registry.MintCoffeeLot(c.Context(), caller, body.Value, registry.MintInput{
		TokenURI:          tokenURI,
		LotCode:           body.LotCode,
		WeightKg:          body.WeightKg,
		ScaScore:          body.ScaScore,
		HarvestTimestamp:  body.HarvestTimestamp,
		QualityReportHash: body.QualityReportHash,
	})
	if err != nil {
		return registryError(c, err)
	}

	if body.MicrolotID != "" {
		if err := h.Microlots.MarkMinted(c.Context(), body.MicrolotID, tokenID); err != nil {
			// Mint succeeded; the workflow row just failed to follow.
			return response.SuccessCreated(c, "Coffee lot minted (microlot status not updated)", fiber.Map{
				"token_id":  tokenID,
				"token_uri": tokenURI,
			}, nil)
		}
	}

	return response.SuccessCreated(c, "Coffee lot minted successfully", fiber.Map{
		"token_id":  tokenID,
		"token_uri": tokenURI,
	}, nil)
}

// GetCoffeeLot GET /api/v1/tokens/:token_id
func (h *Handlers) GetCoffeeLot(c *fiber.Ctx) error {
	tokenID, err := parseTokenID(c)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	lot, err := h.Registry.GetCoffeeLot(c.Context(), tokenID)
	if err != nil {
		return registryError(c, err)
	}
	owner, err := h.Registry.OwnerOf(c.Context(), tokenID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Coffee lot fetched successfully", fiber.Map{
		"lot":   lot,
		"owner": owner,
	}, nil)
}

// TokenURI GET /api/v1/tokens/:token_id/uri
func (h *Handlers) TokenURI(c *fiber.Ctx) error {
	tokenID, err := parseTokenID(c)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	uri, err := h.Registry.TokenURI(c.Context(), tokenID)
	if err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Token URI fetched successfully", fiber.Map{"token_uri": uri}, nil)
}

// Metadata GET /api/v1/tokens/:token_id/metadata — decodes a data-URI token
// URI into the metadata document.
func (h *Handlers) Metadata(c *fiber.Ctx) error {
	tokenID, err := parseTokenID(c)
	if err != nil {
		return response.Error(c, "Invalid token_id format", 400, nil)
	}
	uri, err := h.Registry.TokenURI(c.Context(), tokenID)
	if err != nil {
		return registryError(c, err)
	}
	doc, err := metadata.Decode(uri)
	if err != nil {
		return response.Error(c, "Token URI is not an embedded metadata document", 422, fiber.Map{"token_uri": uri})
	}
	return response.Success(c, "Token metadata fetched successfully", doc, nil)
}

// Owned GET /api/v1/tokens/owned/:address
func (h *Handlers) Owned(c *fiber.Ctx) error {
	address := c.Params("address")
	if !validation.IsValidAddress(address) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	address = validation.NormalizeAddress(address)
	ids, err := h.Registry.GetTokensByOwner(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	balance, err := h.Registry.BalanceOf(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Owned tokens fetched successfully", fiber.Map{
		"token_ids": ids,
		"balance":   balance,
	}, nil)
}

// TotalMinted GET /api/v1/tokens/total-minted
func (h *Handlers) TotalMinted(c *fiber.Ctx) error {
	total, err := h.Registry.GetTotalMinted(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Total minted fetched successfully", fiber.Map{"total_minted": total}, nil)
}

// Transfer POST /api/v1/tokens/transfer — direct transfer outside the
// marketplace. Any active listing by the sender is cancelled.
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	var body struct {
		To      string `json:"to"`
		TokenID uint64 `json:"token_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.WalletAddress(c)
	if !validation.IsValidAddress(body.To) {
		return response.Error(c, "Invalid address", 400, nil)
	}
	to := validation.NormalizeAddress(body.To)
	if err := h.Registry.TransferToken(c.Context(), caller, to, body.TokenID); err != nil {
		return registryError(c, err)
	}
	return response.Success(c, "Token transferred successfully", fiber.Map{
		"token_id": body.TokenID,
		"from":     caller,
		"to":       to,
	}, nil)
}

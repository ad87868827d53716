package microlots

import (
	"io"

	microsvc "cafe-backend/internal/application/microlots"
	"cafe-backend/internal/application/pins"
	"cafe-backend/internal/middleware"
	"cafe-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *microsvc.Service
	Pins    *pins.Service
}

var statusMap = map[error]int{
	microsvc.ErrNotFound:          404,
	microsvc.ErrNotYours:          403,
	microsvc.ErrBadStatus:         409,
	microsvc.ErrLotCodeTaken:      409,
	microsvc.ErrInvalidLotCode:    400,
	microsvc.ErrInvalidHarvest:    400,
	microsvc.ErrInvalidProducerID: 400,
}

func serviceError(c *fiber.Ctx, err error) error {
	if code, ok := statusMap[err]; ok {
		return response.Error(c, err.Error(), code, nil)
	}
	return response.Error(c, err.Error(), 400, nil)
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

// Create POST /api/v1/microlots
func (h *Handlers) Create(c *fiber.Ctx) error {
	pid := producerID(c)
	if pid == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	var body microsvc.CreateInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	m, err := h.Service.Create(c.Context(), pid, body)
	if err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Microlot submitted", m, nil)
}

// Mine GET /api/v1/microlots/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	pid := producerID(c)
	if pid == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	out, err := h.Service.ListByProducer(c.Context(), pid)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Microlots fetched successfully", out, nil)
}

// Get GET /api/v1/microlots/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	m, err := h.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Microlot fetched successfully", m, nil)
}

// Update PATCH /api/v1/microlots/:id — pending lots only, by their owner.
func (h *Handlers) Update(c *fiber.Ctx) error {
	pid := producerID(c)
	if pid == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	m, err := h.Service.Update(c.Context(), pid, c.Params("id"), fields)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Microlot updated", m, nil)
}

// Approve POST /api/v1/microlots/:id/approve — owner-gated route.
func (h *Handlers) Approve(c *fiber.Ctx) error {
	m, err := h.Service.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Microlot approved", m, nil)
}

// ByStatus GET /api/v1/microlots/status/:status — owner-gated review queue.
func (h *Handlers) ByStatus(c *fiber.Ctx) error {
	out, err := h.Service.ListByStatus(c.Context(), c.Params("status"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Microlots fetched successfully", out, nil)
}

// PinQualityReport POST /api/v1/microlots/:id/quality-report — multipart
// upload, pinned to IPFS, hash written onto the pending microlot.
func (h *Handlers) PinQualityReport(c *fiber.Ctx) error {
	pid := producerID(c)
	if pid == "" {
		return response.Error(c, "No producer account for this wallet", 403, nil)
	}
	m, err := h.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if m.ProducerID.String() != pid {
		return serviceError(c, microsvc.ErrNotYours)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "Missing file", 400, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "Could not read file", 400, nil)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return response.Error(c, "Could not read file", 400, nil)
	}

	pin, err := h.Pins.PinQualityReport(c.Context(), m.LotCode, fh.Filename, data)
	if err != nil {
		return response.Error(c, err.Error(), 502, nil)
	}

	if _, err := h.Service.Update(c.Context(), pid, m.ID.String(), map[string]interface{}{
		"quality_report_hash": pin.IpfsHash,
	}); err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Quality report pinned", pin, nil)
}

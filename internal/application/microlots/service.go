package microlots

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cafe-backend/internal/domain"
	"cafe-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("Microlot not found")
	ErrNotYours          = errors.New("Microlot belongs to another producer")
	ErrBadStatus         = errors.New("Microlot is not in a state that allows this operation")
	ErrLotCodeTaken      = errors.New("Lot code already exists")
	ErrInvalidLotCode    = errors.New("Lot code required")
	ErrInvalidHarvest    = errors.New("Invalid harvest date (expected YYYY-MM-DD)")
	ErrInvalidProducerID = errors.New("Invalid producer ID")
)

// Service holds DB for microlot intake and workflow operations.
type Service struct {
	DB *gorm.DB
}

// CreateInput is the microlot submission body.
type CreateInput struct {
	LotCode           string   `json:"lot_code"`
	Variety           string   `json:"variety"`
	Process           string   `json:"process"`
	HarvestDate       string   `json:"harvest_date"`
	WeightKg          uint64   `json:"weight_kg"`
	ScaScore          *uint64  `json:"sca_score"`
	CuppingNotes      string   `json:"cupping_notes"`
	Certifications    []string `json:"certifications"`
	StorageLocation   string   `json:"storage_location"`
	QualityReportHash string   `json:"quality_report_hash"`
	Images            []string `json:"images"`
}

// Create registers a pending microlot owned by producerID. Lot codes are
// unique across microlots so a later mint cannot collide on-ledger.
func (s *Service) Create(ctx context.Context, producerID string, in CreateInput) (*domain.Microlot, error) {
	pid, err := uuid.Parse(producerID)
	if err != nil {
		return nil, ErrInvalidProducerID
	}
	code := strings.ToUpper(strings.TrimSpace(in.LotCode))
	if !validation.IsValidLotCode(code) {
		return nil, ErrInvalidLotCode
	}
	if strings.TrimSpace(in.Variety) == "" {
		return nil, errors.New("Variety is required")
	}
	if in.WeightKg == 0 {
		return nil, errors.New("Weight must be positive")
	}
	harvest, err := parseHarvestDate(in.HarvestDate)
	if err != nil {
		return nil, err
	}

	var existing domain.Microlot
	if err := s.DB.WithContext(ctx).Where("lot_code = ?", code).First(&existing).Error; err == nil {
		return nil, ErrLotCodeTaken
	}

	certs, err := json.Marshal(in.Certifications)
	if err != nil {
		return nil, err
	}
	images, err := json.Marshal(in.Images)
	if err != nil {
		return nil, err
	}

	m := &domain.Microlot{
		ProducerID:        pid,
		LotCode:           code,
		Variety:           strings.TrimSpace(in.Variety),
		Process:           optString(in.Process),
		HarvestDate:       harvest,
		WeightKg:          in.WeightKg,
		ScaScore:          in.ScaScore,
		CuppingNotes:      optString(in.CuppingNotes),
		Certifications:    datatypes.JSON(certs),
		StorageLocation:   optString(in.StorageLocation),
		QualityReportHash: optString(in.QualityReportHash),
		Images:            datatypes.JSON(images),
		Status:            domain.MicrolotStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// Get fetches a microlot by UUID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Microlot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var m domain.Microlot
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByLotCode fetches a microlot by its lot code.
func (s *Service) GetByLotCode(ctx context.Context, code string) (*domain.Microlot, error) {
	var m domain.Microlot
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := s.DB.WithContext(ctx).Where("lot_code = ?", normalized).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByProducer returns every microlot a producer has submitted, newest first.
func (s *Service) ListByProducer(ctx context.Context, producerID string) ([]domain.Microlot, error) {
	pid, err := uuid.Parse(producerID)
	if err != nil {
		return nil, ErrInvalidProducerID
	}
	var out []domain.Microlot
	err = s.DB.WithContext(ctx).
		Where("producer_id = ?", pid).
		Order("\"createdAt\" DESC").
		Find(&out).Error
	return out, err
}

// ListByStatus returns microlots in one workflow state, newest first.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.Microlot, error) {
	var out []domain.Microlot
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("\"createdAt\" DESC").
		Find(&out).Error
	return out, err
}

// Update edits a pending microlot. Only the owning producer may edit, and only
// before approval.
func (s *Service) Update(ctx context.Context, producerID, id string, fields map[string]interface{}) (*domain.Microlot, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ProducerID.String() != producerID {
		return nil, ErrNotYours
	}
	if m.Status != domain.MicrolotStatusPending {
		return nil, ErrBadStatus
	}

	allowed := map[string]bool{
		"variety": true, "process": true, "harvest_date": true, "weight_kg": true,
		"sca_score": true, "cupping_notes": true, "certifications": true,
		"storage_location": true, "quality_report_hash": true, "images": true,
	}
	upd := make(map[string]interface{})
	for k, v := range fields {
		if !allowed[k] {
			continue
		}
		upd[k] = v
	}
	if len(upd) == 0 {
		return nil, errors.New("No valid update fields provided")
	}
	if v, ok := upd["harvest_date"].(string); ok {
		harvest, err := parseHarvestDate(v)
		if err != nil {
			return nil, err
		}
		upd["harvest_date"] = harvest
	}
	for _, k := range []string{"certifications", "images"} {
		if v, ok := upd[k]; ok {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, errors.New("Invalid " + k + " format")
			}
			upd[k] = datatypes.JSON(raw)
		}
	}
	if err := s.DB.WithContext(ctx).Model(m).Updates(upd).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Approve moves a pending microlot to approved, making it mintable.
func (s *Service) Approve(ctx context.Context, id string) (*domain.Microlot, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.MicrolotStatusPending {
		return nil, ErrBadStatus
	}
	if err := s.DB.WithContext(ctx).Model(m).Update("status", domain.MicrolotStatusApproved).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// MarkMinted records the ledger token ID on an approved microlot after mint.
func (s *Service) MarkMinted(ctx context.Context, id string, tokenID uint64) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.Status != domain.MicrolotStatusApproved {
		return ErrBadStatus
	}
	return s.DB.WithContext(ctx).Model(m).Updates(map[string]interface{}{
		"status":   domain.MicrolotStatusMinted,
		"token_id": tokenID,
	}).Error
}

// MarkSold and MarkRedeemed keep the workflow status in step with ledger
// transitions for tokens that trace back to a microlot.
func (s *Service) MarkSold(ctx context.Context, tokenID uint64) error {
	return s.setStatusByToken(ctx, tokenID, domain.MicrolotStatusSold)
}

func (s *Service) MarkRedeemed(ctx context.Context, tokenID uint64) error {
	return s.setStatusByToken(ctx, tokenID, domain.MicrolotStatusRedeemed)
}

func (s *Service) setStatusByToken(ctx context.Context, tokenID uint64, status string) error {
	return s.DB.WithContext(ctx).Model(&domain.Microlot{}).
		Where("token_id = ?", tokenID).
		Update("status", status).Error
}

func parseHarvestDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidHarvest
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidHarvest
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

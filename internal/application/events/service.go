package events

import (
	"context"
	"errors"
	"strings"

	"cafe-backend/internal/domain"

	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// ForToken returns the full event history of one token, oldest first, so the
// dashboard can render provenance as a timeline.
func (s *Service) ForToken(ctx context.Context, tokenID uint64) ([]domain.TokenEvent, error) {
	if tokenID == 0 {
		return nil, errors.New("Token ID is required")
	}
	var out []domain.TokenEvent
	if err := s.DB.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order(`"createdAt" ASC`).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ForActor returns everything an address has done, newest first.
func (s *Service) ForActor(ctx context.Context, address string) ([]domain.TokenEvent, error) {
	var out []domain.TokenEvent
	if err := s.DB.WithContext(ctx).
		Where("actor = ?", strings.ToLower(address)).
		Order(`"createdAt" DESC`).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the latest marketplace activity across all tokens. limit is
// clamped to 1..200 with a default of 50.
func (s *Service) Recent(ctx context.Context, eventType string, limit int) ([]domain.TokenEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	q := s.DB.WithContext(ctx).Order(`"createdAt" DESC`).Limit(limit)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	var out []domain.TokenEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

package wallet

import (
	"context"
	"errors"
	"strings"

	"cafe-backend/internal/domain"
	"cafe-backend/internal/registry"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("Amount must be a positive number")
	ErrDepositNotFound   = errors.New("Deposit not found")
	ErrAlreadyCredited   = errors.New("Deposit already credited")
	ErrWeiPerCentInvalid = errors.New("WEI_PER_CENT must be a positive integer")
)

// Service converts fiat card payments into registry balance. One cent buys
// WeiPerCent wei, so the dashboard can price deposits without floats.
type Service struct {
	DB         *gorm.DB
	Registry   *registry.Registry
	WeiPerCent domain.Wei
}

// QuoteWei returns the wei a card charge of amountCents will credit.
func (s *Service) QuoteWei(amountCents int64) (domain.Wei, error) {
	if amountCents <= 0 {
		return domain.Wei{}, ErrInvalidAmount
	}
	if s.WeiPerCent.Sign() <= 0 {
		return domain.Wei{}, ErrWeiPerCentInvalid
	}
	return s.WeiPerCent.MulInt64(amountCents), nil
}

// RecordPending writes the deposit row when the PaymentIntent is created, so
// webhook delivery has something to settle against.
func (s *Service) RecordPending(ctx context.Context, paymentIntentID, address string, amountCents int64, currency string) (*domain.Deposit, error) {
	amountWei, err := s.QuoteWei(amountCents)
	if err != nil {
		return nil, err
	}
	d := &domain.Deposit{
		StripePaymentIntentID: paymentIntentID,
		Address:               strings.ToLower(address),
		AmountWei:             amountWei,
		AmountPaidCents:       int(amountCents),
		Currency:              currency,
		Status:                "pending",
	}
	if err := s.DB.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// Settle credits the registry balance for a succeeded PaymentIntent. Safe to
// call more than once per intent: the status flip happens inside a
// transaction, so a retried webhook finds the row already credited.
func (s *Service) Settle(ctx context.Context, paymentIntentID, eventID string, raw []byte) (*domain.Deposit, error) {
	var d domain.Deposit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stripe_payment_intent_id = ?", paymentIntentID).First(&d).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDepositNotFound
			}
			return err
		}
		if d.Status == "credited" {
			return ErrAlreadyCredited
		}
		upd := map[string]interface{}{
			"status":          "credited",
			"stripe_event_id": eventID,
		}
		if len(raw) > 0 {
			upd["raw_payment_intent"] = datatypes.JSON(raw)
		}
		return tx.Model(&d).Updates(upd).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.Registry.Deposit(ctx, d.Address, d.AmountWei); err != nil {
		// Funds stay unreleased: mark the row so support can re-drive.
		s.DB.WithContext(ctx).Model(&d).Update("status", "credit_failed")
		return nil, err
	}
	return &d, nil
}

// MarkFailed records a failed or cancelled PaymentIntent.
func (s *Service) MarkFailed(ctx context.Context, paymentIntentID, eventID string) error {
	res := s.DB.WithContext(ctx).Model(&domain.Deposit{}).
		Where("stripe_payment_intent_id = ? AND status = ?", paymentIntentID, "pending").
		Updates(map[string]interface{}{"status": "failed", "stripe_event_id": eventID})
	if res.Error != nil {
		return res.Error
	}
	return nil
}

// History lists an address's deposits, newest first.
func (s *Service) History(ctx context.Context, address string) ([]domain.Deposit, error) {
	var out []domain.Deposit
	err := s.DB.WithContext(ctx).
		Where("address = ?", strings.ToLower(address)).
		Order("\"createdAt\" DESC").
		Find(&out).Error
	return out, err
}

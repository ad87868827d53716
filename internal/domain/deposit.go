package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deposit records one Stripe-funded top-up of a wallet's registry balance.
// stripe_payment_intent_id is unique so webhook retries stay idempotent.
type Deposit struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string         `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	StripeEventID         string         `gorm:"column:stripe_event_id" json:"stripe_event_id"`
	Address               string         `gorm:"column:address;not null;index" json:"address"`
	AmountWei             Wei            `gorm:"column:amount_wei" json:"amount_wei"`
	AmountPaidCents       int            `gorm:"column:amount_paid_cents;not null" json:"amount_paid_cents"`
	Currency              string         `gorm:"column:currency;type:varchar(8)" json:"currency"`
	Status                string         `gorm:"column:status;type:varchar(32)" json:"status"`
	RawPaymentIntent      datatypes.JSON `gorm:"column:raw_payment_intent" json:"-"`
	CreatedAt             time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt             time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Deposit) TableName() string {
	return "Deposits"
}

func (d *Deposit) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedemptionCertificate is issued when a token holder claims the physical
// lot. One per token, keeps the lot traceable after it leaves custody.
type RedemptionCertificate struct {
	CertificateID     uuid.UUID `gorm:"column:certificate_id;type:uuid;primaryKey" json:"certificate_id"`
	TokenID           uint64    `gorm:"column:token_id;uniqueIndex;not null" json:"token_id"`
	LotCode           string    `gorm:"column:lot_code;not null" json:"lot_code"`
	Redeemer          string    `gorm:"column:redeemer;not null;index" json:"redeemer"`
	WeightKg          uint64    `gorm:"column:weight_kg;not null" json:"weight_kg"`
	CertificateNumber string    `gorm:"column:certificate_number;uniqueIndex;not null" json:"certificate_number"`
	RedeemedAt        time.Time `gorm:"column:redeemed_at;not null" json:"redeemed_at"`
	Status            string    `gorm:"column:status;type:varchar(20);not null;default:'issued'" json:"status"`
	CreatedAt         time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (RedemptionCertificate) TableName() string {
	return "RedemptionCertificates"
}

func (r *RedemptionCertificate) BeforeCreate(tx *gorm.DB) error {
	if r.CertificateID == uuid.Nil {
		r.CertificateID = uuid.New()
	}
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Microlot lifecycle statuses. pending → approved → minted; sold/redeemed
// are written back from registry events for dashboard display.
const (
	MicrolotStatusPending  = "pending"
	MicrolotStatusApproved = "approved"
	MicrolotStatusMinted   = "minted"
	MicrolotStatusSold     = "sold"
	MicrolotStatusRedeemed = "redeemed"
)

// Microlot is the pre-mint workflow record for a physical coffee batch.
// Lot codes are reserved here before they ever reach the registry.
type Microlot struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProducerID        uuid.UUID      `gorm:"column:producer_id;type:uuid;not null;index" json:"producer_id"`
	LotCode           string         `gorm:"column:lot_code;uniqueIndex;not null" json:"lot_code"`
	Variety           string         `gorm:"column:variety;not null" json:"variety"`
	Process           *string        `gorm:"column:process" json:"process"`
	HarvestDate       time.Time      `gorm:"column:harvest_date;not null" json:"harvest_date"`
	WeightKg          uint64         `gorm:"column:weight_kg;not null" json:"weight_kg"`
	ScaScore          *uint64        `gorm:"column:sca_score" json:"sca_score"`
	CuppingNotes      *string        `gorm:"column:cupping_notes" json:"cupping_notes"`
	Certifications    datatypes.JSON `gorm:"column:certifications" json:"certifications"`
	StorageLocation   *string        `gorm:"column:storage_location" json:"storage_location"`
	QualityReportHash *string        `gorm:"column:quality_report_hash" json:"quality_report_hash"`
	Images            datatypes.JSON `gorm:"column:images" json:"images"`
	Status            string         `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	TokenID           *uint64        `gorm:"column:token_id" json:"token_id"`
	CreatedAt         time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Microlot) TableName() string {
	return "Microlots"
}

func (m *Microlot) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

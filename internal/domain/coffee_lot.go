package domain

import (
	"time"
)

// CoffeeLot is the on-registry record of one tokenized microlot. Immutable
// after mint except for the redeemed flag, which flips true exactly once.
type CoffeeLot struct {
	TokenID           uint64    `gorm:"column:token_id;primaryKey;autoIncrement:false" json:"token_id"`
	LotCode           string    `gorm:"column:lot_code;uniqueIndex;not null" json:"lot_code"`
	Producer          string    `gorm:"column:producer;not null;index" json:"producer"`
	WeightKg          uint64    `gorm:"column:weight_kg;not null" json:"weight_kg"`
	ScaScore          uint64    `gorm:"column:sca_score;not null" json:"sca_score"`
	HarvestTimestamp  int64     `gorm:"column:harvest_timestamp;not null" json:"harvest_timestamp"`
	QualityReportHash string    `gorm:"column:quality_report_hash" json:"quality_report_hash"`
	Redeemed          bool      `gorm:"column:redeemed;not null;default:false" json:"redeemed"`
	MintedAt          int64     `gorm:"column:minted_at;not null" json:"minted_at"`
	CreatedAt         time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (CoffeeLot) TableName() string {
	return "CoffeeLots"
}

package domain

import (
	"time"
)

// ProducerVerification is the registry's informational verified-producer
// flag. It does not gate minting; the client surfaces it as a badge.
type ProducerVerification struct {
	Address   string    `gorm:"column:address;primaryKey" json:"address"`
	Verified  bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (ProducerVerification) TableName() string {
	return "VerifiedProducers"
}

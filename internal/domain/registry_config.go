package domain

import (
	"time"
)

// RegistryConfig is the single row of registry-wide state: the designated
// owner, the two fees, the monotonic mint counter and the accrued fee
// balance. Mutated only through the owner-gated setters — never treated as
// ambient globals.
type RegistryConfig struct {
	ID                uint      `gorm:"column:id;primaryKey" json:"-"`
	OwnerAddress      string    `gorm:"column:owner_address;not null" json:"owner_address"`
	MintFee           Wei       `gorm:"column:mint_fee" json:"mint_fee"`
	MarketplaceFeeBps int64     `gorm:"column:marketplace_fee_bps;not null" json:"marketplace_fee_bps"`
	TotalMinted       uint64    `gorm:"column:total_minted;not null;default:0" json:"total_minted"`
	Balance           Wei       `gorm:"column:balance" json:"balance"`
	CreatedAt         time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (RegistryConfig) TableName() string {
	return "RegistryConfig"
}

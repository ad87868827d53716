package domain

import (
	"time"
)

// Listing is the marketplace slot for a token, reused across listing cycles.
// Seller and price are only meaningful while active is true. The active
// column is indexed so getActiveListings never scans the full token set.
type Listing struct {
	TokenID   uint64    `gorm:"column:token_id;primaryKey;autoIncrement:false" json:"token_id"`
	Seller    string    `gorm:"column:seller" json:"seller"`
	Price     Wei       `gorm:"column:price" json:"price"`
	Active    bool      `gorm:"column:active;not null;default:false;index" json:"active"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Listing) TableName() string {
	return "Listings"
}

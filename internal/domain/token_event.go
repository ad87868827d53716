package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types appended by the registry. Names match the original contract
// events — off-chain indexers key on them.
const (
	EventCoffeeMinted          = "CoffeeMinted"
	EventCoffeeListed          = "CoffeeListed"
	EventListingCancelled      = "ListingCancelled"
	EventCoffeeSold            = "CoffeeSold"
	EventCoffeeRedeemed        = "CoffeeRedeemed"
	EventTransfer              = "Transfer"
	EventMintFeeUpdated        = "MintFeeUpdated"
	EventMarketplaceFeeUpdated = "MarketplaceFeeUpdated"
	EventProducerVerified      = "ProducerVerified"
)

// TokenEvent is one append-only log entry for a registry state change.
// Admin events (fee updates, producer verification) carry token_id 0.
type TokenEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	TokenID   uint64         `gorm:"column:token_id;not null;index" json:"token_id"`
	EventType string         `gorm:"column:event_type;type:varchar(32);not null;index" json:"event_type"`
	Actor     string         `gorm:"column:actor" json:"actor"`
	EventData datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (TokenEvent) TableName() string {
	return "TokenEvents"
}

func (e *TokenEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

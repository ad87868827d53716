package domain

import (
	"time"
)

// Token is one row of the ownership ledger: exactly one owner per token at
// all times. The owner column is indexed so getTokensByOwner stays a bounded
// query instead of a full scan.
type Token struct {
	TokenID   uint64    `gorm:"column:token_id;primaryKey;autoIncrement:false" json:"token_id"`
	Owner     string    `gorm:"column:owner;not null;index" json:"owner"`
	TokenURI  string    `gorm:"column:token_uri;type:text" json:"token_uri"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Token) TableName() string {
	return "Tokens"
}

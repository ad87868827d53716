package domain

import (
	"time"
)

// Account holds a wallet's native-currency balance inside the registry.
// Balances are funded through deposits and move only inside registry
// transactions (mint fees, sale payouts, withdrawals).
type Account struct {
	Address   string    `gorm:"column:address;primaryKey" json:"address"`
	Balance   Wei       `gorm:"column:balance" json:"balance"`
	CreatedAt time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

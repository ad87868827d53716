package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Producer is the off-registry producer profile: system of record before
// minting, display cache after. Registry verification is mirrored here so
// the dashboard can render the badge without a registry read.
type Producer struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WalletAddress  string         `gorm:"column:wallet_address;uniqueIndex;not null" json:"wallet_address"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Email          string         `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"column:password_hash;not null" json:"-"`
	Phone          *string        `gorm:"column:phone" json:"phone"`
	FarmName       string         `gorm:"column:farm_name;not null" json:"farm_name"`
	FarmLocation   *string        `gorm:"column:farm_location" json:"farm_location"`
	FarmAltitude   *int           `gorm:"column:farm_altitude" json:"farm_altitude"`
	Certifications datatypes.JSON `gorm:"column:certifications" json:"certifications"`
	Verified       bool           `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt      time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Producer) TableName() string {
	return "Producers"
}

func (p *Producer) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

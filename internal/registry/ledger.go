package registry

import (
	"errors"

	"cafe-backend/internal/domain"

	"gorm.io/gorm"
)

// Ledger is the ownership capability the marketplace composes with: who owns
// a token, how many a wallet holds, and how ownership moves. Implemented
// once over GORM rather than inherited token-standard behavior, so the
// marketplace never reaches around it.
type Ledger interface {
	OwnerOf(tx *gorm.DB, tokenID uint64) (string, error)
	BalanceOf(tx *gorm.DB, owner string) (int64, error)
	TokensOfOwner(tx *gorm.DB, owner string) ([]uint64, error)
	TokenURI(tx *gorm.DB, tokenID uint64) (string, error)
	Mint(tx *gorm.DB, to string, tokenID uint64, tokenURI string) error
	Transfer(tx *gorm.DB, from, to string, tokenID uint64) error
}

type gormLedger struct{}

// NewLedger returns the GORM-backed ownership ledger.
func NewLedger() Ledger {
	return &gormLedger{}
}

func (l *gormLedger) OwnerOf(tx *gorm.DB, tokenID uint64) (string, error) {
	var token domain.Token
	if err := tx.Where("token_id = ?", tokenID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return token.Owner, nil
}

func (l *gormLedger) BalanceOf(tx *gorm.DB, owner string) (int64, error) {
	var count int64
	if err := tx.Model(&domain.Token{}).Where("owner = ?", owner).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (l *gormLedger) TokensOfOwner(tx *gorm.DB, owner string) ([]uint64, error) {
	var ids []uint64
	if err := tx.Model(&domain.Token{}).Where("owner = ?", owner).Order("token_id ASC").Pluck("token_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (l *gormLedger) TokenURI(tx *gorm.DB, tokenID uint64) (string, error) {
	var token domain.Token
	if err := tx.Where("token_id = ?", tokenID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return token.TokenURI, nil
}

func (l *gormLedger) Mint(tx *gorm.DB, to string, tokenID uint64, tokenURI string) error {
	return tx.Create(&domain.Token{
		TokenID:  tokenID,
		Owner:    to,
		TokenURI: tokenURI,
	}).Error
}

// Transfer moves ownership from → to. The WHERE owner = from guard means a
// concurrent owner change makes this a no-op, surfaced as a revert instead
// of a silent double-spend.
func (l *gormLedger) Transfer(tx *gorm.DB, from, to string, tokenID uint64) error {
	res := tx.Model(&domain.Token{}).
		Where("token_id = ? AND owner = ?", tokenID, from).
		Update("owner", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotTokenOwner
	}
	return nil
}

package registry

import (
	"context"
	"errors"

	"cafe-backend/internal/domain"

	"gorm.io/gorm"
)

// Read-only surface. Views take no lock: reads see whatever the last
// committed transaction left behind.

func (r *Registry) Name() string   { return TokenName }
func (r *Registry) Symbol() string { return TokenSymbol }

// Config returns the current registry configuration (owner, fees, counter).
func (r *Registry) Config(ctx context.Context) (*domain.RegistryConfig, error) {
	var cfg domain.RegistryConfig
	if err := r.db.WithContext(ctx).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MintFee returns the current mint fee.
func (r *Registry) MintFee(ctx context.Context) (domain.Wei, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return domain.Wei{}, err
	}
	return cfg.MintFee, nil
}

// MarketplaceFee returns the current marketplace fee in basis points.
func (r *Registry) MarketplaceFee(ctx context.Context) (int64, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.MarketplaceFeeBps, nil
}

// GetCoffeeLot returns the lot record for tokenID.
func (r *Registry) GetCoffeeLot(ctx context.Context, tokenID uint64) (*domain.CoffeeLot, error) {
	return loadLot(r.db.WithContext(ctx), tokenID)
}

// GetListing returns the listing slot for tokenID. A token that was never
// listed gets an empty, inactive slot, matching the contract's zero struct.
func (r *Registry) GetListing(ctx context.Context, tokenID uint64) (*domain.Listing, error) {
	if _, err := r.ledger.OwnerOf(r.db.WithContext(ctx), tokenID); err != nil {
		return nil, err
	}
	listing, err := loadListing(r.db.WithContext(ctx), tokenID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return &domain.Listing{TokenID: tokenID}, nil
	}
	return listing, nil
}

// GetActiveListings returns parallel slices of token IDs and listings for
// every active listing, ordered by token ID. Indexed on the active column,
// so cost scales with active listings rather than minted tokens.
func (r *Registry) GetActiveListings(ctx context.Context) ([]uint64, []domain.Listing, error) {
	var listings []domain.Listing
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("token_id ASC").Find(&listings).Error; err != nil {
		return nil, nil, err
	}
	ids := make([]uint64, len(listings))
	for i, l := range listings {
		ids[i] = l.TokenID
	}
	return ids, listings, nil
}

// GetTokensByOwner returns the token IDs currently owned by owner.
func (r *Registry) GetTokensByOwner(ctx context.Context, owner string) ([]uint64, error) {
	return r.ledger.TokensOfOwner(r.db.WithContext(ctx), owner)
}

// GetTotalMinted returns the monotonic mint counter.
func (r *Registry) GetTotalMinted(ctx context.Context) (uint64, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.TotalMinted, nil
}

// OwnerOf returns the current owner of tokenID.
func (r *Registry) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	return r.ledger.OwnerOf(r.db.WithContext(ctx), tokenID)
}

// BalanceOf returns how many tokens owner holds.
func (r *Registry) BalanceOf(ctx context.Context, owner string) (int64, error) {
	return r.ledger.BalanceOf(r.db.WithContext(ctx), owner)
}

// TokenURI returns the metadata URI stored at mint.
func (r *Registry) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	return r.ledger.TokenURI(r.db.WithContext(ctx), tokenID)
}

// VerifiedProducers reports the informational verification flag for addr.
func (r *Registry) VerifiedProducers(ctx context.Context, addr string) (bool, error) {
	var pv domain.ProducerVerification
	err := r.db.WithContext(ctx).Where("address = ?", addr).First(&pv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return pv.Verified, nil
}

// CertificateForToken returns the redemption certificate issued for tokenID,
// or ErrTokenNotFound when the token was never redeemed.
func (r *Registry) CertificateForToken(ctx context.Context, tokenID uint64) (*domain.RedemptionCertificate, error) {
	var cert domain.RedemptionCertificate
	err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// CertificatesForRedeemer returns every certificate an address has earned,
// newest first.
func (r *Registry) CertificatesForRedeemer(ctx context.Context, address string) ([]domain.RedemptionCertificate, error) {
	var certs []domain.RedemptionCertificate
	err := r.db.WithContext(ctx).
		Where("redeemer = ?", address).
		Order("redeemed_at DESC").
		Find(&certs).Error
	return certs, err
}

// AccountBalance returns the registry-held native balance for address.
func (r *Registry) AccountBalance(ctx context.Context, address string) (domain.Wei, error) {
	var acct domain.Account
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewWei(0), nil
	}
	if err != nil {
		return domain.Wei{}, err
	}
	return acct.Balance, nil
}

// ContractBalance returns the accrued fee balance held by the registry.
func (r *Registry) ContractBalance(ctx context.Context) (domain.Wei, error) {
	cfg, err := r.Config(ctx)
	if err != nil {
		return domain.Wei{}, err
	}
	return cfg.Balance, nil
}

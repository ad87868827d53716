package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cafe-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Collection identity and fee bounds from the deployed contract.
const (
	TokenName            = "CafeToken"
	TokenSymbol          = "CAFE"
	MaxMarketplaceFeeBps = 1000
	DefaultFeeBps        = 300
)

// DefaultMintFee is 0.01 ether in wei.
var DefaultMintFee = domain.NewWei(10_000_000_000_000_000)

// Registry is the coffee-lot token ledger with its embedded marketplace.
// Every mutating operation runs inside a single DB transaction and the
// operations are serialized by a mutex, so calls execute one at a time to
// completion or roll back entirely — the deterministic single-writer model
// the contract was designed for. Preconditions are always re-checked
// against current storage, never cached values.
type Registry struct {
	db     *gorm.DB
	ledger Ledger

	mu  sync.Mutex
	now func() time.Time
}

// New returns a Registry over db with the GORM-backed ownership ledger.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db, ledger: NewLedger(), now: time.Now}
}

// EnsureConfig seeds the singleton config row on first boot. Subsequent
// boots keep whatever the owner has configured since.
func EnsureConfig(db *gorm.DB, ownerAddress string) error {
	var cfg domain.RegistryConfig
	err := db.First(&cfg).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&domain.RegistryConfig{
		ID:                1,
		OwnerAddress:      ownerAddress,
		MintFee:           DefaultMintFee,
		MarketplaceFeeBps: DefaultFeeBps,
	}).Error
}

// MintInput carries the producer-supplied lot data for mintCoffeeLot.
type MintInput struct {
	TokenURI          string
	LotCode           string
	WeightKg          uint64
	ScaScore          uint64
	HarvestTimestamp  int64
	QualityReportHash string
}

// MintCoffeeLot allocates the next token ID, records the lot and mints the
// token to caller. Only the mint fee is debited; any excess attached value
// is never taken (the refund path).
func (r *Registry) MintCoffeeLot(ctx context.Context, caller string, value domain.Wei, in MintInput) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokenID uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if value.Cmp(cfg.MintFee) < 0 {
			return ErrInsufficientMintFee
		}
		if in.LotCode == "" {
			return ErrLotCodeRequired
		}
		var count int64
		if err := tx.Model(&domain.CoffeeLot{}).Where("lot_code = ?", in.LotCode).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrLotCodeExists
		}
		if in.ScaScore < 8000 || in.ScaScore > 10000 {
			return ErrInvalidScaScore
		}
		if err := r.checkFunds(tx, caller, value); err != nil {
			return err
		}

		cfg.TotalMinted++
		tokenID = cfg.TotalMinted

		if err := tx.Create(&domain.CoffeeLot{
			TokenID:           tokenID,
			LotCode:           in.LotCode,
			Producer:          caller,
			WeightKg:          in.WeightKg,
			ScaScore:          in.ScaScore,
			HarvestTimestamp:  in.HarvestTimestamp,
			QualityReportHash: in.QualityReportHash,
			MintedAt:          r.now().Unix(),
		}).Error; err != nil {
			return err
		}
		if err := r.ledger.Mint(tx, caller, tokenID, in.TokenURI); err != nil {
			return err
		}
		if err := appendEvent(tx, tokenID, domain.EventCoffeeMinted, caller, map[string]interface{}{
			"token_id":  tokenID,
			"lot_code":  in.LotCode,
			"producer":  caller,
			"weight_kg": in.WeightKg,
			"sca_score": in.ScaScore,
			"token_uri": in.TokenURI,
		}); err != nil {
			return err
		}

		// Value movement last: exactly the mint fee, excess stays with caller.
		if err := debitAccount(tx, caller, cfg.MintFee); err != nil {
			return err
		}
		cfg.Balance = cfg.Balance.Add(cfg.MintFee)
		return saveConfig(tx, cfg)
	})
	if err != nil {
		return 0, err
	}
	return tokenID, nil
}

// ListForSale puts a token on the marketplace at price.
func (r *Registry) ListForSale(ctx context.Context, caller string, tokenID uint64, price domain.Wei) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := r.ledger.OwnerOf(tx, tokenID)
		if err != nil {
			return err
		}
		if owner != caller {
			return ErrNotTokenOwner
		}
		if price.Sign() <= 0 {
			return ErrPriceNotPositive
		}
		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing != nil && listing.Active {
			return ErrAlreadyListed
		}
		lot, err := loadLot(tx, tokenID)
		if err != nil {
			return err
		}
		if lot.Redeemed {
			return ErrAlreadyRedeemed
		}

		if err := upsertListing(tx, tokenID, caller, price, true); err != nil {
			return err
		}
		return appendEvent(tx, tokenID, domain.EventCoffeeListed, caller, map[string]interface{}{
			"token_id": tokenID,
			"seller":   caller,
			"price":    price.String(),
		})
	})
}

// UpdateListingPrice replaces the active listing's price and re-emits the
// listing event.
func (r *Registry) UpdateListingPrice(ctx context.Context, caller string, tokenID uint64, newPrice domain.Wei) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing == nil || !listing.Active {
			return ErrNotForSale
		}
		if listing.Seller != caller {
			return ErrNotSeller
		}
		if newPrice.Sign() <= 0 {
			return ErrPriceNotPositive
		}

		if err := tx.Model(&domain.Listing{}).Where("token_id = ?", tokenID).Update("price", newPrice).Error; err != nil {
			return err
		}
		return appendEvent(tx, tokenID, domain.EventCoffeeListed, caller, map[string]interface{}{
			"token_id": tokenID,
			"seller":   caller,
			"price":    newPrice.String(),
		})
	})
}

// CancelListing deactivates the caller's active listing.
func (r *Registry) CancelListing(ctx context.Context, caller string, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing == nil || !listing.Active {
			return ErrNotForSale
		}
		if listing.Seller != caller {
			return ErrNotSeller
		}
		return deactivateListing(tx, tokenID, caller)
	})
}

// BuyNFT purchases an actively listed token. Ownership transfer and listing
// deactivation commit in the same transaction as the payout; the seller is
// re-validated against the current owner so a stale listing can never pay
// the wrong party. Excess payment beyond the price is never debited.
func (r *Registry) BuyNFT(ctx context.Context, caller string, value domain.Wei, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing == nil || !listing.Active {
			return ErrNotForSale
		}
		owner, err := r.ledger.OwnerOf(tx, tokenID)
		if err != nil {
			return err
		}
		if owner != listing.Seller {
			return ErrStaleSeller
		}
		if value.Cmp(listing.Price) < 0 {
			return ErrInsufficientPayment
		}
		if caller == listing.Seller {
			return ErrBuyOwnToken
		}
		if err := r.checkFunds(tx, caller, value); err != nil {
			return err
		}

		// State flags commit before value moves.
		if err := r.ledger.Transfer(tx, listing.Seller, caller, tokenID); err != nil {
			return err
		}
		if err := tx.Model(&domain.Listing{}).Where("token_id = ?", tokenID).Update("active", false).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, tokenID, domain.EventCoffeeSold, caller, map[string]interface{}{
			"token_id": tokenID,
			"seller":   listing.Seller,
			"buyer":    caller,
			"price":    listing.Price.String(),
		}); err != nil {
			return err
		}

		fee := listing.Price.FeePortion(cfg.MarketplaceFeeBps)
		sellerAmount := listing.Price.Sub(fee)
		if err := debitAccount(tx, caller, listing.Price); err != nil {
			return err
		}
		if err := creditAccount(tx, listing.Seller, sellerAmount); err != nil {
			return err
		}
		cfg.Balance = cfg.Balance.Add(fee)
		return saveConfig(tx, cfg)
	})
}

// RedeemCoffee claims the physical lot: sets redeemed permanently, kills any
// active listing as a side effect and issues a redemption certificate.
func (r *Registry) RedeemCoffee(ctx context.Context, caller string, tokenID uint64) (*domain.RedemptionCertificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cert *domain.RedemptionCertificate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := r.ledger.OwnerOf(tx, tokenID)
		if err != nil {
			return err
		}
		if owner != caller {
			return ErrNotTokenOwner
		}
		lot, err := loadLot(tx, tokenID)
		if err != nil {
			return err
		}
		if lot.Redeemed {
			return ErrAlreadyRedeemed
		}

		if err := tx.Model(&domain.CoffeeLot{}).Where("token_id = ?", tokenID).Update("redeemed", true).Error; err != nil {
			return err
		}
		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing != nil && listing.Active {
			if err := deactivateListing(tx, tokenID, listing.Seller); err != nil {
				return err
			}
		}

		now := r.now()
		cert = &domain.RedemptionCertificate{
			TokenID:           tokenID,
			LotCode:           lot.LotCode,
			Redeemer:          caller,
			WeightKg:          lot.WeightKg,
			CertificateNumber: fmt.Sprintf("CAFE-%d-%d", tokenID, now.UnixMilli()),
			RedeemedAt:        now,
			Status:            "issued",
		}
		if err := tx.Create(cert).Error; err != nil {
			return err
		}
		return appendEvent(tx, tokenID, domain.EventCoffeeRedeemed, caller, map[string]interface{}{
			"token_id": tokenID,
			"redeemer": caller,
			"lot_code": lot.LotCode,
		})
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// TransferToken is the direct ownership-transfer path (outside a sale). Any
// active listing dies with the transfer, so listing seller and owner can
// never desynchronize.
func (r *Registry) TransferToken(ctx context.Context, caller, to string, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if to == "" {
			return ErrInvalidAddress
		}
		owner, err := r.ledger.OwnerOf(tx, tokenID)
		if err != nil {
			return err
		}
		if owner != caller {
			return ErrNotTokenOwner
		}

		listing, err := loadListing(tx, tokenID)
		if err != nil {
			return err
		}
		if listing != nil && listing.Active {
			if err := deactivateListing(tx, tokenID, listing.Seller); err != nil {
				return err
			}
		}
		if err := r.ledger.Transfer(tx, caller, to, tokenID); err != nil {
			return err
		}
		return appendEvent(tx, tokenID, domain.EventTransfer, caller, map[string]interface{}{
			"token_id": tokenID,
			"from":     caller,
			"to":       to,
		})
	})
}

// SetMintFee replaces the global mint fee. Owner only.
func (r *Registry) SetMintFee(ctx context.Context, caller string, newFee domain.Wei) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if caller != cfg.OwnerAddress {
			return ErrNotOwner
		}
		oldFee := cfg.MintFee
		cfg.MintFee = newFee
		if err := saveConfig(tx, cfg); err != nil {
			return err
		}
		return appendEvent(tx, 0, domain.EventMintFeeUpdated, caller, map[string]interface{}{
			"old_fee": oldFee.String(),
			"new_fee": newFee.String(),
		})
	})
}

// SetMarketplaceFee replaces the marketplace fee rate, capped at 10%.
func (r *Registry) SetMarketplaceFee(ctx context.Context, caller string, newBps int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if caller != cfg.OwnerAddress {
			return ErrNotOwner
		}
		if newBps < 0 || newBps > MaxMarketplaceFeeBps {
			return ErrFeeTooHigh
		}
		oldBps := cfg.MarketplaceFeeBps
		cfg.MarketplaceFeeBps = newBps
		if err := saveConfig(tx, cfg); err != nil {
			return err
		}
		return appendEvent(tx, 0, domain.EventMarketplaceFeeUpdated, caller, map[string]interface{}{
			"old_fee": oldBps,
			"new_fee": newBps,
		})
	})
}

// SetProducerVerification flips the informational verified-producer flag.
func (r *Registry) SetProducerVerification(ctx context.Context, caller, producer string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if caller != cfg.OwnerAddress {
			return ErrNotOwner
		}
		if producer == "" {
			return ErrInvalidAddress
		}
		var pv domain.ProducerVerification
		err = tx.Where("address = ?", producer).First(&pv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&domain.ProducerVerification{Address: producer, Verified: verified}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if err := tx.Model(&pv).Update("verified", verified).Error; err != nil {
			return err
		}
		return appendEvent(tx, 0, domain.EventProducerVerified, caller, map[string]interface{}{
			"producer": producer,
			"verified": verified,
		})
	})
}

// Withdraw moves the entire accrued fee balance to the owner's account and
// returns the amount moved.
func (r *Registry) Withdraw(ctx context.Context, caller string) (domain.Wei, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var amount domain.Wei
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if caller != cfg.OwnerAddress {
			return ErrNotOwner
		}
		amount = cfg.Balance
		cfg.Balance = domain.NewWei(0)
		if err := saveConfig(tx, cfg); err != nil {
			return err
		}
		return creditAccount(tx, cfg.OwnerAddress, amount)
	})
	if err != nil {
		return domain.Wei{}, err
	}
	return amount, nil
}

// Deposit credits a wallet's registry balance (funding path; called by the
// payments webhook, and directly by tests).
func (r *Registry) Deposit(ctx context.Context, address string, amount domain.Wei) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address == "" {
		return ErrInvalidAddress
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, address, amount)
	})
}

// --- transaction helpers ---

func loadConfig(tx *gorm.DB) (*domain.RegistryConfig, error) {
	var cfg domain.RegistryConfig
	if err := tx.First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("registry config not seeded: %w", err)
	}
	return &cfg, nil
}

func saveConfig(tx *gorm.DB, cfg *domain.RegistryConfig) error {
	return tx.Save(cfg).Error
}

func loadLot(tx *gorm.DB, tokenID uint64) (*domain.CoffeeLot, error) {
	var lot domain.CoffeeLot
	if err := tx.Where("token_id = ?", tokenID).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &lot, nil
}

func loadListing(tx *gorm.DB, tokenID uint64) (*domain.Listing, error) {
	var listing domain.Listing
	err := tx.Where("token_id = ?", tokenID).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func upsertListing(tx *gorm.DB, tokenID uint64, seller string, price domain.Wei, active bool) error {
	existing, err := loadListing(tx, tokenID)
	if err != nil {
		return err
	}
	if existing == nil {
		return tx.Create(&domain.Listing{TokenID: tokenID, Seller: seller, Price: price, Active: active}).Error
	}
	return tx.Model(&domain.Listing{}).Where("token_id = ?", tokenID).Updates(map[string]interface{}{
		"seller": seller,
		"price":  price,
		"active": active,
	}).Error
}

func deactivateListing(tx *gorm.DB, tokenID uint64, seller string) error {
	if err := tx.Model(&domain.Listing{}).Where("token_id = ?", tokenID).Update("active", false).Error; err != nil {
		return err
	}
	return appendEvent(tx, tokenID, domain.EventListingCancelled, seller, map[string]interface{}{
		"token_id": tokenID,
		"seller":   seller,
	})
}

// checkFunds rejects attaching more value than the caller's balance holds,
// the same way a chain rejects a transaction whose value exceeds the
// sender's funds.
func (r *Registry) checkFunds(tx *gorm.DB, address string, value domain.Wei) error {
	acct, err := loadAccount(tx, address)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(value) < 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func loadAccount(tx *gorm.DB, address string) (*domain.Account, error) {
	var acct domain.Account
	err := tx.Where("address = ?", address).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = domain.Account{Address: address, Balance: domain.NewWei(0)}
		if err := tx.Create(&acct).Error; err != nil {
			return nil, err
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func creditAccount(tx *gorm.DB, address string, amount domain.Wei) error {
	acct, err := loadAccount(tx, address)
	if err != nil {
		return err
	}
	return tx.Model(&domain.Account{}).Where("address = ?", address).
		Update("balance", acct.Balance.Add(amount)).Error
}

func debitAccount(tx *gorm.DB, address string, amount domain.Wei) error {
	acct, err := loadAccount(tx, address)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return tx.Model(&domain.Account{}).Where("address = ?", address).
		Update("balance", acct.Balance.Sub(amount)).Error
}

func appendEvent(tx *gorm.DB, tokenID uint64, eventType, actor string, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.Create(&domain.TokenEvent{
		TokenID:   tokenID,
		EventType: eventType,
		Actor:     actor,
		EventData: datatypes.JSON(b),
	}).Error
}

package registry

import (
	"context"
	"encoding/json"
	"testing"

	"cafe-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerAddr    = "0xaaaa00000000000000000000000000000000aaaa"
	producerAddr = "0xbbbb00000000000000000000000000000000bbbb"
	buyerAddr    = "0xcccc00000000000000000000000000000000cccc"
	buyer2Addr   = "0xdddd00000000000000000000000000000000dddd"
)

var oneEther = domain.NewWei(1_000_000_000_000_000_000)

func setupRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.RegistryConfig{}, &domain.CoffeeLot{}, &domain.Token{},
		&domain.Listing{}, &domain.Account{}, &domain.TokenEvent{},
		&domain.RedemptionCertificate{}, &domain.ProducerVerification{},
	))
	require.NoError(t, EnsureConfig(db, ownerAddr))
	return New(db), db
}

func fund(t *testing.T, r *Registry, addr string, amount domain.Wei) {
	t.Helper()
	require.NoError(t, r.Deposit(context.Background(), addr, amount))
}

func sampleMint() MintInput {
	return MintInput{
		TokenURI:          "ipfs://QmTest123",
		LotCode:           "BR-MG-2024-001",
		WeightKg:          300,
		ScaScore:          8500,
		HarvestTimestamp:  1717200000,
		QualityReportHash: "QmQualityReport123",
	}
}

func mintSample(t *testing.T, r *Registry) uint64 {
	t.Helper()
	fund(t, r, producerAddr, oneEther)
	id, err := r.MintCoffeeLot(context.Background(), producerAddr, DefaultMintFee, sampleMint())
	require.NoError(t, err)
	return id
}

func balance(t *testing.T, r *Registry, addr string) domain.Wei {
	t.Helper()
	b, err := r.AccountBalance(context.Background(), addr)
	require.NoError(t, err)
	return b
}

func lastEvent(t *testing.T, db *gorm.DB, eventType string) map[string]interface{} {
	t.Helper()
	var ev domain.TokenEvent
	require.NoError(t, db.Where("event_type = ?", eventType).Order("\"createdAt\" DESC").First(&ev).Error)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(ev.EventData, &data))
	return data
}

func TestRegistry_Defaults(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	assert.Equal(t, "CafeToken", r.Name())
	assert.Equal(t, "CAFE", r.Symbol())

	fee, err := r.MintFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fee.Cmp(DefaultMintFee))

	bps, err := r.MarketplaceFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), bps)

	total, err := r.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)

	cfg, err := r.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, ownerAddr, cfg.OwnerAddress)
}

func TestMintCoffeeLot_Success(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()

	id := mintSample(t, r)
	assert.Equal(t, uint64(1), id)

	owner, err := r.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, producerAddr, owner)

	total, err := r.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)

	lot, err := r.GetCoffeeLot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "BR-MG-2024-001", lot.LotCode)
	assert.Equal(t, producerAddr, lot.Producer)
	assert.Equal(t, uint64(300), lot.WeightKg)
	assert.Equal(t, uint64(8500), lot.ScaScore)
	assert.False(t, lot.Redeemed)
	assert.NotZero(t, lot.MintedAt)

	uri, err := r.TokenURI(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmTest123", uri)

	ev := lastEvent(t, db, domain.EventCoffeeMinted)
	assert.Equal(t, "BR-MG-2024-001", ev["lot_code"])
	assert.Equal(t, producerAddr, ev["producer"])
}

func TestMintCoffeeLot_InsufficientFee(t *testing.T) {
	r, _ := setupRegistry(t)
	fund(t, r, producerAddr, oneEther)

	half := domain.NewWei(5_000_000_000_000_000)
	_, err := r.MintCoffeeLot(context.Background(), producerAddr, half, sampleMint())
	require.Error(t, err)
	assert.Equal(t, "Insufficient mint fee", Reason(err))
}

func TestMintCoffeeLot_EmptyLotCode(t *testing.T) {
	r, _ := setupRegistry(t)
	fund(t, r, producerAddr, oneEther)

	in := sampleMint()
	in.LotCode = ""
	_, err := r.MintCoffeeLot(context.Background(), producerAddr, DefaultMintFee, in)
	assert.Equal(t, "Lot code required", Reason(err))
}

func TestMintCoffeeLot_DuplicateLotCode(t *testing.T) {
	r, _ := setupRegistry(t)
	mintSample(t, r)
	fund(t, r, buyerAddr, oneEther)

	in := sampleMint()
	in.TokenURI = "ipfs://QmTest456"
	in.WeightKg = 400
	in.ScaScore = 8600
	_, err := r.MintCoffeeLot(context.Background(), buyerAddr, DefaultMintFee, in)
	assert.Equal(t, "Lot code already exists", Reason(err))

	// Nothing minted by the failed call.
	total, err := r.GetTotalMinted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestMintCoffeeLot_ScaScoreBounds(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	fund(t, r, producerAddr, oneEther)

	in := sampleMint()
	in.ScaScore = 7500
	_, err := r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, in)
	assert.Equal(t, "Invalid SCA score", Reason(err))

	in.ScaScore = 10001
	in.LotCode = "BR-MG-2024-002"
	_, err = r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, in)
	assert.Equal(t, "Invalid SCA score", Reason(err))

	// Both bounds inclusive.
	in.ScaScore = 8000
	in.LotCode = "BR-MG-2024-003"
	_, err = r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, in)
	require.NoError(t, err)

	in.ScaScore = 10000
	in.LotCode = "BR-MG-2024-004"
	_, err = r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, in)
	require.NoError(t, err)
}

func TestMintCoffeeLot_RefundsExcessPayment(t *testing.T) {
	r, _ := setupRegistry(t)
	fund(t, r, producerAddr, oneEther)

	excess := domain.NewWei(50_000_000_000_000_000) // 0.05 ether attached
	_, err := r.MintCoffeeLot(context.Background(), producerAddr, excess, sampleMint())
	require.NoError(t, err)

	// Only the mint fee was taken.
	want := oneEther.Sub(DefaultMintFee)
	assert.Equal(t, 0, balance(t, r, producerAddr).Cmp(want))

	contract, err := r.ContractBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, contract.Cmp(DefaultMintFee))
}

func TestListForSale(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	price := oneEther

	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, price))

	listing, err := r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, producerAddr, listing.Seller)
	assert.Equal(t, 0, listing.Price.Cmp(price))
	assert.True(t, listing.Active)

	ev := lastEvent(t, db, domain.EventCoffeeListed)
	assert.Equal(t, producerAddr, ev["seller"])
	assert.Equal(t, price.String(), ev["price"])
}

func TestListForSale_Reverts(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)

	err := r.ListForSale(ctx, buyerAddr, 1, oneEther)
	assert.Equal(t, "Not token owner", Reason(err))

	err = r.ListForSale(ctx, producerAddr, 1, domain.NewWei(0))
	assert.Equal(t, "Price must be positive", Reason(err))

	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))
	err = r.ListForSale(ctx, producerAddr, 1, oneEther.Add(oneEther))
	assert.Equal(t, "Already listed", Reason(err))

	err = r.ListForSale(ctx, producerAddr, 99, oneEther)
	assert.Equal(t, "Token does not exist", Reason(err))
}

func TestBuyNFT_Success(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))
	fund(t, r, buyerAddr, oneEther.Add(oneEther))

	require.NoError(t, r.BuyNFT(ctx, buyerAddr, oneEther, 1))

	// Ownership and listing flip together.
	owner, err := r.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, buyerAddr, owner)

	listing, err := r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, listing.Active)

	ev := lastEvent(t, db, domain.EventCoffeeSold)
	assert.Equal(t, producerAddr, ev["seller"])
	assert.Equal(t, buyerAddr, ev["buyer"])
}

func TestBuyNFT_FeeSplitExact(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))
	fund(t, r, buyerAddr, oneEther)

	sellerBefore := balance(t, r, producerAddr)
	contractBefore, err := r.ContractBalance(ctx)
	require.NoError(t, err)

	require.NoError(t, r.BuyNFT(ctx, buyerAddr, oneEther, 1))

	// 300 bps: fee = floor(price * 300 / 10000).
	fee := oneEther.FeePortion(300)
	sellerAmount := oneEther.Sub(fee)

	assert.Equal(t, 0, balance(t, r, producerAddr).Cmp(sellerBefore.Add(sellerAmount)))

	contractAfter, err := r.ContractBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, contractAfter.Cmp(contractBefore.Add(fee)))

	// Buyer paid exactly the price.
	assert.Equal(t, 0, balance(t, r, buyerAddr).Cmp(domain.NewWei(0)))
}

func TestBuyNFT_RefundsExcessPayment(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	two := oneEther.Add(oneEther)
	fund(t, r, buyerAddr, two)
	require.NoError(t, r.BuyNFT(ctx, buyerAddr, two, 1))

	// Excess over the price stays with the buyer.
	assert.Equal(t, 0, balance(t, r, buyerAddr).Cmp(oneEther))
}

func TestBuyNFT_Reverts(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))
	fund(t, r, buyerAddr, oneEther.Add(oneEther))

	half := domain.NewWei(500_000_000_000_000_000)
	err := r.BuyNFT(ctx, buyerAddr, half, 1)
	assert.Equal(t, "Insufficient payment", Reason(err))

	err = r.BuyNFT(ctx, producerAddr, oneEther, 1)
	assert.Equal(t, "Cannot buy own NFT", Reason(err))

	require.NoError(t, r.CancelListing(ctx, producerAddr, 1))
	err = r.BuyNFT(ctx, buyerAddr, oneEther, 1)
	assert.Equal(t, "Not for sale", Reason(err))
}

func TestBuyNFT_InsufficientBalance(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	// Buyer claims to attach one ether but holds nothing.
	err := r.BuyNFT(ctx, buyerAddr, oneEther, 1)
	assert.Equal(t, "Insufficient balance", Reason(err))

	owner, err := r.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, producerAddr, owner)
}

func TestBuyNFT_StaleSellerGuard(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	// Force a desynced listing the way a hostile direct transfer would have
	// under the original contract (where transfers bypassed the market).
	require.NoError(t, db.Model(&domain.Token{}).Where("token_id = ?", 1).Update("owner", buyer2Addr).Error)

	fund(t, r, buyerAddr, oneEther)
	err := r.BuyNFT(ctx, buyerAddr, oneEther, 1)
	assert.Equal(t, "Seller no longer owns token", Reason(err))

	// Stale seller got nothing.
	assert.Equal(t, 0, balance(t, r, producerAddr).Cmp(oneEther.Sub(DefaultMintFee)))
}

func TestTransferToken_DeactivatesListing(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	require.NoError(t, r.TransferToken(ctx, producerAddr, buyerAddr, 1))

	owner, err := r.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, buyerAddr, owner)

	listing, err := r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, listing.Active)

	// Old listing can't be bought after the transfer.
	fund(t, r, buyer2Addr, oneEther)
	err = r.BuyNFT(ctx, buyer2Addr, oneEther, 1)
	assert.Equal(t, "Not for sale", Reason(err))
}

func TestCancelAndUpdateListing(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	newPrice := oneEther.Add(oneEther)
	err := r.UpdateListingPrice(ctx, buyerAddr, 1, newPrice)
	assert.Equal(t, "Not the seller", Reason(err))

	require.NoError(t, r.UpdateListingPrice(ctx, producerAddr, 1, newPrice))
	listing, err := r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, listing.Price.Cmp(newPrice))

	err = r.CancelListing(ctx, buyerAddr, 1)
	assert.Equal(t, "Not the seller", Reason(err))

	require.NoError(t, r.CancelListing(ctx, producerAddr, 1))
	listing, err = r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, listing.Active)

	ev := lastEvent(t, db, domain.EventListingCancelled)
	assert.Equal(t, producerAddr, ev["seller"])

	// Cancelled listing can't be cancelled or updated again.
	err = r.CancelListing(ctx, producerAddr, 1)
	assert.Equal(t, "Not for sale", Reason(err))
	err = r.UpdateListingPrice(ctx, producerAddr, 1, oneEther)
	assert.Equal(t, "Not for sale", Reason(err))
}

func TestRedeemCoffee(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)

	cert, err := r.RedeemCoffee(ctx, producerAddr, 1)
	require.NoError(t, err)
	assert.Equal(t, "BR-MG-2024-001", cert.LotCode)
	assert.Equal(t, producerAddr, cert.Redeemer)
	assert.NotEmpty(t, cert.CertificateNumber)

	lot, err := r.GetCoffeeLot(ctx, 1)
	require.NoError(t, err)
	assert.True(t, lot.Redeemed)

	ev := lastEvent(t, db, domain.EventCoffeeRedeemed)
	assert.Equal(t, "BR-MG-2024-001", ev["lot_code"])

	_, err = r.RedeemCoffee(ctx, producerAddr, 1)
	assert.Equal(t, "Coffee already redeemed", Reason(err))

	err = r.ListForSale(ctx, producerAddr, 1, oneEther)
	assert.Equal(t, "Coffee already redeemed", Reason(err))
}

func TestRedeemCoffee_CancelsActiveListing(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)
	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))

	_, err := r.RedeemCoffee(ctx, producerAddr, 1)
	require.NoError(t, err)

	listing, err := r.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, listing.Active)
}

func TestRedeemCoffee_OnlyOwner(t *testing.T) {
	r, _ := setupRegistry(t)
	mintSample(t, r)

	_, err := r.RedeemCoffee(context.Background(), buyerAddr, 1)
	assert.Equal(t, "Not token owner", Reason(err))
}

func TestLotCodeNeverReused(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)

	_, err := r.RedeemCoffee(ctx, producerAddr, 1)
	require.NoError(t, err)

	// Redemption does not free the code.
	_, err = r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, sampleMint())
	assert.Equal(t, "Lot code already exists", Reason(err))
}

func TestAdmin_SetMintFee(t *testing.T) {
	r, db := setupRegistry(t)
	ctx := context.Background()

	newFee := domain.NewWei(20_000_000_000_000_000)
	err := r.SetMintFee(ctx, buyerAddr, newFee)
	assert.Equal(t, "Ownable: caller is not the owner", Reason(err))

	require.NoError(t, r.SetMintFee(ctx, ownerAddr, newFee))
	fee, err := r.MintFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fee.Cmp(newFee))

	ev := lastEvent(t, db, domain.EventMintFeeUpdated)
	assert.Equal(t, DefaultMintFee.String(), ev["old_fee"])
	assert.Equal(t, newFee.String(), ev["new_fee"])
}

func TestAdmin_SetMarketplaceFee(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	err := r.SetMarketplaceFee(ctx, ownerAddr, 1500)
	assert.Equal(t, "Fee too high", Reason(err))

	err = r.SetMarketplaceFee(ctx, buyerAddr, 500)
	assert.Equal(t, "Ownable: caller is not the owner", Reason(err))

	require.NoError(t, r.SetMarketplaceFee(ctx, ownerAddr, 500))
	bps, err := r.MarketplaceFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bps)
}

func TestAdmin_SetProducerVerification(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()

	verified, err := r.VerifiedProducers(ctx, producerAddr)
	require.NoError(t, err)
	assert.False(t, verified)

	require.NoError(t, r.SetProducerVerification(ctx, ownerAddr, producerAddr, true))
	verified, err = r.VerifiedProducers(ctx, producerAddr)
	require.NoError(t, err)
	assert.True(t, verified)

	require.NoError(t, r.SetProducerVerification(ctx, ownerAddr, producerAddr, false))
	verified, err = r.VerifiedProducers(ctx, producerAddr)
	require.NoError(t, err)
	assert.False(t, verified)

	err = r.SetProducerVerification(ctx, buyerAddr, producerAddr, true)
	assert.Equal(t, "Ownable: caller is not the owner", Reason(err))
}

func TestAdmin_Withdraw(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	mintSample(t, r)

	_, err := r.Withdraw(ctx, buyerAddr)
	assert.Equal(t, "Ownable: caller is not the owner", Reason(err))

	amount, err := r.Withdraw(ctx, ownerAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(DefaultMintFee))

	assert.Equal(t, 0, balance(t, r, ownerAddr).Cmp(DefaultMintFee))

	contract, err := r.ContractBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, contract.Sign())
}

func TestViews_TokensByOwnerAndActiveListings(t *testing.T) {
	r, _ := setupRegistry(t)
	ctx := context.Background()
	fund(t, r, producerAddr, oneEther)

	for i := 0; i < 3; i++ {
		in := sampleMint()
		in.LotCode = "BR-MG-2024-10" + string(rune('0'+i))
		in.WeightKg = 300 + uint64(i)*50
		in.ScaScore = 8500 + uint64(i)*100
		_, err := r.MintCoffeeLot(ctx, producerAddr, DefaultMintFee, in)
		require.NoError(t, err)
	}

	tokens, err := r.GetTokensByOwner(ctx, producerAddr)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, tokens)

	count, err := r.BalanceOf(ctx, producerAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, r.ListForSale(ctx, producerAddr, 1, oneEther))
	require.NoError(t, r.ListForSale(ctx, producerAddr, 3, oneEther.Add(oneEther)))

	ids, listings, err := r.GetActiveListings(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, []uint64{1, 3}, ids)
	assert.Equal(t, 0, listings[0].Price.Cmp(oneEther))
	assert.Equal(t, 0, listings[1].Price.Cmp(oneEther.Add(oneEther)))

	total, err := r.GetTotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
}

func TestGetListing_NeverListedToken(t *testing.T) {
	r, _ := setupRegistry(t)
	mintSample(t, r)

	listing, err := r.GetListing(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, listing.Active)
	assert.Empty(t, listing.Seller)

	_, err = r.GetListing(context.Background(), 42)
	assert.Equal(t, "Token does not exist", Reason(err))
}

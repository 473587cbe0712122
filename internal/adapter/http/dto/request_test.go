package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savorly/marketledger/internal/domain"
)

func TestCreateListingRequestToUseCaseInput(t *testing.T) {
	req := CreateListingRequest{
		SellerAccountID: "seller-1",
		Kind:            "asset",
		AssetCode:       "POINTS",
		Amount:          decimal.NewFromInt(10),
		PriceAssetCode:  "COINS",
		PriceAmount:     decimal.NewFromInt(5),
		IdempotencyKey:  "key-1",
	}

	input := req.ToUseCaseInput()

	assert.Equal(t, "seller-1", input.SellerAccountID)
	assert.Equal(t, domain.ListingKindAsset, input.Kind)
	assert.Equal(t, "POINTS", input.AssetCode)
	assert.True(t, input.Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "COINS", input.PriceAssetCode)
	assert.Equal(t, "key-1", input.IdempotencyKey)
}

func TestCreateOrderRequestToUseCaseInput(t *testing.T) {
	req := CreateOrderRequest{
		ListingID:      "list-1",
		BuyerAccountID: "buyer-1",
		IdempotencyKey: "key-1",
	}

	input := req.ToUseCaseInput()

	assert.Equal(t, "list-1", input.ListingID)
	assert.Equal(t, "buyer-1", input.BuyerAccountID)
	assert.Equal(t, "key-1", input.IdempotencyKey)
}

func TestCleanupOrphansRequestToUseCaseInput(t *testing.T) {
	t.Run("dry run defaults to true", func(t *testing.T) {
		req := CleanupOrphansRequest{}
		input := req.ToUseCaseInput()
		assert.True(t, input.DryRun)
	})

	t.Run("explicit false is honored", func(t *testing.T) {
		dryRun := false
		req := CleanupOrphansRequest{DryRun: &dryRun, OperatorID: "ops-1"}
		input := req.ToUseCaseInput()
		assert.False(t, input.DryRun)
		assert.Equal(t, "ops-1", input.OperatorID)
	})

	t.Run("filter fields pass through", func(t *testing.T) {
		req := CleanupOrphansRequest{AccountID: "acc-1", AssetCode: "POINTS", Limit: 10}
		input := req.ToUseCaseInput()
		assert.Equal(t, "acc-1", input.Filter.AccountID)
		assert.Equal(t, "POINTS", input.Filter.AssetCode)
		assert.Equal(t, 10, input.Filter.Limit)
	})
}

func TestListingResponseFromDomain(t *testing.T) {
	listing := &domain.Listing{
		ID:              "list-1",
		SellerAccountID: "seller-1",
		Kind:            domain.ListingKindAsset,
		AssetCode:       "POINTS",
		Amount:          decimal.NewFromInt(10),
		PriceAssetCode:  "COINS",
		PriceAmount:     decimal.NewFromInt(5),
		Status:          domain.ListingStatusOnSale,
	}

	resp := ListingFromDomain(listing)
	require.NotNil(t, resp)
	assert.Equal(t, "list-1", resp.ID)
	assert.Equal(t, "asset", resp.Kind)
	assert.Equal(t, "on_sale", resp.Status)
	assert.False(t, resp.IsDuplicate)
}

func TestBalanceResponseFromDomain(t *testing.T) {
	bal := &domain.AssetBalance{
		AccountID: "acc-1",
		AssetCode: "POINTS",
		Available: decimal.NewFromInt(40),
		Frozen:    decimal.NewFromInt(10),
	}

	resp := BalanceFromDomain(bal)
	require.NotNil(t, resp)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(50)), "total must be available plus frozen")
}

package dto

import (
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// CreateListingRequest represents a request to list an asset or item for sale.
type CreateListingRequest struct {
	SellerAccountID string          `json:"seller_account_id"`
	Kind            string          `json:"kind"`
	AssetCode       string          `json:"asset_code,omitempty"`
	Amount          decimal.Decimal `json:"amount,omitempty"`
	ItemID          string          `json:"item_id,omitempty"`
	PriceAssetCode  string          `json:"price_asset_code"`
	PriceAmount     decimal.Decimal `json:"price_amount"`
	IdempotencyKey  string          `json:"idempotency_key"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateListingRequest) ToUseCaseInput() usecase.CreateListingInput {
	return usecase.CreateListingInput{
		SellerAccountID: r.SellerAccountID,
		Kind:            domain.ListingKind(r.Kind),
		AssetCode:       r.AssetCode,
		Amount:          r.Amount,
		ItemID:          r.ItemID,
		PriceAssetCode:  r.PriceAssetCode,
		PriceAmount:     r.PriceAmount,
		IdempotencyKey:  r.IdempotencyKey,
	}
}

// WithdrawListingRequest represents a request to withdraw a listing.
type WithdrawListingRequest struct {
	SellerAccountID string `json:"seller_account_id"`
}

// CreateOrderRequest represents a buy request against a listing.
type CreateOrderRequest struct {
	ListingID      string `json:"listing_id"`
	BuyerAccountID string `json:"buyer_account_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateOrderRequest) ToUseCaseInput() usecase.CreateOrderInput {
	return usecase.CreateOrderInput{
		ListingID:      r.ListingID,
		BuyerAccountID: r.BuyerAccountID,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CleanupOrphansRequest represents a request to clean up orphan frozen
// balances. DryRun defaults to true when omitted.
type CleanupOrphansRequest struct {
	DryRun     *bool  `json:"dry_run,omitempty"`
	OperatorID string `json:"operator_id,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	AssetCode  string `json:"asset_code,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CleanupOrphansRequest) ToUseCaseInput() usecase.CleanupInput {
	dryRun := true
	if r.DryRun != nil {
		dryRun = *r.DryRun
	}
	return usecase.CleanupInput{
		DryRun:     dryRun,
		OperatorID: r.OperatorID,
		Filter: usecase.OrphanFilter{
			AccountID: r.AccountID,
			AssetCode: r.AssetCode,
			Limit:     r.Limit,
		},
	}
}

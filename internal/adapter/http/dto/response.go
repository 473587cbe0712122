package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// BalanceResponse represents an asset balance in API responses.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	AssetCode string          `json:"asset_code"`
	Available decimal.Decimal `json:"available"`
	Frozen    decimal.Decimal `json:"frozen"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceFromDomain converts a domain balance to a response.
func BalanceFromDomain(b *domain.AssetBalance) *BalanceResponse {
	return &BalanceResponse{
		AccountID: b.AccountID,
		AssetCode: b.AssetCode,
		Available: b.Available,
		Frozen:    b.Frozen,
		Total:     b.Total(),
		UpdatedAt: b.UpdatedAt,
	}
}

// BalancesFromDomain converts domain balances to responses.
func BalancesFromDomain(balances []*domain.AssetBalance) []*BalanceResponse {
	result := make([]*BalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = BalanceFromDomain(b)
	}
	return result
}

// TransactionResponse represents a ledger entry in API responses.
type TransactionResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	AssetCode      string          `json:"asset_code"`
	Kind           string          `json:"kind"`
	BusinessType   string          `json:"business_type"`
	AvailableDelta decimal.Decimal `json:"available_delta"`
	FrozenDelta    decimal.Decimal `json:"frozen_delta"`
	AvailableAfter decimal.Decimal `json:"available_after"`
	FrozenAfter    decimal.Decimal `json:"frozen_after"`
	IdempotencyKey string          `json:"idempotency_key"`
	OperatorID     string          `json:"operator_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain ledger entry to a response.
func TransactionFromDomain(t *domain.AssetTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		AssetCode:      t.AssetCode,
		Kind:           string(t.Kind),
		BusinessType:   t.BusinessType,
		AvailableDelta: t.AvailableDelta,
		FrozenDelta:    t.FrozenDelta,
		AvailableAfter: t.AvailableAfter,
		FrozenAfter:    t.FrozenAfter,
		IdempotencyKey: t.IdempotencyKey,
		OperatorID:     t.OperatorID,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain ledger entries to responses.
func TransactionsFromDomain(txns []*domain.AssetTransaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListingResponse represents a listing in API responses.
type ListingResponse struct {
	ID              string          `json:"id"`
	SellerAccountID string          `json:"seller_account_id"`
	Kind            string          `json:"kind"`
	AssetCode       string          `json:"asset_code,omitempty"`
	Amount          decimal.Decimal `json:"amount,omitempty"`
	ItemID          string          `json:"item_id,omitempty"`
	PriceAssetCode  string          `json:"price_asset_code"`
	PriceAmount     decimal.Decimal `json:"price_amount"`
	Status          string          `json:"status"`
	IsDuplicate     bool            `json:"is_duplicate,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ListingFromDomain converts a domain listing to a response.
func ListingFromDomain(l *domain.Listing) *ListingResponse {
	return &ListingResponse{
		ID:              l.ID,
		SellerAccountID: l.SellerAccountID,
		Kind:            string(l.Kind),
		AssetCode:       l.AssetCode,
		Amount:          l.Amount,
		ItemID:          l.ItemID,
		PriceAssetCode:  l.PriceAssetCode,
		PriceAmount:     l.PriceAmount,
		Status:          string(l.Status),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ListingsFromDomain converts domain listings to responses.
func ListingsFromDomain(listings []*domain.Listing) []*ListingResponse {
	result := make([]*ListingResponse, len(listings))
	for i, l := range listings {
		result[i] = ListingFromDomain(l)
	}
	return result
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID             string    `json:"id"`
	ListingID      string    `json:"listing_id"`
	BuyerAccountID string    `json:"buyer_account_id"`
	Status         string    `json:"status"`
	IsDuplicate    bool      `json:"is_duplicate,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrderFromDomain converts a domain order to a response.
func OrderFromDomain(o *domain.Order) *OrderResponse {
	return &OrderResponse{
		ID:             o.ID,
		ListingID:      o.ListingID,
		BuyerAccountID: o.BuyerAccountID,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// OrdersFromDomain converts domain orders to responses.
func OrdersFromDomain(orders []*domain.Order) []*OrderResponse {
	result := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderFromDomain(o)
	}
	return result
}

// OrphanItemResponse is one orphaned (account, asset) pair in a report.
type OrphanItemResponse struct {
	AccountID      string          `json:"account_id"`
	AssetCode      string          `json:"asset_code"`
	FrozenAmount   decimal.Decimal `json:"frozen_amount"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	OrphanAmount   decimal.Decimal `json:"orphan_amount"`
}

// OrphanReportResponse represents an orphan detection pass.
type OrphanReportResponse struct {
	CheckedAt         time.Time            `json:"checked_at"`
	OrphanCount       int                  `json:"orphan_count"`
	TotalOrphanAmount decimal.Decimal      `json:"total_orphan_amount"`
	AffectedAccounts  int                  `json:"affected_accounts"`
	AffectedAssets    []string             `json:"affected_assets,omitempty"`
	Truncated         bool                 `json:"truncated,omitempty"`
	Items             []OrphanItemResponse `json:"items,omitempty"`
}

// OrphanReportFromUseCase converts a detection report to a response.
func OrphanReportFromUseCase(r *usecase.OrphanReport) *OrphanReportResponse {
	resp := &OrphanReportResponse{
		CheckedAt:         r.CheckedAt,
		OrphanCount:       r.OrphanCount,
		TotalOrphanAmount: r.TotalOrphanAmount,
		AffectedAccounts:  r.AffectedAccounts,
		AffectedAssets:    r.AffectedAssets,
		Truncated:         r.Truncated,
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, OrphanItemResponse{
			AccountID:      item.AccountID,
			AssetCode:      item.AssetCode,
			FrozenAmount:   item.FrozenAmount,
			ExpectedAmount: item.ExpectedAmount,
			OrphanAmount:   item.OrphanAmount,
		})
	}
	return resp
}

// CleanupResponse represents an orphan cleanup run.
type CleanupResponse struct {
	DryRun        bool                  `json:"dry_run"`
	CleanedCount  int                   `json:"cleaned_count"`
	CleanedAmount decimal.Decimal       `json:"cleaned_amount"`
	Report        *OrphanReportResponse `json:"report"`
}

// CleanupFromUseCase converts a cleanup result to a response.
func CleanupFromUseCase(r *usecase.CleanupResult) *CleanupResponse {
	return &CleanupResponse{
		DryRun:        r.DryRun,
		CleanedCount:  r.CleanedCount,
		CleanedAmount: r.CleanedAmount,
		Report:        OrphanReportFromUseCase(r.Report),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

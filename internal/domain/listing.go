package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a market listing.
type ListingStatus string

const (
	ListingStatusOnSale    ListingStatus = "on_sale"
	ListingStatusLocked    ListingStatus = "locked"
	ListingStatusWithdrawn ListingStatus = "withdrawn"
	ListingStatusSold      ListingStatus = "sold"
)

// CanTransitionTo enforces the listing state machine. Withdrawn and sold are
// terminal. Locked may return to on_sale when an order is cancelled; that is
// the only re-opening transition.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	switch s {
	case ListingStatusOnSale:
		return next == ListingStatusLocked || next == ListingStatusWithdrawn
	case ListingStatusLocked:
		return next == ListingStatusSold || next == ListingStatusOnSale || next == ListingStatusWithdrawn
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusWithdrawn || s == ListingStatusSold
}

// ListingKind distinguishes fungible asset listings, which reserve the
// seller's balance, from item listings, which lock a single inventory
// instance.
type ListingKind string

const (
	ListingKindAsset ListingKind = "asset"
	ListingKindItem  ListingKind = "item"
)

// Listing is an offer to sell an asset amount or an item instance at a fixed
// price. While the listing is alive the offered value is reserved: frozen
// balance for asset listings, locked item status for item listings.
type Listing struct {
	ID              string
	SellerAccountID string
	Kind            ListingKind
	AssetCode       string
	Amount          decimal.Decimal
	ItemID          string
	PriceAssetCode  string
	PriceAmount     decimal.Decimal
	Status          ListingStatus
	IdempotencyKey  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks structural validity of a listing before creation.
func (l *Listing) Validate() error {
	if l.PriceAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	switch l.Kind {
	case ListingKindAsset:
		if l.Amount.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidAmount
		}
	case ListingKindItem:
		if l.ItemID == "" {
			return ErrItemNotFound
		}
	default:
		return ErrInvalidListingStatus.WithMessage("unknown listing kind %q", l.Kind)
	}
	return nil
}

// Matches reports whether other describes the same offer. Used for
// idempotency-key replay detection.
func (l *Listing) Matches(other *Listing) bool {
	return l.SellerAccountID == other.SellerAccountID &&
		l.Kind == other.Kind &&
		l.AssetCode == other.AssetCode &&
		l.Amount.Equal(other.Amount) &&
		l.ItemID == other.ItemID &&
		l.PriceAssetCode == other.PriceAssetCode &&
		l.PriceAmount.Equal(other.PriceAmount)
}

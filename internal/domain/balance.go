package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetBalance is the per-account, per-asset balance row. Available is the
// spendable portion, Frozen the portion reserved against in-flight listings
// and orders. Both are always >= 0. Rows are zeroed, never deleted.
//
// The fields are only ever changed through the ledger mutation functions;
// the Validate* methods here hold the invariant checks those functions apply
// before writing.
type AssetBalance struct {
	AccountID string
	AssetCode string
	Available decimal.Decimal
	Frozen    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total returns available + frozen. Freeze/unfreeze/settle move amounts
// between the two columns or remove them; only a balance change alters the
// available column directly.
func (b *AssetBalance) Total() decimal.Decimal {
	return b.Available.Add(b.Frozen)
}

// ValidateChange checks that applying delta to the available amount keeps it
// non-negative.
func (b *AssetBalance) ValidateChange(delta decimal.Decimal) error {
	if b.Available.Add(delta).IsNegative() {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateFreeze checks that amount can be moved from available to frozen.
func (b *AssetBalance) ValidateFreeze(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if b.Available.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateUnfreeze checks that amount can be released from frozen. A short
// frozen amount is not a business error: it means an upstream invariant broke
// and the balance needs reconciliation, so this is reported loudly instead of
// being clamped.
func (b *AssetBalance) ValidateUnfreeze(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if b.Frozen.LessThan(amount) {
		return ErrFrozenInconsistency.WithMessage(
			"unfreeze of %s would drive frozen below zero (frozen=%s, account=%s, asset=%s)",
			amount, b.Frozen, b.AccountID, b.AssetCode)
	}
	return nil
}

// ValidateSettle checks that amount can be permanently removed from frozen.
func (b *AssetBalance) ValidateSettle(amount decimal.Decimal) error {
	return b.ValidateUnfreeze(amount)
}

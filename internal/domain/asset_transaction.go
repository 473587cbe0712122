package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MutationKind identifies which ledger primitive produced a transaction row.
type MutationKind string

const (
	MutationChange   MutationKind = "change"
	MutationFreeze   MutationKind = "freeze"
	MutationUnfreeze MutationKind = "unfreeze"
	MutationSettle   MutationKind = "settle"
)

// AssetTransaction is an immutable, append-only ledger entry recording one
// balance mutation together with the resulting snapshot. Rows are never
// updated or deleted; the log is the audit trail and the reconciliation
// source of truth. IdempotencyKey carries a unique constraint, which is what
// enforces at-most-once side effects under retransmission.
type AssetTransaction struct {
	ID             string
	AccountID      string
	AssetCode      string
	Kind           MutationKind
	BusinessType   string
	AvailableDelta decimal.Decimal
	FrozenDelta    decimal.Decimal
	AvailableAfter decimal.Decimal
	FrozenAfter    decimal.Decimal
	IdempotencyKey string
	OperatorID     string
	CreatedAt      time.Time
}

// Matches reports whether other describes the same mutation: same target,
// kind, business type and deltas. A replayed request whose recorded row
// matches is answered with the prior result; a mismatch is a hard conflict.
func (t *AssetTransaction) Matches(other *AssetTransaction) bool {
	return t.AccountID == other.AccountID &&
		t.AssetCode == other.AssetCode &&
		t.Kind == other.Kind &&
		t.BusinessType == other.BusinessType &&
		t.AvailableDelta.Equal(other.AvailableDelta) &&
		t.FrozenDelta.Equal(other.FrozenDelta)
}

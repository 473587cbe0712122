package domain

import "time"

// OrderStatus is the lifecycle state of a buy order. Orders start frozen
// (payment reserved) and terminate in settled or cancelled; they are never
// reopened.
type OrderStatus string

const (
	OrderStatusFrozen    OrderStatus = "frozen"
	OrderStatusSettled   OrderStatus = "settled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CanTransitionTo enforces the order state machine.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusFrozen &&
		(next == OrderStatusSettled || next == OrderStatusCancelled)
}

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusSettled || s == OrderStatusCancelled
}

// Order is a buyer's claim against a listing. Exactly one order per listing
// can ever reach frozen status; the listing row lock guarantees it.
type Order struct {
	ID             string
	ListingID      string
	BuyerAccountID string
	Status         OrderStatus
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Matches reports whether other targets the same listing with the same
// buyer. Used for idempotency-key replay detection.
func (o *Order) Matches(other *Order) bool {
	return o.ListingID == other.ListingID &&
		o.BuyerAccountID == other.BuyerAccountID
}

package domain

import "time"

// ItemStatus is the lifecycle state of an inventory item instance.
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusLocked    ItemStatus = "locked"
)

// Item is a non-fungible inventory instance (a lottery prize or exchanged
// good in a user's backpack). Listing an item locks it; settlement moves
// ownership to the buyer and unlocks it.
type Item struct {
	ID             string
	OwnerAccountID string
	ItemCode       string
	Status         ItemStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

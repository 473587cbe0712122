package domain

import "time"

// Asset is a catalog entry describing a fungible asset (points, coupons,
// event currencies). Non-tradable assets can be held but not listed or used
// as a price asset on the market.
type Asset struct {
	Code      string
	Name      string
	Tradable  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

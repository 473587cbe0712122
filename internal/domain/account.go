package domain

import "time"

// Account is the ledger identity of a platform user. The surrounding
// platform supplies the identifier; accounts are created lazily on the first
// asset interaction and never deleted.
type Account struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

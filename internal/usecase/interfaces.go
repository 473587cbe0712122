package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
)

// Transaction represents an open database transaction. Every ledger write
// happens inside one; row locks taken through it are held until commit or
// rollback.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager begins transactions.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// TxExecutor runs a unit of work inside a transaction. On transient failure
// it rolls back, waits with backoff and re-attempts a fresh transaction; a
// failed transaction object is never reused. The final error reaches the
// caller with its business semantics unchanged.
type TxExecutor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// Ensure creates the account row if it does not exist yet.
	Ensure(ctx context.Context, tx Transaction, id string) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// BalanceRepository defines data access for asset balances.
type BalanceRepository interface {
	// GetForUpdate row-locks and returns the balance, creating a zero row
	// (and lazily the account) if none exists yet.
	GetForUpdate(ctx context.Context, tx Transaction, accountID, assetCode string) (*domain.AssetBalance, error)
	Get(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error)
	// GetInTx reads without locking through the open transaction, so the
	// caller sees its own uncommitted writes.
	GetInTx(ctx context.Context, tx Transaction, accountID, assetCode string) (*domain.AssetBalance, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.AssetBalance, error)
	UpdateAmounts(ctx context.Context, tx Transaction, accountID, assetCode string, available, frozen decimal.Decimal, updatedAt time.Time) error
}

// AssetTransactionRepository defines data access for the append-only
// transaction log.
type AssetTransactionRepository interface {
	// Create inserts a log row. A unique-key violation on the idempotency
	// key is returned as domain.ErrIdempotencyConflict.
	Create(ctx context.Context, tx Transaction, txn *domain.AssetTransaction) error
	// GetByIdempotencyKey returns (nil, nil) when no row carries the key.
	GetByIdempotencyKey(ctx context.Context, tx Transaction, key string) (*domain.AssetTransaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error)
}

// ListingRepository defines data access for market listings.
type ListingRepository interface {
	Create(ctx context.Context, tx Transaction, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Listing, error)
	// GetByIdempotencyKey returns (nil, nil) when no listing carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Listing, error)
	// UpdateStatus transitions from -> to; it fails with
	// domain.ErrInvalidListingStatus when the row is no longer in from.
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.ListingStatus, updatedAt time.Time) error
	ListBySeller(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error)
}

// OrderRepository defines data access for market orders.
type OrderRepository interface {
	Create(ctx context.Context, tx Transaction, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Order, error)
	// GetByIdempotencyKey returns (nil, nil) when no order carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.OrderStatus, updatedAt time.Time) error
	ListByBuyer(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error)
}

// ItemRepository defines data access for inventory item instances.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Item, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, from, to domain.ItemStatus, updatedAt time.Time) error
	// Transfer hands the item to a new owner and resets it to available.
	Transfer(ctx context.Context, tx Transaction, id, newOwnerAccountID string, updatedAt time.Time) error
}

// AssetRepository defines data access for the asset catalog.
type AssetRepository interface {
	List(ctx context.Context) ([]*domain.Asset, error)
	GetByCode(ctx context.Context, code string) (*domain.Asset, error)
}

// FrozenCheckRow is one (account, asset) pair whose frozen amount differs
// from what active listings and orders account for.
type FrozenCheckRow struct {
	AccountID string
	AssetCode string
	Frozen    decimal.Decimal
	Expected  decimal.Decimal
}

// ReconciliationRepository defines the cross-check queries behind orphan
// detection. Listings and orders are the sole source of truth for what
// should be frozen; nothing else writes those tables.
type ReconciliationRepository interface {
	// ListFrozenMismatches returns pairs where frozen > expected,
	// optionally filtered by account and asset, up to limit rows.
	ListFrozenMismatches(ctx context.Context, accountID, assetCode string, limit int) ([]FrozenCheckRow, error)
	// ExpectedFrozen recomputes the expected frozen amount for one pair
	// inside an open transaction.
	ExpectedFrozen(ctx context.Context, tx Transaction, accountID, assetCode string) (decimal.Decimal, error)
}

// Catalog answers whether an asset may be traded on the market.
type Catalog interface {
	IsTradable(ctx context.Context, code string) (bool, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage for the HTTP surface. It
// is a best-effort second net; the database unique constraint is the
// authoritative one.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

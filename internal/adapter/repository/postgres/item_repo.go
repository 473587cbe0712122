package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

const itemColumns = `id, owner_account_id, item_code, status, created_at, updated_at`

// ItemRepository implements usecase.ItemRepository.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// GetByID retrieves an item.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// GetByIDForUpdate retrieves an item with a FOR UPDATE lock.
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Item, error) {
	row := txQuerier(tx).QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	return scanItem(row)
}

// UpdateStatus transitions the item between statuses with a guarded update.
func (r *ItemRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ItemStatus, updatedAt time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE items
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidItemStatus.WithMessage("item %s is no longer %s", id, from)
	}
	return nil
}

// Transfer hands a locked item to its buyer and makes it available again.
func (r *ItemRepository) Transfer(ctx context.Context, tx usecase.Transaction, id, newOwnerAccountID string, updatedAt time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE items
		SET owner_account_id = $2, status = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		id, newOwnerAccountID, string(domain.ItemStatusAvailable), updatedAt, string(domain.ItemStatusLocked))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidItemStatus.WithMessage("item %s is not locked for delivery", id)
	}
	return nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		item   domain.Item
		status string
	)
	err := row.Scan(&item.ID, &item.OwnerAccountID, &item.ItemCode, &status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	item.Status = domain.ItemStatus(status)
	return &item, nil
}

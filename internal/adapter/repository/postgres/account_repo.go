package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Ensure creates the account row if it does not exist yet. Accounts are
// created lazily on the first asset interaction and never deleted.
func (r *AccountRepository) Ensure(ctx context.Context, tx usecase.Transaction, id string) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO accounts (id, created_at, updated_at)
		VALUES ($1, now(), now())
		ON CONFLICT (id) DO NOTHING`, id)
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, updated_at
		FROM accounts
		WHERE id = $1`, id).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

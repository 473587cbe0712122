package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

const balanceColumns = `account_id, asset_code, available_amount::text, frozen_amount::text, created_at, updated_at`

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// GetForUpdate row-locks and returns the balance for (account, asset),
// creating a zero row first if none exists. The lock is held until the
// surrounding transaction commits or rolls back, serializing concurrent
// mutations of the same pair.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error) {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO asset_balances (account_id, asset_code, available_amount, frozen_amount, created_at, updated_at)
		VALUES ($1, $2, 0, 0, now(), now())
		ON CONFLICT (account_id, asset_code) DO NOTHING`, accountID, assetCode)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM asset_balances
		WHERE account_id = $1 AND asset_code = $2
		FOR UPDATE`, accountID, assetCode)
	return scanBalance(row)
}

// Get retrieves a balance without locking.
func (r *BalanceRepository) Get(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM asset_balances
		WHERE account_id = $1 AND asset_code = $2`, accountID, assetCode)
	bal, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, err
	}
	return bal, nil
}

// GetInTx retrieves a balance through the open transaction without locking,
// observing the transaction's own uncommitted writes.
func (r *BalanceRepository) GetInTx(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (*domain.AssetBalance, error) {
	row := txQuerier(tx).QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM asset_balances
		WHERE account_id = $1 AND asset_code = $2`, accountID, assetCode)
	bal, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, err
	}
	return bal, nil
}

// ListByAccount lists every balance held by the account.
func (r *BalanceRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.AssetBalance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM asset_balances
		WHERE account_id = $1
		ORDER BY asset_code`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.AssetBalance
	for rows.Next() {
		bal, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, bal)
	}
	return balances, rows.Err()
}

// UpdateAmounts writes both columns of a locked balance row.
func (r *BalanceRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, accountID, assetCode string, available, frozen decimal.Decimal, updatedAt time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE asset_balances
		SET available_amount = $3::numeric, frozen_amount = $4::numeric, updated_at = $5
		WHERE account_id = $1 AND asset_code = $2`,
		accountID, assetCode, available.String(), frozen.String(), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}
	return nil
}

func scanBalance(row pgx.Row) (*domain.AssetBalance, error) {
	var (
		bal       domain.AssetBalance
		available string
		frozen    string
	)
	if err := row.Scan(&bal.AccountID, &bal.AssetCode, &available, &frozen, &bal.CreatedAt, &bal.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if bal.Available, err = decimal.NewFromString(available); err != nil {
		return nil, err
	}
	if bal.Frozen, err = decimal.NewFromString(frozen); err != nil {
		return nil, err
	}
	return &bal, nil
}

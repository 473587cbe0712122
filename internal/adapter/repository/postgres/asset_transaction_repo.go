package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

const assetTxnColumns = `id, account_id, asset_code, kind, business_type,
	available_delta::text, frozen_delta::text, available_after::text, frozen_after::text,
	idempotency_key, operator_id, created_at`

// AssetTransactionRepository implements usecase.AssetTransactionRepository.
// The table is append-only: rows are never updated or deleted.
type AssetTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewAssetTransactionRepository creates a new AssetTransactionRepository.
func NewAssetTransactionRepository(pool *pgxpool.Pool) *AssetTransactionRepository {
	return &AssetTransactionRepository{pool: pool}
}

// Create appends one log row. The unique index on idempotency_key turns a
// replayed insert into domain.ErrIdempotencyConflict.
func (r *AssetTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.AssetTransaction) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO asset_transactions
			(id, account_id, asset_code, kind, business_type,
			 available_delta, frozen_delta, available_after, frozen_after,
			 idempotency_key, operator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12)`,
		txn.ID, txn.AccountID, txn.AssetCode, string(txn.Kind), txn.BusinessType,
		txn.AvailableDelta.String(), txn.FrozenDelta.String(),
		txn.AvailableAfter.String(), txn.FrozenAfter.String(),
		txn.IdempotencyKey, txn.OperatorID, txn.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// GetByIdempotencyKey returns the row carrying key, reading through the open
// transaction when one is supplied. Returns (nil, nil) when the key is unused.
func (r *AssetTransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Transaction, key string) (*domain.AssetTransaction, error) {
	query := `SELECT ` + assetTxnColumns + ` FROM asset_transactions WHERE idempotency_key = $1`

	var row pgx.Row
	if tx != nil {
		row = txQuerier(tx).QueryRow(ctx, query, key)
	} else {
		row = r.pool.QueryRow(ctx, query, key)
	}

	txn, err := scanAssetTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return txn, nil
}

// ListByAccount returns the account's slice of the log, newest first.
func (r *AssetTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assetTxnColumns+`
		FROM asset_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.AssetTransaction
	for rows.Next() {
		txn, err := scanAssetTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func scanAssetTransaction(row pgx.Row) (*domain.AssetTransaction, error) {
	var (
		txn                     domain.AssetTransaction
		kind                    string
		availDelta, frozenDelta string
		availAfter, frozenAfter string
	)
	err := row.Scan(&txn.ID, &txn.AccountID, &txn.AssetCode, &kind, &txn.BusinessType,
		&availDelta, &frozenDelta, &availAfter, &frozenAfter,
		&txn.IdempotencyKey, &txn.OperatorID, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}

	txn.Kind = domain.MutationKind(kind)
	if txn.AvailableDelta, err = decimal.NewFromString(availDelta); err != nil {
		return nil, err
	}
	if txn.FrozenDelta, err = decimal.NewFromString(frozenDelta); err != nil {
		return nil, err
	}
	if txn.AvailableAfter, err = decimal.NewFromString(availAfter); err != nil {
		return nil, err
	}
	if txn.FrozenAfter, err = decimal.NewFromString(frozenAfter); err != nil {
		return nil, err
	}
	return &txn, nil
}

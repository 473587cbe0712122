package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/usecase"
)

// expectedFrozenCTE sums, per (account, asset), the reservations that active
// listings and orders still account for: the seller's offered amount while
// an asset listing is on_sale or locked, and the buyer's payment while an
// order is frozen. Listings and orders are the sole writers of those tables,
// which is what makes this the source of truth.
const expectedFrozenCTE = `
	WITH reservations AS (
		SELECT seller_account_id AS account_id, asset_code, SUM(amount) AS expected
		FROM listings
		WHERE kind = 'asset' AND status IN ('on_sale', 'locked')
		GROUP BY seller_account_id, asset_code
		UNION ALL
		SELECT o.buyer_account_id, l.price_asset_code, SUM(l.price_amount)
		FROM orders o
		JOIN listings l ON l.id = o.listing_id
		WHERE o.status = 'frozen'
		GROUP BY o.buyer_account_id, l.price_asset_code
	), expected AS (
		SELECT account_id, asset_code, SUM(expected) AS expected
		FROM reservations
		GROUP BY account_id, asset_code
	)`

// ReconciliationRepository implements usecase.ReconciliationRepository.
type ReconciliationRepository struct {
	pool *pgxpool.Pool
}

// NewReconciliationRepository creates a new ReconciliationRepository.
func NewReconciliationRepository(pool *pgxpool.Pool) *ReconciliationRepository {
	return &ReconciliationRepository{pool: pool}
}

// ListFrozenMismatches returns (account, asset) pairs whose frozen amount
// exceeds what active reservations explain.
func (r *ReconciliationRepository) ListFrozenMismatches(ctx context.Context, accountID, assetCode string, limit int) ([]usecase.FrozenCheckRow, error) {
	rows, err := r.pool.Query(ctx, expectedFrozenCTE+`
		SELECT b.account_id, b.asset_code, b.frozen_amount::text, COALESCE(e.expected, 0)::text
		FROM asset_balances b
		LEFT JOIN expected e ON e.account_id = b.account_id AND e.asset_code = b.asset_code
		WHERE b.frozen_amount > 0
		  AND b.frozen_amount > COALESCE(e.expected, 0)
		  AND ($1 = '' OR b.account_id = $1)
		  AND ($2 = '' OR b.asset_code = $2)
		ORDER BY b.account_id, b.asset_code
		LIMIT $3`, accountID, assetCode, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []usecase.FrozenCheckRow
	for rows.Next() {
		var (
			row              usecase.FrozenCheckRow
			frozen, expected string
		)
		if err := rows.Scan(&row.AccountID, &row.AssetCode, &frozen, &expected); err != nil {
			return nil, err
		}
		if row.Frozen, err = decimal.NewFromString(frozen); err != nil {
			return nil, err
		}
		if row.Expected, err = decimal.NewFromString(expected); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ExpectedFrozen recomputes the expected frozen amount for one pair inside
// an open transaction, so cleanup decides against a consistent view of the
// rows it has locked.
func (r *ReconciliationRepository) ExpectedFrozen(ctx context.Context, tx usecase.Transaction, accountID, assetCode string) (decimal.Decimal, error) {
	var expected string
	err := txQuerier(tx).QueryRow(ctx, `
		SELECT COALESCE(SUM(expected), 0)::text FROM (
			SELECT SUM(amount) AS expected
			FROM listings
			WHERE kind = 'asset' AND status IN ('on_sale', 'locked')
			  AND seller_account_id = $1 AND asset_code = $2
			UNION ALL
			SELECT SUM(l.price_amount)
			FROM orders o
			JOIN listings l ON l.id = o.listing_id
			WHERE o.status = 'frozen'
			  AND o.buyer_account_id = $1 AND l.price_asset_code = $2
		) s`, accountID, assetCode).Scan(&expected)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(expected)
}

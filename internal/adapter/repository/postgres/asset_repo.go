package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savorly/marketledger/internal/domain"
)

// AssetRepository implements usecase.AssetRepository.
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// List returns the full asset catalog.
func (r *AssetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, tradable, created_at, updated_at
		FROM assets
		ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.Code, &a.Name, &a.Tradable, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

// GetByCode retrieves one catalog entry. An unknown asset reads as not
// tradable.
func (r *AssetRepository) GetByCode(ctx context.Context, code string) (*domain.Asset, error) {
	var a domain.Asset
	err := r.pool.QueryRow(ctx, `
		SELECT code, name, tradable, created_at, updated_at
		FROM assets
		WHERE code = $1`, code).
		Scan(&a.Code, &a.Name, &a.Tradable, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotTradable.WithMessage("asset %s is not in the catalog", code)
		}
		return nil, err
	}
	return &a, nil
}

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

const listingColumns = `id, seller_account_id, kind, asset_code, amount::text, item_id,
	price_asset_code, price_amount::text, status, idempotency_key, created_at, updated_at`

// ListingRepository implements usecase.ListingRepository.
type ListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// Create inserts a listing. The unique index on idempotency_key turns a
// replayed insert into domain.ErrIdempotencyConflict.
func (r *ListingRepository) Create(ctx context.Context, tx usecase.Transaction, listing *domain.Listing) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO listings
			(id, seller_account_id, kind, asset_code, amount, item_id,
			 price_asset_code, price_amount, status, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::numeric, $9, $10, $11, $12)`,
		listing.ID, listing.SellerAccountID, string(listing.Kind),
		listing.AssetCode, listing.Amount.String(), listing.ItemID,
		listing.PriceAssetCode, listing.PriceAmount.String(),
		string(listing.Status), listing.IdempotencyKey, listing.CreatedAt, listing.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// GetByID retrieves a listing.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

// GetByIDForUpdate retrieves a listing with a FOR UPDATE lock. The lock is
// what serializes concurrent buyers: only one transaction at a time observes
// the listing's status.
func (r *ListingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Listing, error) {
	row := txQuerier(tx).QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

// GetByIdempotencyKey returns (nil, nil) when no listing carries the key.
func (r *ListingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Listing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE idempotency_key = $1`, key)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return listing, nil
}

// UpdateStatus transitions the listing from one status to another. The
// guarded WHERE clause makes illegal or raced transitions fail instead of
// silently overwriting.
func (r *ListingRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, from, to domain.ListingStatus, updatedAt time.Time) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidListingStatus.WithMessage("listing cannot move from %s to %s", from, to)
	}

	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE listings
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidListingStatus.WithMessage("listing %s is no longer %s", id, from)
	}
	return nil
}

// ListBySeller lists a seller's listings, newest first.
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE seller_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, sellerAccountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*domain.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		listing       domain.Listing
		kind, status  string
		amount, price string
	)
	err := row.Scan(&listing.ID, &listing.SellerAccountID, &kind, &listing.AssetCode,
		&amount, &listing.ItemID, &listing.PriceAssetCode, &price, &status,
		&listing.IdempotencyKey, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return nil, err
	}

	listing.Kind = domain.ListingKind(kind)
	listing.Status = domain.ListingStatus(status)
	if listing.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if listing.PriceAmount, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &listing, nil
}

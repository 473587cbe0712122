package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/infrastructure/metrics"
)

// ListingUseCase creates and withdraws market listings. Creating a listing
// reserves the offered value (frozen balance for asset listings, locked
// status for item listings); withdrawing releases it.
type ListingUseCase struct {
	txExec      TxExecutor
	ledger      *LedgerUseCase
	listingRepo ListingRepository
	itemRepo    ItemRepository
	catalog     Catalog
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewListingUseCase creates a new ListingUseCase.
func NewListingUseCase(
	txExec TxExecutor,
	ledger *LedgerUseCase,
	listingRepo ListingRepository,
	itemRepo ItemRepository,
	catalog Catalog,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ListingUseCase {
	return &ListingUseCase{
		txExec:      txExec,
		ledger:      ledger,
		listingRepo: listingRepo,
		itemRepo:    itemRepo,
		catalog:     catalog,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// CreateListingInput describes an offer to sell.
type CreateListingInput struct {
	SellerAccountID string
	Kind            domain.ListingKind
	AssetCode       string
	Amount          decimal.Decimal
	ItemID          string
	PriceAssetCode  string
	PriceAmount     decimal.Decimal
	IdempotencyKey  string
}

// CreateListingResult carries the listing and whether it was an idempotent
// replay.
type CreateListingResult struct {
	Listing     *domain.Listing
	IsDuplicate bool
}

// CreateListing validates the offer, reserves the offered value and creates
// the listing in on_sale status, all in one transaction. Replaying the same
// idempotency key with identical parameters returns the first listing and
// freezes nothing again; a mismatch is a hard conflict.
func (uc *ListingUseCase) CreateListing(ctx context.Context, input CreateListingInput) (*CreateListingResult, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyRequired
	}

	candidate := &domain.Listing{
		SellerAccountID: input.SellerAccountID,
		Kind:            input.Kind,
		AssetCode:       input.AssetCode,
		Amount:          input.Amount,
		ItemID:          input.ItemID,
		PriceAssetCode:  input.PriceAssetCode,
		PriceAmount:     input.PriceAmount,
		IdempotencyKey:  input.IdempotencyKey,
		Status:          domain.ListingStatusOnSale,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if dup, err := uc.replayByKey(ctx, candidate); dup != nil || err != nil {
		return dup, err
	}

	if err := uc.checkTradable(ctx, input.PriceAssetCode); err != nil {
		return nil, err
	}
	if input.Kind == domain.ListingKindAsset {
		if err := uc.checkTradable(ctx, input.AssetCode); err != nil {
			return nil, err
		}
	}

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()

		switch input.Kind {
		case domain.ListingKindAsset:
			_, err := uc.ledger.Freeze(ctx, tx, ReserveInput{
				AccountID:      input.SellerAccountID,
				AssetCode:      input.AssetCode,
				Amount:         input.Amount,
				BusinessType:   BusinessListingFreeze,
				IdempotencyKey: "listing-freeze:" + input.IdempotencyKey,
			})
			if err != nil {
				return err
			}
		case domain.ListingKindItem:
			item, err := uc.itemRepo.GetByIDForUpdate(ctx, tx, input.ItemID)
			if err != nil {
				return err
			}
			if item.OwnerAccountID != input.SellerAccountID {
				return domain.ErrNotOwner
			}
			if item.Status != domain.ItemStatusAvailable {
				return domain.ErrInvalidItemStatus
			}
			if err := uc.itemRepo.UpdateStatus(ctx, tx, item.ID, domain.ItemStatusAvailable, domain.ItemStatusLocked, now); err != nil {
				return err
			}
		}

		candidate.ID = uc.idGen.Generate()
		candidate.CreatedAt = now
		candidate.UpdatedAt = now
		return uc.listingRepo.Create(ctx, tx, candidate)
	})
	if err != nil {
		// A concurrent retransmission may have won the unique-constraint
		// race; answer with the winner's listing when parameters match.
		if errors.Is(err, domain.ErrIdempotencyConflict) {
			if dup, rerr := uc.replayByKey(ctx, candidate); dup != nil && rerr == nil {
				return dup, nil
			}
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ListingsCreated.Inc()
	}
	uc.logger.Info().
		Str("listing_id", candidate.ID).
		Str("seller", input.SellerAccountID).
		Str("kind", string(input.Kind)).
		Msg("listing created")

	return &CreateListingResult{Listing: candidate}, nil
}

// WithdrawListing releases the reservation and terminates the listing.
func (uc *ListingUseCase) WithdrawListing(ctx context.Context, listingID, sellerAccountID string) (*domain.Listing, error) {
	var listing *domain.Listing

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		l, err := uc.listingRepo.GetByIDForUpdate(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if l.SellerAccountID != sellerAccountID {
			return domain.ErrNotOwner
		}
		if l.Status != domain.ListingStatusOnSale {
			return domain.ErrInvalidListingStatus.WithMessage("listing %s is %s, not on_sale", l.ID, l.Status)
		}

		now := time.Now().UTC()

		switch l.Kind {
		case domain.ListingKindAsset:
			_, err := uc.ledger.Unfreeze(ctx, tx, ReserveInput{
				AccountID:      l.SellerAccountID,
				AssetCode:      l.AssetCode,
				Amount:         l.Amount,
				BusinessType:   BusinessListingWithdraw,
				IdempotencyKey: "listing-withdraw:" + l.ID,
			})
			if err != nil {
				return err
			}
		case domain.ListingKindItem:
			if err := uc.itemRepo.UpdateStatus(ctx, tx, l.ItemID, domain.ItemStatusLocked, domain.ItemStatusAvailable, now); err != nil {
				return err
			}
		}

		if err := uc.listingRepo.UpdateStatus(ctx, tx, l.ID, domain.ListingStatusOnSale, domain.ListingStatusWithdrawn, now); err != nil {
			return err
		}

		l.Status = domain.ListingStatusWithdrawn
		l.UpdatedAt = now
		listing = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ListingsWithdrawn.Inc()
	}
	uc.logger.Info().Str("listing_id", listingID).Msg("listing withdrawn")

	return listing, nil
}

// GetListing returns a listing by id.
func (uc *ListingUseCase) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	return uc.listingRepo.GetByID(ctx, listingID)
}

// ListBySeller returns the seller's listings.
func (uc *ListingUseCase) ListBySeller(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.listingRepo.ListBySeller(ctx, sellerAccountID, limit, offset)
}

// replayByKey resolves an idempotency-key replay: (result, nil) when an
// identical listing exists, (nil, conflict) on parameter mismatch, and
// (nil, nil) when the key is unused.
func (uc *ListingUseCase) replayByKey(ctx context.Context, candidate *domain.Listing) (*CreateListingResult, error) {
	existing, err := uc.listingRepo.GetByIdempotencyKey(ctx, candidate.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if !existing.Matches(candidate) {
		return nil, domain.ErrIdempotencyConflict
	}
	return &CreateListingResult{Listing: existing, IsDuplicate: true}, nil
}

func (uc *ListingUseCase) checkTradable(ctx context.Context, code string) error {
	tradable, err := uc.catalog.IsTradable(ctx, code)
	if err != nil {
		return err
	}
	if !tradable {
		return domain.ErrAssetNotTradable.WithMessage("asset %s is not tradable", code)
	}
	return nil
}

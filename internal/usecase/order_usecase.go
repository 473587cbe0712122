package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/infrastructure/metrics"
)

// OrderUseCase accepts buy orders against listings and drives them to
// settlement or cancellation. The listing row lock is what guarantees at
// most one buyer wins: the first transaction to acquire it flips the listing
// to locked and commits; every concurrent attempt then observes a status
// other than on_sale and fails deterministically. That failure is a
// legitimate business outcome, never retried.
type OrderUseCase struct {
	txExec      TxExecutor
	ledger      *LedgerUseCase
	listingRepo ListingRepository
	orderRepo   OrderRepository
	itemRepo    ItemRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewOrderUseCase creates a new OrderUseCase.
func NewOrderUseCase(
	txExec TxExecutor,
	ledger *LedgerUseCase,
	listingRepo ListingRepository,
	orderRepo OrderRepository,
	itemRepo ItemRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		txExec:      txExec,
		ledger:      ledger,
		listingRepo: listingRepo,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// CreateOrderInput describes a buy request against a listing.
type CreateOrderInput struct {
	ListingID      string
	BuyerAccountID string
	IdempotencyKey string
}

// CreateOrderResult carries the order and whether it was an idempotent replay.
type CreateOrderResult struct {
	Order       *domain.Order
	IsDuplicate bool
}

// CreateOrder locks the listing, freezes the buyer's payment and creates the
// order in frozen status, flipping the listing to locked.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyRequired
	}

	candidate := &domain.Order{
		ListingID:      input.ListingID,
		BuyerAccountID: input.BuyerAccountID,
		IdempotencyKey: input.IdempotencyKey,
		Status:         domain.OrderStatusFrozen,
	}

	if dup, err := uc.replayByKey(ctx, candidate); dup != nil || err != nil {
		return dup, err
	}

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		listing, err := uc.listingRepo.GetByIDForUpdate(ctx, tx, input.ListingID)
		if err != nil {
			return err
		}
		if listing.Status != domain.ListingStatusOnSale {
			return domain.ErrInvalidListingStatus.WithMessage("listing %s is %s, not on_sale", listing.ID, listing.Status)
		}
		if listing.SellerAccountID == input.BuyerAccountID {
			return domain.ErrSelfTrade
		}

		_, err = uc.ledger.Freeze(ctx, tx, ReserveInput{
			AccountID:      input.BuyerAccountID,
			AssetCode:      listing.PriceAssetCode,
			Amount:         listing.PriceAmount,
			BusinessType:   BusinessOrderFreeze,
			IdempotencyKey: "order-freeze:" + input.IdempotencyKey,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		candidate.ID = uc.idGen.Generate()
		candidate.CreatedAt = now
		candidate.UpdatedAt = now
		if err := uc.orderRepo.Create(ctx, tx, candidate); err != nil {
			return err
		}

		return uc.listingRepo.UpdateStatus(ctx, tx, listing.ID, domain.ListingStatusOnSale, domain.ListingStatusLocked, now)
	})
	if err != nil {
		// Two retransmissions of the same key can both pass the pre-check
		// before either commits. The loser then either hits the unique key
		// on insert or, having blocked on the listing row lock, observes
		// the status the winner already changed. Both cases must resolve
		// to the winner's order when the parameters match.
		if errors.Is(err, domain.ErrIdempotencyConflict) || errors.Is(err, domain.ErrInvalidListingStatus) {
			if dup, rerr := uc.replayByKey(ctx, candidate); dup != nil && rerr == nil {
				return dup, nil
			}
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCreated.Inc()
	}
	uc.logger.Info().
		Str("order_id", candidate.ID).
		Str("listing_id", input.ListingID).
		Str("buyer", input.BuyerAccountID).
		Msg("order created")

	return &CreateOrderResult{Order: candidate}, nil
}

// SettleOrder completes the trade: the buyer's frozen payment settles to the
// seller, the offered asset or item is delivered, order goes to settled and
// listing to sold. All idempotency keys derive from the order id, so a
// replayed settlement re-applies nothing.
func (uc *OrderUseCase) SettleOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		o, err := uc.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusFrozen {
			return domain.ErrInvalidOrderStatus.WithMessage("order %s is %s, not frozen", o.ID, o.Status)
		}

		listing, err := uc.listingRepo.GetByIDForUpdate(ctx, tx, o.ListingID)
		if err != nil {
			return err
		}
		if listing.Status != domain.ListingStatusLocked {
			return domain.ErrInvalidListingStatus.WithMessage("listing %s is %s, not locked", listing.ID, listing.Status)
		}

		now := time.Now().UTC()

		// Buyer's payment leaves their frozen balance for good.
		_, err = uc.ledger.SettleFromFrozen(ctx, tx, ReserveInput{
			AccountID:      o.BuyerAccountID,
			AssetCode:      listing.PriceAssetCode,
			Amount:         listing.PriceAmount,
			BusinessType:   BusinessOrderPayment,
			IdempotencyKey: "order-settle-pay:" + o.ID,
		})
		if err != nil {
			return err
		}

		// Seller receives the proceeds.
		_, err = uc.ledger.ChangeBalance(ctx, tx, ChangeBalanceInput{
			AccountID:      listing.SellerAccountID,
			AssetCode:      listing.PriceAssetCode,
			Delta:          listing.PriceAmount,
			BusinessType:   BusinessSaleProceeds,
			IdempotencyKey: "order-settle-proceeds:" + o.ID,
		})
		if err != nil {
			return err
		}

		// Delivery.
		switch listing.Kind {
		case domain.ListingKindAsset:
			_, err = uc.ledger.SettleFromFrozen(ctx, tx, ReserveInput{
				AccountID:      listing.SellerAccountID,
				AssetCode:      listing.AssetCode,
				Amount:         listing.Amount,
				BusinessType:   BusinessAssetRelease,
				IdempotencyKey: "order-settle-release:" + o.ID,
			})
			if err != nil {
				return err
			}
			_, err = uc.ledger.ChangeBalance(ctx, tx, ChangeBalanceInput{
				AccountID:      o.BuyerAccountID,
				AssetCode:      listing.AssetCode,
				Delta:          listing.Amount,
				BusinessType:   BusinessAssetDelivery,
				IdempotencyKey: "order-settle-deliver:" + o.ID,
			})
			if err != nil {
				return err
			}
		case domain.ListingKindItem:
			if err := uc.itemRepo.Transfer(ctx, tx, listing.ItemID, o.BuyerAccountID, now); err != nil {
				return err
			}
		}

		if err := uc.orderRepo.UpdateStatus(ctx, tx, o.ID, domain.OrderStatusFrozen, domain.OrderStatusSettled, now); err != nil {
			return err
		}
		if err := uc.listingRepo.UpdateStatus(ctx, tx, listing.ID, domain.ListingStatusLocked, domain.ListingStatusSold, now); err != nil {
			return err
		}

		o.Status = domain.OrderStatusSettled
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersSettled.Inc()
	}
	uc.logger.Info().Str("order_id", orderID).Msg("order settled")

	return order, nil
}

// CancelOrder releases the buyer's payment and puts the listing back on
// sale. Orders never reopen after cancellation.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		o, err := uc.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderStatusFrozen {
			return domain.ErrInvalidOrderStatus.WithMessage("order %s is %s, not frozen", o.ID, o.Status)
		}

		listing, err := uc.listingRepo.GetByIDForUpdate(ctx, tx, o.ListingID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		_, err = uc.ledger.Unfreeze(ctx, tx, ReserveInput{
			AccountID:      o.BuyerAccountID,
			AssetCode:      listing.PriceAssetCode,
			Amount:         listing.PriceAmount,
			BusinessType:   BusinessOrderCancel,
			IdempotencyKey: "order-cancel:" + o.ID,
		})
		if err != nil {
			return err
		}

		if err := uc.orderRepo.UpdateStatus(ctx, tx, o.ID, domain.OrderStatusFrozen, domain.OrderStatusCancelled, now); err != nil {
			return err
		}
		if err := uc.listingRepo.UpdateStatus(ctx, tx, listing.ID, domain.ListingStatusLocked, domain.ListingStatusOnSale, now); err != nil {
			return err
		}

		o.Status = domain.OrderStatusCancelled
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCancelled.Inc()
	}
	uc.logger.Info().Str("order_id", orderID).Msg("order cancelled")

	return order, nil
}

// GetOrder returns an order by id.
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.orderRepo.GetByID(ctx, orderID)
}

// ListByBuyer returns the buyer's orders.
func (uc *OrderUseCase) ListByBuyer(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.orderRepo.ListByBuyer(ctx, buyerAccountID, limit, offset)
}

func (uc *OrderUseCase) replayByKey(ctx context.Context, candidate *domain.Order) (*CreateOrderResult, error) {
	existing, err := uc.orderRepo.GetByIdempotencyKey(ctx, candidate.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if !existing.Matches(candidate) {
		return nil, domain.ErrIdempotencyConflict
	}
	return &CreateOrderResult{Order: existing, IsDuplicate: true}, nil
}

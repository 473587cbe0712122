package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// seedAssetTrade lists 10 POINTS for 5 COINS and funds both parties.
func seedAssetTrade(t *testing.T, f *marketFixture) *domain.Listing {
	t.Helper()
	ctx := context.Background()

	f.balanceRepo.Seed("seller-1", "POINTS", decimal.NewFromInt(50), decimal.Zero)
	f.balanceRepo.Seed("buyer-1", "COINS", decimal.NewFromInt(20), decimal.Zero)

	result, err := f.listingUC.CreateListing(ctx, assetListingInput("list-1"))
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return result.Listing
}

func TestOrderUseCase_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("order freezes payment and locks the listing", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		result, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Order.Status != domain.OrderStatusFrozen {
			t.Errorf("order status = %s, want frozen", result.Order.Status)
		}

		bal, _ := f.ledger.GetBalance(ctx, "buyer-1", "COINS")
		if !bal.Available.Equal(decimal.NewFromInt(15)) || !bal.Frozen.Equal(decimal.NewFromInt(5)) {
			t.Errorf("buyer COINS = %s/%s, want 15/5", bal.Available, bal.Frozen)
		}

		got, _ := f.listingRepo.GetByID(ctx, listing.ID)
		if got.Status != domain.ListingStatusLocked {
			t.Errorf("listing status = %s, want locked", got.Status)
		}
	})

	t.Run("second buyer loses on a locked listing", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)
		f.balanceRepo.Seed("buyer-2", "COINS", decimal.NewFromInt(20), decimal.Zero)

		if _, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		}); err != nil {
			t.Fatalf("first order: %v", err)
		}

		_, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-2",
			IdempotencyKey: "order-2",
		})
		if !errors.Is(err, domain.ErrInvalidListingStatus) {
			t.Fatalf("expected ErrInvalidListingStatus, got %v", err)
		}

		// The loser's funds stay untouched.
		bal, _ := f.ledger.GetBalance(ctx, "buyer-2", "COINS")
		if !bal.Available.Equal(decimal.NewFromInt(20)) || !bal.Frozen.IsZero() {
			t.Errorf("buyer-2 COINS = %s/%s, want 20/0", bal.Available, bal.Frozen)
		}
	})

	t.Run("seller cannot buy own listing", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)
		f.balanceRepo.Seed("seller-1", "COINS", decimal.NewFromInt(20), decimal.Zero)

		_, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "seller-1",
			IdempotencyKey: "order-1",
		})
		if !errors.Is(err, domain.ErrSelfTrade) {
			t.Fatalf("expected ErrSelfTrade, got %v", err)
		}
	})

	t.Run("insufficient payment balance rejects the order", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)
		f.balanceRepo.Seed("buyer-poor", "COINS", decimal.NewFromInt(1), decimal.Zero)

		_, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-poor",
			IdempotencyKey: "order-1",
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
	})

	t.Run("replay returns the first order without refreezing", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		input := usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		}
		first, err := f.orderUC.CreateOrder(ctx, input)
		if err != nil {
			t.Fatalf("first order: %v", err)
		}
		second, err := f.orderUC.CreateOrder(ctx, input)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}

		if !second.IsDuplicate {
			t.Error("replay must be flagged as duplicate")
		}
		if second.Order.ID != first.Order.ID {
			t.Error("replay must return the original order")
		}
		bal, _ := f.ledger.GetBalance(ctx, "buyer-1", "COINS")
		if !bal.Frozen.Equal(decimal.NewFromInt(5)) {
			t.Errorf("frozen = %s, want 5 (no double freeze)", bal.Frozen)
		}
	})

	t.Run("raced retransmission replays the winner after losing the row lock", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		input := usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		}
		first, err := f.orderUC.CreateOrder(ctx, input)
		if err != nil {
			t.Fatalf("first order: %v", err)
		}

		// The retransmission's pre-check runs before the first request
		// commits, so it finds nothing for the key. It then blocks on the
		// listing row lock and wakes up to a listing the winner already
		// flipped to locked.
		var lookups int
		f.orderRepo.GetByIdempotencyKeyFunc = func(ctx context.Context, key string) (*domain.Order, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return first.Order, nil
		}

		second, err := f.orderUC.CreateOrder(ctx, input)
		if err != nil {
			t.Fatalf("raced retransmission must succeed, got %v", err)
		}
		if !second.IsDuplicate {
			t.Error("raced retransmission must be flagged as duplicate")
		}
		if second.Order.ID != first.Order.ID {
			t.Errorf("order id = %s, want the winner's %s", second.Order.ID, first.Order.ID)
		}

		bal, _ := f.ledger.GetBalance(ctx, "buyer-1", "COINS")
		if !bal.Frozen.Equal(decimal.NewFromInt(5)) {
			t.Errorf("frozen = %s, want 5 (no double freeze)", bal.Frozen)
		}
	})

	t.Run("key collision from a different buyer still loses", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)
		f.balanceRepo.Seed("buyer-2", "COINS", decimal.NewFromInt(20), decimal.Zero)

		first, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("first order: %v", err)
		}

		var lookups int
		f.orderRepo.GetByIdempotencyKeyFunc = func(ctx context.Context, key string) (*domain.Order, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return first.Order, nil
		}

		// Same key but different buyer: the existing order is not theirs,
		// so the status error stands.
		_, err = f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-2",
			IdempotencyKey: "order-1",
		})
		if !errors.Is(err, domain.ErrInvalidListingStatus) {
			t.Fatalf("expected ErrInvalidListingStatus, got %v", err)
		}
	})
}

func TestOrderUseCase_SettleOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("asset trade settles both legs", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		created, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		settled, err := f.orderUC.SettleOrder(ctx, created.Order.ID)
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		if settled.Status != domain.OrderStatusSettled {
			t.Errorf("order status = %s, want settled", settled.Status)
		}

		checks := []struct {
			account, asset    string
			available, frozen int64
		}{
			{"buyer-1", "COINS", 15, 0},
			{"buyer-1", "POINTS", 10, 0},
			{"seller-1", "COINS", 5, 0},
			{"seller-1", "POINTS", 40, 0},
		}
		for _, c := range checks {
			bal, _ := f.ledger.GetBalance(ctx, c.account, c.asset)
			if !bal.Available.Equal(decimal.NewFromInt(c.available)) || !bal.Frozen.Equal(decimal.NewFromInt(c.frozen)) {
				t.Errorf("%s %s = %s/%s, want %d/%d", c.account, c.asset, bal.Available, bal.Frozen, c.available, c.frozen)
			}
		}

		got, _ := f.listingRepo.GetByID(ctx, listing.ID)
		if got.Status != domain.ListingStatusSold {
			t.Errorf("listing status = %s, want sold", got.Status)
		}
	})

	t.Run("item trade transfers ownership", func(t *testing.T) {
		f := newMarketFixture()
		f.balanceRepo.Seed("buyer-1", "COINS", decimal.NewFromInt(20), decimal.Zero)
		f.itemRepo.Seed(&domain.Item{
			ID:             "item-1",
			OwnerAccountID: "seller-1",
			ItemCode:       "voucher",
			Status:         domain.ItemStatusAvailable,
		})

		listingResult, err := f.listingUC.CreateListing(ctx, usecase.CreateListingInput{
			SellerAccountID: "seller-1",
			Kind:            domain.ListingKindItem,
			ItemID:          "item-1",
			PriceAssetCode:  "COINS",
			PriceAmount:     decimal.NewFromInt(5),
			IdempotencyKey:  "list-item-1",
		})
		if err != nil {
			t.Fatalf("create listing: %v", err)
		}
		orderResult, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listingResult.Listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		if _, err := f.orderUC.SettleOrder(ctx, orderResult.Order.ID); err != nil {
			t.Fatalf("settle: %v", err)
		}

		item, _ := f.itemRepo.GetByID(ctx, "item-1")
		if item.OwnerAccountID != "buyer-1" {
			t.Errorf("item owner = %s, want buyer-1", item.OwnerAccountID)
		}
		if item.Status != domain.ItemStatusAvailable {
			t.Errorf("item status = %s, want available", item.Status)
		}
	})

	t.Run("settling a settled order is rejected", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		created, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if _, err := f.orderUC.SettleOrder(ctx, created.Order.ID); err != nil {
			t.Fatalf("first settle: %v", err)
		}

		_, err = f.orderUC.SettleOrder(ctx, created.Order.ID)
		if !errors.Is(err, domain.ErrInvalidOrderStatus) {
			t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
		}
	})
}

func TestOrderUseCase_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel releases payment and relists", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		created, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}

		cancelled, err := f.orderUC.CancelOrder(ctx, created.Order.ID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if cancelled.Status != domain.OrderStatusCancelled {
			t.Errorf("order status = %s, want cancelled", cancelled.Status)
		}

		bal, _ := f.ledger.GetBalance(ctx, "buyer-1", "COINS")
		if !bal.Available.Equal(decimal.NewFromInt(20)) || !bal.Frozen.IsZero() {
			t.Errorf("buyer COINS = %s/%s, want 20/0", bal.Available, bal.Frozen)
		}

		got, _ := f.listingRepo.GetByID(ctx, listing.ID)
		if got.Status != domain.ListingStatusOnSale {
			t.Errorf("listing status = %s, want on_sale", got.Status)
		}
	})

	t.Run("relisted listing can be bought again", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)
		f.balanceRepo.Seed("buyer-2", "COINS", decimal.NewFromInt(20), decimal.Zero)

		created, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if _, err := f.orderUC.CancelOrder(ctx, created.Order.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		second, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-2",
			IdempotencyKey: "order-2",
		})
		if err != nil {
			t.Fatalf("second order: %v", err)
		}
		if _, err := f.orderUC.SettleOrder(ctx, second.Order.ID); err != nil {
			t.Fatalf("settle: %v", err)
		}
	})

	t.Run("cancelling a settled order is rejected", func(t *testing.T) {
		f := newMarketFixture()
		listing := seedAssetTrade(t, f)

		created, err := f.orderUC.CreateOrder(ctx, usecase.CreateOrderInput{
			ListingID:      listing.ID,
			BuyerAccountID: "buyer-1",
			IdempotencyKey: "order-1",
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if _, err := f.orderUC.SettleOrder(ctx, created.Order.ID); err != nil {
			t.Fatalf("settle: %v", err)
		}

		_, err = f.orderUC.CancelOrder(ctx, created.Order.ID)
		if !errors.Is(err, domain.ErrInvalidOrderStatus) {
			t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
		}
	})
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
	"github.com/savorly/marketledger/internal/usecase/mocks"
)

type reconFixture struct {
	balanceRepo *mocks.MockBalanceRepository
	reconRepo   *mocks.MockReconciliationRepository
	reconUC     *usecase.ReconciliationUseCase
	ledger      *usecase.LedgerUseCase
}

func newReconFixture() *reconFixture {
	f := &reconFixture{
		balanceRepo: mocks.NewMockBalanceRepository(),
		reconRepo:   mocks.NewMockReconciliationRepository(),
	}
	idGen := mocks.NewMockIDGenerator()
	f.ledger = usecase.NewLedgerUseCase(mocks.NewMockAccountRepository(), f.balanceRepo, mocks.NewMockAssetTransactionRepository(), idGen, nil, zerolog.Nop())
	f.reconUC = usecase.NewReconciliationUseCase(mocks.NewMockTxExecutor(), f.ledger, f.reconRepo, f.balanceRepo, idGen, nil, zerolog.Nop())
	return f
}

func checkRow(accountID, assetCode string, frozen, expected int64) usecase.FrozenCheckRow {
	return usecase.FrozenCheckRow{
		AccountID: accountID,
		AssetCode: assetCode,
		Frozen:    decimal.NewFromInt(frozen),
		Expected:  decimal.NewFromInt(expected),
	}
}

func TestReconciliationUseCase_DetectOrphanFrozen(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates positive differences only", func(t *testing.T) {
		f := newReconFixture()
		f.reconRepo.Rows = []usecase.FrozenCheckRow{
			checkRow("acc-1", "POINTS", 10, 3),
			checkRow("acc-1", "COINS", 5, 5),
			checkRow("acc-2", "POINTS", 4, 0),
		}

		report, err := f.reconUC.DetectOrphanFrozen(ctx, usecase.OrphanFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.OrphanCount != 2 {
			t.Errorf("orphan count = %d, want 2", report.OrphanCount)
		}
		if !report.TotalOrphanAmount.Equal(decimal.NewFromInt(11)) {
			t.Errorf("total = %s, want 11", report.TotalOrphanAmount)
		}
		if report.AffectedAccounts != 2 {
			t.Errorf("affected accounts = %d, want 2", report.AffectedAccounts)
		}
		if len(report.AffectedAssets) != 1 || report.AffectedAssets[0] != "POINTS" {
			t.Errorf("affected assets = %v, want [POINTS]", report.AffectedAssets)
		}
		if report.Truncated {
			t.Error("report must not be truncated")
		}
	})

	t.Run("limit truncates the page", func(t *testing.T) {
		f := newReconFixture()
		f.reconRepo.Rows = []usecase.FrozenCheckRow{
			checkRow("acc-1", "POINTS", 10, 0),
			checkRow("acc-2", "POINTS", 10, 0),
		}

		report, err := f.reconUC.DetectOrphanFrozen(ctx, usecase.OrphanFilter{Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.OrphanCount != 1 {
			t.Errorf("orphan count = %d, want 1", report.OrphanCount)
		}
		if !report.Truncated {
			t.Error("report must be truncated")
		}
	})

	t.Run("filter narrows by account", func(t *testing.T) {
		f := newReconFixture()
		f.reconRepo.Rows = []usecase.FrozenCheckRow{
			checkRow("acc-1", "POINTS", 10, 0),
			checkRow("acc-2", "POINTS", 10, 0),
		}

		report, err := f.reconUC.DetectOrphanFrozen(ctx, usecase.OrphanFilter{AccountID: "acc-2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.OrphanCount != 1 {
			t.Errorf("orphan count = %d, want 1", report.OrphanCount)
		}
		if report.Items[0].AccountID != "acc-2" {
			t.Errorf("account = %s, want acc-2", report.Items[0].AccountID)
		}
	})
}

func TestReconciliationUseCase_CleanupOrphanFrozen(t *testing.T) {
	ctx := context.Background()

	t.Run("dry run reports but releases nothing", func(t *testing.T) {
		f := newReconFixture()
		f.balanceRepo.Seed("acc-1", "POINTS", decimal.Zero, decimal.NewFromInt(10))
		f.reconRepo.Rows = []usecase.FrozenCheckRow{checkRow("acc-1", "POINTS", 10, 3)}

		result, err := f.reconUC.CleanupOrphanFrozen(ctx, usecase.CleanupInput{DryRun: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.DryRun || result.CleanedCount != 0 {
			t.Errorf("dry run cleaned %d pairs", result.CleanedCount)
		}
		if result.Report.OrphanCount != 1 {
			t.Errorf("report orphan count = %d, want 1", result.Report.OrphanCount)
		}

		bal, _ := f.ledger.GetBalance(ctx, "acc-1", "POINTS")
		if !bal.Frozen.Equal(decimal.NewFromInt(10)) {
			t.Errorf("frozen = %s, want 10 (untouched)", bal.Frozen)
		}
	})

	t.Run("real run requires an operator", func(t *testing.T) {
		f := newReconFixture()

		_, err := f.reconUC.CleanupOrphanFrozen(ctx, usecase.CleanupInput{DryRun: false})
		if !errors.Is(err, domain.ErrOperatorRequired) {
			t.Fatalf("expected ErrOperatorRequired, got %v", err)
		}
	})

	t.Run("real run releases the orphan amount", func(t *testing.T) {
		f := newReconFixture()
		f.balanceRepo.Seed("acc-1", "POINTS", decimal.Zero, decimal.NewFromInt(10))
		f.reconRepo.Rows = []usecase.FrozenCheckRow{checkRow("acc-1", "POINTS", 10, 3)}

		result, err := f.reconUC.CleanupOrphanFrozen(ctx, usecase.CleanupInput{OperatorID: "ops-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.CleanedCount != 1 {
			t.Errorf("cleaned count = %d, want 1", result.CleanedCount)
		}
		if !result.CleanedAmount.Equal(decimal.NewFromInt(7)) {
			t.Errorf("cleaned amount = %s, want 7", result.CleanedAmount)
		}

		bal, _ := f.ledger.GetBalance(ctx, "acc-1", "POINTS")
		if !bal.Available.Equal(decimal.NewFromInt(7)) || !bal.Frozen.Equal(decimal.NewFromInt(3)) {
			t.Errorf("balance = %s/%s, want 7/3", bal.Available, bal.Frozen)
		}
	})

	t.Run("second run finds nothing left to release", func(t *testing.T) {
		f := newReconFixture()
		f.balanceRepo.Seed("acc-1", "POINTS", decimal.Zero, decimal.NewFromInt(10))
		f.reconRepo.Rows = []usecase.FrozenCheckRow{checkRow("acc-1", "POINTS", 10, 3)}

		if _, err := f.reconUC.CleanupOrphanFrozen(ctx, usecase.CleanupInput{OperatorID: "ops-1"}); err != nil {
			t.Fatalf("first run: %v", err)
		}

		// The stale detection row still lists the pair, but the per-pair
		// re-check under the lock sees the corrected balance and skips it.
		result, err := f.reconUC.CleanupOrphanFrozen(ctx, usecase.CleanupInput{OperatorID: "ops-1"})
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if result.CleanedCount != 0 {
			t.Errorf("cleaned count = %d, want 0", result.CleanedCount)
		}

		bal, _ := f.ledger.GetBalance(ctx, "acc-1", "POINTS")
		if !bal.Available.Equal(decimal.NewFromInt(7)) || !bal.Frozen.Equal(decimal.NewFromInt(3)) {
			t.Errorf("balance = %s/%s, want 7/3", bal.Available, bal.Frozen)
		}
	})
}

func TestReconciliationUseCase_GetOrphanFrozenStats(t *testing.T) {
	f := newReconFixture()
	f.reconRepo.Rows = []usecase.FrozenCheckRow{
		checkRow("acc-1", "POINTS", 10, 3),
		checkRow("acc-2", "COINS", 4, 0),
	}

	report, err := f.reconUC.GetOrphanFrozenStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OrphanCount != 2 {
		t.Errorf("orphan count = %d, want 2", report.OrphanCount)
	}
	if report.Items != nil {
		t.Error("stats must not carry per-pair items")
	}
}

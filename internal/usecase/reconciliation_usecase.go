package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase detects and repairs orphan frozen balances: frozen
// amounts no active listing or order accounts for, typically left behind by
// a crash between a freeze and its release.
//
// Detection is a hint, not a proof of leakage; a slow but legitimate
// in-flight transaction can look like an orphan for a moment. Cleanup is
// therefore never automatic: it defaults to dry-run and real mode requires
// an operator id for audit attribution.
type ReconciliationUseCase struct {
	txExec      TxExecutor
	ledger      *LedgerUseCase
	reconRepo   ReconciliationRepository
	balanceRepo BalanceRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txExec TxExecutor,
	ledger *LedgerUseCase,
	reconRepo ReconciliationRepository,
	balanceRepo BalanceRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txExec:      txExec,
		ledger:      ledger,
		reconRepo:   reconRepo,
		balanceRepo: balanceRepo,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// OrphanFilter narrows a detection pass.
type OrphanFilter struct {
	AccountID string
	AssetCode string
	Limit     int
}

// OrphanItem is one (account, asset) pair holding more frozen value than its
// active reservations explain.
type OrphanItem struct {
	AccountID      string
	AssetCode      string
	FrozenAmount   decimal.Decimal
	ExpectedAmount decimal.Decimal
	OrphanAmount   decimal.Decimal
}

// OrphanReport is the result of one detection pass.
type OrphanReport struct {
	CheckedAt         time.Time
	OrphanCount       int
	TotalOrphanAmount decimal.Decimal
	Items             []OrphanItem
	AffectedAccounts  int
	AffectedAssets    []string
	Truncated         bool
}

// CleanupInput describes a cleanup request. DryRun defaults to true at the
// API surface; OperatorID is mandatory for a real run.
type CleanupInput struct {
	DryRun     bool
	OperatorID string
	Filter     OrphanFilter
}

// CleanupResult reports what a cleanup run found and corrected.
type CleanupResult struct {
	Report        *OrphanReport
	DryRun        bool
	CleanedCount  int
	CleanedAmount decimal.Decimal
}

// DetectOrphanFrozen cross-checks frozen balances against the sum of active
// reservations and reports every positive difference.
func (uc *ReconciliationUseCase) DetectOrphanFrozen(ctx context.Context, filter OrphanFilter) (*OrphanReport, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxOrphanPageSize {
		limit = MaxOrphanPageSize
	}

	// One extra row tells us whether the page was truncated.
	rows, err := uc.reconRepo.ListFrozenMismatches(ctx, filter.AccountID, filter.AssetCode, limit+1)
	if err != nil {
		return nil, err
	}

	report := &OrphanReport{
		CheckedAt:         time.Now().UTC(),
		TotalOrphanAmount: decimal.Zero,
	}
	if len(rows) > limit {
		rows = rows[:limit]
		report.Truncated = true
	}

	accounts := make(map[string]struct{})
	assets := make(map[string]struct{})
	for _, row := range rows {
		orphan := row.Frozen.Sub(row.Expected)
		if !orphan.IsPositive() {
			continue
		}
		report.Items = append(report.Items, OrphanItem{
			AccountID:      row.AccountID,
			AssetCode:      row.AssetCode,
			FrozenAmount:   row.Frozen,
			ExpectedAmount: row.Expected,
			OrphanAmount:   orphan,
		})
		report.TotalOrphanAmount = report.TotalOrphanAmount.Add(orphan)
		accounts[row.AccountID] = struct{}{}
		if _, seen := assets[row.AssetCode]; !seen {
			assets[row.AssetCode] = struct{}{}
			report.AffectedAssets = append(report.AffectedAssets, row.AssetCode)
		}
	}
	report.OrphanCount = len(report.Items)
	report.AffectedAccounts = len(accounts)

	if uc.metrics != nil {
		uc.metrics.OrphansDetected.Set(float64(report.OrphanCount))
		amt, _ := report.TotalOrphanAmount.Float64()
		uc.metrics.OrphanAmount.Set(amt)
	}

	return report, nil
}

// CleanupOrphanFrozen unfreezes orphan amounts back to available, one
// compensating ledger correction per orphan. Each correction re-locks the
// balance and recomputes the expected amount inside its own transaction, so
// a pair that was fixed in the meantime (or was never really orphaned) is
// skipped. Re-running cleanup finds nothing and does nothing.
func (uc *ReconciliationUseCase) CleanupOrphanFrozen(ctx context.Context, input CleanupInput) (*CleanupResult, error) {
	if !input.DryRun && input.OperatorID == "" {
		return nil, domain.ErrOperatorRequired
	}

	report, err := uc.DetectOrphanFrozen(ctx, input.Filter)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{
		Report:        report,
		DryRun:        input.DryRun,
		CleanedAmount: decimal.Zero,
	}
	if input.DryRun {
		return result, nil
	}

	for _, item := range report.Items {
		cleaned, err := uc.cleanupOne(ctx, item, input.OperatorID)
		if err != nil {
			uc.logger.Error().Err(err).
				Str("account_id", item.AccountID).
				Str("asset_code", item.AssetCode).
				Msg("orphan cleanup failed")
			return result, err
		}
		if cleaned.IsPositive() {
			result.CleanedCount++
			result.CleanedAmount = result.CleanedAmount.Add(cleaned)
		}
	}

	if uc.metrics != nil {
		uc.metrics.OrphansCleaned.Add(float64(result.CleanedCount))
	}
	uc.logger.Info().
		Int("cleaned", result.CleanedCount).
		Str("amount", result.CleanedAmount.String()).
		Str("operator", input.OperatorID).
		Msg("orphan frozen cleanup completed")

	return result, nil
}

// GetOrphanFrozenStats returns a detail-free summary of the current orphan
// situation, for dashboards and the scheduled check.
func (uc *ReconciliationUseCase) GetOrphanFrozenStats(ctx context.Context) (*OrphanReport, error) {
	report, err := uc.DetectOrphanFrozen(ctx, OrphanFilter{})
	if err != nil {
		return nil, err
	}
	report.Items = nil
	return report, nil
}

// cleanupOne corrects a single (account, asset) pair and returns the amount
// released, or zero if it turned out not to be orphaned under the lock.
func (uc *ReconciliationUseCase) cleanupOne(ctx context.Context, item OrphanItem, operatorID string) (decimal.Decimal, error) {
	cleaned := decimal.Zero

	err := uc.txExec.WithTx(ctx, func(ctx context.Context, tx Transaction) error {
		bal, err := uc.balanceRepo.GetForUpdate(ctx, tx, item.AccountID, item.AssetCode)
		if err != nil {
			return err
		}
		expected, err := uc.reconRepo.ExpectedFrozen(ctx, tx, item.AccountID, item.AssetCode)
		if err != nil {
			return err
		}

		orphan := bal.Frozen.Sub(expected)
		if !orphan.IsPositive() {
			return nil
		}

		_, err = uc.ledger.Unfreeze(ctx, tx, ReserveInput{
			AccountID:      item.AccountID,
			AssetCode:      item.AssetCode,
			Amount:         orphan,
			BusinessType:   BusinessOrphanCleanup,
			IdempotencyKey: "orphan-cleanup:" + uc.idGen.Generate(),
			OperatorID:     operatorID,
		})
		if err != nil {
			return err
		}

		uc.logger.Warn().
			Str("account_id", item.AccountID).
			Str("asset_code", item.AssetCode).
			Str("orphan", orphan.String()).
			Str("operator", operatorID).
			Msg("orphan frozen balance released")

		cleaned = orphan
		return nil
	})
	return cleaned, err
}

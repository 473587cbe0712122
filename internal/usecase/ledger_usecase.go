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

// LedgerUseCase owns every mutation of asset balances. No other component
// writes the balance or transaction tables. All write operations require an
// open transaction supplied by the caller and hold a row lock on the target
// balance until that transaction ends.
type LedgerUseCase struct {
	accountRepo AccountRepository
	balanceRepo BalanceRepository
	txnRepo     AssetTransactionRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	accountRepo AccountRepository,
	balanceRepo BalanceRepository,
	txnRepo AssetTransactionRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		txnRepo:     txnRepo,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// BalanceMutation is the result of a ledger write: the balance after the
// mutation and the log row recording it. Duplicate is set when the
// idempotency key had already been applied and the prior result is returned
// without re-executing side effects.
type BalanceMutation struct {
	Balance     *domain.AssetBalance
	Transaction *domain.AssetTransaction
	Duplicate   bool
}

// ChangeBalanceInput describes an available-amount adjustment. Delta may be
// negative.
type ChangeBalanceInput struct {
	AccountID      string
	AssetCode      string
	Delta          decimal.Decimal
	BusinessType   string
	IdempotencyKey string
	OperatorID     string
}

// ReserveInput describes a freeze, unfreeze or settle of a positive amount.
type ReserveInput struct {
	AccountID      string
	AssetCode      string
	Amount         decimal.Decimal
	BusinessType   string
	IdempotencyKey string
	OperatorID     string
}

// ChangeBalance adjusts the available amount by delta. It fails with
// INSUFFICIENT_BALANCE when the result would be negative and is a no-op
// returning the prior result when the idempotency key was already applied.
func (uc *LedgerUseCase) ChangeBalance(ctx context.Context, tx Transaction, input ChangeBalanceInput) (*BalanceMutation, error) {
	if input.Delta.IsZero() {
		return nil, domain.ErrInvalidAmount.WithMessage("delta must be non-zero")
	}
	return uc.apply(ctx, tx, mutationRequest{
		accountID:      input.AccountID,
		assetCode:      input.AssetCode,
		kind:           domain.MutationChange,
		businessType:   input.BusinessType,
		availableDelta: input.Delta,
		frozenDelta:    decimal.Zero,
		idempotencyKey: input.IdempotencyKey,
		operatorID:     input.OperatorID,
		validate: func(b *domain.AssetBalance) error {
			return b.ValidateChange(input.Delta)
		},
	})
}

// Freeze moves amount from available to frozen, reserving it against an
// in-flight listing or order.
func (uc *LedgerUseCase) Freeze(ctx context.Context, tx Transaction, input ReserveInput) (*BalanceMutation, error) {
	return uc.apply(ctx, tx, mutationRequest{
		accountID:      input.AccountID,
		assetCode:      input.AssetCode,
		kind:           domain.MutationFreeze,
		businessType:   input.BusinessType,
		availableDelta: input.Amount.Neg(),
		frozenDelta:    input.Amount,
		idempotencyKey: input.IdempotencyKey,
		operatorID:     input.OperatorID,
		validate: func(b *domain.AssetBalance) error {
			return b.ValidateFreeze(input.Amount)
		},
	})
}

// Unfreeze moves amount from frozen back to available. A frozen amount that
// would go negative is an internal consistency error, never clamped.
func (uc *LedgerUseCase) Unfreeze(ctx context.Context, tx Transaction, input ReserveInput) (*BalanceMutation, error) {
	return uc.apply(ctx, tx, mutationRequest{
		accountID:      input.AccountID,
		assetCode:      input.AssetCode,
		kind:           domain.MutationUnfreeze,
		businessType:   input.BusinessType,
		availableDelta: input.Amount,
		frozenDelta:    input.Amount.Neg(),
		idempotencyKey: input.IdempotencyKey,
		operatorID:     input.OperatorID,
		validate: func(b *domain.AssetBalance) error {
			return b.ValidateUnfreeze(input.Amount)
		},
	})
}

// SettleFromFrozen permanently removes amount from frozen without returning
// it to available: the reserved value has left the account.
func (uc *LedgerUseCase) SettleFromFrozen(ctx context.Context, tx Transaction, input ReserveInput) (*BalanceMutation, error) {
	return uc.apply(ctx, tx, mutationRequest{
		accountID:      input.AccountID,
		assetCode:      input.AssetCode,
		kind:           domain.MutationSettle,
		businessType:   input.BusinessType,
		availableDelta: decimal.Zero,
		frozenDelta:    input.Amount.Neg(),
		idempotencyKey: input.IdempotencyKey,
		operatorID:     input.OperatorID,
		validate: func(b *domain.AssetBalance) error {
			return b.ValidateSettle(input.Amount)
		},
	})
}

// GetBalance returns the balance for one (account, asset) pair. Balances are
// created lazily, so an absent row reads as zero.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error) {
	bal, err := uc.balanceRepo.Get(ctx, accountID, assetCode)
	if err != nil {
		if errors.Is(err, domain.ErrBalanceNotFound) {
			return &domain.AssetBalance{
				AccountID: accountID,
				AssetCode: assetCode,
				Available: decimal.Zero,
				Frozen:    decimal.Zero,
			}, nil
		}
		return nil, err
	}
	return bal, nil
}

// GetAllBalances returns every balance held by the account.
func (uc *LedgerUseCase) GetAllBalances(ctx context.Context, accountID string) ([]*domain.AssetBalance, error) {
	return uc.balanceRepo.ListByAccount(ctx, accountID)
}

// ListTransactions returns the account's slice of the append-only log.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.txnRepo.ListByAccount(ctx, accountID, limit, offset)
}

type mutationRequest struct {
	accountID      string
	assetCode      string
	kind           domain.MutationKind
	businessType   string
	availableDelta decimal.Decimal
	frozenDelta    decimal.Decimal
	idempotencyKey string
	operatorID     string
	validate       func(b *domain.AssetBalance) error
}

// apply is the single write path: idempotency check, row lock, invariant
// check, balance update, log append. Available and frozen only ever change
// here.
func (uc *LedgerUseCase) apply(ctx context.Context, tx Transaction, req mutationRequest) (*BalanceMutation, error) {
	if req.idempotencyKey == "" {
		return nil, domain.ErrIdempotencyRequired
	}

	candidate := &domain.AssetTransaction{
		AccountID:      req.accountID,
		AssetCode:      req.assetCode,
		Kind:           req.kind,
		BusinessType:   req.businessType,
		AvailableDelta: req.availableDelta,
		FrozenDelta:    req.frozenDelta,
		IdempotencyKey: req.idempotencyKey,
		OperatorID:     req.operatorID,
	}

	prior, err := uc.txnRepo.GetByIdempotencyKey(ctx, tx, req.idempotencyKey)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		if !prior.Matches(candidate) {
			uc.logger.Warn().
				Str("idempotency_key", req.idempotencyKey).
				Str("account_id", req.accountID).
				Msg("idempotency key replayed with different parameters")
			return nil, domain.ErrIdempotencyConflict
		}
		// Read through the open transaction, not the pool: the duplicate
		// caller must see the same consistency view the write path uses.
		bal, err := uc.balanceRepo.GetInTx(ctx, tx, req.accountID, req.assetCode)
		if err != nil {
			if errors.Is(err, domain.ErrBalanceNotFound) {
				bal = &domain.AssetBalance{
					AccountID: req.accountID,
					AssetCode: req.assetCode,
					Available: decimal.Zero,
					Frozen:    decimal.Zero,
				}
			} else {
				return nil, err
			}
		}
		return &BalanceMutation{Balance: bal, Transaction: prior, Duplicate: true}, nil
	}

	if err := uc.accountRepo.Ensure(ctx, tx, req.accountID); err != nil {
		return nil, err
	}

	bal, err := uc.balanceRepo.GetForUpdate(ctx, tx, req.accountID, req.assetCode)
	if err != nil {
		return nil, err
	}

	if err := req.validate(bal); err != nil {
		if errors.Is(err, domain.ErrFrozenInconsistency) {
			uc.logger.Error().
				Str("account_id", req.accountID).
				Str("asset_code", req.assetCode).
				Str("kind", string(req.kind)).
				Str("frozen", bal.Frozen.String()).
				Msg("frozen balance inconsistency detected")
			if uc.metrics != nil {
				uc.metrics.FrozenInconsistencies.Inc()
			}
		}
		return nil, err
	}

	now := time.Now().UTC()
	newAvailable := bal.Available.Add(req.availableDelta)
	newFrozen := bal.Frozen.Add(req.frozenDelta)

	if err := uc.balanceRepo.UpdateAmounts(ctx, tx, req.accountID, req.assetCode, newAvailable, newFrozen, now); err != nil {
		return nil, err
	}

	candidate.ID = uc.idGen.Generate()
	candidate.AvailableAfter = newAvailable
	candidate.FrozenAfter = newFrozen
	candidate.CreatedAt = now
	if err := uc.txnRepo.Create(ctx, tx, candidate); err != nil {
		return nil, err
	}

	bal.Available = newAvailable
	bal.Frozen = newFrozen
	bal.UpdatedAt = now

	if uc.metrics != nil {
		uc.metrics.BalanceMutations.WithLabelValues(string(req.kind)).Inc()
	}

	return &BalanceMutation{Balance: bal, Transaction: candidate}, nil
}

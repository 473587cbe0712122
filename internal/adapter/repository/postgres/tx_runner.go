package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/savorly/marketledger/internal/infrastructure/metrics"
	"github.com/savorly/marketledger/internal/retry"
	"github.com/savorly/marketledger/internal/usecase"
)

// TxRunner implements usecase.TxExecutor: it runs a unit of work inside a
// database transaction and, on transient failure, re-attempts it in a fresh
// transaction with exponential backoff. How many attempts an error deserves
// is decided by the retry classifier, so a business error surfaces
// immediately while a deadlock gets its three tries.
type TxRunner struct {
	txManager       usecase.TransactionManager
	initialInterval time.Duration
	maxInterval     time.Duration
	txTimeout       time.Duration
	metrics         *metrics.Metrics
	logger          zerolog.Logger
}

// NewTxRunner creates a TxRunner with the given backoff bounds.
func NewTxRunner(txManager usecase.TransactionManager, initialInterval, maxInterval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *TxRunner {
	if initialInterval <= 0 {
		initialInterval = 50 * time.Millisecond
	}
	if maxInterval <= 0 {
		maxInterval = time.Second
	}
	return &TxRunner{
		txManager:       txManager,
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
		txTimeout:       usecase.DefaultTransactionTimeout,
		metrics:         m,
		logger:          logger,
	}
}

// WithTx executes fn inside a transaction. Each attempt begins a new
// transaction; a failed transaction object is never reused. The error of the
// final attempt is returned unchanged.
func (r *TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Transaction) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = 0 // attempts are bounded by the classifier, not by wall clock

	attempt := 0
	for {
		err := r.attempt(ctx, fn)
		if err == nil {
			return nil
		}

		strategy := retry.Classify(err)
		if !strategy.Retryable || attempt >= strategy.MaxRetries {
			if strategy.Retryable && r.metrics != nil {
				r.metrics.TxFailures.WithLabelValues(strategy.Reason).Inc()
			}
			return err
		}

		attempt++
		wait := b.NextBackOff()
		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_retries", strategy.MaxRetries).
			Str("reason", strategy.Reason).
			Dur("backoff", wait).
			Msg("transient transaction failure, retrying")
		if r.metrics != nil {
			r.metrics.TxRetries.WithLabelValues(strategy.Reason).Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// attempt runs fn inside one fresh transaction, bounded by the transaction
// timeout so a lock wait cannot hold rows forever.
func (r *TxRunner) attempt(ctx context.Context, fn func(ctx context.Context, tx usecase.Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	if r.metrics != nil {
		r.metrics.TxAttempts.Inc()
	}

	tx, err := r.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

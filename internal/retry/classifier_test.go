package retry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/retry"
)

type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string       { return e.msg }
func (e *statusError) HTTPStatusCode() int { return e.status }

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantRetryable  bool
		wantMaxRetries int
	}{
		{
			name:           "nil error",
			err:            nil,
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "business error code is never retried",
			err:            domain.ErrInsufficientBalance,
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "permission denied with 403 status",
			err:            domain.ErrPermissionDenied,
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "deadlock code gets three retries",
			err:            domain.ErrDatabaseDeadlock,
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "lock wait timeout code gets three retries",
			err:            domain.ErrLockWaitTimeout,
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "connection error code gets three retries",
			err:            domain.ErrConnectionError,
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "frozen inconsistency is never retried",
			err:            domain.ErrFrozenInconsistency,
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "code wins over transient-sounding message",
			err:            domain.ErrInsufficientBalance.WithMessage("deadlock while checking balance"),
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "wrapped domain code is still matched",
			err:            fmt.Errorf("running listing create: %w", domain.ErrSelfTrade),
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "postgres deadlock code",
			err:            &pgconn.PgError{Code: "40P01", Message: "deadlock detected"},
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "postgres serialization failure",
			err:            &pgconn.PgError{Code: "40001", Message: "could not serialize access"},
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "postgres lock not available",
			err:            &pgconn.PgError{Code: "55P03", Message: "could not obtain lock"},
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "postgres unique violation is not retried",
			err:            &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "4xx status is not retried",
			err:            &statusError{status: 403, msg: "forbidden"},
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "5xx status falls through to keywords and default",
			err:            &statusError{status: 503, msg: "service unavailable"},
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "deadlock message keyword",
			err:            errors.New("Deadlock found when trying to get lock"),
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "lock wait timeout message keyword",
			err:            errors.New("Lock wait timeout exceeded; try restarting transaction"),
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "connection refused message keyword",
			err:            errors.New("dial tcp 10.0.0.1:5432: connection refused"),
			wantRetryable:  true,
			wantMaxRetries: 3,
		},
		{
			name:           "business keyword beats transient keyword",
			err:            errors.New("insufficient balance: lock wait timeout on account row"),
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "chinese business keyword",
			err:            errors.New("交易失败: 余额不足"),
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "chinese duplicate submission keyword",
			err:            errors.New("请勿重复提交"),
			wantRetryable:  false,
			wantMaxRetries: 0,
		},
		{
			name:           "unknown error gets exactly one retry",
			err:            errors.New("something odd happened"),
			wantRetryable:  true,
			wantMaxRetries: 1,
		},
		{
			name:           "empty message gets exactly one retry",
			err:            errors.New(""),
			wantRetryable:  true,
			wantMaxRetries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := retry.Classify(tt.err)
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v (reason %q)", got.Retryable, tt.wantRetryable, got.Reason)
			}
			if got.MaxRetries != tt.wantMaxRetries {
				t.Errorf("MaxRetries = %d, want %d (reason %q)", got.MaxRetries, tt.wantMaxRetries, got.Reason)
			}
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// A structured code must win even when the surrounding text screams
	// transient failure.
	err := fmt.Errorf("deadlock, connection refused, service unavailable: %w",
		domain.ErrNotOwner)
	got := retry.Classify(err)
	if got.Retryable {
		t.Fatalf("expected structured business code to win over transient keywords, got retryable (reason %q)", got.Reason)
	}

	// And a transient code must win over business-sounding text.
	err = fmt.Errorf("account not found while connecting: %w", domain.ErrConnectionError)
	got = retry.Classify(err)
	if !got.Retryable || got.MaxRetries != 3 {
		t.Fatalf("expected transient code to win over business keywords, got %+v", got)
	}
}

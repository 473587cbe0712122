// Package retry decides whether a failed unit of work should be re-attempted.
//
// Classification is a strict priority match: an explicit error code always
// wins over the HTTP status, which wins over message keywords, which win over
// the default. A business error is never retried because its message happens
// to contain a transient-sounding word, and a transient error is never
// swallowed because of a 4xx-looking wrapper.
package retry

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savorly/marketledger/internal/domain"
)

// Strategy is the classification result consumed by transactional callers.
type Strategy struct {
	Retryable  bool
	MaxRetries int
	Reason     string
	Code       domain.ErrorCode
}

// Default retry counts per class.
const (
	transientMaxRetries = 3
	unknownMaxRetries   = 1
)

// PostgreSQL error codes that indicate transient contention.
const (
	pgCodeDeadlock             = "40P01"
	pgCodeSerializationFailure = "40001"
	pgCodeLockNotAvailable     = "55P03"
	pgCodeQueryCanceled        = "57014"
	pgCodeAdminShutdown        = "57P01"
	pgCodeCrashShutdown        = "57P02"
	pgCodeCannotConnectNow     = "57P03"
)

// retryableCodes are the domain codes that mark transient infrastructure
// failures.
var retryableCodes = map[domain.ErrorCode]struct{}{
	domain.CodeDatabaseDeadlock: {},
	domain.CodeLockWaitTimeout:  {},
	domain.CodeConnectionError:  {},
	domain.CodeExternalService:  {},
}

// businessKeywords mark errors from collaborators that carry no structured
// code. The platform's surrounding services localize messages, so both the
// English and the original Chinese phrasings are matched.
var businessKeywords = []string{
	"insufficient balance",
	"not the owner",
	"not found",
	"already sold",
	"duplicate key value violates unique constraint",
	"余额不足", // insufficient balance
	"库存不足", // out of stock
	"不存在",  // does not exist
	"已被购买", // already bought
	"无权限",  // no permission
	"参数错误", // invalid parameter
	"重复提交", // duplicate submission
}

// transientKeywords mark infrastructure failures surfaced as plain errors.
var transientKeywords = []string{
	"deadlock",
	"lock wait timeout",
	"lock timeout",
	"serialization failure",
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"context deadline exceeded",
	"too many connections",
	"service unavailable",
}

// Classify maps err to a retry strategy. It is total: every error yields a
// decision, and the priority order (explicit code, HTTP status, message
// keywords, default) is part of the contract.
func Classify(err error) Strategy {
	if err == nil {
		return Strategy{Retryable: false, MaxRetries: 0, Reason: "no error"}
	}

	// 1. Explicit domain code.
	var derr *domain.Error
	if errors.As(err, &derr) {
		if _, ok := retryableCodes[derr.Code]; ok {
			return Strategy{
				Retryable:  true,
				MaxRetries: transientMaxRetries,
				Reason:     "transient infrastructure error",
				Code:       derr.Code,
			}
		}
		// Every other domain code is a business, validation or internal
		// consistency error; re-running cannot change the outcome.
		return Strategy{
			Retryable:  false,
			MaxRetries: 0,
			Reason:     "business error",
			Code:       derr.Code,
		}
	}

	// 2. Explicit PostgreSQL code.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeDeadlock:
			return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "database deadlock", Code: domain.CodeDatabaseDeadlock}
		case pgCodeSerializationFailure:
			return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "serialization failure", Code: domain.CodeDatabaseDeadlock}
		case pgCodeLockNotAvailable, pgCodeQueryCanceled:
			return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "lock wait timeout", Code: domain.CodeLockWaitTimeout}
		case pgCodeAdminShutdown, pgCodeCrashShutdown, pgCodeCannotConnectNow:
			return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "database unavailable", Code: domain.CodeConnectionError}
		}
		// Constraint violations and the rest of class 22/23 are data errors.
		return Strategy{Retryable: false, MaxRetries: 0, Reason: "non-transient database error"}
	}
	if pgconn.SafeToRetry(err) {
		return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "connection error before write", Code: domain.CodeConnectionError}
	}

	// 3. HTTP status from a collaborator response.
	if status := httpStatusOf(err); status >= 400 && status < 500 {
		return Strategy{Retryable: false, MaxRetries: 0, Reason: "client error status"}
	}

	// 4. Message keywords, business first.
	msg := strings.ToLower(err.Error())
	for _, kw := range businessKeywords {
		if strings.Contains(msg, kw) {
			return Strategy{Retryable: false, MaxRetries: 0, Reason: "business error keyword"}
		}
	}
	for _, kw := range transientKeywords {
		if strings.Contains(msg, kw) {
			return Strategy{Retryable: true, MaxRetries: transientMaxRetries, Reason: "transient error keyword", Code: domain.CodeConnectionError}
		}
	}

	// 5. Unknown: a single conservative retry tolerates one flaky failure
	// without masking real bugs behind repeated attempts.
	return Strategy{Retryable: true, MaxRetries: unknownMaxRetries, Reason: "unknown error"}
}

// httpStatusOf extracts an HTTP status from errors that carry one.
func httpStatusOf(err error) int {
	var coded interface{ HTTPStatusCode() int }
	if errors.As(err, &coded) {
		return coded.HTTPStatusCode()
	}
	return 0
}

package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable identifier for an error condition.
// The set of codes is closed: every error the core produces carries exactly
// one of these, which is what makes retry classification a total match
// instead of message sniffing.
type ErrorCode string

// Business and validation errors. Expected, user-facing outcomes; never retried.
const (
	CodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	CodeInsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	CodeAccountNotFound      ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeBalanceNotFound      ErrorCode = "BALANCE_NOT_FOUND"
	CodeItemNotFound         ErrorCode = "ITEM_NOT_FOUND"
	CodeListingNotFound      ErrorCode = "LISTING_NOT_FOUND"
	CodeOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	CodeNotOwner             ErrorCode = "NOT_OWNER"
	CodeSelfTrade            ErrorCode = "SELF_TRADE"
	CodeInvalidItemStatus    ErrorCode = "INVALID_ITEM_STATUS"
	CodeInvalidListingStatus ErrorCode = "INVALID_LISTING_STATUS"
	CodeInvalidOrderStatus   ErrorCode = "INVALID_ORDER_STATUS"
	CodeAssetNotTradable     ErrorCode = "ASSET_NOT_TRADABLE"
	CodeIdempotencyConflict  ErrorCode = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyRequired  ErrorCode = "IDEMPOTENCY_KEY_REQUIRED"
	CodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	CodeOperatorRequired     ErrorCode = "OPERATOR_REQUIRED"
)

// Internal consistency errors. Never retried: they mean a ledger invariant
// has already been violated upstream and the fix is reconciliation, not a
// re-attempt.
const (
	CodeFrozenInconsistency ErrorCode = "FROZEN_INCONSISTENCY"
)

// Transient infrastructure errors. Retryable with backoff.
const (
	CodeDatabaseDeadlock ErrorCode = "DATABASE_DEADLOCK"
	CodeLockWaitTimeout  ErrorCode = "LOCK_WAIT_TIMEOUT"
	CodeConnectionError  ErrorCode = "CONNECTION_ERROR"
	CodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Error is the structured error type carried across the core. HTTPStatus is
// the status a collaborator surface should map the error to; it also feeds
// the retry classifier (4xx is never retried).
type Error struct {
	Code       ErrorCode
	HTTPStatus int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by code, so wrapped or re-messaged copies still compare
// equal to the sentinels below under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message,
// keeping code and status.
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{
		Code:       e.Code,
		HTTPStatus: e.HTTPStatus,
		Message:    fmt.Sprintf(format, args...),
	}
}

var (
	ErrInvalidAmount        = &Error{Code: CodeInvalidAmount, HTTPStatus: http.StatusBadRequest, Message: "amount must be positive"}
	ErrInsufficientBalance  = &Error{Code: CodeInsufficientBalance, HTTPStatus: http.StatusUnprocessableEntity, Message: "insufficient available balance"}
	ErrAccountNotFound      = &Error{Code: CodeAccountNotFound, HTTPStatus: http.StatusNotFound, Message: "account not found"}
	ErrBalanceNotFound      = &Error{Code: CodeBalanceNotFound, HTTPStatus: http.StatusNotFound, Message: "asset balance not found"}
	ErrItemNotFound         = &Error{Code: CodeItemNotFound, HTTPStatus: http.StatusNotFound, Message: "item not found"}
	ErrListingNotFound      = &Error{Code: CodeListingNotFound, HTTPStatus: http.StatusNotFound, Message: "listing not found"}
	ErrOrderNotFound        = &Error{Code: CodeOrderNotFound, HTTPStatus: http.StatusNotFound, Message: "order not found"}
	ErrNotOwner             = &Error{Code: CodeNotOwner, HTTPStatus: http.StatusForbidden, Message: "caller does not own the resource"}
	ErrSelfTrade            = &Error{Code: CodeSelfTrade, HTTPStatus: http.StatusBadRequest, Message: "cannot buy your own listing"}
	ErrInvalidItemStatus    = &Error{Code: CodeInvalidItemStatus, HTTPStatus: http.StatusConflict, Message: "item is not in a tradable status"}
	ErrInvalidListingStatus = &Error{Code: CodeInvalidListingStatus, HTTPStatus: http.StatusConflict, Message: "listing is not in the required status"}
	ErrInvalidOrderStatus   = &Error{Code: CodeInvalidOrderStatus, HTTPStatus: http.StatusConflict, Message: "order is not in the required status"}
	ErrAssetNotTradable     = &Error{Code: CodeAssetNotTradable, HTTPStatus: http.StatusUnprocessableEntity, Message: "asset is not tradable"}
	ErrIdempotencyConflict  = &Error{Code: CodeIdempotencyConflict, HTTPStatus: http.StatusConflict, Message: "idempotency key already used with different parameters"}
	ErrIdempotencyRequired  = &Error{Code: CodeIdempotencyRequired, HTTPStatus: http.StatusBadRequest, Message: "idempotency key is required"}
	ErrPermissionDenied     = &Error{Code: CodePermissionDenied, HTTPStatus: http.StatusForbidden, Message: "permission denied"}
	ErrOperatorRequired     = &Error{Code: CodeOperatorRequired, HTTPStatus: http.StatusBadRequest, Message: "operator id is required for non-dry-run cleanup"}

	ErrFrozenInconsistency = &Error{Code: CodeFrozenInconsistency, HTTPStatus: http.StatusInternalServerError, Message: "frozen amount would go negative"}

	ErrDatabaseDeadlock = &Error{Code: CodeDatabaseDeadlock, HTTPStatus: http.StatusServiceUnavailable, Message: "database deadlock detected"}
	ErrLockWaitTimeout  = &Error{Code: CodeLockWaitTimeout, HTTPStatus: http.StatusServiceUnavailable, Message: "lock wait timeout exceeded"}
	ErrConnectionError  = &Error{Code: CodeConnectionError, HTTPStatus: http.StatusServiceUnavailable, Message: "database connection error"}
	ErrExternalService  = &Error{Code: CodeExternalService, HTTPStatus: http.StatusBadGateway, Message: "external service error"}
)

package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrInsufficientBalance, ErrInsufficientBalance) {
		t.Error("sentinel must match itself")
	}
	if errors.Is(ErrInsufficientBalance, ErrInvalidAmount) {
		t.Error("different codes must not match")
	}

	// A re-messaged copy still matches its sentinel.
	detailed := ErrInsufficientBalance.WithMessage("account %s needs %s more", "acc-1", "10")
	if !errors.Is(detailed, ErrInsufficientBalance) {
		t.Error("WithMessage copy must match the sentinel")
	}

	// So does a wrapped one.
	wrapped := fmt.Errorf("freezing payment: %w", detailed)
	if !errors.Is(wrapped, ErrInsufficientBalance) {
		t.Error("wrapped copy must match the sentinel")
	}
}

func TestError_WithMessage(t *testing.T) {
	derr := ErrListingNotFound.WithMessage("listing %s is gone", "l-1")

	if derr.Code != CodeListingNotFound {
		t.Errorf("code changed: %s", derr.Code)
	}
	if derr.HTTPStatus != http.StatusNotFound {
		t.Errorf("status changed: %d", derr.HTTPStatus)
	}
	if derr.Message != "listing l-1 is gone" {
		t.Errorf("message = %q", derr.Message)
	}

	// The sentinel itself is untouched.
	if ErrListingNotFound.Message != "listing not found" {
		t.Errorf("sentinel mutated: %q", ErrListingNotFound.Message)
	}
}

func TestError_ErrorString(t *testing.T) {
	got := ErrSelfTrade.Error()
	want := "SELF_TRADE: cannot buy your own listing"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

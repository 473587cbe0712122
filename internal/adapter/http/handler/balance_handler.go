package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/savorly/marketledger/internal/adapter/http/dto"
	"github.com/savorly/marketledger/internal/domain"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	GetBalance(ctx context.Context, accountID, assetCode string) (*domain.AssetBalance, error)
	GetAllBalances(ctx context.Context, accountID string) ([]*domain.AssetBalance, error)
	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]*domain.AssetTransaction, error)
}

// BalanceHandler handles balance-related HTTP requests.
type BalanceHandler struct {
	ledgerUC BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerUC BalanceService) *BalanceHandler {
	return &BalanceHandler{ledgerUC: ledgerUC}
}

// List returns every balance held by an account.
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	balances, err := h.ledgerUC.GetAllBalances(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(balances))
}

// Get returns one (account, asset) balance. Absent rows read as zero.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	assetCode := chi.URLParam(r, "asset")
	if accountID == "" || assetCode == "" {
		writeError(w, http.StatusBadRequest, "missing account ID or asset code", "")
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID, assetCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ListTransactions returns the account's ledger entries, newest first.
func (h *BalanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.ledgerUC.ListTransactions(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/savorly/marketledger/internal/adapter/http/dto"
	"github.com/savorly/marketledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	DetectOrphanFrozen(ctx context.Context, filter usecase.OrphanFilter) (*usecase.OrphanReport, error)
	CleanupOrphanFrozen(ctx context.Context, input usecase.CleanupInput) (*usecase.CleanupResult, error)
	GetOrphanFrozenStats(ctx context.Context) (*usecase.OrphanReport, error)
}

// ReconciliationHandler handles orphan frozen balance operations. These are
// operator endpoints, not part of the trading surface.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Detect runs an orphan detection pass and returns the full report.
func (h *ReconciliationHandler) Detect(w http.ResponseWriter, r *http.Request) {
	filter := usecase.OrphanFilter{
		AccountID: r.URL.Query().Get("account_id"),
		AssetCode: r.URL.Query().Get("asset_code"),
		Limit:     parseIntQuery(r, "limit", 0),
	}

	report, err := h.reconUC.DetectOrphanFrozen(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrphanReportFromUseCase(report))
}

// Cleanup releases orphan frozen balances. Defaults to dry-run; a real run
// must carry an operator id.
func (h *ReconciliationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req dto.CleanupOrphansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.reconUC.CleanupOrphanFrozen(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CleanupFromUseCase(result))
}

// Stats returns an item-free summary of the current orphan situation.
func (h *ReconciliationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GetOrphanFrozenStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrphanReportFromUseCase(report))
}

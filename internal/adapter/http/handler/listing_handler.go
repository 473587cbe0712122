package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/savorly/marketledger/internal/adapter/http/dto"
	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

// ListingService defines the behavior needed by ListingHandler.
type ListingService interface {
	CreateListing(ctx context.Context, input usecase.CreateListingInput) (*usecase.CreateListingResult, error)
	WithdrawListing(ctx context.Context, listingID, sellerAccountID string) (*domain.Listing, error)
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)
	ListBySeller(ctx context.Context, sellerAccountID string, limit, offset int) ([]*domain.Listing, error)
}

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	listingUC ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingUC ListingService) *ListingHandler {
	return &ListingHandler{listingUC: listingUC}
}

// Create puts an asset amount or item up for sale.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.listingUC.CreateListing(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := dto.ListingFromDomain(result.Listing)
	resp.IsDuplicate = result.IsDuplicate
	status := http.StatusCreated
	if result.IsDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// Withdraw takes a listing off sale and releases the reservation.
func (h *ListingHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing listing ID", "")
		return
	}

	var req dto.WithdrawListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	listing, err := h.listingUC.WithdrawListing(r.Context(), id, req.SellerAccountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListingFromDomain(listing))
}

// Get retrieves a listing by ID.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing listing ID", "")
		return
	}

	listing, err := h.listingUC.GetListing(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListingFromDomain(listing))
}

// ListBySeller lists a seller's listings.
func (h *ListingHandler) ListBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID := chi.URLParam(r, "id")
	if sellerID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	listings, err := h.listingUC.ListBySeller(r.Context(), sellerID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListingsFromDomain(listings))
}

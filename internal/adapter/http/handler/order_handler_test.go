package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/savorly/marketledger/internal/adapter/http/dto"
	"github.com/savorly/marketledger/internal/domain"
	"github.com/savorly/marketledger/internal/usecase"
)

type orderServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error)
	settleFn func(ctx context.Context, orderID string) (*domain.Order, error)
	cancelFn func(ctx context.Context, orderID string) (*domain.Order, error)
	getFn    func(ctx context.Context, orderID string) (*domain.Order, error)
	listFn   func(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error)
}

func (s *orderServiceStub) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
	return s.createFn(ctx, input)
}

func (s *orderServiceStub) SettleOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.settleFn(ctx, orderID)
}

func (s *orderServiceStub) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.cancelFn(ctx, orderID)
}

func (s *orderServiceStub) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.getFn(ctx, orderID)
}

func (s *orderServiceStub) ListByBuyer(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error) {
	return s.listFn(ctx, buyerAccountID, limit, offset)
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:             "order-1",
		ListingID:      "list-1",
		BuyerAccountID: "buyer-1",
		Status:         status,
	}
}

func TestOrderHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateOrderInput
	handler := NewOrderHandler(&orderServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
			captured = input
			return &usecase.CreateOrderResult{Order: sampleOrder(domain.OrderStatusFrozen)}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateOrderRequest{
		ListingID:      "list-1",
		BuyerAccountID: "buyer-1",
		IdempotencyKey: "key-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ListingID != "list-1" || captured.IdempotencyKey != "key-1" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.OrderStatusFrozen) {
		t.Fatalf("expected frozen status, got %s", resp.Status)
	}
}

func TestOrderHandler_Create_ListingAlreadyLocked(t *testing.T) {
	handler := NewOrderHandler(&orderServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
			return nil, domain.ErrInvalidListingStatus.WithMessage("listing list-1 is locked, not on_sale")
		},
	})

	body, _ := json.Marshal(dto.CreateOrderRequest{ListingID: "list-1", IdempotencyKey: "key-1"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when another buyer won, got %d", rec.Code)
	}
}

func TestOrderHandler_Create_Duplicate(t *testing.T) {
	handler := NewOrderHandler(&orderServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderResult, error) {
			return &usecase.CreateOrderResult{Order: sampleOrder(domain.OrderStatusFrozen), IsDuplicate: true}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateOrderRequest{ListingID: "list-1", IdempotencyKey: "key-1"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a replay, got %d", rec.Code)
	}
}

func TestOrderHandler_Settle(t *testing.T) {
	handler := NewOrderHandler(&orderServiceStub{
		settleFn: func(ctx context.Context, orderID string) (*domain.Order, error) {
			if orderID != "order-1" {
				t.Fatalf("expected order-1, got %s", orderID)
			}
			return sampleOrder(domain.OrderStatusSettled), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/settle", nil)
	req = setChiURLParam(req, "id", "order-1")
	rec := httptest.NewRecorder()

	handler.Settle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.OrderStatusSettled) {
		t.Fatalf("expected settled status, got %s", resp.Status)
	}
}

func TestOrderHandler_Cancel_InvalidStatus(t *testing.T) {
	handler := NewOrderHandler(&orderServiceStub{
		cancelFn: func(ctx context.Context, orderID string) (*domain.Order, error) {
			return nil, domain.ErrInvalidOrderStatus
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/cancel", nil)
	req = setChiURLParam(req, "id", "order-1")
	rec := httptest.NewRecorder()

	handler.Cancel(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestOrderHandler_ListByBuyer(t *testing.T) {
	handler := NewOrderHandler(&orderServiceStub{
		listFn: func(ctx context.Context, buyerAccountID string, limit, offset int) ([]*domain.Order, error) {
			if buyerAccountID != "buyer-1" {
				t.Fatalf("expected buyer-1, got %s", buyerAccountID)
			}
			return []*domain.Order{sampleOrder(domain.OrderStatusFrozen), sampleOrder(domain.OrderStatusSettled)}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/buyer-1/orders", nil)
	req = setChiURLParam(req, "id", "buyer-1")
	rec := httptest.NewRecorder()

	handler.ListByBuyer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(resp))
	}
}

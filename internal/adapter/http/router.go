package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/savorly/marketledger/internal/adapter/http/handler"
	"github.com/savorly/marketledger/internal/adapter/http/middleware"
	"github.com/savorly/marketledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BalanceHandler        *handler.BalanceHandler
	ListingHandler        *handler.ListingHandler
	OrderHandler          *handler.OrderHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/balances", cfg.BalanceHandler.List)
			r.Get("/balances/{asset}", cfg.BalanceHandler.Get)
			r.Get("/transactions", cfg.BalanceHandler.ListTransactions)
			r.Get("/listings", cfg.ListingHandler.ListBySeller)
			r.Get("/orders", cfg.OrderHandler.ListByBuyer)
		})

		// Listings
		r.Route("/listings", func(r chi.Router) {
			r.Post("/", cfg.ListingHandler.Create)
			r.Get("/{id}", cfg.ListingHandler.Get)
			r.Post("/{id}/withdraw", cfg.ListingHandler.Withdraw)
		})

		// Orders
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", cfg.OrderHandler.Create)
			r.Get("/{id}", cfg.OrderHandler.Get)
			r.Post("/{id}/settle", cfg.OrderHandler.Settle)
			r.Post("/{id}/cancel", cfg.OrderHandler.Cancel)
		})

		// Operator endpoints
		r.Route("/admin/orphans", func(r chi.Router) {
			r.Get("/", cfg.ReconciliationHandler.Detect)
			r.Get("/stats", cfg.ReconciliationHandler.Stats)
			r.Post("/cleanup", cfg.ReconciliationHandler.Cleanup)
		})
	})

	return r
}

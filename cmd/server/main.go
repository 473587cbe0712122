package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/savorly/marketledger/internal/adapter/http"
	"github.com/savorly/marketledger/internal/adapter/http/handler"
	postgresRepo "github.com/savorly/marketledger/internal/adapter/repository/postgres"
	redisRepo "github.com/savorly/marketledger/internal/adapter/repository/redis"
	"github.com/savorly/marketledger/internal/infrastructure/config"
	"github.com/savorly/marketledger/internal/infrastructure/logger"
	"github.com/savorly/marketledger/internal/infrastructure/metrics"
	"github.com/savorly/marketledger/internal/infrastructure/postgres"
	"github.com/savorly/marketledger/internal/infrastructure/redis"
	"github.com/savorly/marketledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	txnRepo := postgresRepo.NewAssetTransactionRepository(pool)
	listingRepo := postgresRepo.NewListingRepository(pool)
	orderRepo := postgresRepo.NewOrderRepository(pool)
	itemRepo := postgresRepo.NewItemRepository(pool)
	assetRepo := postgresRepo.NewAssetRepository(pool)
	reconRepo := postgresRepo.NewReconciliationRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	txRunner := postgresRepo.NewTxRunner(txManager, cfg.RetryInitialInterval, cfg.RetryMaxInterval, m, appLogger)

	// Initialize use cases
	catalog := usecase.NewAssetCatalog(assetRepo, cache, cfg.CatalogRefreshTTL, appLogger)
	if err := catalog.Refresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load asset catalog")
	}
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, balanceRepo, txnRepo, idGen, m, appLogger)
	listingUC := usecase.NewListingUseCase(txRunner, ledgerUC, listingRepo, itemRepo, catalog, idGen, m, appLogger)
	orderUC := usecase.NewOrderUseCase(txRunner, ledgerUC, listingRepo, orderRepo, itemRepo, idGen, m, appLogger)
	reconUC := usecase.NewReconciliationUseCase(txRunner, ledgerUC, reconRepo, balanceRepo, idGen, m, appLogger)

	// Initialize handlers
	balanceHandler := handler.NewBalanceHandler(ledgerUC)
	listingHandler := handler.NewListingHandler(listingUC)
	orderHandler := handler.NewOrderHandler(orderUC)
	reconHandler := handler.NewReconciliationHandler(reconUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BalanceHandler:        balanceHandler,
		ListingHandler:        listingHandler,
		OrderHandler:          orderHandler,
		ReconciliationHandler: reconHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		Logger:                appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Background jobs
	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	if cfg.OrphanCheckEnabled {
		go runOrphanCheck(jobCtx, reconUC, cfg.OrphanCheckInterval, appLogger)
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopJobs()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

// runOrphanCheck periodically refreshes the orphan frozen gauges. It only
// detects; releasing orphans stays a deliberate operator action.
func runOrphanCheck(ctx context.Context, reconUC *usecase.ReconciliationUseCase, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := reconUC.GetOrphanFrozenStats(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("scheduled orphan check failed")
				continue
			}
			if report.OrphanCount > 0 {
				logger.Warn().
					Int("orphan_count", report.OrphanCount).
					Str("total_amount", report.TotalOrphanAmount.String()).
					Msg("orphan frozen balances detected")
			}
		}
	}
}

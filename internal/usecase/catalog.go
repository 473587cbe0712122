package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/savorly/marketledger/internal/domain"
)

const catalogCacheKey = "asset_catalog"

// AssetCatalog is an explicitly owned snapshot of the asset table with a TTL
// refresh policy. Callers get a consistent view between refreshes instead of
// per-call database reads, and the snapshot is injected rather than living
// in ambient global state.
type AssetCatalog struct {
	assetRepo AssetRepository
	cache     Cache // optional second level, survives brief database outages
	ttl       time.Duration
	logger    zerolog.Logger

	mu        sync.RWMutex
	snapshot  map[string]*domain.Asset
	refreshed time.Time
}

// NewAssetCatalog creates a catalog. cache may be nil.
func NewAssetCatalog(assetRepo AssetRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *AssetCatalog {
	return &AssetCatalog{
		assetRepo: assetRepo,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}
}

// IsTradable reports whether the asset exists and is marked tradable.
func (c *AssetCatalog) IsTradable(ctx context.Context, code string) (bool, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	asset, ok := snap[code]
	return ok && asset.Tradable, nil
}

// Refresh reloads the snapshot from the asset table and updates the cache.
func (c *AssetCatalog) Refresh(ctx context.Context) error {
	assets, err := c.assetRepo.List(ctx)
	if err != nil {
		if cached := c.loadFromCache(ctx); cached != nil {
			c.logger.Warn().Err(err).Msg("asset catalog refresh failed, serving cached snapshot")
			c.install(cached)
			return nil
		}
		return err
	}

	snap := make(map[string]*domain.Asset, len(assets))
	for _, a := range assets {
		snap[a.Code] = a
	}
	c.install(snap)
	c.storeToCache(ctx, assets)
	return nil
}

// current returns the snapshot, refreshing it when stale.
func (c *AssetCatalog) current(ctx context.Context) (map[string]*domain.Asset, error) {
	c.mu.RLock()
	snap, refreshed := c.snapshot, c.refreshed
	c.mu.RUnlock()

	if snap != nil && time.Since(refreshed) < c.ttl {
		return snap, nil
	}
	if err := c.Refresh(ctx); err != nil {
		// A stale snapshot beats a hard failure on the trading path.
		if snap != nil {
			return snap, nil
		}
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, nil
}

func (c *AssetCatalog) install(snap map[string]*domain.Asset) {
	c.mu.Lock()
	c.snapshot = snap
	c.refreshed = time.Now()
	c.mu.Unlock()
}

func (c *AssetCatalog) loadFromCache(ctx context.Context) map[string]*domain.Asset {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, catalogCacheKey)
	if err != nil || raw == nil {
		return nil
	}
	var assets []*domain.Asset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil
	}
	snap := make(map[string]*domain.Asset, len(assets))
	for _, a := range assets {
		snap[a.Code] = a
	}
	return snap
}

func (c *AssetCatalog) storeToCache(ctx context.Context, assets []*domain.Asset) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(assets)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, catalogCacheKey, raw, c.ttl*4); err != nil {
		c.logger.Debug().Err(err).Msg("asset catalog cache write failed")
	}
}

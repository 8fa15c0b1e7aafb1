package l1

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"go-feed-cache/internal/config"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/metrics"
	"go-feed-cache/internal/scheduler"
	"go-feed-cache/internal/store"
)

// Ensure BigCache implements interfaces.Store
var _ interfaces.Store = (*BigCache)(nil)

const metricsInterval = 30 * time.Second

// BigCache implements the L1 store using BigCache
type BigCache struct {
	cache            *bigcache.BigCache
	logger           *zap.Logger
	metricsScheduler *scheduler.Scheduler
}

// NewBigCache creates a new BigCache instance. Entries older than maxEntryAge
// are evicted by BigCache itself; zero keeps the library default of 10 minutes.
func NewBigCache(bigcacheCfg *config.BigCacheConfig, maxEntryAge time.Duration, logger *zap.Logger) (*BigCache, error) {
	if maxEntryAge <= 0 {
		maxEntryAge = 10 * time.Minute
	}

	cfg := bigcache.DefaultConfig(maxEntryAge)
	cfg.HardMaxCacheSize = bigcacheCfg.Size // Size in MB
	if bigcacheCfg.Shards > 0 {
		cfg.Shards = bigcacheCfg.Shards
	}
	cfg.Verbose = false
	cfg.MaxEntrySize = 1024 * 1024 // 1MB max entry size

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	bc := &BigCache{
		cache:  cache,
		logger: logger,
	}

	// Start periodic metrics collection
	bc.startMetricsCollection()

	return bc, nil
}

// Get retrieves value from the cache
func (bc *BigCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := bc.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordStoreError("l1", "get")
		return nil, false, store.Unavailable("bigcache get", err)
	}
	return data, true, nil
}

// Set stores value in the cache
func (bc *BigCache) Set(ctx context.Context, key string, val []byte) error {
	if err := bc.cache.Set(key, val); err != nil {
		bc.logger.Error("Failed to set cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("l1", "set")
		return store.Unavailable("bigcache set", err)
	}
	return nil
}

// ScanPrefix walks every shard and collects keys starting with prefix
func (bc *BigCache) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	it := bc.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			// The entry was evicted while iterating
			continue
		}
		if strings.HasPrefix(entry.Key(), prefix) {
			keys = append(keys, entry.Key())
		}
	}
	return keys, nil
}

// Delete removes keys from the cache; missing keys are ignored
func (bc *BigCache) Delete(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := bc.cache.Delete(key)
		if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			metrics.RecordStoreError("l1", "delete")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return store.Unavailable("bigcache delete", errors.Join(errs...))
	}
	return nil
}

// Close closes the cache
func (bc *BigCache) Close() error {
	// Stop metrics collection
	bc.stopMetricsCollection()

	return bc.cache.Close()
}

// GetStats returns cache statistics for metrics
func (bc *BigCache) GetStats() (capacity, keys int64) {
	return int64(bc.cache.Capacity()), int64(bc.cache.Len())
}

// startMetricsCollection starts periodic metrics collection
func (bc *BigCache) startMetricsCollection() {
	bc.metricsScheduler = scheduler.New(metricsInterval, bc.updateMetrics)
	bc.metricsScheduler.Start()

	// Initial collection
	bc.updateMetrics()

	bc.logger.Debug("Started L1 cache metrics collection")
}

// stopMetricsCollection stops periodic metrics collection
func (bc *BigCache) stopMetricsCollection() {
	if bc.metricsScheduler != nil {
		bc.metricsScheduler.Stop()
		bc.logger.Debug("Stopped L1 cache metrics collection")
	}
}

// updateMetrics updates cache metrics
func (bc *BigCache) updateMetrics() {
	capacity, keys := bc.GetStats()
	metrics.UpdateL1CacheCapacity(capacity)
	metrics.UpdateCacheKeys("l1", keys)
}

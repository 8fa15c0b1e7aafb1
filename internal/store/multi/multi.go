package multi

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/metrics"
)

// Ensure MultiStore implements interfaces.Store
var _ interfaces.Store = (*MultiStore)(nil)

// MultiStore implements a composite store over ordered levels (L1 first).
// Reads try each level in order, writes and deletes go to every level.
type MultiStore struct {
	levels            []interfaces.Store
	logger            *zap.Logger
	enablePropagation bool
}

// NewMultiStore creates a new MultiStore instance with provided levels.
// With enablePropagation, a hit on a lower level is copied into the levels above it.
func NewMultiStore(levels []interfaces.Store, logger *zap.Logger, enablePropagation bool) *MultiStore {
	return &MultiStore{
		levels:            levels,
		logger:            logger,
		enablePropagation: enablePropagation,
	}
}

// Get returns the value from the first level that has the key.
// An error is returned only when no level could be consulted.
func (ms *MultiStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	defer metrics.TimeStoreOperation("get")()

	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for get operation", zap.String("key", key))
		return nil, false, nil
	}

	var errs []error
	for i, level := range ms.levels {
		val, found, err := level.Get(ctx, key)
		if err != nil {
			ms.logger.Debug("Store level get failed", zap.Int("level", i), zap.String("key", key), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if found {
			if ms.enablePropagation && i > 0 {
				ms.propagate(ctx, key, val, i)
			}
			return val, true, nil
		}
	}

	if len(errs) == len(ms.levels) {
		return nil, false, errors.Join(errs...)
	}
	return nil, false, nil
}

// propagate copies a value found at level found into every level above it
func (ms *MultiStore) propagate(ctx context.Context, key string, val []byte, found int) {
	for i := 0; i < found; i++ {
		if err := ms.levels[i].Set(ctx, key, val); err != nil {
			ms.logger.Warn("Failed to propagate entry to upper level",
				zap.Int("level", i), zap.String("key", key), zap.Error(err))
		}
	}
}

// Set stores value in every level
func (ms *MultiStore) Set(ctx context.Context, key string, val []byte) error {
	defer metrics.TimeStoreOperation("set")()

	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for set operation", zap.String("key", key))
		return nil
	}

	var errs []error
	for _, level := range ms.levels {
		if err := level.Set(ctx, key, val); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScanPrefix returns the union of matching keys across levels
func (ms *MultiStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	defer metrics.TimeStoreOperation("scan")()

	seen := make(map[string]struct{})
	var keys []string
	var errs []error

	for _, level := range ms.levels {
		// A failing level may still return the keys it saw before the error
		levelKeys, err := level.ScanPrefix(ctx, prefix)
		if err != nil {
			errs = append(errs, err)
		}
		for _, key := range levelKeys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys, errors.Join(errs...)
}

// Delete removes keys from every level
func (ms *MultiStore) Delete(ctx context.Context, keys ...string) error {
	defer metrics.TimeStoreOperation("delete")()

	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for delete operation", zap.Strings("keys", keys))
		return nil
	}

	var errs []error
	for _, level := range ms.levels {
		if err := level.Delete(ctx, keys...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetLevelCount returns the number of levels in the multi-store
func (ms *MultiStore) GetLevelCount() int {
	return len(ms.levels)
}

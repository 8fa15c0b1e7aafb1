// Package orchestrator serves resources through the time-windowed cache.
//
// A request resolves the resource's current window key. If the store holds a
// readable entry under that key it is returned; otherwise every key of the
// resource is swept, the producer runs, and its JSON is stored under the key.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-feed-cache/internal/freshness"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/metrics"
	"go-feed-cache/internal/models"
	"go-feed-cache/internal/resources"
)

// Ensure Service implements interfaces.ResourceService
var _ interfaces.ResourceService = (*Service)(nil)

// Service handles cache lookups and recomputation for registered resources
type Service struct {
	policy   *freshness.Policy
	store    interfaces.Store
	registry *resources.Registry
	clock    clockwork.Clock
	group    *singleflight.Group // nil when misses are not coalesced
	logger   *zap.Logger
}

// NewService creates a new orchestrator. A nil clock uses the real clock.
func NewService(
	policy *freshness.Policy,
	store interfaces.Store,
	registry *resources.Registry,
	clock clockwork.Clock,
	coalesceMisses bool,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Service{
		policy:   policy,
		store:    store,
		registry: registry,
		clock:    clock,
		logger:   logger,
	}
	if coalesceMisses {
		s.group = &singleflight.Group{}
	}
	return s
}

// Get returns the envelope for resource. With forceRefresh the cached entry
// is ignored and the value recomputed.
func (s *Service) Get(ctx context.Context, resource string, forceRefresh bool) (*models.Envelope, error) {
	entry, stamp, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}

	metrics.RecordRequest(resource)

	if !forceRefresh {
		if cached, ok := s.lookup(ctx, resource, stamp.Key); ok {
			metrics.RecordHit(resource)
			return &models.Envelope{
				LastUpdated: stamp.Label,
				Result:      cached,
				Status:      models.CacheStatusHit,
				Key:         stamp.Key,
			}, nil
		}
	} else {
		metrics.RecordMiss(resource, "forced")
	}

	result, err := s.recompute(ctx, entry, stamp.Key)
	if err != nil {
		return nil, err
	}

	status := models.CacheStatusMiss
	if forceRefresh {
		status = models.CacheStatusRefresh
	}
	return &models.Envelope{
		LastUpdated: stamp.Label,
		Result:      result,
		Status:      status,
		Key:         stamp.Key,
	}, nil
}

// Warm recomputes resource for the current window regardless of what is cached
func (s *Service) Warm(ctx context.Context, resource string) error {
	entry, stamp, err := s.resolve(resource)
	if err != nil {
		return err
	}

	_, err = s.recompute(ctx, entry, stamp.Key)
	metrics.RecordWarm(resource, err)
	return err
}

// Resources returns registered resource names, sorted
func (s *Service) Resources() []string {
	return s.registry.Names()
}

func (s *Service) resolve(resource string) (resources.Entry, freshness.Stamp, error) {
	entry, ok := s.registry.Lookup(resource)
	if !ok {
		return resources.Entry{}, freshness.Stamp{}, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}

	stamp, err := s.policy.Resolve(resource, entry.Rule, s.clock.Now())
	if err != nil {
		return resources.Entry{}, freshness.Stamp{}, fmt.Errorf("failed to resolve key: %w", err)
	}
	return entry, stamp, nil
}

// lookup reads key from the store. Store failures and corrupt entries are
// logged and reported as a miss.
func (s *Service) lookup(ctx context.Context, resource, key string) (json.RawMessage, bool) {
	data, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Store read failed, recomputing",
			zap.String("resource", resource),
			zap.String("key", key),
			zap.Error(err))
		metrics.RecordMiss(resource, "unavailable")
		return nil, false
	}
	if !found {
		metrics.RecordMiss(resource, "absent")
		return nil, false
	}
	if !json.Valid(data) {
		s.logger.Warn("Cached entry is not valid JSON, recomputing",
			zap.String("resource", resource),
			zap.String("key", key),
			zap.Error(ErrSerialization))
		metrics.RecordMiss(resource, "corrupt")
		return nil, false
	}
	return json.RawMessage(data), true
}

// recompute runs the miss path, sharing one execution per key when
// coalescing is enabled
func (s *Service) recompute(ctx context.Context, entry resources.Entry, key string) (json.RawMessage, error) {
	if s.group == nil {
		return s.refresh(ctx, entry, key)
	}

	// Waiters share the leader's call, so one client going away must not cancel it
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.refresh(shareCtx, entry, key)
	})
	if shared {
		metrics.RecordSharedProduction(entry.Name)
	}
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// refresh sweeps stale keys, produces the current value and stores it
func (s *Service) refresh(ctx context.Context, entry resources.Entry, key string) (json.RawMessage, error) {
	swept := s.sweep(ctx, entry.Name)

	observe := metrics.TimeProducer(entry.Name)
	value, err := entry.Producer.Produce(ctx)
	observe(err)
	if err != nil {
		metrics.RecordProducerError(entry.Name)
		s.logger.Error("Producer failed",
			zap.String("resource", entry.Name),
			zap.String("key", key),
			zap.Error(err))
		return nil, &ProducerError{Resource: entry.Name, Err: err}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: resource %s: %v", ErrSerialization, entry.Name, err)
	}

	if err := s.store.Set(ctx, key, data); err != nil {
		s.logger.Warn("Failed to store recomputed value",
			zap.String("resource", entry.Name),
			zap.String("key", key),
			zap.Error(err))
	}

	s.logger.Info("Recomputed resource",
		zap.String("resource", entry.Name),
		zap.String("key", key),
		zap.Int("swept", swept),
		zap.String("size", humanize.Bytes(uint64(len(data)))))

	return json.RawMessage(data), nil
}

// sweep deletes every stored key of resource and returns how many were removed
func (s *Service) sweep(ctx context.Context, resource string) int {
	prefix := freshness.Prefix(resource)

	keys, err := s.store.ScanPrefix(ctx, prefix)
	if err != nil {
		s.logger.Warn("Failed to scan stale keys",
			zap.String("resource", resource),
			zap.String("prefix", prefix),
			zap.Error(err))
	}
	// A failed scan may still have returned a partial key list
	if len(keys) == 0 {
		return 0
	}

	if err := s.store.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Failed to delete stale keys",
			zap.String("resource", resource),
			zap.Strings("keys", keys),
			zap.Error(err))
		return 0
	}

	metrics.RecordSweep(resource, len(keys))
	return len(keys)
}

package l2

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-feed-cache/internal/config"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/metrics"
	"go-feed-cache/internal/store"
)

// Ensure KeyDBCache implements interfaces.Store
var _ interfaces.Store = (*KeyDBCache)(nil)

// KeyDBCache implements the L2 store using Redis/KeyDB
type KeyDBCache struct {
	client interfaces.KeyDbClient
	config *config.KeyDBConfig
	ttl    time.Duration
	logger *zap.Logger
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client.
// Entries are written with ttl as a safety expiry; zero means no expiry.
func NewKeyDBCache(cfg *config.KeyDBConfig, client interfaces.KeyDbClient, ttl time.Duration, logger *zap.Logger) *KeyDBCache {
	return &KeyDBCache{
		client: client,
		config: cfg,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves value from KeyDB
func (kc *KeyDBCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	data, err := kc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		kc.logger.Error("L2 cache get error", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("l2", "get")
		return nil, false, store.Unavailable("keydb get", err)
	}
	return data, true, nil
}

// Set stores value in KeyDB
func (kc *KeyDBCache) Set(ctx context.Context, key string, val []byte) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Set(ctx, key, val, kc.ttl).Err(); err != nil {
		kc.logger.Error("Failed to set L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("l2", "set")
		return store.Unavailable("keydb set", err)
	}
	return nil
}

// ScanPrefix walks the keyspace with SCAN MATCH prefix*
func (kc *KeyDBCache) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	match := escapeGlob(prefix) + "*"
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64

	for {
		page, next, err := kc.client.Scan(ctx, cursor, match, kc.config.ScanCount).Result()
		if err != nil {
			kc.logger.Error("L2 cache scan error", zap.String("prefix", prefix), zap.Error(err))
			metrics.RecordStoreError("l2", "scan")
			return keys, store.Unavailable("keydb scan", err)
		}
		// SCAN may return a key more than once
		for _, key := range page {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Delete removes keys from KeyDB
func (kc *KeyDBCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, keys...).Err(); err != nil {
		kc.logger.Error("Failed to delete L2 cache entries", zap.Strings("keys", keys), zap.Error(err))
		metrics.RecordStoreError("l2", "delete")
		return store.Unavailable("keydb delete", err)
	}
	return nil
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

package interfaces

import (
	"context"
)

//go:generate mockgen -package=mock -source=store.go -destination=mock/store.go

// Store is the key-value contract the orchestrator caches resource results in.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored bytes and whether the key exists. A non-nil error
	// means the store could not be consulted at all.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	// ScanPrefix lists every key starting with prefix, in no particular order
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

package noop

import (
	"context"

	"go-feed-cache/internal/interfaces"
)

// Ensure NoOpStore implements interfaces.Store
var _ interfaces.Store = (*NoOpStore)(nil)

// NoOpStore is a no-operation store for disabled or unreachable backends.
// Every lookup misses, so every request recomputes.
type NoOpStore struct{}

// NewNoOpStore creates a new no-operation store instance
func NewNoOpStore() interfaces.Store {
	return &NoOpStore{}
}

// Get always returns a miss
func (n *NoOpStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing
func (n *NoOpStore) Set(ctx context.Context, key string, val []byte) error {
	return nil
}

// ScanPrefix never finds anything
func (n *NoOpStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

// Delete does nothing
func (n *NoOpStore) Delete(ctx context.Context, keys ...string) error {
	return nil
}

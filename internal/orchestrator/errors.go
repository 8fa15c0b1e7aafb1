package orchestrator

import (
	"errors"
	"fmt"

	"go-feed-cache/internal/store"
)

var (
	// ErrUnknownResource is returned for names absent from the registry
	ErrUnknownResource = errors.New("unknown resource")
	// ErrSerialization marks values that cannot round-trip through JSON
	ErrSerialization = errors.New("serialization error")
	// ErrStoreUnavailable is the store failure the read path degrades on
	ErrStoreUnavailable = store.ErrUnavailable
)

// ProducerError wraps a failed upstream computation
type ProducerError struct {
	Resource string
	Err      error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer for %s failed: %v", e.Resource, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

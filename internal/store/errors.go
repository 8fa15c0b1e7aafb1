// Package store holds what the concrete key-value backends share.
package store

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks failures to reach a backend, as opposed to a missing key
var ErrUnavailable = errors.New("store unavailable")

// Unavailable wraps a backend failure with ErrUnavailable
func Unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

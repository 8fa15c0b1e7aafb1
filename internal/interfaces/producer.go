package interfaces

import "context"

//go:generate mockgen -package=mock -source=producer.go -destination=mock/producer.go

// Producer computes the current value of a resource from its upstream source.
// The returned value must be JSON-serializable.
type Producer interface {
	Produce(ctx context.Context) (any, error)
}

package interfaces

import (
	"context"

	"go-feed-cache/internal/models"
)

//go:generate mockgen -package=mock -source=resource_service.go -destination=mock/resource_service.go

// ResourceService serves cached resources to the HTTP layer and scheduler
type ResourceService interface {
	Get(ctx context.Context, resource string, forceRefresh bool) (*models.Envelope, error)
	Warm(ctx context.Context, resource string) error
	Resources() []string
}

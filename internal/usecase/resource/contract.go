package resource

import (
	"context"

	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
)

// Repository defines the storage contract for resources.
type Repository interface {
	Upsert(ctx context.Context, res domres.Resource) error
	Get(ctx context.Context, resourceType, id string) (domres.Resource, error)
	Exists(ctx context.Context, resourceType, id string) (bool, error)
	Delete(ctx context.Context, resourceType, id string) error
}

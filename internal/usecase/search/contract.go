package search

import (
	"context"

	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
)

// ResourceLister reads all resources of a type for filtering.
type ResourceLister interface {
	List(ctx context.Context, resourceType string) ([]domres.Resource, error)
}

// Package resource implements SCIM resource CRUD with server-assigned
// identifiers and meta attributes.
package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// Service handles resource CRUD.
type Service struct {
	repo Repository

	now   func() time.Time
	newID func() (string, error)
}

// New creates a resource service.
func New(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		newID: func() (string, error) {
			id, err := uuid.NewV4()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// Create stores a new resource with a server-assigned ID and meta block.
func (s *Service) Create(ctx context.Context, resourceType string, doc value.Value) (domres.Resource, error) {
	id, err := s.newID()
	if err != nil {
		return domres.Resource{}, fmt.Errorf("generate id: %w", err)
	}

	now := s.now().UTC()
	doc = s.stamp(doc, resourceType, id, now, now)

	res, err := domres.New(id, resourceType, doc)
	if err != nil {
		return domres.Resource{}, err
	}
	if err := s.repo.Upsert(ctx, res); err != nil {
		return domres.Resource{}, fmt.Errorf("create resource: %w", err)
	}
	return res, nil
}

// Replace overwrites an existing resource, keeping its original
// creation timestamp.
func (s *Service) Replace(ctx context.Context, resourceType, id string, doc value.Value) (domres.Resource, error) {
	existing, err := s.repo.Get(ctx, resourceType, id)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("load resource: %w", err)
	}

	created := s.now().UTC()
	if prev := existing.Meta("created"); prev != "" {
		if t, err := time.Parse(time.RFC3339, prev); err == nil {
			created = t
		}
	}
	doc = s.stamp(doc, resourceType, id, created, s.now().UTC())

	res, err := domres.New(id, resourceType, doc)
	if err != nil {
		return domres.Resource{}, err
	}
	if err := s.repo.Upsert(ctx, res); err != nil {
		return domres.Resource{}, fmt.Errorf("replace resource: %w", err)
	}
	return res, nil
}

// Get returns a stored resource.
func (s *Service) Get(ctx context.Context, resourceType, id string) (domres.Resource, error) {
	res, err := s.repo.Get(ctx, resourceType, id)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

// Delete removes a stored resource.
func (s *Service) Delete(ctx context.Context, resourceType, id string) error {
	if err := s.repo.Delete(ctx, resourceType, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}

// stamp overrides the read-only id and meta attributes. Client-supplied
// values for either are discarded per RFC 7643 section 3.1.
func (s *Service) stamp(doc value.Value, resourceType, id string, created, modified time.Time) value.Value {
	version, _ := s.newID()
	meta := value.Object(
		value.F("resourceType", value.String(resourceType)),
		value.F("created", value.String(created.Format(time.RFC3339))),
		value.F("lastModified", value.String(modified.Format(time.RFC3339))),
		value.F("version", value.String(fmt.Sprintf("W/%q", version))),
		value.F("location", value.String(fmt.Sprintf("/v2/%s/%s", resourceType, id))),
	)
	return doc.WithField("id", value.String(id)).WithField("meta", meta)
}

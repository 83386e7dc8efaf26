// Package resource persists SCIM resources as JSON documents.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/scimd/internal/db"
	"github.com/kailas-cloud/scimd/internal/domain"
	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// store is the consumer interface for resource persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the resource and search use case repositories.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a resource repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Upsert stores a resource document under its type and ID.
func (r *Repo) Upsert(ctx context.Context, res domres.Resource) error {
	key := r.key(res.Type(), res.ID())
	data, err := res.Document().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal resource %s: %w", res.ID(), err)
	}
	if len(data) > domres.MaxDocumentSize {
		return fmt.Errorf("%w: document exceeds %d bytes", domain.ErrInvalidResource, domres.MaxDocumentSize)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a resource by type and ID.
func (r *Repo) Get(ctx context.Context, resourceType, id string) (domres.Resource, error) {
	key := r.key(resourceType, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domres.Resource{}, domain.ErrResourceNotFound
		}
		return domres.Resource{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	doc, err := parseJSONGetResult(raw)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return domres.Reconstruct(id, resourceType, doc), nil
}

// Exists reports whether a resource is stored.
func (r *Repo) Exists(ctx context.Context, resourceType, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.key(resourceType, id))
	if err != nil {
		return false, fmt.Errorf("check exists %s/%s: %w", resourceType, id, err)
	}
	return ok, nil
}

// Delete removes a resource.
func (r *Repo) Delete(ctx context.Context, resourceType, id string) error {
	key := r.key(resourceType, id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrResourceNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns every resource of a type, ordered by ID for stable
// pagination. SCAN returns keys in no defined order, so the keys are
// sorted before fetching.
func (r *Repo) List(ctx context.Context, resourceType string) ([]domres.Resource, error) {
	prefix := r.typePrefix(resourceType)
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", resourceType, err)
	}
	sort.Strings(keys)

	resources := make([]domres.Resource, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.JSONGet(ctx, key, "$")
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between SCAN and fetch
			}
			return nil, fmt.Errorf("json.get %s: %w", key, err)
		}
		doc, err := parseJSONGetResult(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		resources = append(resources, domres.Reconstruct(
			strings.TrimPrefix(key, prefix), resourceType, doc,
		))
	}
	return resources, nil
}

func (r *Repo) key(resourceType, id string) string {
	return r.typePrefix(resourceType) + id
}

func (r *Repo) typePrefix(resourceType string) string {
	return fmt.Sprintf("%sresources:%s:", r.keyPrefix, resourceType)
}

// parseJSONGetResult unwraps the JSONPath array envelope of a JSON.GET
// with a "$" path: `[{...}]` -> `{...}`.
func parseJSONGetResult(raw []byte) (value.Value, error) {
	v, err := value.Parse(raw)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsArray() {
		if v.Len() == 0 {
			return value.Value{}, fmt.Errorf("empty JSONPath result")
		}
		return v.Elements()[0], nil
	}
	return v, nil
}

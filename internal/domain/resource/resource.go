// Package resource defines the SCIM resource aggregate.
package resource

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/scimd/internal/domain"
	"github.com/kailas-cloud/scimd/internal/domain/value"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// MaxDocumentSize is the maximum encoded resource document size in bytes.
const MaxDocumentSize = 1 << 20 // 1MB

// Resource is a stored SCIM resource (immutable value object): an
// identifier, the resource type it belongs to, and the full JSON
// document including common attributes such as id and meta.
type Resource struct {
	id           string
	resourceType string
	doc          value.Value
}

// New validates and creates a Resource.
func New(id, resourceType string, doc value.Value) (Resource, error) {
	if id == "" {
		return Resource{}, fmt.Errorf("%w: resource ID is required", domain.ErrInvalidResource)
	}
	if len(id) > 256 {
		return Resource{}, fmt.Errorf("%w: resource ID too long (max 256)", domain.ErrInvalidResource)
	}
	if !idRegex.MatchString(id) {
		return Resource{}, fmt.Errorf(
			"%w: resource ID must be alphanumeric with dots, underscores and hyphens",
			domain.ErrInvalidResource,
		)
	}
	if resourceType == "" {
		return Resource{}, fmt.Errorf("%w: resource type is required", domain.ErrInvalidResource)
	}
	if !doc.IsObject() {
		return Resource{}, fmt.Errorf(
			"%w: resource document must be a JSON object, got %s", domain.ErrInvalidResource, doc.Kind(),
		)
	}
	return Resource{id: id, resourceType: resourceType, doc: doc}, nil
}

// Reconstruct creates a Resource without validation (storage hydration).
func Reconstruct(id, resourceType string, doc value.Value) Resource {
	return Resource{id: id, resourceType: resourceType, doc: doc}
}

// ID returns the resource identifier.
func (r Resource) ID() string { return r.id }

// Type returns the resource type name (e.g. "Users").
func (r Resource) Type() string { return r.resourceType }

// Document returns the full resource document.
func (r Resource) Document() value.Value { return r.doc }

// Meta reads a sub-attribute of the resource's meta object, or "" when
// unset. Used for version (ETag) and timestamp access without decoding.
func (r Resource) Meta(name string) string {
	meta, ok := r.doc.Field("meta")
	if !ok {
		return ""
	}
	v, ok := meta.Field(name)
	if !ok || !v.IsString() {
		return ""
	}
	return v.Str()
}

package domain

import (
	"errors"
)

var (
	// ErrResourceNotFound signals a missing resource.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrResourceTypeUnknown signals a resource type the server does not serve.
	ErrResourceTypeUnknown = errors.New("unknown resource type")
	// ErrInvalidResource signals a resource document that fails validation.
	ErrInvalidResource = errors.New("invalid resource")
)

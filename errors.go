package geobridge

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geobridge/attribute"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/geometry"
	"github.com/hupe1980/geobridge/internal/resource"
)

var (
	// ErrAllocationFailed is returned when a shared-memory segment cannot be created or mapped.
	ErrAllocationFailed = core.ErrAllocationFailed

	// ErrEngineCallFailed is returned when a session call fails.
	ErrEngineCallFailed = core.ErrEngineCallFailed

	// ErrPreconditionViolated is returned when an operation runs out of order.
	ErrPreconditionViolated = core.ErrPreconditionViolated

	// ErrOutOfOrder is returned when geometry sections are written out of declaration order.
	ErrOutOfOrder = geometry.ErrOutOfOrder

	// ErrNotFound is returned when the engine reports no such attribute.
	ErrNotFound = attribute.ErrNotFound

	// ErrMappedLimitExceeded is returned when a segment does not fit the shared-memory budget.
	ErrMappedLimitExceeded = resource.ErrMappedLimitExceeded

	// ErrClosed is returned when using a closed Bridge.
	ErrClosed = errors.New("bridge is closed")
)

// CommitError records which upload failed.
//
// The original underlying error can be accessed via errors.Unwrap, so
// errors.Is matches the sentinels above through it.
type CommitError struct {
	// Kind is "geometry", "volume", "volume_partial" or "layer".
	Kind       string
	Identifier string
	Key        string
	cause      error
}

func (e *CommitError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s commit %q: %v", e.Kind, e.Identifier, e.cause)
	}
	return fmt.Sprintf("%s commit %q (%s): %v", e.Kind, e.Identifier, e.Key, e.cause)
}

func (e *CommitError) Unwrap() error { return e.cause }

func commitError(kind, identifier, key string, err error) error {
	if err == nil {
		return nil
	}
	return &CommitError{Kind: kind, Identifier: identifier, Key: key, cause: err}
}

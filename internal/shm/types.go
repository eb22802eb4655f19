package shm

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/core"
)

var (
	// ErrReleased is returned when accessing a released mapping or a closed handle.
	ErrReleased = errors.New("shm: already released")
	// ErrInvalidSize is returned for non-positive segment sizes.
	ErrInvalidSize = errors.New("shm: invalid segment size")
	// ErrInvalidKey is returned for keys that cannot name a segment.
	ErrInvalidKey = errors.New("shm: invalid key")
)

// Budget accounts for mapped bytes. *resource.Controller satisfies it.
type Budget interface {
	AcquireMapped(bytes int64) error
	ReleaseMapped(bytes int64)
}

type noBudget struct{}

func (noBudget) AcquireMapped(int64) error { return nil }
func (noBudget) ReleaseMapped(int64)       {}

// Options configures a Registry.
type Options struct {
	// Scope prefixes every key built through the registry. Empty selects
	// ProcessScope.
	Scope string

	// Dir is where Unix segments live. Empty selects /dev/shm on Linux and
	// the temp directory elsewhere. Ignored on Windows.
	Dir string

	// Budget limits the bytes of live segments. Nil means unlimited.
	Budget Budget
}

func allocErr(key string, err error) error {
	return fmt.Errorf("%w: segment %q: %w", core.ErrAllocationFailed, key, err)
}

func sizeBytes(sizeWords int) int { return sizeWords * buffer.WordSize }

package shm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/geobridge/core"
)

var errSizeMismatch = errors.New("existing segment has a different size")

type segment struct {
	key       string
	sizeWords int
	refs      int
	os        *osSegment
}

// Registry tracks the segments created by this process.
//
// The mutex guards bookkeeping only; writing into a mapping is the caller's
// business and is single-writer by convention.
type Registry struct {
	scope  string
	dir    string
	budget Budget

	mu   sync.Mutex
	segs map[string]*segment
}

// NewRegistry creates a registry.
func NewRegistry(opts Options) *Registry {
	budget := opts.Budget
	if budget == nil {
		budget = noBudget{}
	}
	scope := opts.Scope
	if scope == "" {
		scope = ProcessScope()
	}
	return &Registry{
		scope:  scope,
		dir:    opts.Dir,
		budget: budget,
		segs:   make(map[string]*segment),
	}
}

// Scope returns the key prefix of this registry.
func (r *Registry) Scope() string { return r.scope }

// KeyFor builds the key of identifier at the given size in this registry's scope.
func (r *Registry) KeyFor(identifier string, sizeWords int) string {
	return Key(r.scope, identifier, sizeWords)
}

// Acquire returns a view of the segment named key and a new reference to it.
//
// found reports whether the segment existed before the call, either in this
// registry or in the OS namespace. A new segment is zero-filled. Acquiring an
// existing key at a different size violates a precondition.
func (r *Registry) Acquire(key string, sizeWords int) (*Mapping, *Handle, bool, error) {
	if sizeWords <= 0 {
		return nil, nil, false, allocErr(key, fmt.Errorf("%w: %d words", ErrInvalidSize, sizeWords))
	}
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, nil, false, allocErr(key, ErrInvalidKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seg, ok := r.segs[key]; ok {
		if seg.sizeWords != sizeWords {
			return nil, nil, false, core.Preconditionf("segment %q is %d words, requested %d", key, seg.sizeWords, sizeWords)
		}
		m, err := r.mapSegment(seg)
		if err != nil {
			return nil, nil, false, err
		}
		seg.refs++
		return m, &Handle{reg: r, seg: seg}, true, nil
	}

	size := int64(sizeBytes(sizeWords))
	if err := r.budget.AcquireMapped(size); err != nil {
		return nil, nil, false, allocErr(key, err)
	}

	osSeg, found, err := osOpen(r.dir, key, int(size))
	if err != nil {
		r.budget.ReleaseMapped(size)
		if errors.Is(err, errSizeMismatch) {
			return nil, nil, false, core.Preconditionf("segment %q: %v", key, err)
		}
		return nil, nil, false, allocErr(key, err)
	}

	seg := &segment{key: key, sizeWords: sizeWords, refs: 1, os: osSeg}
	m, err := r.mapSegment(seg)
	if err != nil {
		r.budget.ReleaseMapped(size)
		_ = osSeg.destroy()
		return nil, nil, false, err
	}
	r.segs[key] = seg
	return m, &Handle{reg: r, seg: seg}, found, nil
}

func (r *Registry) mapSegment(seg *segment) (*Mapping, error) {
	data, unmap, err := seg.os.mapView()
	if err != nil {
		return nil, allocErr(seg.key, err)
	}
	return &Mapping{key: seg.key, sizeWords: seg.sizeWords, data: data, unmap: unmap}, nil
}

func (r *Registry) unref(seg *segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.segs[seg.key] != seg {
		return nil
	}
	seg.refs--
	if seg.refs > 0 {
		return nil
	}
	delete(r.segs, seg.key)
	r.budget.ReleaseMapped(int64(sizeBytes(seg.sizeWords)))
	return seg.os.destroy()
}

// Refs returns the live reference count of key, 0 if unknown.
func (r *Registry) Refs(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seg, ok := r.segs[key]; ok {
		return seg.refs
	}
	return 0
}

// Len returns the number of live segments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segs)
}

// Close destroys every segment still referenced. Outstanding handles become
// inert.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, seg := range r.segs {
		seg.refs = 0
		r.budget.ReleaseMapped(int64(sizeBytes(seg.sizeWords)))
		errs = append(errs, seg.os.destroy())
		delete(r.segs, key)
	}
	return errors.Join(errs...)
}

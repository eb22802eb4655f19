package shm

import (
	"sync/atomic"
)

// Handle is one reference to a segment. The segment is destroyed when the
// last handle is closed.
type Handle struct {
	reg    *Registry
	seg    *segment
	closed atomic.Bool
}

// Key returns the segment key.
func (h *Handle) Key() string { return h.seg.key }

// SizeWords returns the segment size in words.
func (h *Handle) SizeWords() int { return h.seg.sizeWords }

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool { return h.closed.Load() }

// Map opens a new view of the segment without taking another reference.
func (h *Handle) Map() (*Mapping, error) {
	if h.closed.Load() {
		return nil, ErrReleased
	}
	return h.reg.mapSegment(h.seg)
}

// Close drops this reference. It is idempotent.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.reg.unref(h.seg)
}

package extent

import "sync"

// Tracker accumulates the dirty rectangle of a raster between uploads.
//
// Edits may be reported from several goroutines; the upload path consumes
// the accumulated extent once it is ready to send.
type Tracker struct {
	mu    sync.Mutex
	dirty Rect
	set   bool
}

// NewTracker returns a tracker with nothing dirty.
func NewTracker() *Tracker { return &Tracker{dirty: Empty} }

// NotifyChanged grows the dirty extent by r. The first notification after a
// reset assigns r as is.
func (t *Tracker) NotifyChanged(r Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.set {
		t.dirty = r
		t.set = true
		return
	}
	t.dirty = t.dirty.Union(r)
}

// Peek returns the current dirty extent without resetting it.
func (t *Tracker) Peek() Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.set {
		return Empty
	}
	return t.dirty
}

// Consume returns the dirty extent and resets the tracker.
func (t *Tracker) Consume() Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := Empty
	if t.set {
		r = t.dirty
	}
	t.dirty, t.set = Empty, false
	return r
}

// Reset forgets any dirty extent.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty, t.set = Empty, false
}

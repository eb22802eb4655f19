package shm

import (
	"sync/atomic"
)

// Mapping is a local view of a segment.
//
// Releasing a mapping unmaps the view only; the segment lives on until its
// Handle is closed.
type Mapping struct {
	key       string
	sizeWords int
	data      []byte
	released  atomic.Bool
	unmap     func([]byte) error
}

// Key returns the segment key. The engine opens the segment by this name.
func (m *Mapping) Key() string { return m.key }

// SizeWords returns the segment size in words.
func (m *Mapping) SizeWords() int { return m.sizeWords }

// Size returns the segment size in bytes.
func (m *Mapping) Size() int { return sizeBytes(m.sizeWords) }

// Bytes returns the mapped memory.
// The slice is valid only until Release is called.
func (m *Mapping) Bytes() []byte {
	if m.released.Load() {
		return nil
	}
	return m.data
}

// Zero clears the whole view.
func (m *Mapping) Zero() error {
	if m.released.Load() {
		return ErrReleased
	}
	clear(m.data)
	return nil
}

// Released reports whether Release has been called.
func (m *Mapping) Released() bool { return m.released.Load() }

// Release unmaps the view. It is idempotent.
func (m *Mapping) Release() error {
	if m.released.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

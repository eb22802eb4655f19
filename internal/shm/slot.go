package shm

// Slot is the holder-side cache of one channel, e.g. one raster layer.
//
// Re-acquiring the key the slot already holds reuses its handle without
// taking another reference. Acquiring a different key closes the previous
// handle first. The slot also remembers whether a full upload has been
// committed through its current segment, which gates partial uploads.
type Slot struct {
	handle    *Handle
	committed bool
}

// Acquire returns a view of key, reusing the held handle when the key matches.
func (s *Slot) Acquire(r *Registry, key string, sizeWords int) (*Mapping, bool, error) {
	if s.handle != nil && !s.handle.Closed() && s.handle.Key() == key {
		m, err := s.handle.Map()
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	}

	if err := s.Close(); err != nil {
		return nil, false, err
	}

	m, h, found, err := r.Acquire(key, sizeWords)
	if err != nil {
		return nil, false, err
	}
	s.handle = h
	return m, found, nil
}

// Key returns the held key, "" when empty.
func (s *Slot) Key() string {
	if s.handle == nil {
		return ""
	}
	return s.handle.Key()
}

// Handle returns the held handle, nil when empty.
func (s *Slot) Handle() *Handle { return s.handle }

// MarkCommitted records that a full upload went through the held segment.
func (s *Slot) MarkCommitted() {
	if s.handle != nil {
		s.committed = true
	}
}

// Invalidate forgets the committed state so the next upload is full.
func (s *Slot) Invalidate() { s.committed = false }

// Committed reports whether the held segment carries a committed full upload.
func (s *Slot) Committed() bool {
	return s.committed && s.handle != nil && !s.handle.Closed()
}

// Close drops the held handle.
func (s *Slot) Close() error {
	s.committed = false
	if s.handle == nil {
		return nil
	}
	h := s.handle
	s.handle = nil
	return h.Close()
}

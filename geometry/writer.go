package geometry

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/geobridge/attribute"
	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/internal/shm"
)

// Terminators close each primitive in the topology section.
const (
	ClosedPolygon int32 = -1
	OpenPolyline  int32 = -2
)

// Writer fills a planned buffer section by section.
//
// Sections must come in plan order: positions, topology, then attribute
// blocks. WriteAttribute takes blocks in declaration order while
// WriteAttributeAt fills any declared block by name. Each write is checked
// against the offsets computed while planning, and every block is written
// exactly once.
type Writer struct {
	p    *Planner
	m    *shm.Mapping
	slot *shm.Slot
	c    *buffer.Cursor

	positions bool
	topology  bool
	written   *bitset.BitSet // attribute blocks already filled
}

func newWriter(p *Planner, m *shm.Mapping, slot *shm.Slot) *Writer {
	return &Writer{
		p:       p,
		m:       m,
		slot:    slot,
		c:       buffer.NewCursor(m.Bytes()),
		written: bitset.New(uint(len(p.descs))),
	}
}

// Key returns the segment key.
func (w *Writer) Key() string { return w.m.Key() }

// Bytes returns the mapped buffer. It is nil once the plan is uploaded.
func (w *Writer) Bytes() []byte { return w.m.Bytes() }

func (w *Writer) begin() error {
	switch w.p.state {
	case stateSized:
		w.p.state = stateWriting
		return nil
	case stateWriting:
		return nil
	default:
		return core.Preconditionf("write while %s", w.p.state)
	}
}

// WritePositions writes the xyz triples of every point.
func (w *Writer) WritePositions(xyz []float32) error {
	if err := w.begin(); err != nil {
		return err
	}
	if w.positions {
		return fmt.Errorf("%w: positions already written", ErrOutOfOrder)
	}
	if len(xyz) != w.p.numPoints*3 {
		return core.Preconditionf("got %d position components, want %d", len(xyz), w.p.numPoints*3)
	}
	if err := w.c.Expect(0); err != nil {
		return err
	}
	if err := w.c.PutFloat32s(xyz); err != nil {
		return err
	}
	w.positions = true
	return nil
}

// WriteTopology writes the flat primitive list: the point index of each
// vertex, with every primitive closed by ClosedPolygon or OpenPolyline.
func (w *Writer) WriteTopology(indices []int32) error {
	if err := w.begin(); err != nil {
		return err
	}
	if !w.positions || w.topology {
		return fmt.Errorf("%w: topology must follow positions exactly once", ErrOutOfOrder)
	}
	if err := checkTopology(indices, w.p.numPoints, w.p.numPrims, w.p.numVertices); err != nil {
		return err
	}
	if err := w.c.Expect(w.p.topologyOffset()); err != nil {
		return err
	}
	if err := w.c.PutInt32s(indices); err != nil {
		return err
	}
	w.topology = true
	return nil
}

func checkTopology(indices []int32, points, prims, vertices int) error {
	if len(indices) != vertices+prims {
		return core.Preconditionf("topology has %d entries, want %d", len(indices), vertices+prims)
	}
	terminators := 0
	for i, v := range indices {
		switch {
		case v == ClosedPolygon || v == OpenPolyline:
			terminators++
		case v < 0 || int(v) >= points:
			return core.Preconditionf("topology entry %d references point %d of %d", i, v, points)
		}
	}
	if terminators != prims {
		return core.Preconditionf("topology closes %d primitives, want %d", terminators, prims)
	}
	if prims > 0 && indices[len(indices)-1] >= 0 {
		return core.Preconditionf("topology does not end with a terminator")
	}
	return nil
}

// WriteAttribute writes the first declared block that is still empty.
func (w *Writer) WriteAttribute(u attribute.Uploadable) error {
	if err := w.beginAttributes(); err != nil {
		return err
	}
	i, ok := w.written.NextClear(0)
	if !ok || int(i) >= len(w.p.descs) {
		return fmt.Errorf("%w: all %d declared attributes already written", ErrOutOfOrder, len(w.p.descs))
	}

	d := w.p.descs[i]
	got := u.Descriptor("")
	if got.Storage != d.Storage || got.SizeWords != d.SizeWords || got.Owner != d.Owner {
		return fmt.Errorf("%w: next block is %q (%d words), got a %d-word block", ErrOutOfOrder, d.Name, d.SizeWords, got.SizeWords)
	}
	return w.writeBlock(i, u)
}

// WriteAttributeAt writes the declared block called name, prefix included,
// whose owner matches u. Blocks may be filled in any order.
func (w *Writer) WriteAttributeAt(name string, u attribute.Uploadable) error {
	if err := w.beginAttributes(); err != nil {
		return err
	}
	got := u.Descriptor("")
	declared := false
	for i, d := range w.p.descs {
		if d.Name != name || d.Owner != got.Owner {
			continue
		}
		declared = true
		if w.written.Test(uint(i)) {
			continue
		}
		if got.Storage != d.Storage || got.SizeWords != d.SizeWords {
			return core.Preconditionf("block %q is a %d-word storage %d, got a %d-word storage %d", name, d.SizeWords, d.Storage, got.SizeWords, got.Storage)
		}
		return w.writeBlock(uint(i), u)
	}
	if declared {
		return fmt.Errorf("%w: %s attribute %q already written", ErrOutOfOrder, got.Owner, name)
	}
	return core.Preconditionf("no %s attribute %q declared", got.Owner, name)
}

func (w *Writer) beginAttributes() error {
	if err := w.begin(); err != nil {
		return err
	}
	if !w.positions || !w.topology {
		return fmt.Errorf("%w: attributes must follow positions and topology", ErrOutOfOrder)
	}
	return nil
}

// writeBlock fills block i through a cursor bounded to its declared range.
func (w *Writer) writeBlock(i uint, u attribute.Uploadable) error {
	d := w.p.descs[i]
	buf := w.m.Bytes()[d.OffsetWords*buffer.WordSize : d.End()*buffer.WordSize]
	c := buffer.NewCursor(buf)
	if err := u.WriteTo(c); err != nil {
		return fmt.Errorf("attribute %q: %w", d.Name, err)
	}
	if err := c.Expect(d.SizeWords); err != nil {
		return fmt.Errorf("attribute %q: %w", d.Name, err)
	}
	w.written.Set(i)
	return nil
}

func (w *Writer) complete() error {
	if w.p.numPoints > 0 && !w.positions {
		return core.Preconditionf("positions not written")
	}
	if w.p.numVertices+w.p.numPrims > 0 && !w.topology {
		return core.Preconditionf("topology not written")
	}
	if !w.written.All() {
		i, _ := w.written.NextClear(0)
		return core.Preconditionf("attribute %q not written", w.p.descs[i].Name)
	}
	return nil
}

// Abort releases the mapping of a write that will not be uploaded and
// invalidates the slot, so the next upload through it starts over.
func (w *Writer) Abort() error {
	w.slot.Invalidate()
	if w.m.Released() {
		return nil
	}
	return w.m.Release()
}

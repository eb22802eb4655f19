package geometry

import (
	"context"
	"fmt"

	"github.com/hupe1980/geobridge/attribute"
	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/codec"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
	"github.com/hupe1980/geobridge/internal/shm"
)

// PageWords is the allocation granularity of geometry segments (4 KiB).
const PageWords = 1024

// ErrOutOfOrder is returned when buffer sections are written in a different
// order than they were declared.
var ErrOutOfOrder = fmt.Errorf("%w: geometry write out of order", core.ErrPreconditionViolated)

type state uint8

const (
	stateDeclaring state = iota
	stateSized
	stateWriting
	stateCommitted
)

func (s state) String() string {
	switch s {
	case stateDeclaring:
		return "declaring"
	case stateSized:
		return "sized"
	case stateWriting:
		return "writing"
	default:
		return "committed"
	}
}

// Planner lays out one geometry upload.
//
// The buffer holds, in order: point positions (3 floats each), the topology
// (one index per vertex plus one terminator per primitive) and then every
// declared attribute block. Declaration order fixes the offsets, so blocks
// must be written in the same order they were appended.
type Planner struct {
	numPoints   int
	numPrims    int
	numVertices int

	sizeWords int
	descs     []attribute.Descriptor
	state     state
	key       string
}

// New starts a plan for the given element counts.
func New(points, prims, vertices int) (*Planner, error) {
	if points < 0 || prims < 0 || vertices < 0 {
		return nil, core.Preconditionf("negative geometry counts: %d points, %d prims, %d vertices", points, prims, vertices)
	}
	return &Planner{
		numPoints:   points,
		numPrims:    prims,
		numVertices: vertices,
		sizeWords:   points*3 + vertices + prims,
	}, nil
}

// NumPoints returns the number of points.
func (p *Planner) NumPoints() int { return p.numPoints }

// NumPrims returns the number of primitives.
func (p *Planner) NumPrims() int { return p.numPrims }

// NumVertices returns the number of vertices.
func (p *Planner) NumVertices() int { return p.numVertices }

// SizeWords returns the payload size declared so far. After GetSharedMemory
// it is the page-aligned segment size.
func (p *Planner) SizeWords() int { return p.sizeWords }

// Descriptors returns the declared attribute blocks in order.
func (p *Planner) Descriptors() []attribute.Descriptor { return p.descs }

// Key returns the segment key, empty before GetSharedMemory.
func (p *Planner) Key() string { return p.key }

// Elements returns how many values an owner attaches to.
func (p *Planner) Elements(owner core.Owner) int {
	switch owner {
	case core.OwnerVertex:
		return p.numVertices
	case core.OwnerPoint:
		return p.numPoints
	case core.OwnerPrim:
		return p.numPrims
	case core.OwnerDetail:
		return 1
	default:
		return 0
	}
}

func (p *Planner) topologyOffset() int { return p.numPoints * 3 }

func (p *Planner) attributesOffset() int { return p.numPoints*3 + p.numVertices + p.numPrims }

// AppendAttribute declares a block and returns it with its offset assigned.
func (p *Planner) AppendAttribute(d attribute.Descriptor) (attribute.Descriptor, error) {
	if p.state != stateDeclaring {
		return d, core.Preconditionf("append %q while %s", d.Name, p.state)
	}
	if d.Name == "" {
		return d, core.Preconditionf("attribute without a name")
	}
	if !d.Owner.Valid() {
		return d, core.Preconditionf("attribute %q has invalid owner %d", d.Name, d.Owner)
	}
	if d.SizeWords < 0 {
		return d, core.Preconditionf("attribute %q has negative size %d", d.Name, d.SizeWords)
	}
	if err := p.checkShape(d); err != nil {
		return d, err
	}

	d.OffsetWords = p.sizeWords
	p.sizeWords += d.SizeWords
	p.descs = append(p.descs, d)
	return d, nil
}

// checkShape verifies the element count of uncompressed fixed-size blocks.
func (p *Planner) checkShape(d attribute.Descriptor) error {
	if d.Compression != attribute.CompressionNone {
		return nil
	}
	var want int
	switch d.Storage {
	case attribute.StorageInt, attribute.StorageFloat:
		want = p.Elements(d.Owner) * d.TupleSize
	case attribute.StorageGroup:
		want = p.Elements(d.Owner)
	default:
		return nil
	}
	if d.SizeWords != want {
		return core.Preconditionf("attribute %q declares %d words, %s owner needs %d", d.Name, d.SizeWords, d.Owner, want)
	}
	return nil
}

// AppendRecord declares the block of a record or group. prefix is prepended
// to the name the engine sees.
func (p *Planner) AppendRecord(u attribute.Uploadable, prefix string) (attribute.Descriptor, error) {
	return p.AppendAttribute(u.Descriptor(prefix))
}

// AppendGroup declares a group block.
func (p *Planner) AppendGroup(g *attribute.Group) (attribute.Descriptor, error) {
	return p.AppendAttribute(g.Descriptor(""))
}

// GetSharedMemory sizes the plan to whole pages, acquires the segment through
// the slot and returns a writer positioned at the start of the zeroed buffer.
func (p *Planner) GetSharedMemory(reg *shm.Registry, slot *shm.Slot, identifier string) (*Writer, error) {
	if p.state != stateDeclaring {
		return nil, core.Preconditionf("get shared memory while %s", p.state)
	}

	size := max(buffer.AlignWords(p.sizeWords, PageWords), PageWords)
	key := reg.KeyFor(identifier, size)
	m, _, err := slot.Acquire(reg, key, size)
	if err != nil {
		return nil, err
	}
	if err := m.Zero(); err != nil {
		_ = m.Release()
		slot.Invalidate()
		return nil, err
	}

	p.sizeWords = size
	p.key = key
	p.state = stateSized
	return newWriter(p, m, slot), nil
}

// Parm is the JSON document the geometry input node reads from its first
// string parameter.
type Parm struct {
	Path        string   `json:"shmpath"`
	SizeWords   int      `json:"datasize32"`
	NumPoints   int      `json:"numpts"`
	NumPrims    int      `json:"numprims"`
	Names       []string `json:"attribname,omitempty"`
	Owners      []int32  `json:"owner,omitempty"`
	Storages    []int32  `json:"storage,omitempty"`
	TupleSizes  []int32  `json:"tuplesize,omitempty"`
	Compression []int32  `json:"compression,omitempty"`
}

// Parm returns the descriptor document for the current plan.
func (p *Planner) Parm() Parm {
	out := Parm{
		Path:      p.key,
		SizeWords: p.sizeWords,
		NumPoints: p.numPoints,
		NumPrims:  p.numPrims,
	}
	if len(p.descs) == 0 {
		return out
	}
	out.Names = make([]string, len(p.descs))
	out.Owners = make([]int32, len(p.descs))
	out.Storages = make([]int32, len(p.descs))
	out.TupleSizes = make([]int32, len(p.descs))
	out.Compression = make([]int32, len(p.descs))
	for i, d := range p.descs {
		out.Names[i] = d.Name
		out.Owners[i] = int32(d.Owner)
		out.Storages[i] = int32(d.Storage)
		out.TupleSizes[i] = int32(d.TupleSize)
		out.Compression[i] = int32(d.Compression)
	}
	return out
}

// Upload releases the writer's mapping and commits the descriptor to node.
//
// Every declared section must have been written. On failure the segment is
// left as is and the slot is invalidated.
func (p *Planner) Upload(ctx context.Context, s engine.ParmWriter, node core.NodeID, w *Writer) error {
	if p.state != stateSized && p.state != stateWriting {
		return core.Preconditionf("upload while %s", p.state)
	}
	if w == nil || w.p != p {
		return core.Preconditionf("upload with a writer of another plan")
	}
	if err := w.complete(); err != nil {
		w.slot.Invalidate()
		return err
	}
	if err := w.m.Release(); err != nil {
		w.slot.Invalidate()
		return err
	}

	js, err := codec.Default.Marshal(p.Parm())
	if err != nil {
		w.slot.Invalidate()
		return fmt.Errorf("encode geometry descriptor: %w", err)
	}
	if err := s.SetParmString(ctx, node, 0, string(js)); err != nil {
		w.slot.Invalidate()
		return core.WrapCall("SetParmStringValue", node, err)
	}

	w.slot.MarkCommitted()
	p.state = stateCommitted
	return nil
}

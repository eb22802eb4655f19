package volume

import (
	"context"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
	"github.com/hupe1980/geobridge/extent"
	"github.com/hupe1980/geobridge/internal/resource"
	"github.com/hupe1980/geobridge/internal/shm"
)

// Committer is the part of a session a layer sync drives.
type Committer interface {
	engine.NodeManager
	engine.ParmWriter
}

// Reader returns the host cells of r, row-major with x fastest.
type Reader[T Sample] func(ctx context.Context, r extent.Rect) ([]T, error)

// LayerConfig describes one raster layer.
type LayerConfig struct {
	// Identifier names the layer's segment; it must be stable across syncs.
	Identifier string

	// Name is the volume name and the base of the node label.
	Name string

	// DataType must match the size of the layer's sample type.
	DataType DataType

	// Range is the value range sent with full uploads.
	Range [2]float32

	// Parent is the node the volume input is created under.
	Parent core.NodeID

	// Attributes are attached to every full upload.
	Attributes []Attribute
}

// SyncResult reports what a sync sent.
type SyncResult struct {
	Partial   bool
	Found     bool
	Node      core.NodeID
	Key       string
	SizeWords int

	// Region is the host region that was read and written.
	Region extent.Rect
}

// Layer keeps one raster layer in sync with its engine volume.
//
// Edits are reported with NotifyChanged. Sync sends only the changed region
// when the engine already holds a full copy of the same covered extent, and
// the whole raster otherwise. A Layer is not safe for concurrent syncs;
// NotifyChanged may be called from any goroutine.
type Layer[T Sample] struct {
	cfg  LayerConfig
	reg  *shm.Registry
	ctrl *resource.Controller

	tracker *extent.Tracker
	slot    shm.Slot
	node    core.NodeID
	covered extent.Rect
}

// NewLayer returns a layer with no engine node yet.
func NewLayer[T Sample](reg *shm.Registry, ctrl *resource.Controller, cfg LayerConfig) (*Layer[T], error) {
	if cfg.Identifier == "" {
		return nil, core.Preconditionf("layer without an identifier")
	}
	if got, want := SizeOf[T](), cfg.DataType.Size(); got != want {
		return nil, core.Preconditionf("layer %q: %d-byte samples for %s data", cfg.Identifier, got, cfg.DataType)
	}
	return &Layer[T]{
		cfg:     cfg,
		reg:     reg,
		ctrl:    ctrl,
		tracker: extent.NewTracker(),
		node:    core.InvalidNodeID,
		covered: extent.Empty,
	}, nil
}

// NotifyChanged records an edited host region.
func (l *Layer[T]) NotifyChanged(r extent.Rect) { l.tracker.NotifyChanged(r) }

// Identifier returns the channel identifier.
func (l *Layer[T]) Identifier() string { return l.cfg.Identifier }

// Tracker returns the layer's changed-extent tracker.
func (l *Layer[T]) Tracker() *extent.Tracker { return l.tracker }

// Node returns the volume input node, core.InvalidNodeID before the first sync.
func (l *Layer[T]) Node() core.NodeID { return l.node }

// Covered returns the host extent of the last successful sync.
func (l *Layer[T]) Covered() extent.Rect { return l.covered }

// Committed reports whether the engine holds a full copy of the raster.
func (l *Layer[T]) Committed() bool { return l.slot.Committed() }

// Key returns the key of the held segment.
func (l *Layer[T]) Key() string { return l.slot.Key() }

// Sync uploads the layer over the host extent covered.
//
// The changed extent is consumed on every call. A different covered extent
// than last time discards it, as does the absence of a node, an existing
// segment or a committed full upload. On failure the layer forgets its
// committed state so the next sync is full.
func (l *Layer[T]) Sync(ctx context.Context, s Committer, covered extent.Rect, read Reader[T]) (SyncResult, error) {
	if covered.IsEmpty() {
		return SyncResult{}, core.Preconditionf("layer %q: empty covered extent", l.cfg.Identifier)
	}

	dirty := l.tracker.Consume()
	if covered != l.covered {
		dirty = extent.Empty
		l.slot.Invalidate()
	}

	// Engine X runs along host rows.
	p, err := New(l.cfg.DataType, StorageFloat, Resolution{X: covered.Height(), Y: covered.Width(), Z: 1})
	if err != nil {
		return SyncResult{}, err
	}
	m, found, err := p.GetSharedMemory(l.reg, &l.slot, l.cfg.Identifier)
	if err != nil {
		l.slot.Invalidate()
		return SyncResult{}, err
	}

	res := SyncResult{Found: found, Key: p.Key(), SizeWords: p.SizeWords(), Region: covered}
	if l.node.Valid() && found && l.slot.Committed() && !dirty.IsEmpty() {
		if r := dirty.Intersect(covered); !r.IsEmpty() {
			res.Partial, res.Region = true, r
		}
	}

	fail := func(err error) (SyncResult, error) {
		_ = m.Release()
		l.slot.Invalidate()
		return res, err
	}

	data, err := read(ctx, res.Region)
	if err != nil {
		return fail(err)
	}
	region := Region{
		X0:     res.Region.MinX - covered.MinX,
		Y0:     res.Region.MinY - covered.MinY,
		Width:  res.Region.Width(),
		Height: res.Region.Height(),
		SizeY:  covered.Height(),
	}
	if err := WriteSwapped(ctx, l.ctrl, View[T](m.Bytes()), data, region); err != nil {
		return fail(err)
	}

	if !l.node.Valid() {
		node, err := CreateNode(ctx, s, l.cfg.Parent, engine.UniqueLabel(l.cfg.Name))
		if err != nil {
			return fail(err)
		}
		l.node = node
	}
	res.Node = l.node

	if res.Partial {
		box := BBox{
			Min: [3]int32{int32(region.Y0), int32(region.X0), 0},
			Max: [3]int32{int32(region.Y0 + region.Height - 1), int32(region.X0 + region.Width - 1), 0},
		}
		if err := p.PartialUpload(ctx, s, l.node, m, box); err != nil {
			return fail(err)
		}
	} else {
		for _, a := range l.cfg.Attributes {
			if err := p.Append(a); err != nil {
				return fail(err)
			}
		}
		opts := UploadOptions{Name: l.cfg.Name, Range: l.cfg.Range}
		if err := p.Upload(ctx, s, l.node, m, opts); err != nil {
			return fail(err)
		}
	}

	l.covered = covered
	return res, nil
}

// Close deletes the volume node and drops the segment.
func (l *Layer[T]) Close(ctx context.Context, s engine.NodeManager) error {
	err := engine.DeleteNode(ctx, s, l.node)
	l.node = core.InvalidNodeID
	l.covered = extent.Empty
	l.tracker.Reset()
	if cerr := l.slot.Close(); err == nil {
		err = cerr
	}
	return err
}

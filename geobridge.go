package geobridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/geobridge/attribute"
	"github.com/hupe1980/geobridge/capture"
	"github.com/hupe1980/geobridge/codec"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
	"github.com/hupe1980/geobridge/extent"
	"github.com/hupe1980/geobridge/geometry"
	"github.com/hupe1980/geobridge/internal/resource"
	"github.com/hupe1980/geobridge/internal/shm"
	"github.com/hupe1980/geobridge/volume"
)

// Bridge owns the shared-memory segments of one engine session.
//
// Commits for different identifiers may run concurrently. Commits for the
// same identifier must not overlap: each identifier is a single-writer
// channel.
type Bridge struct {
	session engine.Session
	reg     *shm.Registry
	ctrl    *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	capture     *capture.Writer
	ownsCapture bool

	mu     sync.Mutex
	slots  map[string]*shm.Slot
	closed bool
}

// New creates a bridge over session.
func New(ctx context.Context, session engine.Session, optFns ...Option) (*Bridge, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: nil session", ErrPreconditionViolated)
	}
	opts := applyOptions(optFns)

	ctrl := resource.NewController(opts.resource)
	b := &Bridge{
		session: session,
		ctrl:    ctrl,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
		capture: opts.capture,
		slots:   make(map[string]*shm.Slot),
	}
	b.reg = shm.NewRegistry(shm.Options{
		Scope:  opts.scope,
		Dir:    opts.shmDir,
		Budget: ctrl,
	})

	if opts.capturePath != "" {
		copts := opts.captureOpts
		if copts.Controller == nil {
			copts.Controller = ctrl
		}
		w, err := capture.Create(ctx, opts.capturePath, copts)
		if err != nil {
			_ = b.reg.Close()
			return nil, fmt.Errorf("open capture: %w", err)
		}
		b.capture, b.ownsCapture = w, true
	}
	return b, nil
}

// Scope returns the key prefix of the bridge's segments.
func (b *Bridge) Scope() string { return b.reg.Scope() }

// Segments returns the number of live segments.
func (b *Bridge) Segments() int { return b.reg.Len() }

// Controller returns the resource controller.
func (b *Bridge) Controller() *resource.Controller { return b.ctrl }

// slot returns the channel slot of identifier, creating it on first use.
func (b *Bridge) slot(kind, identifier string) (*shm.Slot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	k := kind + ":" + identifier
	s, ok := b.slots[k]
	if !ok {
		s = &shm.Slot{}
		b.slots[k] = s
	}
	return s, nil
}

// CreateGeometryNode creates a shared-memory geometry input under parent.
func (b *Bridge) CreateGeometryNode(ctx context.Context, parent core.NodeID, label string) (core.NodeID, error) {
	return geometry.CreateNode(ctx, b.session, parent, label)
}

// CreateVolumeNode creates a shared-memory volume input under parent.
func (b *Bridge) CreateVolumeNode(ctx context.Context, parent core.NodeID, label string) (core.NodeID, error) {
	return volume.CreateNode(ctx, b.session, parent, label)
}

// DeleteNode deletes a node created through the bridge.
func (b *Bridge) DeleteNode(ctx context.Context, node core.NodeID) error {
	return engine.DeleteNode(ctx, b.session, node)
}

// Geometry is one mesh or point cloud to upload.
type Geometry struct {
	// Positions holds xyz per point.
	Positions []float32

	// Topology lists the primitives; nil uploads a point cloud.
	Topology *geometry.Topology

	// Attributes are written after the topology in this order.
	Attributes []attribute.Uploadable

	// Prefix is prepended to every attribute name the engine sees.
	Prefix string
}

// CommitGeometry uploads g to node through the segment of identifier and
// returns the descriptor the engine received.
func (b *Bridge) CommitGeometry(ctx context.Context, node core.NodeID, identifier string, g Geometry) (geometry.Parm, error) {
	start := time.Now()
	parm, err := b.commitGeometry(ctx, node, identifier, g)
	b.metrics.RecordGeometryCommit(parm.SizeWords, time.Since(start), err)
	b.logger.LogGeometryUpload(ctx, parm.Path, node, parm.SizeWords, len(g.Attributes), err)
	return parm, commitError("geometry", identifier, parm.Path, err)
}

func (b *Bridge) commitGeometry(ctx context.Context, node core.NodeID, identifier string, g Geometry) (geometry.Parm, error) {
	slot, err := b.slot("geometry", identifier)
	if err != nil {
		return geometry.Parm{}, err
	}
	if len(g.Positions)%3 != 0 {
		return geometry.Parm{}, core.Preconditionf("%d position components is not a multiple of 3", len(g.Positions))
	}
	topo := g.Topology
	if topo == nil {
		topo = &geometry.Topology{}
	}

	p, err := geometry.New(len(g.Positions)/3, topo.NumPrims(), topo.NumVertices())
	if err != nil {
		return geometry.Parm{}, err
	}
	for _, a := range g.Attributes {
		if _, err := p.AppendRecord(a, g.Prefix); err != nil {
			return p.Parm(), err
		}
	}

	w, err := p.GetSharedMemory(b.reg, slot, identifier)
	if err != nil {
		return p.Parm(), err
	}
	if err := writeGeometry(w, g.Positions, topo, g.Attributes); err != nil {
		_ = w.Abort()
		return p.Parm(), err
	}

	var payload []byte
	if b.capture != nil {
		payload = append([]byte(nil), w.Bytes()...)
	}
	if err := p.Upload(ctx, b.session, node, w); err != nil {
		_ = w.Abort()
		return p.Parm(), err
	}

	parm := p.Parm()
	b.record(ctx, capture.Meta{Kind: capture.KindGeometry, Key: parm.Path, Node: int32(node), Parm: parmText(parm)}, payload)
	return parm, nil
}

func writeGeometry(w *geometry.Writer, positions []float32, topo *geometry.Topology, attrs []attribute.Uploadable) error {
	if err := w.WritePositions(positions); err != nil {
		return err
	}
	if err := w.WriteTopology(topo.Indices()); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := w.WriteAttribute(a); err != nil {
			return err
		}
	}
	return nil
}

// Volume is one dense raster to upload.
type Volume struct {
	DataType   volume.DataType
	Storage    volume.Storage
	Resolution volume.Resolution

	// Attributes are attached to full uploads.
	Attributes []volume.Attribute

	// Options carries the full-upload parameters.
	Options volume.UploadOptions
}

// VolumeResult reports a volume commit.
type VolumeResult struct {
	Key       string
	SizeWords int

	// Found reports that the segment existed before the commit.
	Found bool
}

// CommitVolume uploads a full raster to node. fill receives the segment
// bytes in engine order; new segments are zeroed, existing ones keep the
// previous content.
func (b *Bridge) CommitVolume(ctx context.Context, node core.NodeID, identifier string, v Volume, fill func(buf []byte) error) (VolumeResult, error) {
	start := time.Now()
	res, err := b.commitVolume(ctx, node, identifier, v, nil, fill)
	b.metrics.RecordVolumeCommit(res.SizeWords, false, time.Since(start), err)
	b.logger.LogVolumeUpload(ctx, res.Key, node, false, err)
	return res, commitError("volume", identifier, res.Key, err)
}

// CommitVolumePartial tells node to re-read box after fill updated the
// segment. A full commit through the same identifier must have succeeded
// since the last failure.
func (b *Bridge) CommitVolumePartial(ctx context.Context, node core.NodeID, identifier string, v Volume, box volume.BBox, fill func(buf []byte) error) (VolumeResult, error) {
	start := time.Now()
	res, err := b.commitVolume(ctx, node, identifier, v, &box, fill)
	b.metrics.RecordVolumeCommit(res.SizeWords, true, time.Since(start), err)
	b.logger.LogVolumeUpload(ctx, res.Key, node, true, err)
	return res, commitError("volume_partial", identifier, res.Key, err)
}

func (b *Bridge) commitVolume(ctx context.Context, node core.NodeID, identifier string, v Volume, box *volume.BBox, fill func([]byte) error) (res VolumeResult, err error) {
	slot, err := b.slot("volume", identifier)
	if err != nil {
		return VolumeResult{}, err
	}
	p, err := volume.New(v.DataType, v.Storage, v.Resolution)
	if err != nil {
		return VolumeResult{}, err
	}
	res = VolumeResult{SizeWords: p.SizeWords()}

	if box != nil && !slot.Committed() {
		return res, core.Preconditionf("partial upload of %q without a committed full upload", identifier)
	}

	m, found, err := p.GetSharedMemory(b.reg, slot, identifier)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = m.Release()
			slot.Invalidate()
		}
	}()
	res.Key, res.Found = m.Key(), found

	if fill != nil {
		if err = fill(m.Bytes()); err != nil {
			return res, err
		}
	}

	var payload []byte
	if b.capture != nil {
		payload = append([]byte(nil), m.Bytes()...)
	}

	meta := capture.Meta{Key: res.Key, Node: int32(node)}
	if box != nil {
		if err = p.PartialUpload(ctx, b.session, node, m, *box); err != nil {
			return res, err
		}
		meta.Kind = capture.KindVolumePartial
		meta.Ints = append(append([]int32(nil), box.Min[:]...), box.Max[:]...)
	} else {
		for _, a := range v.Attributes {
			if err = p.Append(a); err != nil {
				return res, err
			}
		}
		if err = p.Upload(ctx, b.session, node, m, v.Options); err != nil {
			return res, err
		}
		meta.Kind = capture.KindVolume
		meta.Ints = p.Parms(v.Options)
		meta.Floats = v.Options.Range[:]
		meta.Parm = p.Preset(v.Options.Name)
	}

	b.record(ctx, meta, payload)
	return res, nil
}

// NewLayer returns a raster layer backed by the bridge's segments.
func NewLayer[T volume.Sample](b *Bridge, cfg volume.LayerConfig) (*volume.Layer[T], error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return volume.NewLayer[T](b.reg, b.ctrl, cfg)
}

// SyncLayer syncs l over the host extent covered, reading host cells with
// read. It picks a partial upload when the engine already holds the layer.
func SyncLayer[T volume.Sample](ctx context.Context, b *Bridge, l *volume.Layer[T], covered extent.Rect, read volume.Reader[T]) (volume.SyncResult, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return volume.SyncResult{}, ErrClosed
	}

	start := time.Now()
	res, err := l.Sync(ctx, b.session, covered, read)
	cells := res.Region.Area()
	b.metrics.RecordLayerSync(cells, res.Partial, time.Since(start), err)
	b.logger.LogLayerSync(ctx, res.Key, res.Partial, res.Found, cells, err)
	if err != nil {
		return res, commitError("layer", l.Identifier(), res.Key, err)
	}

	kind := capture.KindVolume
	if res.Partial {
		kind = capture.KindVolumePartial
	}
	r := res.Region
	b.record(ctx, capture.Meta{
		Kind: kind,
		Key:  res.Key,
		Node: int32(res.Node),
		Ints: []int32{int32(r.MinX), int32(r.MinY), int32(r.MaxX), int32(r.MaxY)},
	}, nil)
	return res, nil
}

// ReadAttributes reads back every attribute of a cooked node whose name
// starts with prefix. names and ownerCounts come from the engine's
// attribute listing, ordered vertex, point, prim, detail.
func (b *Bridge) ReadAttributes(ctx context.Context, node core.NodeID, part int32, names []string, ownerCounts [core.NumOwners]int, prefix string) ([]*attribute.Record, error) {
	start := time.Now()
	recs, err := attribute.Retrieve(ctx, b.session, node, part, names, ownerCounts, prefix)
	b.metrics.RecordAttributeRead(len(recs), time.Since(start), err)
	b.logger.LogAttributeRead(ctx, node, len(recs), err)
	return recs, err
}

// ReadAttribute reads one attribute back from a cooked node.
func (b *Bridge) ReadAttribute(ctx context.Context, node core.NodeID, part int32, owner core.Owner, name string) (*attribute.Record, error) {
	start := time.Now()
	rec, err := attribute.FromEngine(ctx, b.session, node, part, owner, name)
	n := 0
	if err == nil {
		n = 1
	}
	b.metrics.RecordAttributeRead(n, time.Since(start), err)
	b.logger.LogAttributeRead(ctx, node, n, err)
	return rec, err
}

// record appends a capture record. Capture failures are logged, never
// returned: the commit itself already succeeded.
func (b *Bridge) record(ctx context.Context, meta capture.Meta, payload []byte) {
	if b.capture == nil {
		return
	}
	if err := b.capture.Append(meta, payload); err != nil {
		b.logger.WarnContext(ctx, "capture failed", "key", meta.Key, "error", err)
	}
}

func parmText(p geometry.Parm) string {
	return string(codec.MustMarshal(nil, p))
}

// Close drops every segment of the bridge and closes an owned capture file.
// Nodes are left to the caller.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	slots := b.slots
	b.slots = nil
	b.mu.Unlock()

	segments := b.reg.Len()
	var errs []error
	for _, s := range slots {
		errs = append(errs, s.Close())
	}
	errs = append(errs, b.reg.Close())
	if b.ownsCapture {
		errs = append(errs, b.capture.Close())
	} else if b.capture != nil {
		errs = append(errs, b.capture.Flush())
	}

	err := errors.Join(errs...)
	b.logger.LogClose(ctx, segments, err)
	return err
}

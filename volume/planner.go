package volume

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
	"github.com/hupe1980/geobridge/internal/preset"
	"github.com/hupe1980/geobridge/internal/shm"
)

// Parameter counts of the two commit calls.
const (
	FullParmCount    = 14
	PartialParmCount = 12
)

// Texture flag value sent in the full-upload parameters.
const textureFlag = 5

// Attribute storages used in preset rows.
const (
	attrStorageInt    = 0
	attrStorageFloat  = 1
	attrStorageString = 2
	attrStorageDict   = 3
)

// Attribute is one out-of-band value attached to the whole volume.
type Attribute struct {
	Name      string
	Owner     core.Owner
	Storage   int
	TupleSize int
	Numeric   [4]float32
	Text      string
}

// IsText reports whether the attribute carries a string value.
func (a Attribute) IsText() bool {
	return a.Storage == attrStorageString || a.Storage == attrStorageDict
}

// Planner lays out one raster upload.
type Planner struct {
	dataType DataType
	storage  Storage
	res      Resolution
	attrs    []Attribute

	key  string
	slot *shm.Slot
}

// New plans a raster of the given element type, storage and resolution.
func New(dataType DataType, storage Storage, res Resolution) (*Planner, error) {
	if dataType.Size() == 0 {
		return nil, core.Preconditionf("unknown volume data type %d", dataType)
	}
	if storage.Arity() == 0 {
		return nil, core.Preconditionf("unknown volume storage %d", storage)
	}
	if res.X < 1 || res.Y < 1 || res.Z < 1 {
		return nil, core.Preconditionf("invalid volume resolution %s", res)
	}
	return &Planner{dataType: dataType, storage: storage, res: res}, nil
}

// DataType returns the element type.
func (p *Planner) DataType() DataType { return p.dataType }

// Storage returns the voxel storage.
func (p *Planner) Storage() Storage { return p.storage }

// Resolution returns the voxel resolution.
func (p *Planner) Resolution() Resolution { return p.res }

// SizeBytes returns the raw payload size.
func (p *Planner) SizeBytes() int {
	return p.res.Cells() * p.storage.Arity() * p.dataType.Size()
}

// SizeWords returns the segment size: the payload rounded up to whole words.
func (p *Planner) SizeWords() int { return buffer.WordsForBytes(p.SizeBytes()) }

// Key returns the segment key, empty before GetSharedMemory.
func (p *Planner) Key() string { return p.key }

// Attributes returns the appended attributes in order.
func (p *Planner) Attributes() []Attribute { return p.attrs }

// GetSharedMemory acquires the raster segment through slot. found reports
// that the segment already existed, which is what makes a partial upload
// possible. New segments are zeroed; existing ones keep their content.
func (p *Planner) GetSharedMemory(reg *shm.Registry, slot *shm.Slot, identifier string) (*shm.Mapping, bool, error) {
	if p.slot != nil {
		return nil, false, core.Preconditionf("volume segment %q already acquired", p.key)
	}
	size := p.SizeWords()
	key := reg.KeyFor(identifier, size)
	m, found, err := slot.Acquire(reg, key, size)
	if err != nil {
		return nil, false, err
	}
	p.key = key
	p.slot = slot
	return m, found, nil
}

// NumericAttribute returns an int or float attribute with up to four components.
func NumericAttribute(name string, owner core.Owner, isInt bool, tupleSize int, value [4]float32) Attribute {
	st := attrStorageFloat
	if isInt {
		st = attrStorageInt
	}
	return Attribute{Name: name, Owner: owner, Storage: st, TupleSize: tupleSize, Numeric: value}
}

// TextAttribute returns a string or dictionary attribute.
func TextAttribute(name string, owner core.Owner, isDict bool, value string) Attribute {
	st := attrStorageString
	if isDict {
		st = attrStorageDict
	}
	return Attribute{Name: name, Owner: owner, Storage: st, TupleSize: 1, Text: value}
}

// AppendNumericAttribute attaches a numeric value with up to four components.
func (p *Planner) AppendNumericAttribute(name string, owner core.Owner, isInt bool, tupleSize int, value [4]float32) error {
	return p.Append(NumericAttribute(name, owner, isInt, tupleSize, value))
}

// AppendStringAttribute attaches a string or dictionary value.
func (p *Planner) AppendStringAttribute(name string, owner core.Owner, isDict bool, value string) error {
	return p.Append(TextAttribute(name, owner, isDict, value))
}

// Append attaches a prepared attribute.
func (p *Planner) Append(a Attribute) error {
	if a.Name == "" {
		return core.Preconditionf("volume attribute without a name")
	}
	if !a.Owner.Valid() {
		return core.Preconditionf("volume attribute %q has invalid owner %d", a.Name, a.Owner)
	}
	if a.Storage < attrStorageInt || a.Storage > attrStorageDict {
		return core.Preconditionf("volume attribute %q has storage %d", a.Name, a.Storage)
	}
	if !a.IsText() && (a.TupleSize < 1 || a.TupleSize > 4) {
		return core.Preconditionf("volume attribute %q has tuple size %d", a.Name, a.TupleSize)
	}
	p.attrs = append(p.attrs, a)
	return nil
}

// Parms returns the integer parameters of a full upload.
func (p *Planner) Parms(opts UploadOptions) []int32 {
	out := p.partialParms(opts.Partial, opts.BBox)
	tex := int32(0)
	if opts.Texture {
		tex = textureFlag
	}
	return append(out, tex, int32(len(p.attrs)))
}

func (p *Planner) partialParms(partial bool, box BBox) []int32 {
	flag := int32(0)
	if partial {
		flag = 1
	}
	out := make([]int32, 0, FullParmCount)
	out = append(out,
		int32(p.dataType), int32(p.storage),
		int32(p.res.X), int32(p.res.Y), int32(p.res.Z),
		flag)
	out = append(out, box.Min[:]...)
	return append(out, box.Max[:]...)
}

// Preset returns the preset text of a full upload: the segment key, the volume
// name and five rows per attribute numbered from 1.
func (p *Planner) Preset(name string) string {
	var b preset.Builder
	b.Raw("shmpath", p.key).String("name", name)
	for i, a := range p.attrs {
		n := strconv.Itoa(i + 1)
		b.String("attribname"+n, a.Name).
			Int("owner"+n, int(a.Owner)).
			Int("storage"+n, a.Storage)
		if a.IsText() {
			b.String("stringvalue"+n, a.Text)
			continue
		}
		b.Int("tuplesize"+n, a.TupleSize).
			Floats("numericvalue"+n, a.Numeric[:]...)
	}
	return b.Text()
}

// Upload releases m and commits the whole raster to node: the integer
// parameters, the value range and the preset, in that order. The slot is
// marked committed on success and invalidated on failure.
func (p *Planner) Upload(ctx context.Context, s engine.ParmWriter, node core.NodeID, m *shm.Mapping, opts UploadOptions) error {
	if err := p.release(m); err != nil {
		p.invalidate()
		return err
	}
	if err := p.commit(ctx, s, node, opts); err != nil {
		p.slot.Invalidate()
		return err
	}
	p.slot.MarkCommitted()
	return nil
}

func (p *Planner) commit(ctx context.Context, s engine.ParmWriter, node core.NodeID, opts UploadOptions) error {
	if err := s.SetParmInts(ctx, node, 0, p.Parms(opts)); err != nil {
		return core.WrapCall("SetParmIntValues", node, err)
	}
	if err := s.SetParmFloats(ctx, node, 0, opts.Range[:]); err != nil {
		return core.WrapCall("SetParmFloatValues", node, err)
	}
	if err := s.SetPreset(ctx, node, []byte(p.Preset(opts.Name))); err != nil {
		return core.WrapCall("SetPreset", node, err)
	}
	return nil
}

// PartialUpload releases m and tells node to re-read box from the segment.
//
// It requires a committed full upload through the same segment; without one
// it fails with core.ErrPreconditionViolated before any engine call. Every
// failure invalidates the slot.
func (p *Planner) PartialUpload(ctx context.Context, s engine.ParmWriter, node core.NodeID, m *shm.Mapping, box BBox) error {
	if p.slot == nil || !p.slot.Committed() || p.slot.Key() != p.key {
		p.invalidate()
		return core.Preconditionf("partial upload of %q without a committed full upload", p.key)
	}
	if !p.inBounds(box) {
		p.slot.Invalidate()
		return core.Preconditionf("partial box %v..%v outside %s", box.Min, box.Max, p.res)
	}
	if err := p.release(m); err != nil {
		p.slot.Invalidate()
		return err
	}
	if err := s.SetParmInts(ctx, node, 0, p.partialParms(true, box)); err != nil {
		p.slot.Invalidate()
		return core.WrapCall("SetParmIntValues", node, err)
	}
	return nil
}

func (p *Planner) invalidate() {
	if p.slot != nil {
		p.slot.Invalidate()
	}
}

func (p *Planner) inBounds(box BBox) bool {
	lim := [3]int32{int32(p.res.X), int32(p.res.Y), int32(p.res.Z)}
	for i := range 3 {
		if box.Min[i] < 0 || box.Min[i] > box.Max[i] || box.Max[i] >= lim[i] {
			return false
		}
	}
	return true
}

func (p *Planner) release(m *shm.Mapping) error {
	if p.slot == nil {
		return core.Preconditionf("upload before GetSharedMemory")
	}
	if m == nil || m.Key() != p.key {
		return core.Preconditionf("upload with a mapping of another segment")
	}
	if err := m.Release(); err != nil {
		return fmt.Errorf("release %q: %w", p.key, err)
	}
	return nil
}

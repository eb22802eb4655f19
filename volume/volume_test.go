package volume_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/extent"
	"github.com/hupe1980/geobridge/internal/f16"
	"github.com/hupe1980/geobridge/internal/preset"
	"github.com/hupe1980/geobridge/internal/resource"
	"github.com/hupe1980/geobridge/internal/shm"
	"github.com/hupe1980/geobridge/testutil"
	"github.com/hupe1980/geobridge/volume"
)

func newRegistry(t *testing.T) *shm.Registry {
	t.Helper()
	r := shm.NewRegistry(shm.Options{Dir: t.TempDir(), Scope: "_voltest_"})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestTypes(t *testing.T) {
	sizes := map[volume.DataType]int{
		volume.Uint8: 1, volume.Uint16: 2, volume.Uint: 4, volume.Int: 4,
		volume.Int64: 8, volume.Float16: 2, volume.Float: 4,
	}
	for dt, want := range sizes {
		assert.Equal(t, want, dt.Size(), dt.String())
	}
	assert.Equal(t, 0, volume.DataType(42).Size())

	arity := []int{1, 1, 2, 3, 4}
	for i, want := range arity {
		assert.Equal(t, want, volume.Storage(i).Arity())
	}
}

func TestUpload_Uint16Full(t *testing.T) {
	ctx := t.Context()
	s := testutil.NewFakeSession()
	reg := newRegistry(t)

	p, err := volume.New(volume.Uint16, volume.StorageFloat, volume.Resolution{X: 256, Y: 256, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, 131072, p.SizeBytes())
	assert.Equal(t, 32768, p.SizeWords())

	var slot shm.Slot
	m, found, err := p.GetSharedMemory(reg, &slot, "height")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "_voltest_height_32768", m.Key())
	assert.Len(t, m.Bytes(), 131072)
	for _, v := range volume.View[uint16](m.Bytes()) {
		require.Zero(t, v)
	}

	require.NoError(t, p.AppendNumericAttribute("unreal_scale", core.OwnerDetail, false, 3, [4]float32{1, 2, 3, 0}))
	require.NoError(t, p.AppendStringAttribute("unreal_editlayer", core.OwnerPrim, false, "Base"))

	node, err := volume.CreateNode(ctx, s, core.InvalidNodeID, "height")
	require.NoError(t, err)
	n, _ := s.Node(node)
	assert.Equal(t, "SOP/sharedmemory_volumeinput", n.Operator)

	opts := volume.UploadOptions{Name: "height", Range: [2]float32{-256, 256}}
	require.NoError(t, p.Upload(ctx, s, node, m, opts))
	assert.True(t, m.Released())
	assert.True(t, slot.Committed())

	ints, _ := s.LastInts(node)
	assert.Equal(t, []int32{1, 1, 256, 256, 1, 0, 0, 0, 0, 0, 0, 0, 0, 2}, ints)
	floats, _ := s.LastFloats(node)
	assert.Equal(t, []float32{-256, 256}, floats)

	text, _ := s.LastPreset(node)
	rows, ok := preset.Parse(text)
	require.True(t, ok)
	want := []preset.Row{
		{Name: "shmpath", Value: "_voltest_height_32768"},
		{Name: "name", Value: `"height"`},
		{Name: "attribname1", Value: `"unreal_scale"`},
		{Name: "owner1", Value: "3"},
		{Name: "storage1", Value: "1"},
		{Name: "tuplesize1", Value: "3"},
		{Name: "numericvalue1", Value: "1.0\t2.0\t3.0\t0.0"},
		{Name: "attribname2", Value: `"unreal_editlayer"`},
		{Name: "owner2", Value: "2"},
		{Name: "storage2", Value: "2"},
		{Name: "stringvalue2", Value: `"Base"`},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("preset mismatch (-want +got):\n%s", diff)
	}
}

func TestUpload_TextureAndDict(t *testing.T) {
	s := testutil.NewFakeSession()
	p, err := volume.New(volume.Float, volume.StorageVector3, volume.Resolution{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	assert.Equal(t, 24, p.SizeWords())

	require.NoError(t, p.AppendStringAttribute("meta", core.OwnerDetail, true, `{"a":1}`))
	var slot shm.Slot
	m, _, err := p.GetSharedMemory(newRegistry(t), &slot, "a_rather_long_volume_identifier")
	require.NoError(t, err)
	assert.Equal(t, shm.Key("_voltest_", "a_rather_long_volume_identifier", 24), m.Key())

	require.NoError(t, p.Upload(t.Context(), s, 7, m, volume.UploadOptions{Name: "rgb", Texture: true}))
	ints, _ := s.LastInts(7)
	require.Len(t, ints, volume.FullParmCount)
	assert.Equal(t, int32(5), ints[12])
	assert.Equal(t, int32(1), ints[13])

	rows, _ := preset.Parse(mustPreset(t, s, 7))
	assert.Equal(t, preset.Row{Name: "storage1", Value: "3"}, rows[4])
}

func TestPartialUpload_RequiresCommittedFull(t *testing.T) {
	ctx := t.Context()
	s := testutil.NewFakeSession()
	reg := newRegistry(t)
	var slot shm.Slot

	p, err := volume.New(volume.Uint8, volume.StorageFloat, volume.Resolution{X: 4, Y: 4, Z: 1})
	require.NoError(t, err)
	m, _, err := p.GetSharedMemory(reg, &slot, "mask")
	require.NoError(t, err)

	box := volume.BBox{Min: [3]int32{1, 1, 0}, Max: [3]int32{2, 2, 0}}
	err = p.PartialUpload(ctx, s, 1, m, box)
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	assert.Empty(t, s.Calls("SetParmInts"), "no engine call without a committed full upload")

	require.NoError(t, p.Upload(ctx, s, 1, m, volume.UploadOptions{Name: "mask", Range: [2]float32{0, 1}}))

	p2, err := volume.New(volume.Uint8, volume.StorageFloat, volume.Resolution{X: 4, Y: 4, Z: 1})
	require.NoError(t, err)
	m2, found, err := p2.GetSharedMemory(reg, &slot, "mask")
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, p2.PartialUpload(ctx, s, 1, m2, box))
	ints, _ := s.LastInts(1)
	assert.Equal(t, []int32{0, 1, 4, 4, 1, 1, 1, 1, 0, 2, 2, 0}, ints)
	assert.True(t, slot.Committed())
}

func TestPartialUpload_RejectedBoxInvalidates(t *testing.T) {
	ctx := t.Context()
	s := testutil.NewFakeSession()
	reg := newRegistry(t)
	var slot shm.Slot
	res := volume.Resolution{X: 4, Y: 4, Z: 1}
	opts := volume.UploadOptions{Name: "mask", Range: [2]float32{0, 1}}

	acquire := func() (*volume.Planner, *shm.Mapping) {
		p, err := volume.New(volume.Uint8, volume.StorageFloat, res)
		require.NoError(t, err)
		m, _, err := p.GetSharedMemory(reg, &slot, "mask")
		require.NoError(t, err)
		return p, m
	}

	p, m := acquire()
	require.NoError(t, p.Upload(ctx, s, 1, m, opts))
	calls := len(s.Calls("SetParmInts"))

	p, m = acquire()
	out := volume.BBox{Min: [3]int32{0, 0, 0}, Max: [3]int32{4, 0, 0}}
	assert.ErrorIs(t, p.PartialUpload(ctx, s, 1, m, out), core.ErrPreconditionViolated)
	assert.False(t, slot.Committed(), "the segment may hold unsent writes")
	require.NoError(t, m.Release())

	p, m = acquire()
	box := volume.BBox{Min: [3]int32{1, 1, 0}, Max: [3]int32{2, 2, 0}}
	assert.ErrorIs(t, p.PartialUpload(ctx, s, 1, m, box), core.ErrPreconditionViolated)
	assert.Len(t, s.Calls("SetParmInts"), calls, "no engine call after the rejected box")

	// A full upload restores partial updates.
	require.NoError(t, p.Upload(ctx, s, 1, m, opts))
	p, m = acquire()
	require.NoError(t, p.PartialUpload(ctx, s, 1, m, box))
	assert.True(t, slot.Committed())
}

func TestUpload_FailureInvalidatesSlot(t *testing.T) {
	s := testutil.NewFakeSession()
	s.FailOn("SetPreset", nil)
	var slot shm.Slot

	p, err := volume.New(volume.Uint8, volume.StorageFloat, volume.Resolution{X: 2, Y: 2, Z: 1})
	require.NoError(t, err)
	m, _, err := p.GetSharedMemory(newRegistry(t), &slot, "fail")
	require.NoError(t, err)

	err = p.Upload(t.Context(), s, 3, m, volume.UploadOptions{})
	assert.ErrorIs(t, err, core.ErrEngineCallFailed)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	var ce *core.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "SetPreset", ce.Op)
	assert.False(t, slot.Committed())
}

func TestNew_Validation(t *testing.T) {
	_, err := volume.New(volume.DataType(9), volume.StorageFloat, volume.Resolution{X: 1, Y: 1, Z: 1})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	_, err = volume.New(volume.Float, volume.Storage(9), volume.Resolution{X: 1, Y: 1, Z: 1})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	_, err = volume.New(volume.Float, volume.StorageFloat, volume.Resolution{X: 0, Y: 1, Z: 1})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)

	p, err := volume.New(volume.Float, volume.StorageFloat, volume.Resolution{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, p.AppendNumericAttribute("", core.OwnerDetail, true, 1, [4]float32{}), core.ErrPreconditionViolated)
	assert.ErrorIs(t, p.AppendNumericAttribute("x", core.OwnerDetail, true, 5, [4]float32{}), core.ErrPreconditionViolated)
	assert.ErrorIs(t, p.AppendStringAttribute("x", core.OwnerInvalid, false, ""), core.ErrPreconditionViolated)
	assert.Empty(t, p.Attributes())
}

func TestWriteSwapped(t *testing.T) {
	// Host raster 3 wide, 2 tall; engine index is x*sizeY + y.
	dst := make([]uint16, 6)
	src := []uint16{
		1, 2, 3,
		4, 5, 6,
	}
	ctrl := resource.NewController(resource.Config{MaxWorkers: 2})
	require.NoError(t, volume.WriteSwapped(t.Context(), ctrl, dst, src, volume.Region{Width: 3, Height: 2, SizeY: 2}))
	assert.Equal(t, []uint16{1, 4, 2, 5, 3, 6}, dst)

	// A 1x1 block at host (2, 1).
	require.NoError(t, volume.WriteSwapped(t.Context(), nil, dst, []uint16{9}, volume.Region{X0: 2, Y0: 1, Width: 1, Height: 1, SizeY: 2}))
	assert.Equal(t, []uint16{1, 4, 2, 5, 3, 9}, dst)

	err := volume.WriteSwapped(t.Context(), nil, dst, []uint16{9}, volume.Region{X0: 3, Width: 1, Height: 1, SizeY: 2})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	err = volume.WriteSwapped(t.Context(), nil, dst, []uint16{9, 9}, volume.Region{Width: 1, Height: 1, SizeY: 2})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
}

func TestWriteSwapped_ManyRows(t *testing.T) {
	const w, h = 17, 300
	src := make([]float32, w*h)
	for i := range src {
		src[i] = float32(i)
	}
	dst := make([]float32, w*h)
	ctrl := resource.NewController(resource.Config{MaxWorkers: 4})
	require.NoError(t, volume.WriteSwapped(t.Context(), ctrl, dst, src, volume.Region{Width: w, Height: h, SizeY: h}))
	for y := range h {
		for x := range w {
			require.Equal(t, src[y*w+x], dst[x*h+y])
		}
	}
}

func TestWriteSwapped_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	dst := make([]uint8, 4)
	err := volume.WriteSwapped(ctx, nil, dst, []uint8{1, 2, 3, 4}, volume.Region{Width: 2, Height: 2, SizeY: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeFloat16(t *testing.T) {
	dst := make([]byte, 6)
	require.NoError(t, volume.EncodeFloat16(dst, []float32{1, -2, 0.5}))
	assert.Equal(t, []float32{1, -2, 0.5}, f16.Slice(dst))
	assert.ErrorIs(t, volume.EncodeFloat16(dst[:4], []float32{1, 2, 3}), core.ErrPreconditionViolated)
}

func mustPreset(t *testing.T, s *testutil.FakeSession, node core.NodeID) string {
	t.Helper()
	text, ok := s.LastPreset(node)
	require.True(t, ok)
	return text
}

// grid is a host raster with row-major storage.
type grid struct {
	w, h  int
	cells []uint16
	reads []extent.Rect
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([]uint16, w*h)}
	for y := range h {
		for x := range w {
			g.cells[y*w+x] = uint16(y*10 + x + 1)
		}
	}
	return g
}

func (g *grid) read(_ context.Context, r extent.Rect) ([]uint16, error) {
	g.reads = append(g.reads, r)
	out := make([]uint16, 0, r.Area())
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, g.cells[y*g.w+x])
		}
	}
	return out, nil
}

// engineCells maps the layer's segment and returns it in engine order.
func engineCells(t *testing.T, reg *shm.Registry, key string, sizeWords int) []uint16 {
	t.Helper()
	m, h, _, err := reg.Acquire(key, sizeWords)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	defer func() { _ = m.Release() }()
	return append([]uint16(nil), volume.View[uint16](m.Bytes())...)
}

package volume_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/extent"
	"github.com/hupe1980/geobridge/internal/preset"
	"github.com/hupe1980/geobridge/testutil"
	"github.com/hupe1980/geobridge/volume"
)

func newLayer(t *testing.T) (*volume.Layer[uint16], *testutil.FakeSession) {
	t.Helper()
	l, err := volume.NewLayer[uint16](newRegistry(t), nil, volume.LayerConfig{
		Identifier: "height",
		Name:       "height",
		DataType:   volume.Uint16,
		Range:      [2]float32{-256, 256},
		Parent:     core.InvalidNodeID,
		Attributes: []volume.Attribute{
			volume.TextAttribute("unreal_landscape_editlayer_name", core.OwnerPrim, false, "Base"),
		},
	})
	require.NoError(t, err)
	return l, testutil.NewFakeSession()
}

func TestNewLayer_Validation(t *testing.T) {
	_, err := volume.NewLayer[uint8](nil, nil, volume.LayerConfig{Identifier: "h", DataType: volume.Uint16})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
	_, err = volume.NewLayer[uint8](nil, nil, volume.LayerConfig{DataType: volume.Uint8})
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
}

func TestLayer_FirstSyncIsFull(t *testing.T) {
	l, s := newLayer(t)
	g := newGrid(4, 3)
	covered := extent.New(0, 0, 3, 2)

	l.NotifyChanged(extent.Cell(1, 1))
	l.NotifyChanged(extent.Cell(2, 2))
	assert.Equal(t, extent.New(1, 1, 2, 2), l.Tracker().Peek())

	res, err := l.Sync(t.Context(), s, covered, g.read)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.Partial)
	assert.Equal(t, covered, res.Region)
	assert.True(t, l.Tracker().Peek().IsEmpty(), "tracker is consumed by the full path too")
	assert.True(t, l.Committed())
	assert.True(t, res.Node.Valid())
	assert.Equal(t, []extent.Rect{covered}, g.reads)

	// Engine X runs along host rows: resolution (3, 4, 1).
	ints, _ := s.LastInts(res.Node)
	assert.Equal(t, []int32{1, 1, 3, 4, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1}, ints)
	text, _ := s.LastPreset(res.Node)
	rows, ok := preset.Parse(text)
	require.True(t, ok)
	assert.Equal(t, `"unreal_landscape_editlayer_name"`, rows[2].Value)
}

func TestLayer_PartialSync(t *testing.T) {
	ctx := t.Context()
	reg := newRegistry(t)
	l, err := volume.NewLayer[uint16](reg, nil, volume.LayerConfig{
		Identifier: "height", Name: "height", DataType: volume.Uint16, Parent: core.InvalidNodeID,
	})
	require.NoError(t, err)
	s := testutil.NewFakeSession()
	g := newGrid(4, 3)
	covered := extent.New(0, 0, 3, 2)

	full, err := l.Sync(ctx, s, covered, g.read)
	require.NoError(t, err)

	g.cells[1*4+2] = 99
	l.NotifyChanged(extent.Cell(2, 1))

	res, err := l.Sync(ctx, s, covered, g.read)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Partial)
	assert.Equal(t, full.Node, res.Node, "the node is reused")
	assert.Equal(t, extent.Cell(2, 1), res.Region)
	assert.Equal(t, extent.Cell(2, 1), g.reads[len(g.reads)-1])

	ints, _ := s.LastInts(res.Node)
	assert.Equal(t, []int32{1, 1, 3, 4, 1, 1, 1, 2, 0, 1, 2, 0}, ints)
	assert.Len(t, s.Calls("SetPreset"), 1, "partial syncs send no preset")

	cells := engineCells(t, reg, l.Key(), res.SizeWords)
	for y := range 3 {
		for x := range 4 {
			assert.Equal(t, g.cells[y*4+x], cells[x*3+y], "cell (%d,%d)", x, y)
		}
	}

	// Nothing changed: the next sync is full again.
	res, err = l.Sync(ctx, s, covered, g.read)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Partial)
}

func TestLayer_CoveredChangeForcesFull(t *testing.T) {
	ctx := t.Context()
	l, s := newLayer(t)
	g := newGrid(8, 8)

	_, err := l.Sync(ctx, s, extent.New(0, 0, 3, 3), g.read)
	require.NoError(t, err)

	l.NotifyChanged(extent.Cell(1, 1))
	res, err := l.Sync(ctx, s, extent.New(0, 0, 7, 3), g.read)
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.False(t, res.Found, "a new size is a new segment")
	assert.Equal(t, extent.New(0, 0, 7, 3), l.Covered())

	// Same size, shifted: the segment exists but its content is stale.
	l.NotifyChanged(extent.Cell(1, 5))
	res, err = l.Sync(ctx, s, extent.New(0, 4, 7, 7), g.read)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Partial)
}

func TestLayer_FailureForcesFull(t *testing.T) {
	ctx := t.Context()
	l, s := newLayer(t)
	g := newGrid(4, 4)
	covered := extent.New(0, 0, 3, 3)

	_, err := l.Sync(ctx, s, covered, g.read)
	require.NoError(t, err)

	s.FailOn("SetParmInts", nil)
	l.NotifyChanged(extent.Cell(0, 0))
	res, err := l.Sync(ctx, s, covered, g.read)
	assert.ErrorIs(t, err, core.ErrEngineCallFailed)
	assert.True(t, res.Partial)
	assert.False(t, l.Committed())

	s.Heal()
	l.NotifyChanged(extent.Cell(1, 1))
	res, err = l.Sync(ctx, s, covered, g.read)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Partial)
	assert.True(t, l.Committed())
}

func TestLayer_Close(t *testing.T) {
	ctx := t.Context()
	l, s := newLayer(t)
	g := newGrid(2, 2)

	_, err := l.Sync(ctx, s, extent.New(0, 0, 1, 1), g.read)
	require.NoError(t, err)
	require.Equal(t, 1, s.NumNodes())

	require.NoError(t, l.Close(ctx, s))
	assert.Equal(t, 0, s.NumNodes())
	assert.False(t, l.Node().Valid())
	assert.False(t, l.Committed())
	assert.Empty(t, l.Key())

	_, err = l.Sync(ctx, s, extent.Empty, g.read)
	assert.ErrorIs(t, err, core.ErrPreconditionViolated)
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geobridge/core"
)

func TestFakeSession_Nodes(t *testing.T) {
	s := NewFakeSession()
	ctx := t.Context()

	root, err := s.CreateNode(ctx, core.InvalidNodeID, "SOP/sharedmemory_geometryinput", "mesh")
	require.NoError(t, err)
	child, err := s.CreateNode(ctx, root, "sharedmemory_volumeinput", "height")
	require.NoError(t, err)
	assert.NotEqual(t, root, child)

	n, ok := s.Node(child)
	require.True(t, ok)
	assert.Equal(t, root, n.Parent)
	assert.Equal(t, "height", n.Label)

	_, err = s.CreateNode(ctx, 99, "x", "")
	assert.Error(t, err)

	require.NoError(t, s.DeleteNode(ctx, child))
	assert.Equal(t, 1, s.NumNodes())
	assert.Error(t, s.DeleteNode(ctx, child))
}

func TestFakeSession_Parms(t *testing.T) {
	s := NewFakeSession()
	ctx := t.Context()

	require.NoError(t, s.SetParmInts(ctx, 3, 0, []int32{1, 2}))
	require.NoError(t, s.SetParmInts(ctx, 3, 0, []int32{4}))
	require.NoError(t, s.SetParmFloats(ctx, 3, 0, []float32{0.5}))
	require.NoError(t, s.SetParmString(ctx, 3, 0, "{}"))
	require.NoError(t, s.SetPreset(ctx, 3, []byte("p")))

	ints, ok := s.LastInts(3)
	require.True(t, ok)
	assert.Equal(t, []int32{4}, ints)
	floats, _ := s.LastFloats(3)
	assert.Equal(t, []float32{0.5}, floats)
	str, _ := s.LastString(3)
	assert.Equal(t, "{}", str)
	preset, _ := s.LastPreset(3)
	assert.Equal(t, "p", preset)
	assert.Len(t, s.Calls("SetParmInts"), 2)

	_, ok = s.LastInts(4)
	assert.False(t, ok)

	s.FailOn("SetParmInts", nil)
	assert.ErrorIs(t, s.SetParmInts(ctx, 3, 0, nil), ErrInjected)
	s.Heal()
	assert.NoError(t, s.SetParmInts(ctx, 3, 0, nil))

	s.Reset()
	assert.Empty(t, s.Calls(""))
}

func TestFakeSession_StringInterning(t *testing.T) {
	s := NewFakeSession()
	s.AddStringAttribute(1, 0, core.OwnerPoint, "name", false, []string{"A", "B", "A"})

	info, err := s.AttributeInfo(t.Context(), 1, 0, "name", core.OwnerPoint)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, 3, info.Count)

	handles, err := s.StringData(t.Context(), 1, 0, "name", info)
	require.NoError(t, err)
	assert.Equal(t, handles[0], handles[2])
	assert.NotEqual(t, handles[0], handles[1])

	values, err := s.StringValues(t.Context(), handles)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A"}, values)

	missing, err := s.AttributeInfo(t.Context(), 1, 0, "nope", core.OwnerPoint)
	require.NoError(t, err)
	assert.False(t, missing.Exists)
}

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(7).Points(4)
	b := NewRNG(7).Points(4)
	assert.Equal(t, a, b)
	assert.Len(t, a, 12)
	for _, v := range a {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}

	r := NewRNG(7)
	g1 := r.Grid(3, 2)
	r.Reset()
	assert.Equal(t, g1, r.Grid(3, 2))
	assert.Len(t, r.Uint16Grid(4, 4), 16)
	for _, l := range r.Labels(10, "a", "b") {
		assert.Contains(t, []string{"a", "b"}, l)
	}
}

package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
	"github.com/hupe1980/geobridge/testutil"
)

func TestCreateSOP(t *testing.T) {
	ctx := t.Context()
	s := testutil.NewFakeSession()

	top, err := engine.CreateSOP(ctx, s, core.InvalidNodeID, engine.VolumeInputOperator, "height")
	require.NoError(t, err)
	n, ok := s.Node(top)
	require.True(t, ok)
	assert.Equal(t, "SOP/sharedmemory_volumeinput", n.Operator)
	assert.Equal(t, "height", n.Label)

	child, err := engine.CreateSOP(ctx, s, top, engine.GeometryInputOperator, "mesh")
	require.NoError(t, err)
	n, _ = s.Node(child)
	assert.Equal(t, "sharedmemory_geometryinput", n.Operator, "no prefix under a parent")
	assert.Equal(t, top, n.Parent)
}

func TestCreateSOP_Failure(t *testing.T) {
	s := testutil.NewFakeSession()
	s.FailOn("CreateNode", nil)

	id, err := engine.CreateSOP(t.Context(), s, core.InvalidNodeID, engine.GeometryInputOperator, "mesh")
	assert.ErrorIs(t, err, core.ErrEngineCallFailed)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.False(t, id.Valid())
}

func TestDeleteNode(t *testing.T) {
	ctx := t.Context()
	s := testutil.NewFakeSession()

	require.NoError(t, engine.DeleteNode(ctx, s, core.InvalidNodeID))
	assert.Empty(t, s.Calls("DeleteNode"), "invalid ids are not sent")

	id, err := engine.CreateSOP(ctx, s, core.InvalidNodeID, engine.GeometryInputOperator, "mesh")
	require.NoError(t, err)
	require.NoError(t, engine.DeleteNode(ctx, s, id))
	assert.Equal(t, 0, s.NumNodes())

	err = engine.DeleteNode(ctx, s, id)
	assert.ErrorIs(t, err, core.ErrEngineCallFailed)
}

func TestUniqueLabel(t *testing.T) {
	a := engine.UniqueLabel("height")
	b := engine.UniqueLabel("height")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "height_"))
	assert.Len(t, a, len("height_")+8)
	assert.Len(t, engine.UniqueLabel(""), 8)
}

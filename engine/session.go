package engine

import (
	"context"

	"github.com/hupe1980/geobridge/core"
)

// AttributeReader is the subset of a session used to read attributes back
// from cooked engine geometry.
type AttributeReader interface {
	// AttributeInfo describes the named attribute on the given owner.
	AttributeInfo(ctx context.Context, node core.NodeID, part int32, name string, owner core.Owner) (core.AttributeInfo, error)

	// IntData returns info.Count*info.TupleSize values.
	IntData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]int32, error)

	// FloatData returns info.Count*info.TupleSize values.
	FloatData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]float32, error)

	// StringData returns one handle per element. Dictionary storages are read
	// through the same call.
	StringData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]core.StringHandle, error)

	// IntArrayData returns the flattened values and the per-element value counts
	// (array length times tuple size).
	IntArrayData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]int32, []int32, error)

	// FloatArrayData is the float counterpart of IntArrayData.
	FloatArrayData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]float32, []int32, error)

	// StringArrayData is the string-handle counterpart of IntArrayData.
	StringArrayData(ctx context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]core.StringHandle, []int32, error)

	// StringValues resolves handles to their text, preserving order.
	StringValues(ctx context.Context, handles []core.StringHandle) ([]string, error)
}

// ParmWriter is the subset of a session used to commit uploads.
type ParmWriter interface {
	// SetParmString sets a string parameter value by parameter id.
	SetParmString(ctx context.Context, node core.NodeID, parmID int32, value string) error

	// SetParmInts sets count=len(values) consecutive int parameter values starting at start.
	SetParmInts(ctx context.Context, node core.NodeID, start int32, values []int32) error

	// SetParmFloats sets consecutive float parameter values starting at start.
	SetParmFloats(ctx context.Context, node core.NodeID, start int32, values []float32) error

	// SetPreset applies a binary preset blob to the node.
	SetPreset(ctx context.Context, node core.NodeID, preset []byte) error
}

// NodeManager is the subset of a session used to create and delete nodes.
type NodeManager interface {
	// CreateNode creates an operator. A non-valid parent creates a top-level
	// node and operator must then carry its context prefix (e.g. "SOP/").
	CreateNode(ctx context.Context, parent core.NodeID, operator, label string) (core.NodeID, error)

	// DeleteNode removes a node.
	DeleteNode(ctx context.Context, node core.NodeID) error
}

// Session is the opaque engine connection the planners call into.
//
// Implementations are not required to be safe for concurrent use; every
// planner drives its session from a single goroutine.
type Session interface {
	NodeManager
	ParmWriter
	AttributeReader
}

package core

// NodeID identifies a node inside an engine session.
// Negative values mean "no node yet".
type NodeID int32

// InvalidNodeID is the id of a node that has not been created.
const InvalidNodeID NodeID = -1

// Valid reports whether the id refers to a created node.
func (id NodeID) Valid() bool { return id >= 0 }

// StringHandle is an engine-side reference to an interned string. Handles
// are only meaningful within the session that returned them.
type StringHandle int32

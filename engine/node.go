package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/geobridge/core"
)

// Operator type names of the shared-memory input nodes.
const (
	GeometryInputOperator = "sharedmemory_geometryinput"
	VolumeInputOperator   = "sharedmemory_volumeinput"
)

// CreateSOP creates a SOP operator under parent. Without a valid parent the
// operator is created at top level with its "SOP/" context prefix.
func CreateSOP(ctx context.Context, s NodeManager, parent core.NodeID, operator, label string) (core.NodeID, error) {
	op := operator
	if !parent.Valid() {
		op = "SOP/" + operator
	}
	id, err := s.CreateNode(ctx, parent, op, label)
	if err != nil {
		return core.InvalidNodeID, core.WrapCall("CreateNode", parent, err)
	}
	return id, nil
}

// DeleteNode deletes node if it is valid.
func DeleteNode(ctx context.Context, s NodeManager, node core.NodeID) error {
	if !node.Valid() {
		return nil
	}
	return core.WrapCall("DeleteNode", node, s.DeleteNode(ctx, node))
}

// UniqueLabel derives a node label that will not collide with earlier ones,
// e.g. "height_1f0c2a9b".
func UniqueLabel(base string) string {
	id := uuid.New()
	suffix := strings.ReplaceAll(id.String(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "_" + suffix
}

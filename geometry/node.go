package geometry

import (
	"context"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
)

// CreateNode creates the shared-memory geometry input node under parent.
func CreateNode(ctx context.Context, s engine.NodeManager, parent core.NodeID, label string) (core.NodeID, error) {
	return engine.CreateSOP(ctx, s, parent, engine.GeometryInputOperator, label)
}

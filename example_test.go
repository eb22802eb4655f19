package geobridge_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/geobridge"
	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/extent"
	"github.com/hupe1980/geobridge/geometry"
	"github.com/hupe1980/geobridge/testutil"
	"github.com/hupe1980/geobridge/volume"
)

// Example_commitGeometry uploads a single quad.
func Example_commitGeometry() {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "geobridge")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	b, err := geobridge.New(ctx, testutil.NewFakeSession(),
		geobridge.WithProcessScope("_example_"),
		geobridge.WithSharedMemoryDir(dir),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close(ctx)

	node, err := b.CreateGeometryNode(ctx, core.InvalidNodeID, "quad")
	if err != nil {
		log.Fatal(err)
	}

	var topo geometry.Topology
	topo.AddPolygon(0, 1, 2, 3)
	parm, err := b.CommitGeometry(ctx, node, "quad", geobridge.Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Topology:  &topo,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(parm.Path, parm.NumPoints, parm.NumPrims)
	// Output: _example_quad_1024 4 1
}

// Example_syncLayer sends a full raster first and only the edited cell after.
func Example_syncLayer() {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "geobridge")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	b, err := geobridge.New(ctx, testutil.NewFakeSession(),
		geobridge.WithProcessScope("_example_"),
		geobridge.WithSharedMemoryDir(dir),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close(ctx)

	layer, err := geobridge.NewLayer[uint8](b, volume.LayerConfig{
		Identifier: "mask",
		Name:       "mask",
		DataType:   volume.Uint8,
		Parent:     core.InvalidNodeID,
	})
	if err != nil {
		log.Fatal(err)
	}

	read := func(_ context.Context, r extent.Rect) ([]uint8, error) {
		return make([]uint8, r.Area()), nil
	}
	covered := extent.New(0, 0, 63, 63)

	for range 2 {
		res, err := geobridge.SyncLayer(ctx, b, layer, covered, read)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Key, res.Partial, res.Region.Area())
		layer.NotifyChanged(extent.Cell(5, 7))
	}
	// Output:
	// _example_mask_1024 false 4096
	// _example_mask_1024 true 1
}

// Package geobridge moves mesh and raster data into a procedural geometry
// engine through shared memory.
//
// The engine's per-element API is slow, so the bridge plans a binary buffer,
// writes it into a named shared-memory segment and commits a small
// descriptor that tells the engine where to find each section.
//
// # Quick Start
//
//	b, _ := geobridge.New(ctx, session, geobridge.WithLogger(geobridge.NewTextLogger(slog.LevelDebug)))
//	defer b.Close(ctx)
//
//	node, _ := b.CreateGeometryNode(ctx, parent, "mesh")
//	var topo geometry.Topology
//	topo.AddPolygon(0, 1, 2, 3)
//	cd, _ := attribute.NewFloat("Cd", core.OwnerPoint, 3, colors)
//	_, _ = b.CommitGeometry(ctx, node, "mesh", geobridge.Geometry{
//	    Positions:  positions,
//	    Topology:   &topo,
//	    Attributes: []attribute.Uploadable{cd},
//	})
//
// # Rasters
//
// Dense rasters go through CommitVolume, or through a Layer that tracks
// edited cells and re-sends only the changed rectangle once the engine holds
// a full copy:
//
//	layer, _ := geobridge.NewLayer[uint16](b, volume.LayerConfig{
//	    Identifier: "height", Name: "height", DataType: volume.Uint16,
//	})
//	layer.NotifyChanged(extent.New(10, 10, 20, 20))
//	_, _ = geobridge.SyncLayer(ctx, b, layer, covered, readHeights)
//
// # Failures
//
// The first failing step aborts a commit. Segments are left as they are,
// but a failed commit always forces the next upload of the same channel to
// be full. Errors wrap the sentinels of this package and match with
// errors.Is; CommitError names the failed upload.
//
// # Capture
//
// WithCaptureFile records every successful commit, including the segment
// bytes, to a compressed file that package capture can read back.
package geobridge

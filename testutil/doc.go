// Package testutil provides fakes and generators for tests.
//
// FakeSession implements engine.Session in memory: it hands out node ids,
// records every parameter call and serves attributes registered by the test.
//
//	s := testutil.NewFakeSession()
//	node, _ := geometry.CreateNode(ctx, s, core.InvalidNodeID, "mesh")
//	...
//	parm := s.LastString(node)
//
// RNG generates deterministic points, rasters and labels.
package testutil

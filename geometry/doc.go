// Package geometry plans, fills and commits shared-memory geometry uploads.
//
// A Planner is declared with element counts and attribute blocks, sized into
// a page-aligned segment, written through a Writer and finally committed to a
// geometry input node as a JSON descriptor:
//
//	p, _ := geometry.New(len(points), topo.NumPrims(), topo.NumVertices())
//	p.AppendRecord(normals, "")
//
//	w, err := p.GetSharedMemory(reg, &slot, "mesh")
//	w.WritePositions(points)
//	w.WriteTopology(topo.Indices())
//	w.WriteAttribute(normals)
//
//	err = p.Upload(ctx, session, node, w)
//
// The plan moves strictly forward from declaring to sized, writing and
// committed; any step out of order fails with core.ErrPreconditionViolated.
package geometry

// Package buffer provides the explicit write cursor used to fill shared-memory
// upload buffers.
//
// A planner sizes a buffer from the declared attributes and records the word
// offset of each one. Writers then pass a single Cursor through every write in
// declaration order; Expect turns "offsets must match declaration order" into a
// runtime check instead of a convention:
//
//	c := buffer.NewCursor(mem)
//	_ = c.PutFloat32s(positions)
//	if err := c.Expect(desc.OffsetWords); err != nil { ... }
//	_ = rec.WriteTo(c)
package buffer

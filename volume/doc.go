// Package volume plans and commits dense raster uploads.
//
// A Planner sizes a shared-memory segment for a fixed resolution and element
// type, collects small out-of-band attributes and commits the raster either in
// full or, once a full upload went through the same segment, as a partial
// update of a bounding box. Layer drives that choice for one raster layer from
// the changed extent tracked between syncs.
//
// The engine indexes rasters column-major relative to the host: host cell
// (x, y) lives at engine index x*sizeY + y. WriteSwapped performs the
// transposition while writing.
package volume

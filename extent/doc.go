// Package extent tracks which part of a raster changed since its last upload.
//
// Rect is an inclusive cell rectangle with Empty as the identity of Union.
// A Tracker accumulates notified rectangles until the upload path consumes
// them; a non-empty extent lets the volume path send a partial upload.
package extent

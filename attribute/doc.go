// Package attribute normalizes per-element attribute values and encodes them
// into upload blocks.
//
// A Record holds one attribute of one owner as ints, floats or a
// de-duplicated string table, optionally as variable-length arrays. Records
// are built from host values with the New* constructors or read back from
// the engine with FromEngine and Retrieve. Float, Int and String coerce
// between kinds.
//
// Descriptor and WriteTo turn a record into a block the geometry planner can
// place; the block is compressed by construction:
//
//	numeric scalar   unique when exactly one tuple is stored
//	numeric array    unique when there is exactly one element
//	string / dict    unique with one distinct value, indexed with two or more
//
// Group encodes a membership set backed by a roaring bitmap.
package attribute

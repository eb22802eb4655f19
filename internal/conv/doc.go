// Package conv provides checked integer conversions and the float text form
// used in engine parameters.
//
// Counts and sizes travel to the engine as 32-bit values; converting through
// these helpers turns an overflow into an error instead of a silent wrap.
package conv

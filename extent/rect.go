package extent

import (
	"fmt"
	"math"
)

// Rect is an inclusive cell rectangle [Min, Max] on a raster.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Empty is the identity of Union; it covers no cell.
var Empty = Rect{MinX: math.MaxInt, MinY: math.MaxInt, MaxX: math.MinInt, MaxY: math.MinInt}

// New returns the rectangle spanning both corners in any order.
func New(x0, y0, x1, y1 int) Rect {
	return Rect{MinX: min(x0, x1), MinY: min(y0, y1), MaxX: max(x0, x1), MaxY: max(y0, y1)}
}

// Cell returns the rectangle covering the single cell (x, y).
func Cell(x, y int) Rect { return Rect{MinX: x, MinY: y, MaxX: x, MaxY: y} }

// IsEmpty reports whether r covers no cell.
func (r Rect) IsEmpty() bool { return r.MinX > r.MaxX || r.MinY > r.MaxY }

// Width returns the number of columns covered.
func (r Rect) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxX - r.MinX + 1
}

// Height returns the number of rows covered.
func (r Rect) Height() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxY - r.MinY + 1
}

// Area returns the number of cells covered.
func (r Rect) Area() int { return r.Width() * r.Height() }

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	switch {
	case r.IsEmpty():
		return o
	case o.IsEmpty():
		return r
	}
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Intersect returns the overlap, Empty if none.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		MinX: max(r.MinX, o.MinX),
		MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX),
		MaxY: min(r.MaxY, o.MaxY),
	}
	if out.IsEmpty() {
		return Empty
	}
	return out
}

// Contains reports whether o lies within r. Every rectangle contains Empty.
func (r Rect) Contains(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return o.MinX >= r.MinX && o.MinY >= r.MinY && o.MaxX <= r.MaxX && o.MaxY <= r.MaxY
}

// Translate shifts r by (dx, dy). Empty stays empty.
func (r Rect) Translate(dx, dy int) Rect {
	if r.IsEmpty() {
		return Empty
	}
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

func (r Rect) String() string {
	if r.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

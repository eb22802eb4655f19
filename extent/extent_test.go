package extent

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_Empty(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	assert.Equal(t, Rect{math.MaxInt, math.MaxInt, math.MinInt, math.MinInt}, Empty)
	assert.Zero(t, Empty.Width())
	assert.Zero(t, Empty.Height())
	assert.Zero(t, Empty.Area())
	assert.Equal(t, "empty", Empty.String())
}

func TestRect_Inclusive(t *testing.T) {
	r := New(10, 20, 5, 8)
	assert.Equal(t, Rect{MinX: 5, MinY: 8, MaxX: 10, MaxY: 20}, r)
	assert.Equal(t, 6, r.Width())
	assert.Equal(t, 13, r.Height())
	assert.Equal(t, 78, r.Area())
	assert.Equal(t, 1, Cell(3, 4).Area())
}

func TestRect_Union(t *testing.T) {
	a := New(0, 0, 4, 4)
	b := New(2, 3, 9, 6)

	assert.Equal(t, New(0, 0, 9, 6), a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
	assert.Equal(t, a, a.Union(Empty))
	assert.Equal(t, a, Empty.Union(a))
	assert.Equal(t, a, a.Union(a))
	assert.True(t, Empty.Union(Empty).IsEmpty())

	c := Cell(-3, 12)
	assert.Equal(t, a.Union(b).Union(c), a.Union(b.Union(c)))
}

func TestRect_IntersectContains(t *testing.T) {
	a := New(0, 0, 4, 4)
	assert.Equal(t, New(2, 2, 4, 4), a.Intersect(New(2, 2, 8, 8)))
	assert.True(t, a.Intersect(New(5, 5, 6, 6)).IsEmpty())

	assert.True(t, a.Contains(New(1, 1, 3, 3)))
	assert.True(t, a.Contains(a))
	assert.False(t, a.Contains(New(1, 1, 5, 3)))
	assert.True(t, a.Contains(Empty))
	assert.False(t, Empty.Contains(a))
}

func TestRect_Translate(t *testing.T) {
	assert.Equal(t, New(3, -1, 5, 1), New(0, 0, 2, 2).Translate(3, -1))
	assert.True(t, Empty.Translate(1, 1).IsEmpty())
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Peek().IsEmpty())
	assert.True(t, tr.Consume().IsEmpty())

	tr.NotifyChanged(New(4, 4, 6, 6))
	assert.Equal(t, New(4, 4, 6, 6), tr.Peek())

	tr.NotifyChanged(Cell(10, 1))
	assert.Equal(t, New(4, 1, 10, 6), tr.Peek())

	assert.Equal(t, New(4, 1, 10, 6), tr.Consume())
	assert.True(t, tr.Peek().IsEmpty())

	// After a reset the next notification assigns rather than unions.
	tr.NotifyChanged(New(0, 0, 100, 100))
	tr.Reset()
	tr.NotifyChanged(Cell(7, 7))
	assert.Equal(t, Cell(7, 7), tr.Consume())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.NotifyChanged(Cell(i, 2*i))
		}()
	}
	wg.Wait()
	assert.Equal(t, New(0, 0, 31, 62), tr.Consume())
}

package attribute

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/core"
)

// Group is a named membership set over count elements of one owner.
// It uploads as one int (0 or 1) per element, or as a single word when every
// element shares the same membership.
type Group struct {
	name    string
	owner   core.Owner
	count   int
	members *roaring.Bitmap
}

// NewGroup builds a group. Members must be smaller than count; nil members
// means an empty group.
func NewGroup(name string, owner core.Owner, count int, members *roaring.Bitmap) (*Group, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: group %q has negative count %d", ErrInvalidRecord, name, count)
	}
	if members == nil {
		members = roaring.New()
	}
	if !members.IsEmpty() && int(members.Maximum()) >= count {
		return nil, fmt.Errorf("%w: group %q member %d out of range [0,%d)", ErrInvalidRecord, name, members.Maximum(), count)
	}
	return &Group{name: name, owner: owner, count: count, members: members}, nil
}

// NewGroupOf builds a group from explicit member indices.
func NewGroupOf(name string, owner core.Owner, count int, members ...uint32) (*Group, error) {
	return NewGroup(name, owner, count, roaring.BitmapOf(members...))
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Owner returns the owner the membership attaches to.
func (g *Group) Owner() core.Owner { return g.owner }

// Len returns the number of elements covered.
func (g *Group) Len() int { return g.count }

// Contains reports whether element i is a member.
func (g *Group) Contains(i int) bool {
	return i >= 0 && i < g.count && g.members.Contains(uint32(i))
}

// Cardinality returns the number of members.
func (g *Group) Cardinality() int { return int(g.members.GetCardinality()) }

func (g *Group) uniform() bool {
	n := g.Cardinality()
	return n == 0 || n == g.count
}

// Descriptor declares the group block.
func (g *Group) Descriptor(prefix string) Descriptor {
	d := Descriptor{
		Name:    prefix + g.name,
		Owner:   g.owner,
		Storage: StorageGroup,
	}
	if g.uniform() {
		d.SizeWords = 1
		d.Compression = CompressionUniqueValue
	} else {
		d.SizeWords = g.count
	}
	return d
}

// WriteTo writes the membership block.
func (g *Group) WriteTo(c *buffer.Cursor) error {
	if g.uniform() {
		var v int32
		if g.count > 0 && g.Cardinality() == g.count {
			v = 1
		}
		return c.PutInt32(v)
	}
	flags := make([]int32, g.count)
	it := g.members.Iterator()
	for it.HasNext() {
		flags[it.Next()] = 1
	}
	return c.PutInt32s(flags)
}

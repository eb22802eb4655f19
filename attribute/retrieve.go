package attribute

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
)

// FromEngine reads one attribute back from cooked engine geometry.
//
// Text attributes with more than one element resolve only their distinct
// handles; the per-element indices point into the resolved table in
// first-occurrence order.
func FromEngine(ctx context.Context, src engine.AttributeReader, node core.NodeID, part int32, owner core.Owner, name string) (*Record, error) {
	info, err := src.AttributeInfo(ctx, node, part, name, owner)
	if err != nil {
		return nil, core.WrapCall("GetAttributeInfo", node, err)
	}
	if !info.Exists {
		return nil, fmt.Errorf("%w: %s attribute %q on node %d", ErrNotFound, owner, name, node)
	}
	return fromInfo(ctx, src, node, part, name, name, info)
}

// Retrieve reads every attribute in names that starts with prefix.
//
// names must be ordered by owner (vertex, point, prim, detail) as the engine
// lists them; ownerCounts gives how many names belong to each owner. The prefix
// is stripped from the resulting record names and names equal to the prefix are
// skipped.
func Retrieve(ctx context.Context, src engine.AttributeReader, node core.NodeID, part int32,
	names []string, ownerCounts [core.NumOwners]int, prefix string) ([]*Record, error) {
	var out []*Record
	for i, full := range names {
		if !strings.HasPrefix(full, prefix) {
			continue
		}
		short := full[len(prefix):]
		if short == "" {
			continue
		}

		owner := ownerAt(i, ownerCounts)
		info, err := src.AttributeInfo(ctx, node, part, full, owner)
		if err != nil {
			return nil, core.WrapCall("GetAttributeInfo", node, err)
		}
		if !info.Exists {
			return nil, fmt.Errorf("%w: %s attribute %q on node %d", ErrNotFound, owner, full, node)
		}
		rec, err := fromInfo(ctx, src, node, part, full, short, info)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ownerAt returns the owner of the i-th name given per-owner name counts.
// Indices past the total fall on the detail owner.
func ownerAt(i int, counts [core.NumOwners]int) core.Owner {
	sum := 0
	for _, o := range core.Owners {
		sum += counts[o]
		if i < sum {
			return o
		}
	}
	return core.OwnerDetail
}

func kindOf(s core.StorageType) (Kind, error) {
	switch s.Family() {
	case core.FamilyInt:
		return KindInt, nil
	case core.FamilyFloat:
		return KindFloat, nil
	case core.FamilyString:
		if s.IsDictionary() {
			return KindDict, nil
		}
		return KindString, nil
	default:
		return 0, fmt.Errorf("%w: unsupported engine storage %d", ErrInvalidRecord, s)
	}
}

func fromInfo(ctx context.Context, src engine.AttributeReader, node core.NodeID, part int32,
	engineName, name string, info core.AttributeInfo) (*Record, error) {
	kind, err := kindOf(info.Storage)
	if err != nil {
		return nil, err
	}

	r := &Record{name: name, owner: info.Owner, kind: kind, tupleSize: info.TupleSize}
	if kind.IsText() {
		r.tupleSize = 1
	}

	if info.Storage.IsArray() {
		r.array = true
		return r, readArray(ctx, src, node, part, engineName, info, r)
	}

	switch kind {
	case KindInt:
		v, err := src.IntData(ctx, node, part, engineName, info)
		if err != nil {
			return nil, core.WrapCall("GetAttributeIntData", node, err)
		}
		r.values = IntValues(v)
	case KindFloat:
		v, err := src.FloatData(ctx, node, part, engineName, info)
		if err != nil {
			return nil, core.WrapCall("GetAttributeFloatData", node, err)
		}
		r.values = FloatValues(v)
	default:
		handles, err := src.StringData(ctx, node, part, engineName, info)
		if err != nil {
			return nil, core.WrapCall("GetAttributeStringData", node, err)
		}
		t, err := resolveHandles(ctx, src, node, handles)
		if err != nil {
			return nil, err
		}
		r.values = t
	}
	return r, nil
}

func readArray(ctx context.Context, src engine.AttributeReader, node core.NodeID, part int32,
	name string, info core.AttributeInfo, r *Record) error {
	// Nothing to fetch; every element is an empty array.
	if info.TotalArrayElements < 1 {
		r.counts = make([]int32, info.Count)
		switch r.kind {
		case KindInt:
			r.values = IntValues{}
		case KindFloat:
			r.values = FloatValues{}
		default:
			r.values = &StringTable{}
		}
		return nil
	}

	var sizes []int32
	switch r.kind {
	case KindInt:
		v, s, err := src.IntArrayData(ctx, node, part, name, info)
		if err != nil {
			return core.WrapCall("GetAttributeIntArrayData", node, err)
		}
		r.values, sizes = IntValues(v), s
	case KindFloat:
		v, s, err := src.FloatArrayData(ctx, node, part, name, info)
		if err != nil {
			return core.WrapCall("GetAttributeFloatArrayData", node, err)
		}
		r.values, sizes = FloatValues(v), s
	default:
		handles, s, err := src.StringArrayData(ctx, node, part, name, info)
		if err != nil {
			return core.WrapCall("GetAttributeStringArrayData", node, err)
		}
		t, err := resolveHandles(ctx, src, node, handles)
		if err != nil {
			return err
		}
		r.values, sizes = t, s
	}

	r.counts = make([]int32, len(sizes))
	var total int32
	for i, n := range sizes {
		total += n
		r.counts[i] = total
	}
	if int(total) != r.values.Len() {
		return fmt.Errorf("%w: %q sizes sum to %d, got %d values", ErrInvalidRecord, name, total, r.values.Len())
	}
	return nil
}

// resolveHandles turns engine string handles into a de-duplicated table.
func resolveHandles(ctx context.Context, src engine.AttributeReader, node core.NodeID, handles []core.StringHandle) (*StringTable, error) {
	if len(handles) == 0 {
		return &StringTable{}, nil
	}
	if len(handles) == 1 {
		s, err := src.StringValues(ctx, handles)
		if err != nil {
			return nil, core.WrapCall("GetStringBatch", node, err)
		}
		return &StringTable{Unique: s, Indices: []int32{0}}, nil
	}

	t := &StringTable{Indices: make([]int32, len(handles))}
	pos := make(map[core.StringHandle]int32, len(handles))
	var unique []core.StringHandle
	for i, h := range handles {
		idx, ok := pos[h]
		if !ok {
			idx = int32(len(unique))
			pos[h] = idx
			unique = append(unique, h)
		}
		t.Indices[i] = idx
	}

	s, err := src.StringValues(ctx, unique)
	if err != nil {
		return nil, core.WrapCall("GetStringBatch", node, err)
	}
	if len(s) != len(unique) {
		return nil, core.WrapCall("GetStringBatch", node,
			fmt.Errorf("resolved %d of %d handles", len(s), len(unique)))
	}
	t.Unique = s
	return t, nil
}

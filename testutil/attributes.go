package testutil

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/geobridge/core"
)

func (s *FakeSession) internLocked(v string) core.StringHandle {
	if h, ok := s.intern[v]; ok {
		return h
	}
	h := core.StringHandle(len(s.strings))
	s.strings = append(s.strings, v)
	s.intern[v] = h
	return h
}

func (s *FakeSession) put(node core.NodeID, part int32, owner core.Owner, name string, a *fakeAttr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.info.Exists = true
	a.info.Owner = owner
	s.attrs[attrKey{node, part, owner, name}] = a
}

// AddIntAttribute serves an int attribute with len(values)/tupleSize elements.
func (s *FakeSession) AddIntAttribute(node core.NodeID, part int32, owner core.Owner, name string, tupleSize int, values []int32) {
	s.put(node, part, owner, name, &fakeAttr{
		info: core.AttributeInfo{Storage: core.StorageInt, Count: len(values) / tupleSize, TupleSize: tupleSize},
		ints: slices.Clone(values),
	})
}

// AddFloatAttribute serves a float attribute.
func (s *FakeSession) AddFloatAttribute(node core.NodeID, part int32, owner core.Owner, name string, tupleSize int, values []float32) {
	s.put(node, part, owner, name, &fakeAttr{
		info:   core.AttributeInfo{Storage: core.StorageFloat, Count: len(values) / tupleSize, TupleSize: tupleSize},
		floats: slices.Clone(values),
	})
}

// AddStringAttribute serves a string (or dictionary) attribute. Equal values
// share one handle, as in the engine's string table.
func (s *FakeSession) AddStringAttribute(node core.NodeID, part int32, owner core.Owner, name string, dict bool, values []string) {
	s.mu.Lock()
	handles := make([]core.StringHandle, len(values))
	for i, v := range values {
		handles[i] = s.internLocked(v)
	}
	s.mu.Unlock()

	storage := core.StorageString
	if dict {
		storage = core.StorageDictionary
	}
	s.put(node, part, owner, name, &fakeAttr{
		info:    core.AttributeInfo{Storage: storage, Count: len(values), TupleSize: 1},
		handles: handles,
	})
}

// AddIntArrayAttribute serves an int array attribute.
func (s *FakeSession) AddIntArrayAttribute(node core.NodeID, part int32, owner core.Owner, name string, tupleSize int, elems [][]int32) {
	a := &fakeAttr{info: core.AttributeInfo{Storage: core.StorageIntArray, Count: len(elems), TupleSize: tupleSize}}
	for _, e := range elems {
		a.ints = append(a.ints, e...)
		a.sizes = append(a.sizes, int32(len(e)))
	}
	a.info.TotalArrayElements = len(a.ints)
	s.put(node, part, owner, name, a)
}

// AddFloatArrayAttribute serves a float array attribute.
func (s *FakeSession) AddFloatArrayAttribute(node core.NodeID, part int32, owner core.Owner, name string, tupleSize int, elems [][]float32) {
	a := &fakeAttr{info: core.AttributeInfo{Storage: core.StorageFloatArray, Count: len(elems), TupleSize: tupleSize}}
	for _, e := range elems {
		a.floats = append(a.floats, e...)
		a.sizes = append(a.sizes, int32(len(e)))
	}
	a.info.TotalArrayElements = len(a.floats)
	s.put(node, part, owner, name, a)
}

// AddStringArrayAttribute serves a string array attribute.
func (s *FakeSession) AddStringArrayAttribute(node core.NodeID, part int32, owner core.Owner, name string, elems [][]string) {
	a := &fakeAttr{info: core.AttributeInfo{Storage: core.StorageStringArray, Count: len(elems), TupleSize: 1}}
	s.mu.Lock()
	for _, e := range elems {
		for _, v := range e {
			a.handles = append(a.handles, s.internLocked(v))
		}
		a.sizes = append(a.sizes, int32(len(e)))
	}
	s.mu.Unlock()
	a.info.TotalArrayElements = len(a.handles)
	s.put(node, part, owner, name, a)
}

func (s *FakeSession) lookup(node core.NodeID, part int32, name string, owner core.Owner) (*fakeAttr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attrs[attrKey{node, part, owner, name}]
	return a, ok
}

func (s *FakeSession) data(op string, node core.NodeID, part int32, name string, info core.AttributeInfo) (*fakeAttr, error) {
	if err := s.record(Call{Op: op, Node: node, String: name}); err != nil {
		return nil, err
	}
	a, ok := s.lookup(node, part, name, info.Owner)
	if !ok {
		return nil, fmt.Errorf("no %s attribute %q on node %d", info.Owner, name, node)
	}
	return a, nil
}

// AttributeInfo implements engine.AttributeReader. Unknown attributes report
// Exists=false.
func (s *FakeSession) AttributeInfo(_ context.Context, node core.NodeID, part int32, name string, owner core.Owner) (core.AttributeInfo, error) {
	if err := s.record(Call{Op: "AttributeInfo", Node: node, String: name}); err != nil {
		return core.AttributeInfo{}, err
	}
	a, ok := s.lookup(node, part, name, owner)
	if !ok {
		return core.AttributeInfo{Owner: owner, Storage: core.StorageInvalid}, nil
	}
	return a.info, nil
}

// IntData implements engine.AttributeReader.
func (s *FakeSession) IntData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]int32, error) {
	a, err := s.data("IntData", node, part, name, info)
	if err != nil {
		return nil, err
	}
	return slices.Clone(a.ints), nil
}

// FloatData implements engine.AttributeReader.
func (s *FakeSession) FloatData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]float32, error) {
	a, err := s.data("FloatData", node, part, name, info)
	if err != nil {
		return nil, err
	}
	return slices.Clone(a.floats), nil
}

// StringData implements engine.AttributeReader.
func (s *FakeSession) StringData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]core.StringHandle, error) {
	a, err := s.data("StringData", node, part, name, info)
	if err != nil {
		return nil, err
	}
	return slices.Clone(a.handles), nil
}

// IntArrayData implements engine.AttributeReader.
func (s *FakeSession) IntArrayData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]int32, []int32, error) {
	a, err := s.data("IntArrayData", node, part, name, info)
	if err != nil {
		return nil, nil, err
	}
	return slices.Clone(a.ints), slices.Clone(a.sizes), nil
}

// FloatArrayData implements engine.AttributeReader.
func (s *FakeSession) FloatArrayData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]float32, []int32, error) {
	a, err := s.data("FloatArrayData", node, part, name, info)
	if err != nil {
		return nil, nil, err
	}
	return slices.Clone(a.floats), slices.Clone(a.sizes), nil
}

// StringArrayData implements engine.AttributeReader.
func (s *FakeSession) StringArrayData(_ context.Context, node core.NodeID, part int32, name string, info core.AttributeInfo) ([]core.StringHandle, []int32, error) {
	a, err := s.data("StringArrayData", node, part, name, info)
	if err != nil {
		return nil, nil, err
	}
	return slices.Clone(a.handles), slices.Clone(a.sizes), nil
}

// StringValues implements engine.AttributeReader. The requested handles are
// recorded so tests can check which were resolved.
func (s *FakeSession) StringValues(_ context.Context, handles []core.StringHandle) ([]string, error) {
	if err := s.record(Call{Op: "StringValues", Handles: slices.Clone(handles)}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(handles))
	for i, h := range handles {
		if h < 0 || int(h) >= len(s.strings) {
			return nil, fmt.Errorf("unknown string handle %d", h)
		}
		out[i] = s.strings[h]
	}
	return out, nil
}

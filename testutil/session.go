package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/geobridge/core"
	"github.com/hupe1980/geobridge/engine"
)

var _ engine.Session = (*FakeSession)(nil)

// ErrInjected is the default error returned by calls armed with FailOn.
var ErrInjected = errors.New("testutil: injected failure")

// Call is one recorded session call.
type Call struct {
	Op      string
	Node    core.NodeID
	Parm    int32
	String  string
	Ints    []int32
	Floats  []float32
	Preset  []byte
	Handles []core.StringHandle
}

// Node is a node created through the fake.
type Node struct {
	ID       core.NodeID
	Parent   core.NodeID
	Operator string
	Label    string
}

type attrKey struct {
	node  core.NodeID
	part  int32
	owner core.Owner
	name  string
}

type fakeAttr struct {
	info    core.AttributeInfo
	ints    []int32
	floats  []float32
	handles []core.StringHandle
	sizes   []int32
}

// FakeSession is an in-memory engine.Session.
type FakeSession struct {
	mu      sync.Mutex
	nextID  core.NodeID
	nodes   map[core.NodeID]Node
	calls   []Call
	attrs   map[attrKey]*fakeAttr
	strings []string
	intern  map[string]core.StringHandle
	fail    map[string]error
}

// NewFakeSession returns an empty fake.
func NewFakeSession() *FakeSession {
	return &FakeSession{
		nextID: 1,
		nodes:  make(map[core.NodeID]Node),
		attrs:  make(map[attrKey]*fakeAttr),
		intern: make(map[string]core.StringHandle),
		fail:   make(map[string]error),
	}
}

// FailOn makes every later call named op fail with err (ErrInjected if nil).
// Op names match the Call.Op values, e.g. "SetParmInts".
func (s *FakeSession) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	s.fail[op] = err
}

// Heal clears every armed failure.
func (s *FakeSession) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.fail)
}

func (s *FakeSession) record(c Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.fail[c.Op]
}

// CreateNode implements engine.NodeManager.
func (s *FakeSession) CreateNode(_ context.Context, parent core.NodeID, operator, label string) (core.NodeID, error) {
	if err := s.record(Call{Op: "CreateNode", Node: parent, String: operator}); err != nil {
		return core.InvalidNodeID, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent.Valid() {
		if _, ok := s.nodes[parent]; !ok {
			return core.InvalidNodeID, fmt.Errorf("no parent node %d", parent)
		}
	}
	id := s.nextID
	s.nextID++
	s.nodes[id] = Node{ID: id, Parent: parent, Operator: operator, Label: label}
	return id, nil
}

// DeleteNode implements engine.NodeManager.
func (s *FakeSession) DeleteNode(_ context.Context, node core.NodeID) error {
	if err := s.record(Call{Op: "DeleteNode", Node: node}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[node]; !ok {
		return fmt.Errorf("no node %d", node)
	}
	delete(s.nodes, node)
	return nil
}

// SetParmString implements engine.ParmWriter.
func (s *FakeSession) SetParmString(_ context.Context, node core.NodeID, parmID int32, value string) error {
	return s.record(Call{Op: "SetParmString", Node: node, Parm: parmID, String: value})
}

// SetParmInts implements engine.ParmWriter.
func (s *FakeSession) SetParmInts(_ context.Context, node core.NodeID, start int32, values []int32) error {
	return s.record(Call{Op: "SetParmInts", Node: node, Parm: start, Ints: slices.Clone(values)})
}

// SetParmFloats implements engine.ParmWriter.
func (s *FakeSession) SetParmFloats(_ context.Context, node core.NodeID, start int32, values []float32) error {
	return s.record(Call{Op: "SetParmFloats", Node: node, Parm: start, Floats: slices.Clone(values)})
}

// SetPreset implements engine.ParmWriter.
func (s *FakeSession) SetPreset(_ context.Context, node core.NodeID, preset []byte) error {
	return s.record(Call{Op: "SetPreset", Node: node, Preset: slices.Clone(preset)})
}

// Node returns a created node.
func (s *FakeSession) Node(id core.NodeID) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

// NumNodes returns the number of live nodes.
func (s *FakeSession) NumNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Calls returns every recorded call named op, all calls if op is empty.
func (s *FakeSession) Calls(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (s *FakeSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *FakeSession) last(op string, node core.NodeID) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if c := s.calls[i]; c.Op == op && c.Node == node {
			return c, true
		}
	}
	return Call{}, false
}

// LastString returns the last string parameter set on node.
func (s *FakeSession) LastString(node core.NodeID) (string, bool) {
	c, ok := s.last("SetParmString", node)
	return c.String, ok
}

// LastInts returns the last int parameters set on node.
func (s *FakeSession) LastInts(node core.NodeID) ([]int32, bool) {
	c, ok := s.last("SetParmInts", node)
	return c.Ints, ok
}

// LastFloats returns the last float parameters set on node.
func (s *FakeSession) LastFloats(node core.NodeID) ([]float32, bool) {
	c, ok := s.last("SetParmFloats", node)
	return c.Floats, ok
}

// LastPreset returns the last preset applied to node.
func (s *FakeSession) LastPreset(node core.NodeID) (string, bool) {
	c, ok := s.last("SetPreset", node)
	return string(c.Preset), ok
}

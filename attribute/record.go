package attribute

import (
	"fmt"

	"github.com/hupe1980/geobridge/core"
)

// Values is the backing storage of a record. Exactly one variant is populated
// per record: IntValues, FloatValues or *StringTable.
type Values interface {
	// Len returns the number of physical values (ints, floats or indices).
	Len() int
	isValues()
}

// IntValues backs int records.
type IntValues []int32

// FloatValues backs float records.
type FloatValues []float32

// StringTable backs string and dict records. Unique holds the distinct values in
// first-occurrence order; Indices holds one entry per value slot pointing into Unique.
type StringTable struct {
	Unique  []string
	Indices []int32
}

func (v IntValues) Len() int    { return len(v) }
func (v FloatValues) Len() int  { return len(v) }
func (t *StringTable) Len() int { return len(t.Indices) }

func (IntValues) isValues()    {}
func (FloatValues) isValues()  {}
func (*StringTable) isValues() {}

// At returns the string stored in slot i.
func (t *StringTable) At(i int) string { return t.Unique[t.Indices[i]] }

// NewStringTable de-duplicates values into a table. Unique keeps the order in
// which values were first seen.
func NewStringTable(values []string) *StringTable {
	t := &StringTable{Indices: make([]int32, len(values))}
	seen := make(map[string]int32, len(values))
	for i, s := range values {
		idx, ok := seen[s]
		if !ok {
			idx = int32(len(t.Unique))
			seen[s] = idx
			t.Unique = append(t.Unique, s)
		}
		t.Indices[i] = idx
	}
	return t
}

// Record is one attribute extracted from the host or read back from the engine,
// normalized so every consumer sees the same interface.
//
// Array records carry cumulative counts: counts[i] is the end (exclusive) of
// element i in the flattened values.
type Record struct {
	name      string
	owner     core.Owner
	kind      Kind
	array     bool
	tupleSize int
	values    Values
	counts    []int32
}

// NewInt builds an int record. len(values) must be a multiple of tupleSize.
// A record whose values hold exactly one tuple is uploaded as a unique value.
func NewInt(name string, owner core.Owner, tupleSize int, values []int32) (*Record, error) {
	if err := checkTuples(name, tupleSize, len(values)); err != nil {
		return nil, err
	}
	return &Record{name: name, owner: owner, kind: KindInt, tupleSize: tupleSize, values: IntValues(values)}, nil
}

// NewFloat builds a float record. len(values) must be a multiple of tupleSize.
func NewFloat(name string, owner core.Owner, tupleSize int, values []float32) (*Record, error) {
	if err := checkTuples(name, tupleSize, len(values)); err != nil {
		return nil, err
	}
	return &Record{name: name, owner: owner, kind: KindFloat, tupleSize: tupleSize, values: FloatValues(values)}, nil
}

// NewString builds a string record with one value per element.
func NewString(name string, owner core.Owner, values []string) *Record {
	return &Record{name: name, owner: owner, kind: KindString, tupleSize: 1, values: NewStringTable(values)}
}

// NewDict builds a dictionary record; values are JSON texts.
func NewDict(name string, owner core.Owner, values []string) *Record {
	return &Record{name: name, owner: owner, kind: KindDict, tupleSize: 1, values: NewStringTable(values)}
}

// NewIntArray builds an int array record. Every element length must be a
// multiple of tupleSize.
func NewIntArray(name string, owner core.Owner, tupleSize int, elems [][]int32) (*Record, error) {
	counts, total, err := cumulative(name, tupleSize, elems)
	if err != nil {
		return nil, err
	}
	flat := make([]int32, 0, total)
	for _, e := range elems {
		flat = append(flat, e...)
	}
	return &Record{name: name, owner: owner, kind: KindInt, array: true, tupleSize: tupleSize, values: IntValues(flat), counts: counts}, nil
}

// NewFloatArray builds a float array record.
func NewFloatArray(name string, owner core.Owner, tupleSize int, elems [][]float32) (*Record, error) {
	counts, total, err := cumulative(name, tupleSize, elems)
	if err != nil {
		return nil, err
	}
	flat := make([]float32, 0, total)
	for _, e := range elems {
		flat = append(flat, e...)
	}
	return &Record{name: name, owner: owner, kind: KindFloat, array: true, tupleSize: tupleSize, values: FloatValues(flat), counts: counts}, nil
}

// NewStringArray builds a string array record. The entries of all elements are
// pooled into one table, not de-duplicated per element.
func NewStringArray(name string, owner core.Owner, elems [][]string) *Record {
	return newTextArray(name, owner, KindString, elems)
}

// NewDictArray builds a dictionary array record.
func NewDictArray(name string, owner core.Owner, elems [][]string) *Record {
	return newTextArray(name, owner, KindDict, elems)
}

func newTextArray(name string, owner core.Owner, kind Kind, elems [][]string) *Record {
	counts, total, _ := cumulative(name, 1, elems)
	flat := make([]string, 0, total)
	for _, e := range elems {
		flat = append(flat, e...)
	}
	return &Record{name: name, owner: owner, kind: kind, array: true, tupleSize: 1, values: NewStringTable(flat), counts: counts}
}

func checkTuples(name string, tupleSize, n int) error {
	if tupleSize < 1 {
		return fmt.Errorf("%w: %q has tuple size %d", ErrInvalidRecord, name, tupleSize)
	}
	if n%tupleSize != 0 {
		return fmt.Errorf("%w: %q has %d values, not a multiple of tuple size %d", ErrInvalidRecord, name, n, tupleSize)
	}
	return nil
}

func cumulative[T any](name string, tupleSize int, elems [][]T) ([]int32, int, error) {
	if tupleSize < 1 {
		return nil, 0, fmt.Errorf("%w: %q has tuple size %d", ErrInvalidRecord, name, tupleSize)
	}
	counts := make([]int32, len(elems))
	total := 0
	for i, e := range elems {
		if len(e)%tupleSize != 0 {
			return nil, 0, fmt.Errorf("%w: %q element %d has %d values, not a multiple of tuple size %d",
				ErrInvalidRecord, name, i, len(e), tupleSize)
		}
		total += len(e)
		counts[i] = int32(total)
	}
	return counts, total, nil
}

// Name returns the record name without any upload prefix.
func (r *Record) Name() string { return r.name }

// Owner returns the owner the values attach to.
func (r *Record) Owner() core.Owner { return r.owner }

// Kind returns the value family.
func (r *Record) Kind() Kind { return r.kind }

// IsArray reports whether elements hold variable-length arrays.
func (r *Record) IsArray() bool { return r.array }

// TupleSize returns the number of components per value.
func (r *Record) TupleSize() int { return r.tupleSize }

// Values returns the backing storage.
func (r *Record) Values() Values { return r.values }

// Counts returns the cumulative element counts of an array record, nil otherwise.
func (r *Record) Counts() []int32 { return r.counts }

// Len returns the number of logical elements.
func (r *Record) Len() int {
	if r.array {
		return len(r.counts)
	}
	if r.tupleSize <= 0 {
		return 0
	}
	return r.values.Len() / r.tupleSize
}

// Count returns the number of values element i expands to: the tuple size for
// scalar records, the array length times tuple size for array records.
func (r *Record) Count(i int) int {
	start, end, ok := r.span(i)
	if !ok {
		return 0
	}
	return end - start
}

// span returns the value-slot range of element i.
func (r *Record) span(i int) (int, int, bool) {
	if i < 0 || i >= r.Len() {
		return 0, 0, false
	}
	if r.array {
		start := 0
		if i > 0 {
			start = int(r.counts[i-1])
		}
		return start, int(r.counts[i]), true
	}
	if r.kind.IsText() {
		return i, i + 1, true
	}
	return i * r.tupleSize, (i + 1) * r.tupleSize, true
}

package attribute

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geobridge/buffer"
	"github.com/hupe1980/geobridge/core"
)

var (
	// ErrInvalidRecord is returned when record values do not fit the declared shape.
	ErrInvalidRecord = errors.New("attribute: invalid record")

	// ErrNotFound is returned when the engine reports no such attribute.
	ErrNotFound = errors.New("attribute: not found")
)

// Kind is the value family of a record.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDict:
		return "dict"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsText reports whether values of this kind are stored as strings.
func (k Kind) IsText() bool { return k == KindString || k == KindDict }

// Storage is the wire storage code the engine expects in an upload descriptor.
type Storage int32

const (
	StorageGroup       Storage = 0
	StorageFloat       Storage = 1
	StorageInt         Storage = 2
	StorageString      Storage = 3
	StorageDict        Storage = 4
	StorageFloatArray  Storage = 5
	StorageIntArray    Storage = 6
	StorageStringArray Storage = 7
	StorageDictArray   Storage = 8
)

// StorageOf maps a kind and array flag to its wire storage.
func StorageOf(k Kind, array bool) Storage {
	switch k {
	case KindInt:
		if array {
			return StorageIntArray
		}
		return StorageInt
	case KindFloat:
		if array {
			return StorageFloatArray
		}
		return StorageFloat
	case KindDict:
		if array {
			return StorageDictArray
		}
		return StorageDict
	default:
		if array {
			return StorageStringArray
		}
		return StorageString
	}
}

// Compression is the ratio of physical value blocks to logical elements.
type Compression int32

const (
	// CompressionNone stores one value block per element.
	CompressionNone Compression = 0
	// CompressionUniqueValue stores a single block shared by every element.
	CompressionUniqueValue Compression = 1
	// CompressionIndexed stores K unique blocks plus one index per element.
	// Only text kinds use it.
	CompressionIndexed Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionUniqueValue:
		return "unique"
	case CompressionIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("compression(%d)", int32(c))
	}
}

// Descriptor declares one attribute block of an upload buffer before any byte
// is written. OffsetWords is assigned by the planner; declaration order fixes it.
type Descriptor struct {
	Name        string
	Owner       core.Owner
	Storage     Storage
	TupleSize   int
	SizeWords   int
	Compression Compression
	OffsetWords int
}

// End returns the word offset right after the block.
func (d Descriptor) End() int { return d.OffsetWords + d.SizeWords }

// Uploadable is anything that can declare and write one attribute block.
type Uploadable interface {
	Descriptor(prefix string) Descriptor
	WriteTo(c *buffer.Cursor) error
}

package volume

import "fmt"

// DataType is the element type of the raster buffer.
type DataType int32

const (
	Uint8 DataType = iota
	Uint16
	Uint
	Int
	Int64
	Float16
	Float
)

// Size returns the element size in bytes, 0 for unknown types.
func (t DataType) Size() int {
	switch t {
	case Uint8:
		return 1
	case Uint16, Float16:
		return 2
	case Uint, Int, Float:
		return 4
	case Int64:
		return 8
	default:
		return 0
	}
}

func (t DataType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint:
		return "uint32"
	case Int:
		return "int32"
	case Int64:
		return "int64"
	case Float16:
		return "float16"
	case Float:
		return "float32"
	default:
		return fmt.Sprintf("datatype(%d)", int32(t))
	}
}

// Storage is the engine-side voxel storage. It fixes the channel arity.
type Storage int32

const (
	StorageInt Storage = iota
	StorageFloat
	StorageVector2
	StorageVector3
	StorageVector4
)

// Arity returns the number of channels per cell, 0 for unknown storages.
func (s Storage) Arity() int {
	switch s {
	case StorageInt, StorageFloat:
		return 1
	case StorageVector2:
		return 2
	case StorageVector3:
		return 3
	case StorageVector4:
		return 4
	default:
		return 0
	}
}

func (s Storage) String() string {
	switch s {
	case StorageInt:
		return "int"
	case StorageFloat:
		return "float"
	case StorageVector2:
		return "vector2"
	case StorageVector3:
		return "vector3"
	case StorageVector4:
		return "vector4"
	default:
		return fmt.Sprintf("storage(%d)", int32(s))
	}
}

// Resolution is the voxel count along each engine axis.
type Resolution struct {
	X, Y, Z int
}

// Cells returns X*Y*Z.
func (r Resolution) Cells() int { return r.X * r.Y * r.Z }

func (r Resolution) String() string { return fmt.Sprintf("%dx%dx%d", r.X, r.Y, r.Z) }

// BBox is an inclusive voxel box in engine axes.
type BBox struct {
	Min, Max [3]int32
}

// UploadOptions carries the full-upload parameters.
type UploadOptions struct {
	// Name is the volume name the engine assigns.
	Name string
	// Range is the value range used to rescale integer data.
	Range [2]float32
	// Texture marks the volume as a texture input.
	Texture bool
	// Partial and BBox are forwarded as is. Use PartialUpload for updates.
	Partial bool
	BBox    BBox
}

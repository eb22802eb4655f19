package core

import "fmt"

// Owner is the granularity at which an attribute value attaches.
// The numeric values are part of the wire format.
type Owner int8

const (
	// OwnerInvalid marks an unset owner.
	OwnerInvalid Owner = -1
	// OwnerVertex attaches one value per primitive corner.
	OwnerVertex Owner = 0
	// OwnerPoint attaches one value per point.
	OwnerPoint Owner = 1
	// OwnerPrim attaches one value per primitive.
	OwnerPrim Owner = 2
	// OwnerDetail attaches a single value to the whole geometry.
	OwnerDetail Owner = 3
)

// NumOwners is the number of valid owners.
const NumOwners = 4

// Owners lists the valid owners in wire order.
var Owners = [NumOwners]Owner{OwnerVertex, OwnerPoint, OwnerPrim, OwnerDetail}

func (o Owner) String() string {
	switch o {
	case OwnerVertex:
		return "vertex"
	case OwnerPoint:
		return "point"
	case OwnerPrim:
		return "prim"
	case OwnerDetail:
		return "detail"
	default:
		return fmt.Sprintf("owner(%d)", int8(o))
	}
}

// Valid reports whether o is one of the four attachable owners.
func (o Owner) Valid() bool { return o >= OwnerVertex && o <= OwnerDetail }

// StorageType is the engine's own attribute storage enumeration.
type StorageType int8

const (
	StorageInvalid StorageType = iota - 1
	StorageInt
	StorageInt64
	StorageFloat
	StorageFloat64
	StorageString
	StorageUint8
	StorageInt8
	StorageInt16
	StorageDictionary
	StorageIntArray
	StorageInt64Array
	StorageFloatArray
	StorageFloat64Array
	StorageStringArray
	StorageUint8Array
	StorageInt8Array
	StorageInt16Array
	StorageDictionaryArray
)

// IsArray reports whether values of this storage are variable-length per element.
func (s StorageType) IsArray() bool {
	return s >= StorageIntArray && s <= StorageDictionaryArray
}

// IsDictionary reports whether s holds dictionary (JSON text) values.
func (s StorageType) IsDictionary() bool {
	return s == StorageDictionary || s == StorageDictionaryArray
}

// Family collapses s to its numeric, float or text family.
func (s StorageType) Family() Family {
	switch s {
	case StorageInt, StorageInt64, StorageUint8, StorageInt8, StorageInt16,
		StorageIntArray, StorageInt64Array, StorageUint8Array, StorageInt8Array, StorageInt16Array:
		return FamilyInt
	case StorageFloat, StorageFloat64, StorageFloatArray, StorageFloat64Array:
		return FamilyFloat
	case StorageString, StorageDictionary, StorageStringArray, StorageDictionaryArray:
		return FamilyString
	default:
		return FamilyInvalid
	}
}

// Family groups engine storage types by how values are read back.
type Family int8

const (
	FamilyInvalid Family = iota - 1
	FamilyInt
	FamilyFloat
	FamilyString
)

// AttributeInfo describes an attribute as reported by the engine.
type AttributeInfo struct {
	Exists    bool
	Owner     Owner
	Storage   StorageType
	Count     int
	TupleSize int
	// TotalArrayElements is the sum of all array lengths times tuple size.
	// Only meaningful for array storages.
	TotalArrayElements int
}

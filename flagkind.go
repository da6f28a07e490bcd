package savegdl

import "fmt"

// FlagKind is the closed, 33-variant enumeration of flag kinds a SAV file or
// GDL document can describe. The numeric values are stable and appear on
// disk as the type-switch word in the SAV key table (see internal/sav).
type FlagKind uint8

const (
	Bool FlagKind = iota // 0
	BoolArray
	Int
	IntArray
	Float
	FloatArray
	Enum
	EnumArray
	Vector2
	Vector2Array
	Vector3
	Vector3Array
	String16
	String16Array
	String32
	String32Array
	String64
	String64Array
	Binary
	BinaryArray
	UInt
	UIntArray
	Int64
	Int64Array
	UInt64
	UInt64Array
	WString16
	WString16Array
	WString32
	WString32Array
	WString64
	WString64Array
	Bool64bitKey // 32
)

// NumFlagKinds is the size of the closed type taxonomy.
const NumFlagKinds = int(Bool64bitKey) + 1

// shape classifies how a kind's value is physically stored in the SAV key
// table / payload region.
type shape int

const (
	shapeInlineScalar shape = iota // 4 bytes directly after the hash
	shapeOffsetScalar              // 4-byte offset, payload has no count prefix
	shapeOffsetArray               // 4-byte offset, payload is count + elements
	shapeKeySet                    // 4-byte offset, null-terminated u64 sequence
)

// kindDescriptor is the per-kind descriptor mentioned in spec.md §2: element
// width, presence of indirection, and array layout. encode/decode and
// internal/gdl's GetSize share this one table instead of 33 separate
// branches duplicated across packages.
type kindDescriptor struct {
	name  string
	shape shape

	// elemSize is the encoded byte width of one element (scalar value, or
	// one array element), for kinds whose elements are fixed-width.
	// Strings use capacity instead (see below).
	elemSize int

	// stringCapacity is the byte capacity of one string element for the
	// String16/32/64 and WString16/32/64 kinds (0 for non-string kinds).
	stringCapacity int
	wide           bool // UTF-16LE (WStringNN) vs UTF-8 (StringNN)
}

var kindDescriptors = [NumFlagKinds]kindDescriptor{
	Bool:           {name: "Bool", shape: shapeInlineScalar, elemSize: 4},
	BoolArray:      {name: "BoolArray", shape: shapeOffsetArray},
	Int:            {name: "Int", shape: shapeInlineScalar, elemSize: 4},
	IntArray:       {name: "IntArray", shape: shapeOffsetArray, elemSize: 4},
	Float:          {name: "Float", shape: shapeInlineScalar, elemSize: 4},
	FloatArray:     {name: "FloatArray", shape: shapeOffsetArray, elemSize: 4},
	Enum:           {name: "Enum", shape: shapeInlineScalar, elemSize: 4},
	EnumArray:      {name: "EnumArray", shape: shapeOffsetArray, elemSize: 4},
	Vector2:        {name: "Vector2", shape: shapeOffsetScalar, elemSize: 8},
	Vector2Array:   {name: "Vector2Array", shape: shapeOffsetArray, elemSize: 8},
	Vector3:        {name: "Vector3", shape: shapeOffsetScalar, elemSize: 12},
	Vector3Array:   {name: "Vector3Array", shape: shapeOffsetArray, elemSize: 12},
	String16:       {name: "String16", shape: shapeOffsetScalar, stringCapacity: 16},
	String16Array:  {name: "String16Array", shape: shapeOffsetArray, stringCapacity: 16},
	String32:       {name: "String32", shape: shapeOffsetScalar, stringCapacity: 32},
	String32Array:  {name: "String32Array", shape: shapeOffsetArray, stringCapacity: 32},
	String64:       {name: "String64", shape: shapeOffsetScalar, stringCapacity: 64},
	String64Array:  {name: "String64Array", shape: shapeOffsetArray, stringCapacity: 64},
	Binary:         {name: "Binary", shape: shapeOffsetScalar},
	BinaryArray:    {name: "BinaryArray", shape: shapeOffsetArray},
	UInt:           {name: "UInt", shape: shapeInlineScalar, elemSize: 4},
	UIntArray:      {name: "UIntArray", shape: shapeOffsetArray, elemSize: 4},
	Int64:          {name: "Int64", shape: shapeOffsetScalar, elemSize: 8},
	Int64Array:     {name: "Int64Array", shape: shapeOffsetArray, elemSize: 8},
	UInt64:         {name: "UInt64", shape: shapeOffsetScalar, elemSize: 8},
	UInt64Array:    {name: "UInt64Array", shape: shapeOffsetArray, elemSize: 8},
	WString16:      {name: "WString16", shape: shapeOffsetScalar, stringCapacity: 32, wide: true},
	WString16Array: {name: "WString16Array", shape: shapeOffsetArray, stringCapacity: 32, wide: true},
	WString32:      {name: "WString32", shape: shapeOffsetScalar, stringCapacity: 64, wide: true},
	WString32Array: {name: "WString32Array", shape: shapeOffsetArray, stringCapacity: 64, wide: true},
	WString64:      {name: "WString64", shape: shapeOffsetScalar, stringCapacity: 128, wide: true},
	WString64Array: {name: "WString64Array", shape: shapeOffsetArray, stringCapacity: 128, wide: true},
	Bool64bitKey:   {name: "Bool64bitKey", shape: shapeKeySet, elemSize: 8},
}

var kindByName map[string]FlagKind

func init() {
	kindByName = make(map[string]FlagKind, NumFlagKinds)
	for i, d := range kindDescriptors {
		kindByName[d.name] = FlagKind(i)
	}
}

// Valid reports whether k is one of the 33 known flag kinds.
func (k FlagKind) Valid() bool {
	return int(k) < NumFlagKinds
}

// String returns the kind's canonical name (e.g. "WString32Array").
func (k FlagKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("FlagKind(%d)", uint8(k))
	}
	return kindDescriptors[k].name
}

// IsArray reports whether k is an array-shaped kind (count-prefixed
// elements at an indirected offset).
func (k FlagKind) IsArray() bool {
	return k.Valid() && kindDescriptors[k].shape == shapeOffsetArray
}

// HasIndirection reports whether k's value is stored via a 4-byte offset
// into the payload region rather than inline in the key table.
func (k FlagKind) HasIndirection() bool {
	if !k.Valid() {
		return false
	}
	switch kindDescriptors[k].shape {
	case shapeOffsetScalar, shapeOffsetArray, shapeKeySet:
		return true
	default:
		return false
	}
}

// IsString reports whether k is one of the String16/32/64 or
// WString16/32/64 kinds, scalar or array.
func (k FlagKind) IsString() bool {
	return k.Valid() && kindDescriptors[k].stringCapacity > 0
}

// StringCapacity returns the on-disk byte capacity of one string element
// for a String16/32/64 or WString16/32/64 kind (scalar or array), and 0 for
// every other kind.
func (k FlagKind) StringCapacity() int {
	if !k.Valid() {
		return 0
	}
	return kindDescriptors[k].stringCapacity
}

// Wide reports whether k encodes its string payload as UTF-16LE
// (WString16/32/64) rather than UTF-8 (String16/32/64).
func (k FlagKind) Wide() bool {
	return k.Valid() && kindDescriptors[k].wide
}

// ElemSize returns the fixed encoded byte width of one element for kinds
// whose elements are fixed-width scalars (0 for string and Binary kinds,
// whose width is data-dependent).
func (k FlagKind) ElemSize() int {
	if !k.Valid() {
		return 0
	}
	return kindDescriptors[k].elemSize
}

// FlagKindByName resolves a kind by its canonical name, e.g. "Int64Array".
func FlagKindByName(name string) (FlagKind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

package savegdl

import "reflect"

// Vector2 is the element type of the Vector2/Vector2Array FlagKinds.
type Vector2 struct {
	X, Y float32
}

// Vector3 is the element type of the Vector3/Vector3Array FlagKinds.
type Vector3 struct {
	X, Y, Z float32
}

// FlagValue is a tagged variant whose populated field matches the shape of
// its declaring FlagKind (spec.md §3). Scalar holds the single value for
// non-array, non-Bool64bitKey kinds (bool, int32, uint32, int64, uint64,
// float32, string, Vector2, Vector3 or []byte, depending on Kind). Array
// holds one element per entry, of the same underlying type Scalar would use
// for the array's base kind, for every *Array kind. Keys holds the
// lowercase "0x"+16-hex-digit strings of a Bool64bitKey flag.
type FlagValue struct {
	Kind   FlagKind
	Scalar any
	Array  []any
	Keys   []string
}

func NewBool(v bool) FlagValue          { return FlagValue{Kind: Bool, Scalar: v} }
func NewInt(v int32) FlagValue          { return FlagValue{Kind: Int, Scalar: v} }
func NewFloat(v float32) FlagValue      { return FlagValue{Kind: Float, Scalar: v} }
func NewEnum(v uint32) FlagValue        { return FlagValue{Kind: Enum, Scalar: v} }
func NewUInt(v uint32) FlagValue        { return FlagValue{Kind: UInt, Scalar: v} }
func NewInt64(v int64) FlagValue        { return FlagValue{Kind: Int64, Scalar: v} }
func NewUInt64(v uint64) FlagValue      { return FlagValue{Kind: UInt64, Scalar: v} }
func NewVector2(v Vector2) FlagValue    { return FlagValue{Kind: Vector2, Scalar: v} }
func NewVector3(v Vector3) FlagValue    { return FlagValue{Kind: Vector3, Scalar: v} }
func NewBinary(v []byte) FlagValue      { return FlagValue{Kind: Binary, Scalar: append([]byte(nil), v...)} }
func NewBool64bitKey(v []string) FlagValue {
	return FlagValue{Kind: Bool64bitKey, Keys: append([]string(nil), v...)}
}

// NewString returns a FlagValue of the given string-shaped kind (one of
// String16/32/64 or WString16/32/64).
func NewString(kind FlagKind, v string) FlagValue {
	return FlagValue{Kind: kind, Scalar: v}
}

// NewArray returns a FlagValue of the given array kind with the provided
// elements, which must already be of the correct concrete Go type for the
// array's base kind (e.g. []any{int32(1), int32(2)} for IntArray).
func NewArray(kind FlagKind, elems []any) FlagValue {
	return FlagValue{Kind: kind, Array: append([]any(nil), elems...)}
}

// Len returns the number of elements for array kinds and Bool64bitKey, or 1
// for scalar kinds.
func (v FlagValue) Len() int {
	switch {
	case v.Kind == Bool64bitKey:
		return len(v.Keys)
	case v.Kind.IsArray():
		return len(v.Array)
	default:
		return 1
	}
}

// Equal reports whether two FlagValues of the same kind hold the same
// value. Values of differing kinds are never equal.
func (v FlagValue) Equal(o FlagValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == Bool64bitKey {
		return reflect.DeepEqual(v.Keys, o.Keys)
	}
	if v.Kind.IsArray() {
		return reflect.DeepEqual(v.Array, o.Array)
	}
	return reflect.DeepEqual(v.Scalar, o.Scalar)
}

// ShapeValid reports whether v's populated fields are consistent with its
// own Kind tag (spec.md §8 property 4: type/shape invariant).
func (v FlagValue) ShapeValid() bool {
	if !v.Kind.Valid() {
		return false
	}
	if v.Kind == Bool64bitKey {
		return v.Scalar == nil && v.Array == nil
	}
	if v.Kind.IsArray() {
		if v.Scalar != nil || v.Keys != nil {
			return false
		}
		for _, e := range v.Array {
			if !elementShapeValid(v.Kind, e) {
				return false
			}
		}
		return true
	}
	if v.Array != nil || v.Keys != nil {
		return false
	}
	return elementShapeValid(v.Kind, v.Scalar)
}

// elementShapeValid reports whether e has the Go type expected of one value
// of kind; an array kind's elements share the type of its base scalar kind.
func elementShapeValid(kind FlagKind, e any) bool {
	switch kind {
	case Bool, BoolArray:
		_, ok := e.(bool)
		return ok
	case Int, IntArray:
		_, ok := e.(int32)
		return ok
	case Float, FloatArray:
		_, ok := e.(float32)
		return ok
	case Enum, EnumArray, UInt, UIntArray:
		_, ok := e.(uint32)
		return ok
	case Int64, Int64Array:
		_, ok := e.(int64)
		return ok
	case UInt64, UInt64Array:
		_, ok := e.(uint64)
		return ok
	case Vector2, Vector2Array:
		_, ok := e.(Vector2)
		return ok
	case Vector3, Vector3Array:
		_, ok := e.(Vector3)
		return ok
	case Binary, BinaryArray:
		_, ok := e.([]byte)
		return ok
	default:
		if kind.IsString() {
			_, ok := e.(string)
			return ok
		}
		return false
	}
}

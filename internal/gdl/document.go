// Package gdl implements the GameDataList layout engine and flag
// validator of spec.md §4.6-4.8: the in-memory GDL document, its
// hash-keyed flag CRUD surface (spec.md §7's "SUPPLEMENTED FEATURES"),
// MetaData recomputation, and the ExtraByte/map-unit helpers.
//
// A GdlDocument has no BYML parsing of its own; the generic hierarchical
// document reader/writer is an external collaborator per spec.md §1. This
// package operates on the already-parsed tree.
package gdl

import (
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/namehash"
)

// typeOrder is the canonical order of the 35 GDL flag type names: the 33
// SAV-encodable FlagKinds plus the two GDL-only bookkeeping kinds Struct
// and BoolExp, in original_source/gamedata.py's valid_types order. This is
// the order CalcSize and UpdateMetaData walk when accounting for each
// type's type-switch slot.
var typeOrder = []string{
	"Bool", "BoolArray", "Int", "IntArray", "Float", "FloatArray", "Enum", "EnumArray",
	"Vector2", "Vector2Array", "Vector3", "Vector3Array",
	"String16", "String16Array", "String32", "String32Array", "String64", "String64Array",
	"Binary", "BinaryArray",
	"UInt", "UIntArray", "Int64", "Int64Array", "UInt64", "UInt64Array",
	"WString16", "WString16Array", "WString32", "WString32Array", "WString64", "WString64Array",
	"Struct", "BoolExp", "Bool64bitKey",
}

// IsValidType reports whether name is one of the 35 recognized GDL flag
// type names.
func IsValidType(name string) bool {
	for _, t := range typeOrder {
		if t == name {
			return true
		}
	}
	return false
}

// FlagRecord is one GDL flag entry (spec.md §3): a loose field bag mirroring
// the reference implementation's dict-shaped records, since the field set
// varies by FlagKind (DefaultValue, OriginalSize, Size/ArraySize,
// RawValues/Values, ExtraByte are all kind-dependent). ValidateFlag
// coerces field values to the exact numeric widths the codec expects.
type FlagRecord map[string]any

// Hash returns the record's Hash field as a uint64, accepting either a
// uint32 (the common case) or uint64 (Bool64bitKey) underlying value. It
// returns 0 if the field is absent or of an unexpected type.
func (f FlagRecord) Hash() uint64 {
	switch v := f["Hash"].(type) {
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case int:
		return uint64(v)
	default:
		return 0
	}
}

// Int32 returns f[key] coerced to int32, and whether the field was present
// and numeric.
func (f FlagRecord) Int32(key string) (int32, bool) {
	switch v := f[key].(type) {
	case int32:
		return v, true
	case int:
		return int32(v), true
	case int64:
		return int32(v), true
	case uint32:
		return int32(v), true
	default:
		return 0, false
	}
}

// Uint32 returns f[key] coerced to uint32, and whether the field was
// present and numeric.
func (f FlagRecord) Uint32(key string) (uint32, bool) {
	switch v := f[key].(type) {
	case uint32:
		return v, true
	case int32:
		return uint32(v), true
	case int:
		return uint32(v), true
	case int64:
		return uint32(v), true
	case uint64:
		return uint32(v), true
	default:
		return 0, false
	}
}

// MetaData mirrors spec.md §3's MetaData block. SaveTypeHash is kept
// opaque (passed through unchanged, per spec.md's "opaque, passed
// through").
type MetaData struct {
	AllDataSaveOffset int32
	AllDataSaveSize   int32
	FormatVersion     int32
	SaveDataOffsetPos []int32
	SaveDataSize      []int32
	SaveDirectory     []string
	SaveTypeHash      any
}

// Document is the GdlDocument of spec.md §3: a root mapping of Data (one
// ordered flag list per present type) and MetaData.
type Document struct {
	Data  map[string][]FlagRecord
	order []string
	Meta  MetaData
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{Data: make(map[string][]FlagRecord)}
}

// Kinds returns the type names with at least one flag present, in the
// order they were first populated.
func (d *Document) Kinds() []string {
	out := make([]string, 0, len(d.order))
	for _, t := range d.order {
		if len(d.Data[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

func (d *Document) ensureType(typeName string) {
	if _, ok := d.Data[typeName]; !ok {
		d.Data[typeName] = nil
		d.order = append(d.order, typeName)
	}
}

// GetFlagByHash returns the flag of typeName whose Hash field equals hash,
// matching original_source/gamedata.py's GetFlagByHash (a linear scan, not
// a hash-indexed lookup: the reference stores flags as a plain list).
func (d *Document) GetFlagByHash(typeName string, hash uint64) (FlagRecord, bool) {
	for _, f := range d.Data[typeName] {
		if f.Hash() == hash {
			return f, true
		}
	}
	return nil, false
}

// GetFlagByName resolves flagName to its 32-bit hash (spec.md §1's
// MurmurHash3 collaborator) and looks it up via GetFlagByHash. Note this
// always hashes to 32 bits even for Bool64bitKey's 64-bit Hash field,
// preserving the reference implementation's own behavior.
func (d *Document) GetFlagByName(typeName, flagName string) (FlagRecord, bool) {
	return d.GetFlagByHash(typeName, uint64(namehash.Hash(flagName)))
}

// AddFlag upserts flag into typeName's list by Hash: an existing entry with
// a matching hash is replaced in place, otherwise flag is appended. When
// validate is true (the default the CLI uses), flag is first run through
// ValidateFlag; validate=false mirrors the reference's escape hatch for
// callers that have already normalized the record themselves.
func (d *Document) AddFlag(typeName string, flag FlagRecord, validate bool) error {
	if !IsValidType(typeName) {
		return xerrors.Errorf("AddFlag: %q: %w", typeName, savegdl.ErrWrongShape)
	}
	if validate {
		var err error
		flag, err = ValidateFlag(flag, typeName)
		if err != nil {
			return xerrors.Errorf("AddFlag %s: %w", typeName, err)
		}
	}
	d.ensureType(typeName)
	hash := flag.Hash()
	for i, f := range d.Data[typeName] {
		if f.Hash() == hash {
			d.Data[typeName][i] = flag
			return nil
		}
	}
	d.Data[typeName] = append(d.Data[typeName], flag)
	return nil
}

// DeleteFlagByHash removes the flag of typeName whose Hash equals hash,
// reporting whether one was found.
func (d *Document) DeleteFlagByHash(typeName string, hash uint64) bool {
	list := d.Data[typeName]
	for i, f := range list {
		if f.Hash() == hash {
			d.Data[typeName] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// DeleteFlagByName resolves flagName the same way GetFlagByName does and
// removes the matching flag.
func (d *Document) DeleteFlagByName(typeName, flagName string) bool {
	return d.DeleteFlagByHash(typeName, uint64(namehash.Hash(flagName)))
}

package gdl

import (
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// GetSize returns the payload bytes one flag of typeName contributes within
// a save-data region (spec.md §4.6's GetSize table). Struct and BoolExp are
// GDL-only bookkeeping kinds with a fixed 8-byte contribution and no SAV
// wire encoding (spec.md §7's supplemented-features note).
func GetSize(typeName string, entry FlagRecord) (uint32, error) {
	if typeName == "Struct" || typeName == "BoolExp" {
		return 8, nil
	}
	kind, ok := savegdl.FlagKindByName(typeName)
	if !ok {
		return 0, xerrors.Errorf("GetSize: %q: %w", typeName, savegdl.ErrWrongShape)
	}
	if kind == savegdl.Bool64bitKey {
		return 8, nil
	}

	size := uint32(8)
	n := uint32(1)
	if kind.IsArray() {
		size += 4
		var err error
		n, err = arrayLen(entry)
		if err != nil {
			return 0, xerrors.Errorf("GetSize %s: %w", typeName, err)
		}
	}

	// Bool, Int, UInt, Float, Enum scalars are stored inline in the key
	// table; their 4 bytes are already accounted for by the hash/value
	// pair elsewhere, so GetSize contributes nothing beyond the base 8.
	if !kind.HasIndirection() {
		return size, nil
	}

	switch {
	case kind == savegdl.BoolArray:
		nBytes := (n + 7) / 8
		if nBytes < 4 {
			nBytes = 4
		}
		size += ((nBytes + 3) / 4) * 4
	case kind == savegdl.Binary || kind == savegdl.BinaryArray:
		size += n * 4
		blobLen, _ := entry.Uint32("DefaultValue")
		size += n * blobLen
	case kind.StringCapacity() > 0:
		size += n * uint32(kind.StringCapacity())
	default:
		size += n * uint32(kind.ElemSize())
	}
	return size, nil
}

// arrayLen determines an array flag's element count: the first defined of
// ArraySize, Size, or len(DefaultValue) (spec.md §4.6).
func arrayLen(entry FlagRecord) (uint32, error) {
	if v, ok := entry.Uint32("ArraySize"); ok {
		return v, nil
	}
	if v, ok := entry.Uint32("Size"); ok {
		return v, nil
	}
	if dv, ok := entry["DefaultValue"].([]any); ok {
		return uint32(len(dv)), nil
	}
	return 0, savegdl.ErrIndeterminateArraySize
}

// CalcSize computes the (size, offset) pair for one save-directory index
// (spec.md §4.6). An empty SaveDirectory entry means the index is
// unpopulated and contributes (0, 0).
func CalcSize(d *Document, saveIndex int) (size, offset uint32, err error) {
	if saveIndex < 0 || saveIndex >= len(d.Meta.SaveDirectory) || d.Meta.SaveDirectory[saveIndex] == "" {
		return 0, 0, nil
	}
	size, offset = 0x20, 0x20
	for _, typeName := range typeOrder {
		size += 8
		offset += 8
		if typeName == "Bool64bitKey" {
			size += 8
			offset += 8
		}
		hasKeys := false
		for _, entry := range d.Data[typeName] {
			idx, ok := entry.Int32("SaveFileIndex")
			if !ok || int(idx) != saveIndex {
				continue
			}
			if typeName == "Bool64bitKey" {
				hasKeys = true
			} else {
				offset += 8
			}
			sz, err := GetSize(typeName, entry)
			if err != nil {
				return 0, 0, err
			}
			size += sz
		}
		if hasKeys {
			size += 8
		}
	}
	return size, offset, nil
}

// UpdateMetaData recomputes MetaData in place after any mutation to Data
// (spec.md §4.6): per-save-directory sizes/offsets, the global size/offset
// over every flag regardless of SaveFileIndex, and a stable Hash-ascending
// sort of the Bool64bitKey flag list (required for the game's binary
// search over that table).
func UpdateMetaData(d *Document) error {
	sizes := make([]int32, len(d.Meta.SaveDirectory))
	offsets := make([]int32, len(d.Meta.SaveDirectory))
	for i := range d.Meta.SaveDirectory {
		sz, off, err := CalcSize(d, i)
		if err != nil {
			return err
		}
		sizes[i] = int32(sz)
		offsets[i] = int32(off)
	}

	size, offset := uint32(0x20), uint32(0x20)
	for _, typeName := range typeOrder {
		size += 8
		offset += 8
		if typeName == "Bool64bitKey" {
			size += 8
			offset += 8
		}
		hasKeys := false
		for _, entry := range d.Data[typeName] {
			if typeName == "Bool64bitKey" {
				hasKeys = true
			} else {
				offset += 8
			}
			sz, err := GetSize(typeName, entry)
			if err != nil {
				return err
			}
			size += sz
		}
		if hasKeys {
			size += 8
		}
	}

	if list, ok := d.Data["Bool64bitKey"]; ok {
		sorted := append([]FlagRecord(nil), list...)
		slices.SortStableFunc(sorted, func(a, b FlagRecord) bool { return a.Hash() < b.Hash() })
		d.Data["Bool64bitKey"] = sorted
	}

	d.Meta = MetaData{
		AllDataSaveOffset: int32(offset),
		AllDataSaveSize:   int32(size),
		FormatVersion:     1,
		SaveDataOffsetPos: offsets,
		SaveDataSize:      sizes,
		SaveDirectory:     d.Meta.SaveDirectory,
		SaveTypeHash:      d.Meta.SaveTypeHash,
	}
	return nil
}

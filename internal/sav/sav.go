// Package sav implements the bidirectional SAV file codec of spec.md §4.2,
// §4.3: a decoder that parses a fixed-size binary buffer into a typed
// two-level savegdl.Store, and an encoder that writes such a store back to
// a byte buffer identical in length and structure to the original.
package sav

import "github.com/dt-12345/savegdl"

// Magic is the fixed SAV file magic number (spec.md §3, §6), little-endian
// on disk as 04 03 02 01.
const Magic uint32 = 0x01020304

// HeaderSize is the fixed offset of the key table's start (spec.md §3:
// "data_offset ... constant 0x20 bytes in" for the header region itself;
// data_offset is usually, but not required to be, equal to this).
const HeaderSize = 0x20

// SupportedVersions enumerates the two recognized format_version values
// (spec.md §3, §6).
var SupportedVersions = map[uint32]bool{
	4710644: true,
	4637640: true,
}

// Header carries the SAV file's fixed header fields plus the total buffer
// size, which is implicit from the input buffer's length and re-emitted
// unchanged by Encode.
type Header struct {
	FormatVersion uint32
	DataOffset    uint32
	Size          int64
}

// kindClass mirrors the root package's kind-shape dispatch so this
// package's decode/encode switches can share one table instead of
// duplicating 33 branches across methods. classify derives it from the
// exported, shape-probing methods on savegdl.FlagKind rather than
// reimplementing the descriptor table here.
type kindClass int

const (
	classInlineScalar kindClass = iota
	classOffsetScalar
	classOffsetArray
	classKeySet
)

func classify(k savegdl.FlagKind) kindClass {
	switch {
	case k == savegdl.Bool64bitKey:
		return classKeySet
	case k.IsArray():
		return classOffsetArray
	case k.HasIndirection():
		return classOffsetScalar
	default:
		return classInlineScalar
	}
}

package savegdl

import "golang.org/x/xerrors"

// Error taxonomy from spec.md §7. Core packages return these sentinels
// (wrapped with call-site context via xerrors.Errorf's %w) rather than ad
// hoc error strings, so callers can xerrors.Is/As against them.
var (
	// SAV decode
	ErrBadMagic         = xerrors.New("savegdl: bad magic")
	ErrUnsupportedVersion = xerrors.New("savegdl: unsupported format version")
	ErrTruncatedInput   = xerrors.New("savegdl: truncated input")
	ErrUnknownTypeID    = xerrors.New("savegdl: unknown type id")

	// SAV encode
	ErrBufferOverflow = xerrors.New("savegdl: buffer overflow")
	ErrInvalidValue   = xerrors.New("savegdl: invalid value")
	ErrStringTooLong  = xerrors.New("savegdl: string too long")
	ErrUtf16Unaligned = xerrors.New("savegdl: utf-16 string not aligned")

	// Patch
	ErrUnsupportedArrayResize = xerrors.New("savegdl: array resize is not supported")
	ErrUnknownType            = xerrors.New("savegdl: unknown flag type")

	// GDL validation and layout
	ErrIndeterminateArraySize = xerrors.New("savegdl: could not determine array size")
	ErrInvalidResetType       = xerrors.New("savegdl: invalid reset type")
	ErrExtraByteOutOfRange    = xerrors.New("savegdl: ExtraByte out of range")
	ErrInvalidExpression      = xerrors.New("savegdl: invalid BoolExp expression")
	ErrMissingField           = xerrors.New("savegdl: missing field")
	ErrWrongShape             = xerrors.New("savegdl: value has the wrong shape for its kind")

	// Map-unit helpers
	ErrOutOfRange = xerrors.New("savegdl: out of range")
)

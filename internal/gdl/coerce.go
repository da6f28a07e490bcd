package gdl

import (
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// The coerce* helpers accept any of the numeric shapes a caller-supplied
// flag record might already be in (Go's untyped int/float literals decode
// from JSON as float64, or a caller may have set an already-typed field)
// and normalize to the codec's exact width, mirroring ValidateFlag's
// byml.Int/UInt/Long/ULong/Float coercions in the reference implementation.

func coerceInt32(v any) (int32, error) {
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		return int32(n), nil
	case int64:
		return int32(n), nil
	case uint32:
		return int32(n), nil
	case uint64:
		return int32(n), nil
	case float64:
		return int32(n), nil
	case float32:
		return int32(n), nil
	default:
		return 0, wrongShape(v)
	}
}

func coerceUint32(v any) (uint32, error) {
	switch n := v.(type) {
	case uint32:
		return n, nil
	case int32:
		return uint32(n), nil
	case int:
		return uint32(n), nil
	case int64:
		return uint32(n), nil
	case uint64:
		return uint32(n), nil
	case float64:
		return uint32(n), nil
	case float32:
		return uint32(n), nil
	default:
		return 0, wrongShape(v)
	}
}

func coerceInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	default:
		return 0, wrongShape(v)
	}
}

func coerceUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		return uint64(n), nil
	case int32:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case float64:
		return uint64(n), nil
	case float32:
		return uint64(n), nil
	default:
		return 0, wrongShape(v)
	}
}

func coerceFloat32(v any) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int32:
		return float32(n), nil
	case int:
		return float32(n), nil
	case int64:
		return float32(n), nil
	default:
		return 0, wrongShape(v)
	}
}

func wrongShape(v any) error {
	return xerrors.Errorf("cannot coerce %T to the expected numeric width: %w", v, savegdl.ErrWrongShape)
}

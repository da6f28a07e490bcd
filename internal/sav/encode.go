package sav

import (
	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/iostream"
	"github.com/dt-12345/savegdl/internal/namehash"
	"golang.org/x/xerrors"
)

// Encode writes hdr and store back to a byte buffer of exactly hdr.Size
// bytes, following the reference encoder's append-cursor algorithm: each
// type-switch word is written once per kind, and each offset-referenced
// value is appended at a running cursor that starts at hdr.DataOffset and
// only ever grows (spec.md §4.3).
func Encode(hdr *Header, store *savegdl.Store) ([]byte, error) {
	w, err := iostream.NewWriter(hdr.Size)
	if err != nil {
		return nil, err
	}
	if err := w.WriteU32(Magic); err != nil {
		return nil, err
	}
	if err := w.WriteU32(hdr.FormatVersion); err != nil {
		return nil, err
	}
	if err := w.WriteU32(hdr.DataOffset); err != nil {
		return nil, err
	}
	if err := w.Seek(HeaderSize); err != nil {
		return nil, err
	}

	payloadCursor := int64(hdr.DataOffset)
	for _, kind := range store.Kinds() {
		if err := w.WriteU32(0); err != nil {
			return nil, err
		}
		if err := w.WriteU32(uint32(kind)); err != nil {
			return nil, err
		}
		for _, hash := range store.Hashes(kind) {
			v, _ := store.Get(kind, hash)
			if err := w.WriteU32(hash); err != nil {
				return nil, err
			}
			next, err := encodeValue(w, kind, v, payloadCursor)
			if err != nil {
				return nil, xerrors.Errorf("encoding %s flag %#08x: %w", kind, hash, err)
			}
			payloadCursor = next
		}
	}
	return w.Bytes()
}

// encodeValue writes one flag's value, either inline at the current cursor
// or (for indirected kinds) as a 4-byte offset followed by a payload
// written at cursor via a scoped seek. It returns the payload cursor's new
// position after the write (unchanged for inline kinds).
func encodeValue(w *iostream.Writer, kind savegdl.FlagKind, v savegdl.FlagValue, cursor int64) (int64, error) {
	switch classify(kind) {
	case classInlineScalar:
		return cursor, encodeInlineScalar(w, kind, v)
	case classOffsetScalar:
		if err := w.WriteU32(uint32(cursor)); err != nil {
			return cursor, err
		}
		next := cursor
		err := w.WithSeek(cursor, func() error {
			if err := encodeOffsetScalar(w, kind, v); err != nil {
				return err
			}
			if err := w.AlignUp(4); err != nil {
				return err
			}
			next = w.Tell()
			return nil
		})
		return next, err
	case classOffsetArray:
		if err := w.WriteU32(uint32(cursor)); err != nil {
			return cursor, err
		}
		next := cursor
		err := w.WithSeek(cursor, func() error {
			if err := w.WriteU32(uint32(v.Len())); err != nil {
				return err
			}
			if err := encodeArrayElements(w, kind, v); err != nil {
				return err
			}
			if err := w.AlignUp(4); err != nil {
				return err
			}
			next = w.Tell()
			return nil
		})
		return next, err
	case classKeySet:
		if err := w.WriteU32(uint32(cursor)); err != nil {
			return cursor, err
		}
		next := cursor
		err := w.WithSeek(cursor, func() error {
			for _, key := range v.Keys {
				kv, err := namehash.ParseKeyHex64(key)
				if err != nil {
					return xerrors.Errorf("key %q: %w", key, savegdl.ErrInvalidValue)
				}
				if err := w.WriteU64(kv); err != nil {
					return err
				}
			}
			if err := w.WriteU64(0); err != nil {
				return err
			}
			if err := w.AlignUp(4); err != nil {
				return err
			}
			next = w.Tell()
			return nil
		})
		return next, err
	default:
		return cursor, xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func encodeInlineScalar(w *iostream.Writer, kind savegdl.FlagKind, v savegdl.FlagValue) error {
	switch kind {
	case savegdl.Bool:
		b, _ := v.Scalar.(bool)
		n := uint32(0)
		if b {
			n = 1
		}
		return w.WriteU32(n)
	case savegdl.Int:
		n, _ := v.Scalar.(int32)
		return w.WriteS32(n)
	case savegdl.Float:
		f, _ := v.Scalar.(float32)
		return w.WriteF32(f)
	case savegdl.Enum, savegdl.UInt:
		n, _ := v.Scalar.(uint32)
		return w.WriteU32(n)
	default:
		return xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func encodeOffsetScalar(w *iostream.Writer, kind savegdl.FlagKind, v savegdl.FlagValue) error {
	switch kind {
	case savegdl.Vector2:
		vec, _ := v.Scalar.(savegdl.Vector2)
		if err := w.WriteF32(vec.X); err != nil {
			return err
		}
		return w.WriteF32(vec.Y)
	case savegdl.Vector3:
		vec, _ := v.Scalar.(savegdl.Vector3)
		if err := w.WriteF32(vec.X); err != nil {
			return err
		}
		if err := w.WriteF32(vec.Y); err != nil {
			return err
		}
		return w.WriteF32(vec.Z)
	case savegdl.String16, savegdl.String32, savegdl.String64:
		s, _ := v.Scalar.(string)
		return w.WriteBytes(encodeFixedString(s, kind.StringCapacity()))
	case savegdl.WString16, savegdl.WString32, savegdl.WString64:
		s, _ := v.Scalar.(string)
		b, err := encodeFixedWString(s, kind.StringCapacity())
		if err != nil {
			return err
		}
		return w.WriteBytes(b)
	case savegdl.Binary:
		b, _ := v.Scalar.([]byte)
		if err := w.WriteU32(uint32(len(b))); err != nil {
			return err
		}
		return w.WriteBytes(b)
	case savegdl.Int64:
		n, _ := v.Scalar.(int64)
		return w.WriteS64(n)
	case savegdl.UInt64:
		n, _ := v.Scalar.(uint64)
		return w.WriteU64(n)
	default:
		return xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func encodeArrayElements(w *iostream.Writer, kind savegdl.FlagKind, v savegdl.FlagValue) error {
	switch kind {
	case savegdl.BoolArray:
		bits := make([]bool, len(v.Array))
		for i, e := range v.Array {
			bits[i], _ = e.(bool)
		}
		return w.WriteBytes(encodeBoolArrayBits(bits))
	case savegdl.IntArray:
		for _, e := range v.Array {
			n, _ := e.(int32)
			if err := w.WriteS32(n); err != nil {
				return err
			}
		}
	case savegdl.FloatArray:
		for _, e := range v.Array {
			f, _ := e.(float32)
			if err := w.WriteF32(f); err != nil {
				return err
			}
		}
	case savegdl.EnumArray, savegdl.UIntArray:
		for _, e := range v.Array {
			n, _ := e.(uint32)
			if err := w.WriteU32(n); err != nil {
				return err
			}
		}
	case savegdl.Vector2Array:
		for _, e := range v.Array {
			vec, _ := e.(savegdl.Vector2)
			if err := w.WriteF32(vec.X); err != nil {
				return err
			}
			if err := w.WriteF32(vec.Y); err != nil {
				return err
			}
		}
	case savegdl.Vector3Array:
		for _, e := range v.Array {
			vec, _ := e.(savegdl.Vector3)
			if err := w.WriteF32(vec.X); err != nil {
				return err
			}
			if err := w.WriteF32(vec.Y); err != nil {
				return err
			}
			if err := w.WriteF32(vec.Z); err != nil {
				return err
			}
		}
	case savegdl.String16Array, savegdl.String32Array, savegdl.String64Array:
		cap := kind.StringCapacity()
		for _, e := range v.Array {
			s, _ := e.(string)
			if err := w.WriteBytes(encodeFixedString(s, cap)); err != nil {
				return err
			}
		}
	case savegdl.WString16Array, savegdl.WString32Array, savegdl.WString64Array:
		cap := kind.StringCapacity()
		for _, e := range v.Array {
			s, _ := e.(string)
			b, err := encodeFixedWString(s, cap)
			if err != nil {
				return err
			}
			if err := w.WriteBytes(b); err != nil {
				return err
			}
		}
	case savegdl.BinaryArray:
		for _, e := range v.Array {
			b, _ := e.([]byte)
			if err := w.WriteU32(uint32(len(b))); err != nil {
				return err
			}
			if err := w.WriteBytes(b); err != nil {
				return err
			}
		}
	case savegdl.Int64Array:
		for _, e := range v.Array {
			n, _ := e.(int64)
			if err := w.WriteS64(n); err != nil {
				return err
			}
		}
	case savegdl.UInt64Array:
		for _, e := range v.Array {
			n, _ := e.(uint64)
			if err := w.WriteU64(n); err != nil {
				return err
			}
		}
	default:
		return xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
	return nil
}

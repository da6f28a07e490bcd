package sav

import (
	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/iostream"
	"github.com/dt-12345/savegdl/internal/namehash"
	"golang.org/x/xerrors"
)

// Decode parses a SAV buffer into a Header and a typed savegdl.Store,
// following the algorithm of spec.md §4.2 exactly: validate magic and
// version, then walk the key table from 0x20 to data_offset, dispatching on
// the most recently seen type-switch word.
func Decode(buf []byte) (*Header, *savegdl.Store, error) {
	r := iostream.NewReader(buf)

	magic, err := r.ReadU32()
	if err != nil {
		return nil, nil, err
	}
	if magic != Magic {
		return nil, nil, xerrors.Errorf("magic %#08x: %w", magic, savegdl.ErrBadMagic)
	}

	version, err := r.ReadU32()
	if err != nil {
		return nil, nil, err
	}
	if !SupportedVersions[version] {
		return nil, nil, xerrors.Errorf("format_version %d: %w", version, savegdl.ErrUnsupportedVersion)
	}

	dataOffset, err := r.ReadU32()
	if err != nil {
		return nil, nil, err
	}

	hdr := &Header{FormatVersion: version, DataOffset: dataOffset, Size: r.Len()}
	store := savegdl.NewStore()

	r.Seek(HeaderSize)
	kind := savegdl.Bool
	for r.Tell() < int64(dataOffset) {
		hash, err := r.ReadU32()
		if err != nil {
			return nil, nil, err
		}
		if hash == 0 {
			id, err := r.ReadU32()
			if err != nil {
				return nil, nil, err
			}
			if id >= uint32(savegdl.NumFlagKinds) {
				return nil, nil, xerrors.Errorf("type id %d: %w", id, savegdl.ErrUnknownTypeID)
			}
			kind = savegdl.FlagKind(id)
			continue
		}
		v, present, err := decodeValue(r, kind)
		if err != nil {
			return nil, nil, xerrors.Errorf("decoding %s flag %#08x: %w", kind, hash, err)
		}
		if present {
			store.Insert(kind, hash, v)
		}
	}
	return hdr, store, nil
}

// decodeValue reads one flag's value for the given kind at the current
// cursor position (which is inside the key table, about to read either an
// inline value or an offset word). present is false when an offset-
// referenced flag's offset word is zero, meaning the flag is absent and
// must not be inserted (spec.md §4.2).
func decodeValue(r *iostream.Reader, kind savegdl.FlagKind) (savegdl.FlagValue, bool, error) {
	switch classify(kind) {
	case classInlineScalar:
		v, err := decodeInlineScalar(r, kind)
		return v, true, err
	case classOffsetScalar:
		offset, err := r.ReadU32()
		if err != nil {
			return savegdl.FlagValue{}, false, err
		}
		if offset == 0 {
			return savegdl.FlagValue{}, false, nil
		}
		var v savegdl.FlagValue
		err = r.WithSeek(int64(offset), func() error {
			var err error
			v, err = decodeOffsetScalar(r, kind)
			return err
		})
		return v, true, err
	case classOffsetArray:
		offset, err := r.ReadU32()
		if err != nil {
			return savegdl.FlagValue{}, false, err
		}
		if offset == 0 {
			return savegdl.FlagValue{}, false, nil
		}
		var v savegdl.FlagValue
		err = r.WithSeek(int64(offset), func() error {
			var err error
			v, err = decodeArray(r, kind)
			return err
		})
		return v, true, err
	case classKeySet:
		offset, err := r.ReadU32()
		if err != nil {
			return savegdl.FlagValue{}, false, err
		}
		if offset == 0 {
			return savegdl.FlagValue{}, false, nil
		}
		var v savegdl.FlagValue
		err = r.WithSeek(int64(offset), func() error {
			var err error
			v, err = decodeKeySet(r)
			return err
		})
		return v, true, err
	default:
		return savegdl.FlagValue{}, false, xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func decodeInlineScalar(r *iostream.Reader, kind savegdl.FlagKind) (savegdl.FlagValue, error) {
	switch kind {
	case savegdl.Bool:
		v, err := r.ReadU32()
		return savegdl.NewBool(v != 0), err
	case savegdl.Int:
		v, err := r.ReadS32()
		return savegdl.NewInt(v), err
	case savegdl.Float:
		v, err := r.ReadF32()
		return savegdl.NewFloat(v), err
	case savegdl.Enum:
		v, err := r.ReadU32()
		return savegdl.NewEnum(v), err
	case savegdl.UInt:
		v, err := r.ReadU32()
		return savegdl.NewUInt(v), err
	default:
		return savegdl.FlagValue{}, xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func decodeOffsetScalar(r *iostream.Reader, kind savegdl.FlagKind) (savegdl.FlagValue, error) {
	switch kind {
	case savegdl.Vector2:
		x, err := r.ReadF32()
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		y, err := r.ReadF32()
		return savegdl.NewVector2(savegdl.Vector2{X: x, Y: y}), err
	case savegdl.Vector3:
		x, err := r.ReadF32()
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		y, err := r.ReadF32()
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		z, err := r.ReadF32()
		return savegdl.NewVector3(savegdl.Vector3{X: x, Y: y, Z: z}), err
	case savegdl.String16, savegdl.String32, savegdl.String64:
		cap := kind.StringCapacity()
		b, err := r.ReadBytes(cap)
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewString(kind, decodeFixedString(b)), nil
	case savegdl.WString16, savegdl.WString32, savegdl.WString64:
		cap := kind.StringCapacity()
		b, err := r.ReadBytes(cap)
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		s, err := decodeFixedWString(b)
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewString(kind, s), nil
	case savegdl.Binary:
		n, err := r.ReadU32()
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewBinary(b), nil
	case savegdl.Int64:
		v, err := r.ReadS64()
		return savegdl.NewInt64(v), err
	case savegdl.UInt64:
		v, err := r.ReadU64()
		return savegdl.NewUInt64(v), err
	default:
		return savegdl.FlagValue{}, xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
}

func decodeArray(r *iostream.Reader, kind savegdl.FlagKind) (savegdl.FlagValue, error) {
	count, err := r.ReadU32()
	if err != nil {
		return savegdl.FlagValue{}, err
	}
	n := int(count)
	elems := make([]any, 0, n)

	switch kind {
	case savegdl.BoolArray:
		b, err := r.ReadBytes(boolArrayByteLen(n))
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		for _, bit := range decodeBoolArrayBits(b, n) {
			elems = append(elems, bit)
		}
	case savegdl.IntArray:
		for i := 0; i < n; i++ {
			v, err := r.ReadS32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, v)
		}
	case savegdl.FloatArray:
		for i := 0; i < n; i++ {
			v, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, v)
		}
	case savegdl.EnumArray, savegdl.UIntArray:
		for i := 0; i < n; i++ {
			v, err := r.ReadU32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, v)
		}
	case savegdl.Vector2Array:
		for i := 0; i < n; i++ {
			x, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			y, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, savegdl.Vector2{X: x, Y: y})
		}
	case savegdl.Vector3Array:
		for i := 0; i < n; i++ {
			x, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			y, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			z, err := r.ReadF32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, savegdl.Vector3{X: x, Y: y, Z: z})
		}
	case savegdl.String16Array, savegdl.String32Array, savegdl.String64Array:
		cap := kind.StringCapacity()
		for i := 0; i < n; i++ {
			b, err := r.ReadBytes(cap)
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, decodeFixedString(b))
		}
	case savegdl.WString16Array, savegdl.WString32Array, savegdl.WString64Array:
		cap := kind.StringCapacity()
		for i := 0; i < n; i++ {
			b, err := r.ReadBytes(cap)
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			s, err := decodeFixedWString(b)
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, s)
		}
	case savegdl.BinaryArray:
		for i := 0; i < n; i++ {
			ln, err := r.ReadU32()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			b, err := r.ReadBytes(int(ln))
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, b)
		}
	case savegdl.Int64Array:
		for i := 0; i < n; i++ {
			v, err := r.ReadS64()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, v)
		}
	case savegdl.UInt64Array:
		for i := 0; i < n; i++ {
			v, err := r.ReadU64()
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems = append(elems, v)
		}
	default:
		return savegdl.FlagValue{}, xerrors.Errorf("kind %s: %w", kind, savegdl.ErrUnknownType)
	}
	return savegdl.NewArray(kind, elems), nil
}

func decodeKeySet(r *iostream.Reader) (savegdl.FlagValue, error) {
	var keys []string
	for {
		v, err := r.ReadU64()
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		if v == 0 {
			break
		}
		keys = append(keys, namehash.FormatKeyHex64(v))
	}
	return savegdl.NewBool64bitKey(keys), nil
}

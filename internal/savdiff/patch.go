package savdiff

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/namehash"
	"golang.org/x/xerrors"
)

// ParseDocument decodes a diff document's JSON bytes into the loosely
// typed shape Patch consumes. Numbers are kept as json.Number rather than
// float64 so UInt64/Int64 values survive round-trip without losing
// precision past 2^53.
func ParseDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Patch applies a parsed diff document to store in place (spec.md §4.5).
// Entries are applied in map iteration order; per spec.md §7, a failure
// partway through leaves earlier mutations applied — callers that need
// atomicity should Clone the store first.
func Patch(store *savegdl.Store, doc map[string]any) error {
	for typeName, rawEntries := range doc {
		kind, ok := savegdl.FlagKindByName(typeName)
		if !ok {
			return xerrors.Errorf("type %q: %w", typeName, savegdl.ErrUnknownType)
		}
		entries, ok := rawEntries.(map[string]any)
		if !ok {
			return xerrors.Errorf("type %q: %w", typeName, savegdl.ErrInvalidValue)
		}
		for flagName, rawChange := range entries {
			hash := namehash.ParseHexOrName(flagName)
			var err error
			switch {
			case kind == savegdl.Bool64bitKey:
				err = patchKeySet(store, rawChange)
			case kind.IsArray():
				err = patchArray(store, kind, hash, rawChange)
			default:
				err = patchScalar(store, kind, hash, rawChange)
			}
			if err != nil {
				return xerrors.Errorf("patching %s flag %q: %w", typeName, flagName, err)
			}
		}
	}
	return nil
}

func asChange(raw any) (oldV, newV any, ok bool) {
	m, isMap := raw.(map[string]any)
	if !isMap {
		return nil, nil, false
	}
	o, hasOld := m["Old"]
	n, hasNew := m["New"]
	if !hasOld || !hasNew {
		return nil, nil, false
	}
	return o, n, true
}

func patchScalar(store *savegdl.Store, kind savegdl.FlagKind, hash uint32, raw any) error {
	_, newV, ok := asChange(raw)
	if !ok {
		return savegdl.ErrInvalidValue
	}
	if newV == nil {
		store.Delete(kind, hash)
		return nil
	}
	v, err := scalarFromJSON(kind, newV)
	if err != nil {
		return err
	}
	store.Insert(kind, hash, v)
	return nil
}

func patchArray(store *savegdl.Store, kind savegdl.FlagKind, hash uint32, raw any) error {
	idxMap, ok := raw.(map[string]any)
	if !ok {
		return savegdl.ErrInvalidValue
	}
	v, exists := store.Get(kind, hash)
	if !exists {
		return savegdl.ErrUnsupportedArrayResize
	}
	arr := append([]any(nil), v.Array...)
	base := elemKind(kind)
	for idxStr, change := range idxMap {
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return xerrors.Errorf("index %q: %w", idxStr, savegdl.ErrInvalidValue)
		}
		_, newV, ok := asChange(change)
		if !ok || newV == nil || idx < 0 || idx >= len(arr) {
			return savegdl.ErrUnsupportedArrayResize
		}
		elem, err := scalarFromJSON(base, newV)
		if err != nil {
			return err
		}
		arr[idx] = elem.Scalar
	}
	store.Insert(kind, hash, savegdl.NewArray(kind, arr))
	return nil
}

func patchKeySet(store *savegdl.Store, raw any) error {
	oldV, newV, ok := asChange(raw)
	if !ok {
		return savegdl.ErrInvalidValue
	}
	oldKeys, err := toStringSlice(oldV)
	if err != nil {
		return err
	}
	newKeys, err := toStringSlice(newV)
	if err != nil {
		return err
	}

	existing, _ := store.Get(savegdl.Bool64bitKey, gameKeySetHash)
	keep := make(map[string]bool, len(existing.Keys)+len(newKeys))
	for _, k := range existing.Keys {
		keep[k] = true
	}
	for _, k := range newKeys {
		keep[k] = true
	}
	for _, k := range oldKeys {
		delete(keep, k)
	}

	out := make([]string, 0, len(keep))
	seen := make(map[string]bool, len(keep))
	for _, k := range existing.Keys {
		if keep[k] && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	for _, k := range newKeys {
		if keep[k] && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	store.Insert(savegdl.Bool64bitKey, gameKeySetHash, savegdl.NewBool64bitKey(out))
	return nil
}

func toStringSlice(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	xs, ok := raw.([]any)
	if !ok {
		return nil, savegdl.ErrInvalidValue
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		s, ok := x.(string)
		if !ok {
			return nil, savegdl.ErrInvalidValue
		}
		out = append(out, s)
	}
	return out, nil
}

// scalarFromJSON converts one JSON-decoded leaf value back into a
// FlagValue for kind (used both for true scalars and, with kind set to an
// array's elemKind, for a single array element). For Enum it hashes the
// resolved name to recover the numeric value (spec.md §4.5).
func scalarFromJSON(kind savegdl.FlagKind, raw any) (savegdl.FlagValue, error) {
	switch kind {
	case savegdl.Bool:
		b, _ := raw.(bool)
		return savegdl.NewBool(b), nil
	case savegdl.Int:
		n, err := toInt64(raw)
		return savegdl.FlagValue{Kind: savegdl.Int, Scalar: int32(n)}, err
	case savegdl.Float:
		f, err := toFloat64(raw)
		return savegdl.FlagValue{Kind: savegdl.Float, Scalar: float32(f)}, err
	case savegdl.Enum:
		name, _ := raw.(string)
		return savegdl.NewEnum(namehash.Hash(name)), nil
	case savegdl.UInt:
		n, err := toUint64(raw)
		return savegdl.FlagValue{Kind: savegdl.UInt, Scalar: uint32(n)}, err
	case savegdl.Int64:
		n, err := toInt64(raw)
		return savegdl.NewInt64(n), err
	case savegdl.UInt64:
		n, err := toUint64(raw)
		return savegdl.NewUInt64(n), err
	case savegdl.Vector2:
		xs, ok := raw.([]any)
		if !ok || len(xs) != 2 {
			return savegdl.FlagValue{}, savegdl.ErrInvalidValue
		}
		x, err := toFloat64(xs[0])
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		y, err := toFloat64(xs[1])
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewVector2(savegdl.Vector2{X: float32(x), Y: float32(y)}), nil
	case savegdl.Vector3:
		xs, ok := raw.([]any)
		if !ok || len(xs) != 3 {
			return savegdl.FlagValue{}, savegdl.ErrInvalidValue
		}
		x, err := toFloat64(xs[0])
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		y, err := toFloat64(xs[1])
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		z, err := toFloat64(xs[2])
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewVector3(savegdl.Vector3{X: float32(x), Y: float32(y), Z: float32(z)}), nil
	case savegdl.Binary:
		s, _ := raw.(string)
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewBinary(b), nil
	default:
		if kind.IsString() {
			s, _ := raw.(string)
			return savegdl.NewString(kind, s), nil
		}
		return savegdl.FlagValue{}, savegdl.ErrUnknownType
	}
}

func toFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	default:
		return 0, savegdl.ErrInvalidValue
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	default:
		return 0, savegdl.ErrInvalidValue
	}
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case json.Number:
		return strconv.ParseUint(v.String(), 10, 64)
	case float64:
		return uint64(v), nil
	default:
		return 0, savegdl.ErrInvalidValue
	}
}

package main

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/namehash"
)

// storeDoc is the JSON shape decode/encode exchange with the outside world:
// type name -> flag name (or "0x"+hex if unresolved) -> rendered value.
// Array kinds render as a plain JSON array, matching the element order
// store.Get returns; Bool64bitKey renders as a string list of "0x"+16-hex
// keys.
type storeDoc map[string]map[string]any

// dumpStore renders every flag in store into a storeDoc, resolving names
// through dict the same way savdiff.Diff does (internal/savdiff/diff.go's
// resolveName/renderLeaf), duplicated here rather than exported since the
// shapes a plain dump and a two-sided diff want are different enough not
// to share one function.
func dumpStore(store *savegdl.Store, dict *hashdict.Dict) storeDoc {
	out := storeDoc{}
	for _, kind := range store.KindsAscending() {
		typeName := kind.String()
		m := make(map[string]any)
		for _, hash := range store.Hashes(kind) {
			v, _ := store.Get(kind, hash)
			name := dict.Name(hash)
			m[name] = renderValue(dict, kind, v)
		}
		if len(m) > 0 {
			out[typeName] = m
		}
	}
	return out
}

func elemKind(k savegdl.FlagKind) savegdl.FlagKind {
	if !k.IsArray() {
		return k
	}
	base, ok := savegdl.FlagKindByName(strings.TrimSuffix(k.String(), "Array"))
	if !ok {
		return k
	}
	return base
}

func renderValue(dict *hashdict.Dict, kind savegdl.FlagKind, v savegdl.FlagValue) any {
	if kind == savegdl.Bool64bitKey {
		return append([]string(nil), v.Keys...)
	}
	if kind.IsArray() {
		base := elemKind(kind)
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = renderLeaf(dict, base, e)
		}
		return out
	}
	return renderLeaf(dict, kind, v.Scalar)
}

func renderLeaf(dict *hashdict.Dict, kind savegdl.FlagKind, v any) any {
	if kind == savegdl.Enum {
		n, _ := v.(uint32)
		return dict.Name(n)
	}
	switch x := v.(type) {
	case savegdl.Vector2:
		return []float32{x.X, x.Y}
	case savegdl.Vector3:
		return []float32{x.X, x.Y, x.Z}
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	default:
		return x
	}
}

// loadStoreDoc rebuilds a savegdl.Store from a storeDoc produced by
// dumpStore (round-tripping through JSON in between), registering any
// resolved flag name with dict so a later diff against this store already
// knows it.
func loadStoreDoc(doc storeDoc, dict *hashdict.Dict) (*savegdl.Store, error) {
	store := savegdl.NewStore()
	for typeName, entries := range doc {
		kind, ok := savegdl.FlagKindByName(typeName)
		if !ok {
			return nil, xerrors.Errorf("type %q: %w", typeName, savegdl.ErrUnknownType)
		}
		for flagName, raw := range entries {
			hash := namehash.ParseHexOrName(flagName)
			if !strings.HasPrefix(flagName, "0x") {
				dict.RegisterNewHash(flagName)
			}
			v, err := valueFromJSON(kind, raw)
			if err != nil {
				return nil, err
			}
			store.Insert(kind, hash, v)
		}
	}
	return store, nil
}

func valueFromJSON(kind savegdl.FlagKind, raw any) (savegdl.FlagValue, error) {
	if kind == savegdl.Bool64bitKey {
		keys, err := toStringList(raw)
		if err != nil {
			return savegdl.FlagValue{}, err
		}
		return savegdl.NewBool64bitKey(keys), nil
	}
	if kind.IsArray() {
		xs, ok := raw.([]any)
		if !ok {
			return savegdl.FlagValue{}, savegdl.ErrInvalidValue
		}
		base := elemKind(kind)
		elems := make([]any, len(xs))
		for i, x := range xs {
			leaf, err := leafFromJSON(base, x)
			if err != nil {
				return savegdl.FlagValue{}, err
			}
			elems[i] = leaf
		}
		return savegdl.NewArray(kind, elems), nil
	}
	leaf, err := leafFromJSON(kind, raw)
	if err != nil {
		return savegdl.FlagValue{}, err
	}
	return savegdl.FlagValue{Kind: kind, Scalar: leaf}, nil
}

// leafFromJSON converts one decoded JSON leaf into the concrete Go value a
// FlagValue's Scalar/Array element must hold for kind, the inverse of
// renderLeaf (and mirroring internal/savdiff/patch.go's scalarFromJSON,
// adapted to return the bare leaf value rather than a whole FlagValue). An
// Enum value in the "0x" hex form renderLeaf emits for names the dictionary
// cannot resolve is parsed back as that hex value, not hashed.
func leafFromJSON(kind savegdl.FlagKind, raw any) (any, error) {
	switch kind {
	case savegdl.Bool:
		b, _ := raw.(bool)
		return b, nil
	case savegdl.Int:
		n, err := toInt64(raw)
		return int32(n), err
	case savegdl.Float:
		f, err := toFloat64(raw)
		return float32(f), err
	case savegdl.Enum:
		name, _ := raw.(string)
		return namehash.ParseHexOrName(name), nil
	case savegdl.UInt:
		n, err := toUint64(raw)
		return uint32(n), err
	case savegdl.Int64:
		return toInt64(raw)
	case savegdl.UInt64:
		return toUint64(raw)
	case savegdl.Vector2:
		xs, ok := raw.([]any)
		if !ok || len(xs) != 2 {
			return nil, savegdl.ErrInvalidValue
		}
		x, err := toFloat64(xs[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat64(xs[1])
		if err != nil {
			return nil, err
		}
		return savegdl.Vector2{X: float32(x), Y: float32(y)}, nil
	case savegdl.Vector3:
		xs, ok := raw.([]any)
		if !ok || len(xs) != 3 {
			return nil, savegdl.ErrInvalidValue
		}
		x, err := toFloat64(xs[0])
		if err != nil {
			return nil, err
		}
		y, err := toFloat64(xs[1])
		if err != nil {
			return nil, err
		}
		z, err := toFloat64(xs[2])
		if err != nil {
			return nil, err
		}
		return savegdl.Vector3{X: float32(x), Y: float32(y), Z: float32(z)}, nil
	case savegdl.Binary:
		s, _ := raw.(string)
		return base64.StdEncoding.DecodeString(s)
	default:
		if kind.IsString() {
			s, _ := raw.(string)
			return s, nil
		}
		return nil, savegdl.ErrUnknownType
	}
}

func toStringList(raw any) ([]string, error) {
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

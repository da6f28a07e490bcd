// Package savdiff implements the structural diff/patch engine of spec.md
// §4.4, §4.5: a two-pass comparison between two savegdl.Stores producing a
// delta Document keyed by resolved flag names, and an in-place patch
// applier for such a document.
package savdiff

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/namehash"
)

// gameKeySetHash is the fixed hash under which the single Bool64bitKey
// flag lives, preserved from the original implementation's hardcoded
// mmh3.hash("Game") (spec.md §9's fourth Open Question: "preserve this
// contract").
var gameKeySetHash = namehash.Hash("Game")

// ScalarChange is a {Old, New} delta entry for a non-array, non-
// Bool64bitKey flag. Either side is nil to mean "absent".
type ScalarChange struct {
	Old any `json:"Old"`
	New any `json:"New"`
}

// KeySetChange is the {Old, New} delta entry for the Bool64bitKey flag:
// Old lists removed keys, New lists added keys (spec.md §4.4).
type KeySetChange struct {
	Old []string `json:"Old"`
	New []string `json:"New"`
}

// Document is the top-level delta: type name -> flag name -> change. The
// change value is a ScalarChange, a KeySetChange, or (for array kinds) a
// map[string]ScalarChange keyed by decimal element index.
type Document map[string]map[string]any

func (d Document) typeMap(name string) map[string]any {
	m, ok := d[name]
	if !ok {
		m = make(map[string]any)
		d[name] = m
	}
	return m
}

func (d Document) prune(name string) {
	if m, ok := d[name]; ok && len(m) == 0 {
		delete(d, name)
	}
}

// resolveName renders hash through the dictionary, falling back to its hex
// form (spec.md §4.4's resolution rule).
func resolveName(dict *hashdict.Dict, hash uint32) string {
	return dict.Name(hash)
}

// elemKind returns the kind used to interpret one element of k: k itself
// for scalar kinds, or the corresponding base kind for an *Array kind
// (e.g. EnumArray -> Enum), resolved generically from the naming
// convention rather than a second hardcoded table.
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

// renderLeaf converts one decoded value (interpreted under interpretKind)
// into its JSON-ready diff-document representation: Enum values are
// resolved to names, Binary blobs are base64-encoded, vectors become plain
// float slices, everything else passes through unchanged.
func renderLeaf(dict *hashdict.Dict, interpretKind savegdl.FlagKind, v any) any {
	if interpretKind == savegdl.Enum {
		n, _ := v.(uint32)
		return resolveName(dict, n)
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

// Diff compares a (old) against b (new), producing a delta Document keyed
// by name (spec.md §4.4). It runs two symmetric passes exactly as the
// reference implementation does: the first over b collects additions and
// records full {Old,New} pairs for mutated scalars and per-index array
// entries; the second over a collects deletions and records the removed
// side of Bool64bitKey and array-shrink changes the first pass could not
// see from b alone.
func Diff(a, b *savegdl.Store, dict *hashdict.Dict) Document {
	out := Document{}

	for _, kind := range b.KindsAscending() {
		typeName := kind.String()
		m := out.typeMap(typeName)
		for _, hash := range b.Hashes(kind) {
			bv, _ := b.Get(kind, hash)
			name := resolveName(dict, hash)
			av, existsInA := a.Get(kind, hash)
			switch {
			case !existsInA:
				m[name] = newEntryAdded(dict, kind, bv)
			case !av.Equal(bv):
				m[name] = diffMutation(dict, kind, av, bv, true)
			}
		}
		out.prune(typeName)
	}

	for _, kind := range a.KindsAscending() {
		typeName := kind.String()
		m := out.typeMap(typeName)
		for _, hash := range a.Hashes(kind) {
			av, _ := a.Get(kind, hash)
			name := resolveName(dict, hash)
			bv, existsInB := b.Get(kind, hash)
			switch {
			case !existsInB:
				m[name] = newEntryRemoved(dict, kind, av)
			case !av.Equal(bv):
				mergeRemovedSide(m, name, dict, kind, av, bv)
			}
		}
		out.prune(typeName)
	}

	return out
}

func newEntryAdded(dict *hashdict.Dict, kind savegdl.FlagKind, bv savegdl.FlagValue) any {
	switch {
	case kind == savegdl.Bool64bitKey:
		return KeySetChange{Old: nil, New: append([]string(nil), bv.Keys...)}
	case kind.IsArray():
		idx := make(map[string]any, len(bv.Array))
		for i, e := range bv.Array {
			idx[strconv.Itoa(i)] = ScalarChange{Old: nil, New: renderLeaf(dict, elemKind(kind), e)}
		}
		return idx
	default:
		return ScalarChange{Old: nil, New: renderLeaf(dict, kind, bv.Scalar)}
	}
}

func newEntryRemoved(dict *hashdict.Dict, kind savegdl.FlagKind, av savegdl.FlagValue) any {
	switch {
	case kind == savegdl.Bool64bitKey:
		return KeySetChange{Old: append([]string(nil), av.Keys...), New: nil}
	case kind.IsArray():
		idx := make(map[string]any, len(av.Array))
		for i, e := range av.Array {
			idx[strconv.Itoa(i)] = ScalarChange{Old: renderLeaf(dict, elemKind(kind), e), New: nil}
		}
		return idx
	default:
		return ScalarChange{Old: renderLeaf(dict, kind, av.Scalar), New: nil}
	}
}

// diffMutation builds the pass-1 entry for a flag present, and differing,
// on both sides. fromB records whether the call comes from the pass
// iterating b (true) or a (false); the entry built is the same either way.
// For Bool64bitKey it fills only the added keys (New) and leaves Old empty;
// mergeRemovedSide fills the removed keys in pass 2, mirroring the
// reference's asymmetric two-pass construction.
func diffMutation(dict *hashdict.Dict, kind savegdl.FlagKind, av, bv savegdl.FlagValue, fromB bool) any {
	switch {
	case kind == savegdl.Bool64bitKey:
		added := setDiff(bv.Keys, av.Keys)
		return KeySetChange{Old: []string{}, New: added}
	case kind.IsArray():
		idx := make(map[string]any)
		n := len(bv.Array)
		if len(av.Array) > n {
			n = len(av.Array)
		}
		for i := 0; i < n; i++ {
			switch {
			case i >= len(av.Array):
				idx[strconv.Itoa(i)] = ScalarChange{Old: nil, New: renderLeaf(dict, elemKind(kind), bv.Array[i])}
			case i >= len(bv.Array):
				idx[strconv.Itoa(i)] = ScalarChange{Old: renderLeaf(dict, elemKind(kind), av.Array[i]), New: nil}
			case !equalElem(av.Array[i], bv.Array[i]):
				idx[strconv.Itoa(i)] = ScalarChange{
					Old: renderLeaf(dict, elemKind(kind), av.Array[i]),
					New: renderLeaf(dict, elemKind(kind), bv.Array[i]),
				}
			}
		}
		return idx
	default:
		return ScalarChange{
			Old: renderLeaf(dict, kind, av.Scalar),
			New: renderLeaf(dict, kind, bv.Scalar),
		}
	}
}

// mergeRemovedSide folds pass-2 information (the a-side view of a mutated
// flag) into an already-present pass-1 entry: for Bool64bitKey it fills
// the removed-keys Old side; for arrays it records indices present only in
// a (shrink) that pass 1 could not see from b's shorter array.
func mergeRemovedSide(m map[string]any, name string, dict *hashdict.Dict, kind savegdl.FlagKind, av, bv savegdl.FlagValue) {
	existing, ok := m[name]
	if !ok {
		m[name] = diffMutation(dict, kind, av, bv, false)
		return
	}
	switch kind {
	case savegdl.Bool64bitKey:
		ksc := existing.(KeySetChange)
		ksc.Old = setDiff(av.Keys, bv.Keys)
		m[name] = ksc
	default:
		if kind.IsArray() {
			idx := existing.(map[string]any)
			for i, e := range av.Array {
				key := strconv.Itoa(i)
				if _, present := idx[key]; present {
					continue
				}
				if i >= len(bv.Array) {
					idx[key] = ScalarChange{Old: renderLeaf(dict, elemKind(kind), e), New: nil}
				}
			}
		}
	}
}

// setDiff returns the elements of have not present in exclude, preserving
// have's order (spec.md §4.4's Bool64bitKey set-difference).
func setDiff(have, exclude []string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		excluded[k] = true
	}
	out := []string{}
	for _, k := range have {
		if !excluded[k] {
			out = append(out, k)
		}
	}
	return out
}

func equalElem(a, b any) bool {
	va, oka := a.(savegdl.Vector2)
	vb, okb := b.(savegdl.Vector2)
	if oka && okb {
		return va == vb
	}
	wa, oka2 := a.(savegdl.Vector3)
	wb, okb2 := b.(savegdl.Vector3)
	if oka2 && okb2 {
		return wa == wb
	}
	ba, okba := a.([]byte)
	bb, okbb := b.([]byte)
	if okba && okbb {
		return string(ba) == string(bb)
	}
	return a == b
}

package savdiff

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/namehash"
)

func newDictWithNames(names ...string) *hashdict.Dict {
	d := hashdict.New()
	for _, n := range names {
		d.RegisterNewHash(n)
	}
	return d
}

// TestEnumDiffScenarioS2 matches spec.md §8 scenario S2: an Enum flag named
// "Weather" whose value is mmh3("Sunny") diffed against a store whose
// value is mmh3("Rain") yields {"Old":"Rain","New":"Sunny"}.
func TestEnumDiffScenarioS2(t *testing.T) {
	dict := newDictWithNames("Weather", "Sunny", "Rain")
	hash := namehash.Hash("Weather")

	a := savegdl.NewStore()
	a.Insert(savegdl.Enum, hash, savegdl.NewEnum(namehash.Hash("Rain")))
	b := savegdl.NewStore()
	b.Insert(savegdl.Enum, hash, savegdl.NewEnum(namehash.Hash("Sunny")))

	doc := Diff(a, b, dict)
	entry, ok := doc["Enum"]["Weather"]
	if !ok {
		t.Fatal("expected an Enum/Weather diff entry")
	}
	change, ok := entry.(ScalarChange)
	if !ok {
		t.Fatalf("entry type = %T, want ScalarChange", entry)
	}
	if change.Old != "Rain" || change.New != "Sunny" {
		t.Fatalf("change = %+v, want {Old:Rain New:Sunny}", change)
	}
}

func TestDiffAddedAndRemovedScalar(t *testing.T) {
	dict := hashdict.New()
	a := savegdl.NewStore()
	a.Insert(savegdl.Int, 0x1, savegdl.NewInt(1))
	b := savegdl.NewStore()
	b.Insert(savegdl.Int, 0x2, savegdl.NewInt(2))

	doc := Diff(a, b, dict)

	added, ok := doc["Int"]["0x00000002"]
	if !ok {
		t.Fatalf("doc = %+v, missing addition entry", doc)
	}
	ch := added.(ScalarChange)
	if ch.Old != nil || ch.New != int32(2) {
		t.Fatalf("added = %+v, want {Old:nil New:2}", ch)
	}

	removed := doc["Int"]["0x00000001"].(ScalarChange)
	if removed.New != nil || removed.Old != int32(1) {
		t.Fatalf("removed = %+v, want {Old:1 New:nil}", removed)
	}
}

func TestDiffBool64bitKeySetDifference(t *testing.T) {
	dict := hashdict.New()
	a := savegdl.NewStore()
	a.Insert(savegdl.Bool64bitKey, gameKeySetHash, savegdl.NewBool64bitKey([]string{
		"0x0000000000000001", "0x0000000000000002",
	}))
	b := savegdl.NewStore()
	b.Insert(savegdl.Bool64bitKey, gameKeySetHash, savegdl.NewBool64bitKey([]string{
		"0x0000000000000002", "0x0000000000000003",
	}))

	doc := Diff(a, b, dict)
	entry := doc["Bool64bitKey"]["0x"+namehash.HexKey(gameKeySetHash)].(KeySetChange)
	if diff := cmp.Diff([]string{"0x0000000000000003"}, entry.New); diff != "" {
		t.Fatalf("New mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0x0000000000000001"}, entry.Old); diff != "" {
		t.Fatalf("Old mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchInvertsDiffScalar(t *testing.T) {
	dict := hashdict.New()
	a := savegdl.NewStore()
	a.Insert(savegdl.Int, 0x10, savegdl.NewInt(5))
	a.Insert(savegdl.Bool, 0x20, savegdl.NewBool(false))
	b := savegdl.NewStore()
	b.Insert(savegdl.Int, 0x10, savegdl.NewInt(9))
	b.Insert(savegdl.Bool, 0x20, savegdl.NewBool(true))

	doc := Diff(a, b, dict)
	raw := documentToRaw(doc)

	patched := a.Clone()
	if err := Patch(patched, raw); err != nil {
		t.Fatal(err)
	}
	v, _ := patched.Get(savegdl.Int, 0x10)
	if v.Scalar.(int32) != 9 {
		t.Fatalf("Int = %v, want 9", v.Scalar)
	}
	v, _ = patched.Get(savegdl.Bool, 0x20)
	if v.Scalar.(bool) != true {
		t.Fatalf("Bool = %v, want true", v.Scalar)
	}
}

func TestPatchBool64bitKeyRestoresKeySet(t *testing.T) {
	dict := hashdict.New()
	a := savegdl.NewStore()
	a.Insert(savegdl.Bool64bitKey, gameKeySetHash, savegdl.NewBool64bitKey([]string{"0x0000000000000001"}))
	b := savegdl.NewStore()
	b.Insert(savegdl.Bool64bitKey, gameKeySetHash, savegdl.NewBool64bitKey([]string{"0x0000000000000002"}))

	doc := Diff(a, b, dict)
	raw := documentToRaw(doc)

	patched := a.Clone()
	if err := Patch(patched, raw); err != nil {
		t.Fatal(err)
	}
	v, _ := patched.Get(savegdl.Bool64bitKey, gameKeySetHash)
	if diff := cmp.Diff([]string{"0x0000000000000002"}, v.Keys); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
}

// documentToRaw converts a Document produced by Diff into the loosely
// typed shape Patch expects by a JSON marshal/unmarshal round trip through
// ParseDocument.
func documentToRaw(doc Document) map[string]any {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	out, err := ParseDocument(data)
	if err != nil {
		panic(err)
	}
	return out
}

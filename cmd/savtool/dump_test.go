package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dt-12345/savegdl"
	"github.com/dt-12345/savegdl/internal/hashdict"
	"github.com/dt-12345/savegdl/internal/namehash"
)

// roundTripJSON simulates the real decode/encode path's intervening JSON
// stage: dumpStore's output is only ever consumed after having been
// marshaled and re-parsed with UseNumber, which is what makes
// loadStoreDoc's json.Number/[]any assumptions hold.
func roundTripJSON(t *testing.T, doc storeDoc) storeDoc {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var out storeDoc
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	return out
}

func TestDumpStoreLoadStoreDocRoundTrip(t *testing.T) {
	store := savegdl.NewStore()
	store.Insert(savegdl.Int, 0x12345678, savegdl.NewInt(-5))
	store.Insert(savegdl.Bool, 0xabcdef01, savegdl.NewBool(true))
	store.Insert(savegdl.IntArray, 0x1, savegdl.NewArray(savegdl.IntArray, []any{int32(1), int32(2), int32(3)}))
	store.Insert(savegdl.Bool64bitKey, 0x2, savegdl.NewBool64bitKey([]string{"0x0000000000000001"}))

	dict := hashdict.New()
	dict.RegisterNewHash("PlayerLevel")

	doc := roundTripJSON(t, dumpStore(store, dict))
	got, err := loadStoreDoc(doc, hashdict.New())
	if err != nil {
		t.Fatalf("loadStoreDoc: %v", err)
	}

	for _, kind := range store.KindsAscending() {
		for _, hash := range store.Hashes(kind) {
			want, _ := store.Get(kind, hash)
			have, ok := got.Get(kind, hash)
			if !ok {
				t.Fatalf("missing %s/0x%x after round trip", kind, hash)
			}
			if !want.Equal(have) {
				t.Errorf("%s/0x%x: got %+v, want %+v", kind, hash, have, want)
			}
		}
	}
}

func TestDumpStoreResolvesNames(t *testing.T) {
	store := savegdl.NewStore()
	dict := hashdict.New()
	dict.RegisterNewHash("PlayerLevel")
	store.Insert(savegdl.Int, namehash.Hash("PlayerLevel"), savegdl.NewInt(5))

	doc := dumpStore(store, dict)
	m, ok := doc["Int"]
	if !ok {
		t.Fatal("missing Int type in dump")
	}
	if _, ok := m["PlayerLevel"]; !ok {
		t.Fatalf("expected resolved name PlayerLevel in dump, got %v", m)
	}
}

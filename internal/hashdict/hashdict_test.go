package hashdict

import (
	"strings"
	"testing"

	"github.com/dt-12345/savegdl/internal/namehash"
)

func TestLoadFromPlainJSON(t *testing.T) {
	d, err := LoadFrom(strings.NewReader(`{"0000002a":"Foo"}`), false)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Name(0x2a); got != "Foo" {
		t.Fatalf("Name = %q, want Foo", got)
	}
}

func TestNameFallsBackToHex(t *testing.T) {
	d := New()
	if got, want := d.Name(0x1234), "0x00001234"; got != want {
		t.Fatalf("Name = %q, want %q", got, want)
	}
}

func TestUnknownSentinelFallsBackToHex(t *testing.T) {
	d, err := LoadFrom(strings.NewReader(`{"0000002a":"???"}`), false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Name(0x2a), "0x0000002a"; got != want {
		t.Fatalf("Name = %q, want %q", got, want)
	}
}

func TestTryReverseHashRecordsSentinel(t *testing.T) {
	d := New()
	if _, ok := d.TryReverseHash(0xabc); ok {
		t.Fatal("expected ok=false for unseen hash")
	}
	if _, ok := d.Lookup(0xabc); !ok {
		t.Fatal("expected hash to be recorded with the sentinel")
	}
	if _, ok := d.TryReverseHash(0xabc); ok {
		t.Fatal("expected ok=false for a hash already recorded as unknown")
	}
}

func TestRegisterNewHash(t *testing.T) {
	d := New()
	d.RegisterNewHash("Weather")
	name, ok := d.Lookup(namehash.Hash("Weather"))
	if !ok || name != "Weather" {
		t.Fatalf("Lookup = (%q, %v), want (Weather, true)", name, ok)
	}
	// Registering a name whose hash already has an entry does not overwrite it.
	d.hashes[namehash.HexKey(namehash.Hash("Weather"))] = "Other"
	d.RegisterNewHash("Weather")
	if name, _ := d.Lookup(namehash.Hash("Weather")); name != "Other" {
		t.Fatalf("Lookup after re-register = %q, want Other", name)
	}
}

// Package hashdict implements the persistent hash->name dictionary
// (spec.md §2.3, §5, §6): a process-lifetime mapping from a lowercase
// 8-hex-digit flag hash to its known name, with "unknown but observed"
// sentinel handling and a reverse-registration operation.
package hashdict

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/dt-12345/savegdl/internal/namehash"
)

// unknownSentinel marks a hash that has been observed but whose name is not
// known (spec.md §6: `"???"` is the sentinel for "unknown but observed").
const unknownSentinel = "???"

// Dict is a loaded hash dictionary. Construct one with New, Load or
// LoadFrom: the zero value has no map, and TryReverseHash and
// RegisterNewHash panic on it. Dict is safe for concurrent use, and a
// mutation is observable by every later call on the same Dict (spec.md §5).
type Dict struct {
	mu      sync.Mutex
	hashes  map[string]string
}

// New returns an empty Dict.
func New() *Dict {
	return &Dict{hashes: make(map[string]string)}
}

// Load reads a hash dictionary from a JSON file at path. If path ends in
// ".zst", it is first decompressed with a streaming zstd reader (spec.md
// §1's "streaming decompression library providing the compressed-bundle
// dictionary").
func Load(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFrom(f, strings.HasSuffix(path, ".zst"))
}

// LoadFrom reads a hash dictionary from r, optionally zstd-decompressing
// the stream first.
func LoadFrom(r io.Reader, compressed bool) (*Dict, error) {
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	d := New()
	if err := json.NewDecoder(r).Decode(&d.hashes); err != nil {
		return nil, err
	}
	return d, nil
}

// Save writes the dictionary back out as indented JSON, keyed by lowercase
// 8-hex-digit hash.
func (d *Dict) Save(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := json.MarshalIndent(d.hashes, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Name resolves hash to its known name, or the sentinel-aware fallback used
// throughout spec.md §4.4's diff engine: the hex form "0x%08x" if the
// dictionary has no entry, or if the entry is the "???" sentinel.
func (d *Dict) Name(hash uint32) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := namehash.HexKey(hash)
	if name, ok := d.hashes[key]; ok && name != unknownSentinel {
		return name
	}
	return "0x" + key
}

// Lookup returns the dictionary's raw entry for hash, without sentinel
// fallback, and whether a mapping exists at all.
func (d *Dict) Lookup(hash uint32) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.hashes[namehash.HexKey(hash)]
	return name, ok
}

// TryReverseHash resolves hash to its known name. If the hash is entirely
// unseen, it is recorded with the "???" sentinel (marking it as observed
// but unnamed) and the zero value is returned with ok=false. If the hash is
// already recorded as unknown, it likewise returns ok=false without
// mutating the dictionary again.
func (d *Dict) TryReverseHash(hash uint32) (name string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := namehash.HexKey(hash)
	if got, present := d.hashes[key]; present {
		if got == unknownSentinel {
			return "", false
		}
		return got, true
	}
	d.hashes[key] = unknownSentinel
	return "", false
}

// RegisterNewHash learns that flagName hashes to a known name, recording it
// unless an entry for that hash already exists.
func (d *Dict) RegisterNewHash(flagName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := namehash.HexKey(namehash.Hash(flagName))
	if _, ok := d.hashes[key]; !ok {
		d.hashes[key] = flagName
	}
}

// Bytes returns the dictionary serialized as compact JSON, for embedding in
// a diffbundle or transmitting over a byte-oriented channel.
func (d *Dict) Bytes() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(d.hashes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Package namehash wraps the 32-bit non-cryptographic string hash spec.md
// §1 treats as an external collaborator ("the non-cryptographic 32-bit
// string hash function (MurmurHash3 x86 32-bit, seed 0, unsigned)"). Every
// flag name in the system is addressed by this hash, never by the string
// itself, in both the SAV key table and the GDL FlagRecord.Hash field.
package namehash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Hash returns the unsigned 32-bit MurmurHash3 x86 (seed 0) of name, the
// same value the game computes to key a flag in the SAV file.
func Hash(name string) uint32 {
	return murmur3.Sum32WithSeed([]byte(name), 0)
}

// HexKey returns the lowercase 8-hex-digit form of hash used as a key into
// the hash dictionary (spec.md §2, §6).
func HexKey(hash uint32) string {
	return fmt.Sprintf("%08x", hash)
}

// ParseHexOrName resolves a diff/patch document's flag key: if it has a
// "0x" prefix it's parsed as a literal hash, otherwise it's hashed as a
// flag name (spec.md §4.5).
func ParseHexOrName(key string) uint32 {
	if strings.HasPrefix(key, "0x") {
		v, err := strconv.ParseUint(key[2:], 16, 32)
		if err == nil {
			return uint32(v)
		}
	}
	return Hash(key)
}

// FormatKeyHex64 renders a Bool64bitKey element as a lowercase
// "0x"+16-hex-digit string (spec.md §3, §6).
func FormatKeyHex64(v uint64) string {
	return fmt.Sprintf("0x%016x", v)
}

// ParseKeyHex64 parses a Bool64bitKey element previously rendered by
// FormatKeyHex64 (or any "0x"-prefixed hex string) back into a uint64.
func ParseKeyHex64(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

package sav

import (
	"bytes"
	"testing"

	"github.com/dt-12345/savegdl"
	"golang.org/x/xerrors"
)

// buildMinimal returns a SAV buffer containing only a single Int flag
// (placeholder hash 0x12345678) with value -5, matching spec.md §8 scenario
// S6 byte-for-byte. data_offset points just past the 16-byte key table.
func buildMinimal(t *testing.T) []byte {
	t.Helper()
	const hash = 0x12345678
	buf := make([]byte, HeaderSize+16)
	copy(buf[0:4], []byte{0x04, 0x03, 0x02, 0x01})
	putU32(buf[4:8], 4710644)
	putU32(buf[8:12], HeaderSize+16)
	putU32(buf[HeaderSize:HeaderSize+4], 0)
	putU32(buf[HeaderSize+4:HeaderSize+8], uint32(savegdl.Int))
	putU32(buf[HeaderSize+8:HeaderSize+12], hash)
	putU32(buf[HeaderSize+12:HeaderSize+16], uint32(int32(-5)))
	return buf
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func TestDecodeSingleIntFlag(t *testing.T) {
	buf := buildMinimal(t)
	hdr, store, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.DataOffset != HeaderSize+16 {
		t.Fatalf("DataOffset = %d, want %d", hdr.DataOffset, HeaderSize+16)
	}
	v, ok := store.Get(savegdl.Int, 0x12345678)
	if !ok {
		t.Fatal("expected flag to be present")
	}
	if v.Scalar.(int32) != -5 {
		t.Fatalf("value = %d, want -5", v.Scalar.(int32))
	}
}

func TestRoundTripSingleIntFlag(t *testing.T) {
	buf := buildMinimal(t)
	hdr, store, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Encode(hdr, store)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, out) {
		t.Fatalf("round trip mismatch:\n got %x\nwant %x", out, buf)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf := buildMinimal(t)
	buf[0] = 0xff
	_, _, err := Decode(buf)
	if !xerrors.Is(err, savegdl.ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := buildMinimal(t)
	putU32(buf[4:8], 1)
	_, _, err := Decode(buf)
	if !xerrors.Is(err, savegdl.ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	buf := buildMinimal(t)
	_, _, err := Decode(buf[:HeaderSize+10])
	if !xerrors.Is(err, savegdl.ErrTruncatedInput) {
		t.Fatalf("err = %v, want ErrTruncatedInput", err)
	}
}

// TestBoolArrayScenarioS1 matches spec.md §8 scenario S1: a BoolArray of
// length 10 with values [T,F,T,T,F,F,F,F,T,F] encodes its count as
// 0x0000000A followed by bit-packed bytes 0x0D, 0x01 (low-bit-first: bits
// 0,2,3 set in byte 0 = 0b00001101 = 0x0D; bit 8 set in byte 1 = 0x01).
func TestBoolArrayScenarioS1(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, false, false, true, false}
	packed := encodeBoolArrayBits(bits)
	if len(packed) < 2 || packed[0] != 0x0D || packed[1] != 0x01 {
		t.Fatalf("packed = %x, want prefix [0d 01]", packed)
	}
	decoded := decodeBoolArrayBits(packed, len(bits))
	for i, b := range bits {
		if decoded[i] != b {
			t.Fatalf("bit %d = %v, want %v", i, decoded[i], b)
		}
	}
}

// TestBool64bitKeyScenarioS5 matches spec.md §8 scenario S5: two keys
// encode as three little-endian u64s (two values then a zero terminator).
func TestBool64bitKeyScenarioS5(t *testing.T) {
	hdr := &Header{FormatVersion: 4710644, DataOffset: HeaderSize + 16, Size: HeaderSize + 16 + 24}
	store := savegdl.NewStore()
	store.Insert(savegdl.Bool64bitKey, 1, savegdl.NewBool64bitKey([]string{
		"0x0000000000000001", "0x0000000000000002",
	}))
	out, err := Encode(hdr, store)
	if err != nil {
		t.Fatal(err)
	}
	payload := out[HeaderSize+16:]
	want := []byte{
		0x01, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	if !bytes.Equal(payload[:len(want)], want) {
		t.Fatalf("payload = %x, want %x", payload[:len(want)], want)
	}

	_, decoded, err := Decode(out)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := decoded.Get(savegdl.Bool64bitKey, 1)
	if !ok {
		t.Fatal("expected Bool64bitKey flag to be present")
	}
	if len(v.Keys) != 2 || v.Keys[0] != "0x0000000000000001" || v.Keys[1] != "0x0000000000000002" {
		t.Fatalf("keys = %v, want [0x...0001 0x...0002]", v.Keys)
	}
}

func TestRoundTripMixedKinds(t *testing.T) {
	// Eight kinds with one flag each: 8 type-switch pairs plus 8 flag pairs
	// of 8 bytes make a 128-byte key table.
	hdr := &Header{FormatVersion: 4637640, DataOffset: HeaderSize + 128}
	store := savegdl.NewStore()
	store.Insert(savegdl.Bool, 1, savegdl.NewBool(true))
	store.Insert(savegdl.Int, 2, savegdl.NewInt(-7))
	store.Insert(savegdl.Float, 3, savegdl.NewFloat(1.5))
	store.Insert(savegdl.IntArray, 4, savegdl.NewArray(savegdl.IntArray, []any{int32(1), int32(2), int32(3)}))
	store.Insert(savegdl.String16, 5, savegdl.NewString(savegdl.String16, "hello"))
	store.Insert(savegdl.WString32, 6, savegdl.NewString(savegdl.WString32, "world"))
	store.Insert(savegdl.BoolArray, 7, savegdl.NewArray(savegdl.BoolArray, []any{true, false, true}))
	store.Insert(savegdl.Binary, 8, savegdl.NewBinary([]byte{0xde, 0xad, 0xbe, 0xef}))

	// First pass: encode into a generously sized buffer, then decode it and
	// encode again with the decoded header (whose Size is that buffer's
	// length); both encodings must be identical.
	probe, err := Encode(&Header{FormatVersion: hdr.FormatVersion, DataOffset: hdr.DataOffset, Size: 4096}, store)
	if err != nil {
		t.Fatal(err)
	}
	hdr2, store2, err := Decode(probe)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Encode(hdr2, store2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(probe, out) {
		t.Fatal("second encode does not match first encode's decode")
	}

	v, _ := store2.Get(savegdl.String16, 5)
	if v.Scalar.(string) != "hello" {
		t.Fatalf("String16 = %q, want hello", v.Scalar.(string))
	}
	v, _ = store2.Get(savegdl.WString32, 6)
	if v.Scalar.(string) != "world" {
		t.Fatalf("WString32 = %q, want world", v.Scalar.(string))
	}
	v, _ = store2.Get(savegdl.Binary, 8)
	if !bytes.Equal(v.Scalar.([]byte), []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("Binary = %x, want deadbeef", v.Scalar.([]byte))
	}
}

package snapshot

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("save-data-bytes"), 1000)
	compressed, err := Write(src)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(compressed) >= len(src) {
		t.Fatalf("compressed size %d not smaller than source %d", len(compressed), len(src))
	}
	got, err := Read(compressed)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatal("round trip did not return identical bytes")
	}
}

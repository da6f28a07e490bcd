package iostream

import "testing"

func TestReaderRoundTrip(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0xFB, 0xFF, 0xFF, 0xFF}
	r := NewReader(buf)
	v, err := r.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x04030201 {
		t.Fatalf("ReadU32() = %#x, want 0x04030201", v)
	}
	s, err := r.ReadS32()
	if err != nil {
		t.Fatal(err)
	}
	if s != -5 {
		t.Fatalf("ReadS32() = %d, want -5", s)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32(); err == nil {
		t.Fatal("expected truncated-input error, got nil")
	}
}

func TestScopedSeekRestoresPosition(t *testing.T) {
	r := NewReader(make([]byte, 64))
	r.Seek(10)
	err := r.WithSeek(20, func() error {
		if r.Tell() != 20 {
			t.Fatalf("inside WithSeek: Tell() = %d, want 20", r.Tell())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Tell() != 10 {
		t.Fatalf("after WithSeek: Tell() = %d, want 10", r.Tell())
	}
}

func TestScopedSeekRestoresPositionOnError(t *testing.T) {
	r := NewReader(make([]byte, 64))
	r.Seek(5)
	wantErr := errSentinel{}
	err := r.WithSeek(30, func() error { return wantErr })
	if err != wantErr {
		t.Fatalf("WithSeek error = %v, want %v", err, wantErr)
	}
	if r.Tell() != 5 {
		t.Fatalf("after failing WithSeek: Tell() = %d, want 5", r.Tell())
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }

func TestWriterPreallocatesAndAligns(t *testing.T) {
	w, err := NewWriter(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU32(0x04030201); err != nil {
		t.Fatal(err)
	}
	if err := w.AlignUp(8); err != nil {
		t.Fatal(err)
	}
	if w.Tell() != 8 {
		t.Fatalf("Tell() after align = %d, want 8", w.Tell())
	}
	b, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 16 {
		t.Fatalf("len(Bytes()) = %d, want 16", len(b))
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	for i, bb := range want {
		if b[i] != bb {
			t.Fatalf("byte %d = %#x, want %#x", i, b[i], bb)
		}
	}
}

func TestWriterOverflow(t *testing.T) {
	w, err := NewWriter(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU64(0); err == nil {
		t.Fatal("expected buffer-overflow error, got nil")
	}
}

func TestWriterScopedSeek(t *testing.T) {
	w, err := NewWriter(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Seek(4); err != nil {
		t.Fatal(err)
	}
	if err := w.WithSeek(16, func() error {
		return w.WriteU32(0xAABBCCDD)
	}); err != nil {
		t.Fatal(err)
	}
	if w.Tell() != 4 {
		t.Fatalf("Tell() after WithSeek = %d, want 4", w.Tell())
	}
}

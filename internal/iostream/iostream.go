// Package iostream implements the primitive byte-cursor I/O stream spec.md
// §4.1 describes: little-endian fixed-width reads/writes, seek/tell,
// align-up to a power of two, and a scoped-seek helper that restores the
// cursor on every exit path.
package iostream

import (
	"encoding/binary"
	"io"
	"io/ioutil"
	"math"

	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// Reader is a read-only cursor over an immutable byte buffer, used by the
// SAV decoder.
type Reader struct {
	buf []byte
	pos int64
}

// NewReader wraps buf for sequential/random-access little-endian reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int64 { return int64(len(r.buf)) }

// Tell returns the current cursor position.
func (r *Reader) Tell() int64 { return r.pos }

// Seek moves the cursor to an absolute position.
func (r *Reader) Seek(pos int64) { r.pos = pos }

// WithSeek seeks to pos, invokes fn, then restores the saved cursor
// position on every exit path including a returned error (spec.md §4.1's
// "scoped seek").
func (r *Reader) WithSeek(pos int64, fn func() error) error {
	saved := r.pos
	r.pos = pos
	defer func() { r.pos = saved }()
	return fn()
}

func (r *Reader) readN(n int) ([]byte, error) {
	if r.pos < 0 || r.pos+int64(n) > int64(len(r.buf)) {
		return nil, xerrors.Errorf("reading %d bytes at %d: %w", n, r.pos, savegdl.ErrTruncatedInput)
	}
	b := r.buf[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	return b, nil
}

// ReadBytes reads exactly n bytes and advances the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.readN(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadS32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadS64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Writer is a little-endian write cursor over a mutable, pre-sized buffer
// used by the SAV encoder. The backing store is
// github.com/orcaman/writerseeker's in-memory WriteSeeker, which supports
// writing at or past the current length the same way the append cursor
// algorithm of spec.md §4.3 requires.
type Writer struct {
	ws   writerseeker.WriteSeeker
	pos  int64
	size int64
}

// NewWriter preallocates a zeroed buffer of exactly size bytes, mirroring
// the reference encoder's own preallocation trick (seek to size-1, write a
// zero byte, seek back to the start) so that trailing, never-explicitly-
// written bytes read back as zero.
func NewWriter(size int64) (*Writer, error) {
	w := &Writer{size: size}
	if size > 0 {
		if _, err := w.ws.Seek(size-1, io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := w.ws.Write([]byte{0}); err != nil {
			return nil, err
		}
		if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Tell returns the current cursor position.
func (w *Writer) Tell() int64 { return w.pos }

// Seek moves the cursor to an absolute position.
func (w *Writer) Seek(pos int64) error {
	if _, err := w.ws.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	w.pos = pos
	return nil
}

// WithSeek seeks to pos, invokes fn, then restores the saved cursor
// position on every exit path.
func (w *Writer) WithSeek(pos int64, fn func() error) error {
	saved := w.pos
	if err := w.Seek(pos); err != nil {
		return err
	}
	defer func() { _ = w.Seek(saved) }()
	return fn()
}

func (w *Writer) checkOverflow() error {
	if w.pos > w.size {
		return xerrors.Errorf("cursor at %d exceeds buffer size %d: %w", w.pos, w.size, savegdl.ErrBufferOverflow)
	}
	return nil
}

// WriteBytes writes b at the cursor and advances it.
func (w *Writer) WriteBytes(b []byte) error {
	n, err := w.ws.Write(b)
	w.pos += int64(n)
	if err != nil {
		return err
	}
	return w.checkOverflow()
}

func (w *Writer) WriteU16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return w.WriteBytes(b[:])
}

func (w *Writer) WriteU32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return w.WriteBytes(b[:])
}

func (w *Writer) WriteU64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return w.WriteBytes(b[:])
}

func (w *Writer) WriteS32(v int32) error { return w.WriteU32(uint32(v)) }
func (w *Writer) WriteS64(v int64) error { return w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) error {
	return w.WriteU32(math.Float32bits(v))
}

// AlignUp pads with zero bytes until the cursor is a multiple of k, which
// must be a power of two.
func (w *Writer) AlignUp(k int64) error {
	rem := w.pos % k
	if rem == 0 {
		return nil
	}
	pad := make([]byte, k-rem)
	return w.WriteBytes(pad)
}

// Bytes returns the final buffer contents, which must be exactly Size()
// bytes (callers that only ever write within bounds and never shrink the
// cursor are guaranteed this).
func (w *Writer) Bytes() ([]byte, error) {
	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := ioutil.ReadAll(&w.ws)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) != w.size {
		return nil, xerrors.Errorf("encoded %d bytes, want %d: %w", len(b), w.size, savegdl.ErrBufferOverflow)
	}
	return b, nil
}

// Size returns the target buffer size this Writer was constructed with.
func (w *Writer) Size() int64 { return w.size }

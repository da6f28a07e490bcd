// Package diffbundle wraps a savdiff.Document in a small length-prefixed
// binary container (spec.md §4.1's "deferred writes at arbitrary offsets"
// requirement applied to the diff/patch pipeline rather than the SAV
// codec itself): a magic, a format byte, the raw JSON diff document, and
// a trailing CRC so a batch job can tell a truncated bundle from a
// complete one without re-parsing the JSON.
package diffbundle

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"io/ioutil"

	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"

	"github.com/dt-12345/savegdl"
)

// Magic identifies a diffbundle container on disk.
const Magic uint32 = 0x444c4246 // "DLBF"

const headerSize = 4 + 1 + 4 // magic + format + body length

// Format enumerates the body encodings a bundle may carry. Only JSON is
// produced today; the byte exists so a future binary-diff format can be
// added without changing the container shape.
type Format uint8

const (
	FormatJSON Format = 1
)

// Write encodes body (a savdiff.Document's JSON bytes) into a bundle and
// returns the full container bytes. The body length is written as a
// deferred field at offset 5: the writer reserves 4 bytes, writes the
// body, then seeks back and fills in the now-known length, mirroring the
// SAV encoder's length-then-seek-back pattern (spec.md §4.3) but against
// an in-memory scratch buffer rather than the final output.
func Write(body []byte, format Format) ([]byte, error) {
	var ws writerseeker.WriteSeeker
	if err := binary.Write(&ws, binary.LittleEndian, Magic); err != nil {
		return nil, err
	}
	if _, err := ws.Write([]byte{byte(format)}); err != nil {
		return nil, err
	}

	lenPos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if err := binary.Write(&ws, binary.LittleEndian, uint32(0)); err != nil {
		return nil, err
	}

	if _, err := ws.Write(body); err != nil {
		return nil, err
	}

	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if _, err := ws.Seek(lenPos, io.SeekStart); err != nil {
		return nil, err
	}
	if err := binary.Write(&ws, binary.LittleEndian, uint32(len(body))); err != nil {
		return nil, err
	}
	if _, err := ws.Seek(end, io.SeekStart); err != nil {
		return nil, err
	}

	if err := binary.Write(&ws, binary.LittleEndian, crc32.ChecksumIEEE(body)); err != nil {
		return nil, err
	}

	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return ioutil.ReadAll(&ws)
}

// Read validates and unwraps a bundle written by Write, returning its body
// and format.
func Read(buf []byte) ([]byte, Format, error) {
	if len(buf) < headerSize+4 {
		return nil, 0, xerrors.Errorf("diffbundle: %w", savegdl.ErrTruncatedInput)
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != Magic {
		return nil, 0, xerrors.Errorf("diffbundle: %w", savegdl.ErrBadMagic)
	}
	format := Format(buf[4])
	bodyLen := binary.LittleEndian.Uint32(buf[5:9])
	bodyStart := headerSize
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd+4 > len(buf) {
		return nil, 0, xerrors.Errorf("diffbundle: %w", savegdl.ErrTruncatedInput)
	}
	body := buf[bodyStart:bodyEnd]
	wantCRC := binary.LittleEndian.Uint32(buf[bodyEnd : bodyEnd+4])
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, 0, xerrors.Errorf("diffbundle: checksum mismatch: %w", savegdl.ErrInvalidValue)
	}
	return body, format, nil
}

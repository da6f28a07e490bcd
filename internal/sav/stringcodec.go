package sav

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dt-12345/savegdl"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeFixedString decodes a capacity-byte UTF-8 field, truncated at the
// first NUL byte (spec.md §4.2).
func decodeFixedString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

// encodeFixedString encodes a UTF-8 string truncated to capacity-1 bytes
// and right-padded with NUL to the full capacity (spec.md §4.3).
func encodeFixedString(s string, capacity int) []byte {
	b := []byte(s)
	if len(b) > capacity-1 {
		b = b[:capacity-1]
	}
	out := make([]byte, capacity)
	copy(out, b)
	return out
}

// decodeFixedWString decodes a capacity-byte UTF-16LE field, truncated at
// the first NUL code unit aligned on an even byte offset (spec.md §4.2).
func decodeFixedWString(buf []byte) (string, error) {
	n := len(buf) &^ 1 // even-aligned length
	term := n
	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] == 0 && buf[i+1] == 0 {
			term = i
			break
		}
	}
	out, _, err := transform.Bytes(utf16le.NewDecoder(), buf[:term])
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeFixedWString encodes s as UTF-16LE, truncated to capacity-2 bytes
// and right-padded with NUL to the full byte capacity (spec.md §4.3).
func encodeFixedWString(s string, capacity int) ([]byte, error) {
	enc, _, err := transform.Bytes(utf16le.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	if len(enc)%2 != 0 {
		return nil, savegdl.ErrUtf16Unaligned
	}
	if len(enc) > capacity-2 {
		enc = enc[:(capacity-2)&^1]
	}
	out := make([]byte, capacity)
	copy(out, enc)
	return out, nil
}

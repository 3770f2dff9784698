// Package codec converts between the UTF-16LE strings found in Windows
// process memory and Go's UTF-8 strings.
package codec

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeUTF16LE decodes raw little-endian UTF-16 bytes. A trailing odd byte
// is dropped and decoding stops at the first NUL code unit.
func DecodeUTF16LE(b []byte) (string, error) {
	b = b[:len(b)&^1]
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "decode utf-16le")
	}
	return string(out), nil
}

// EncodeUTF16LE encodes s as little-endian UTF-16 without a terminator.
func EncodeUTF16LE(s string) ([]byte, error) {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "encode utf-16le")
	}
	return out, nil
}

// FromUnits converts UTF-16 code units to a string, stopping at the first NUL.
func FromUnits(units []uint16) string {
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}

// Units reinterprets little-endian bytes as UTF-16 code units.
func Units(b []byte) []uint16 {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return units
}

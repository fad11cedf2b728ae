package binary

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string.
func DecodeLatin1(b []byte) string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// EncodeLatin1 converts s to ISO-8859-1, replacing unmappable runes with '?'.
func EncodeLatin1(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b = append(b, c)
	}
	return b
}

// FixedString decodes a NUL-padded Latin-1 slot, stopping at the first NUL
// and trimming trailing spaces.
func FixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(DecodeLatin1(b), " ")
}

// DecodeText decodes b as UTF-8, falling back to Latin-1 when b is not valid UTF-8.
// Trailing NULs are dropped.
func DecodeText(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if utf8.Valid(b) {
		return string(b)
	}
	return DecodeLatin1(b)
}

// Package encoding provides the Unicode classification, UTF-8 conversion and charset
// sniffing utilities that every other xmlcore component consumes code points through.
package encoding

import (
	"unicode/utf8"

	"github.com/r2/xmlcore/internal/xmlerr"
)

// Name identifies one of the input encodings this library understands.
type Name int

const (
	UTF8 Name = iota
	ASCII
	ISO88591
	UTF16LE
	UTF16BE
)

func (n Name) String() string {
	switch n {
	case UTF8:
		return "UTF-8"
	case ASCII:
		return "US-ASCII"
	case ISO88591:
		return "ISO-8859-1"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	default:
		return "unknown"
	}
}

// IsNameStartChar reports whether r may begin an XML Name, per the XML 1.0 NameStartChar
// production.
func IsNameStartChar(r rune) bool {
	switch {
	case r == ':' || r == '_':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 0xC0 && r <= 0xD6:
		return true
	case r >= 0xD8 && r <= 0xF6:
		return true
	case r >= 0xF8 && r <= 0x2FF:
		return true
	case r >= 0x370 && r <= 0x37D:
		return true
	case r >= 0x37F && r <= 0x1FFF:
		return true
	case r >= 0x200C && r <= 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F:
		return true
	case r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF:
		return true
	case r >= 0xF900 && r <= 0xFDCF:
		return true
	case r >= 0xFDF0 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0xEFFFF:
		return true
	default:
		return false
	}
}

// IsNameChar reports whether r may continue an XML Name, per the NameChar production.
func IsNameChar(r rune) bool {
	if IsNameStartChar(r) {
		return true
	}
	switch {
	case r == '-' || r == '.':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == 0xB7:
		return true
	case r >= 0x0300 && r <= 0x036F:
		return true
	case r >= 0x203F && r <= 0x2040:
		return true
	default:
		return false
	}
}

// IsChar reports whether r is a legal XML 1.0 character, per the Char production.
func IsChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// IsSpace reports whether r is XML whitespace (S production): #x20 | #x9 | #xD | #xA.
func IsSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// IsPubidChar reports whether r is legal inside a PUBLIC identifier literal.
func IsPubidChar(r rune) bool {
	switch r {
	case ' ', '\r', '\n', '-', '\'', '(', ')', '+', ',', '.', '/', ':', '=', '?', ';', '!', '*', '#', '@', '$', '_', '%':
		return true
	}
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return false
}

// EncodeRune appends the UTF-8 encoding of r to buf, returning the extended slice.
// It fails with InvalidCharacter if r is not a legal XML 1.0 character.
func EncodeRune(buf []byte, r rune) ([]byte, error) {
	if !IsChar(r) {
		return buf, xmlerr.New(xmlerr.InvalidCharacter, "code point U+%04X is not a valid XML character", r)
	}
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return append(buf, tmp[:n]...), nil
}

// DecodeRune decodes the first UTF-8 code point in b, returning the rune, its width in
// bytes, and an error if the byte sequence is malformed.
func DecodeRune(b []byte) (rune, int, error) {
	if len(b) == 0 {
		return 0, 0, xmlerr.New(xmlerr.InvalidEncoding, "unexpected end of input")
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, 0, xmlerr.New(xmlerr.InvalidEncoding, "malformed UTF-8 byte sequence")
	}
	return r, size, nil
}

package encoding

import (
	"bytes"

	"github.com/r2/xmlcore/internal/xmlerr"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Sniff determines the encoding of data by inspecting a byte-order mark first and then
// an ASCII-range `<?xml ... encoding="..."?>` declaration prefix, defaulting to UTF-8 per
// the external interfaces contract. It returns the detected encoding and data with any BOM
// stripped.
func Sniff(data []byte) (Name, []byte, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return UTF16LE, data[2:], nil
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return UTF16BE, data[2:], nil
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return UTF8, data[3:], nil
	}

	if name, ok := sniffDeclaration(data); ok {
		return name, data, nil
	}
	return UTF8, data, nil
}

// sniffDeclaration looks for `encoding="..."` within a leading `<?xml ... ?>` prolog,
// treating the prolog as pure ASCII (legal per XML 1.0, since the declaration itself must
// be encoded so that it is readable as ASCII regardless of the document's real encoding).
func sniffDeclaration(data []byte) (Name, bool) {
	const prefix = "<?xml"
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return 0, false
	}
	end := bytes.Index(data, []byte("?>"))
	if end < 0 {
		return 0, false
	}
	decl := string(data[:end])
	idx := bytes.Index([]byte(decl), []byte("encoding"))
	if idx < 0 {
		return 0, false
	}
	rest := decl[idx+len("encoding"):]
	rest = trimLeftSpaceEq(rest)
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	rest = rest[1:]
	end2 := indexByte(rest, quote)
	if end2 < 0 {
		return 0, false
	}
	val := lower(rest[:end2])
	switch val {
	case "utf-8", "utf8":
		return UTF8, true
	case "us-ascii", "ascii":
		return ASCII, true
	case "iso-8859-1", "latin1":
		return ISO88591, true
	case "utf-16le":
		return UTF16LE, true
	case "utf-16be":
		return UTF16BE, true
	case "utf-16":
		return UTF16LE, true
	}
	return 0, false
}

func trimLeftSpaceEq(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i < len(s) && s[i] == '=' {
		i++
	}
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return s[i:]
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// Decode converts data, assumed to be encoded as name, into a UTF-8 byte slice.
// It fails with InvalidEncoding if data contains a sequence that is invalid under name.
func Decode(name Name, data []byte) ([]byte, error) {
	switch name {
	case UTF8:
		if !validUTF8(data) {
			return nil, xmlerr.New(xmlerr.InvalidEncoding, "input is not valid UTF-8")
		}
		return data, nil
	case ASCII:
		for _, b := range data {
			if b > 0x7F {
				return nil, xmlerr.New(xmlerr.InvalidEncoding, "byte 0x%02X is outside the US-ASCII range", b)
			}
		}
		return data, nil
	case ISO88591:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, xmlerr.Wrap(xmlerr.InvalidEncoding, err, "invalid ISO-8859-1 byte sequence")
		}
		return out, nil
	case UTF16LE:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return nil, xmlerr.Wrap(xmlerr.InvalidEncoding, err, "invalid UTF-16LE byte sequence")
		}
		return out, nil
	case UTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return nil, xmlerr.Wrap(xmlerr.InvalidEncoding, err, "invalid UTF-16BE byte sequence")
		}
		return out, nil
	default:
		return nil, xmlerr.New(xmlerr.InvalidEncoding, "unsupported encoding")
	}
}

func validUTF8(b []byte) bool {
	for len(b) > 0 {
		r, size, err := DecodeRune(b)
		if err != nil {
			return false
		}
		_ = r
		b = b[size:]
	}
	return true
}

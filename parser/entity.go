package parser

import (
	"strconv"
	"strings"

	"github.com/r2/xmlcore/encoding"
	"github.com/r2/xmlcore/internal/xmlerr"
)

var predefinedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
	"quot": "\"",
}

// parseReferenceInContent consumes one `&...;` reference at the current position (character
// reference or general entity reference) and returns its fully expanded replacement text.
func (p *Parser) parseReferenceInContent() (string, error) {
	raw, err := p.readReferenceToken()
	if err != nil {
		return "", err
	}
	return p.expandOneReference(raw, false)
}

// readReferenceToken consumes a single `&ref;` token (without interpreting it) starting at
// the current '&' and returns its full text including the delimiters.
func (p *Parser) readReferenceToken() (string, error) {
	start := p.pos
	p.advance() // '&'
	for {
		if p.eof() {
			return "", p.errorf(xmlerr.NotWellFormed, "unterminated entity reference")
		}
		if p.advance() == ';' {
			break
		}
	}
	return string(p.buf[start:p.pos]), nil
}

// expandEntities expands every `&...;` reference found in raw (the unprocessed text between
// an attribute value's quotes, or a segment of char data), recursively, honoring
// p.cfg.maxEntityDepth as a cycle guard. inAttr disallows the literal '<' a general entity
// might otherwise introduce.
func (p *Parser) expandEntities(raw string, inAttr bool) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(raw) {
		amp := strings.IndexByte(raw[i:], '&')
		if amp < 0 {
			out.WriteString(raw[i:])
			break
		}
		out.WriteString(raw[i : i+amp])
		i += amp
		semi := strings.IndexByte(raw[i:], ';')
		if semi < 0 {
			return "", p.errorf(xmlerr.NotWellFormed, "unterminated entity reference")
		}
		token := raw[i : i+semi+1]
		i += semi + 1
		expanded, err := p.expandOneReference(token, inAttr)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
	}
	return out.String(), nil
}

// expandOneReference expands a single `&name;`, `&#NNNN;`, or `&#xHHHH;` token.
func (p *Parser) expandOneReference(token string, inAttr bool) (string, error) {
	body := token[1 : len(token)-1] // strip & and ;
	if strings.HasPrefix(body, "#") {
		return p.expandCharRef(body)
	}
	if v, ok := predefinedEntities[body]; ok {
		return v, nil
	}
	ent := p.dtd.GetEntity(body)
	if ent == nil {
		return "", p.errorf(xmlerr.UndefinedEntity, "undefined entity %q", body)
	}
	if !ent.IsParsed {
		return "", p.errorf(xmlerr.NotWellFormed, "reference to unparsed entity %q not permitted here", body)
	}
	if p.depth >= p.cfg.maxEntityDepth {
		return "", p.errorf(xmlerr.RecursiveEntity, "entity %q exceeds maximum expansion depth", body)
	}
	if ent.Expanding() {
		return "", p.errorf(xmlerr.RecursiveEntity, "entity %q references itself", body)
	}
	value := ent.Value
	if ent.IsExternal {
		if p.cfg.resolver == nil {
			return "", p.errorf(xmlerr.UndefinedEntity, "external entity %q cannot be resolved without an entity resolver", body)
		}
		data, rerr := p.cfg.resolver(ent.PublicID, ent.SystemID)
		if rerr != nil {
			return "", xmlerr.Wrap(xmlerr.IoError, rerr, "loading external entity %q", body)
		}
		value = string(data)
	}
	if inAttr && strings.ContainsRune(value, '<') {
		return "", p.errorf(xmlerr.NotWellFormed, "entity %q referenced in an attribute value contains '<'", body)
	}
	ent.SetExpanding(true)
	p.depth++
	expanded, err := p.expandEntities(value, inAttr)
	p.depth--
	ent.SetExpanding(false)
	if err != nil {
		return "", err
	}
	if inAttr {
		expanded = normalizeAttrWhitespace(expanded)
	}
	return expanded, nil
}

// expandCharRef decodes "#NNNN" or "#xHHHH" (the part after '#', before ';') to its UTF-8
// text, validating the code point against XML 1.0's Char production.
func (p *Parser) expandCharRef(body string) (string, error) {
	digits := body[1:]
	var n int64
	var err error
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		n, err = strconv.ParseInt(digits[1:], 16, 32)
	} else {
		n, err = strconv.ParseInt(digits, 10, 32)
	}
	if err != nil {
		return "", p.errorf(xmlerr.NotWellFormed, "malformed character reference %q", body)
	}
	r := rune(n)
	if !encoding.IsChar(r) {
		return "", p.errorf(xmlerr.InvalidCharacter, "character reference to invalid XML character U+%04X", n)
	}
	buf := make([]byte, 0, 4)
	buf, err = encoding.EncodeRune(buf, r)
	if err != nil {
		return "", p.errorf(xmlerr.InvalidCharacter, "character reference to invalid XML character U+%04X", n)
	}
	return string(buf), nil
}

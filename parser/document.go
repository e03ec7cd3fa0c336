package parser

import (
	"strings"

	"github.com/r2/xmlcore/dom"
	xmlenc "github.com/r2/xmlcore/encoding"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// parseDocument implements document ::= prolog element Misc*.
func (p *Parser) parseDocument() error {
	version, encoding, standalone, err := p.parseXMLDecl()
	if err != nil {
		return err
	}
	if standalone == "yes" {
		p.standalone = true
	}
	if p.h.XMLDecl != nil {
		if err := p.h.XMLDecl(version, encoding, standalone); err != nil {
			return err
		}
	}

	if err := p.parseMisc(); err != nil {
		return err
	}

	if p.consume("<!DOCTYPE") {
		if err := p.parseDoctype(); err != nil {
			return err
		}
		if err := p.parseMisc(); err != nil {
			return err
		}
	}

	if p.eof() || p.peekByte() != '<' {
		return p.errorf(xmlerr.NotWellFormed, "expected root element")
	}
	if err := p.parseElement(); err != nil {
		return err
	}
	return p.parseMisc()
}

// parseXMLDecl parses an optional `<?xml version="1.0" ...?>` prolog declaration.
func (p *Parser) parseXMLDecl() (version, encoding, standalone string, err error) {
	if !p.startsWith("<?xml") {
		return "1.0", "", "", nil
	}
	// Guard against "<?xml-stylesheet...?>", which is an ordinary PI, not the XML decl.
	if p.pos+5 < len(p.buf) && xmlenc.IsNameChar(rune(p.buf[p.pos+5])) {
		return "1.0", "", "", nil
	}
	p.consume("<?xml")
	version = "1.0"
	for {
		hadSpace := p.skipSpace()
		if p.startsWith("?>") {
			break
		}
		if !hadSpace {
			return "", "", "", p.errorf(xmlerr.NotWellFormed, "expected whitespace in XML declaration")
		}
		name, val, perr := p.parsePseudoAttr()
		if perr != nil {
			return "", "", "", perr
		}
		switch name {
		case "version":
			version = val
		case "encoding":
			encoding = val
		case "standalone":
			if val != "yes" && val != "no" {
				return "", "", "", p.errorf(xmlerr.NotWellFormed, "standalone must be 'yes' or 'no'")
			}
			standalone = val
		default:
			return "", "", "", p.errorf(xmlerr.NotWellFormed, "unexpected pseudo-attribute %q in XML declaration", name)
		}
	}
	if err := p.expect("?>"); err != nil {
		return "", "", "", err
	}
	return version, encoding, standalone, nil
}

func (p *Parser) parsePseudoAttr() (name, value string, err error) {
	name, err = p.readName()
	if err != nil {
		return "", "", err
	}
	p.skipSpace()
	if err := p.expect("="); err != nil {
		return "", "", err
	}
	p.skipSpace()
	value, err = p.readQuoted()
	return name, value, err
}

func (p *Parser) readQuoted() (string, error) {
	q := p.peekByte()
	if q != '"' && q != '\'' {
		return "", p.errorf(xmlerr.NotWellFormed, "expected quoted value")
	}
	p.advance()
	start := p.pos
	for {
		if p.eof() {
			return "", p.errorf(xmlerr.NotWellFormed, "unterminated quoted value")
		}
		if p.peekByte() == q {
			break
		}
		p.advance()
	}
	val := string(p.buf[start:p.pos])
	p.advance()
	return val, nil
}

// parseMisc consumes Misc* = (Comment | PI | S)*.
func (p *Parser) parseMisc() error {
	for {
		if p.skipSpace() {
			continue
		}
		if p.startsWith("<!--") {
			if err := p.parseComment(); err != nil {
				return err
			}
			continue
		}
		if p.startsWith("<?") {
			if err := p.parseProcInst(); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

func (p *Parser) parseComment() error {
	p.consume("<!--")
	start := p.pos
	for {
		if p.eof() {
			return p.errorf(xmlerr.NotWellFormed, "unterminated comment")
		}
		if p.startsWith("--") {
			break
		}
		p.advance()
	}
	text := string(p.buf[start:p.pos])
	if !p.consume("-->") {
		return p.errorf(xmlerr.NotWellFormed, "comments may not contain '--'")
	}
	if p.h.Comment != nil {
		return p.h.Comment(text)
	}
	return nil
}

func (p *Parser) parseProcInst() error {
	p.consume("<?")
	target, err := p.readName()
	if err != nil {
		return err
	}
	if strings.EqualFold(target, "xml") {
		return p.errorf(xmlerr.NotWellFormed, "processing instruction target 'xml' is reserved")
	}
	p.skipSpace()
	start := p.pos
	for !p.eof() && !p.startsWith("?>") {
		p.advance()
	}
	data := strings.TrimSpace(string(p.buf[start:p.pos]))
	if err := p.expect("?>"); err != nil {
		return err
	}
	if p.h.ProcInst != nil {
		return p.h.ProcInst(target, data)
	}
	return nil
}

// parseElement implements element ::= EmptyElemTag | STag content ETag, recursively.
func (p *Parser) parseElement() error {
	if err := p.expect("<"); err != nil {
		return err
	}
	rawName, err := p.readName()
	if err != nil {
		return err
	}

	parentScope := p.ns
	defer func() { p.ns = parentScope }()

	var rawAttrs []Attr
	seen := map[string]bool{}
	for {
		hadSpace := p.skipSpace()
		if p.startsWith("/>") || p.peekByte() == '>' {
			break
		}
		if !hadSpace {
			return p.errorf(xmlerr.NotWellFormed, "expected whitespace before attribute")
		}
		aName, aVal, aerr := p.parseAttribute()
		if aerr != nil {
			return aerr
		}
		if seen[aName] {
			return p.errorf(xmlerr.NotWellFormed, "duplicate attribute %q", aName)
		}
		seen[aName] = true
		rawAttrs = append(rawAttrs, Attr{Name: dom.ParseQName(aName), Value: aVal})
	}

	p.declareNamespaces(rawAttrs)

	decl := p.dtd.GetElement(rawName)
	attrs, err := p.resolveAttributes(rawName, decl, rawAttrs)
	if err != nil {
		return err
	}

	name, err := p.resolveElementName(rawName)
	if err != nil {
		return err
	}

	empty := p.consume("/>")
	if !empty {
		if err := p.expect(">"); err != nil {
			return err
		}
	}

	if p.h.StartElement != nil {
		if err := p.h.StartElement(name, attrs); err != nil {
			return err
		}
	}

	var model *elementValidator
	if p.cfg.validate && decl != nil && decl.Content != nil {
		model = newElementValidator(rawName, decl)
	}

	if !empty {
		if err := p.parseContent(rawName, model); err != nil {
			return err
		}
	}
	if model != nil {
		if err := model.finish(); err != nil {
			return err
		}
	}

	if p.h.EndElement != nil {
		if err := p.h.EndElement(name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseAttribute() (name, value string, err error) {
	name, err = p.readName()
	if err != nil {
		return "", "", err
	}
	p.skipSpace()
	if err := p.expect("="); err != nil {
		return "", "", err
	}
	p.skipSpace()
	raw, err := p.readAttValueRaw()
	if err != nil {
		return "", "", err
	}
	expanded, err := p.expandEntities(raw, true)
	if err != nil {
		return "", "", err
	}
	return name, normalizeAttrWhitespace(expanded), nil
}

func normalizeAttrWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\t' || c == '\n' || c == '\r' {
			b.WriteByte(' ')
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (p *Parser) readAttValueRaw() (string, error) {
	q := p.peekByte()
	if q != '"' && q != '\'' {
		return "", p.errorf(xmlerr.NotWellFormed, "expected quoted attribute value")
	}
	p.advance()
	start := p.pos
	for {
		if p.eof() {
			return "", p.errorf(xmlerr.NotWellFormed, "unterminated attribute value")
		}
		c := p.peekByte()
		if c == q {
			break
		}
		if c == '<' {
			return "", p.errorf(xmlerr.NotWellFormed, "attribute values may not contain '<'")
		}
		p.advance()
	}
	val := string(p.buf[start:p.pos])
	p.advance()
	return val, nil
}

// parseContent implements content ::= CharData? ((element | Reference | CDSect | PI |
// Comment) CharData?)* for the element named rawName, optionally checked against model.
func (p *Parser) parseContent(rawName string, model *elementValidator) error {
	var text strings.Builder
	flushText := func() error {
		if text.Len() == 0 {
			return nil
		}
		s := text.String()
		text.Reset()
		if model != nil && !model.allowCharData() && !isAllWhitespace(s) {
			return p.errorf(xmlerr.InvalidContent, "element %q does not permit character data here", rawName)
		}
		if p.h.CharData != nil {
			return p.h.CharData(s)
		}
		return nil
	}

	for {
		if p.eof() {
			return p.errorf(xmlerr.NotWellFormed, "unexpected end of input inside element %q", rawName)
		}
		if p.startsWith("</") {
			if err := flushText(); err != nil {
				return err
			}
			return p.parseEndTag(rawName)
		}
		if p.startsWith("<![CDATA[") {
			if err := flushText(); err != nil {
				return err
			}
			if err := p.parseCDATA(model); err != nil {
				return err
			}
			continue
		}
		if p.startsWith("<!--") {
			if err := flushText(); err != nil {
				return err
			}
			if err := p.parseComment(); err != nil {
				return err
			}
			continue
		}
		if p.startsWith("<?") {
			if err := flushText(); err != nil {
				return err
			}
			if err := p.parseProcInst(); err != nil {
				return err
			}
			continue
		}
		if p.peekByte() == '<' {
			if err := flushText(); err != nil {
				return err
			}
			if model != nil {
				name, perr := p.peekStartTagName()
				if perr != nil {
					return perr
				}
				if !model.allow(name) {
					return p.errorf(xmlerr.InvalidContent, "element %q not permitted here inside %q", name, rawName)
				}
			}
			if err := p.parseElement(); err != nil {
				return err
			}
			continue
		}
		if p.peekByte() == '&' {
			ref, err := p.parseReferenceInContent()
			if err != nil {
				return err
			}
			text.WriteString(ref)
			continue
		}
		if p.startsWith("]]>") {
			return p.errorf(xmlerr.NotWellFormed, "']]>' is not permitted in character data")
		}
		if p.startsWith("\r") {
			// CR LF and a lone CR are both reported as a single LF.
			p.advance()
			if p.startsWith("\n") {
				p.advance()
			}
			text.WriteByte('\n')
			continue
		}
		r, size, err := p.decodeRuneAt(p.pos)
		if err != nil {
			return err
		}
		if !xmlenc.IsChar(r) {
			return p.errorf(xmlerr.InvalidCharacter, "character data contains illegal XML character U+%04X", r)
		}
		text.WriteRune(r)
		p.advanceRune(size)
	}
}

func (p *Parser) peekStartTagName() (string, error) {
	save := p.pos
	saveLine, saveCol := p.line, p.col
	p.pos++ // '<'
	name, err := p.readName()
	p.pos, p.line, p.col = save, saveLine, saveCol
	return name, err
}

func (p *Parser) parseEndTag(expected string) error {
	p.consume("</")
	name, err := p.readName()
	if err != nil {
		return err
	}
	if name != expected {
		return p.errorf(xmlerr.NotWellFormed, "mismatched end tag: expected </%s>, got </%s>", expected, name)
	}
	p.skipSpace()
	return p.expect(">")
}

func (p *Parser) parseCDATA(model *elementValidator) error {
	p.consume("<![CDATA[")
	start := p.pos
	for {
		if p.eof() {
			return p.errorf(xmlerr.NotWellFormed, "unterminated CDATA section")
		}
		if p.startsWith("]]>") {
			break
		}
		p.advance()
	}
	data := string(p.buf[start:p.pos])
	p.consume("]]>")
	if model != nil && !model.allowCharData() && !isAllWhitespace(data) {
		return p.errorf(xmlerr.InvalidContent, "CDATA section not permitted here")
	}
	if p.cfg.cdataPreserved {
		if p.h.StartCDATA != nil {
			if err := p.h.StartCDATA(); err != nil {
				return err
			}
		}
		if p.h.CharData != nil {
			if err := p.h.CharData(data); err != nil {
				return err
			}
		}
		if p.h.EndCDATA != nil {
			return p.h.EndCDATA()
		}
		return nil
	}
	if p.h.CharData != nil {
		return p.h.CharData(data)
	}
	return nil
}

func isAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

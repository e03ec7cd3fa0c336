package parser

import (
	"strings"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/encoding"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// parseDoctype implements doctypedecl ::= '<!DOCTYPE' S Name (S ExternalID)? S?
// ('[' intSubset ']' S?)? '>', called once "<!DOCTYPE" itself has been consumed.
func (p *Parser) parseDoctype() error {
	if err := p.skipRequiredSpace(); err != nil {
		return err
	}
	name, err := p.readName()
	if err != nil {
		return err
	}
	p.rootTag = name
	p.dtd.RootName = name

	p.skipSpace()
	var publicID, systemID string
	if p.startsWith("PUBLIC") || p.startsWith("SYSTEM") {
		publicID, systemID, err = p.parseExternalID()
		if err != nil {
			return err
		}
		if p.cfg.resolver != nil {
			extBytes, rerr := p.cfg.resolver(publicID, systemID)
			if rerr != nil {
				return xmlerr.Wrap(xmlerr.IoError, rerr, "loading external DTD subset %q", systemID)
			}
			if err := p.parseSubsetBytes(extBytes, true); err != nil {
				return err
			}
		}
		p.skipSpace()
	}

	if p.consume("[") {
		raw, rerr := p.readInternalSubsetRaw()
		if rerr != nil {
			return rerr
		}
		if err := p.parseSubsetBytes(raw, false); err != nil {
			return err
		}
		p.skipSpace()
	}

	if err := p.expect(">"); err != nil {
		return err
	}

	dt := &dom.DocType{Name: name, PublicID: publicID, SystemID: systemID}
	if p.h.Doctype != nil {
		return p.h.Doctype(dt, p.dtd)
	}
	return nil
}

// parseExternalID implements ExternalID ::= 'SYSTEM' S SystemLiteral | 'PUBLIC' S
// PubidLiteral S SystemLiteral.
func (p *Parser) parseExternalID() (publicID, systemID string, err error) {
	if p.consume("PUBLIC") {
		if err := p.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		publicID, err = p.readQuoted()
		if err != nil {
			return "", "", err
		}
		if err := p.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		systemID, err = p.readQuoted()
		return publicID, systemID, err
	}
	if p.consume("SYSTEM") {
		if err := p.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		systemID, err = p.readQuoted()
		return "", systemID, err
	}
	return "", "", p.errorf(xmlerr.NotWellFormed, "expected SYSTEM or PUBLIC")
}

// readInternalSubsetRaw reads the raw bytes of the internal subset up to (not including) the
// matching ']', tolerating nested quoted literals and comments so a ']' inside either of
// those doesn't end the subset prematurely.
func (p *Parser) readInternalSubsetRaw() ([]byte, error) {
	start := p.pos
	for {
		if p.eof() {
			return nil, p.errorf(xmlerr.NotWellFormed, "unterminated internal DTD subset")
		}
		if p.startsWith("<!--") {
			if err := p.skipComment(); err != nil {
				return nil, err
			}
			continue
		}
		c := p.peekByte()
		if c == '"' || c == '\'' {
			if _, err := p.readQuoted(); err != nil {
				return nil, err
			}
			continue
		}
		if c == ']' {
			raw := p.buf[start:p.pos]
			p.advance()
			return raw, nil
		}
		p.advance()
	}
}

func (p *Parser) skipComment() error {
	p.consume("<!--")
	for {
		if p.eof() {
			return p.errorf(xmlerr.NotWellFormed, "unterminated comment")
		}
		if p.startsWith("-->") {
			p.consume("-->")
			return nil
		}
		p.advance()
	}
}

// parseSubsetBytes runs a self-contained markup-declaration parser over raw, registering
// everything it declares into p.dtd. external marks every declaration it makes as coming
// from the external subset, relevant to standalone-declaration enforcement.
func (p *Parser) parseSubsetBytes(raw []byte, external bool) error {
	sp := &subsetParser{buf: raw, dtdTable: p.dtd, external: external}
	return sp.run()
}

// subsetParser parses markupdecl* within an internal or external DTD subset. It keeps its
// own mutable buffer so parameter-entity references can be spliced in place as they're
// encountered, independent of the enclosing document parser's position tracking.
type subsetParser struct {
	buf      []byte
	pos      int
	dtdTable *dtd.DTD
	external bool
}

func (sp *subsetParser) run() error {
	for {
		sp.skipSpace()
		if sp.pos >= len(sp.buf) {
			return nil
		}
		if sp.peek() == '%' {
			if err := sp.expandParamRef(); err != nil {
				return err
			}
			continue
		}
		switch {
		case sp.has("<!ELEMENT"):
			if err := sp.parseElementDecl(); err != nil {
				return err
			}
		case sp.has("<!ATTLIST"):
			if err := sp.parseAttlistDecl(); err != nil {
				return err
			}
		case sp.has("<!ENTITY"):
			if err := sp.parseEntityDecl(); err != nil {
				return err
			}
		case sp.has("<!NOTATION"):
			if err := sp.parseNotationDecl(); err != nil {
				return err
			}
		case sp.has("<!--"):
			if err := sp.skipComment(); err != nil {
				return err
			}
		case sp.has("<?"):
			if err := sp.skipPI(); err != nil {
				return err
			}
		default:
			return xmlerr.New(xmlerr.NotWellFormed, "unexpected content in DTD subset at offset %d", sp.pos)
		}
	}
}

func (sp *subsetParser) has(s string) bool {
	return sp.pos+len(s) <= len(sp.buf) && string(sp.buf[sp.pos:sp.pos+len(s)]) == s
}
func (sp *subsetParser) consume(s string) bool {
	if !sp.has(s) {
		return false
	}
	sp.pos += len(s)
	return true
}
func (sp *subsetParser) peek() byte {
	if sp.pos >= len(sp.buf) {
		return 0
	}
	return sp.buf[sp.pos]
}
func (sp *subsetParser) skipSpace() {
	for sp.pos < len(sp.buf) {
		switch sp.buf[sp.pos] {
		case ' ', '\t', '\n', '\r':
			sp.pos++
		default:
			return
		}
	}
}
func (sp *subsetParser) skipRequiredSpace() error {
	before := sp.pos
	sp.skipSpace()
	if sp.pos == before {
		return xmlerr.New(xmlerr.NotWellFormed, "expected whitespace in DTD subset")
	}
	return nil
}

func (sp *subsetParser) readName() (string, error) {
	start := sp.pos
	for sp.pos < len(sp.buf) {
		r := rune(sp.buf[sp.pos])
		ok := (sp.pos == start && encoding.IsNameStartChar(r)) || (sp.pos > start && encoding.IsNameChar(r))
		if !ok {
			break
		}
		sp.pos++
	}
	if sp.pos == start {
		return "", xmlerr.New(xmlerr.NotWellFormed, "expected name in DTD subset")
	}
	return string(sp.buf[start:sp.pos]), nil
}

func (sp *subsetParser) readQuoted() (string, error) {
	q := sp.peek()
	if q != '"' && q != '\'' {
		return "", xmlerr.New(xmlerr.NotWellFormed, "expected quoted literal in DTD subset")
	}
	sp.pos++
	start := sp.pos
	for sp.pos < len(sp.buf) && sp.buf[sp.pos] != q {
		sp.pos++
	}
	if sp.pos >= len(sp.buf) {
		return "", xmlerr.New(xmlerr.NotWellFormed, "unterminated quoted literal in DTD subset")
	}
	val := string(sp.buf[start:sp.pos])
	sp.pos++
	return val, nil
}

func (sp *subsetParser) skipComment() error {
	sp.pos += len("<!--")
	idx := indexBytesFrom(sp.buf, sp.pos, "-->")
	if idx < 0 {
		return xmlerr.New(xmlerr.NotWellFormed, "unterminated comment in DTD subset")
	}
	sp.pos = idx + len("-->")
	return nil
}

func (sp *subsetParser) skipPI() error {
	sp.pos += len("<?")
	idx := indexBytesFrom(sp.buf, sp.pos, "?>")
	if idx < 0 {
		return xmlerr.New(xmlerr.NotWellFormed, "unterminated processing instruction in DTD subset")
	}
	sp.pos = idx + len("?>")
	return nil
}

func indexBytesFrom(buf []byte, from int, sub string) int {
	idx := strings.Index(string(buf[from:]), sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// expandParamRef splices a parameter entity's replacement text (bracketed by single spaces,
// per XML 1.0) into the subset buffer in place of the '%name;' reference at the current
// position, then leaves pos pointing at the start of the spliced text so it's parsed next.
func (sp *subsetParser) expandParamRef() error {
	start := sp.pos
	sp.pos++ // '%'
	name, err := sp.readName()
	if err != nil {
		return err
	}
	if sp.peek() != ';' {
		return xmlerr.New(xmlerr.NotWellFormed, "expected ';' after parameter entity reference %%%s", name)
	}
	end := sp.pos + 1

	ent := sp.dtdTable.GetParameterEntity(name)
	if ent == nil {
		return xmlerr.New(xmlerr.UndefinedEntity, "undefined parameter entity %%%s", name)
	}
	if ent.Expanding() {
		return xmlerr.New(xmlerr.RecursiveEntity, "parameter entity %%%s references itself", name)
	}
	ent.SetExpanding(true)
	defer ent.SetExpanding(false)

	replacement := " " + ent.Value + " "
	newBuf := make([]byte, 0, len(sp.buf)-(end-start)+len(replacement))
	newBuf = append(newBuf, sp.buf[:start]...)
	newBuf = append(newBuf, replacement...)
	newBuf = append(newBuf, sp.buf[end:]...)
	sp.buf = newBuf
	sp.pos = start
	return nil
}

// parseElementDecl implements elementdecl ::= '<!ELEMENT' S Name S contentspec S? '>'.
func (sp *subsetParser) parseElementDecl() error {
	sp.pos += len("<!ELEMENT")
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	name, err := sp.readName()
	if err != nil {
		return err
	}
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	start := sp.pos
	if err := sp.skipContentSpecText(); err != nil {
		return err
	}
	specText := strings.TrimSpace(string(sp.buf[start:sp.pos]))
	spec, err := dtd.ParseContentSpec(specText)
	if err != nil {
		return err
	}
	sp.skipSpace()
	if !sp.consume(">") {
		return xmlerr.New(xmlerr.NotWellFormed, "expected '>' to close element declaration for %q", name)
	}
	sp.dtdTable.DeclareElement(&dtd.ElementDecl{
		Name: name, Content: spec, Attrs: make(map[string]*dtd.AttDecl),
		Declared: true, External: sp.external,
	})
	return nil
}

// skipContentSpecText consumes "EMPTY", "ANY", or a fully parenthesized group (tracking
// nesting depth so inner parens don't terminate early), stopping just before the trailing
// whitespace and '>' that close the declaration.
func (sp *subsetParser) skipContentSpecText() error {
	if sp.has("EMPTY") {
		sp.pos += len("EMPTY")
		return nil
	}
	if sp.has("ANY") {
		sp.pos += len("ANY")
		return nil
	}
	if sp.peek() != '(' {
		return xmlerr.New(xmlerr.NotWellFormed, "expected content spec")
	}
	depth := 0
	for sp.pos < len(sp.buf) {
		switch sp.buf[sp.pos] {
		case '(':
			depth++
		case ')':
			depth--
			sp.pos++
			if depth == 0 {
				// allow a trailing occurrence indicator
				if sp.pos < len(sp.buf) {
					switch sp.buf[sp.pos] {
					case '?', '*', '+':
						sp.pos++
					}
				}
				return nil
			}
			continue
		}
		sp.pos++
	}
	return xmlerr.New(xmlerr.NotWellFormed, "unterminated content spec")
}

// parseAttlistDecl implements AttlistDecl ::= '<!ATTLIST' S Name AttDef* S? '>'.
func (sp *subsetParser) parseAttlistDecl() error {
	sp.pos += len("<!ATTLIST")
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	element, err := sp.readName()
	if err != nil {
		return err
	}
	for {
		sp.skipSpace()
		if sp.consume(">") {
			return nil
		}
		attr, err := sp.parseAttDef()
		if err != nil {
			return err
		}
		attr.External = sp.external
		sp.dtdTable.DeclareAttlist(element, attr)
	}
}

func (sp *subsetParser) parseAttDef() (*dtd.AttDecl, error) {
	name, err := sp.readName()
	if err != nil {
		return nil, err
	}
	if err := sp.skipRequiredSpace(); err != nil {
		return nil, err
	}
	ad := &dtd.AttDecl{Name: name}
	switch {
	case sp.consume("CDATA"):
		ad.Type = dtd.CDATA
	case sp.consume("IDREFS"):
		ad.Type = dtd.IDREFS
	case sp.consume("IDREF"):
		ad.Type = dtd.IDREF
	case sp.consume("ID"):
		ad.Type = dtd.ID
	case sp.consume("ENTITIES"):
		ad.Type = dtd.ENTITIES
	case sp.consume("ENTITY"):
		ad.Type = dtd.ENTITY
	case sp.consume("NMTOKENS"):
		ad.Type = dtd.NMTOKENS
	case sp.consume("NMTOKEN"):
		ad.Type = dtd.NMTOKEN
	case sp.consume("NOTATION"):
		ad.Type = dtd.NOTATION
		if err := sp.skipRequiredSpace(); err != nil {
			return nil, err
		}
		enum, err := sp.parseEnumeration()
		if err != nil {
			return nil, err
		}
		ad.Enum = enum
	case sp.peek() == '(':
		ad.Type = dtd.Enumerated
		enum, err := sp.parseEnumeration()
		if err != nil {
			return nil, err
		}
		ad.Enum = enum
	default:
		return nil, xmlerr.New(xmlerr.NotWellFormed, "unknown attribute type for %q", name)
	}

	if err := sp.skipRequiredSpace(); err != nil {
		return nil, err
	}
	switch {
	case sp.consume("#REQUIRED"):
		ad.Default = dtd.DefaultRequired
	case sp.consume("#IMPLIED"):
		ad.Default = dtd.DefaultImplied
	case sp.consume("#FIXED"):
		ad.Default = dtd.DefaultFixed
		if err := sp.skipRequiredSpace(); err != nil {
			return nil, err
		}
		val, err := sp.readQuoted()
		if err != nil {
			return nil, err
		}
		ad.DefaultVal = val
	default:
		ad.Default = dtd.DefaultValue
		val, err := sp.readQuoted()
		if err != nil {
			return nil, err
		}
		ad.DefaultVal = val
	}
	return ad, nil
}

func (sp *subsetParser) parseEnumeration() ([]string, error) {
	if !sp.consume("(") {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected '(' to start enumeration")
	}
	var vals []string
	for {
		sp.skipSpace()
		name, err := sp.readName()
		if err != nil {
			return nil, err
		}
		vals = append(vals, name)
		sp.skipSpace()
		if sp.consume("|") {
			continue
		}
		if sp.consume(")") {
			return vals, nil
		}
		return nil, xmlerr.New(xmlerr.NotWellFormed, "expected '|' or ')' in enumeration")
	}
}

// parseEntityDecl implements EntityDecl ::= GEDecl | PEDecl.
func (sp *subsetParser) parseEntityDecl() error {
	sp.pos += len("<!ENTITY")
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	isParam := sp.consume("%")
	if isParam {
		if err := sp.skipRequiredSpace(); err != nil {
			return err
		}
	}
	name, err := sp.readName()
	if err != nil {
		return err
	}
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}

	ent := &dtd.Entity{Name: name, IsParsed: true, External: sp.external}
	if isParam {
		ent.Kind = dtd.ParameterEntity
	}

	switch sp.peek() {
	case '"', '\'':
		val, err := sp.readQuoted()
		if err != nil {
			return err
		}
		ent.Value = val
	default:
		pub, sys, err := sp.parseExternalID()
		if err != nil {
			return err
		}
		ent.IsExternal = true
		ent.PublicID, ent.SystemID = pub, sys
		if !isParam {
			sp.skipSpace()
			if sp.consume("NDATA") {
				if err := sp.skipRequiredSpace(); err != nil {
					return err
				}
				ndata, err := sp.readName()
				if err != nil {
					return err
				}
				ent.NData = ndata
				ent.IsParsed = false
			}
		}
	}

	sp.skipSpace()
	if !sp.consume(">") {
		return xmlerr.New(xmlerr.NotWellFormed, "expected '>' to close entity declaration for %q", name)
	}
	if isParam {
		sp.dtdTable.DeclareParameterEntity(ent)
	} else {
		sp.dtdTable.DeclareEntity(ent)
	}
	return nil
}

// parseExternalID mirrors (*Parser).parseExternalID for the subset parser's own buffer.
func (sp *subsetParser) parseExternalID() (publicID, systemID string, err error) {
	if sp.consume("PUBLIC") {
		if err := sp.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		publicID, err = sp.readQuoted()
		if err != nil {
			return "", "", err
		}
		if err := sp.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		systemID, err = sp.readQuoted()
		return publicID, systemID, err
	}
	if sp.consume("SYSTEM") {
		if err := sp.skipRequiredSpace(); err != nil {
			return "", "", err
		}
		systemID, err = sp.readQuoted()
		return "", systemID, err
	}
	return "", "", xmlerr.New(xmlerr.NotWellFormed, "expected SYSTEM or PUBLIC")
}

// parseNotationDecl implements NotationDecl ::= '<!NOTATION' S Name S (ExternalID |
// PublicID) S? '>'.
func (sp *subsetParser) parseNotationDecl() error {
	sp.pos += len("<!NOTATION")
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	name, err := sp.readName()
	if err != nil {
		return err
	}
	if err := sp.skipRequiredSpace(); err != nil {
		return err
	}
	n := &dtd.Notation{Name: name}
	if sp.consume("PUBLIC") {
		if err := sp.skipRequiredSpace(); err != nil {
			return err
		}
		n.PublicID, err = sp.readQuoted()
		if err != nil {
			return err
		}
		sp.skipSpace()
		if sp.peek() == '"' || sp.peek() == '\'' {
			n.SystemID, err = sp.readQuoted()
			if err != nil {
				return err
			}
		}
	} else if sp.consume("SYSTEM") {
		if err := sp.skipRequiredSpace(); err != nil {
			return err
		}
		n.SystemID, err = sp.readQuoted()
		if err != nil {
			return err
		}
	} else {
		return xmlerr.New(xmlerr.NotWellFormed, "expected SYSTEM or PUBLIC in notation declaration")
	}
	sp.skipSpace()
	if !sp.consume(">") {
		return xmlerr.New(xmlerr.NotWellFormed, "expected '>' to close notation declaration for %q", name)
	}
	sp.dtdTable.DeclareNotation(n)
	return nil
}


// Package parser implements a recursive-descent XML 1.0 reader. It tokenizes a byte slice
// directly (no intermediate rune buffering pass beyond what UTF-8 decoding requires) and
// drives a set of SAX-style callbacks on a Handler as it recognizes prolog, doctype, element,
// and content productions. DTD-aware behavior (attribute defaulting, ID uniqueness, content
// validation) is layered on top of the dtd and contentmodel packages rather than hand-rolled.
package parser

import (
	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/encoding"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// ============================================================================
// 1. CONFIGURATION AND OPTIONS
// ============================================================================

// EntityResolver resolves an external entity (or the external DTD subset) identified by its
// public and system identifiers to its replacement bytes. With a nil resolver the external DTD
// subset is not loaded, and a reference to an external general entity fails with an
// UndefinedEntity error.
type EntityResolver func(publicID, systemID string) ([]byte, error)

type config struct {
	validate          bool // enforce DTD-driven validity, not just well-formedness
	validateNamespace bool // reject undeclared-prefix / malformed namespace usage
	cdataPreserved    bool // report CDATA sections as distinct events instead of merging into char data
	resolver          EntityResolver
	maxEntityDepth    int
}

// Option configures a Parser constructed by New.
type Option func(*config)

func defaultConfig() *config {
	return &config{maxEntityDepth: 20}
}

// WithValidation enables DTD content-model and attribute validity checking in addition to
// well-formedness checking. Requires a DOCTYPE naming (or carrying) the relevant declarations.
func WithValidation() Option {
	return func(c *config) { c.validate = true }
}

// WithNamespaceValidation enables rejection of undeclared namespace prefixes and other
// namespace well-formedness violations beyond what bare XML 1.0 requires.
func WithNamespaceValidation() Option {
	return func(c *config) { c.validateNamespace = true }
}

// WithEntityResolver registers the callback used to fetch the replacement text of external
// general entities and the external DTD subset, keyed by public and system ID. External
// parameter entities are not fetched through it: a reference to one inside a DTD subset
// expands to whitespace only.
func WithEntityResolver(fn EntityResolver) Option {
	return func(c *config) { c.resolver = fn }
}

// WithCDATAPreserved requests that CDATA sections reach the Handler as distinct
// StartCDATA/CharData/EndCDATA events instead of being folded into ordinary character data.
func WithCDATAPreserved() Option {
	return func(c *config) { c.cdataPreserved = true }
}

// WithMaxEntityDepth overrides the recursion guard used to reject entities that expand into
// themselves, directly or transitively. The default is 20.
func WithMaxEntityDepth(depth int) Option {
	return func(c *config) { c.maxEntityDepth = depth }
}

// ============================================================================
// 2. SAX HANDLER SURFACE
// ============================================================================

// Attr is one attribute as it appears on a start tag, after entity expansion and whitespace
// normalization but before namespace resolution.
type Attr struct {
	Name  dom.QName
	Value string
	IsID  bool
}

// Handler receives parse events in document order. Any slot left nil is simply not invoked;
// callbacks may return an error to abort the parse immediately.
type Handler struct {
	XMLDecl      func(version, encoding, standalone string) error
	Doctype      func(doctype *dom.DocType, table *dtd.DTD) error
	StartElement func(name dom.QName, attrs []Attr) error
	EndElement   func(name dom.QName) error
	CharData     func(data string) error
	Comment      func(data string) error
	ProcInst     func(target, data string) error
	StartCDATA   func() error
	EndCDATA     func() error
}

// ============================================================================
// 3. PARSER STATE
// ============================================================================

// Parser tokenizes buf left to right, tracking line/column for diagnostics.
type Parser struct {
	buf  []byte
	pos  int
	line int
	col  int

	cfg *config
	h   *Handler

	dtd        *dtd.DTD
	standalone bool

	ns      *nsScope
	ids     map[string]bool
	depth   int // entity-expansion recursion depth
	rootTag string
}

// Parse reads a complete XML document from data (already decoded to UTF-8 text by the
// encoding package) and drives h's callbacks. opts configures validation and entity
// resolution behavior.
func Parse(data []byte, h *Handler, opts ...Option) error {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	p := &Parser{
		buf:  data,
		line: 1,
		col:  1,
		cfg:  cfg,
		h:    h,
		dtd:  dtd.New(),
		ns:   newNSScope(nil),
		ids:  make(map[string]bool),
	}
	return p.parseDocument()
}

func (p *Parser) errorf(kind xmlerr.Kind, format string, args ...any) error {
	return xmlerr.At(kind, p.line, p.col, format, args...)
}

// ============================================================================
// 4. LOW-LEVEL SCANNING
// ============================================================================

func (p *Parser) eof() bool { return p.pos >= len(p.buf) }

func (p *Parser) peekByte() byte {
	if p.eof() {
		return 0
	}
	return p.buf[p.pos]
}

func (p *Parser) advance() byte {
	c := p.buf[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *Parser) startsWith(s string) bool {
	return p.pos+len(s) <= len(p.buf) && string(p.buf[p.pos:p.pos+len(s)]) == s
}

func (p *Parser) consume(s string) bool {
	if !p.startsWith(s) {
		return false
	}
	for range s {
		p.advance()
	}
	return true
}

func (p *Parser) expect(s string) error {
	if !p.consume(s) {
		return p.errorf(xmlerr.NotWellFormed, "expected %q", s)
	}
	return nil
}

func (p *Parser) skipSpace() bool {
	start := p.pos
	for !p.eof() {
		switch p.peekByte() {
		case ' ', '\t', '\n', '\r':
			p.advance()
		default:
			return p.pos != start
		}
	}
	return p.pos != start
}

// skipRequiredSpace consumes at least one whitespace character, as required between, e.g., an
// attribute name and the previous token.
func (p *Parser) skipRequiredSpace() error {
	if !p.skipSpace() {
		return p.errorf(xmlerr.NotWellFormed, "expected whitespace")
	}
	return nil
}

// readName scans an XML Name production (NameStartChar NameChar*).
func (p *Parser) readName() (string, error) {
	start := p.pos
	r, size, err := p.decodeRuneAt(p.pos)
	if err != nil {
		return "", err
	}
	if !encoding.IsNameStartChar(r) {
		return "", p.errorf(xmlerr.NotWellFormed, "expected name")
	}
	p.advanceRune(size)
	for !p.eof() {
		r, size, err := p.decodeRuneAt(p.pos)
		if err != nil {
			return "", err
		}
		if !encoding.IsNameChar(r) {
			break
		}
		p.advanceRune(size)
	}
	return string(p.buf[start:p.pos]), nil
}

// decodeRuneAt decodes the UTF-8 code point starting at byte offset i, rejecting malformed
// continuation-byte sequences rather than mapping them to the replacement character.
func (p *Parser) decodeRuneAt(i int) (rune, int, error) {
	if i >= len(p.buf) {
		return 0, 0, p.errorf(xmlerr.NotWellFormed, "unexpected end of input")
	}
	r, size, err := encoding.DecodeRune(p.buf[i:])
	if err != nil {
		return 0, 0, p.errorf(xmlerr.InvalidEncoding, "invalid UTF-8 sequence")
	}
	return r, size, nil
}

func (p *Parser) advanceRune(size int) {
	for range make([]struct{}, size) {
		p.advance()
	}
}

// Package builder listens to a parser.Handler's events and assembles a dom.Document,
// maintaining the open-element stack a SAX-style parser leaves to its consumer to track.
package builder

import (
	"io"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/encoding"
	"github.com/r2/xmlcore/parser"
)

// Option configures Build in addition to whatever parser.Options are passed through.
type Option func(*builderConfig)

type builderConfig struct {
	preserveCDATA bool
}

// WithCDATAPreserved keeps CDATA sections as distinct dom.CDATANode children instead of
// merging them into the surrounding text, matching the source document's markup rather than
// just its character content.
func WithCDATAPreserved() Option {
	return func(c *builderConfig) { c.preserveCDATA = true }
}

// Build parses data and returns the resulting document tree.
func Build(data []byte, opts []parser.Option, bopts ...Option) (*dom.Document, error) {
	bc := &builderConfig{}
	for _, o := range bopts {
		o(bc)
	}
	if bc.preserveCDATA {
		opts = append(opts, parser.WithCDATAPreserved())
	}

	encName, body, err := encoding.Sniff(data)
	if err != nil {
		return nil, err
	}
	decoded, err := encoding.Decode(encName, body)
	if err != nil {
		return nil, err
	}

	doc := dom.NewDocument()
	doc.PreserveCDATA = bc.preserveCDATA
	b := &treeBuilder{doc: doc, preserveCDATA: bc.preserveCDATA}

	h := &parser.Handler{
		XMLDecl:      b.onXMLDecl,
		Doctype:      b.onDoctype,
		StartElement: b.onStartElement,
		EndElement:   b.onEndElement,
		CharData:     b.onCharData,
		Comment:      b.onComment,
		ProcInst:     b.onProcInst,
		StartCDATA:   b.onStartCDATA,
		EndCDATA:     b.onEndCDATA,
	}
	if err := parser.Parse(decoded, h, opts...); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadDocument is a convenience wrapper for the common case of parsing a whole document
// without DTD validation or custom entity resolution.
func ReadDocument(data []byte) (*dom.Document, error) {
	return Build(data, nil)
}

// ReadFrom reads a complete document from r and parses it. dom.Document cannot carry this
// method itself: parser.Option is defined in a package that imports dom, so attaching
// ReadFrom to *dom.Document would close an import cycle.
func ReadFrom(r io.Reader, opts ...parser.Option) (*dom.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Build(data, opts)
}

// ReadFromString is a convenience wrapper for ReadFrom over an in-memory document.
func ReadFromString(s string, opts ...parser.Option) (*dom.Document, error) {
	return Build([]byte(s), opts)
}

type treeBuilder struct {
	doc           *dom.Document
	stack         []*dom.Node
	inCDATA       bool
	preserveCDATA bool
}

func (b *treeBuilder) container() *dom.Node {
	if len(b.stack) == 0 {
		return b.doc.Node()
	}
	return b.stack[len(b.stack)-1]
}

func (b *treeBuilder) onXMLDecl(version, encoding, standalone string) error {
	b.doc.XMLVersion = version
	b.doc.Encoding = encoding
	b.doc.Standalone = standalone
	return nil
}

func (b *treeBuilder) onDoctype(doctype *dom.DocType, table *dtd.DTD) error {
	b.doc.DocType = doctype
	return nil
}

func (b *treeBuilder) onStartElement(name dom.QName, attrs []parser.Attr) error {
	el := dom.NewElement(name)
	for _, a := range attrs {
		attrNode, _ := el.Attrs.Emplace(el, a.Name, a.Value)
		attrNode.IsID = a.IsID
	}
	if err := b.container().PushBack(el); err != nil {
		return err
	}
	b.stack = append(b.stack, el)
	return nil
}

func (b *treeBuilder) onEndElement(name dom.QName) error {
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

func (b *treeBuilder) onCharData(data string) error {
	cur := b.container()
	if b.inCDATA {
		cur.CreateCDATA(data)
		return nil
	}
	// Coalesce with an immediately preceding text node, since the parser may deliver
	// adjacent character data in multiple CharData calls (e.g. the text before, inside and
	// after a CDATA section when CDATA sections are not preserved).
	if last := cur.Back(); last != nil && last.Type == dom.TextNode {
		last.Data += data
		return nil
	}
	cur.CreateText(data)
	return nil
}

func (b *treeBuilder) onComment(data string) error {
	b.container().CreateComment(data)
	return nil
}

func (b *treeBuilder) onProcInst(target, data string) error {
	b.container().CreateProcInst(target, data)
	return nil
}

func (b *treeBuilder) onStartCDATA() error {
	b.inCDATA = true
	return nil
}

func (b *treeBuilder) onEndCDATA() error {
	b.inCDATA = false
	return nil
}

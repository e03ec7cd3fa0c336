package dom

import (
	"io"

	"github.com/r2/xmlcore/internal/xmlerr"
)

// DocType holds a parsed `<!DOCTYPE root [PUBLIC publicID] [SYSTEM systemID]>` declaration.
type DocType struct {
	Name     string
	PublicID string
	SystemID string
}

// Document is the root-level container: a DocumentNode holding at most one root element,
// plus an optional doctype and any number of surrounding comments/processing instructions.
type Document struct {
	node *Node

	DocType       *DocType
	Encoding      string
	XMLVersion    string
	Standalone    string
	PreserveCDATA bool
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{node: newNode(DocumentNode)}
	d.node.doc = d
	return d
}

// Node returns the underlying DocumentNode, useful for generic tree walks (e.g. XPath's
// document-order traversal starts here).
func (d *Document) Node() *Node { return d.node }

// Root returns the document's single root element, or nil if none has been set.
func (d *Document) Root() *Node {
	for c := d.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// AppendChild appends child to the document, enforcing the "at most one element child"
// invariant for Element nodes (comments/PIs are unrestricted).
func (d *Document) AppendChild(child *Node) error {
	if child.Type == ElementNode && d.Root() != nil {
		return xmlerr.New(xmlerr.OwnershipViolation, "document already has a root element")
	}
	return d.node.PushBack(child)
}

// SetRoot replaces the document's root element (if any) with root.
func (d *Document) SetRoot(root *Node) error {
	if existing := d.Root(); existing != nil {
		if err := d.node.Erase(existing); err != nil {
			return err
		}
	}
	return d.node.PushBack(root)
}

// CreateElement creates an element named name and sets it as the document's root.
func (d *Document) CreateElement(name string) *Node {
	e := NewElement(ParseQName(name))
	_ = d.SetRoot(e)
	return e
}

// WriteTo serializes the whole document: an XML declaration as format's WrapProlog, Version,
// Encoding and Standalone fields direct, then the root element and its siblings. No DOCTYPE is
// written.
func (d *Document) WriteTo(w io.Writer, format Format) error {
	return d.node.WriteTo(w, format)
}

// WriteToString is a convenience wrapper returning the serialized document as a string.
func (d *Document) WriteToString(format Format) (string, error) {
	return d.node.WriteToString(format)
}

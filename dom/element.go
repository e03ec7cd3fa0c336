package dom

import (
	"github.com/r2/xmlcore/internal/xmlerr"
)

// NewElement creates a detached element node with the given QName.
func NewElement(name QName) *Node {
	n := newNode(ElementNode)
	n.Name = name
	n.Attrs = newAttributeSet()
	return n
}

// isParented reports whether child already belongs to a tree (has a parent or siblings),
// the condition under which insert/erase must fail with OwnershipViolation.
func isParented(child *Node) bool {
	return child.Parent != nil || child.PrevSibling != nil || child.NextSibling != nil
}

func (e *Node) adopt(child *Node) {
	child.Parent = e
	child.doc = e.doc
}

// PushBack appends child as the new last child of e.
func (e *Node) PushBack(child *Node) error {
	if isParented(child) {
		return xmlerr.New(xmlerr.OwnershipViolation, "node already has a parent or siblings")
	}
	e.adopt(child)
	if e.LastChild == nil {
		e.FirstChild = child
		e.LastChild = child
		return nil
	}
	child.PrevSibling = e.LastChild
	e.LastChild.NextSibling = child
	e.LastChild = child
	return nil
}

// PushFront prepends child as the new first child of e.
func (e *Node) PushFront(child *Node) error {
	if isParented(child) {
		return xmlerr.New(xmlerr.OwnershipViolation, "node already has a parent or siblings")
	}
	e.adopt(child)
	if e.FirstChild == nil {
		e.FirstChild = child
		e.LastChild = child
		return nil
	}
	child.NextSibling = e.FirstChild
	e.FirstChild.PrevSibling = child
	e.FirstChild = child
	return nil
}

// InsertBefore inserts child immediately before mark, a current child of e. If mark is nil,
// child is appended at the end (matching `insert(end(), node)`).
func (e *Node) InsertBefore(mark, child *Node) error {
	if mark == nil {
		return e.PushBack(child)
	}
	if mark.Parent != e {
		return xmlerr.New(xmlerr.OwnershipViolation, "position does not belong to this element")
	}
	if isParented(child) {
		return xmlerr.New(xmlerr.OwnershipViolation, "node already has a parent or siblings")
	}
	e.adopt(child)
	prev := mark.PrevSibling
	child.PrevSibling = prev
	child.NextSibling = mark
	mark.PrevSibling = child
	if prev == nil {
		e.FirstChild = child
	} else {
		prev.NextSibling = child
	}
	return nil
}

// Erase detaches pos from e's child list. pos must currently be a child of e.
func (e *Node) Erase(pos *Node) error {
	if pos.Parent != e {
		return xmlerr.New(xmlerr.OwnershipViolation, "position does not belong to this element")
	}
	prev, next := pos.PrevSibling, pos.NextSibling
	if prev == nil {
		e.FirstChild = next
	} else {
		prev.NextSibling = next
	}
	if next == nil {
		e.LastChild = prev
	} else {
		next.PrevSibling = prev
	}
	pos.Parent = nil
	pos.PrevSibling = nil
	pos.NextSibling = nil
	return nil
}

// EraseRange detaches the half-open range [from, to) from e's child list. to may be nil to
// mean "through the end".
func (e *Node) EraseRange(from, to *Node) error {
	for n := from; n != nil && n != to; {
		next := n.NextSibling
		if err := e.Erase(n); err != nil {
			return err
		}
		n = next
	}
	return nil
}

// PopFront removes and returns e's first child, or nil if e has none.
func (e *Node) PopFront() *Node {
	f := e.FirstChild
	if f == nil {
		return nil
	}
	_ = e.Erase(f)
	return f
}

// PopBack removes and returns e's last child, or nil if e has none.
func (e *Node) PopBack() *Node {
	l := e.LastChild
	if l == nil {
		return nil
	}
	_ = e.Erase(l)
	return l
}

// Clear detaches all children of e.
func (e *Node) Clear() {
	for n := e.FirstChild; n != nil; {
		next := n.NextSibling
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
		n = next
	}
	e.FirstChild = nil
	e.LastChild = nil
}

// Front returns e's first child, or nil.
func (e *Node) Front() *Node { return e.FirstChild }

// Back returns e's last child, or nil.
func (e *Node) Back() *Node { return e.LastChild }

// Empty reports whether e has no children.
func (e *Node) Empty() bool { return e.FirstChild == nil }

// Size returns the number of children of e. It is intentionally O(n): the child list is a
// linked list, not an indexable array.
func (e *Node) Size() int {
	n := 0
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		n++
	}
	return n
}

// Children returns every child node (the "nodes" view) in document order.
func (e *Node) Children() []*Node {
	var out []*Node
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Elements returns only the Element children, skipping text/comment/PI siblings.
func (e *Node) Elements() []*Node {
	var out []*Node
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ElementsByName returns the Element children whose QName equals name.
func (e *Node) ElementsByName(name QName) []*Node {
	var out []*Node
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// CreateElement appends a new child element named name and returns it.
func (e *Node) CreateElement(name string) *Node {
	child := NewElement(ParseQName(name))
	_ = e.PushBack(child)
	return child
}

// CreateText appends a new text child and returns it.
func (e *Node) CreateText(data string) *Node {
	child := newNode(TextNode)
	child.Data = data
	_ = e.PushBack(child)
	return child
}

// CreateCDATA appends a new CDATA child and returns it.
func (e *Node) CreateCDATA(data string) *Node {
	child := newNode(CDATANode)
	child.Data = data
	_ = e.PushBack(child)
	return child
}

// CreateComment appends a new comment child and returns it.
func (e *Node) CreateComment(data string) *Node {
	child := newNode(CommentNode)
	child.Data = data
	_ = e.PushBack(child)
	return child
}

// CreateProcInst appends a new processing-instruction child and returns it.
func (e *Node) CreateProcInst(target, data string) *Node {
	child := newNode(ProcInstNode)
	child.Name = QName{Local: target}
	child.Data = data
	_ = e.PushBack(child)
	return child
}

// SetAttr sets attribute name to value, creating it if absent.
func (e *Node) SetAttr(name, value string) {
	e.Attrs.Emplace(e, ParseQName(name), value)
}

// Attr returns the string value of attribute name, or "" if absent.
func (e *Node) Attr(name string) string {
	return e.Attrs.Get(ParseQName(name))
}

// Text returns the concatenation of e's direct Text/CDATA children (not descendants).
func (e *Node) Text() string {
	var out []byte
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == TextNode || c.Type == CDATANode {
			out = append(out, c.Data...)
		}
	}
	return string(out)
}

// Clone deep-copies e (and, if e is an element, its attributes and subtree). The result is
// detached from any tree.
func (e *Node) Clone() *Node {
	clone := newNode(e.Type)
	clone.Name = e.Name
	clone.Data = e.Data
	clone.IsID = e.IsID
	if e.Type == ElementNode {
		clone.Attrs = newAttributeSet()
		e.Attrs.ForEach(func(a *Node) bool {
			clone.Attrs.Emplace(clone, a.Name, a.Data)
			return true
		})
		for c := e.FirstChild; c != nil; c = c.NextSibling {
			_ = clone.PushBack(c.Clone())
		}
	}
	return clone
}

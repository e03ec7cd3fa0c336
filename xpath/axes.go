package xpath

import "github.com/r2/xmlcore/dom"

// selectAxis returns the nodes reachable from ctxNode along axis, in the order defined by
// XPath 1.0 section 2.2: document order for forward axes, reverse document order for
// ancestor, ancestor-or-self, preceding and preceding-sibling.
func selectAxis(axis Axis, ctxNode *dom.Node) []*dom.Node {
	switch axis {
	case AxisChild:
		return children(ctxNode)
	case AxisDescendant:
		return descendants(ctxNode, false)
	case AxisDescendantOrSelf:
		return descendants(ctxNode, true)
	case AxisParent:
		if ctxNode.Parent == nil {
			return nil
		}
		return []*dom.Node{ctxNode.Parent}
	case AxisAncestor:
		return ancestors(ctxNode, false)
	case AxisAncestorOrSelf:
		return ancestors(ctxNode, true)
	case AxisFollowingSibling:
		var out []*dom.Node
		for c := ctxNode.NextSibling; c != nil; c = c.NextSibling {
			out = append(out, c)
		}
		return out
	case AxisPrecedingSibling:
		var out []*dom.Node
		for c := ctxNode.PrevSibling; c != nil; c = c.PrevSibling {
			out = append(out, c)
		}
		return out
	case AxisFollowing:
		return following(ctxNode)
	case AxisPreceding:
		return preceding(ctxNode)
	case AxisAttribute:
		return attributeNodes(ctxNode)
	case AxisNamespace:
		return namespaceAxisNodes(ctxNode)
	case AxisSelf:
		return []*dom.Node{ctxNode}
	}
	return nil
}

func children(n *dom.Node) []*dom.Node {
	if n.Type != dom.ElementNode && n.Type != dom.DocumentNode {
		return nil
	}
	var out []*dom.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func descendants(n *dom.Node, includeSelf bool) []*dom.Node {
	var out []*dom.Node
	if includeSelf {
		out = append(out, n)
	}
	for _, c := range children(n) {
		out = append(out, c)
		out = append(out, descendants(c, false)...)
	}
	return out
}

func ancestors(n *dom.Node, includeSelf bool) []*dom.Node {
	var out []*dom.Node
	if includeSelf {
		out = append(out, n)
	}
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

func attributeNodes(n *dom.Node) []*dom.Node {
	if n.Type != dom.ElementNode {
		return nil
	}
	var out []*dom.Node
	n.Attrs.ForEach(func(a *dom.Node) bool {
		if !dom.IsNamespaceDeclaration(a.Name) {
			out = append(out, a)
		}
		return true
	})
	return out
}

// namespaceAxisNodes materializes one namespace node per in-scope xmlns/xmlns:* declaration
// visible from n, nearest declaration winning, plus the implicit "xml" binding. Namespace
// nodes are synthesized rather than stored in the tree: dom.Node's exported fields are
// enough to build one (owner as Parent, prefix as Name.Local, URI as Data).
func namespaceAxisNodes(n *dom.Node) []*dom.Node {
	if n.Type != dom.ElementNode {
		return nil
	}
	seen := map[string]bool{}
	var out []*dom.Node
	for el := n; el != nil; el = el.Parent {
		if el.Type != dom.ElementNode {
			continue
		}
		el.Attrs.ForEach(func(a *dom.Node) bool {
			switch {
			case a.Name.Prefix == "xmlns":
				if !seen[a.Name.Local] {
					seen[a.Name.Local] = true
					out = append(out, newNamespaceNode(n, a.Name.Local, a.Data))
				}
			case a.Name.Local == "xmlns" && a.Name.Prefix == "":
				if !seen[""] {
					seen[""] = true
					if a.Data != "" {
						out = append(out, newNamespaceNode(n, "", a.Data))
					}
				}
			}
			return true
		})
	}
	if !seen["xml"] {
		out = append(out, newNamespaceNode(n, "xml", dom.XMLNamespaceURI))
	}
	return out
}

func newNamespaceNode(owner *dom.Node, prefix, uri string) *dom.Node {
	return &dom.Node{
		Type:   dom.NamespaceNode,
		Parent: owner,
		Name:   dom.QName{Local: prefix},
		Data:   uri,
	}
}

// documentOrderList returns every child/text/comment/procinst node reachable from the
// document root in preorder, the basis for the following/preceding axes. Attribute and
// namespace nodes are excluded; they are positioned relative to their owning element.
func documentOrderList(n *dom.Node) []*dom.Node {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	var out []*dom.Node
	var walk func(*dom.Node)
	walk = func(cur *dom.Node) {
		out = append(out, cur)
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root.Type == dom.DocumentNode {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	} else {
		walk(root)
	}
	return out
}

func isDescendantOrSelf(n, of *dom.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == of {
			return true
		}
	}
	return false
}

// anchorElement returns the node used to position n in the full-document preorder list:
// n itself for tree nodes, or its owning element for attribute/namespace nodes.
func anchorElement(n *dom.Node) *dom.Node {
	if n.Type == dom.AttributeNode || n.Type == dom.NamespaceNode {
		return n.Parent
	}
	return n
}

func following(n *dom.Node) []*dom.Node {
	anchor := anchorElement(n)
	list := documentOrderList(anchor)
	end := 0
	for end < len(list) && !isDescendantOrSelf(list[end], anchor) {
		end++
	}
	for end < len(list) && isDescendantOrSelf(list[end], anchor) {
		end++
	}
	if n.Type == dom.AttributeNode || n.Type == dom.NamespaceNode {
		// attribute/namespace nodes precede their owner's children, so following
		// includes the owner's descendants too.
		start := indexOf(list, anchor)
		if start >= 0 {
			return list[start+1:]
		}
	}
	return append([]*dom.Node(nil), list[end:]...)
}

func preceding(n *dom.Node) []*dom.Node {
	anchor := anchorElement(n)
	list := documentOrderList(anchor)
	start := indexOf(list, anchor)
	if start < 0 {
		return nil
	}
	anc := map[*dom.Node]bool{}
	for _, a := range ancestors(anchor, true) {
		anc[a] = true
	}
	var out []*dom.Node
	for i := start - 1; i >= 0; i-- {
		if !anc[list[i]] {
			out = append(out, list[i])
		}
	}
	return out
}

func indexOf(list []*dom.Node, n *dom.Node) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

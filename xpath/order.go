package xpath

import "github.com/r2/xmlcore/dom"

// ancestorChainInclusive returns the path from the document root down to and including n.
func ancestorChainInclusive(n *dom.Node) []*dom.Node {
	var chain []*dom.Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// compareDocumentOrder returns -1 if a precedes b in document order, 1 if it follows, and 0
// if they're the same node. Namespace nodes and then attribute nodes are ordered immediately
// after their owning element's start and before its element children, consistent with XPath 1.0's convention
// that document order in the presence of attributes is implementation-defined but must be
// stable.
func compareDocumentOrder(a, b *dom.Node) int {
	if a == b {
		return 0
	}
	ca, cb := ancestorChainInclusive(a), ancestorChainInclusive(b)
	i := 0
	for i < len(ca) && i < len(cb) && ca[i] == cb[i] {
		i++
	}
	if i == len(ca) {
		return -1
	}
	if i == len(cb) {
		return 1
	}
	if i == 0 {
		return 0 // unrelated trees: no defined order
	}
	return comparePosition(ca[i-1], ca[i], cb[i])
}

func comparePosition(parent, na, nb *dom.Node) int {
	aNS := na.Type == dom.NamespaceNode
	bNS := nb.Type == dom.NamespaceNode
	if aNS != bNS {
		if aNS {
			return -1
		}
		return 1
	}
	aAttr := na.Type == dom.AttributeNode
	bAttr := nb.Type == dom.AttributeNode
	if aAttr && bAttr {
		keys := parent.Attrs.Keys()
		ia, ib := -1, -1
		for i, k := range keys {
			if k == na.Name {
				ia = i
			}
			if k == nb.Name {
				ib = i
			}
		}
		if ia < ib {
			return -1
		}
		return 1
	}
	if aAttr {
		return -1
	}
	if bAttr {
		return 1
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == na {
			return -1
		}
		if c == nb {
			return 1
		}
	}
	return 0
}

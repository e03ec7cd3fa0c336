package xpath

import "github.com/r2/xmlcore/dom"

// principalNodeType returns the node type a node test on axis implicitly filters to, per
// XPath 1.0 section 2.3: attribute nodes on the attribute axis, namespace nodes on the
// namespace axis, elements everywhere else.
func principalNodeType(axis Axis) dom.NodeType {
	switch axis {
	case AxisAttribute:
		return dom.AttributeNode
	case AxisNamespace:
		return dom.NamespaceNode
	}
	return dom.ElementNode
}

func filterByTest(nodes []*dom.Node, axis Axis, test NodeTest, ctxNode *dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, n := range nodes {
		if matchesNodeTest(n, axis, test, ctxNode) {
			out = append(out, n)
		}
	}
	return out
}

func matchesNodeTest(n *dom.Node, axis Axis, test NodeTest, ctxNode *dom.Node) bool {
	switch test.Kind {
	case TestNodeNodeType:
		return true
	case TestTextNodeType:
		return n.Type == dom.TextNode || n.Type == dom.CDATANode
	case TestCommentNodeType:
		return n.Type == dom.CommentNode
	case TestProcInstNodeType:
		if n.Type != dom.ProcInstNode {
			return false
		}
		return test.PITarget == "" || n.Name.Local == test.PITarget
	}
	principal := principalNodeType(axis)
	if n.Type != principal {
		return false
	}
	switch test.Kind {
	case TestWildcard:
		return true
	case TestPrefixWildcard:
		uri := ctxNode.NamespaceForPrefix(test.Prefix)
		return nodeNamespaceURI(n) == uri
	case TestName:
		if n.Name.Local != test.Local {
			return false
		}
		if test.Prefix == "" {
			// XPath 1.0 has no notion of a default namespace for unprefixed node
			// tests: "foo" matches only elements/attributes with no namespace URI,
			// even inside a document where xmlns="..." is in scope.
			return nodeNamespaceURI(n) == ""
		}
		uri := ctxNode.NamespaceForPrefix(test.Prefix)
		return nodeNamespaceURI(n) == uri
	}
	return false
}

// nodeNamespaceURI resolves the namespace URI a node belongs to, independent of axis: an
// element's own resolved URI, an attribute's (prefixed attributes only; unprefixed
// attributes have no namespace per the Namespaces in XML recommendation), or "" otherwise.
func nodeNamespaceURI(n *dom.Node) string {
	switch n.Type {
	case dom.ElementNode:
		return n.NamespaceURI()
	case dom.AttributeNode:
		if n.Name.Prefix == "" {
			return ""
		}
		if n.Name.Prefix == "xmlns" {
			return dom.XMLNSNamespaceURI
		}
		if n.Parent != nil {
			return n.Parent.NamespaceForPrefix(n.Name.Prefix)
		}
	}
	return ""
}

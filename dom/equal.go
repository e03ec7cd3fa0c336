package dom

// Equal reports whether e and other are the same qualified name, have equal attribute sets
// (ignoring insertion order) and equal children in document order, treating whitespace-only
// text nodes as equal to an absent text node (so in-memory and parsed trees compare equal).
func (e *Node) Equal(other *Node) bool {
	return equalNodes(e, other, true)
}

// EqualStrict compares like Equal but does not trim whitespace-only text nodes, for tests
// that need to assert the untrimmed form explicitly.
func (e *Node) EqualStrict(other *Node) bool {
	return equalNodes(e, other, false)
}

func equalNodes(a, b *Node, trimWhitespace bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TextNode, CDATANode:
		return a.Data == b.Data
	case CommentNode:
		return a.Data == b.Data
	case ProcInstNode:
		return a.Name == b.Name && a.Data == b.Data
	case AttributeNode:
		return a.Name == b.Name && a.Data == b.Data
	case ElementNode, DocumentNode:
		if a.Type == ElementNode && a.Name != b.Name {
			return false
		}
		if a.Type == ElementNode && !a.Attrs.Equal(b.Attrs) {
			return false
		}
		ac := significantChildren(a, trimWhitespace)
		bc := significantChildren(b, trimWhitespace)
		if len(ac) != len(bc) {
			return false
		}
		for i := range ac {
			if !equalNodes(ac[i], bc[i], trimWhitespace) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func significantChildren(e *Node, trimWhitespace bool) []*Node {
	var out []*Node
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if trimWhitespace && c.IsWhitespaceText() {
			continue
		}
		out = append(out, c)
	}
	return out
}

package dom

const XMLNamespaceURI = "http://www.w3.org/XML/1998/namespace"
const XMLNSNamespaceURI = "http://www.w3.org/2000/xmlns/"

// NamespaceForPrefix returns the nearest enclosing declaration (on e or an ancestor) for
// prefix, or "" if none is in scope. The empty prefix looks up the default namespace
// (declared via a bare `xmlns` attribute).
func (e *Node) NamespaceForPrefix(prefix string) string {
	if prefix == "xml" {
		return XMLNamespaceURI
	}
	for el := e; el != nil; el = elementAncestor(el) {
		if el.Type != ElementNode {
			continue
		}
		var key QName
		if prefix == "" {
			key = QName{Local: "xmlns"}
		} else {
			key = QName{Prefix: "xmlns", Local: prefix}
		}
		if attr := el.Attrs.Find(key); attr != nil {
			return attr.Data
		}
	}
	return ""
}

// PrefixForNamespace returns the nearest enclosing declaration that binds uri, distinguishing
// "declared as the empty default namespace" (ok=true, prefix="") from "not declared"
// (ok=false). It walks from e toward the root, preferring the innermost binding.
func (e *Node) PrefixForNamespace(uri string) (prefix string, ok bool) {
	if uri == XMLNamespaceURI {
		return "xml", true
	}
	seen := make(map[string]bool)
	for el := e; el != nil; el = elementAncestor(el) {
		if el.Type != ElementNode {
			continue
		}
		var found string
		var foundOK bool
		el.Attrs.ForEach(func(a *Node) bool {
			switch {
			case a.Name.Prefix == "xmlns":
				if seen[a.Name.Local] {
					return true
				}
				seen[a.Name.Local] = true
				if a.Data == uri {
					found, foundOK = a.Name.Local, true
					return false
				}
			case a.Name.Local == "xmlns" && a.Name.Prefix == "":
				if seen[""] {
					return true
				}
				seen[""] = true
				if a.Data == uri {
					found, foundOK = "", true
					return false
				}
			}
			return true
		})
		if foundOK {
			return found, true
		}
	}
	return "", false
}

// NamespaceURI resolves e's own namespace URI by looking up e.Name.Prefix (or the default
// namespace when e has no prefix) in the ancestor chain. Elements with no matching
// declaration resolve to "".
func (e *Node) NamespaceURI() string {
	if e.Type != ElementNode {
		return ""
	}
	return e.NamespaceForPrefix(e.Name.Prefix)
}

// IsNamespaceDeclaration reports whether attr is an `xmlns`/`xmlns:prefix` attribute (a
// namespace declaration rather than ordinary data, for namespace-resolution purposes — it
// is still stored in the owning element's attribute set).
func IsNamespaceDeclaration(attr QName) bool {
	return attr.Prefix == "xmlns" || (attr.Prefix == "" && attr.Local == "xmlns")
}

func elementAncestor(n *Node) *Node {
	if n.Parent == nil {
		return nil
	}
	return n.Parent
}

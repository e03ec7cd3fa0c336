package parser

import (
	"strings"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// nsScope is a stack of prefix->URI bindings, one frame per open element, used to resolve
// element and attribute names to namespace URIs as the tree is walked top-down.
type nsScope struct {
	parent *nsScope
	binds  map[string]string
}

func newNSScope(parent *nsScope) *nsScope {
	return &nsScope{parent: parent}
}

// lookup resolves prefix to a URI by walking outward from s, or returns ok=false if the
// prefix was never bound (the default, unprefixed, binding is stored under the empty string).
func (s *nsScope) lookup(prefix string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.binds == nil {
			continue
		}
		if uri, ok := cur.binds[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// declareNamespaces scans rawAttrs for xmlns/xmlns:* declarations, pushing a fresh child
// scope frame onto p.ns for the remainder of this element's parse.
func (p *Parser) declareNamespaces(rawAttrs []Attr) {
	child := newNSScope(p.ns)
	for _, a := range rawAttrs {
		switch {
		case a.Name.Local == "xmlns" && a.Name.Prefix == "":
			child.setBind("", a.Value)
		case a.Name.Prefix == "xmlns":
			child.setBind(a.Name.Local, a.Value)
		}
	}
	p.ns = child
}

func (s *nsScope) setBind(prefix, uri string) {
	if s.binds == nil {
		s.binds = make(map[string]string)
	}
	s.binds[prefix] = uri
}

// resolveElementName validates the raw, possibly-prefixed tag name rawName against the
// current namespace scope, restoring the parent scope once this element's content has been
// fully parsed is the caller's job via the defer in parseElement. The returned QName keeps
// its literal prefix text untouched: dom.Node.NamespaceURI resolves the actual URI lazily by
// walking ancestor xmlns declarations, so nothing here needs to carry a resolved URI.
func (p *Parser) resolveElementName(rawName string) (dom.QName, error) {
	q := dom.ParseQName(rawName)
	if q.Prefix == "" {
		return q, nil
	}
	if _, ok := p.ns.lookup(q.Prefix); !ok && p.cfg.validateNamespace {
		return dom.QName{}, p.errorf(xmlerr.NotWellFormed, "undeclared namespace prefix %q", q.Prefix)
	}
	return q, nil
}

// resolveAttributes checks rawAttrs against decl (ID uniqueness always, #FIXED values only when
// validating), injects declared default values whether or not validation is enabled, and
// returns the final attribute list. Values of attributes declared with a type other than
// CDATA have leading and trailing spaces removed and runs of spaces collapsed to one.
func (p *Parser) resolveAttributes(rawName string, decl *dtd.ElementDecl, rawAttrs []Attr) ([]Attr, error) {
	out := make([]Attr, 0, len(rawAttrs))
	provided := map[string]bool{}
	for _, a := range rawAttrs {
		provided[a.Name.Local] = true
		if decl != nil {
			if ad := decl.Attrs[a.Name.Local]; ad != nil {
				if ad.Type != dtd.CDATA {
					a.Value = strings.Join(strings.FieldsFunc(a.Value, func(r rune) bool { return r == ' ' }), " ")
				}
				if ad.Type == dtd.ID {
					if err := p.checkDuplicateID(a.Value); err != nil {
						return nil, err
					}
					a.IsID = true
				}
				if p.cfg.validate && ad.Default == dtd.DefaultFixed && a.Value != ad.DefaultVal {
					return nil, p.errorf(xmlerr.Invalid, "element %q attribute %q must be fixed value %q, got %q", rawName, a.Name.Local, ad.DefaultVal, a.Value)
				}
			}
		}
		out = append(out, a)
	}
	if decl == nil {
		return out, nil
	}
	for _, attrName := range decl.AttrOrder {
		if provided[attrName] {
			continue
		}
		ad := decl.Attrs[attrName]
		switch ad.Default {
		case dtd.DefaultRequired:
			return nil, p.errorf(xmlerr.Invalid, "element %q missing required attribute %q", rawName, attrName)
		case dtd.DefaultFixed, dtd.DefaultValue:
			if p.standalone && ad.External {
				return nil, p.errorf(xmlerr.NotWellFormed, "standalone document depends on externally-defaulted attribute %q", attrName)
			}
			out = append(out, Attr{Name: dom.QName{Local: attrName}, Value: ad.DefaultVal, IsID: ad.Type == dtd.ID})
		}
	}
	return out, nil
}

func (p *Parser) checkDuplicateID(value string) error {
	if p.ids[value] {
		return p.errorf(xmlerr.DuplicateId, "duplicate ID value %q", value)
	}
	p.ids[value] = true
	return nil
}

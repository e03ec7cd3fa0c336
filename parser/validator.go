package parser

import (
	"github.com/r2/xmlcore/contentmodel"
	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// elementValidator adapts a contentmodel.Validator to report errors naming the element it is
// validating, so callers don't have to thread that context through every call site.
type elementValidator struct {
	elementName string
	v           *contentmodel.Validator
}

func newElementValidator(elementName string, decl *dtd.ElementDecl) *elementValidator {
	return &elementValidator{elementName: elementName, v: contentmodel.Compile(decl.Content)}
}

func (e *elementValidator) allow(childName string) bool   { return e.v.Allow(childName) }
func (e *elementValidator) allowCharData() bool            { return e.v.AllowCharData() }
func (e *elementValidator) finish() error {
	if !e.v.AllowEmpty() {
		return xmlerr.New(xmlerr.InvalidContent, "element %q: content model not satisfied", e.elementName)
	}
	return nil
}

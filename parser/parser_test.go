package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// recorder captures the SAX events fired during a parse, for assertions that don't need a
// full tree (builder_test.go covers the tree-construction path).
type recorder struct {
	starts   []string
	ends     []string
	chars    []string
	comments []string
	attrs    map[string][]Attr
}

func newRecorder() *recorder { return &recorder{attrs: map[string][]Attr{}} }

func (r *recorder) handler() *Handler {
	return &Handler{
		StartElement: func(name dom.QName, attrs []Attr) error {
			r.starts = append(r.starts, name.String())
			r.attrs[name.String()] = attrs
			return nil
		},
		EndElement: func(name dom.QName) error {
			r.ends = append(r.ends, name.String())
			return nil
		},
		CharData: func(data string) error {
			r.chars = append(r.chars, data)
			return nil
		},
		Comment: func(data string) error {
			r.comments = append(r.comments, data)
			return nil
		},
	}
}

func TestParseSimpleDocument(t *testing.T) {
	r := newRecorder()
	err := Parse([]byte(`<a><b>text</b></a>`), r.handler())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.starts)
	assert.Equal(t, []string{"b", "a"}, r.ends)
	assert.Equal(t, []string{"text"}, r.chars)
}

func TestParseRejectsMismatchedEndTag(t *testing.T) {
	err := Parse([]byte(`<a><b></c></a>`), newRecorder().handler())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.NotWellFormed))
}

func TestParseRejectsUnclosedElement(t *testing.T) {
	err := Parse([]byte(`<a><b></b>`), newRecorder().handler())
	require.Error(t, err)
}

func TestParseEntityExpansion(t *testing.T) {
	r := newRecorder()
	err := Parse([]byte(`<a>Tom &amp; &#74;erry</a>`), r.handler())
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom & Jerry"}, r.chars)
}

func TestParseRejectsUndefinedEntity(t *testing.T) {
	err := Parse([]byte(`<a>&bogus;</a>`), newRecorder().handler())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.UndefinedEntity))
}

func TestParseDetectsRecursiveEntity(t *testing.T) {
	data := []byte(`<!DOCTYPE a [
<!ENTITY x "&y;">
<!ENTITY y "&x;">
]>
<a>&x;</a>`)
	err := Parse(data, newRecorder().handler())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.RecursiveEntity))
}

func TestParseGeneralEntityFromInternalSubset(t *testing.T) {
	data := []byte(`<!DOCTYPE foo [
<!ENTITY hello "Hello, world!">
]>
<foo><bar>&hello;</bar></foo>`)
	r := newRecorder()
	err := Parse(data, r.handler())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello, world!"}, r.chars)
}

func TestParseValidatesContentModel(t *testing.T) {
	data := []byte(`<!DOCTYPE foo [
<!ELEMENT foo (bar)>
<!ELEMENT bar (#PCDATA)>
]>
<foo><baz/></foo>`)
	err := Parse(data, newRecorder().handler(), WithValidation())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.InvalidContent))

	err = Parse(data, newRecorder().handler())
	require.NoError(t, err)
}

func TestParseAttributeDefaultsAndFixed(t *testing.T) {
	data := []byte(`<!DOCTYPE e [
<!ATTLIST e x CDATA #FIXED "v">
]>
<e/>`)
	r := newRecorder()
	err := Parse(data, r.handler())
	require.NoError(t, err)
	attrs := r.attrs["e"]
	require.Len(t, attrs, 1)
	assert.Equal(t, "v", attrs[0].Value)
}

func TestParseRejectsFixedAttributeMismatch(t *testing.T) {
	data := []byte(`<!DOCTYPE e [
<!ATTLIST e x CDATA #FIXED "v">
]>
<e x="w"/>`)
	err := Parse(data, newRecorder().handler(), WithValidation())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.Invalid))

	err = Parse(data, newRecorder().handler())
	require.NoError(t, err)
}

func TestParseRejectsDuplicateID(t *testing.T) {
	data := []byte(`<!DOCTYPE r [
<!ELEMENT r (e+)>
<!ELEMENT e (#PCDATA)>
<!ATTLIST e id ID #REQUIRED>
]>
<r><e id="x">a</e><e id="x">b</e></r>`)
	err := Parse(data, newRecorder().handler())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.DuplicateId))
}

func TestParseNamespaceScopeRestoredAfterElementClose(t *testing.T) {
	// xmlns:z is declared on <x> and must go out of scope once </x> closes, so the
	// z:c reference inside the later sibling <y> is an undeclared prefix.
	data := []byte(`<a><x xmlns:z="urn:z"><z:b/></x><y><z:c/></y></a>`)
	err := Parse(data, newRecorder().handler(), WithNamespaceValidation())
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.NotWellFormed))

	// Without namespace validation enabled, the same document still parses (the
	// unresolved prefix is simply left unresolved).
	err = Parse(data, newRecorder().handler())
	require.NoError(t, err)
}

func TestParseCDATASection(t *testing.T) {
	r := newRecorder()
	err := Parse([]byte(`<a><![CDATA[<not a tag>]]></a>`), r.handler())
	require.NoError(t, err)
	assert.Equal(t, []string{"<not a tag>"}, r.chars)
}

func TestParseComment(t *testing.T) {
	r := newRecorder()
	err := Parse([]byte(`<a><!-- hi --></a>`), r.handler())
	require.NoError(t, err)
	assert.Equal(t, []string{" hi "}, r.comments)
}

func TestParseStandaloneViolation(t *testing.T) {
	resolver := func(publicID, systemID string) ([]byte, error) {
		return []byte(`<!ATTLIST e x CDATA "v">`), nil
	}
	data := []byte(`<?xml version="1.0" standalone="yes"?>
<!DOCTYPE e SYSTEM "e.dtd">
<e/>`)
	err := Parse(data, newRecorder().handler(), WithValidation(), WithEntityResolver(resolver))
	require.Error(t, err)
	assert.True(t, xmlerr.Is(err, xmlerr.NotWellFormed))
}

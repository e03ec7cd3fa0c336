package dtd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceElementCreatesUndeclaredPlaceholder(t *testing.T) {
	d := New()
	ref := d.ReferenceElement("poem")
	assert.False(t, ref.Declared)
	assert.Same(t, ref, d.GetElement("poem"))
}

func TestDeclareElementFillsExistingPlaceholder(t *testing.T) {
	d := New()
	ref := d.ReferenceElement("poem")
	cs, err := ParseContentSpec("(title, line+)")
	require.NoError(t, err)
	d.DeclareElement(&ElementDecl{Name: "poem", Content: cs, Declared: true, Attrs: map[string]*AttDecl{}})

	// the pointer returned earlier stays valid and now reflects the declaration
	assert.True(t, ref.Declared)
	assert.Same(t, ref, d.GetElement("poem"))
}

func TestDeclareAttlistMergesAndKeepsFirstWin(t *testing.T) {
	d := New()
	d.DeclareAttlist("e", &AttDecl{Name: "x", Type: CDATA, Default: DefaultValue, DefaultVal: "v1"})
	d.DeclareAttlist("e", &AttDecl{Name: "x", Type: CDATA, Default: DefaultValue, DefaultVal: "v2"})
	d.DeclareAttlist("e", &AttDecl{Name: "y", Type: CDATA, Default: DefaultImplied})

	got := d.AttributeFor("e", "x")
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.DefaultVal)
	assert.Equal(t, []string{"x", "y"}, d.GetElement("e").AttrOrder)
}

func TestDeclareEntityFirstDeclarationWins(t *testing.T) {
	d := New()
	d.DeclareEntity(&Entity{Name: "hello", Value: "first"})
	d.DeclareEntity(&Entity{Name: "hello", Value: "second"})
	assert.Equal(t, "first", d.GetEntity("hello").Value)
}

func TestDeclareNotationAndParameterEntity(t *testing.T) {
	d := New()
	d.DeclareNotation(&Notation{Name: "jpeg", SystemID: "jpeg.exe"})
	require.NotNil(t, d.GetNotation("jpeg"))

	d.DeclareParameterEntity(&Entity{Name: "p", Value: "value"})
	require.NotNil(t, d.GetParameterEntity("p"))
	assert.Nil(t, d.GetParameterEntity("missing"))
}

func TestParseContentSpecRejectsMalformedGroup(t *testing.T) {
	_, err := ParseContentSpec("(title, line+")
	require.Error(t, err)
}

func TestParseContentSpecRejectsMixedWithoutStar(t *testing.T) {
	_, err := ParseContentSpec("(#PCDATA|bold)")
	require.Error(t, err)
}

package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementContainerOps(t *testing.T) {
	root := NewElement(QName{Local: "persons"})
	person := root.CreateElement("person")
	person.SetAttr("id", "1")
	first := person.CreateElement("firstname")
	first.CreateText("John")

	require.Equal(t, 1, root.Size())
	require.Equal(t, "1", person.Attr("id"))
	require.Equal(t, "John", first.Text())
	assert.False(t, root.Empty())
	assert.Equal(t, person, root.Front())
	assert.Equal(t, person, root.Back())
}

func TestOwnershipViolation(t *testing.T) {
	root := NewElement(QName{Local: "a"})
	child := root.CreateElement("b")

	other := NewElement(QName{Local: "c"})
	err := other.PushBack(child)
	require.Error(t, err)
}

func TestEraseOwnershipMismatch(t *testing.T) {
	root := NewElement(QName{Local: "a"})
	child := root.CreateElement("b")
	other := NewElement(QName{Local: "c"})

	err := other.Erase(child)
	require.Error(t, err)
}

func TestAttributeSetEmplaceOverwrites(t *testing.T) {
	e := NewElement(QName{Local: "e"})
	_, inserted := e.Attrs.Emplace(e, QName{Local: "x"}, "1")
	require.True(t, inserted)
	_, inserted = e.Attrs.Emplace(e, QName{Local: "x"}, "2")
	require.False(t, inserted)
	assert.Equal(t, "2", e.Attr("x"))
}

func TestElementEqualityIgnoresWhitespaceAndAttrOrder(t *testing.T) {
	a := NewElement(QName{Local: "e"})
	a.SetAttr("x", "1")
	a.SetAttr("y", "2")
	a.CreateText("  \n ")
	a.CreateElement("child")

	b := NewElement(QName{Local: "e"})
	b.SetAttr("y", "2")
	b.SetAttr("x", "1")
	b.CreateElement("child")

	assert.True(t, a.Equal(b))
	assert.False(t, a.EqualStrict(b))
}

func TestNamespaceResolution(t *testing.T) {
	doc := NewDocument()
	bar := doc.CreateElement("bar")
	bar.SetAttr("xmlns:z", "u")
	foo := NewElement(QName{Prefix: "z", Local: "foo"})
	_ = bar.PushBack(foo)
	foo.CreateText("x")

	assert.Equal(t, "u", foo.NamespaceURI())
	prefix, ok := foo.PrefixForNamespace("u")
	assert.True(t, ok)
	assert.Equal(t, "z", prefix)
}

func TestWriteToRoundTrip(t *testing.T) {
	doc := NewDocument()
	persons := doc.CreateElement("persons")
	person := persons.CreateElement("person")
	person.SetAttr("id", "1")
	person.CreateElement("firstname").CreateText("John")

	out, err := doc.WriteToString(Format{})
	require.NoError(t, err)
	assert.Equal(t, `<persons><person id="1"><firstname>John</firstname></person></persons>`, out)
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	root := NewElement(QName{Local: "a"})
	root.SetAttr("x", "1")
	root.CreateElement("b")

	clone := root.Clone()
	assert.Nil(t, clone.Parent)
	assert.True(t, root.Equal(clone))

	clone.SetAttr("x", "2")
	assert.Equal(t, "1", root.Attr("x"))
}

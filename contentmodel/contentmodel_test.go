package contentmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2/xmlcore/dtd"
)

func compile(t *testing.T, spec string) *Validator {
	t.Helper()
	cs, err := dtd.ParseContentSpec(spec)
	require.NoError(t, err)
	return Compile(cs)
}

func TestEmptyContentModel(t *testing.T) {
	v := compile(t, "EMPTY")
	assert.False(t, v.AllowCharData())
	assert.True(t, v.AllowEmpty())
	assert.False(t, v.Allow("anything"))
}

func TestAnyContentModel(t *testing.T) {
	v := compile(t, "ANY")
	assert.True(t, v.AllowCharData())
	assert.True(t, v.Allow("foo"))
	assert.True(t, v.Allow("bar"))
	assert.True(t, v.AllowEmpty())
}

func TestMixedContentModel(t *testing.T) {
	v := compile(t, "(#PCDATA|bold|italic)*")
	assert.True(t, v.AllowCharData())
	assert.True(t, v.Allow("bold"))
	assert.True(t, v.Allow("italic"))
	assert.False(t, v.Allow("underline"))
	assert.True(t, v.AllowEmpty())
}

func TestSequenceContentModel(t *testing.T) {
	v := compile(t, "(title, line+)")
	assert.False(t, v.AllowEmpty())
	assert.False(t, v.Allow("line"))
	assert.True(t, v.Allow("title"))
	assert.False(t, v.AllowEmpty())
	assert.True(t, v.Allow("line"))
	assert.True(t, v.AllowEmpty())
	assert.True(t, v.Allow("line"))
	assert.True(t, v.AllowEmpty())
}

func TestChoiceContentModel(t *testing.T) {
	v := compile(t, "(a|b)")
	assert.False(t, v.AllowEmpty())
	assert.True(t, v.Allow("b"))
	assert.True(t, v.AllowEmpty())
	assert.False(t, v.Allow("a"))
}

func TestOptionalAndStarContentModel(t *testing.T) {
	v := compile(t, "(title?, para*)")
	assert.True(t, v.AllowEmpty())
	assert.True(t, v.Allow("para"))
	assert.True(t, v.Allow("para"))
	assert.True(t, v.AllowEmpty())

	v2 := compile(t, "(title?, para*)")
	assert.True(t, v2.Allow("title"))
	assert.True(t, v2.AllowEmpty())
}

func TestNestedGroupContentModel(t *testing.T) {
	v := compile(t, "((firstname, lastname) | nickname)")
	assert.True(t, v.Allow("firstname"))
	assert.False(t, v.AllowEmpty())
	assert.True(t, v.Allow("lastname"))
	assert.True(t, v.AllowEmpty())
}

func TestValidateChildrenReportsContentError(t *testing.T) {
	cs, err := dtd.ParseContentSpec("(title, line+)")
	require.NoError(t, err)

	err = ValidateChildren(cs, "poem", []string{"title"}, false)
	require.Error(t, err)

	err = ValidateChildren(cs, "poem", []string{"title", "line"}, false)
	require.NoError(t, err)

	err = ValidateChildren(cs, "poem", []string{"title"}, true)
	require.Error(t, err)
}

package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/parser"
)

func TestBuildSimpleTree(t *testing.T) {
	doc, err := ReadDocument([]byte(`<persons><person id="1"><firstname>John</firstname></person></persons>`))
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "persons", root.Name.Local)

	person := root.Front()
	require.NotNil(t, person)
	assert.Equal(t, "1", person.Attr("id"))
	assert.Equal(t, "John", person.Front().Text())
}

func TestBuildPreservesComments(t *testing.T) {
	doc, err := ReadDocument([]byte(`<a><!-- hi --><b/></a>`))
	require.NoError(t, err)
	root := doc.Root()
	assert.Equal(t, dom.CommentNode, root.Front().Type)
	assert.Equal(t, " hi ", root.Front().Data)
}

func TestBuildCDATAMergesByDefault(t *testing.T) {
	doc, err := ReadDocument([]byte(`<a>x<![CDATA[y]]>z</a>`))
	require.NoError(t, err)
	assert.Equal(t, "xyz", doc.Root().Text())
}

func TestBuildCDATAPreserved(t *testing.T) {
	doc, err := Build([]byte(`<a>x<![CDATA[y]]>z</a>`), nil, WithCDATAPreserved())
	require.NoError(t, err)
	kids := doc.Root().Children()
	require.Len(t, kids, 3)
	assert.Equal(t, dom.TextNode, kids[0].Type)
	assert.Equal(t, dom.CDATANode, kids[1].Type)
	assert.Equal(t, dom.TextNode, kids[2].Type)
}

func TestBuildEntityExpansion(t *testing.T) {
	doc, err := ReadDocument([]byte(`<a>Tom &amp; Jerry</a>`))
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry", doc.Root().Text())
}

func TestBuildRejectsMismatchedTags(t *testing.T) {
	_, err := ReadDocument([]byte(`<a><b></c></a>`))
	require.Error(t, err)
}

func TestBuildValidatesAgainstDTD(t *testing.T) {
	data := []byte(`<!DOCTYPE poem [
<!ELEMENT poem (title, line+)>
<!ELEMENT title (#PCDATA)>
<!ELEMENT line (#PCDATA)>
]>
<poem><title>Song</title><line>one</line></poem>`)
	_, err := Build(data, []parser.Option{parser.WithValidation()})
	require.NoError(t, err)

	bad := []byte(`<!DOCTYPE poem [
<!ELEMENT poem (title, line+)>
<!ELEMENT title (#PCDATA)>
<!ELEMENT line (#PCDATA)>
]>
<poem><line>one</line></poem>`)
	_, err = Build(bad, []parser.Option{parser.WithValidation()})
	require.Error(t, err)
}

package xpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r2/xmlcore/builder"
	"github.com/r2/xmlcore/dom"
)

func parseDoc(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := builder.ReadDocument([]byte(src))
	require.NoError(t, err)
	return doc
}

func selectFrom(t *testing.T, n *dom.Node, expr string) NodeSet {
	t.Helper()
	e, err := Compile(expr)
	require.NoError(t, err)
	v, err := Evaluate(e, NewContext(n))
	require.NoError(t, err)
	ns, ok := v.(NodeSet)
	require.True(t, ok, "expected a node-set result for %q", expr)
	return ns.sortedByDocumentOrder()
}

func TestParseAndFindPerson(t *testing.T) {
	doc := parseDoc(t, `<persons><person id="1"><firstname>John</firstname></person></persons>`)
	ns := selectFrom(t, doc.Node(), "//person")
	require.Len(t, ns, 1)
	assert.Equal(t, "1", ns[0].Attr("id"))
}

func TestNamespaceURIPredicateWithVariable(t *testing.T) {
	doc := parseDoc(t, `<bar xmlns:z="u"><z:foo>x</z:foo></bar>`)
	expr, err := Compile("//*[namespace-uri()=$ns]")
	require.NoError(t, err)
	ctx := NewContext(doc.Node())
	ctx.Vars["ns"] = String("u")
	v, err := Evaluate(expr, ctx)
	require.NoError(t, err)
	ns := v.(NodeSet).sortedByDocumentOrder()
	require.Len(t, ns, 1)
	assert.Equal(t, "foo", ns[0].Name.Local)
}

func TestStringFunctionOnElement(t *testing.T) {
	doc := parseDoc(t, `<foo><bar>Hello, world!</bar></foo>`)
	v, err := Eval("string(//bar)", doc.Node())
	require.NoError(t, err)
	assert.Equal(t, String("Hello, world!"), v)
}

func TestPredicatePositionLastAndModulo(t *testing.T) {
	doc := parseDoc(t, `<A><B/><B/><B/><B/><B/></A>`)
	last := selectFrom(t, doc.Node(), "//B[position()=last()]")
	require.Len(t, last, 1)

	count, err := Eval("count(//B)", doc.Node())
	require.NoError(t, err)
	assert.Equal(t, Number(5), count)

	evens := selectFrom(t, doc.Node(), "//B[position() mod 2 = 0]")
	assert.Len(t, evens, 2)
}

func TestNamespaceAxisYieldsXmlAndDeclaredPrefix(t *testing.T) {
	doc := parseDoc(t, `<a xmlns:z="urn:z"><b/></a>`)
	ns := selectFrom(t, doc.Node(), "//b/namespace::*")
	require.Len(t, ns, 2)
	got := map[string]string{}
	for _, n := range ns {
		got[n.Name.Local] = n.Data
	}
	assert.Equal(t, dom.XMLNamespaceURI, got["xml"])
	assert.Equal(t, "urn:z", got["z"])
}

func TestUnionDedupesAndSortsByDocumentOrder(t *testing.T) {
	doc := parseDoc(t, `<r><a id="1"/><b id="2"/><c id="3"/></r>`)
	ns := selectFrom(t, doc.Node(), "//a | //c | //b | //a")
	require.Len(t, ns, 3)
	assert.Equal(t, "a", ns[0].Name.Local)
	assert.Equal(t, "b", ns[1].Name.Local)
	assert.Equal(t, "c", ns[2].Name.Local)
}

func TestAncestorAndParentAxes(t *testing.T) {
	doc := parseDoc(t, `<r><a><b><c/></b></a></r>`)
	ns := selectFrom(t, doc.Node(), "//c/ancestor::*")
	require.Len(t, ns, 3)
	assert.Equal(t, "r", ns[0].Name.Local)
	assert.Equal(t, "a", ns[1].Name.Local)
	assert.Equal(t, "b", ns[2].Name.Local)

	parent := selectFrom(t, doc.Node(), "//c/parent::b")
	require.Len(t, parent, 1)
}

func TestFollowingAndPrecedingSiblingAxes(t *testing.T) {
	doc := parseDoc(t, `<r><a/><b/><c/></r>`)
	following := selectFrom(t, doc.Node(), "//a/following-sibling::*")
	require.Len(t, following, 2)
	assert.Equal(t, "b", following[0].Name.Local)
	assert.Equal(t, "c", following[1].Name.Local)

	preceding := selectFrom(t, doc.Node(), "//c/preceding-sibling::*")
	require.Len(t, preceding, 2)
	assert.Equal(t, "a", preceding[0].Name.Local)
	assert.Equal(t, "b", preceding[1].Name.Local)
}

func TestAttributeAxisAndWildcard(t *testing.T) {
	doc := parseDoc(t, `<e x="1" y="2"/>`)
	ns := selectFrom(t, doc.Node(), "//e/attribute::*")
	require.Len(t, ns, 2)
}

func TestStringFunctions(t *testing.T) {
	doc := parseDoc(t, `<a/>`)
	node := doc.Node()

	v, err := Eval(`concat('foo', '-', 'bar')`, node)
	require.NoError(t, err)
	assert.Equal(t, String("foo-bar"), v)

	v, err = Eval(`starts-with('hello', 'he')`, node)
	require.NoError(t, err)
	assert.Equal(t, Boolean(true), v)

	v, err = Eval(`substring('12345', 2, 3)`, node)
	require.NoError(t, err)
	assert.Equal(t, String("234"), v)

	v, err = Eval(`normalize-space('  a  b  ')`, node)
	require.NoError(t, err)
	assert.Equal(t, String("a b"), v)

	v, err = Eval(`translate('bar', 'abc', 'ABC')`, node)
	require.NoError(t, err)
	assert.Equal(t, String("BAr"), v)
}

func TestNumberFunctions(t *testing.T) {
	doc := parseDoc(t, `<a/>`)
	node := doc.Node()

	v, err := Eval(`floor(3.7)`, node)
	require.NoError(t, err)
	assert.Equal(t, Number(3), v)

	v, err = Eval(`ceiling(3.1)`, node)
	require.NoError(t, err)
	assert.Equal(t, Number(4), v)

	v, err = Eval(`round(3.5)`, node)
	require.NoError(t, err)
	assert.Equal(t, Number(4), v)
}

func TestIDFunction(t *testing.T) {
	data := []byte(`<!DOCTYPE r [
<!ELEMENT r (e+)>
<!ELEMENT e (#PCDATA)>
<!ATTLIST e id ID #REQUIRED>
]>
<r><e id="x1">one</e><e id="x2">two</e></r>`)
	doc, err := builder.ReadDocument(data)
	require.NoError(t, err)
	ns := selectFrom(t, doc.Node(), `id('x2')`)
	require.Len(t, ns, 1)
	assert.Equal(t, "two", ns[0].Text())
}

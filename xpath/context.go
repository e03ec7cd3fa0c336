package xpath

import "github.com/r2/xmlcore/dom"

// Context carries the evaluation state XPath 1.0 section 1 calls the "context" for an
// expression: the context node, its 1-based position and the size of the node-set it came
// from, and the bound variables.
type Context struct {
	Node *dom.Node
	Pos  int
	Size int
	Vars map[string]Value
}

// NewContext builds a fresh top-level context with node as both the context node and the
// sole member of its context node-set.
func NewContext(node *dom.Node) *Context {
	return &Context{Node: node, Pos: 1, Size: 1, Vars: map[string]Value{}}
}

func (c *Context) withNode(n *dom.Node, pos, size int) *Context {
	return &Context{Node: n, Pos: pos, Size: size, Vars: c.Vars}
}

// Eval is a convenience wrapper compiling expr and evaluating it against node with a fresh
// top-level context.
func Eval(expr string, node *dom.Node) (Value, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return Evaluate(e, NewContext(node))
}

// Select compiles and evaluates expr, coercing the result to a document-order, duplicate-free
// node-set. It is an error for expr to evaluate to anything but a node-set.
func Select(expr string, node *dom.Node) (NodeSet, error) {
	v, err := Eval(expr, node)
	if err != nil {
		return nil, err
	}
	ns, ok := v.(NodeSet)
	if !ok {
		return nil, errNotNodeSet(expr)
	}
	return ns.sortedByDocumentOrder(), nil
}

package xpath

import (
	"math"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/internal/xmlerr"
)

func errNotNodeSet(expr string) error {
	return xmlerr.New(xmlerr.XPathEvaluation, "expression %q did not evaluate to a node-set", expr)
}

// Evaluate evaluates expr against ctx, dispatching on the concrete Expr node type built by
// Compile.
func Evaluate(expr Expr, ctx *Context) (Value, error) {
	switch e := expr.(type) {
	case *LocationPath:
		return evalLocationPath(e, ctx)
	case *Literal:
		return e.Value, nil
	case *VariableRef:
		if v, ok := ctx.Vars[e.Name]; ok {
			return v, nil
		}
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "undefined variable $%s", e.Name)
	case *FuncCall:
		return evalFuncCall(e, ctx)
	case *UnaryMinus:
		x, err := Evaluate(e.X, ctx)
		if err != nil {
			return nil, err
		}
		return Number(-float64(ToNumber(x))), nil
	case *BinaryOp:
		return evalBinaryOp(e, ctx)
	case *FilterExpr:
		return evalFilterExpr(e, ctx)
	}
	return nil, xmlerr.New(xmlerr.XPathEvaluation, "unsupported expression node")
}

func evalLocationPath(lp *LocationPath, ctx *Context) (Value, error) {
	var start []*dom.Node
	if lp.Absolute {
		start = []*dom.Node{documentRootOf(ctx.Node)}
	} else {
		start = []*dom.Node{ctx.Node}
	}
	nodes, err := evalSteps(start, lp.Steps, ctx)
	if err != nil {
		return nil, err
	}
	return NodeSet(nodes).sortedByDocumentOrder(), nil
}

func documentRootOf(n *dom.Node) *dom.Node {
	if n.Type == dom.DocumentNode {
		return n
	}
	if d := n.Document(); d != nil {
		return d.Node()
	}
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

func evalSteps(start []*dom.Node, steps []Step, ctx *Context) ([]*dom.Node, error) {
	current := start
	for _, step := range steps {
		var next []*dom.Node
		seen := map[*dom.Node]bool{}
		for _, ctxNode := range current {
			axisNodes := selectAxis(step.Axis, ctxNode)
			filtered := filterByTest(axisNodes, step.Axis, step.Test, ctxNode)
			var err error
			filtered, err = applyPredicates(filtered, step.Predicates, ctx)
			if err != nil {
				return nil, err
			}
			for _, n := range filtered {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		current = next
	}
	return current, nil
}

func applyPredicates(nodes []*dom.Node, preds []Expr, ctx *Context) ([]*dom.Node, error) {
	for _, pred := range preds {
		size := len(nodes)
		var kept []*dom.Node
		for i, n := range nodes {
			pctx := ctx.withNode(n, i+1, size)
			v, err := Evaluate(pred, pctx)
			if err != nil {
				return nil, err
			}
			if predicateMatches(v, i+1) {
				kept = append(kept, n)
			}
		}
		nodes = kept
	}
	return nodes, nil
}

func predicateMatches(v Value, pos int) bool {
	if n, ok := v.(Number); ok {
		return float64(n) == float64(pos)
	}
	return bool(ToBoolean(v))
}

func evalFilterExpr(fe *FilterExpr, ctx *Context) (Value, error) {
	primary, err := Evaluate(fe.Primary, ctx)
	if err != nil {
		return nil, err
	}
	ns, ok := primary.(NodeSet)
	if !ok {
		if len(fe.Predicates) == 0 && len(fe.Steps) == 0 {
			return primary, nil
		}
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "predicates/steps require a node-set operand")
	}
	filtered, err := applyPredicates([]*dom.Node(ns), fe.Predicates, ctx)
	if err != nil {
		return nil, err
	}
	if len(fe.Steps) == 0 {
		return NodeSet(filtered).sortedByDocumentOrder(), nil
	}
	nodes, err := evalSteps(filtered, fe.Steps, ctx)
	if err != nil {
		return nil, err
	}
	return NodeSet(nodes).sortedByDocumentOrder(), nil
}

func evalBinaryOp(b *BinaryOp, ctx *Context) (Value, error) {
	switch b.Op {
	case "or":
		l, err := Evaluate(b.Left, ctx)
		if err != nil {
			return nil, err
		}
		if ToBoolean(l) {
			return Boolean(true), nil
		}
		r, err := Evaluate(b.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(ToBoolean(r)), nil
	case "and":
		l, err := Evaluate(b.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !ToBoolean(l) {
			return Boolean(false), nil
		}
		r, err := Evaluate(b.Right, ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(ToBoolean(r)), nil
	case "|":
		l, err := Evaluate(b.Left, ctx)
		if err != nil {
			return nil, err
		}
		r, err := Evaluate(b.Right, ctx)
		if err != nil {
			return nil, err
		}
		ln, ok := l.(NodeSet)
		if !ok {
			return nil, xmlerr.New(xmlerr.XPathEvaluation, "'|' requires node-set operands")
		}
		rn, ok := r.(NodeSet)
		if !ok {
			return nil, xmlerr.New(xmlerr.XPathEvaluation, "'|' requires node-set operands")
		}
		return append(append(NodeSet{}, ln...), rn...).sortedByDocumentOrder(), nil
	}
	l, err := Evaluate(b.Left, ctx)
	if err != nil {
		return nil, err
	}
	r, err := Evaluate(b.Right, ctx)
	if err != nil {
		return nil, err
	}
	switch b.Op {
	case "=", "!=", "<", "<=", ">", ">=":
		return Boolean(compareValues(l, r, b.Op)), nil
	case "+":
		return Number(float64(ToNumber(l)) + float64(ToNumber(r))), nil
	case "-":
		return Number(float64(ToNumber(l)) - float64(ToNumber(r))), nil
	case "*":
		return Number(float64(ToNumber(l)) * float64(ToNumber(r))), nil
	case "div":
		return Number(float64(ToNumber(l)) / float64(ToNumber(r))), nil
	case "mod":
		return Number(math.Mod(float64(ToNumber(l)), float64(ToNumber(r)))), nil
	}
	return nil, xmlerr.New(xmlerr.XPathEvaluation, "unsupported operator %q", b.Op)
}

package xpath

import (
	"math"
	"strings"

	"github.com/r2/xmlcore/dom"
	"github.com/r2/xmlcore/internal/xmlerr"
)

func evalFuncCall(f *FuncCall, ctx *Context) (Value, error) {
	args := f.Args
	switch f.Name {
	case "last":
		if err := arity(f, 0); err != nil {
			return nil, err
		}
		return Number(ctx.Size), nil
	case "position":
		if err := arity(f, 0); err != nil {
			return nil, err
		}
		return Number(ctx.Pos), nil
	case "count":
		ns, err := nodeSetArg(args, 0, ctx)
		if err != nil {
			return nil, err
		}
		return Number(len(ns)), nil
	case "id":
		return evalID(args, ctx)
	case "local-name":
		return evalNamePart(args, ctx, func(q dom.QName, _ string) string { return q.Local })
	case "namespace-uri":
		return evalNamePart(args, ctx, func(_ dom.QName, uri string) string { return uri })
	case "name":
		return evalNamePart(args, ctx, func(q dom.QName, _ string) string { return q.String() })
	case "string":
		if len(args) == 0 {
			return String(stringValueOf(ctx.Node)), nil
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return ToString(v), nil
	case "concat":
		if len(args) < 2 {
			return nil, arityAtLeast(f, 2)
		}
		var b strings.Builder
		for _, a := range args {
			v, err := Evaluate(a, ctx)
			if err != nil {
				return nil, err
			}
			b.WriteString(string(ToString(v)))
		}
		return String(b.String()), nil
	case "starts-with":
		s1, s2, err := twoStringArgs(args, ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(strings.HasPrefix(s1, s2)), nil
	case "contains":
		s1, s2, err := twoStringArgs(args, ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(strings.Contains(s1, s2)), nil
	case "substring-before":
		s1, s2, err := twoStringArgs(args, ctx)
		if err != nil {
			return nil, err
		}
		if i := strings.Index(s1, s2); i >= 0 {
			return String(s1[:i]), nil
		}
		return String(""), nil
	case "substring-after":
		s1, s2, err := twoStringArgs(args, ctx)
		if err != nil {
			return nil, err
		}
		if i := strings.Index(s1, s2); i >= 0 {
			return String(s1[i+len(s2):]), nil
		}
		return String(""), nil
	case "substring":
		return evalSubstring(args, ctx)
	case "string-length":
		s := ctx.Node
		if len(args) == 0 {
			return Number(len([]rune(stringValueOf(s)))), nil
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Number(len([]rune(string(ToString(v))))), nil
	case "normalize-space":
		var s string
		if len(args) == 0 {
			s = stringValueOf(ctx.Node)
		} else {
			v, err := Evaluate(args[0], ctx)
			if err != nil {
				return nil, err
			}
			s = string(ToString(v))
		}
		return String(strings.Join(strings.Fields(s), " ")), nil
	case "translate":
		return evalTranslate(args, ctx)
	case "boolean":
		if err := arity(f, 1); err != nil {
			return nil, err
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return ToBoolean(v), nil
	case "not":
		if err := arity(f, 1); err != nil {
			return nil, err
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(!ToBoolean(v)), nil
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "lang":
		return evalLang(args, ctx)
	case "number":
		if len(args) == 0 {
			return Number(stringToNumber(stringValueOf(ctx.Node))), nil
		}
		v, err := Evaluate(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return ToNumber(v), nil
	case "sum":
		ns, err := nodeSetArg(args, 0, ctx)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, n := range ns {
			total += float64(stringToNumber(stringValueOf(n)))
		}
		return Number(total), nil
	case "floor":
		n, err := numberArg(args, ctx)
		if err != nil {
			return nil, err
		}
		return Number(math.Floor(float64(n))), nil
	case "ceiling":
		n, err := numberArg(args, ctx)
		if err != nil {
			return nil, err
		}
		return Number(math.Ceil(float64(n))), nil
	case "round":
		n, err := numberArg(args, ctx)
		if err != nil {
			return nil, err
		}
		return Number(math.Round(float64(n))), nil
	}
	return nil, xmlerr.New(xmlerr.XPathEvaluation, "unknown function %q", f.Name)
}

func arity(f *FuncCall, n int) error {
	if len(f.Args) != n {
		return xmlerr.New(xmlerr.XPathEvaluation, "%s() takes %d argument(s), got %d", f.Name, n, len(f.Args))
	}
	return nil
}

func arityAtLeast(f *FuncCall, n int) error {
	return xmlerr.New(xmlerr.XPathEvaluation, "%s() takes at least %d argument(s), got %d", f.Name, n, len(f.Args))
}

func nodeSetArg(args []Expr, i int, ctx *Context) (NodeSet, error) {
	if i >= len(args) {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "missing node-set argument")
	}
	v, err := Evaluate(args[i], ctx)
	if err != nil {
		return nil, err
	}
	ns, ok := v.(NodeSet)
	if !ok {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "argument is not a node-set")
	}
	return ns, nil
}

func numberArg(args []Expr, ctx *Context) (Number, error) {
	if len(args) != 1 {
		return 0, xmlerr.New(xmlerr.XPathEvaluation, "function takes exactly one argument")
	}
	v, err := Evaluate(args[0], ctx)
	if err != nil {
		return 0, err
	}
	return ToNumber(v), nil
}

func twoStringArgs(args []Expr, ctx *Context) (string, string, error) {
	if len(args) != 2 {
		return "", "", xmlerr.New(xmlerr.XPathEvaluation, "function takes exactly two arguments")
	}
	v1, err := Evaluate(args[0], ctx)
	if err != nil {
		return "", "", err
	}
	v2, err := Evaluate(args[1], ctx)
	if err != nil {
		return "", "", err
	}
	return string(ToString(v1)), string(ToString(v2)), nil
}

func evalSubstring(args []Expr, ctx *Context) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "substring() takes two or three arguments")
	}
	sv, err := Evaluate(args[0], ctx)
	if err != nil {
		return nil, err
	}
	s := []rune(string(ToString(sv)))
	startV, err := Evaluate(args[1], ctx)
	if err != nil {
		return nil, err
	}
	start := math.Round(float64(ToNumber(startV)))
	length := math.Inf(1)
	if len(args) == 3 {
		lenV, err := Evaluate(args[2], ctx)
		if err != nil {
			return nil, err
		}
		length = math.Round(float64(ToNumber(lenV)))
	}
	// XPath 1.0 substring() is defined over 1-based real-number positions; characters whose
	// position lies in [start, start+length) survive, computed in floating point before
	// truncating to the rune slice's integer index space.
	first := start
	last := start + length
	var out []rune
	for i := range s {
		pos := float64(i + 1)
		if pos >= first && pos < last {
			out = append(out, s[i])
		}
	}
	if math.IsNaN(start) || math.IsNaN(length) {
		return String(""), nil
	}
	return String(string(out)), nil
}

func evalTranslate(args []Expr, ctx *Context) (Value, error) {
	if len(args) != 3 {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "translate() takes exactly three arguments")
	}
	sv, err := Evaluate(args[0], ctx)
	if err != nil {
		return nil, err
	}
	fromV, err := Evaluate(args[1], ctx)
	if err != nil {
		return nil, err
	}
	toV, err := Evaluate(args[2], ctx)
	if err != nil {
		return nil, err
	}
	from := []rune(string(ToString(fromV)))
	to := []rune(string(ToString(toV)))
	var b strings.Builder
	for _, r := range string(ToString(sv)) {
		idx := -1
		for i, f := range from {
			if f == r {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			b.WriteRune(r)
		case idx < len(to):
			b.WriteRune(to[idx])
		}
	}
	return String(b.String()), nil
}

func evalNamePart(args []Expr, ctx *Context, extract func(dom.QName, string) string) (Value, error) {
	n := ctx.Node
	if len(args) > 1 {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "function takes zero or one argument")
	}
	if len(args) == 1 {
		ns, err := nodeSetArg(args, 0, ctx)
		if err != nil {
			return nil, err
		}
		if len(ns) == 0 {
			return String(""), nil
		}
		n = ns.sortedByDocumentOrder()[0]
	}
	switch n.Type {
	case dom.ElementNode:
		return String(extract(n.Name, n.NamespaceURI())), nil
	case dom.AttributeNode:
		return String(extract(n.Name, nodeNamespaceURI(n))), nil
	case dom.ProcInstNode:
		return String(extract(dom.QName{Local: n.Name.Local}, "")), nil
	case dom.NamespaceNode:
		return String(extract(dom.QName{Local: n.Name.Local}, n.Data)), nil
	}
	return String(""), nil
}

func evalID(args []Expr, ctx *Context) (Value, error) {
	if len(args) != 1 {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "id() takes exactly one argument")
	}
	v, err := Evaluate(args[0], ctx)
	if err != nil {
		return nil, err
	}
	var tokens []string
	if ns, ok := v.(NodeSet); ok {
		for _, n := range ns {
			tokens = append(tokens, strings.Fields(stringValueOf(n))...)
		}
	} else {
		tokens = strings.Fields(string(ToString(v)))
	}
	root := documentRootOf(ctx.Node)
	want := map[string]bool{}
	for _, t := range tokens {
		want[t] = true
	}
	var out NodeSet
	var walk func(*dom.Node)
	walk = func(n *dom.Node) {
		if n.Type == dom.ElementNode {
			found := false
			n.Attrs.ForEach(func(a *dom.Node) bool {
				if a.IsID && want[a.Data] {
					found = true
					return false
				}
				return true
			})
			if found {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out.sortedByDocumentOrder(), nil
}

func evalLang(args []Expr, ctx *Context) (Value, error) {
	if len(args) != 1 {
		return nil, xmlerr.New(xmlerr.XPathEvaluation, "lang() takes exactly one argument")
	}
	v, err := Evaluate(args[0], ctx)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(string(ToString(v)))
	for el := ctx.Node; el != nil; el = el.Parent {
		if el.Type != dom.ElementNode {
			continue
		}
		if attr := el.Attrs.Find(dom.QName{Prefix: "xml", Local: "lang"}); attr != nil {
			got := strings.ToLower(attr.Data)
			return Boolean(got == want || strings.HasPrefix(got, want+"-")), nil
		}
	}
	return Boolean(false), nil
}

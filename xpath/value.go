// Package xpath implements an XPath 1.0 expression compiler and evaluator over dom.Document
// trees: the four value types (node-set, string, number, boolean), their coercions, the
// thirteen axes, and the core function library.
package xpath

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/r2/xmlcore/dom"
)

// Value is one of NodeSet, String, Number, or Boolean: XPath 1.0's four value types.
type Value interface {
	isValue()
}

// NodeSet is an unordered-on-construction, document-order-on-demand collection of nodes.
type NodeSet []*dom.Node

// String is an XPath string value.
type String string

// Number is an XPath number (IEEE 754 double, NaN used for "not a number").
type Number float64

// Boolean is an XPath boolean value.
type Boolean bool

func (NodeSet) isValue() {}
func (String) isValue()  {}
func (Number) isValue()  {}
func (Boolean) isValue() {}

// ============================================================================
// COERCIONS (XPath 1.0 section 4)
// ============================================================================

// ToBoolean coerces any value to a boolean per XPath 1.0's boolean() conversion rules.
func ToBoolean(v Value) Boolean {
	switch t := v.(type) {
	case Boolean:
		return t
	case Number:
		return Boolean(!math.IsNaN(float64(t)) && t != 0)
	case String:
		return Boolean(len(t) > 0)
	case NodeSet:
		return Boolean(len(t) > 0)
	}
	return false
}

// ToNumber coerces any value to a number per XPath 1.0's number() conversion rules.
func ToNumber(v Value) Number {
	switch t := v.(type) {
	case Number:
		return t
	case Boolean:
		if t {
			return 1
		}
		return 0
	case String:
		return stringToNumber(string(t))
	case NodeSet:
		return stringToNumber(string(ToString(v)))
	}
	return Number(math.NaN())
}

func stringToNumber(s string) Number {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number(math.NaN())
	}
	return Number(f)
}

// ToString coerces any value to a string per XPath 1.0's string() conversion rules.
func ToString(v Value) String {
	switch t := v.(type) {
	case String:
		return t
	case Boolean:
		if t {
			return "true"
		}
		return "false"
	case Number:
		return String(formatNumber(float64(t)))
	case NodeSet:
		if len(t) == 0 {
			return ""
		}
		first := t.sortedByDocumentOrder()[0]
		return String(stringValueOf(first))
	}
	return ""
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// stringValueOf implements the string-value of a node per XPath 1.0 section 5: the
// concatenation of all descendant text for Document/Element nodes, the literal value for
// Attribute/Comment/ProcessingInstruction, the namespace URI for Namespace nodes, and the
// character content for Text/CDATA.
func stringValueOf(n *dom.Node) string {
	switch n.Type {
	case dom.AttributeNode, dom.CommentNode, dom.ProcInstNode, dom.NamespaceNode:
		return n.Data
	case dom.TextNode, dom.CDATANode:
		return n.Data
	case dom.ElementNode, dom.DocumentNode:
		var b strings.Builder
		collectText(n, &b)
		return b.String()
	}
	return ""
}

func collectText(n *dom.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case dom.TextNode, dom.CDATANode:
			b.WriteString(c.Data)
		case dom.ElementNode:
			collectText(c, b)
		}
	}
}

// sortedByDocumentOrder returns a copy of ns sorted into document order with duplicates
// removed, the representation every location-path expression must ultimately produce.
func (ns NodeSet) sortedByDocumentOrder() NodeSet {
	seen := make(map[*dom.Node]bool, len(ns))
	out := make(NodeSet, 0, len(ns))
	for _, n := range ns {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareDocumentOrder(out[i], out[j]) < 0
	})
	return out
}

func (v Boolean) String() string { return string(ToString(v)) }
func (v Number) String() string  { return string(ToString(v)) }
func (v String) String() string  { return string(v) }
func (v NodeSet) String() string { return fmt.Sprintf("NodeSet(%d)", len(v)) }

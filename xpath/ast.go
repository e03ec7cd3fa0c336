package xpath

// Axis enumerates the thirteen XPath 1.0 axes.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisParent
	AxisAncestor
	AxisFollowingSibling
	AxisPrecedingSibling
	AxisFollowing
	AxisPreceding
	AxisAttribute
	AxisNamespace
	AxisSelf
	AxisDescendantOrSelf
	AxisAncestorOrSelf
)

// NodeTestKind discriminates the node-test forms a step may carry.
type NodeTestKind int

const (
	TestName NodeTestKind = iota // a literal or prefixed QName
	TestWildcard
	TestPrefixWildcard // "prefix:*"
	TestNodeNodeType   // node()
	TestTextNodeType   // text()
	TestCommentNodeType
	TestProcInstNodeType // processing-instruction() or processing-instruction('target')
)

// NodeTest is one step's principal-type filter.
type NodeTest struct {
	Kind   NodeTestKind
	Prefix string // TestName, TestPrefixWildcard
	Local  string // TestName
	PITarget string // TestProcInstNodeType, optional
}

// Step is one component of a LocationPath: an axis, a node test, and zero or more predicates.
type Step struct {
	Axis       Axis
	Test       NodeTest
	Predicates []Expr
}

// LocationPath is an absolute or relative sequence of steps.
type LocationPath struct {
	Absolute bool
	Steps    []Step
}

// Expr is any XPath expression node: a LocationPath, a literal, a function call, an
// operator application, or a union/path expression built from others.
type Expr interface {
	exprNode()
}

func (*LocationPath) exprNode() {}

// Literal is a string or number constant.
type Literal struct {
	Value Value
}

func (*Literal) exprNode() {}

// VariableRef is a `$name` reference.
type VariableRef struct {
	Name string
}

func (*VariableRef) exprNode() {}

// FuncCall is a function-call expression, e.g. `substring-before(a, b)`.
type FuncCall struct {
	Name string
	Args []Expr
}

func (*FuncCall) exprNode() {}

// BinaryOp applies a binary operator (or, and, comparisons, arithmetic, |) to two operands.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}

// UnaryMinus negates a numeric expression.
type UnaryMinus struct {
	X Expr
}

func (*UnaryMinus) exprNode() {}

// FilterExpr applies predicates (and, for path expressions, further steps) to a
// non-LocationPath primary expression, e.g. `$x[1]` or `(//a)[2]/b`.
type FilterExpr struct {
	Primary    Expr
	Predicates []Expr
	Steps      []Step // steps appended via '/' or '//' after the filtered primary
	Absolute   bool   // not set by Compile; a '//' after the primary becomes a descendant-or-self::node() step in Steps
}

func (*FilterExpr) exprNode() {}

package xpath

import (
	"github.com/r2/xmlcore/internal/xmlerr"
)

// Compile parses an XPath 1.0 expression string into an evaluable Expr.
func Compile(expr string) (Expr, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, xmlerr.New(xmlerr.InvalidXPath, "unexpected trailing input near %q", p.cur().text)
	}
	return e, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	if p.cur().kind != k {
		return token{}, xmlerr.New(xmlerr.InvalidXPath, "unexpected token near %q", p.cur().text)
	}
	return p.advance(), nil
}

// ============================================================================
// OperatorExpr precedence climbing, lowest to highest:
//   or  <  and  <  equality (= !=)  <  relational (< <= > >=)  <  additive (+ -)
//   <  multiplicative (* div mod)  <  unary minus  <  union (|)  <  path/step
// ============================================================================

func (p *parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "or" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "and" {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "=" || p.cur().text == "!=") {
		op := p.advance().text
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && isRelOp(p.cur().text) {
		op := p.advance().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func isRelOp(s string) bool { return s == "<" || s == "<=" || s == ">" || s == ">=" }

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "+" || p.cur().text == "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && (p.cur().text == "*" || p.cur().text == "div" || p.cur().text == "mod") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur().kind == tokOp && p.cur().text == "-" {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryMinus{X: x}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (Expr, error) {
	left, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokOp && p.cur().text == "|" {
		p.advance()
		right, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: "|", Left: left, Right: right}
	}
	return left, nil
}

// parsePathExpr parses a location path or a filter expression (primary expression optionally
// followed by predicates and/or further path steps).
func (p *parser) parsePathExpr() (Expr, error) {
	if p.startsLocationPath() {
		return p.parseLocationPath()
	}
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var preds []Expr
	for p.cur().kind == tokLBracket {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if p.cur().kind != tokSlash && p.cur().kind != tokSlashSlash {
		if len(preds) == 0 {
			return primary, nil
		}
		return &FilterExpr{Primary: primary, Predicates: preds}, nil
	}
	absolute := p.cur().kind == tokSlashSlash
	p.advance()
	rel, err := p.parseRelativeLocationPath()
	if err != nil {
		return nil, err
	}
	steps := rel.Steps
	if absolute {
		steps = append([]Step{{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNodeNodeType}}}, steps...)
	}
	return &FilterExpr{Primary: primary, Predicates: preds, Steps: steps}, nil
}

func (p *parser) startsLocationPath() bool {
	switch p.cur().kind {
	case tokSlash, tokSlashSlash, tokAt, tokDot, tokDotDot, tokStar:
		return true
	case tokName:
		// "name(" is a step only when name is one of the four node-type test
		// keywords (node/text/comment/processing-instruction) or an axis specifier
		// ("name::"); otherwise it's a function-call primary expression.
		if p.peekIsAxisSpecifier() {
			return true
		}
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokLParen {
			return isNodeTypeKeyword(p.cur().text)
		}
		return true
	}
	return false
}

func (p *parser) parseLocationPath() (Expr, error) {
	if p.cur().kind == tokSlash || p.cur().kind == tokSlashSlash {
		absolute := true
		descendant := p.cur().kind == tokSlashSlash
		p.advance()
		if !p.startsStep() {
			return &LocationPath{Absolute: absolute}, nil
		}
		rel, err := p.parseRelativeLocationPath()
		if err != nil {
			return nil, err
		}
		steps := rel.Steps
		if descendant {
			steps = append([]Step{{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNodeNodeType}}}, steps...)
		}
		return &LocationPath{Absolute: true, Steps: steps}, nil
	}
	return p.parseRelativeLocationPath()
}

func (p *parser) startsStep() bool {
	switch p.cur().kind {
	case tokAt, tokDot, tokDotDot, tokStar, tokName:
		return true
	}
	return false
}

func (p *parser) parseRelativeLocationPath() (*LocationPath, error) {
	var steps []Step
	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)
	for p.cur().kind == tokSlash || p.cur().kind == tokSlashSlash {
		descendant := p.cur().kind == tokSlashSlash
		p.advance()
		if descendant {
			steps = append(steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Kind: TestNodeNodeType}})
		}
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return &LocationPath{Steps: steps}, nil
}

func (p *parser) parseStep() (Step, error) {
	if p.cur().kind == tokDot {
		p.advance()
		return Step{Axis: AxisSelf, Test: NodeTest{Kind: TestNodeNodeType}}, nil
	}
	if p.cur().kind == tokDotDot {
		p.advance()
		return Step{Axis: AxisParent, Test: NodeTest{Kind: TestNodeNodeType}}, nil
	}
	axis := AxisChild
	if p.cur().kind == tokAt {
		p.advance()
		axis = AxisAttribute
	} else if p.cur().kind == tokName && p.peekIsAxisSpecifier() {
		name := p.advance().text
		p.advance() // ::
		a, err := axisFromName(name)
		if err != nil {
			return Step{}, err
		}
		axis = a
	}
	test, err := p.parseNodeTest(axis)
	if err != nil {
		return Step{}, err
	}
	var preds []Expr
	for p.cur().kind == tokLBracket {
		pred, err := p.parsePredicate()
		if err != nil {
			return Step{}, err
		}
		preds = append(preds, pred)
	}
	return Step{Axis: axis, Test: test, Predicates: preds}, nil
}

func (p *parser) peekIsAxisSpecifier() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokColonColon
}

func axisFromName(name string) (Axis, error) {
	switch name {
	case "child":
		return AxisChild, nil
	case "descendant":
		return AxisDescendant, nil
	case "parent":
		return AxisParent, nil
	case "ancestor":
		return AxisAncestor, nil
	case "following-sibling":
		return AxisFollowingSibling, nil
	case "preceding-sibling":
		return AxisPrecedingSibling, nil
	case "following":
		return AxisFollowing, nil
	case "preceding":
		return AxisPreceding, nil
	case "attribute":
		return AxisAttribute, nil
	case "namespace":
		return AxisNamespace, nil
	case "self":
		return AxisSelf, nil
	case "descendant-or-self":
		return AxisDescendantOrSelf, nil
	case "ancestor-or-self":
		return AxisAncestorOrSelf, nil
	}
	return 0, xmlerr.New(xmlerr.InvalidXPath, "unknown axis %q", name)
}

func (p *parser) parseNodeTest(axis Axis) (NodeTest, error) {
	if p.cur().kind == tokStar {
		p.advance()
		return NodeTest{Kind: TestWildcard}, nil
	}
	if p.cur().kind != tokName {
		return NodeTest{}, xmlerr.New(xmlerr.InvalidXPath, "expected node test near %q", p.cur().text)
	}
	name := p.advance().text
	if p.cur().kind == tokLParen && isNodeTypeKeyword(name) {
		p.advance()
		if name == "processing-instruction" && p.cur().kind == tokString {
			target := p.advance().text
			if _, err := p.expect(tokRParen); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{Kind: TestProcInstNodeType, PITarget: target}, nil
		}
		if _, err := p.expect(tokRParen); err != nil {
			return NodeTest{}, err
		}
		switch name {
		case "node":
			return NodeTest{Kind: TestNodeNodeType}, nil
		case "text":
			return NodeTest{Kind: TestTextNodeType}, nil
		case "comment":
			return NodeTest{Kind: TestCommentNodeType}, nil
		case "processing-instruction":
			return NodeTest{Kind: TestProcInstNodeType}, nil
		}
	}
	prefix, local := splitQName(name)
	if local == "*" {
		return NodeTest{Kind: TestPrefixWildcard, Prefix: prefix}, nil
	}
	return NodeTest{Kind: TestName, Prefix: prefix, Local: local}, nil
}

func isNodeTypeKeyword(name string) bool {
	switch name {
	case "node", "text", "comment", "processing-instruction":
		return true
	}
	return false
}

func (p *parser) parsePredicate() (Expr, error) {
	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur().kind {
	case tokVariable:
		return &VariableRef{Name: p.advance().text}, nil
	case tokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tokString:
		return &Literal{Value: String(p.advance().text)}, nil
	case tokNumber:
		return &Literal{Value: Number(p.advance().num)}, nil
	case tokName:
		return p.parseFuncCall()
	}
	return nil, xmlerr.New(xmlerr.InvalidXPath, "unexpected token near %q", p.cur().text)
}

func (p *parser) parseFuncCall() (Expr, error) {
	name := p.advance().text
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.cur().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().kind != tokComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &FuncCall{Name: name, Args: args}, nil
}

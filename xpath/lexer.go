package xpath

import (
	"strings"

	"github.com/r2/xmlcore/internal/xmlerr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokName   // NCName or QName, context decides axis/function/nodetype/operator meaning
	tokVariable
	tokSlash
	tokSlashSlash
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokDot
	tokDotDot
	tokAt
	tokComma
	tokColonColon
	tokStar
	tokOp // one of the operator keywords/symbols: + - = != < <= > >= | and or mod div
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type lexer struct {
	s    string
	pos  int
	toks []token
}

// tokenize lexes the entire expression up front; XPath 1.0's small, fixed token set makes
// this simpler than interleaving lexing with parsing.
func tokenize(s string) ([]token, error) {
	l := &lexer{s: s}
	var prev *token
	for {
		l.skipSpace()
		if l.pos >= len(l.s) {
			l.toks = append(l.toks, token{kind: tokEOF})
			return l.toks, nil
		}
		t, err := l.next(prev)
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, t)
		prev = &l.toks[len(l.toks)-1]
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.s) && (l.s[l.pos] == ' ' || l.s[l.pos] == '\t' || l.s[l.pos] == '\n' || l.s[l.pos] == '\r') {
		l.pos++
	}
}

// next lexes one token. prev is the previously emitted token, needed to disambiguate '*'
// (multiplication vs. the wildcard node test) per the XPath 1.0 tokenization rules.
func (l *lexer) next(prev *token) (token, error) {
	c := l.s[l.pos]
	switch c {
	case '/':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == '/' {
			l.pos += 2
			return token{kind: tokSlashSlash}, nil
		}
		l.pos++
		return token{kind: tokSlash}, nil
	case '(':
		l.pos++
		return token{kind: tokLParen}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen}, nil
	case '[':
		l.pos++
		return token{kind: tokLBracket}, nil
	case ']':
		l.pos++
		return token{kind: tokRBracket}, nil
	case '@':
		l.pos++
		return token{kind: tokAt}, nil
	case ',':
		l.pos++
		return token{kind: tokComma}, nil
	case '|', '+', '=':
		l.pos++
		return token{kind: tokOp, text: string(c)}, nil
	case '-':
		l.pos++
		return token{kind: tokOp, text: "-"}, nil
	case '!':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "!="}, nil
		}
		return token{}, xmlerr.New(xmlerr.InvalidXPath, "unexpected '!' at offset %d", l.pos)
	case '<':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "<="}, nil
		}
		l.pos++
		return token{kind: tokOp, text: "<"}, nil
	case '>':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokOp, text: ">="}, nil
		}
		l.pos++
		return token{kind: tokOp, text: ">"}, nil
	case '.':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == '.' {
			l.pos += 2
			return token{kind: tokDotDot}, nil
		}
		if l.pos+1 < len(l.s) && isDigit(l.s[l.pos+1]) {
			return l.lexNumber()
		}
		l.pos++
		return token{kind: tokDot}, nil
	case ':':
		if l.pos+1 < len(l.s) && l.s[l.pos+1] == ':' {
			l.pos += 2
			return token{kind: tokColonColon}, nil
		}
		return token{}, xmlerr.New(xmlerr.InvalidXPath, "unexpected ':' at offset %d", l.pos)
	case '*':
		l.pos++
		if prev != nil && isOperandEnd(*prev) {
			return token{kind: tokOp, text: "*"}, nil
		}
		return token{kind: tokStar}, nil
	case '$':
		l.pos++
		name, err := l.lexNCNameLike()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokVariable, text: name}, nil
	case '"', '\'':
		return l.lexString(c)
	}
	if isDigit(c) {
		return l.lexNumber()
	}
	if isNameStartByte(c) {
		name, err := l.lexQName()
		if err != nil {
			return token{}, err
		}
		if kw := asWordOperator(name, prev); kw != "" {
			return token{kind: tokOp, text: kw}, nil
		}
		return token{kind: tokName, text: name}, nil
	}
	return token{}, xmlerr.New(xmlerr.InvalidXPath, "unexpected character %q at offset %d", c, l.pos)
}

// isOperandEnd reports whether prev could end an operand, meaning a following '*' must be
// multiplication rather than the wildcard node test.
func isOperandEnd(prev token) bool {
	switch prev.kind {
	case tokNumber, tokString, tokRParen, tokRBracket, tokDot, tokDotDot, tokStar, tokVariable:
		return true
	case tokName:
		return true
	}
	return false
}

// asWordOperator recognizes the keyword operators (and/or/mod/div) which are only operators
// when they can't instead be interpreted as a name (e.g. an axis or function name);
// disambiguation here follows the same "operand just ended" rule as '*'.
func asWordOperator(name string, prev token) string {
	switch name {
	case "and", "or", "mod", "div":
		if isOperandEnd(prev) {
			return name
		}
	}
	return ""
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	for l.pos < len(l.s) && isDigit(l.s[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.s) && l.s[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.s) && isDigit(l.s[l.pos]) {
			l.pos++
		}
	}
	text := l.s[start:l.pos]
	f, err := parseFloat(text)
	if err != nil {
		return token{}, xmlerr.New(xmlerr.InvalidXPath, "malformed number %q", text)
	}
	return token{kind: tokNumber, num: f}, nil
}

func (l *lexer) lexString(quote byte) (token, error) {
	l.pos++
	start := l.pos
	for l.pos < len(l.s) && l.s[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.s) {
		return token{}, xmlerr.New(xmlerr.InvalidXPath, "unterminated string literal")
	}
	text := l.s[start:l.pos]
	l.pos++
	return token{kind: tokString, text: text}, nil
}

// lexQName lexes NCName (':' NCName)?, stopping before a trailing "::" (handled separately
// by the colonColon token) so axis specifiers like "child::" tokenize correctly.
func (l *lexer) lexQName() (string, error) {
	first, err := l.lexNCNameLike()
	if err != nil {
		return "", err
	}
	if l.pos < len(l.s) && l.s[l.pos] == ':' && l.pos+1 < len(l.s) && l.s[l.pos+1] != ':' {
		l.pos++
		second, err := l.lexNCNameLike()
		if err != nil {
			return "", err
		}
		return first + ":" + second, nil
	}
	return first, nil
}

func (l *lexer) lexNCNameLike() (string, error) {
	start := l.pos
	if l.pos >= len(l.s) || !isNameStartByte(l.s[l.pos]) {
		return "", xmlerr.New(xmlerr.InvalidXPath, "expected name at offset %d", l.pos)
	}
	l.pos++
	for l.pos < len(l.s) && isNameByte(l.s[l.pos]) {
		l.pos++
	}
	return l.s[start:l.pos], nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isNameStartByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c >= 0x80
}
func isNameByte(c byte) bool {
	return isNameStartByte(c) || c == '-' || c == '.' || isDigit(c)
}

func parseFloat(s string) (float64, error) {
	var f float64
	var frac float64 = 1
	seenDot := false
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			seenDot = true
			continue
		}
		if !isDigit(c) {
			break
		}
		if seenDot {
			frac /= 10
			f += float64(c-'0') * frac
		} else {
			f = f*10 + float64(c-'0')
		}
	}
	if i != len(s) {
		return 0, xmlerr.New(xmlerr.InvalidXPath, "malformed number %q", s)
	}
	return f, nil
}

func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

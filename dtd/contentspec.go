package dtd

import (
	"strings"

	"github.com/r2/xmlcore/internal/xmlerr"
)

// SpecKind discriminates the content-spec algebra's node variants.
type SpecKind int

const (
	SpecEmpty SpecKind = iota
	SpecAny
	SpecElement
	SpecSeq
	SpecChoice
	SpecRepeated
)

// Repeat enumerates the `?`, `*`, `+` occurrence modifiers.
type Repeat int

const (
	RepeatNone Repeat = iota
	RepeatOptional
	RepeatStar
	RepeatPlus
)

// ContentSpec is the algebraic content-model tree: Empty | Any | Element(name) | Seq[x...]
// | Choice[x...](mixed?) | Repeated(x, {?,*,+}).
type ContentSpec struct {
	Kind     SpecKind
	Name     string        // SpecElement only
	Children []*ContentSpec // SpecSeq/SpecChoice
	Mixed    bool          // SpecChoice only: true for (#PCDATA|a|b)*
	Inner    *ContentSpec  // SpecRepeated only
	Op       Repeat        // SpecRepeated only
}

// ParseContentSpec parses the text between `<!ELEMENT name` and the closing `>`, e.g.
// "EMPTY", "ANY", "(#PCDATA)", "(#PCDATA|bold|italic)*", "(title?, line+)".
func ParseContentSpec(s string) (*ContentSpec, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "EMPTY":
		return &ContentSpec{Kind: SpecEmpty}, nil
	case "ANY":
		return &ContentSpec{Kind: SpecAny}, nil
	}
	p := &specParser{s: s}
	spec, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "trailing content after content spec %q", s)
	}
	return spec, nil
}

type specParser struct {
	s   string
	pos int
}

func (p *specParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

func (p *specParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

// parseTop parses a full content spec, which is always parenthesized at the outermost
// level per the XML 1.0 grammar (children ::= (choice | seq) ('?' | '*' | '+')?).
func (p *specParser) parseTop() (*ContentSpec, error) {
	p.skipSpace()
	if p.peek() != '(' {
		return nil, xmlerr.New(xmlerr.NotWellFormed, "content spec must start with '('")
	}
	inner, mixed, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if mixed {
		return inner, nil // mixed-content groups carry their own trailing '*' handling
	}
	return p.maybeRepeat(inner)
}

// parseGroup parses "(...)" including a possible leading "#PCDATA" mixed-content marker,
// returning the resulting spec and whether it was a mixed-content group.
func (p *specParser) parseGroup() (*ContentSpec, bool, error) {
	p.pos++ // consume '('
	p.skipSpace()
	if strings.HasPrefix(p.s[p.pos:], "#PCDATA") {
		return p.parseMixed()
	}
	seqOrChoice, err := p.parseParticleList()
	if err != nil {
		return nil, false, err
	}
	p.skipSpace()
	if p.peek() != ')' {
		return nil, false, xmlerr.New(xmlerr.NotWellFormed, "expected ')' in content spec")
	}
	p.pos++
	return seqOrChoice, false, nil
}

// parseMixed parses (#PCDATA), (#PCDATA|a|b)*.
func (p *specParser) parseMixed() (*ContentSpec, bool, error) {
	p.pos += len("#PCDATA")
	choice := &ContentSpec{Kind: SpecChoice, Mixed: true}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			break
		}
		if p.peek() != '|' {
			return nil, false, xmlerr.New(xmlerr.NotWellFormed, "expected '|' in mixed content spec")
		}
		p.pos++
		p.skipSpace()
		name, err := p.parseName()
		if err != nil {
			return nil, false, err
		}
		choice.Children = append(choice.Children, &ContentSpec{Kind: SpecElement, Name: name})
	}
	p.skipSpace()
	if p.peek() == '*' {
		p.pos++
	} else if len(choice.Children) > 0 {
		return nil, false, xmlerr.New(xmlerr.NotWellFormed, "mixed content with element names must end with '*'")
	}
	return choice, true, nil
}

// parseParticleList parses a comma- or bar-separated list of particles, producing a Seq or
// a Choice depending on the separator actually used (XML 1.0 forbids mixing them at one
// nesting level without parentheses).
func (p *specParser) parseParticleList() (*ContentSpec, error) {
	first, err := p.parseParticle()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ',' && p.peek() != '|' {
		// Singleton group, e.g. (bar) or (bar?)
		wrap := &ContentSpec{Kind: SpecSeq, Children: []*ContentSpec{first}}
		return wrap, nil
	}
	sep := p.peek()
	kind := SpecSeq
	if sep == '|' {
		kind = SpecChoice
	}
	children := []*ContentSpec{first}
	for {
		p.skipSpace()
		if p.peek() != sep {
			break
		}
		p.pos++
		p.skipSpace()
		next, err := p.parseParticle()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
		p.skipSpace()
	}
	return &ContentSpec{Kind: kind, Children: children}, nil
}

// parseParticle parses one element name or nested group, followed by an optional
// occurrence modifier.
func (p *specParser) parseParticle() (*ContentSpec, error) {
	p.skipSpace()
	var base *ContentSpec
	if p.peek() == '(' {
		inner, _, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		base = inner
	} else {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		base = &ContentSpec{Kind: SpecElement, Name: name}
	}
	return p.maybeRepeat(base)
}

func (p *specParser) maybeRepeat(base *ContentSpec) (*ContentSpec, error) {
	switch p.peek() {
	case '?':
		p.pos++
		return &ContentSpec{Kind: SpecRepeated, Inner: base, Op: RepeatOptional}, nil
	case '*':
		p.pos++
		return &ContentSpec{Kind: SpecRepeated, Inner: base, Op: RepeatStar}, nil
	case '+':
		p.pos++
		return &ContentSpec{Kind: SpecRepeated, Inner: base, Op: RepeatPlus}, nil
	default:
		return base, nil
	}
}

func (p *specParser) parseName() (string, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ')' || c == '(' || c == ',' || c == '|' || c == '?' || c == '*' || c == '+' ||
			c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", xmlerr.New(xmlerr.NotWellFormed, "expected element name in content spec at offset %d", start)
	}
	return p.s[start:p.pos], nil
}

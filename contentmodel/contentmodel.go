// Package contentmodel compiles a dtd.ContentSpec into a validator that tracks, one child at
// a time, whether an element's actual content conforms to its declared content model. The
// compiled form is a small tree of states mirroring the content-spec algebra (Empty, Any,
// Element, Seq, Choice, Repeated) rather than a minimized DFA: DTD content models are small
// enough that the extra complexity of determinization buys nothing.
package contentmodel

import (
	"fmt"

	"github.com/r2/xmlcore/dtd"
	"github.com/r2/xmlcore/internal/xmlerr"
)

// Validator walks a sequence of child element names (and character data) against a compiled
// content model, one Allow/AllowCharData call per child, in document order.
type Validator struct {
	root  matcher
	state any
}

// Compile builds a Validator from a content spec. Mixed-content models (#PCDATA) and ANY
// accept character data anywhere (a mixed model still rejects child names it does not list);
// element-only and empty models reject character data between elements.
func Compile(spec *dtd.ContentSpec) *Validator {
	m := build(spec)
	v := &Validator{root: m}
	v.Reset()
	return v
}

// Reset returns the validator to its initial state, as if no children had been seen yet.
func (v *Validator) Reset() {
	v.state = v.root.start()
}

// Allow reports whether child name is acceptable as the next child, given everything matched
// so far, and advances the internal state if so.
func (v *Validator) Allow(name string) bool {
	next, ok := v.root.advance(v.state, name)
	if !ok {
		return false
	}
	v.state = next
	return true
}

// AllowCharData reports whether character data is permitted at the current position.
func (v *Validator) AllowCharData() bool {
	return v.root.allowCharData(v.state)
}

// AllowEmpty reports whether the sequence of children seen so far is a complete, valid
// instance of the content model (i.e. the element may legally close here).
func (v *Validator) AllowEmpty() bool {
	return v.root.acceptsEmpty(v.state)
}

// ValidateChildren is a convenience entry point that replays a full list of child element
// names against a fresh validator and returns a descriptive error on the first mismatch.
func ValidateChildren(spec *dtd.ContentSpec, elementName string, children []string, hasCharData bool) error {
	v := Compile(spec)
	if hasCharData && !v.AllowCharData() {
		return xmlerr.New(xmlerr.InvalidContent, "element %q does not permit character data in its content model", elementName)
	}
	for _, c := range children {
		if !v.Allow(c) {
			return xmlerr.New(xmlerr.InvalidContent, "element %q: child %q not permitted here by content model", elementName, c)
		}
	}
	if !v.AllowEmpty() {
		return xmlerr.New(xmlerr.InvalidContent, "element %q: content model not satisfied (missing required children)", elementName)
	}
	return nil
}

// matcher is the compiled counterpart of one dtd.ContentSpec node. Each matcher owns its own
// state representation, opaque to everyone but itself and its parent.
type matcher interface {
	start() any
	advance(state any, name string) (any, bool)
	allowCharData(state any) bool
	acceptsEmpty(state any) bool
}

func build(spec *dtd.ContentSpec) matcher {
	switch spec.Kind {
	case dtd.SpecEmpty:
		return emptyMatcher{}
	case dtd.SpecAny:
		return anyMatcher{}
	case dtd.SpecElement:
		return &elementMatcher{name: spec.Name}
	case dtd.SpecChoice:
		if spec.Mixed {
			names := make(map[string]bool, len(spec.Children))
			for _, c := range spec.Children {
				names[c.Name] = true
			}
			return mixedMatcher{names: names}
		}
		children := make([]matcher, len(spec.Children))
		for i, c := range spec.Children {
			children[i] = build(c)
		}
		return choiceMatcher{children: children}
	case dtd.SpecSeq:
		children := make([]matcher, len(spec.Children))
		for i, c := range spec.Children {
			children[i] = build(c)
		}
		return seqMatcher{children: children}
	case dtd.SpecRepeated:
		return repeatMatcher{inner: build(spec.Inner), op: spec.Op}
	default:
		panic(fmt.Sprintf("contentmodel: unknown spec kind %v", spec.Kind))
	}
}

// emptyMatcher: EMPTY content, no children and no character data permitted.
type emptyMatcher struct{}

func (emptyMatcher) start() any                                { return struct{}{} }
func (emptyMatcher) advance(any, string) (any, bool)            { return nil, false }
func (emptyMatcher) allowCharData(any) bool                     { return false }
func (emptyMatcher) acceptsEmpty(any) bool                      { return true }

// anyMatcher: ANY content, every child and character data always permitted.
type anyMatcher struct{}

func (anyMatcher) start() any                       { return struct{}{} }
func (anyMatcher) advance(any, string) (any, bool)  { return struct{}{}, true }
func (anyMatcher) allowCharData(any) bool           { return true }
func (anyMatcher) acceptsEmpty(any) bool            { return true }

// mixedMatcher: (#PCDATA|a|b|...)* content. Any of the named elements or char data may occur
// any number of times in any order; an empty (#PCDATA) model with no names permits only text.
type mixedMatcher struct {
	names map[string]bool
}

func (mixedMatcher) start() any { return struct{}{} }
func (m mixedMatcher) advance(_ any, name string) (any, bool) {
	if m.names[name] {
		return struct{}{}, true
	}
	return nil, false
}
func (mixedMatcher) allowCharData(any) bool { return true }
func (mixedMatcher) acceptsEmpty(any) bool  { return true }

// elementMatcher: a single required child named `name`.
type elementMatcher struct {
	name string
}

// elementState tracks whether the single expected child has been consumed yet.
type elementState int

const (
	elementPending elementState = iota
	elementDone
)

func (*elementMatcher) start() any { return elementPending }
func (m *elementMatcher) advance(state any, name string) (any, bool) {
	if state.(elementState) != elementPending || name != m.name {
		return nil, false
	}
	return elementDone, true
}
func (*elementMatcher) allowCharData(any) bool { return false }
func (*elementMatcher) acceptsEmpty(state any) bool {
	return state.(elementState) == elementDone
}

// seqMatcher: children must each be satisfied in order, one after another.
type seqMatcher struct {
	children []matcher
}

// seqState is the index of the child currently being matched, plus its own state.
type seqState struct {
	idx   int
	inner any
}

func (s seqMatcher) start() any {
	if len(s.children) == 0 {
		return seqState{idx: 0}
	}
	return seqState{idx: 0, inner: s.children[0].start()}
}

func (s seqMatcher) advance(state any, name string) (any, bool) {
	st := state.(seqState)
	for st.idx < len(s.children) {
		child := s.children[st.idx]
		if next, ok := child.advance(st.inner, name); ok {
			return seqState{idx: st.idx, inner: next}, true
		}
		if !child.acceptsEmpty(st.inner) {
			return nil, false
		}
		st.idx++
		if st.idx < len(s.children) {
			st.inner = s.children[st.idx].start()
		}
	}
	return nil, false
}

func (s seqMatcher) allowCharData(state any) bool {
	st := state.(seqState)
	if st.idx >= len(s.children) {
		return false
	}
	return s.children[st.idx].allowCharData(st.inner)
}

func (s seqMatcher) acceptsEmpty(state any) bool {
	st := state.(seqState)
	for i := st.idx; i < len(s.children); i++ {
		inner := st.inner
		if i != st.idx {
			inner = s.children[i].start()
		}
		if !s.children[i].acceptsEmpty(inner) {
			return false
		}
	}
	return true
}

// choiceMatcher: exactly one of the children's alternatives, picked on the first matching
// child at the time of the first Allow call and then committed to for the remainder.
type choiceMatcher struct {
	children []matcher
}

// choiceState has picked=false before any alternative has been picked, and carries the
// picked alternative's index and inner state afterward.
type choiceState struct {
	picked bool
	idx    int
	inner  any
}

func (c choiceMatcher) start() any { return choiceState{} }

func (c choiceMatcher) advance(state any, name string) (any, bool) {
	st := state.(choiceState)
	if st.picked {
		next, ok := c.children[st.idx].advance(st.inner, name)
		if !ok {
			return nil, false
		}
		return choiceState{picked: true, idx: st.idx, inner: next}, true
	}
	for i, child := range c.children {
		if next, ok := child.advance(child.start(), name); ok {
			return choiceState{picked: true, idx: i, inner: next}, true
		}
	}
	return nil, false
}

func (c choiceMatcher) allowCharData(state any) bool {
	st := state.(choiceState)
	if st.picked {
		return c.children[st.idx].allowCharData(st.inner)
	}
	for _, child := range c.children {
		if child.allowCharData(child.start()) {
			return true
		}
	}
	return false
}

func (c choiceMatcher) acceptsEmpty(state any) bool {
	st := state.(choiceState)
	if st.picked {
		return c.children[st.idx].acceptsEmpty(st.inner)
	}
	for _, child := range c.children {
		if child.acceptsEmpty(child.start()) {
			return true
		}
	}
	return false
}

// repeatMatcher: inner repeated per op (?, *, +).
type repeatMatcher struct {
	inner matcher
	op    dtd.Repeat
}

// repeatState tracks how many repetitions have fully completed and whether the current
// repetition has consumed at least one child yet (started=false means we're sitting at a
// boundary between repetitions, where stopping or starting a new one are both live options).
type repeatState struct {
	count   int
	started bool
	cur     any
}

func (r repeatMatcher) start() any {
	return repeatState{count: 0, started: false, cur: r.inner.start()}
}

func (r repeatMatcher) advance(state any, name string) (any, bool) {
	st := state.(repeatState)
	if next, ok := r.inner.advance(st.cur, name); ok {
		return repeatState{count: st.count, started: true, cur: next}, true
	}
	if st.started && r.inner.acceptsEmpty(st.cur) && r.allowsAnotherAfter(st.count+1) {
		fresh := r.inner.start()
		if next, ok := r.inner.advance(fresh, name); ok {
			return repeatState{count: st.count + 1, started: true, cur: next}, true
		}
	}
	return nil, false
}

// allowsAnotherAfter reports whether a new repetition may be started once completedSoFar
// repetitions have already finished.
func (r repeatMatcher) allowsAnotherAfter(completedSoFar int) bool {
	if r.op == dtd.RepeatOptional {
		return completedSoFar < 1
	}
	return true // Star and Plus both permit unbounded repetitions
}

// boundaryOK reports whether it is legal to stop repeating once completed repetitions have
// finished and no repetition is currently in progress.
func (r repeatMatcher) boundaryOK(completed int) bool {
	switch r.op {
	case dtd.RepeatOptional:
		return completed <= 1
	case dtd.RepeatStar:
		return true
	case dtd.RepeatPlus:
		return completed >= 1
	default:
		return completed == 0
	}
}

func (r repeatMatcher) allowCharData(state any) bool {
	st := state.(repeatState)
	return r.inner.allowCharData(st.cur)
}

func (r repeatMatcher) acceptsEmpty(state any) bool {
	st := state.(repeatState)
	if !st.started {
		return r.boundaryOK(st.count)
	}
	if r.inner.acceptsEmpty(st.cur) {
		return r.boundaryOK(st.count + 1)
	}
	return false
}

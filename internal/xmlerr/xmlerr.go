// Package xmlerr defines the single error type shared by every xmlcore component.
package xmlerr

import "fmt"

// Kind identifies the category of failure, per the error handling design.
type Kind int

const (
	// NotWellFormed means the input violates XML 1.0 syntax or namespace well-formedness.
	NotWellFormed Kind = iota
	// Invalid means the input is well-formed but violates the DTD.
	Invalid
	// InvalidEncoding means a byte sequence did not decode under the selected encoding.
	InvalidEncoding
	// InvalidCharacter means a code point is not permitted by XML 1.0.
	InvalidCharacter
	// UndefinedEntity means a general or parameter entity reference has no declaration.
	UndefinedEntity
	// RecursiveEntity means an entity expansion cycles back on itself.
	RecursiveEntity
	// DuplicateId means two attributes of type ID share the same value in one document.
	DuplicateId
	// InvalidContent means a content-model validator rejected a child or character data.
	InvalidContent
	// OwnershipViolation means a DOM API call tried to reparent or erase a foreign node.
	OwnershipViolation
	// InvalidXPath means an XPath expression failed to compile.
	InvalidXPath
	// XPathEvaluation means an XPath expression failed during evaluation.
	XPathEvaluation
	// IoError wraps an underlying stream failure.
	IoError
)

func (k Kind) String() string {
	switch k {
	case NotWellFormed:
		return "NotWellFormed"
	case Invalid:
		return "Invalid"
	case InvalidEncoding:
		return "InvalidEncoding"
	case InvalidCharacter:
		return "InvalidCharacter"
	case UndefinedEntity:
		return "UndefinedEntity"
	case RecursiveEntity:
		return "RecursiveEntity"
	case DuplicateId:
		return "DuplicateId"
	case InvalidContent:
		return "InvalidContent"
	case OwnershipViolation:
		return "OwnershipViolation"
	case InvalidXPath:
		return "InvalidXPath"
	case XPathEvaluation:
		return "XPathEvaluation"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the one error type raised by every xmlcore package. It carries a Kind,
// location information when known, and wraps an underlying cause if any.
type Error struct {
	Kind    Kind
	Message string
	Line    int
	Column  int
	Token   string
	Err     error
}

func (e *Error) Error() string {
	loc := ""
	if e.Line > 0 {
		if e.Column > 0 {
			loc = fmt.Sprintf(" at line %d, column %d", e.Line, e.Column)
		} else {
			loc = fmt.Sprintf(" at line %d", e.Line)
		}
	}
	tok := ""
	if e.Token != "" {
		tok = fmt.Sprintf(" (near %q)", e.Token)
	}
	return fmt.Sprintf("xmlcore: %s%s: %s%s", e.Kind, loc, e.Message, tok)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind with no location information.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At creates an Error of the given kind at a specific line/column.
func At(kind Kind, line, col int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is an *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

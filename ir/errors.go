package ir

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes compiler errors.
type ErrorKind uint8

const (
	// ErrLex is raised by the lexer: unterminated comment, bad character,
	// malformed numeric literal.
	ErrLex ErrorKind = iota

	// ErrParse is raised by the parser: unexpected token, bad type, bad array size.
	ErrParse

	// ErrType is raised by the checker.
	ErrType

	// ErrInternal signals a compiler bug rather than a shader error.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrLex:
		return "LexError"
	case ErrParse:
		return "ParseError"
	case ErrType:
		return "TypeError"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error is a compiler error with an optional source location.
type Error struct {
	Kind    ErrorKind
	Message string
	Loc     Location

	// Source is the stage text the location refers to, kept for FormatWithContext.
	Source string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Loc.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Loc.Line, e.Loc.Column, e.Kind, e.Message)
}

// FormatWithContext returns the error message with the offending source line
// and a caret under the error column.
func (e *Error) FormatWithContext() string {
	if e.Source == "" || e.Loc.Line == 0 {
		return e.Error()
	}

	lines := strings.Split(e.Source, "\n")
	lineNum := e.Loc.Line
	if lineNum < 1 || lineNum > len(lines) {
		return e.Error()
	}

	line := lines[lineNum-1]
	col := e.Loc.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// Errorf creates an error of the given kind at loc.
func Errorf(kind ErrorKind, loc Location, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	}
}

// WithSource attaches the stage text to the error and returns it.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// IsInternal reports whether the error signals a compiler bug.
func (e *Error) IsInternal() bool {
	return e.Kind == ErrInternal
}

// Unreachable panics with an internal error. It is called on variant cases a
// consumer does not recognize and is never recovered by the compiler.
func Unreachable(format string, args ...interface{}) {
	panic(&Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)})
}

package backend

import (
	"fmt"
	"strings"
)

// Writer accumulates one program's source text.
type Writer struct {
	out    strings.Builder
	indent int
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.out.String()
}

// Line writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) Line(format string, args ...any) {
	if format == "" && len(args) == 0 {
		w.out.WriteByte('\n')
		return
	}
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// Raw writes text verbatim.
func (w *Writer) Raw(text string) {
	w.out.WriteString(text)
}

// Push increases indentation.
func (w *Writer) Push() {
	w.indent++
}

// Pop decreases indentation.
func (w *Writer) Pop() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// Open writes a header line followed by "{" and indents.
func (w *Writer) Open(format string, args ...any) {
	w.Line(format, args...)
	w.Line("{")
	w.Push()
}

// Close dedents and writes "}".
func (w *Writer) Close() {
	w.Pop()
	w.Line("}")
}

// FormatFloat formats a float32 so that it always reads as a float literal.
func FormatFloat(f float32) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/gogpu/gasoline/ir"
)

var errNoCommand = errors.New("expected a subcommand: compile or check")

// usageError marks a command line mistake.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// setupColour turns colour off when diagnostics go to a pipe and when
// NO_COLOR is set.
func setupColour() {
	if !colourEnabled(os.Stderr) {
		pterm.DisableColor()
	}
}

func colourEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// reportError writes err to w, followed by the offending source line when
// err carries one.
func reportError(w io.Writer, err error) {
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprint(w, pterm.Error.Sprintln("usage: "+err.Error()))
		return
	}
	fmt.Fprint(w, pterm.Error.Sprintln(err.Error()))

	var ce *ir.Error
	if errors.As(err, &ce) && ce.Source != "" {
		fmt.Fprintln(w, indent(ce.FormatWithContext()))
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

// writeProgram writes a program to path, or to stdout when path is empty.
func writeProgram(path, kind, text string) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s program: %w", kind, err)
	}
	pterm.Success.Printfln("wrote %s program to %s (%s)", kind, path, humanize.Bytes(uint64(len(text))))
	return nil
}

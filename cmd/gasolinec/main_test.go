package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gasoline/ir"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOptionsMetadata(t *testing.T) {
	dir := t.TempDir()
	opts := &options{
		metadataPath: writeFile(t, dir, "material.yaml", "params:\n  tint:\n    type: Float3\nenv:\n  bones: 1\n"),
		params:       "diffuseMap:FloatTexture2",
		unbind:       "diffuseMap:1;1;1;1",
		bones:        "3",
		envBoxes:     "2",
		alphaDither:  true,
	}
	md, err := opts.metadata()
	if err != nil {
		t.Fatalf("metadata failed: %v", err)
	}
	if len(md.MaterialParams) != 2 {
		t.Errorf("Expected 2 parameters, got %d", len(md.MaterialParams))
	}
	if md.UnboundTextures["diffuseMap"] != [4]float32{1, 1, 1, 1} {
		t.Errorf("Expected white unbound texture, got %v", md.UnboundTextures["diffuseMap"])
	}
	if md.Env.BoneWeights != 3 || md.Env.EnvBoxes != 2 {
		t.Errorf("Expected command line overrides, got %d bones and %d boxes", md.Env.BoneWeights, md.Env.EnvBoxes)
	}
	if !md.Env.FadeDither || md.Internal {
		t.Error("Expected only alpha dither to be switched on")
	}
}

func TestOptionsMetadataErrors(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want string
	}{
		{"bones", options{bones: "many"}, "bones"},
		{"bones range", options{bones: "5"}, "bone weights"},
		{"env boxes", options{envBoxes: "x"}, "env-boxes"},
		{"params", options{params: "tint"}, "name:Type"},
		{"unbind", options{unbind: "t:1;1;1;1"}, "not a declared material parameter"},
		{"missing file", options{metadataPath: "does-not-exist.toml"}, "reading metadata"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.metadata()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOptionsSource(t *testing.T) {
	dir := t.TempDir()
	opts := &options{
		dangs: writeFile(t, dir, "d.gsl", "out.gloss = 1.0;"),
	}
	src, err := opts.source()
	if err != nil {
		t.Fatalf("source failed: %v", err)
	}
	if src.Vertex != "" || src.Dangs != "out.gloss = 1.0;" || src.Additional != "" {
		t.Errorf("Expected only the DANGS stage, got %+v", src)
	}

	opts.add = filepath.Join(dir, "missing.gsl")
	if _, err := opts.source(); err == nil {
		t.Error("Expected an error for a missing stage file")
	}
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	opts := &options{
		dangs:   writeFile(t, dir, "d.gsl", "out.diffuse = mat.tint;"),
		params:  "tint:Float3",
		lang:    "cg",
		purpose: "alpha",
		outVert: filepath.Join(dir, "out.vp"),
		outFrag: filepath.Join(dir, "out.fp"),
	}
	if err := compileCommand(opts); err != nil {
		t.Fatalf("compileCommand failed: %v", err)
	}
	frag, err := os.ReadFile(opts.outFrag)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(frag), "out_diffuse = mat_tint;") {
		t.Errorf("Expected the DANGS body in:\n%s", frag)
	}
	if _, err := os.Stat(opts.outVert); err != nil {
		t.Errorf("Expected the vertex program to be written: %v", err)
	}

	opts.purpose = "shadow"
	if err := compileCommand(opts); err == nil {
		t.Error("Expected an error for an unknown purpose")
	}
}

func TestCheckCommandError(t *testing.T) {
	dir := t.TempDir()
	opts := &options{
		dangs: writeFile(t, dir, "d.gsl", "out.diffuse = mat.nonexistentField;"),
	}
	err := checkCommand(opts)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !strings.Contains(err.Error(), "nonexistentField") {
		t.Errorf("Expected the field name in %v", err)
	}
}

func TestIndent(t *testing.T) {
	e := &ir.Error{Kind: ir.ErrType, Message: "bad", Loc: ir.Location{Line: 1, Column: 3}, Source: "a = b;"}
	got := indent(e.FormatWithContext())
	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "    ") {
			t.Errorf("Expected every line indented, got %q", line)
		}
	}
}

func TestColourEnabled(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if colourEnabled(f) {
		t.Error("Expected no colour for a regular file")
	}

	t.Setenv("NO_COLOR", "")
	if colourEnabled(os.Stderr) {
		t.Error("Expected NO_COLOR to disable colour")
	}
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	e := &ir.Error{Kind: ir.ErrType, Message: "unknown variable b", Loc: ir.Location{Line: 1, Column: 5}, Source: "a = b;"}
	reportError(&buf, e)
	out := buf.String()
	if !strings.Contains(out, "unknown variable b") {
		t.Errorf("Expected the message in %q", out)
	}
	if !strings.Contains(out, "    error: unknown variable b") || !strings.Contains(out, "1| a = b;") {
		t.Errorf("Expected the indented source context in %q", out)
	}

	buf.Reset()
	reportError(&buf, usageError{err: errors.New("missing --backend")})
	if !strings.Contains(buf.String(), "usage: missing --backend") {
		t.Errorf("Expected a usage message, got %q", buf.String())
	}
}

// Package snapshot_test provides golden snapshot tests for every backend and
// purpose.
//
// Each directory under testdata/in/ is one material: vertex.gsl, dangs.gsl and
// additional.gsl (each optional) plus an optional metadata.yaml or
// metadata.toml. Every material is compiled for every backend and purpose and
// compared to golden files in testdata/golden/<backend>/<material>/.
//
// Without golden files each output is still checked for determinism and
// against CompilePurposes. To create or regenerate golden files after
// intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gogpu/gasoline"
	"github.com/gogpu/gasoline/config"
	"github.com/gogpu/gasoline/ir"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// material is one input material loaded from disk.
type material struct {
	name string
	src  gasoline.Source
	md   *ir.Metadata
}

var backends = []gasoline.Backend{gasoline.BackendGLSL, gasoline.BackendGLSLES, gasoline.BackendCg}

// TestSnapshots is the main golden snapshot test.
func TestSnapshots(t *testing.T) {
	materials := loadMaterials(t, filepath.Join("testdata", "in"))
	if len(materials) == 0 {
		t.Fatal("no input materials found in testdata/in/")
	}

	for i := range materials {
		m := &materials[i]
		t.Run(m.name, func(t *testing.T) {
			if err := gasoline.Check(m.src, m.md); err != nil {
				t.Fatalf("check failed: %v", err)
			}
			for _, b := range backends {
				all, err := gasoline.CompilePurposes(context.Background(), b, gasoline.Purposes(), m.src, m.md)
				if err != nil {
					t.Fatalf("%s: compile purposes failed: %v", b, err)
				}
				for _, p := range gasoline.Purposes() {
					t.Run(b.String()+"/"+p.String(), func(t *testing.T) {
						out, err := gasoline.Compile(b, p, m.src, m.md)
						if err != nil {
							t.Fatalf("compile failed: %v", err)
						}
						if out.Vertex == "" || out.Fragment == "" {
							t.Fatal("empty program")
						}
						again, err := gasoline.Compile(b, p, m.src, m.md)
						if err != nil {
							t.Fatalf("second compile failed: %v", err)
						}
						if again.Vertex != out.Vertex || again.Fragment != out.Fragment {
							t.Error("output is not deterministic")
						}
						if all[p] == nil || all[p].Vertex != out.Vertex || all[p].Fragment != out.Fragment {
							t.Error("CompilePurposes output differs from Compile")
						}
						dir := filepath.Join("testdata", "golden", b.String(), m.name)
						compareGolden(t, filepath.Join(dir, p.String()+".vert"), out.Vertex)
						compareGolden(t, filepath.Join(dir, p.String()+".frag"), out.Fragment)
					})
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Material Loading
// ---------------------------------------------------------------------------

// loadMaterials reads every material directory under dir.
func loadMaterials(t *testing.T, dir string) []material {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var materials []material
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		materials = append(materials, loadMaterial(t, filepath.Join(dir, entry.Name())))
	}

	// Sort for deterministic test order
	sort.Slice(materials, func(i, j int) bool {
		return materials[i].name < materials[j].name
	})

	return materials
}

func loadMaterial(t *testing.T, dir string) material {
	t.Helper()

	m := material{name: filepath.Base(dir), md: ir.DefaultMetadata()}
	for _, stage := range []struct {
		file string
		dst  *string
	}{
		{"vertex.gsl", &m.src.Vertex},
		{"dangs.gsl", &m.src.Dangs},
		{"additional.gsl", &m.src.Additional},
	} {
		data, err := os.ReadFile(filepath.Join(dir, stage.file))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			t.Fatalf("read %s: %v", stage.file, err)
		}
		*stage.dst = string(data)
	}

	for _, name := range []string{"metadata.yaml", "metadata.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		md, err := config.Load(path)
		if err != nil {
			t.Fatalf("load metadata: %v", err)
		}
		m.md = md
	}
	return m
}

// ---------------------------------------------------------------------------
// Golden File Comparison
// ---------------------------------------------------------------------------

// compareGolden compares actual output with the golden file at path. A
// missing golden file is logged; the caller has already checked the output
// for determinism.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("golden file missing: %s (run with UPDATE_GOLDEN=1 to create)", path)
		return
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings shows the first differing line with surrounding context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")
	maxLines := max(len(expectedLines), len(actualLines))

	line := func(lines []string, i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	firstDiff := -1
	for i := 0; i < maxLines; i++ {
		if line(expectedLines, i) != line(actualLines, i) {
			firstDiff = i
			break
		}
	}
	if firstDiff < 0 {
		return "(no difference found)"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "first difference at line %d:\n", firstDiff+1)
	fmt.Fprintf(&sb, "  expected lines: %d\n", len(expectedLines))
	fmt.Fprintf(&sb, "  actual lines:   %d\n\n", len(actualLines))

	const contextLines = 3
	start := max(firstDiff-contextLines, 0)
	end := min(firstDiff+contextLines+1, maxLines)
	for i := start; i < end; i++ {
		e, a := line(expectedLines, i), line(actualLines, i)
		prefix := " "
		if e != a {
			prefix = "!"
		}
		fmt.Fprintf(&sb, "%s %4d expected: %s\n", prefix, i+1, truncate(e, 120))
		if e != a {
			fmt.Fprintf(&sb, "%s %4d actual:   %s\n", prefix, i+1, truncate(a, 120))
		}
	}
	return sb.String()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

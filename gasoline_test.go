package gasoline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gasoline/ir"
)

var testMaterial = Source{
	Vertex: `
var uv = vert.coord0.xy;
var height = vert.position.y;
out.position = transform_to_world(vert.position.xyz);
`,
	Dangs: `
var tex = sample(mat.diffuseMap, uv);
out.diffuse = tex.rgb * mat.tint;
out.alpha = tex.a;
if (height < 0.0) {
    out.gloss = 0.5;
}
`,
	Additional: `
out.colour = mat.tint * 0.1;
`,
}

func testMetadata() *ir.Metadata {
	md := ir.DefaultMetadata()
	md.MaterialParams["diffuseMap"] = ir.MaterialParam{Type: ir.Texture{Dim: ir.Tex2D}}
	md.MaterialParams["tint"] = ir.MaterialParam{Type: ir.Float3}
	return md
}

func TestCompileAllPurposes(t *testing.T) {
	for _, b := range []Backend{BackendGLSL, BackendGLSLES, BackendCg} {
		for _, p := range Purposes() {
			t.Run(b.String()+"/"+p.String(), func(t *testing.T) {
				out, err := Compile(b, p, testMaterial, testMetadata())
				if err != nil {
					t.Fatalf("Compile failed: %v", err)
				}
				if out.Vertex == "" || out.Fragment == "" {
					t.Fatal("Expected both programs")
				}
			})
		}
	}
}

func TestCompileWireframe(t *testing.T) {
	out, err := Compile(BackendGLSL, PurposeWireframe, Source{}, nil)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.Contains(out.Vertex, "out_position = transform_to_world(vert_position.xyz);") {
		t.Errorf("Expected the default position, got:\n%s", out.Vertex)
	}
	if !strings.Contains(out.Fragment, "out_colour_alpha = Float4(1.0, 1.0, 1.0, 1.0);") {
		t.Errorf("Expected white output, got:\n%s", out.Fragment)
	}
}

func TestCompileForwardSkipsAdditional(t *testing.T) {
	out, err := Compile(BackendGLSL, PurposeForward, testMaterial, testMetadata())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if strings.Contains(out.Fragment, "func_user_colour") {
		t.Error("Expected forward programs to leave out the additional stage")
	}
	if !strings.Contains(out.Fragment, "func_user_dangs();") {
		t.Error("Expected forward programs to run the DANGS stage")
	}
}

func TestCompileDecal(t *testing.T) {
	out, err := Compile(BackendCg, PurposeDecal, testMaterial, testMetadata())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if strings.Contains(out.Vertex, "func_user_vertex") {
		t.Error("Expected decals not to run the vertex stage")
	}
	for _, want := range []string{
		"static Float2 user_uv;",
		"user_uv.y = 0.0;",
		"user_height = 0.0;",
		"internal_read_gbuffer(gbuffer0, gbuffer1, gbuffer2);",
	} {
		if !strings.Contains(out.Fragment, want) {
			t.Errorf("Expected %q in:\n%s", want, out.Fragment)
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	first, err := Compile(BackendCg, PurposeAlpha, testMaterial, testMetadata())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := Compile(BackendCg, PurposeAlpha, testMaterial, testMetadata())
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if next.Vertex != first.Vertex || next.Fragment != first.Fragment {
			t.Fatal("Expected identical output across runs")
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check(testMaterial, testMetadata()); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{
			name: "unknown material field",
			src:  Source{Dangs: "out.diffuse = mat.nonexistentField;"},
			want: "mat.nonexistentField",
		},
		{
			name: "parse error",
			src:  Source{Vertex: "var = 1;"},
			want: "vertex",
		},
		{
			name: "vertex texture",
			src:  Source{Vertex: "var t = sample(mat.diffuseMap, Float2(0.0, 0.0));"},
			want: "vertex",
		},
		{
			name: "write captured",
			src:  Source{Vertex: "var v = 1.0;", Additional: "v = 2.0;"},
			want: "computed by the vertex stage",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.src, testMetadata())
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
			var e *ir.Error
			if !errors.As(err, &e) {
				t.Errorf("Expected an *ir.Error in the chain, got %T", err)
			}
		})
	}
}

func TestCheckImpliesCompile(t *testing.T) {
	sources := []Source{
		{},
		{Dangs: "out.normal = Float3(0.0, 1.0, 0.0);"},
		{Vertex: "var k: [3]Float;\nk[1] = 2.0;", Dangs: "out.gloss = k[1];"},
		{Vertex: "var b = vert.normal.x > 0.0;", Additional: "if (b) { out.alpha = 0.0; }"},
	}
	for i, src := range sources {
		if err := Check(src, testMetadata()); err != nil {
			t.Fatalf("Source %d: Check failed: %v", i, err)
		}
		for _, p := range Purposes() {
			if _, err := Compile(BackendGLSL, p, src, testMetadata()); err != nil {
				t.Errorf("Source %d, %s: Compile failed: %v", i, p, err)
			}
		}
	}
}

func TestCheckRejectsNamespaceAssignment(t *testing.T) {
	src := Source{
		Vertex: "out.position = vert.position.xyz;\n",
		Dangs:  "out = out;\n",
	}
	err := Check(src, testMetadata())
	var ce *ir.Error
	if !errors.As(err, &ce) || ce.Kind != ir.ErrType {
		t.Fatalf("Expected a type error, got %v", err)
	}
	if ce.Loc.Line != 1 || ce.Loc.Column != 1 {
		t.Errorf("Expected error at 1:1, got %d:%d", ce.Loc.Line, ce.Loc.Column)
	}

	_, err = Compile(BackendGLSL, PurposeForward, src, testMetadata())
	if !errors.As(err, &ce) || ce.Kind != ir.ErrType {
		t.Errorf("Expected Compile to report the type error, got %v", err)
	}
}

func TestFloatModuloFloorsOnEveryBackend(t *testing.T) {
	src := Source{Dangs: "out.gloss = mat.tint.x % 2.0;\nout.diffuse = mod(mat.tint, Float3(2.0, 2.0, 2.0));"}
	helper := func(text string) string {
		start := strings.Index(text, "Float floor_mod(Float x, Float y)")
		end := strings.Index(text, "Float4 floor_mod(Float4 x, Float4 y)")
		if start < 0 || end < start {
			t.Fatalf("Expected floor_mod overloads in:\n%s", text)
		}
		return text[start : end+len("Float4 floor_mod(Float4 x, Float4 y)\n{\n    return x - y * floor(x / y);\n}")]
	}

	var want string
	for _, b := range []Backend{BackendGLSL, BackendGLSLES, BackendCg} {
		out, err := Compile(b, PurposeForward, src, testMetadata())
		if err != nil {
			t.Fatalf("%s: Compile failed: %v", b, err)
		}
		if strings.Contains(out.Fragment, "fmod") {
			t.Errorf("%s: Expected no truncating fmod", b)
		}
		if !strings.Contains(out.Fragment, "out_gloss = floor_mod(") || !strings.Contains(out.Fragment, "out_diffuse = floor_mod(") {
			t.Errorf("%s: Expected both modulo forms to call floor_mod", b)
		}
		got := helper(out.Fragment)
		if want == "" {
			want = got
		} else if got != want {
			t.Errorf("%s: floor_mod differs:\n%s\nwant:\n%s", b, got, want)
		}
	}
}

func TestCompileBadMetadata(t *testing.T) {
	md := testMetadata()
	md.UnboundTextures["missing"] = [4]float32{1, 1, 1, 1}
	_, err := Compile(BackendGLSL, PurposeAlpha, testMaterial, md)
	if err == nil || !strings.Contains(err.Error(), "metadata error") {
		t.Errorf("Expected a metadata error, got %v", err)
	}

	md = testMetadata()
	md.Env.ShadowFilterTaps = 3
	_, err = Compile(BackendGLSL, PurposeAlpha, testMaterial, md)
	if err == nil || !strings.Contains(err.Error(), "code generation error") {
		t.Errorf("Expected a code generation error, got %v", err)
	}
}

func TestCompileInternalPurpose(t *testing.T) {
	md := testMetadata()
	src := Source{Additional: "out.colour = global.rayTopLeft;"}
	if _, err := Compile(BackendGLSL, PurposeSky, src, md); err == nil {
		t.Error("Expected internal fields to be hidden from ordinary purposes")
	}
	if _, err := Compile(BackendGLSL, PurposeDeferredAmbientSun, src, md); err != nil {
		t.Errorf("Expected internal fields in the deferred pass, got %v", err)
	}
	if md.Internal {
		t.Error("Expected the caller's metadata to be left untouched")
	}
}

func TestCompilePurposes(t *testing.T) {
	outs, err := CompilePurposes(context.Background(), BackendGLSL, Purposes(), testMaterial, testMetadata())
	if err != nil {
		t.Fatalf("CompilePurposes failed: %v", err)
	}
	if len(outs) != len(Purposes()) {
		t.Fatalf("Expected %d outputs, got %d", len(Purposes()), len(outs))
	}
	for _, p := range Purposes() {
		want, err := Compile(BackendGLSL, p, testMaterial, testMetadata())
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if outs[p].Fragment != want.Fragment {
			t.Errorf("%s: Expected concurrent output to match sequential output", p)
		}
	}

	bad := testMaterial
	bad.Dangs = "out.diffuse = 1.0 +;"
	if _, err := CompilePurposes(context.Background(), BackendGLSL, Purposes(), bad, testMetadata()); err == nil {
		t.Error("Expected an error from a failing purpose")
	}
}

func TestParseNames(t *testing.T) {
	for _, p := range Purposes() {
		got, err := ParsePurpose(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePurpose(%q): Expected %v, got %v (%v)", p.String(), p, got, err)
		}
	}
	for _, b := range []Backend{BackendGLSL, BackendGLSLES, BackendCg} {
		got, err := ParseBackend(b.String())
		if err != nil || got != b {
			t.Errorf("ParseBackend(%q): Expected %v, got %v (%v)", b.String(), b, got, err)
		}
	}
	if _, err := ParsePurpose("bogus"); err == nil {
		t.Error("Expected an error for an unknown purpose")
	}
	if _, err := ParseBackend("hlsl"); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

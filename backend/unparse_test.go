package backend

import (
	"strings"
	"testing"
)

// dangsFunction generates a lit body and returns the text of func_user_dangs.
func dangsFunction(t *testing.T, src string) string {
	t.Helper()
	req := buildRequest(t, nil, stages{dangs: src}, ShapeBody, Flags{ForwardOnly: true})
	out := generate(t, req)
	start := strings.Index(out.Fragment, "void func_user_dangs()")
	if start < 0 {
		t.Fatalf("Expected func_user_dangs in:\n%s", out.Fragment)
	}
	end := strings.Index(out.Fragment[start:], "\n}\n")
	if end < 0 {
		t.Fatalf("Expected func_user_dangs to be closed")
	}
	return out.Fragment[start : start+end+3]
}

func TestUnparseStatements(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		wants []string
	}{
		{
			name: "zero init trailing first",
			src:  "var acc: Float3;\nout.diffuse = acc;",
			wants: []string{
				"Float3 user_acc;\n    user_acc.z = 0.0;\n    user_acc.y = 0.0;\n    user_acc.x = 0.0;",
				"out_diffuse = user_acc;",
			},
		},
		{
			name: "literal array",
			src:  "var ws = []Float{0.25, 0.75};\nout.gloss = ws[1];",
			wants: []string{
				"Float user_ws[2];",
				"user_ws[0] = 0.25;",
				"user_ws[1] = 0.75;",
				"out_gloss = user_ws[1];",
			},
		},
		{
			name: "zero array",
			src:  "var flags: [2]Bool;\nif (flags[0]) discard;",
			wants: []string{
				"Bool user_flags[2];",
				"user_flags[0] = false;",
				"user_flags[1] = false;",
				"if (user_flags[0]) {\n        discard;\n    }",
			},
		},
		{
			name: "simple for",
			src:  "var s = 0.0;\nfor (var i = 0; i < 4; i = i + 1) s = s + 0.25;\nout.gloss = s;",
			wants: []string{
				"Float user_s = 0.0;",
				"for (Int user_i = 0; (user_i < 4); user_i = (user_i + 1)) {",
				"        user_s = (user_s + 0.25);",
			},
		},
		{
			name: "while for",
			src:  "var s = 0.0;\nfor (var j: Int; j < 2; j = j + 1) { s = s + 1.0; }\nout.gloss = s;",
			wants: []string{
				"    {\n        Int user_j;\n        user_j = 0;\n        while ((user_j < 2)) {",
				"            user_s = (user_s + 1.0);\n            user_j = (user_j + 1);\n        }\n    }",
			},
		},
		{
			name: "if else",
			src:  "var a = 1.0;\nif (a > 0.5) { out.alpha = a; } else { return; }",
			wants: []string{
				"if ((user_a > 0.5)) {",
				"} else {\n        return;\n    }",
			},
		},
		{
			name: "float modulo",
			src:  "out.gloss = 5.0 % 2.0;",
			wants: []string{
				"out_gloss = floor_mod(5.0, 2.0);",
			},
		},
		{
			name: "mod builtin",
			src:  "out.diffuse = mod(Float3(1.0, 2.0, 3.0), Float3(2.0, 2.0, 2.0));",
			wants: []string{
				"out_diffuse = floor_mod(Float3(1.0, 2.0, 3.0), Float3(2.0, 2.0, 2.0));",
			},
		},
		{
			name: "vector equality",
			src:  "var v = Float2(1.0, 2.0);\nif (v != Float2(1.0, 2.0)) discard;",
			wants: []string{
				"if (vne(user_v, Float2(1.0, 2.0))) {",
			},
		},
		{
			name: "scalar swizzle",
			src:  "var s = 2.0;\nvar a = s.x;\nvar b = s.xx;\nout.gloss = a + b.y;",
			wants: []string{
				"Float user_a = user_s;",
				"Float2 user_b = conv_Float2(user_s);",
			},
		},
		{
			name: "splat constructor",
			src:  "out.diffuse = Float3(0.5);",
			wants: []string{
				"out_diffuse = conv_Float3(0.5);",
			},
		},
		{
			name: "matrix constructor",
			src:  "out.diffuse = Float3(mul(Float2x2(Float2(1.0, 0.0), Float2(0.0, 1.0)), Float2(1.0, 1.0)), 0.0);",
			wants: []string{
				"mul(rows_Float2x2(Float2(1.0, 0.0), Float2(0.0, 1.0)), Float2(1.0, 1.0))",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := dangsFunction(t, tt.src)
			for _, want := range tt.wants {
				if !strings.Contains(fn, want) {
					t.Errorf("Expected %q in:\n%s", want, fn)
				}
			}
		})
	}
}

func TestUnparseFrag(t *testing.T) {
	fn := dangsFunction(t, "out.diffuse = Float3(frag.screen, 0.0);")
	if !strings.Contains(fn, "out_diffuse = Float3(frag_screen, 0.0);") {
		t.Errorf("Expected frag_screen in:\n%s", fn)
	}
}

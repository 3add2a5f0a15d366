package ir

import (
	"strings"
	"testing"
)

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"Float", Float},
		{"Float1", Float},
		{"Float4", Float4},
		{"Int", Int},
		{"Int3", IntVec{Dim: 3}},
		{"Float3x4", FloatMatrix{W: 3, H: 4}},
		{"FloatTexture", Texture{Dim: Tex1D}},
		{"FloatTextureCube", Texture{Dim: TexCube}},
		{"Bool", Bool},
		{"Mat", NamespaceType{Space: NSMat}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTypeName(tt.name)
			if !ok {
				t.Fatalf("Expected %s to be a type name", tt.name)
			}
			if !Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	for _, bad := range []string{"Float5", "Float0", "Int4x4", "Float3x", "FloatTexture4", "float", "Foo"} {
		if _, ok := ParseTypeName(bad); ok {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestTypeEqualIgnoresSolidColour(t *testing.T) {
	a := Texture{Dim: Tex2D}
	b := Texture{Dim: Tex2D, Solid: true, Colour: [4]float32{1, 0, 0, 1}}
	if !Equal(a, b) {
		t.Error("Expected solid-colour fallback to be ignored by Equal")
	}
	if Equal(a, Texture{Dim: Tex3D}) {
		t.Error("Expected different texture dimensions to differ")
	}
	if Equal(ArrayType{Size: 2, Elem: Float}, ArrayType{Size: 3, Elem: Float}) {
		t.Error("Expected different array sizes to differ")
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Float, "Float"},
		{Float3, "Float3"},
		{IntVec{Dim: 2}, "Int2"},
		{FloatMatrix{W: 3, H: 4}, "Float3x4"},
		{ArrayType{Size: 3, Elem: Float2}, "[3]Float2"},
		{FunctionType{Params: []Type{Float, Float}, Result: Float}, "(Float, Float) -> Float"},
		{NamespaceType{Space: NSGlobal}, "Global"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}

func TestArenaWrap(t *testing.T) {
	a := NewArena()
	lit := a.New(LiteralInt{Value: 2}, Location{Line: 1, Column: 5})
	a.SetType(lit, Int, false)
	parent := a.New(Binary{Op: OpAdd, A: lit, B: lit}, Location{Line: 1, Column: 1})

	moved := a.Wrap(lit, "Float", Float)

	call, ok := a.Node(lit).(Call)
	if !ok || call.Name != "Float" || !call.Conversion || len(call.Args) != 1 || call.Args[0] != moved {
		t.Fatalf("Expected conversion call at original slot, got %#v", a.Node(lit))
	}
	if _, ok := a.Node(moved).(LiteralInt); !ok {
		t.Errorf("Expected moved literal, got %T", a.Node(moved))
	}
	if !Equal(a.Type(lit), Float) || !Equal(a.Type(moved), Int) {
		t.Errorf("Expected Float wrapper over Int literal, got %v over %v", a.Type(lit), a.Type(moved))
	}
	if a.Loc(moved) != a.Loc(lit) {
		t.Error("Expected moved node to keep its location")
	}
	if b := a.Node(parent).(Binary); b.A != lit {
		t.Error("Expected parent to be untouched")
	}
}

func TestArenaScopes(t *testing.T) {
	a := NewArena()
	s := a.NewScope()
	x := a.NewDef(Def{Name: "x", Type: Float})
	if !a.Declare(s, x) {
		t.Fatal("Expected first declaration to succeed")
	}
	if a.Declare(s, a.NewDef(Def{Name: "x", Type: Int})) {
		t.Error("Expected redeclaration to fail")
	}
	a.Declare(s, a.NewDef(Def{Name: "a", Type: Int}))

	if got := strings.Join(a.Scope(s).Vars, ","); got != "x,a" {
		t.Errorf("Expected declaration order x,a, got %s", got)
	}
	if id, ok := a.Scope(s).Lookup("x"); !ok || id != x {
		t.Error("Expected lookup to find x")
	}
}

func TestArenaInvalidHandlePanics(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*Error)
		if !ok || !e.IsInternal() {
			t.Errorf("Expected internal error panic, got %v", r)
		}
	}()
	NewArena().Node(NoNode)
}

func TestLanes(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		want string
	}{
		{"scalar", Float, "VertexAttribute(n)"},
		{"vector", Float3, "VertexAttribute(n.x) VertexAttribute(n.y) VertexAttribute(n.z)"},
		{"int vector", IntVec{Dim: 2}, "VertexAttribute(n.x) VertexAttribute(n.y)"},
		{"array", ArrayType{Size: 2, Elem: Float2}, "VertexAttribute(n.0.x) VertexAttribute(n.0.y) VertexAttribute(n.1.x) VertexAttribute(n.1.y)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lanes := Lanes(TransVertexAttribute, []string{"n"}, tt.t)
			parts := make([]string, len(lanes))
			for i, l := range lanes {
				parts[i] = l.String()
			}
			if got := strings.Join(parts, " "); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTransSetDeduplicates(t *testing.T) {
	s := NewTransSet()
	s.AddAll(Lanes(TransVertexAttribute, []string{"normal"}, Float3))
	s.AddAll(Lanes(TransVertexAttribute, []string{"normal"}, Float3))
	s.Add(Trans{Kind: TransUserVariable, Path: []string{"normal", "x"}, Type: Float})
	s.AddAll(Lanes(TransVertexAttribute, []string{"colour"}, Float2))

	if s.Len() != 6 {
		t.Fatalf("Expected 6 lanes, got %d", s.Len())
	}
	if s.Slots() != 2 {
		t.Errorf("Expected 2 slots, got %d", s.Slots())
	}
	if i := s.Index(TransUserVariable, "normal", "x"); i != 3 {
		t.Errorf("Expected user lane at 3, got %d", i)
	}
	if !s.Contains(TransVertexAttribute, "colour", "y") {
		t.Error("Expected colour.y lane")
	}
	if got := strings.Join(s.Roots(TransVertexAttribute), ","); got != "normal,colour" {
		t.Errorf("Expected roots normal,colour, got %s", got)
	}
}

func TestErrorFormatWithContext(t *testing.T) {
	source := "var a = 1;\nvar x = mat.nope;\n"
	err := Errorf(ErrType, Location{Line: 2, Column: 9}, "unknown field mat.nope").WithSource(source)

	if got := err.Error(); got != "2:9: TypeError: unknown field mat.nope" {
		t.Errorf("Unexpected Error(): %q", got)
	}

	formatted := err.FormatWithContext()
	for _, want := range []string{"error: unknown field mat.nope", "line 2:9", "var x = mat.nope;", "        ^"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Expected formatted error to contain %q, got:\n%s", want, formatted)
		}
	}
}

func TestMetadataClone(t *testing.T) {
	md := DefaultMetadata()
	md.MaterialParams["albedo"] = MaterialParam{Type: Float3, Static: &[4]float32{1, 2, 3, 0}}
	md.UnboundTextures["tex"] = [4]float32{1, 1, 1, 1}

	c := md.Clone()
	c.MaterialParams["albedo"].Static[0] = 9
	c.UnboundTextures["other"] = [4]float32{}

	if md.MaterialParams["albedo"].Static[0] != 1 {
		t.Error("Expected clone to deep-copy static values")
	}
	if len(md.UnboundTextures) != 1 {
		t.Error("Expected clone to copy the unbound texture map")
	}
	if got := strings.Join(c.UnboundNames(), ","); got != "other,tex" {
		t.Errorf("Expected sorted names, got %s", got)
	}
}

func TestEnvironmentValidate(t *testing.T) {
	if err := DefaultMetadata().Env.Validate(); err != nil {
		t.Fatalf("Expected default environment to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *Environment)
		want   string
	}{
		{"negative bones", func(e *Environment) { e.BoneWeights = -1 }, "bone weights"},
		{"env boxes", func(e *Environment) { e.EnvBoxes = 3 }, "env boxes"},
		{"shadow res", func(e *Environment) { e.ShadowRes = -4 }, "shadow resolution"},
		{"taps", func(e *Environment) { e.ShadowFilterTaps = 8 }, "taps"},
		{"fade", func(e *Environment) { e.ShadowFadeEnd = 10 }, "fade end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := DefaultMetadata().Env
			tt.mutate(&env)
			err := env.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

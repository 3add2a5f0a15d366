// Package check type-checks Gasoline shader stages.
//
// A Context holds the request-scoped tables (namespace fields, function
// overloads, feature flags) built once from ir.Metadata. A Checker checks one
// stage against a Context, annotating the Arena with resolved types and
// recording which values must cross from the vertex stage into the fragment
// program.
package check

import (
	"fmt"
	"sort"

	"github.com/gogpu/gasoline/ir"
)

// MaxBones is the size of the body.boneWorlds array.
const MaxBones = 50

// Field is one entry of a namespace field table.
type Field struct {
	Name string
	Type ir.Type

	// Internal fields are visible only to requests with the Internal flag.
	Internal bool

	// Lighting fields are visible only to requests with LightingTextures.
	Lighting bool
}

// FieldTable is an ordered, immutable field table.
type FieldTable struct {
	fields []Field
	index  map[string]int
}

func newFieldTable(fields []Field) *FieldTable {
	t := &FieldTable{
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		t.index[f.Name] = i
	}
	return t
}

// Lookup returns the field named name.
func (t *FieldTable) Lookup(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Fields returns the fields in declaration order.
func (t *FieldTable) Fields() []Field {
	return t.fields
}

// Context is the read-only environment of one compile request.
type Context struct {
	Global *FieldTable
	Mat    *FieldTable
	Body   *FieldTable
	Vert   *FieldTable

	// Funcs maps a function name to its candidate signatures.
	Funcs map[string][]ir.FunctionType

	// StaticValues holds material parameters that are compile-time constants.
	StaticValues map[string][4]float32

	Env ir.Environment

	Internal         bool
	LightingTextures bool
	LegacyClipSpace  bool

	internalFuncs   map[string]bool
	vertexOnlyFuncs map[string]bool
	samplingFuncs   map[string]bool
}

// NewContext builds the tables for one request. The result is never mutated
// by the checker and may be shared by the checkers of all stages.
func NewContext(md *ir.Metadata) (*Context, error) {
	mat, statics, err := materialFields(md)
	if err != nil {
		return nil, err
	}
	return &Context{
		Global:           newFieldTable(globalFields()),
		Mat:              mat,
		Body:             newFieldTable(bodyFields(md.Env)),
		Vert:             newFieldTable(vertFields()),
		Funcs:            funcTypes(),
		StaticValues:     statics,
		Env:              md.Env,
		Internal:         md.Internal,
		LightingTextures: md.LightingTextures,
		LegacyClipSpace:  md.LegacyClipSpace,
		internalFuncs:    setOf(internalFuncNames...),
		vertexOnlyFuncs:  setOf("transform_to_world", "rotate_to_world"),
		samplingFuncs:    setOf("sample", "sampleLod", "sampleGrad"),
	}, nil
}

// GlobalVisible reports whether a global field may be named by user code.
func (c *Context) GlobalVisible(f Field) bool {
	if f.Internal && !c.Internal {
		return false
	}
	if f.Lighting && !c.LightingTextures {
		return false
	}
	return true
}

// IsInternalFunc reports whether a function requires the Internal flag.
func (c *Context) IsInternalFunc(name string) bool {
	return c.internalFuncs[name]
}

// IsVertexOnlyFunc reports whether a function may only be called from the
// vertex stage.
func (c *Context) IsVertexOnlyFunc(name string) bool {
	return c.vertexOnlyFuncs[name]
}

// IsSamplingFunc reports whether a function samples a texture.
func (c *Context) IsSamplingFunc(name string) bool {
	return c.samplingFuncs[name]
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var (
	float4x4 ir.Type = ir.FloatMatrix{W: 4, H: 4}
	tex2D    ir.Type = ir.Texture{Dim: ir.Tex2D}
	texCube  ir.Type = ir.Texture{Dim: ir.TexCube}
)

func globalFields() []Field {
	return []Field{
		{Name: "cameraPos", Type: ir.Float3},
		{Name: "fovY", Type: ir.Float},
		{Name: "proj", Type: float4x4},
		{Name: "view", Type: float4x4},
		{Name: "invView", Type: float4x4},
		{Name: "viewProj", Type: float4x4},
		{Name: "rayTopLeft", Type: ir.Float3, Internal: true},
		{Name: "rayTopRight", Type: ir.Float3, Internal: true},
		{Name: "rayBottomLeft", Type: ir.Float3, Internal: true},
		{Name: "rayBottomRight", Type: ir.Float3, Internal: true},
		{Name: "viewportSize", Type: ir.Float2},
		{Name: "nearClipDistance", Type: ir.Float},
		{Name: "farClipDistance", Type: ir.Float},
		{Name: "time", Type: ir.Float},

		{Name: "sunlightDiffuse", Type: ir.Float3},
		{Name: "sunlightDirection", Type: ir.Float3},
		{Name: "sunlightSpecular", Type: ir.Float3},
		{Name: "sunDirection", Type: ir.Float3},
		{Name: "sunColour", Type: ir.Float3},
		{Name: "sunAlpha", Type: ir.Float},
		{Name: "sunSize", Type: ir.Float},
		{Name: "sunFalloffDistance", Type: ir.Float},
		{Name: "skyCloudColour", Type: ir.Float3},
		{Name: "skyCloudCoverage", Type: ir.Float},
		{Name: "skyGlareSunDistance", Type: ir.Float},
		{Name: "skyGlareHorizonElevation", Type: ir.Float},

		{Name: "fogColour", Type: ir.Float3},
		{Name: "fogDensity", Type: ir.Float},
		{Name: "hellColour", Type: ir.Float3},
		{Name: "exposure", Type: ir.Float},
		{Name: "saturation", Type: ir.Float},
		{Name: "bloomThreshold", Type: ir.Float},

		{Name: "envCubeCrossFade", Type: ir.Float},
		{Name: "envCubeMipmaps0", Type: ir.Float},
		{Name: "envCubeMipmaps1", Type: ir.Float},
		{Name: "envCube0", Type: texCube, Lighting: true},
		{Name: "envCube1", Type: texCube, Lighting: true},

		{Name: "shadowViewProj", Type: float4x4, Internal: true},
		{Name: "shadowViewProj0", Type: float4x4, Internal: true},
		{Name: "shadowViewProj1", Type: float4x4, Internal: true},
		{Name: "shadowViewProj2", Type: float4x4, Internal: true},
		{Name: "shadowMap0", Type: tex2D, Lighting: true},
		{Name: "shadowMap1", Type: tex2D, Lighting: true},
		{Name: "shadowMap2", Type: tex2D, Lighting: true},
		{Name: "shadowPcfNoiseMap", Type: tex2D, Lighting: true},
		{Name: "fadeDitherMap", Type: tex2D, Lighting: true},

		{Name: "gbuffer0", Type: tex2D, Internal: true, Lighting: true},
		{Name: "gbuffer1", Type: tex2D, Internal: true, Lighting: true},
		{Name: "gbuffer2", Type: tex2D, Internal: true, Lighting: true},
	}
}

func bodyFields(env ir.Environment) []Field {
	fields := []Field{
		{Name: "world", Type: float4x4},
		{Name: "worldView", Type: float4x4},
		{Name: "worldViewProj", Type: float4x4},
		{Name: "invWorld", Type: float4x4},
		{Name: "fade", Type: ir.Float},
	}
	for _, prefix := range []string{"paintDiffuse", "paintSpecular", "paintMetallic", "paintGloss"} {
		for i := 0; i < 4; i++ {
			t := ir.Float3
			if prefix != "paintDiffuse" {
				t = ir.Float
			}
			fields = append(fields, Field{Name: fmt.Sprintf("%s%d", prefix, i), Type: t})
		}
	}
	if env.BoneWeights > 0 {
		fields = append(fields, Field{Name: "boneWorlds", Type: ir.ArrayType{Size: MaxBones, Elem: float4x4}})
	}
	return fields
}

// VertexAttributes lists the attribute names in table order.
var VertexAttributes = []string{
	"position", "normal", "tangent", "colour",
	"coord0", "coord1", "coord2", "coord3", "coord4", "coord5", "coord6", "coord7",
	"boneWeights", "boneAssignments",
}

func vertFields() []Field {
	fields := make([]Field, 0, len(VertexAttributes))
	for _, name := range VertexAttributes {
		t := ir.Float4
		if name == "normal" {
			t = ir.Float3
		}
		fields = append(fields, Field{Name: name, Type: t})
	}
	return fields
}

// materialFields builds the material table from the declared parameters and
// the unbound texture overrides, in sorted name order.
func materialFields(md *ir.Metadata) (*FieldTable, map[string][4]float32, error) {
	statics := make(map[string][4]float32)
	var fields []Field
	for _, name := range md.ParamNames() {
		p := md.MaterialParams[name]
		switch t := p.Type.(type) {
		case ir.FloatVec, ir.IntVec:
			if p.Static != nil {
				statics[name] = *p.Static
			}
			fields = append(fields, Field{Name: name, Type: t})
		case ir.Texture:
			if colour, ok := md.UnboundTextures[name]; ok {
				t.Solid = true
				t.Colour = colour
			}
			fields = append(fields, Field{Name: name, Type: t})
		case nil:
			return nil, nil, fmt.Errorf("material parameter %q has no type", name)
		default:
			return nil, nil, fmt.Errorf("material parameter %q: type %s cannot be a material parameter", name, t)
		}
	}
	for _, name := range md.UnboundNames() {
		if _, ok := md.MaterialParams[name]; !ok {
			return nil, nil, fmt.Errorf("unbound texture %q is not a declared material parameter", name)
		}
	}
	return newFieldTable(fields), statics, nil
}

// OutFields returns the out table of a stage.
func OutFields(stage ir.Stage) *FieldTable {
	switch stage {
	case ir.StageVertex:
		return newFieldTable([]Field{
			{Name: "position", Type: ir.Float3},
		})
	case ir.StageDangs:
		return newFieldTable([]Field{
			{Name: "diffuse", Type: ir.Float3},
			{Name: "alpha", Type: ir.Float},
			{Name: "normal", Type: ir.Float3},
			{Name: "gloss", Type: ir.Float},
			{Name: "specular", Type: ir.Float},
		})
	case ir.StageColourAlpha:
		return newFieldTable([]Field{
			{Name: "colour", Type: ir.Float3},
			{Name: "alpha", Type: ir.Float},
		})
	default:
		ir.Unreachable("unknown stage %d", stage)
		return nil
	}
}

// FragFields returns the frag table of a stage.
func FragFields(stage ir.Stage) *FieldTable {
	if stage == ir.StageVertex {
		return newFieldTable(nil)
	}
	return newFieldTable([]Field{
		{Name: "screen", Type: ir.Float2},
	})
}

var internalFuncNames = []string{
	"sunlight",
	"envlight",
	"fog_weakness",
	"unpack_deferred_diffuse_colour",
	"unpack_deferred_specular",
	"unpack_deferred_gloss",
	"unpack_deferred_cam_dist",
	"unpack_deferred_normal",
}

func fn(result ir.Type, params ...ir.Type) ir.FunctionType {
	return ir.FunctionType{Params: params, Result: result}
}

func floatN(n int) ir.Type { return ir.FloatVec{Dim: n} }
func intN(n int) ir.Type   { return ir.IntVec{Dim: n} }

// funcTypes builds the overload table. Every name maps to its candidates in a
// fixed order so that error messages are stable.
func funcTypes() map[string][]ir.FunctionType {
	m := make(map[string][]ir.FunctionType)
	add := func(name string, f ir.FunctionType) {
		m[name] = append(m[name], f)
	}

	// Constructors. A single-argument constructor of the same type doubles
	// as splat and as Int to Float conversion.
	add("Float", fn(ir.Float, ir.Float))
	add("Float2", fn(ir.Float2, ir.Float2))
	add("Float2", fn(ir.Float2, ir.Float, ir.Float))
	add("Float3", fn(ir.Float3, ir.Float3))
	add("Float3", fn(ir.Float3, ir.Float, ir.Float, ir.Float))
	add("Float3", fn(ir.Float3, ir.Float2, ir.Float))
	add("Float3", fn(ir.Float3, ir.Float, ir.Float2))
	add("Float4", fn(ir.Float4, ir.Float4))
	add("Float4", fn(ir.Float4, ir.Float, ir.Float, ir.Float, ir.Float))
	add("Float4", fn(ir.Float4, ir.Float3, ir.Float))
	add("Float4", fn(ir.Float4, ir.Float, ir.Float3))
	add("Float4", fn(ir.Float4, ir.Float2, ir.Float2))
	add("Float4", fn(ir.Float4, ir.Float2, ir.Float, ir.Float))
	add("Int", fn(ir.Int, ir.Int))
	add("Int", fn(ir.Int, ir.Float))
	add("Int2", fn(intN(2), intN(2)))
	add("Int2", fn(intN(2), ir.Int, ir.Int))
	add("Int3", fn(intN(3), intN(3)))
	add("Int3", fn(intN(3), ir.Int, ir.Int, ir.Int))
	add("Int4", fn(intN(4), intN(4)))
	add("Int4", fn(intN(4), ir.Int, ir.Int, ir.Int, ir.Int))
	for w := 2; w <= 4; w++ {
		for h := 2; h <= 4; h++ {
			rows := make([]ir.Type, h)
			for i := range rows {
				rows[i] = floatN(w)
			}
			add(ir.FloatMatrix{W: w, H: h}.String(), fn(ir.FloatMatrix{W: w, H: h}, rows...))
		}
	}

	// Component-wise maths.
	for n := 1; n <= 4; n++ {
		f := floatN(n)
		for _, name := range []string{
			"abs", "ceil", "floor", "frac", "sqrt", "exp", "exp2", "log", "log2",
			"sin", "cos", "tan", "asin", "acos", "atan", "sign", "saturate",
			"normalize", "ddx", "ddy", "gamma_decode", "gamma_encode",
		} {
			add(name, fn(f, f))
		}
		add("pow", fn(f, f, f))
		add("min", fn(f, f, f))
		add("max", fn(f, f, f))
		add("mod", fn(f, f, f))
		add("step", fn(f, f, f))
		add("lerp", fn(f, f, f, f))
		add("clamp", fn(f, f, f, f))
		add("smoothstep", fn(f, f, f, f))
		add("dot", fn(ir.Float, f, f))
		add("length", fn(ir.Float, f))
		add("distance", fn(ir.Float, f, f))
	}
	for n := 1; n <= 4; n++ {
		i := intN(n)
		add("abs", fn(i, i))
		add("min", fn(i, i, i))
		add("max", fn(i, i, i))
		add("clamp", fn(i, i, i, i))
	}
	add("atan2", fn(ir.Float, ir.Float, ir.Float))
	add("cross", fn(ir.Float3, ir.Float3, ir.Float3))
	add("reflect", fn(ir.Float3, ir.Float3, ir.Float3))
	add("desaturate", fn(ir.Float3, ir.Float3, ir.Float))
	add("pma_decode", fn(ir.Float4, ir.Float4))
	for w := 2; w <= 4; w++ {
		for h := 2; h <= 4; h++ {
			add("mul", fn(floatN(h), ir.FloatMatrix{W: w, H: h}, floatN(w)))
		}
	}
	add("mul", fn(float4x4, float4x4, float4x4))

	// Texture sampling.
	add("sample", fn(ir.Float4, ir.Texture{Dim: ir.Tex1D}, ir.Float))
	add("sample", fn(ir.Float4, tex2D, ir.Float2))
	add("sample", fn(ir.Float4, ir.Texture{Dim: ir.Tex3D}, ir.Float3))
	add("sample", fn(ir.Float4, texCube, ir.Float3))
	add("sampleLod", fn(ir.Float4, tex2D, ir.Float2, ir.Float))
	add("sampleLod", fn(ir.Float4, texCube, ir.Float3, ir.Float))
	add("sampleGrad", fn(ir.Float4, tex2D, ir.Float2, ir.Float2, ir.Float2))
	add("sampleGrad", fn(ir.Float4, texCube, ir.Float3, ir.Float3, ir.Float3))

	// Vertex-only.
	add("transform_to_world", fn(ir.Float3, ir.Float3))
	add("rotate_to_world", fn(ir.Float3, ir.Float3))

	// Internal lighting helpers.
	add("sunlight", fn(ir.Float3, ir.Float3, ir.Float3, ir.Float3, ir.Float3, ir.Float3, ir.Float, ir.Float))
	add("envlight", fn(ir.Float3, ir.Float3, ir.Float3, ir.Float3, ir.Float3, ir.Float))
	add("fog_weakness", fn(ir.Float, ir.Float))
	add("unpack_deferred_diffuse_colour", fn(ir.Float3, ir.Float4, ir.Float4, ir.Float4))
	add("unpack_deferred_specular", fn(ir.Float, ir.Float4, ir.Float4, ir.Float4))
	add("unpack_deferred_gloss", fn(ir.Float, ir.Float4, ir.Float4, ir.Float4))
	add("unpack_deferred_cam_dist", fn(ir.Float, ir.Float4, ir.Float4, ir.Float4))
	add("unpack_deferred_normal", fn(ir.Float3, ir.Float4, ir.Float4, ir.Float4))

	return m
}

// FuncNames returns the names of the overload table in sorted order.
func (c *Context) FuncNames() []string {
	names := make([]string, 0, len(c.Funcs))
	for n := range c.Funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

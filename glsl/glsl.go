// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/gasoline/backend"
	"github.com/gogpu/gasoline/ir"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// Supported GLSL versions.
var (
	Version330   = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}   // ES 3.0 / WebGL 2.0
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version330 if zero.
	LangVersion Version

	// ForceHighPrecision uses highp for floats (ES only).
	// If false, floats default to mediump.
	ForceHighPrecision bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:        Version330,
		ForceHighPrecision: true,
	}
}

// Generate writes the GLSL vertex and fragment programs of a checked request.
func Generate(req *backend.Request, opts Options) (*backend.Output, error) {
	if opts.LangVersion == (Version{}) {
		opts.LangVersion = Version330
	}
	return backend.Generate(&Dialect{opts: opts}, req)
}

// attributeLocations binds vertex attributes to the locations the engine
// uploads them to.
var attributeLocations = map[string]int{
	"position":        0,
	"boneWeights":     1,
	"normal":          2,
	"colour":          3,
	"boneAssignments": 4,
	"tangent":         5,
	"coord0":          8,
	"coord1":          9,
	"coord2":          10,
	"coord3":          11,
	"coord4":          12,
	"coord5":          13,
	"coord6":          14,
	"coord7":          15,
}

// Dialect implements backend.Dialect for GLSL.
type Dialect struct {
	opts Options
}

// NewDialect returns a GLSL dialect for opts.
func NewDialect(opts Options) *Dialect {
	return &Dialect{opts: opts}
}

// Name implements backend.Dialect.
func (d *Dialect) Name() string { return "glsl" }

// Header implements backend.Dialect.
func (d *Dialect) Header(w *backend.Writer, _ bool) {
	w.Line("#version %s", d.opts.LangVersion)
	if d.opts.LangVersion.ES {
		precision := "mediump"
		if d.opts.ForceHighPrecision {
			precision = "highp"
		}
		w.Line("precision %s float;", precision)
		w.Line("precision highp int;")
		w.Line("precision highp sampler3D;")
	}
	w.Line("")
}

// TypeAlias implements backend.Dialect.
func (d *Dialect) TypeAlias(t ir.Type) string {
	switch x := t.(type) {
	case ir.FloatVec:
		if x.Dim == 1 {
			return "float"
		}
		return fmt.Sprintf("vec%d", x.Dim)
	case ir.IntVec:
		if x.Dim == 1 {
			return "int"
		}
		return fmt.Sprintf("ivec%d", x.Dim)
	case ir.BoolType:
		return "bool"
	case ir.FloatMatrix:
		// GLSL names matrices columns first; a Gasoline WxH matrix takes W
		// inputs, so it has W columns.
		if x.W == x.H {
			return fmt.Sprintf("mat%d", x.W)
		}
		return fmt.Sprintf("mat%dx%d", x.W, x.H)
	case ir.Texture:
		switch x.Dim {
		case ir.Tex1D:
			if d.opts.LangVersion.ES {
				return "sampler2D"
			}
			return "sampler1D"
		case ir.Tex2D:
			return "sampler2D"
		case ir.Tex3D:
			return "sampler3D"
		case ir.TexCube:
			return "samplerCube"
		}
	}
	ir.Unreachable("no GLSL spelling for %s", t)
	return ""
}

// Shims implements backend.Dialect.
func (d *Dialect) Shims(w *backend.Writer) {
	w.Line("#define lerp mix")
	w.Line("#define frac fract")
	w.Line("#define atan2 atan")
	w.Line("#define ddx dFdx")
	w.Line("#define ddy dFdy")
	w.Line("#define saturate(x) clamp(x, 0.0, 1.0)")
	w.Line("#define mul(a, b) ((a) * (b))")
	w.Line("")
}

// Sample implements backend.Dialect.
func (d *Dialect) Sample(op backend.SampleOp, dim ir.TextureDim, tex string, args ...string) string {
	if dim == ir.Tex1D && d.opts.LangVersion.ES {
		args = append([]string{"Float2(" + args[0] + ", 0.5)"}, args[1:]...)
	}
	var name string
	switch op {
	case backend.SampleBasic:
		name = "texture"
	case backend.SampleLod:
		name = "textureLod"
	case backend.SampleGrad:
		name = "textureGrad"
	default:
		ir.Unreachable("unknown sample op %d", op)
	}
	return name + "(" + tex + ", " + strings.Join(args, ", ") + ")"
}

// Convert implements backend.Dialect.
func (d *Dialect) Convert(t ir.Type, expr string) string {
	return t.String() + "(" + expr + ")"
}

// VectorEqual implements backend.Dialect.
func (d *Dialect) VectorEqual(a, b string, negate bool) string {
	if negate {
		return "(" + a + " != " + b + ")"
	}
	return "(" + a + " == " + b + ")"
}

// GlobalPrefix implements backend.Dialect.
func (d *Dialect) GlobalPrefix() string { return "" }

// ConstPrefix implements backend.Dialect.
func (d *Dialect) ConstPrefix() string { return "const " }

// Uniform implements backend.Dialect.
func (d *Dialect) Uniform(t ir.Type, name string) string {
	return "uniform " + backend.Declare(t, name) + ";"
}

// MatrixFromRows implements backend.Dialect. GLSL constructors take columns,
// so the rows build the transposed matrix first.
func (d *Dialect) MatrixFromRows(t ir.FloatMatrix, rows []string) string {
	transposed := ir.FloatMatrix{W: t.H, H: t.W}
	return "transpose(" + transposed.String() + "(" + strings.Join(rows, ", ") + "))"
}

// ScreenToUV implements backend.Dialect.
func (d *Dialect) ScreenToUV(screen string) string {
	return "(" + screen + " / global_viewportSize)"
}

// ClipToUV implements backend.Dialect.
func (d *Dialect) ClipToUV(ndc string) string {
	return "(" + ndc + " * 0.5 + 0.5)"
}

// Interface implements backend.Dialect.
func (d *Dialect) Interface(w *backend.Writer, io *backend.IO) {
	w.Line("uniform Float internal_rt_flip;")
	if !io.Fragment {
		for _, v := range io.Inputs {
			w.Line("layout(location = %d) in %s;", attributeLocations[v.Attribute], backend.Declare(v.Type, v.Name))
		}
		for _, v := range io.Outputs {
			w.Line("out %s;", backend.Declare(v.Type, v.Name))
		}
		return
	}
	for _, v := range io.Inputs {
		w.Line("in %s;", backend.Declare(v.Type, v.Name))
	}
	for _, v := range io.Outputs {
		w.Line("layout(location = %d) out %s;", v.Index, backend.Declare(v.Type, v.Name))
	}
}

// BeginMain implements backend.Dialect.
func (d *Dialect) BeginMain(w *backend.Writer, _ *backend.IO) {
	w.Open("void main()")
}

// EndMain implements backend.Dialect.
func (d *Dialect) EndMain(w *backend.Writer, _ *backend.IO) {
	w.Close()
}

// PositionOutput implements backend.Dialect.
func (d *Dialect) PositionOutput() string { return "gl_Position" }

// DepthOutput implements backend.Dialect.
func (d *Dialect) DepthOutput() string { return "gl_FragDepth" }

// FragCoord implements backend.Dialect.
func (d *Dialect) FragCoord(bool) string {
	return "Float2(gl_FragCoord.x, internal_rt_flip > 0.0 ? gl_FragCoord.y : global_viewportSize.y - gl_FragCoord.y)"
}

// ClipFixup implements backend.Dialect.
func (d *Dialect) ClipFixup(w *backend.Writer, clip string, _ bool) {
	w.Line("%s.y = %s.y * internal_rt_flip;", clip, clip)
}

// NdcDepth implements backend.Dialect.
func (d *Dialect) NdcDepth(z string) string {
	return "((" + z + ") * 0.5 + 0.5)"
}

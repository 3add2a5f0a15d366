// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cg is the Cg dialect of the Gasoline backend, for Direct3D class
// targets.
//
// Cg passes program inputs and outputs as parameters of main with binding
// semantics. Vertex attributes arrive as in_vert_x parameters and are copied
// into static vert_x variables so that the shared stage functions can read
// them.
//
// # Basic Usage
//
//	out, err := cg.Generate(req)
package cg

import (
	"fmt"
	"strings"

	"github.com/gogpu/gasoline/backend"
	"github.com/gogpu/gasoline/ir"
)

// Generate writes the Cg vertex and fragment programs of a checked request.
func Generate(req *backend.Request) (*backend.Output, error) {
	return backend.Generate(Dialect{}, req)
}

// attributeSemantics binds vertex attributes to Cg input semantics.
var attributeSemantics = map[string]string{
	"position":        "POSITION",
	"boneWeights":     "BLENDWEIGHT",
	"normal":          "NORMAL",
	"colour":          "COLOR",
	"boneAssignments": "BLENDINDICES",
	"tangent":         "TANGENT",
	"coord0":          "TEXCOORD0",
	"coord1":          "TEXCOORD1",
	"coord2":          "TEXCOORD2",
	"coord3":          "TEXCOORD3",
	"coord4":          "TEXCOORD4",
	"coord5":          "TEXCOORD5",
	"coord6":          "TEXCOORD6",
	"coord7":          "TEXCOORD7",
}

// Dialect implements backend.Dialect for Cg.
type Dialect struct{}

// Name implements backend.Dialect.
func (Dialect) Name() string { return "cg" }

// Header implements backend.Dialect.
func (Dialect) Header(w *backend.Writer, fragment bool) {
	if fragment {
		w.Line("// fragment program")
	} else {
		w.Line("// vertex program")
	}
	w.Line("")
}

// TypeAlias implements backend.Dialect.
func (Dialect) TypeAlias(t ir.Type) string {
	switch x := t.(type) {
	case ir.FloatVec:
		if x.Dim == 1 {
			return "float"
		}
		return fmt.Sprintf("float%d", x.Dim)
	case ir.IntVec:
		if x.Dim == 1 {
			return "int"
		}
		return fmt.Sprintf("int%d", x.Dim)
	case ir.BoolType:
		return "bool"
	case ir.FloatMatrix:
		// Cg names matrices rows first; a Gasoline WxH matrix yields H
		// outputs, so it has H rows.
		return fmt.Sprintf("float%dx%d", x.H, x.W)
	case ir.Texture:
		switch x.Dim {
		case ir.Tex1D:
			return "sampler1D"
		case ir.Tex2D:
			return "sampler2D"
		case ir.Tex3D:
			return "sampler3D"
		case ir.TexCube:
			return "samplerCUBE"
		}
	}
	ir.Unreachable("no Cg spelling for %s", t)
	return ""
}

// Shims implements backend.Dialect. Cg spells every intrinsic Gasoline
// uses natively.
func (Dialect) Shims(*backend.Writer) {}

var samplers = map[ir.TextureDim]string{
	ir.Tex1D:   "tex1D",
	ir.Tex2D:   "tex2D",
	ir.Tex3D:   "tex3D",
	ir.TexCube: "texCUBE",
}

// Sample implements backend.Dialect.
func (Dialect) Sample(op backend.SampleOp, dim ir.TextureDim, tex string, args ...string) string {
	fn := samplers[dim]
	switch op {
	case backend.SampleBasic, backend.SampleGrad:
		return fn + "(" + tex + ", " + strings.Join(args, ", ") + ")"
	case backend.SampleLod:
		coord := "Float4(" + args[0] + ", 0.0, " + args[1] + ")"
		if dim == ir.TexCube {
			coord = "Float4(" + args[0] + ", " + args[1] + ")"
		}
		return fn + "lod(" + tex + ", " + coord + ")"
	default:
		ir.Unreachable("unknown sample op %d", op)
		return ""
	}
}

// Convert implements backend.Dialect.
func (Dialect) Convert(t ir.Type, expr string) string {
	return "((" + t.String() + ")(" + expr + "))"
}

// VectorEqual implements backend.Dialect.
func (Dialect) VectorEqual(a, b string, negate bool) string {
	if negate {
		return "any(" + a + " != " + b + ")"
	}
	return "all(" + a + " == " + b + ")"
}

// GlobalPrefix implements backend.Dialect.
func (Dialect) GlobalPrefix() string { return "static " }

// ConstPrefix implements backend.Dialect.
func (Dialect) ConstPrefix() string { return "static const " }

// Uniform implements backend.Dialect.
func (Dialect) Uniform(t ir.Type, name string) string {
	return "uniform " + backend.Declare(t, name) + ";"
}

// MatrixFromRows implements backend.Dialect.
func (Dialect) MatrixFromRows(t ir.FloatMatrix, rows []string) string {
	return t.String() + "(" + strings.Join(rows, ", ") + ")"
}

// ScreenToUV implements backend.Dialect. Direct3D textures start at the top.
func (Dialect) ScreenToUV(screen string) string {
	return "(Float2(" + screen + ".x, global_viewportSize.y - " + screen + ".y) / global_viewportSize)"
}

// ClipToUV implements backend.Dialect.
func (Dialect) ClipToUV(ndc string) string {
	return "(" + ndc + " * Float2(0.5, -0.5) + 0.5)"
}

// Interface implements backend.Dialect.
func (Dialect) Interface(w *backend.Writer, io *backend.IO) {
	if io.Fragment {
		return
	}
	for _, v := range io.Inputs {
		w.Line("static %s;", backend.Declare(v.Type, v.Name))
	}
}

// BeginMain implements backend.Dialect.
func (Dialect) BeginMain(w *backend.Writer, io *backend.IO) {
	var params []string
	if io.Fragment {
		for _, v := range io.Inputs {
			params = append(params, fmt.Sprintf("in %s : TEXCOORD%d", backend.Declare(v.Type, v.Name), v.Index))
		}
		params = append(params, "in Float2 wpos : WPOS")
		for _, v := range io.Outputs {
			params = append(params, fmt.Sprintf("out %s : COLOR%d", backend.Declare(v.Type, v.Name), v.Index))
		}
		if io.Depth {
			params = append(params, "out Float out_depth : DEPTH")
		}
	} else {
		for _, v := range io.Inputs {
			params = append(params, fmt.Sprintf("in %s : %s",
				backend.Declare(v.Type, "in_"+v.Name), attributeSemantics[v.Attribute]))
		}
		params = append(params, "out Float4 out_clip_position : POSITION")
		for _, v := range io.Outputs {
			params = append(params, fmt.Sprintf("out %s : TEXCOORD%d", backend.Declare(v.Type, v.Name), v.Index))
		}
	}

	w.Line("void main(")
	w.Push()
	for i, p := range params {
		if i < len(params)-1 {
			p += ","
		}
		w.Line("%s", p)
	}
	w.Pop()
	w.Line(")")
	w.Line("{")
	w.Push()
	if !io.Fragment {
		for _, v := range io.Inputs {
			w.Line("%s = in_%s;", v.Name, v.Name)
		}
	}
}

// EndMain implements backend.Dialect.
func (Dialect) EndMain(w *backend.Writer, _ *backend.IO) {
	w.Close()
}

// PositionOutput implements backend.Dialect.
func (Dialect) PositionOutput() string { return "out_clip_position" }

// DepthOutput implements backend.Dialect.
func (Dialect) DepthOutput() string { return "out_depth" }

// FragCoord implements backend.Dialect. WPOS counts from the top of the
// target, and from pixel corners on legacy targets.
func (Dialect) FragCoord(legacy bool) string {
	if legacy {
		return "Float2(wpos.x + 0.5, global_viewportSize.y - wpos.y - 0.5)"
	}
	return "Float2(wpos.x, global_viewportSize.y - wpos.y)"
}

// ClipFixup implements backend.Dialect. Legacy targets sample pixel corners,
// which a half-pixel shift of the whole image corrects.
func (Dialect) ClipFixup(w *backend.Writer, clip string, legacy bool) {
	if !legacy {
		return
	}
	w.Line("%s.xy = %s.xy + Float2(-1.0, 1.0) / global_viewportSize * %s.w;", clip, clip, clip)
}

// NdcDepth implements backend.Dialect.
func (Dialect) NdcDepth(z string) string {
	return "(" + z + ")"
}

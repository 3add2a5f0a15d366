// Package backend generates target shader programs from checked Gasoline
// stages.
//
// Generation is shared by every target. A Dialect supplies the few pieces
// whose spelling differs: program headers, type names, sampling, conversions
// and the entry point signature. The shared code writes everything else in
// Gasoline's own type vocabulary, which each program defines as macros.
//
// Generated names are mangled by origin:
//
//	global_x   engine-wide uniform
//	body_x     per-object uniform
//	mat_x      material parameter
//	vert_x     vertex attribute
//	out_x      stage output (out_add_x for the additional stage)
//	frag_x     fragment built-in
//	user_x     user variable
//	internal_x value threaded by the generated code
package backend

import (
	"fmt"

	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/ir"
)

// Generate produces the vertex and fragment programs of a checked request.
// It adds the internal lanes the shape needs to req.Trans.
func Generate(d Dialect, req *Request) (*Output, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}

	g := &generator{
		d:   d,
		req: req,
		env: req.Ctx.Env,
	}
	g.planInternal()

	return &Output{
		Vertex:   g.vertexProgram(),
		Fragment: g.fragmentProgram(),
	}, nil
}

type generator struct {
	d   Dialect
	req *Request
	env ir.Environment
}

// packing reports whether values travel through interpolators. Decals
// reconstruct their inputs from the G-buffer instead.
func (g *generator) packing() bool {
	return g.req.Shape != ShapeDecal && g.req.Shape != ShapePassthrough
}

// gbuffer reports whether the fragment program writes the G-buffer.
func (g *generator) gbuffer() bool {
	return g.req.Shape == ShapeBody && !g.req.Flags.ForwardOnly && !g.req.Flags.Cast
}

func (g *generator) planInternal() {
	if g.req.Shape != ShapeBody {
		return
	}
	names := []string{"position", "normal"}
	if g.req.Flags.Cast {
		names = []string{"depth"}
	}
	for _, n := range names {
		g.req.Trans.AddAll(ir.Lanes(ir.TransInternal, []string{n}, internalTrans[n]))
	}
}

func (g *generator) emitter(w *Writer, outPrefix string, globals bool) *emitter {
	return &emitter{
		d:         g.d,
		ctx:       g.req.Ctx,
		arena:     g.req.Arena,
		w:         w,
		outPrefix: outPrefix,
		globals:   globals,
	}
}

// vertexAttributes returns the attributes the vertex program reads, in
// attribute table order.
func (g *generator) vertexAttributes() []string {
	var need check.NameSet
	need.Add("position")
	if g.req.Vertex != nil && g.req.Shape != ShapeDecal {
		for _, n := range g.req.Vertex.Checker.VertFieldsRead.Names() {
			need.Add(n)
		}
	}
	if g.packing() {
		for _, n := range g.req.Trans.Roots(ir.TransVertexAttribute) {
			need.Add(n)
		}
		if g.req.Trans.Contains(ir.TransInternal, "normal", "x") {
			need.Add("normal")
		}
	}
	if g.env.BoneWeights > 0 {
		need.Add("boneWeights")
		need.Add("boneAssignments")
	} else if g.env.Instanced {
		need.Add("coord5")
		need.Add("coord6")
		need.Add("coord7")
	}

	var out []string
	for _, n := range check.VertexAttributes {
		if need.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

func (g *generator) vertexProgram() string {
	req := g.req
	w := &Writer{}
	e := g.emitter(w, prefixOut, true)
	userVertex := req.Vertex != nil && req.Shape != ShapeDecal

	// 1. Collect uniforms.
	var u uniformSet
	if userVertex {
		u.addReads(req.Vertex)
	}
	g.transformRequirements(&u)
	switch {
	case req.Flags.Cast:
		u.addGlobal("shadowViewProj")
	case req.Flags.ScreenSpace:
		u.addGlobal("viewportSize")
	default:
		u.addGlobal("viewProj")
	}
	if req.Ctx.LegacyClipSpace {
		u.addGlobal("viewportSize")
	}

	// 2. Describe the interface.
	io := &IO{}
	for _, name := range g.vertexAttributes() {
		f, _ := req.Ctx.Vert.Lookup(name)
		io.Inputs = append(io.Inputs, Varying{
			Kind:      VaryingAttribute,
			Name:      prefixVert + name,
			Type:      f.Type,
			Attribute: name,
		})
	}
	if g.packing() {
		io.Outputs = transVaryings(req.Trans.Len())
	}

	// 3. Declarations.
	g.d.Header(w, false)
	writeAliases(w, g.d)
	g.d.Shims(w)
	u.write(w, g.d, req.Ctx)
	g.d.Interface(w, io)
	w.Line("")

	w.Line("%s%s;", g.d.GlobalPrefix(), Declare(ir.Float3, prefixOut+"position"))
	if g.packing() {
		for _, root := range req.Trans.Roots(ir.TransInternal) {
			w.Line("%s%s;", g.d.GlobalPrefix(), Declare(internalTrans[root], prefixInternal+root))
		}
	}
	if userVertex {
		for _, def := range req.Vertex.Checker.TopLevel {
			d := req.Arena.Def(def)
			w.Line("%s%s;", g.d.GlobalPrefix(), Declare(d.Type, userName(d.Name)))
		}
	}
	w.Line("")

	// 4. Functions.
	writeLibrary(w)
	g.writeTransform(w)
	if userVertex {
		e.function("func_user_vertex", req.Vertex.Root)
		w.Line("")
	}

	// 5. Entry point.
	g.d.BeginMain(w, io)
	w.Line("out_position = transform_to_world(vert_position.xyz);")
	if userVertex {
		w.Line("func_user_vertex();")
	}
	switch {
	case req.Flags.Cast:
		w.Line("Float4 clip = mul(global_shadowViewProj, Float4(out_position, 1.0));")
	case req.Flags.ScreenSpace:
		w.Line("Float4 clip = Float4(out_position.xy / global_viewportSize * 2.0 - 1.0, 0.0, 1.0);")
	default:
		w.Line("Float4 clip = mul(global_viewProj, Float4(out_position, 1.0));")
	}
	if req.Flags.FlatZ {
		w.Line("clip.z = clip.w;")
	}
	if g.packing() {
		for _, root := range req.Trans.Roots(ir.TransInternal) {
			switch root {
			case "position":
				w.Line("internal_position = out_position;")
			case "normal":
				w.Line("internal_normal = rotate_to_world(vert_normal);")
			case "depth":
				w.Line("internal_depth = %s;", g.d.NdcDepth("clip.z / clip.w"))
			}
		}
		pack(w, g.d, req.Trans)
	}
	g.d.ClipFixup(w, "clip", req.Ctx.LegacyClipSpace)
	w.Line("%s = clip;", g.d.PositionOutput())
	g.d.EndMain(w, io)

	return w.String()
}

func (g *generator) fragmentProgram() string {
	req := g.req
	w := &Writer{}
	passthrough := req.Shape == ShapePassthrough
	lit := req.Shape == ShapeDecal || (req.Shape == ShapeBody && req.Flags.ForwardOnly && !req.Flags.Cast)

	// 1. Collect uniforms.
	var u uniformSet
	if !passthrough {
		u.addReads(req.Dangs)
		u.addReads(req.Additional)
		u.addGlobal("viewportSize")
		g.lightingRequirements(&u)
		if lit || g.gbuffer() {
			u.addGlobal("cameraPos", "fogColour")
			u.addBody("fade")
		}
		if req.Shape == ShapeDecal {
			u.addBody("world", "invWorld")
		}
		if req.Flags.DepthFromGBuffer {
			u.addGlobal("viewProj")
		}
	}

	// 2. Describe the interface.
	io := &IO{Fragment: true, Depth: req.Flags.DepthFromGBuffer}
	if g.packing() {
		io.Inputs = transVaryings(req.Trans.Len())
	}
	if g.gbuffer() {
		for i := 0; i < 3; i++ {
			io.Outputs = append(io.Outputs, Varying{
				Kind:  VaryingColour,
				Name:  fmt.Sprintf("out_gbuffer%d", i),
				Type:  ir.Float4,
				Index: i,
			})
		}
	} else {
		io.Outputs = []Varying{{Kind: VaryingColour, Name: "out_colour_alpha", Type: ir.Float4}}
	}

	// 3. Declarations.
	g.d.Header(w, true)
	writeAliases(w, g.d)
	g.d.Shims(w)
	u.write(w, g.d, req.Ctx)
	g.d.Interface(w, io)
	w.Line("")

	if passthrough {
		g.d.BeginMain(w, io)
		w.Line("out_colour_alpha = Float4(1.0, 1.0, 1.0, 1.0);")
		g.d.EndMain(w, io)
		return w.String()
	}

	g.fragmentGlobals(w)
	w.Line("")

	// 4. Functions.
	writeLibrary(w)
	g.writeLighting(w)
	if req.Dangs != nil {
		g.emitter(w, prefixOut, false).function("func_user_dangs", req.Dangs.Root)
		w.Line("")
	}
	if req.Additional != nil {
		g.emitter(w, prefixOutAdd, false).function("func_user_colour", req.Additional.Root)
		w.Line("")
	}

	// 5. Entry point.
	g.d.BeginMain(w, io)
	w.Line("frag_screen = %s;", g.d.FragCoord(req.Ctx.LegacyClipSpace))
	if req.Shape == ShapeDecal {
		g.reconstructDecal(w)
	} else {
		unpack(w, g.d, req.Trans)
	}
	g.defaults(w)
	if req.Dangs != nil {
		w.Line("func_user_dangs();")
	}
	if req.Additional != nil {
		w.Line("func_user_colour();")
	}

	switch {
	case req.Shape == ShapeColour:
		g.colourEpilogue(w)
	case req.Flags.Cast:
		if req.Dangs != nil {
			w.Line("if (out_alpha < 0.5) {")
			w.Line("    discard;")
			w.Line("}")
		}
		w.Line("out_colour_alpha = Float4(internal_depth, 0.0, 0.0, 1.0);")
	case g.gbuffer():
		g.gbufferEpilogue(w)
	default:
		g.litEpilogue(w)
	}
	g.d.EndMain(w, io)

	return w.String()
}

// fragmentGlobals declares the unpacked inputs and the stage outputs.
func (g *generator) fragmentGlobals(w *Writer) {
	req := g.req
	decl := func(t ir.Type, name string) {
		w.Line("%s%s;", g.d.GlobalPrefix(), Declare(t, name))
	}

	decl(ir.Float2, prefixFrag+"screen")
	for _, root := range req.Trans.Roots(ir.TransVertexAttribute) {
		f, _ := req.Ctx.Vert.Lookup(root)
		decl(f.Type, prefixVert+root)
	}
	for _, d := range g.capturedDefs() {
		decl(d.Type, userName(d.Name))
	}
	if req.Shape == ShapeDecal {
		decl(ir.Float3, prefixInternal+"position")
		decl(ir.Float3, prefixInternal+"normal")
	} else {
		for _, root := range req.Trans.Roots(ir.TransInternal) {
			decl(internalTrans[root], prefixInternal+root)
		}
	}

	if req.Dangs != nil {
		for _, f := range check.OutFields(ir.StageDangs).Fields() {
			decl(f.Type, prefixOut+f.Name)
		}
	}
	if req.Additional != nil {
		for _, f := range check.OutFields(ir.StageColourAlpha).Fields() {
			decl(f.Type, prefixOutAdd+f.Name)
		}
	}
}

// capturedDefs returns the vertex-stage variables read by later stages, in
// declaration order.
func (g *generator) capturedDefs() []*ir.Def {
	req := g.req
	if req.Vertex == nil {
		return nil
	}
	var captured check.NameSet
	for _, root := range req.Trans.Roots(ir.TransUserVariable) {
		captured.Add(root)
	}
	var out []*ir.Def
	for _, def := range req.Vertex.Checker.TopLevel {
		if d := req.Arena.Def(def); captured.Has(d.Name) {
			out = append(out, d)
		}
	}
	return out
}

// defaults initializes the stage outputs before the user code runs.
func (g *generator) defaults(w *Writer) {
	if g.req.Dangs != nil {
		w.Line("out_diffuse = Float3(0.5, 0.5, 0.5);")
		w.Line("out_alpha = 1.0;")
		if g.req.Shape == ShapeDecal || g.req.Trans.Contains(ir.TransInternal, "normal", "x") {
			w.Line("out_normal = internal_normal;")
		} else {
			w.Line("out_normal = Float3(0.0, 0.0, 1.0);")
		}
		w.Line("out_gloss = 0.0;")
		w.Line("out_specular = 0.04;")
	}
	if g.req.Additional != nil {
		w.Line("out_add_colour = Float3(0.0, 0.0, 0.0);")
		w.Line("out_add_alpha = 1.0;")
	}
}

// reconstructDecal recovers the surface under the fragment from the G-buffer
// and synthesizes the vertex attributes of the decal box. The vertex stage
// does not run for decals, so variables it would have computed read as zero.
func (g *generator) reconstructDecal(w *Writer) {
	w.Line("Float4 gbuffer0;")
	w.Line("Float4 gbuffer1;")
	w.Line("Float4 gbuffer2;")
	w.Line("internal_read_gbuffer(gbuffer0, gbuffer1, gbuffer2);")
	w.Line("Float surface_dist = unpack_deferred_cam_dist(gbuffer0, gbuffer1, gbuffer2);")
	w.Line("internal_position = global_cameraPos + internal_ray(frag_screen) * surface_dist;")
	w.Line("Float3 decal_pos = mul(body_invWorld, Float4(internal_position, 1.0)).xyz;")
	w.Line("if (abs(decal_pos.x) > 0.5 || abs(decal_pos.y) > 0.5 || abs(decal_pos.z) > 0.5) {")
	w.Line("    discard;")
	w.Line("}")
	w.Line("internal_normal = normalize(mul(body_world, Float4(0.0, 0.0, 1.0, 0.0)).xyz);")

	for _, root := range g.req.Trans.Roots(ir.TransVertexAttribute) {
		var v string
		switch root {
		case "position":
			v = "Float4(decal_pos, 1.0)"
		case "normal":
			v = "Float3(0.0, 0.0, 1.0)"
		case "tangent":
			v = "Float4(1.0, 0.0, 0.0, 1.0)"
		case "colour":
			v = "Float4(1.0, 1.0, 1.0, 1.0)"
		case "coord0":
			v = "Float4(decal_pos.x + 0.5, 0.5 - decal_pos.y, 0.0, 0.0)"
		default:
			v = "Float4(0.0, 0.0, 0.0, 0.0)"
		}
		w.Line("vert_%s = %s;", root, v)
	}

	e := g.emitter(w, prefixOut, false)
	for _, d := range g.capturedDefs() {
		e.zero(userName(d.Name), d.Type)
	}
}

func (g *generator) colourEpilogue(w *Writer) {
	if g.req.Flags.DepthFromGBuffer {
		w.Line("Float4 gbuffer0;")
		w.Line("Float4 gbuffer1;")
		w.Line("Float4 gbuffer2;")
		w.Line("internal_read_gbuffer(gbuffer0, gbuffer1, gbuffer2);")
		w.Line("Float surface_dist = unpack_deferred_cam_dist(gbuffer0, gbuffer1, gbuffer2);")
		w.Line("Float3 surface_pos = global_cameraPos + internal_ray(frag_screen) * surface_dist;")
		w.Line("Float4 surface_clip = mul(global_viewProj, Float4(surface_pos, 1.0));")
		w.Line("%s = %s;", g.d.DepthOutput(), g.d.NdcDepth("surface_clip.z / surface_clip.w"))
	}
	w.Line("out_colour_alpha = Float4(out_add_colour, out_add_alpha);")
}

func (g *generator) gbufferEpilogue(w *Writer) {
	w.Line("Float cam_dist = distance(internal_position, global_cameraPos);")
	if g.env.FadeDither {
		w.Line("if (internal_fade_dither() > body_fade) {")
		w.Line("    discard;")
		w.Line("}")
	}
	if g.req.Dangs == nil {
		w.Line("internal_pack_deferred(out_gbuffer0, out_gbuffer1, out_gbuffer2, " +
			"Float3(0.5, 0.5, 0.5), normalize(internal_normal), 0.04, 0.0, cam_dist);")
		return
	}
	w.Line("internal_pack_deferred(out_gbuffer0, out_gbuffer1, out_gbuffer2, " +
		"out_diffuse, normalize(out_normal), out_specular, out_gloss, cam_dist);")
}

// litEpilogue lights the DANGS outputs, adds the additional colour and fogs
// the result.
func (g *generator) litEpilogue(w *Writer) {
	req := g.req
	w.Line("Float3 view_dir = normalize(internal_position - global_cameraPos);")
	w.Line("Float cam_dist = distance(internal_position, global_cameraPos);")
	w.Line("Float3 colour = Float3(0.0, 0.0, 0.0);")
	w.Line("Float alpha = 1.0;")
	if req.Dangs != nil {
		w.Line("Float3 normal_ws = normalize(out_normal);")
		w.Line("Float3 spec_col = Float3(out_specular, out_specular, out_specular);")
		w.Line("colour = sunlight(internal_position, view_dir, normal_ws, out_diffuse, spec_col, out_gloss, cam_dist);")
		w.Line("colour = colour + envlight(view_dir, normal_ws, out_diffuse, spec_col, out_gloss);")
		w.Line("alpha = out_alpha;")
	}
	if req.Additional != nil {
		w.Line("colour = colour + out_add_colour;")
		if req.Dangs == nil {
			w.Line("alpha = out_add_alpha;")
		}
	}
	if req.Dangs != nil {
		w.Line("colour = lerp(global_fogColour, colour, fog_weakness(cam_dist));")
	} else {
		w.Line("colour = colour * fog_weakness(cam_dist);")
	}
	if g.env.FadeDither {
		w.Line("if (internal_fade_dither() > body_fade) {")
		w.Line("    discard;")
		w.Line("}")
	} else {
		w.Line("alpha = alpha * body_fade;")
	}
	w.Line("out_colour_alpha = Float4(colour, alpha);")
}

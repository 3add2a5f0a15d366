package backend

import (
	"fmt"

	"github.com/gogpu/gasoline/ir"
)

// writeAliases defines every Gasoline type name as its target spelling, so
// generated code can be written in Gasoline's type vocabulary.
func writeAliases(w *Writer, d Dialect) {
	var types []ir.Type
	for n := 1; n <= 4; n++ {
		types = append(types, ir.FloatVec{Dim: n})
	}
	for n := 1; n <= 4; n++ {
		types = append(types, ir.IntVec{Dim: n})
	}
	types = append(types, ir.Bool)
	for wd := 2; wd <= 4; wd++ {
		for h := 2; h <= 4; h++ {
			types = append(types, ir.FloatMatrix{W: wd, H: h})
		}
	}
	for _, dim := range []ir.TextureDim{ir.Tex1D, ir.Tex2D, ir.Tex3D, ir.TexCube} {
		types = append(types, ir.Texture{Dim: dim})
	}
	for _, t := range types {
		w.Line("#define %s %s", t, d.TypeAlias(t))
	}
	w.Line("")
}

// ModHelper names the floored modulo written by writeLibrary. Float % and
// the mod builtin both lower to it, so every target rounds toward negative
// infinity.
const ModHelper = "floor_mod"

// writeLibrary writes the user-callable functions that are not target
// intrinsics.
func writeLibrary(w *Writer) {
	for n := 1; n <= 4; n++ {
		t := ir.FloatVec{Dim: n}.String()
		w.Open("%s %s(%s x, %s y)", t, ModHelper, t, t)
		w.Line("return x - y * floor(x / y);")
		w.Close()
		w.Open("%s gamma_decode(%s v)", t, t)
		w.Line("return pow(v, %s);", Splat(n, "2.2"))
		w.Close()
		w.Open("%s gamma_encode(%s v)", t, t)
		w.Line("return pow(v, %s);", Splat(n, "1.0 / 2.2"))
		w.Close()
	}
	w.Open("Float3 desaturate(Float3 c, Float sat)")
	w.Line("Float grey = dot(c, Float3(0.3333, 0.3333, 0.3333));")
	w.Line("return lerp(Float3(grey, grey, grey), c, sat);")
	w.Close()
	w.Open("Float4 pma_decode(Float4 c)")
	w.Line("return Float4(c.rgb / c.a, c.a);")
	w.Close()
	w.Line("")
}

// transformRequirements registers the inputs of writeTransform.
func (g *generator) transformRequirements(u *uniformSet) {
	switch {
	case g.env.BoneWeights > 0:
		u.addBody("boneWorlds")
	case g.env.Instanced:
	default:
		u.addBody("world")
	}
	if g.req.Flags.FirstPerson {
		u.addGlobal("cameraPos")
	}
}

// writeTransform writes transform_to_world and rotate_to_world for the
// configured skinning and instancing.
func (g *generator) writeTransform(w *Writer) {
	world := func(p string) []string {
		switch {
		case g.env.BoneWeights > 0:
			lines := make([]string, 0, g.env.BoneWeights)
			for i := 0; i < g.env.BoneWeights; i++ {
				c := ir.LaneLetter(i)
				bone := g.d.Convert(ir.Int, "vert_boneAssignments."+c)
				term := fmt.Sprintf("vert_boneWeights.%s * mul(body_boneWorlds[%s], %s).xyz", c, bone, p)
				if i == 0 {
					lines = append(lines, "Float3 r = "+term+";")
				} else {
					lines = append(lines, "r = r + "+term+";")
				}
			}
			return lines
		case g.env.Instanced:
			m := g.d.MatrixFromRows(ir.FloatMatrix{W: 4, H: 3},
				[]string{"vert_coord5", "vert_coord6", "vert_coord7"})
			return []string{fmt.Sprintf("Float3 r = mul(%s, %s);", m, p)}
		default:
			return []string{fmt.Sprintf("Float3 r = mul(body_world, %s).xyz;", p)}
		}
	}

	w.Open("Float3 transform_to_world(Float3 v)")
	for _, l := range world("Float4(v, 1.0)") {
		w.Line("%s", l)
	}
	if g.req.Flags.FirstPerson {
		w.Line("r = r + global_cameraPos;")
	}
	w.Line("return r;")
	w.Close()

	w.Open("Float3 rotate_to_world(Float3 v)")
	for _, l := range world("Float4(v, 0.0)") {
		w.Line("%s", l)
	}
	w.Line("return r;")
	w.Close()
	w.Line("")
}

// lightingRequirements registers the inputs of writeLighting.
func (g *generator) lightingRequirements(u *uniformSet) {
	u.addGlobal(
		"cameraPos", "farClipDistance", "fogDensity", "viewportSize",
		"rayTopLeft", "rayTopRight", "rayBottomLeft", "rayBottomRight",
		"gbuffer0", "gbuffer1", "gbuffer2",
		"sunlightDirection", "sunlightDiffuse", "sunlightSpecular",
		"shadowMap0", "shadowMap1", "shadowMap2",
		"shadowViewProj0", "shadowViewProj1", "shadowViewProj2",
	)
	if g.env.ShadowDither == ir.DitherNoise {
		u.addGlobal("shadowPcfNoiseMap")
	}
	if g.env.EnvBoxes >= 1 {
		u.addGlobal("envCube0", "envCubeMipmaps0")
	}
	if g.env.EnvBoxes == 2 {
		u.addGlobal("envCube1", "envCubeMipmaps1", "envCubeCrossFade")
	}
	if g.env.FadeDither {
		u.addGlobal("fadeDitherMap")
	}
}

// writeLighting writes the fragment helpers: fog, G-buffer packing, shadows,
// sun and environment lighting. They read frag_screen, so it must be
// declared first.
func (g *generator) writeLighting(w *Writer) {
	d := g.d
	env := g.env

	w.Open("Float fog_weakness(Float cam_dist)")
	w.Line("Float x = cam_dist * global_fogDensity;")
	w.Line("return exp(-(x * x));")
	w.Close()

	w.Open("Float3 internal_pack_depth(Float d)")
	w.Line("Float3 r = frac(d * Float3(1.0, 255.0, 65025.0));")
	w.Line("r.xy = r.xy - r.yz / 255.0;")
	w.Line("return r;")
	w.Close()

	w.Open("Float internal_unpack_depth(Float3 r)")
	w.Line("return dot(r, Float3(1.0, 1.0 / 255.0, 1.0 / 65025.0));")
	w.Close()

	w.Open("void internal_pack_deferred(out Float4 g0, out Float4 g1, out Float4 g2, " +
		"Float3 diffuse, Float3 normal, Float specular, Float gloss, Float cam_dist)")
	w.Line("Float3 d = internal_pack_depth(cam_dist / global_farClipDistance);")
	w.Line("g0 = Float4(diffuse, d.x);")
	w.Line("g1 = Float4(normal * 0.5 + 0.5, d.y);")
	w.Line("g2 = Float4(specular, gloss, 1.0, d.z);")
	w.Close()

	const gbufferParams = "(Float4 g0, Float4 g1, Float4 g2)"
	w.Open("Float3 unpack_deferred_diffuse_colour" + gbufferParams)
	w.Line("return g0.rgb;")
	w.Close()
	w.Open("Float unpack_deferred_specular" + gbufferParams)
	w.Line("return g2.r;")
	w.Close()
	w.Open("Float unpack_deferred_gloss" + gbufferParams)
	w.Line("return g2.g;")
	w.Close()
	w.Open("Float unpack_deferred_cam_dist" + gbufferParams)
	w.Line("return internal_unpack_depth(Float3(g0.a, g1.a, g2.a)) * global_farClipDistance;")
	w.Close()
	w.Open("Float3 unpack_deferred_normal" + gbufferParams)
	w.Line("return normalize(g1.xyz * 2.0 - 1.0);")
	w.Close()

	w.Open("void internal_read_gbuffer(out Float4 g0, out Float4 g1, out Float4 g2)")
	w.Line("Float2 uv = %s;", d.ScreenToUV("frag_screen"))
	for i := 0; i < 3; i++ {
		w.Line("g%d = %s;", i, d.Sample(SampleBasic, ir.Tex2D, fmt.Sprintf("global_gbuffer%d", i), "uv"))
	}
	w.Close()

	w.Open("Float3 internal_ray(Float2 screen)")
	w.Line("Float2 uv = screen / global_viewportSize;")
	w.Line("Float3 bottom = lerp(global_rayBottomLeft, global_rayBottomRight, uv.x);")
	w.Line("Float3 top = lerp(global_rayTopLeft, global_rayTopRight, uv.x);")
	w.Line("return normalize(lerp(bottom, top, uv.y));")
	w.Close()

	g.writeShadows(w)

	w.Open("Float3 sunlight(Float3 shadow_pos, Float3 d, Float3 n, Float3 diff_col, Float3 spec_col, " +
		"Float gloss, Float cam_dist)")
	w.Line("Float3 l = -global_sunlightDirection;")
	w.Line("Float lambert = saturate(dot(n, l));")
	w.Line("Float3 h = normalize(l - d);")
	w.Line("Float power = exp2(gloss * 10.0 + 1.0);")
	w.Line("Float highlight = pow(saturate(dot(n, h)), power) * (power + 2.0) / 8.0;")
	w.Line("Float shadow = internal_shadow(shadow_pos, cam_dist);")
	w.Line("return shadow * lambert * (diff_col * global_sunlightDiffuse + " +
		"highlight * spec_col * global_sunlightSpecular);")
	w.Close()

	w.Open("Float3 envlight(Float3 d, Float3 n, Float3 diff_col, Float3 spec_col, Float gloss)")
	if env.EnvBoxes == 0 {
		w.Line("return Float3(0.0, 0.0, 0.0);")
	} else {
		w.Line("Float3 r = reflect(d, n);")
		for i := 0; i < env.EnvBoxes; i++ {
			cube := fmt.Sprintf("global_envCube%d", i)
			w.Line("Float mips%d = global_envCubeMipmaps%d - 1.0;", i, i)
			w.Line("Float3 diff_light%d = gamma_decode(%s.rgb);", i,
				d.Sample(SampleLod, ir.TexCube, cube, "n", fmt.Sprintf("mips%d", i)))
			w.Line("Float3 spec_light%d = gamma_decode(%s.rgb);", i,
				d.Sample(SampleLod, ir.TexCube, cube, "r", fmt.Sprintf("(1.0 - gloss) * mips%d", i)))
		}
		if env.EnvBoxes == 2 {
			w.Line("Float3 diff_light = lerp(diff_light0, diff_light1, global_envCubeCrossFade);")
			w.Line("Float3 spec_light = lerp(spec_light0, spec_light1, global_envCubeCrossFade);")
			w.Line("return diff_light * diff_col + spec_light * spec_col;")
		} else {
			w.Line("return diff_light0 * diff_col + spec_light0 * spec_col;")
		}
	}
	w.Close()

	if env.FadeDither {
		w.Open("Float internal_fade_dither()")
		w.Line("return %s.r;", d.Sample(SampleBasic, ir.Tex2D, "global_fadeDitherMap", "frag_screen / 4.0"))
		w.Close()
	}
	w.Line("")
}

// writeShadows writes the cascaded, percentage-closer filtered shadow lookup.
func (g *generator) writeShadows(w *Writer) {
	d := g.d
	env := g.env
	side, _ := pcfGridSide(env.ShadowFilterTaps)

	w.Open("Float internal_shadow_pcf(FloatTexture2 map, Float4 shadow_clip, Float spread)")
	w.Line("Float3 ndc = shadow_clip.xyz / shadow_clip.w;")
	w.Line("Float2 uv = %s;", d.ClipToUV("ndc.xy"))
	w.Line("Float depth = %s;", d.NdcDepth("ndc.z"))
	switch env.ShadowDither {
	case ir.DitherNoise:
		w.Line("Float2 offset = %s.xy - 0.5;",
			d.Sample(SampleBasic, ir.Tex2D, "global_shadowPcfNoiseMap", "frag_screen / 64.0"))
	case ir.DitherOrdered:
		w.Line("Float2 offset = frac(floor(frag_screen) * 0.5) - 0.25;")
	default:
		w.Line("Float2 offset = Float2(0.0, 0.0);")
	}
	w.Line("Float texel = spread / %s;", FormatFloat(float32(env.ShadowRes)))
	w.Line("Float lit = 0.0;")
	centre := float32(side-1) / 2
	for j := 0; j < side; j++ {
		for i := 0; i < side; i++ {
			tap := fmt.Sprintf("uv + (Float2(%s, %s) + offset) * texel",
				FormatFloat(float32(i)-centre), FormatFloat(float32(j)-centre))
			w.Line("lit = lit + (%s.r < depth ? 0.0 : 1.0);", d.Sample(SampleBasic, ir.Tex2D, "map", tap))
		}
	}
	w.Line("return lit / %s;", FormatFloat(float32(side*side)))
	w.Close()

	w.Open("Float internal_shadow(Float3 pos_ws, Float cam_dist)")
	w.Line("if (cam_dist >= %s) {", FormatFloat(env.ShadowFadeEnd))
	w.Line("    return 1.0;")
	w.Line("}")
	w.Line("Float4 p = Float4(pos_ws, 1.0);")
	w.Line("Float lit;")
	for i := 0; i < 3; i++ {
		lookup := fmt.Sprintf("lit = internal_shadow_pcf(global_shadowMap%d, mul(global_shadowViewProj%d, p), %s);",
			i, i, FormatFloat(env.ShadowSpread[i]))
		switch i {
		case 0:
			w.Line("if (cam_dist < %s) {", FormatFloat(env.ShadowDist[0]))
		case 1:
			w.Line("} else if (cam_dist < %s) {", FormatFloat(env.ShadowDist[1]))
		default:
			w.Line("} else {")
		}
		w.Line("    %s", lookup)
	}
	w.Line("}")
	w.Line("Float fade = saturate((cam_dist - %s) / %s);",
		FormatFloat(env.ShadowFadeStart), FormatFloat(env.ShadowFadeEnd-env.ShadowFadeStart))
	w.Line("return lerp(lit, 1.0, fade);")
	w.Close()
}

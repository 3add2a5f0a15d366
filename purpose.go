package gasoline

import (
	"fmt"

	"github.com/gogpu/gasoline/backend"
)

// Backend selects the target language.
type Backend uint8

const (
	// BackendGLSL targets desktop GLSL 3.30.
	BackendGLSL Backend = iota

	// BackendGLSLES targets GLSL ES 3.00.
	BackendGLSLES

	// BackendCg targets Cg.
	BackendCg
)

// String returns the backend name accepted by ParseBackend.
func (b Backend) String() string {
	switch b {
	case BackendGLSL:
		return "glsl"
	case BackendGLSLES:
		return "glsles"
	case BackendCg:
		return "cg"
	default:
		return fmt.Sprintf("Backend(%d)", b)
	}
}

// ParseBackend resolves a backend name.
func ParseBackend(name string) (Backend, error) {
	for _, b := range []Backend{BackendGLSL, BackendGLSLES, BackendCg} {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown backend %q (want glsl, glsles or cg)", name)
}

// Purpose is the kind of draw a program pair is compiled for.
type Purpose uint8

const (
	// PurposeForward writes the G-buffer of an opaque body.
	PurposeForward Purpose = iota

	// PurposeAlpha lights an alpha-blended body in one pass.
	PurposeAlpha

	// PurposeFirstPerson lights a body drawn relative to the camera.
	PurposeFirstPerson

	// PurposeFirstPersonWireframe outlines a first-person body.
	PurposeFirstPersonWireframe

	// PurposeAdditional adds a body's emissive colour.
	PurposeAdditional

	// PurposeCast renders a body into a shadow map.
	PurposeCast

	// PurposeWireframe outlines a body.
	PurposeWireframe

	// PurposeSky draws the sky dome at the far plane.
	PurposeSky

	// PurposeHud draws screen-space overlays.
	PurposeHud

	// PurposeDecal projects a material onto the G-buffer's surfaces.
	PurposeDecal

	// PurposeDeferredAmbientSun lights the G-buffer.
	PurposeDeferredAmbientSun
)

var purposeNames = [...]string{
	PurposeForward:              "forward",
	PurposeAlpha:                "alpha",
	PurposeFirstPerson:          "first_person",
	PurposeFirstPersonWireframe: "first_person_wireframe",
	PurposeAdditional:           "additional",
	PurposeCast:                 "cast",
	PurposeWireframe:            "wireframe",
	PurposeSky:                  "sky",
	PurposeHud:                  "hud",
	PurposeDecal:                "decal",
	PurposeDeferredAmbientSun:   "deferred_ambient_sun",
}

// String returns the purpose name accepted by ParsePurpose.
func (p Purpose) String() string {
	if int(p) < len(purposeNames) {
		return purposeNames[p]
	}
	return fmt.Sprintf("Purpose(%d)", p)
}

// ParsePurpose resolves a purpose name.
func ParsePurpose(name string) (Purpose, error) {
	for i, n := range purposeNames {
		if n == name {
			return Purpose(i), nil
		}
	}
	return 0, fmt.Errorf("unknown purpose %q", name)
}

// Purposes lists every purpose in declaration order.
func Purposes() []Purpose {
	out := make([]Purpose, len(purposeNames))
	for i := range out {
		out[i] = Purpose(i)
	}
	return out
}

// purposeInfo says which stages a purpose checks and how it generates.
type purposeInfo struct {
	shape backend.Shape
	flags backend.Flags

	vertex, dangs, additional bool

	// emitAdditional passes the additional stage to the backend. Forward
	// checks it so that every stage of a material is validated, but the
	// G-buffer has no room for its colour; PurposeAdditional draws it.
	emitAdditional bool

	// internal forces the Internal flag on.
	//
	// Decals check the vertex stage so that the names it declares resolve,
	// but the backend does not emit it.
	internal bool
}

var purposeTable = map[Purpose]purposeInfo{
	PurposeForward: {
		shape:  backend.ShapeBody,
		vertex: true, dangs: true, additional: true,
	},
	PurposeAlpha: {
		shape:  backend.ShapeBody,
		flags:  backend.Flags{ForwardOnly: true},
		vertex: true, dangs: true, additional: true, emitAdditional: true,
	},
	PurposeFirstPerson: {
		shape:  backend.ShapeBody,
		flags:  backend.Flags{ForwardOnly: true, FirstPerson: true},
		vertex: true, dangs: true, additional: true, emitAdditional: true,
	},
	PurposeFirstPersonWireframe: {
		shape:  backend.ShapePassthrough,
		flags:  backend.Flags{FirstPerson: true},
		vertex: true,
	},
	PurposeAdditional: {
		shape:  backend.ShapeBody,
		flags:  backend.Flags{ForwardOnly: true},
		vertex: true, additional: true, emitAdditional: true,
	},
	PurposeCast: {
		shape:  backend.ShapeBody,
		flags:  backend.Flags{Cast: true},
		vertex: true, dangs: true,
	},
	PurposeWireframe: {
		shape:  backend.ShapePassthrough,
		vertex: true,
	},
	PurposeSky: {
		shape:  backend.ShapeColour,
		flags:  backend.Flags{FlatZ: true},
		vertex: true, additional: true, emitAdditional: true,
	},
	PurposeHud: {
		shape:  backend.ShapeColour,
		flags:  backend.Flags{ScreenSpace: true},
		vertex: true, additional: true, emitAdditional: true,
	},
	PurposeDecal: {
		shape:  backend.ShapeDecal,
		flags:  backend.Flags{ForwardOnly: true},
		vertex: true, dangs: true, additional: true, emitAdditional: true,
	},
	PurposeDeferredAmbientSun: {
		shape:    backend.ShapeColour,
		flags:    backend.Flags{DepthFromGBuffer: true},
		vertex:   true, additional: true, emitAdditional: true,
		internal: true,
	},
}

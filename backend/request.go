package backend

import (
	"fmt"

	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/ir"
)

// Shape is the overall structure of the programs generated for a purpose.
type Shape uint8

const (
	// ShapeColour runs the additional stage alone and writes its colour.
	ShapeColour Shape = iota

	// ShapeBody is a lit body: DANGS and/or additional feed lighting or the
	// G-buffer.
	ShapeBody

	// ShapeDecal projects DANGS and additional onto the G-buffer's geometry.
	ShapeDecal

	// ShapePassthrough only transforms vertices and writes a flat colour.
	ShapePassthrough
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeColour:
		return "colour"
	case ShapeBody:
		return "body"
	case ShapeDecal:
		return "decal"
	case ShapePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Flags refine a Shape.
type Flags struct {
	// ForwardOnly lights in the fragment program and writes one colour
	// output. Without it a body writes the G-buffer.
	ForwardOnly bool

	// FirstPerson re-bases world positions on the camera.
	FirstPerson bool

	// Cast renders into a shadow map.
	Cast bool

	// FlatZ pushes every vertex to the far plane.
	FlatZ bool

	// ScreenSpace reads out.position as a pixel position.
	ScreenSpace bool

	// DepthFromGBuffer writes the depth of the G-buffer surface.
	DepthFromGBuffer bool
}

// Stage is one checked shader stage.
type Stage struct {
	Root    ir.NodeID
	Checker *check.Checker
}

// Request is the input of Generate. Stages that a purpose does not run are
// nil.
type Request struct {
	Ctx   *check.Context
	Arena *ir.Arena
	Trans *ir.TransSet

	Vertex     *Stage
	Dangs      *Stage
	Additional *Stage

	Shape Shape
	Flags Flags
}

// Output holds the two generated programs.
type Output struct {
	Vertex   string
	Fragment string
}

func (r *Request) validate() error {
	if err := r.Ctx.Env.Validate(); err != nil {
		return err
	}
	if r.Vertex == nil && r.Shape != ShapeDecal {
		return fmt.Errorf("%s shape needs a vertex stage", r.Shape)
	}
	switch r.Shape {
	case ShapeColour:
		if r.Additional == nil {
			return fmt.Errorf("colour shape needs an additional stage")
		}
	case ShapeBody, ShapeDecal:
		if r.Dangs == nil && r.Additional == nil {
			return fmt.Errorf("%s shape needs a DANGS or additional stage", r.Shape)
		}
	}
	return nil
}

func pcfGridSide(taps int) (int, bool) {
	for side := 1; side <= 4; side++ {
		if side*side == taps {
			return side, true
		}
	}
	return 0, false
}

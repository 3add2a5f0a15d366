// Package gasoline compiles Gasoline shader sources into matched pairs of
// GLSL or Cg programs.
//
// A material is written as up to three stage fragments:
//   - vertex: computes out.position and any values later stages read
//   - DANGS: produces diffuse, alpha, normal, gloss and specular
//   - additional: produces an emissive colour and alpha
//
// The purpose of a draw (forward body, shadow cast, sky, decal, ...) decides
// which stages run and how their outputs are combined into one vertex and one
// fragment program.
//
// Example usage:
//
//	src := gasoline.Source{
//	    Vertex: `out.position = transform_to_world(vert.position.xyz);`,
//	    Dangs:  `out.diffuse = Float3(1, 0, 0);`,
//	}
//	out, err := gasoline.Compile(gasoline.BackendGLSL, gasoline.PurposeAlpha, src, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out.Vertex, out.Fragment)
package gasoline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gasoline/backend"
	"github.com/gogpu/gasoline/cg"
	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/glsl"
	"github.com/gogpu/gasoline/ir"
	"github.com/gogpu/gasoline/lang"
)

// Source holds the text of each stage. Stages a purpose does not run are
// ignored, and an empty text is a valid stage that does nothing.
type Source struct {
	Vertex     string
	Dangs      string
	Additional string
}

// Output is a compiled program pair.
type Output struct {
	Vertex   string
	Fragment string
}

// Compile compiles one purpose of a material for a backend. A nil md uses
// ir.DefaultMetadata.
//
// The compilation pipeline is:
//  1. Build the request context from the metadata
//  2. Parse and check the vertex stage
//  3. Parse and check the DANGS and additional stages, which capture
//     vertex-stage variables into one shared set of interpolated lanes
//  4. Generate both programs with the backend
func Compile(b Backend, p Purpose, src Source, md *ir.Metadata) (*Output, error) {
	info, ok := purposeTable[p]
	if !ok {
		return nil, fmt.Errorf("unknown purpose %d", p)
	}
	if md == nil {
		md = ir.DefaultMetadata()
	}
	if info.internal && !md.Internal {
		md = md.Clone()
		md.Internal = true
	}

	req, err := checkStages(md, src, info)
	if err != nil {
		return nil, err
	}
	req.Shape = info.shape
	req.Flags = info.flags
	if !info.emitAdditional {
		req.Additional = nil
	}

	var out *backend.Output
	switch b {
	case BackendGLSL:
		out, err = glsl.Generate(req, glsl.DefaultOptions())
	case BackendGLSLES:
		out, err = glsl.Generate(req, glsl.Options{LangVersion: glsl.VersionES300, ForceHighPrecision: true})
	case BackendCg:
		out, err = cg.Generate(req)
	default:
		return nil, fmt.Errorf("unknown backend %d", b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: code generation error: %w", p, err)
	}
	return &Output{Vertex: out.Vertex, Fragment: out.Fragment}, nil
}

// Check validates all three stages of a material the way the Forward
// purpose compiles them, without generating code.
func Check(src Source, md *ir.Metadata) error {
	if md == nil {
		md = ir.DefaultMetadata()
	}
	_, err := checkStages(md, src, purposeTable[PurposeForward])
	return err
}

// CompilePurposes compiles several purposes of one material concurrently.
// Each purpose is an independent request; the first failure cancels the
// rest. md is only read.
func CompilePurposes(ctx context.Context, b Backend, purposes []Purpose, src Source, md *ir.Metadata) (map[Purpose]*Output, error) {
	outs := make([]*Output, len(purposes))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range purposes {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := Compile(b, p, src, md)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[Purpose]*Output, len(purposes))
	for i, p := range purposes {
		result[p] = outs[i]
	}
	return result, nil
}

// checkStages parses and checks the stages a purpose runs.
func checkStages(md *ir.Metadata, src Source, info purposeInfo) (*backend.Request, error) {
	ctx, err := check.NewContext(md)
	if err != nil {
		return nil, fmt.Errorf("metadata error: %w", err)
	}

	arena := ir.NewArena()
	req := &backend.Request{
		Ctx:   ctx,
		Arena: arena,
		Trans: ir.NewTransSet(),
	}

	var captured []ir.DefID
	if info.vertex {
		req.Vertex, err = checkStage(req, ir.StageVertex, src.Vertex, nil)
		if err != nil {
			return nil, err
		}
		captured = req.Vertex.Checker.TopLevel
	}
	if info.dangs {
		req.Dangs, err = checkStage(req, ir.StageDangs, src.Dangs, captured)
		if err != nil {
			return nil, err
		}
	}
	if info.additional {
		req.Additional, err = checkStage(req, ir.StageColourAlpha, src.Additional, captured)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

func checkStage(req *backend.Request, stage ir.Stage, text string, captured []ir.DefID) (*backend.Stage, error) {
	root, err := lang.ParseSource(text, req.Arena)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", stage, err)
	}
	c := check.NewChecker(req.Ctx, req.Arena, stage, req.Trans)
	if err := c.Check(root, captured); err != nil {
		var e *ir.Error
		if errors.As(err, &e) {
			e.WithSource(text)
		}
		return nil, fmt.Errorf("%s stage: %w", stage, err)
	}
	return &backend.Stage{Root: root, Checker: c}, nil
}

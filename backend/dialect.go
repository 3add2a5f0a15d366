package backend

import "github.com/gogpu/gasoline/ir"

// SampleOp selects a texture sampling intrinsic.
type SampleOp uint8

const (
	SampleBasic SampleOp = iota
	SampleLod
	SampleGrad
)

// SampleOpOf maps a Gasoline sampling function name to its op.
func SampleOpOf(name string) (SampleOp, bool) {
	switch name {
	case "sample":
		return SampleBasic, true
	case "sampleLod":
		return SampleLod, true
	case "sampleGrad":
		return SampleGrad, true
	default:
		return 0, false
	}
}

// VaryingKind says what a program input or output carries.
type VaryingKind uint8

const (
	// VaryingAttribute is a vertex attribute; Attribute names it.
	VaryingAttribute VaryingKind = iota

	// VaryingTrans is an interpolator slot; Index is the slot number.
	VaryingTrans

	// VaryingColour is a fragment colour output; Index is the render target.
	VaryingColour
)

// Varying is one input or output of a program's main function.
type Varying struct {
	Kind      VaryingKind
	Name      string
	Type      ir.Type
	Attribute string
	Index     int
}

// IO describes the interface of one program.
type IO struct {
	Fragment bool
	Inputs   []Varying
	Outputs  []Varying

	// Depth is set when the fragment program writes depth.
	Depth bool
}

// Dialect supplies the target-syntax leaves of code generation. Everything
// else is shared, so the two targets stay in step.
type Dialect interface {
	// Name identifies the dialect in error messages.
	Name() string

	// Header writes the lines that open a program.
	Header(w *Writer, fragment bool)

	// TypeAlias returns the target spelling of a built-in Gasoline type. The
	// shared code defines every Gasoline type name as a macro for it.
	TypeAlias(t ir.Type) string

	// Shims writes macros and helpers that give Gasoline's intrinsic names
	// their meaning in the target.
	Shims(w *Writer)

	// Sample returns a sampling expression.
	Sample(op SampleOp, dim ir.TextureDim, tex string, args ...string) string

	// Convert returns expr converted to t.
	Convert(t ir.Type, expr string) string

	// VectorEqual compares two vectors of the same type as a single Bool.
	VectorEqual(a, b string, negate bool) string

	// GlobalPrefix is written before mutable program-scope variables.
	GlobalPrefix() string

	// ConstPrefix is written before compile-time constants.
	ConstPrefix() string

	// Uniform returns the declaration of a uniform, without newline.
	Uniform(t ir.Type, name string) string

	// MatrixFromRows builds a matrix from its rows.
	MatrixFromRows(t ir.FloatMatrix, rows []string) string

	// ScreenToUV maps a bottom-left origin pixel position to texture
	// coordinates of a full-screen render target.
	ScreenToUV(screen string) string

	// ClipToUV maps normalized device xy to texture coordinates of a render
	// target drawn with the same projection.
	ClipToUV(ndc string) string

	// Interface writes the program-scope declarations of io.
	Interface(w *Writer, io *IO)

	// BeginMain opens the entry point and binds its inputs.
	BeginMain(w *Writer, io *IO)

	// EndMain closes the entry point.
	EndMain(w *Writer, io *IO)

	// PositionOutput names the clip-space position output.
	PositionOutput() string

	// DepthOutput names the fragment depth output.
	DepthOutput() string

	// FragCoord returns the pixel position of the fragment, origin at the
	// bottom left of the render target.
	FragCoord(legacy bool) string

	// ClipFixup adjusts the clip-space position before it is written.
	ClipFixup(w *Writer, clip string, legacy bool)

	// NdcDepth maps a normalized device z to a depth buffer value.
	NdcDepth(z string) string
}

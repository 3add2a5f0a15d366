package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/ir"
)

// Prefixes of generated names. User identifiers never reach the target
// unprefixed, so they cannot collide with target keywords or with the
// generated code.
const (
	prefixGlobal   = "global_"
	prefixMat      = "mat_"
	prefixBody     = "body_"
	prefixVert     = "vert_"
	prefixFrag     = "frag_"
	prefixUser     = "user_"
	prefixInternal = "internal_"
	prefixOut      = "out_"
	prefixOutAdd   = "out_add_"
)

// Declare returns «T name» with any array extents after the name.
func Declare(t ir.Type, name string) string {
	var dims strings.Builder
	for {
		arr, ok := t.(ir.ArrayType)
		if !ok {
			break
		}
		fmt.Fprintf(&dims, "[%d]", arr.Size)
		t = arr.Elem
	}
	return t.String() + " " + name + dims.String()
}

// Splat returns a vector of type FloatN with every component set to value.
func Splat(n int, value string) string {
	if n == 1 {
		return value
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = value
	}
	return fmt.Sprintf("Float%d(%s)", n, strings.Join(parts, ", "))
}

func userName(name string) string {
	return prefixUser + name
}

// emitter writes the statements and expressions of checked stages.
type emitter struct {
	d     Dialect
	ctx   *check.Context
	arena *ir.Arena
	w     *Writer

	// outPrefix mangles the out fields of the stage being emitted.
	outPrefix string

	// globals makes top-level declarations assign program-scope variables.
	globals bool
}

// function writes a stage as a parameterless function.
func (e *emitter) function(name string, root ir.NodeID) {
	shader, ok := e.arena.Node(root).(ir.Shader)
	if !ok {
		ir.Unreachable("expected Shader root, got %T", e.arena.Node(root))
	}
	e.w.Open("void %s()", name)
	for _, s := range shader.Stmts {
		e.stmt(s)
	}
	e.w.Close()
}

func (e *emitter) stmt(id ir.NodeID) {
	switch n := e.arena.Node(id).(type) {
	case ir.Decl:
		e.decl(id, n)

	case ir.Assign:
		e.store(e.expr(n.Target), e.arena.Type(n.Target), n.Value)

	case ir.If:
		e.w.Line("if (%s) {", e.expr(n.Cond))
		e.body(n.Yes)
		if n.No.Valid() {
			e.w.Line("} else {")
			e.body(n.No)
		}
		e.w.Line("}")

	case ir.For:
		e.forLoop(n)

	case ir.Block:
		e.w.Line("{")
		e.body(id)
		e.w.Line("}")

	case ir.Discard:
		e.w.Line("discard;")

	case ir.Return:
		e.w.Line("return;")

	default:
		ir.Unreachable("unexpected statement %T", n)
	}
}

// body writes a branch or loop body one level deeper, without braces.
func (e *emitter) body(id ir.NodeID) {
	e.w.Push()
	if b, ok := e.arena.Node(id).(ir.Block); ok {
		for _, s := range b.Stmts {
			e.stmt(s)
		}
	} else {
		e.stmt(id)
	}
	e.w.Pop()
}

func (e *emitter) decl(id ir.NodeID, n ir.Decl) {
	def := e.arena.Def(e.arena.DefOf(id))
	name := userName(n.Name)
	global := e.globals && def.TopLevel

	_, isArray := def.Type.(ir.ArrayType)
	if !global && !isArray && n.Init.Valid() {
		e.w.Line("%s = %s;", Declare(def.Type, name), e.expr(n.Init))
		return
	}
	if !global {
		e.w.Line("%s;", Declare(def.Type, name))
	}
	if n.Init.Valid() {
		e.store(name, def.Type, n.Init)
	} else {
		e.zero(name, def.Type)
	}
}

// store assigns value to target. Array literals become one assignment per
// element.
func (e *emitter) store(target string, t ir.Type, value ir.NodeID) {
	if lit, ok := e.arena.Node(value).(ir.LiteralArray); ok {
		for i, el := range lit.Elems {
			e.store(fmt.Sprintf("%s[%d]", target, i), lit.Elem, el)
		}
		return
	}
	e.w.Line("%s = %s;", target, e.expr(value))
}

// zero writes the zero value of t into target, last component first.
func (e *emitter) zero(target string, t ir.Type) {
	switch x := t.(type) {
	case ir.FloatVec:
		zeroVector(e.w, target, x.Dim, "0.0")
	case ir.IntVec:
		zeroVector(e.w, target, x.Dim, "0")
	case ir.BoolType:
		e.w.Line("%s = false;", target)
	case ir.ArrayType:
		for i := 0; i < x.Size; i++ {
			e.zero(fmt.Sprintf("%s[%d]", target, i), x.Elem)
		}
	default:
		ir.Unreachable("cannot zero-initialize %s", t)
	}
}

func zeroVector(w *Writer, target string, dim int, zero string) {
	if dim == 1 {
		w.Line("%s = %s;", target, zero)
		return
	}
	for i := dim - 1; i >= 0; i-- {
		w.Line("%s.%s = %s;", target, ir.LaneLetter(i), zero)
	}
}

// forLoop writes a C-style loop when its clauses fit in the header, and an
// equivalent block with a while loop otherwise. Gasoline has no continue, so
// running the increment at the end of the body is the same.
func (e *emitter) forLoop(n ir.For) {
	if init, ok := e.forInit(n); ok {
		if inc, ok := e.simpleAssign(n.Inc); ok {
			e.w.Line("for (%s; %s; %s) {", init, e.expr(n.Cond), inc)
			e.body(n.Body)
			e.w.Line("}")
			return
		}
	}

	e.w.Line("{")
	e.w.Push()
	if n.Decl.Valid() {
		e.stmt(n.Decl)
	} else {
		e.stmt(n.Init)
	}
	e.w.Line("while (%s) {", e.expr(n.Cond))
	e.body(n.Body)
	e.w.Push()
	e.stmt(n.Inc)
	e.w.Pop()
	e.w.Line("}")
	e.w.Pop()
	e.w.Line("}")
}

func (e *emitter) forInit(n ir.For) (string, bool) {
	if !n.Decl.Valid() {
		return e.simpleAssign(n.Init)
	}
	d, ok := e.arena.Node(n.Decl).(ir.Decl)
	if !ok {
		ir.Unreachable("loop declaration is %T", e.arena.Node(n.Decl))
	}
	def := e.arena.Def(e.arena.DefOf(n.Decl))
	if _, isArray := def.Type.(ir.ArrayType); isArray || !d.Init.Valid() {
		return "", false
	}
	return Declare(def.Type, userName(d.Name)) + " = " + e.expr(d.Init), true
}

func (e *emitter) simpleAssign(id ir.NodeID) (string, bool) {
	a, ok := e.arena.Node(id).(ir.Assign)
	if !ok {
		ir.Unreachable("loop clause is %T", e.arena.Node(id))
	}
	if _, isArray := e.arena.Type(a.Target).(ir.ArrayType); isArray {
		return "", false
	}
	return e.expr(a.Target) + " = " + e.expr(a.Value), true
}

func (e *emitter) expr(id ir.NodeID) string {
	switch n := e.arena.Node(id).(type) {
	case ir.LiteralInt:
		return strconv.FormatInt(n.Value, 10)
	case ir.LiteralFloat:
		return floatText(n)
	case ir.LiteralBool:
		return strconv.FormatBool(n.Value)
	case ir.Var:
		return userName(n.Name)
	case ir.Field:
		return e.field(id, n)
	case ir.ArrayLookup:
		return e.expr(n.Target) + "[" + e.expr(n.Index) + "]"
	case ir.Call:
		return e.call(id, n)
	case ir.Binary:
		return e.binary(n)
	case ir.LiteralArray:
		ir.Unreachable("array literal outside an assignment")
	case ir.NamespaceRef:
		ir.Unreachable("namespace %s used as a value", n.Space.Keyword())
	default:
		ir.Unreachable("unexpected expression %T", n)
	}
	return ""
}

func floatText(n ir.LiteralFloat) string {
	if n.Text != "" {
		return n.Text
	}
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (e *emitter) field(id ir.NodeID, n ir.Field) string {
	if ns, ok := e.arena.Node(n.Target).(ir.NamespaceRef); ok {
		return e.namespaceField(ns.Space, n.Name)
	}

	target := e.expr(n.Target)
	switch e.arena.Node(n.Target).(type) {
	case ir.LiteralInt, ir.LiteralFloat:
		target = "(" + target + ")"
	}
	if ir.VectorDim(e.arena.Type(n.Target)) == 1 {
		if len(n.Name) == 1 {
			return target
		}
		return e.d.Convert(e.arena.Type(id), target)
	}
	return target + "." + n.Name
}

func (e *emitter) namespaceField(space ir.Namespace, name string) string {
	switch space {
	case ir.NSGlobal:
		return prefixGlobal + name
	case ir.NSMat:
		return prefixMat + name
	case ir.NSBody:
		return prefixBody + name
	case ir.NSVert:
		return prefixVert + name
	case ir.NSFrag:
		return prefixFrag + name
	case ir.NSOut:
		return e.outPrefix + name
	default:
		ir.Unreachable("unknown namespace %d", space)
		return ""
	}
}

func (e *emitter) call(id ir.NodeID, n ir.Call) string {
	if n.Conversion {
		return e.d.Convert(e.arena.Type(id), e.expr(n.Args[0]))
	}
	if op, ok := SampleOpOf(n.Name); ok {
		return e.sample(op, n)
	}

	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.expr(a)
	}
	if t, ok := ir.ParseTypeName(n.Name); ok {
		if m, isMatrix := t.(ir.FloatMatrix); isMatrix {
			return e.d.MatrixFromRows(m, args)
		}
		if len(args) == 1 {
			// The checker already wrapped a splat argument in a conversion.
			if c, ok := e.arena.Node(n.Args[0]).(ir.Call); ok && c.Conversion && ir.Equal(e.arena.Type(n.Args[0]), t) {
				return args[0]
			}
			return e.d.Convert(t, args[0])
		}
	}
	name := n.Name
	if name == "mod" {
		name = ModHelper
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

func (e *emitter) sample(op SampleOp, n ir.Call) string {
	tex, ok := e.arena.Type(n.Args[0]).(ir.Texture)
	if !ok {
		ir.Unreachable("%s of a non-texture %s", n.Name, e.arena.Type(n.Args[0]))
	}
	if tex.Solid {
		return colourLiteral(tex.Colour)
	}
	args := make([]string, len(n.Args)-1)
	for i, a := range n.Args[1:] {
		args[i] = e.expr(a)
	}
	return e.d.Sample(op, tex.Dim, e.expr(n.Args[0]), args...)
}

func colourLiteral(c [4]float32) string {
	return fmt.Sprintf("Float4(%s, %s, %s, %s)",
		FormatFloat(c[0]), FormatFloat(c[1]), FormatFloat(c[2]), FormatFloat(c[3]))
}

func (e *emitter) binary(n ir.Binary) string {
	a, b := e.expr(n.A), e.expr(n.B)
	t := e.arena.Type(n.A)
	switch n.Op {
	case ir.OpMod:
		if _, isFloat := t.(ir.FloatVec); isFloat {
			return ModHelper + "(" + a + ", " + b + ")"
		}
	case ir.OpEqual, ir.OpNotEqual:
		if ir.VectorDim(t) > 1 {
			return e.d.VectorEqual(a, b, n.Op == ir.OpNotEqual)
		}
	}
	return "(" + a + " " + n.Op.String() + " " + b + ")"
}

package check

import (
	"strings"

	"github.com/gogpu/gasoline/ir"
)

// NameSet is an insertion-ordered set of names.
type NameSet struct {
	names []string
	seen  map[string]struct{}
}

// Add inserts name unless present.
func (s *NameSet) Add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
}

// Has reports whether name is present.
func (s *NameSet) Has(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Names returns the names in insertion order.
func (s *NameSet) Names() []string {
	return s.names
}

// Len returns the number of names.
func (s *NameSet) Len() int {
	return len(s.names)
}

// Checker type-checks one stage. It is not safe for concurrent use; each
// stage of each request gets its own Checker.
type Checker struct {
	ctx   *Context
	arena *ir.Arena
	stage ir.Stage
	trans *ir.TransSet

	out  *FieldTable
	frag *FieldTable

	scopes        []ir.ScopeID
	capturedScope ir.ScopeID
	shaderScope   ir.ScopeID

	VertFieldsRead   NameSet
	GlobalFieldsRead NameSet
	MatFieldsRead    NameSet
	BodyFieldsRead   NameSet
	FragFieldsRead   NameSet
	OutFieldsWritten NameSet

	// TopLevel lists the variables declared at the top level of the stage,
	// in declaration order.
	TopLevel []ir.DefID

	UsesDiscard bool
}

// NewChecker creates a checker for one stage. Trans lanes discovered by the
// checker are added to trans, which later stages of the same request share.
func NewChecker(ctx *Context, arena *ir.Arena, stage ir.Stage, trans *ir.TransSet) *Checker {
	return &Checker{
		ctx:   ctx,
		arena: arena,
		stage: stage,
		trans: trans,
		out:   OutFields(stage),
		frag:  FragFields(stage),
	}
}

// Stage returns the stage being checked.
func (c *Checker) Stage() ir.Stage {
	return c.stage
}

// Check type-checks shader. captured lists the vertex-stage top-level
// variables visible to this stage; it is empty for the vertex stage itself.
// The first error aborts the check.
func (c *Checker) Check(shader ir.NodeID, captured []ir.DefID) error {
	root, ok := c.arena.Node(shader).(ir.Shader)
	if !ok {
		ir.Unreachable("expected Shader root, got %T", c.arena.Node(shader))
	}

	c.capturedScope = c.arena.NewScope()
	for _, id := range captured {
		d := c.arena.Def(id)
		c.arena.Declare(c.capturedScope, c.arena.NewDef(ir.Def{
			Name:  d.Name,
			Type:  d.Type,
			Trans: true,
		}))
	}

	c.shaderScope = root.Scope
	c.scopes = []ir.ScopeID{c.capturedScope, root.Scope}
	for _, stmt := range root.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	c.arena.SetType(shader, ir.Void, false)
	return nil
}

func (c *Checker) errorf(id ir.NodeID, format string, args ...interface{}) *ir.Error {
	return ir.Errorf(ir.ErrType, c.arena.Loc(id), format, args...)
}

func (c *Checker) push(scope ir.ScopeID) {
	c.scopes = append(c.scopes, scope)
}

func (c *Checker) pop() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Checker) lookup(name string) (ir.DefID, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if id, ok := c.arena.Scope(c.scopes[i]).Lookup(name); ok {
			return id, true
		}
	}
	return ir.NoDef, false
}

// scoped checks stmt with scope pushed.
func (c *Checker) scoped(scope ir.ScopeID, stmt ir.NodeID) *ir.Error {
	c.push(scope)
	defer c.pop()
	return c.stmt(stmt)
}

func (c *Checker) stmt(id ir.NodeID) *ir.Error {
	switch n := c.arena.Node(id).(type) {
	case ir.Decl:
		if err := c.decl(id, n); err != nil {
			return err
		}

	case ir.Assign:
		target, err := c.expr(n.Target, access{write: true})
		if err != nil {
			return err
		}
		if !ir.IsFirstClass(target) {
			return c.errorf(n.Target, "cannot assign to a value of type %s", target)
		}
		if !c.arena.Writeable(n.Target) {
			return c.errorf(n.Target, "cannot assign to a read-only value")
		}
		if err := c.value(n.Value, target); err != nil {
			return err
		}

	case ir.If:
		if err := c.condition(n.Cond); err != nil {
			return err
		}
		if err := c.scoped(n.YesScope, n.Yes); err != nil {
			return err
		}
		if n.No.Valid() {
			if err := c.scoped(n.NoScope, n.No); err != nil {
				return err
			}
		}

	case ir.For:
		c.push(n.Scope)
		err := c.forClauses(n)
		c.pop()
		if err != nil {
			return err
		}

	case ir.Block:
		c.push(n.Scope)
		for _, s := range n.Stmts {
			if err := c.stmt(s); err != nil {
				c.pop()
				return err
			}
		}
		c.pop()

	case ir.Discard:
		if c.stage == ir.StageVertex {
			return c.errorf(id, "discard is not allowed in the vertex stage")
		}
		c.UsesDiscard = true

	case ir.Return:

	default:
		ir.Unreachable("unexpected statement %T", n)
	}
	c.arena.SetType(id, ir.Void, false)
	return nil
}

func (c *Checker) forClauses(n ir.For) *ir.Error {
	init := n.Init
	if n.Decl.Valid() {
		init = n.Decl
	}
	if err := c.stmt(init); err != nil {
		return err
	}
	if err := c.condition(n.Cond); err != nil {
		return err
	}
	if err := c.stmt(n.Inc); err != nil {
		return err
	}
	return c.stmt(n.Body)
}

func (c *Checker) condition(id ir.NodeID) *ir.Error {
	t, err := c.expr(id, access{})
	if err != nil {
		return err
	}
	if !ir.Equal(t, ir.Bool) {
		return c.errorf(id, "condition must be Bool, got %s", t)
	}
	return nil
}

func (c *Checker) decl(id ir.NodeID, n ir.Decl) *ir.Error {
	if n.Annotation == nil && !n.Init.Valid() {
		return c.errorf(id, "variable %s needs a type or an initializer", n.Name)
	}

	t := n.Annotation
	if n.Init.Valid() {
		var err *ir.Error
		if t == nil {
			t, err = c.expr(n.Init, access{literalArray: true})
		} else {
			err = c.value(n.Init, t)
		}
		if err != nil {
			return err
		}
	}
	if !ir.IsFirstClass(t) {
		return c.errorf(id, "cannot declare variable %s of type %s", n.Name, t)
	}

	scope := c.scopes[len(c.scopes)-1]
	def := c.arena.NewDef(ir.Def{
		Name:     n.Name,
		Type:     t,
		TopLevel: scope == c.shaderScope,
	})
	if !c.arena.Declare(scope, def) {
		return c.errorf(id, "variable %s redeclared in the same scope", n.Name)
	}
	if scope == c.shaderScope {
		c.TopLevel = append(c.TopLevel, def)
	}
	c.arena.BindDef(id, def)
	return nil
}

// value checks id as a value stored into a location of type want, converting
// it when a widening conversion exists.
func (c *Checker) value(id ir.NodeID, want ir.Type) *ir.Error {
	if lit, ok := c.arena.Node(id).(ir.LiteralArray); ok {
		arr, ok := want.(ir.ArrayType)
		if !ok {
			return c.errorf(id, "cannot use an array literal as %s", want)
		}
		if len(lit.Elems) != arr.Size {
			return c.errorf(id, "array literal has %d elements, want %d", len(lit.Elems), arr.Size)
		}
		if !ir.Equal(lit.Elem, arr.Elem) {
			return c.errorf(id, "array literal of %s used as %s", lit.Elem, want)
		}
	}

	got, err := c.expr(id, access{literalArray: true})
	if err != nil {
		return err
	}
	if ir.Equal(got, want) {
		return nil
	}
	if Convertible(got, want) {
		c.arena.Wrap(id, want.String(), want)
		return nil
	}
	return c.errorf(id, "cannot use %s as %s", got, want)
}

// access describes how an expression is used.
type access struct {
	write bool

	// literalArray allows an array literal at this position.
	literalArray bool

	// swizzle is the single-component swizzle applied directly to the
	// expression, or 0. Captured values narrow to that component.
	swizzle byte
}

// expr checks an expression and returns its type.
func (c *Checker) expr(id ir.NodeID, a access) (ir.Type, *ir.Error) {
	t, writeable, err := c.infer(id, a)
	if err != nil {
		return nil, err
	}
	c.arena.SetType(id, t, writeable)
	return t, nil
}

func (c *Checker) infer(id ir.NodeID, a access) (ir.Type, bool, *ir.Error) {
	switch n := c.arena.Node(id).(type) {
	case ir.LiteralInt:
		return ir.Int, false, nil
	case ir.LiteralFloat:
		return ir.Float, false, nil
	case ir.LiteralBool:
		return ir.Bool, false, nil

	case ir.LiteralArray:
		if !a.literalArray {
			return nil, false, c.errorf(id, "array literals are only allowed as initializers or assigned values")
		}
		for _, e := range n.Elems {
			if err := c.value(e, n.Elem); err != nil {
				return nil, false, err
			}
		}
		return ir.ArrayType{Size: len(n.Elems), Elem: n.Elem}, false, nil

	case ir.NamespaceRef:
		if a.write && n.Space != ir.NSOut {
			return nil, false, c.errorf(id, "cannot assign to %s", n.Space.Keyword())
		}
		return ir.NamespaceType{Space: n.Space}, n.Space == ir.NSOut, nil

	case ir.Var:
		return c.variable(id, n, a)

	case ir.Field:
		return c.field(id, n, a)

	case ir.ArrayLookup:
		t, err := c.expr(n.Target, access{write: a.write})
		if err != nil {
			return nil, false, err
		}
		arr, ok := t.(ir.ArrayType)
		if !ok {
			return nil, false, c.errorf(id, "cannot index a value of type %s", t)
		}
		it, err := c.expr(n.Index, access{})
		if err != nil {
			return nil, false, err
		}
		if !ir.Equal(it, ir.Int) {
			return nil, false, c.errorf(n.Index, "array index must be Int, got %s", it)
		}
		return arr.Elem, c.arena.Writeable(n.Target), nil

	case ir.Call:
		if n.Conversion {
			return c.arena.Type(id), false, nil
		}
		t, err := c.call(id, n)
		return t, false, err

	case ir.Binary:
		t, err := c.binary(id, n)
		return t, false, err

	default:
		ir.Unreachable("unexpected expression %T", n)
		return nil, false, nil
	}
}

func (c *Checker) variable(id ir.NodeID, n ir.Var, a access) (ir.Type, bool, *ir.Error) {
	def, ok := c.lookup(n.Name)
	if !ok {
		return nil, false, c.errorf(id, "unknown variable %s", n.Name)
	}
	c.arena.BindDef(id, def)
	d := c.arena.Def(def)
	if !d.Trans {
		return d.Type, true, nil
	}

	if a.write {
		return nil, false, c.errorf(id, "cannot assign to %s: it is computed by the vertex stage", n.Name)
	}
	c.capture(ir.TransUserVariable, n.Name, d.Type, a.swizzle)
	return d.Type, false, nil
}

// capture records the lanes of a value read from the vertex stage.
func (c *Checker) capture(kind ir.TransKind, name string, t ir.Type, swizzle byte) {
	lanes := ir.Lanes(kind, []string{name}, t)
	if swizzle != 0 && ir.VectorDim(t) > 1 {
		if i := swizzleIndex(swizzle); i >= 0 && i < ir.VectorDim(t) {
			c.trans.Add(lanes[i])
			return
		}
	}
	c.trans.AddAll(lanes)
}

func (c *Checker) field(id ir.NodeID, n ir.Field, a access) (ir.Type, bool, *ir.Error) {
	inner := access{write: a.write}
	if len(n.Name) == 1 && !a.write {
		inner.swizzle = n.Name[0]
	}
	target, err := c.expr(n.Target, inner)
	if err != nil {
		return nil, false, err
	}

	switch t := target.(type) {
	case ir.NamespaceType:
		return c.namespaceField(id, t.Space, n.Name, a)
	case ir.FloatVec, ir.IntVec:
		return c.swizzle(id, t, n.Name, c.arena.Writeable(n.Target))
	default:
		return nil, false, c.errorf(id, "cannot access field %s of a value of type %s", n.Name, target)
	}
}

func (c *Checker) namespaceField(id ir.NodeID, space ir.Namespace, name string, a access) (ir.Type, bool, *ir.Error) {
	qualified := space.Keyword() + "." + name

	var table *FieldTable
	switch space {
	case ir.NSGlobal:
		table = c.ctx.Global
	case ir.NSMat:
		table = c.ctx.Mat
	case ir.NSBody:
		table = c.ctx.Body
	case ir.NSVert:
		table = c.ctx.Vert
	case ir.NSOut:
		table = c.out
	case ir.NSFrag:
		table = c.frag
	default:
		ir.Unreachable("unknown namespace %d", space)
	}

	f, ok := table.Lookup(name)
	if ok && space == ir.NSGlobal && !c.ctx.GlobalVisible(f) {
		ok = false
	}
	if !ok {
		return nil, false, c.errorf(id, "unknown field %s", qualified)
	}
	if _, isTex := f.Type.(ir.Texture); isTex && c.stage == ir.StageVertex {
		return nil, false, c.errorf(id, "%s: textures cannot be used in the vertex stage", qualified)
	}
	if a.write && space != ir.NSOut {
		return nil, false, c.errorf(id, "cannot assign to %s: %s is read-only", qualified, space.Keyword())
	}

	switch space {
	case ir.NSGlobal:
		c.GlobalFieldsRead.Add(name)
	case ir.NSMat:
		c.MatFieldsRead.Add(name)
	case ir.NSBody:
		c.BodyFieldsRead.Add(name)
	case ir.NSFrag:
		c.FragFieldsRead.Add(name)
	case ir.NSVert:
		if c.stage == ir.StageVertex {
			c.VertFieldsRead.Add(name)
		} else {
			c.capture(ir.TransVertexAttribute, name, f.Type, a.swizzle)
		}
	case ir.NSOut:
		if a.write {
			c.OutFieldsWritten.Add(name)
		} else if !c.OutFieldsWritten.Has(name) {
			return nil, false, c.errorf(id, "%s is read before it is written", qualified)
		}
		return f.Type, true, nil
	}
	return f.Type, false, nil
}

func swizzleIndex(ch byte) int {
	if i := strings.IndexByte("xyzw", ch); i >= 0 {
		return i
	}
	return strings.IndexByte("rgba", ch)
}

func (c *Checker) swizzle(id ir.NodeID, t ir.Type, name string, targetWriteable bool) (ir.Type, bool, *ir.Error) {
	dim := ir.VectorDim(t)
	if len(name) > 4 {
		return nil, false, c.errorf(id, "invalid swizzle %s", name)
	}
	set := "xyzw"
	if strings.IndexByte(set, name[0]) < 0 {
		set = "rgba"
	}
	seen := make(map[byte]bool, len(name))
	unique := true
	for i := 0; i < len(name); i++ {
		idx := strings.IndexByte(set, name[i])
		if idx < 0 {
			return nil, false, c.errorf(id, "invalid swizzle %s", name)
		}
		if idx >= dim {
			return nil, false, c.errorf(id, "swizzle %s out of range for %s", name, t)
		}
		if seen[name[i]] {
			unique = false
		}
		seen[name[i]] = true
	}

	var result ir.Type
	if _, ok := t.(ir.IntVec); ok {
		result = ir.IntVec{Dim: len(name)}
	} else {
		result = ir.FloatVec{Dim: len(name)}
	}
	return result, targetWriteable && unique, nil
}

func (c *Checker) call(id ir.NodeID, n ir.Call) (ir.Type, *ir.Error) {
	candidates, ok := c.ctx.Funcs[n.Name]
	if !ok {
		return nil, c.errorf(id, "unknown function %s", n.Name)
	}
	if c.ctx.IsInternalFunc(n.Name) && !c.ctx.Internal {
		return nil, c.errorf(id, "unknown function %s", n.Name)
	}
	if c.ctx.IsVertexOnlyFunc(n.Name) && c.stage != ir.StageVertex {
		return nil, c.errorf(id, "%s can only be called from the vertex stage", n.Name)
	}
	if c.ctx.IsSamplingFunc(n.Name) && c.stage == ir.StageVertex {
		return nil, c.errorf(id, "%s: textures cannot be sampled in the vertex stage", n.Name)
	}

	args := make([]ir.Type, len(n.Args))
	for i, arg := range n.Args {
		t, err := c.expr(arg, access{})
		if err != nil {
			return nil, err
		}
		args[i] = t
	}

	f, err := Resolve(n.Name, candidates, args)
	if err != nil {
		return nil, c.errorf(id, "%s", err.Error())
	}
	for i, arg := range n.Args {
		if !ir.Equal(args[i], f.Params[i]) {
			c.arena.Wrap(arg, f.Params[i].String(), f.Params[i])
		}
	}
	return f.Result, nil
}

func (c *Checker) binary(id ir.NodeID, n ir.Binary) (ir.Type, *ir.Error) {
	ta, err := c.expr(n.A, access{})
	if err != nil {
		return nil, err
	}
	tb, err := c.expr(n.B, access{})
	if err != nil {
		return nil, err
	}

	t := ta
	if !ir.Equal(ta, tb) {
		switch {
		case Convertible(ta, tb):
			c.arena.Wrap(n.A, tb.String(), tb)
			t = tb
		case Convertible(tb, ta):
			c.arena.Wrap(n.B, ta.String(), ta)
		default:
			return nil, c.errorf(id, "type mismatch: %s %s %s", ta, n.Op, tb)
		}
	}

	switch n.Op.Class() {
	case ir.ClassArithmetic:
		if !ir.IsNumeric(t) {
			return nil, c.errorf(id, "operator %s needs numeric operands, got %s", n.Op, t)
		}
		return t, nil
	case ir.ClassOrder:
		if ir.VectorDim(t) != 1 {
			return nil, c.errorf(id, "operator %s needs scalar operands, got %s", n.Op, t)
		}
		return ir.Bool, nil
	case ir.ClassEquality:
		if !ir.IsNumeric(t) && !ir.Equal(t, ir.Bool) {
			return nil, c.errorf(id, "operator %s cannot compare %s", n.Op, t)
		}
		return ir.Bool, nil
	case ir.ClassLogic:
		if !ir.Equal(t, ir.Bool) {
			return nil, c.errorf(id, "operator %s needs Bool operands, got %s", n.Op, t)
		}
		return ir.Bool, nil
	default:
		ir.Unreachable("unknown operator class %d", n.Op.Class())
		return nil, nil
	}
}

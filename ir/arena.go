package ir

// Location is a position in a stage's source text. Lines and columns are
// 1-based; the zero Location means "unknown".
type Location struct {
	Line   int
	Column int
}

// Def is the binding metadata of one declared variable.
type Def struct {
	Name string
	Type Type

	// Trans marks a variable captured from an earlier stage. It is read-only
	// and reaches this stage through an interpolator.
	Trans bool

	// TopLevel marks a variable declared at the top level of its stage, which
	// makes it visible to later stages.
	TopLevel bool
}

// Scope is an ordered table of locally declared variables.
type Scope struct {
	Vars []string
	defs map[string]DefID
}

// Lookup returns the definition declared under name in this scope.
func (s *Scope) Lookup(name string) (DefID, bool) {
	id, ok := s.defs[name]
	return id, ok
}

// Arena owns every node, resolved type, definition and scope created for one
// compile request. Slot 0 of each table is reserved so that the zero handle
// means "absent".
type Arena struct {
	nodes     []Node
	locs      []Location
	types     []Type
	writeable []bool
	nodeDefs  []DefID

	defs   []Def
	scopes []Scope
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		nodes:     make([]Node, 1, 256),
		locs:      make([]Location, 1, 256),
		types:     make([]Type, 1, 256),
		writeable: make([]bool, 1, 256),
		nodeDefs:  make([]DefID, 1, 256),
		defs:      make([]Def, 1, 32),
		scopes:    make([]Scope, 1, 16),
	}
}

// New allocates a node and returns its handle.
func (a *Arena) New(n Node, loc Location) NodeID {
	id := NodeID(len(a.nodes)) //nolint:gosec // G115: arena size is bounded by source size
	a.nodes = append(a.nodes, n)
	a.locs = append(a.locs, loc)
	a.types = append(a.types, nil)
	a.writeable = append(a.writeable, false)
	a.nodeDefs = append(a.nodeDefs, NoDef)
	return id
}

// Len returns the number of allocated nodes, including the reserved slot.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Node returns the node stored under id.
func (a *Arena) Node(id NodeID) Node {
	if !id.Valid() || int(id) >= len(a.nodes) {
		Unreachable("invalid node handle %d", id)
	}
	return a.nodes[id]
}

// Replace overwrites the node stored under id, keeping its location.
func (a *Arena) Replace(id NodeID, n Node) {
	a.Node(id)
	a.nodes[id] = n
}

// Loc returns the source location of a node.
func (a *Arena) Loc(id NodeID) Location {
	if !id.Valid() || int(id) >= len(a.locs) {
		return Location{}
	}
	return a.locs[id]
}

// Type returns the resolved type of a checked node, or nil.
func (a *Arena) Type(id NodeID) Type {
	return a.types[id]
}

// SetType records the resolved type and writeability of a node.
func (a *Arena) SetType(id NodeID, t Type, writeable bool) {
	a.types[id] = t
	a.writeable[id] = writeable
}

// Writeable reports whether a checked node denotes a writable location.
func (a *Arena) Writeable(id NodeID) bool {
	return a.writeable[id]
}

// Wrap materializes an implicit conversion of the node at id. The original
// node moves to a fresh slot and id now holds «name(original)», so parents of
// id need no rewriting. The handle of the moved node is returned.
func (a *Arena) Wrap(id NodeID, name string, t Type) NodeID {
	moved := a.New(a.Node(id), a.locs[id])
	a.types[moved] = a.types[id]
	a.writeable[moved] = a.writeable[id]
	a.nodeDefs[moved] = a.nodeDefs[id]

	a.nodes[id] = Call{Name: name, Args: []NodeID{moved}, Conversion: true}
	a.types[id] = t
	a.writeable[id] = false
	a.nodeDefs[id] = NoDef
	return moved
}

// NewDef allocates a variable definition.
func (a *Arena) NewDef(d Def) DefID {
	id := DefID(len(a.defs)) //nolint:gosec // G115: bounded by source size
	a.defs = append(a.defs, d)
	return id
}

// Def returns the definition stored under id.
func (a *Arena) Def(id DefID) *Def {
	if !id.Valid() || int(id) >= len(a.defs) {
		Unreachable("invalid def handle %d", id)
	}
	return &a.defs[id]
}

// BindDef attaches a definition to a Var or Decl node.
func (a *Arena) BindDef(id NodeID, def DefID) {
	a.nodeDefs[id] = def
}

// DefOf returns the definition bound to a Var or Decl node.
func (a *Arena) DefOf(id NodeID) DefID {
	return a.nodeDefs[id]
}

// NewScope allocates an empty variable table.
func (a *Arena) NewScope() ScopeID {
	id := ScopeID(len(a.scopes)) //nolint:gosec // G115: bounded by source size
	a.scopes = append(a.scopes, Scope{defs: make(map[string]DefID)})
	return id
}

// Scope returns the variable table stored under id.
func (a *Arena) Scope(id ScopeID) *Scope {
	if !id.Valid() || int(id) >= len(a.scopes) {
		Unreachable("invalid scope handle %d", id)
	}
	return &a.scopes[id]
}

// Declare adds a definition to a scope. It reports false when the name is
// already declared in that scope.
func (a *Arena) Declare(scope ScopeID, def DefID) bool {
	s := a.Scope(scope)
	name := a.Def(def).Name
	if _, exists := s.defs[name]; exists {
		return false
	}
	s.defs[name] = def
	s.Vars = append(s.Vars, name)
	return true
}

package ir

// Node is one syntax form of a shader stage. It is a closed variant; children
// are referenced by NodeID.
type Node interface {
	node()
}

// Shader is the root of a stage: a flat statement list plus the stage's
// top-level variable table.
type Shader struct {
	Stmts []NodeID
	Scope ScopeID
}

// Block is a braced statement list with its own variable table.
type Block struct {
	Stmts []NodeID
	Scope ScopeID
}

// Decl is «var name [: Annotation] [= Init]».
type Decl struct {
	Name       string
	Annotation Type
	Init       NodeID
}

// For has two mutually exclusive init forms: Decl introduces a fresh loop
// variable scoped to the loop, Init is a bare assignment.
type For struct {
	Decl  NodeID
	Init  NodeID
	Cond  NodeID
	Inc   NodeID
	Body  NodeID
	Scope ScopeID
}

// If has a table of locally declared variables for each branch.
type If struct {
	Cond     NodeID
	Yes      NodeID
	No       NodeID
	YesScope ScopeID
	NoScope  ScopeID
}

// Assign is «Target = Value».
type Assign struct {
	Target NodeID
	Value  NodeID
}

// Call is a function or constructor call. Conversion marks a call the checker
// synthesized to widen an argument.
type Call struct {
	Name       string
	Args       []NodeID
	Conversion bool
}

// Field is «Target.Name».
type Field struct {
	Target NodeID
	Name   string
}

// ArrayLookup is «Target[Index]».
type ArrayLookup struct {
	Target NodeID
	Index  NodeID
}

// LiteralInt is an integer literal.
type LiteralInt struct {
	Value int64
}

// LiteralFloat is a floating point literal. Text keeps the source spelling.
type LiteralFloat struct {
	Value float64
	Text  string
}

// LiteralBool is true or false.
type LiteralBool struct {
	Value bool
}

// LiteralArray is «[]Elem{ e, e, ... }».
type LiteralArray struct {
	Elem  Type
	Elems []NodeID
}

// Var references a variable by name.
type Var struct {
	Name string
}

// Op is a binary operator.
type Op uint8

const (
	OpMul Op = iota
	OpDiv
	OpMod
	OpAdd
	OpSub
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

// String returns the surface spelling of the operator.
func (o Op) String() string {
	switch o {
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// OpClass groups operators by how they are typed.
type OpClass uint8

const (
	ClassArithmetic OpClass = iota
	ClassOrder
	ClassEquality
	ClassLogic
)

// Class returns the typing class of the operator.
func (o Op) Class() OpClass {
	switch o {
	case OpMul, OpDiv, OpMod, OpAdd, OpSub:
		return ClassArithmetic
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return ClassOrder
	case OpEqual, OpNotEqual:
		return ClassEquality
	default:
		return ClassLogic
	}
}

// Binary is «A Op B». Prefix ! and - are desugared into Binary by the parser.
type Binary struct {
	Op Op
	A  NodeID
	B  NodeID
}

// Discard is «discard;».
type Discard struct{}

// Return is «return;».
type Return struct{}

// NamespaceRef is one of the six namespace keywords used as an expression.
type NamespaceRef struct {
	Space Namespace
}

func (Shader) node()       {}
func (Block) node()        {}
func (Decl) node()         {}
func (For) node()          {}
func (If) node()           {}
func (Assign) node()       {}
func (Call) node()         {}
func (Field) node()        {}
func (ArrayLookup) node()  {}
func (LiteralInt) node()   {}
func (LiteralFloat) node() {}
func (LiteralBool) node()  {}
func (LiteralArray) node() {}
func (Var) node()          {}
func (Binary) node()       {}
func (Discard) node()      {}
func (Return) node()       {}
func (NamespaceRef) node() {}

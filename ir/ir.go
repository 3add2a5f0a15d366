// Package ir defines the data model shared by every stage of the Gasoline
// compiler.
//
// The model is organized around an Arena that owns everything created for a
// single compile request:
//   - Nodes: the abstract syntax tree of each shader stage
//   - Types: the resolved type of each node, filled in by the checker
//   - Defs: binding metadata for declared variables
//   - Scopes: ordered variable tables attached to blocks
//
// Nodes refer to each other with NodeID handles (indices into the Arena), never
// with pointers, so an Arena can be dropped as a unit when the request ends.
//
// # Pipeline
//
//	Source (vertex, DANGS, additional) → tokens → AST (Arena) → checked AST → GLSL / Cg
//
// Types and nodes are closed variants: sealed interfaces whose consumers switch
// exhaustively over the concrete cases and treat anything else as an internal
// compiler error (see Unreachable).
package ir

// Handle types for referencing Arena entries. The zero value of each handle is
// reserved to mean "absent".
type (
	NodeID  uint32
	DefID   uint32
	ScopeID uint32
)

// NoNode marks an absent optional child (else branch, initializer, ...).
const NoNode NodeID = 0

// NoDef marks a node without a variable binding.
const NoDef DefID = 0

// NoScope marks a node without its own variable table.
const NoScope ScopeID = 0

// Valid reports whether the handle refers to an Arena entry.
func (id NodeID) Valid() bool  { return id != NoNode }
func (id DefID) Valid() bool   { return id != NoDef }
func (id ScopeID) Valid() bool { return id != NoScope }

// Stage identifies one of the three shader-source roles.
type Stage uint8

const (
	StageVertex Stage = iota
	StageDangs
	StageColourAlpha
)

// String returns the stage name used in diagnostics.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageDangs:
		return "dangs"
	case StageColourAlpha:
		return "additional"
	default:
		return "unknown"
	}
}

package ir

import (
	"strconv"
	"strings"
)

// TransKind says where a trans lane comes from.
type TransKind uint8

const (
	// TransVertexAttribute is a vertex attribute read by a fragment stage.
	TransVertexAttribute TransKind = iota

	// TransUserVariable is a vertex-stage top-level variable read by a
	// fragment stage.
	TransUserVariable

	// TransInternal is a value the generated code itself threads through,
	// such as the world-space position.
	TransInternal
)

// String returns the kind name.
func (k TransKind) String() string {
	switch k {
	case TransVertexAttribute:
		return "VertexAttribute"
	case TransUserVariable:
		return "UserVariable"
	case TransInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Trans is one scalar lane that must be threaded from the vertex program to
// the fragment program. Type is the scalar type of the lane.
type Trans struct {
	Kind TransKind
	Path []string
	Type Type
}

// Key returns the deduplication key of the lane.
func (t Trans) Key() string {
	return strconv.Itoa(int(t.Kind)) + ":" + strings.Join(t.Path, ".")
}

// String renders the lane as "Kind(a.b)".
func (t Trans) String() string {
	return t.Kind.String() + "(" + strings.Join(t.Path, ".") + ")"
}

// TransSet is a deduplicating set of lanes that remembers insertion order.
// The order is used verbatim as the interpolator lane order.
type TransSet struct {
	lanes []Trans
	index map[string]int
}

// NewTransSet creates an empty set.
func NewTransSet() *TransSet {
	return &TransSet{index: make(map[string]int)}
}

// Add inserts a lane unless an equal (Kind, Path) lane is present. It reports
// whether the lane was new.
func (s *TransSet) Add(t Trans) bool {
	key := t.Key()
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.lanes)
	s.lanes = append(s.lanes, t)
	return true
}

// AddAll inserts each lane in order.
func (s *TransSet) AddAll(ts []Trans) {
	for _, t := range ts {
		s.Add(t)
	}
}

// Contains reports whether a lane with this kind and path is present.
func (s *TransSet) Contains(kind TransKind, path ...string) bool {
	_, ok := s.index[Trans{Kind: kind, Path: path}.Key()]
	return ok
}

// Index returns the position of a lane, or -1.
func (s *TransSet) Index(kind TransKind, path ...string) int {
	if i, ok := s.index[Trans{Kind: kind, Path: path}.Key()]; ok {
		return i
	}
	return -1
}

// Lanes returns the lanes in insertion order.
func (s *TransSet) Lanes() []Trans {
	return s.lanes
}

// Len returns the number of lanes.
func (s *TransSet) Len() int {
	return len(s.lanes)
}

// Slots returns the number of four-lane interpolators needed.
func (s *TransSet) Slots() int {
	return (len(s.lanes) + 3) / 4
}

// Roots returns the distinct (kind, first path element) pairs in insertion
// order, used to declare the unpacked variables.
func (s *TransSet) Roots(kind TransKind) []string {
	var roots []string
	seen := make(map[string]struct{})
	for _, t := range s.lanes {
		if t.Kind != kind {
			continue
		}
		if _, ok := seen[t.Path[0]]; ok {
			continue
		}
		seen[t.Path[0]] = struct{}{}
		roots = append(roots, t.Path[0])
	}
	return roots
}

var laneLetters = [4]string{"x", "y", "z", "w"}

// Lanes flattens a first-class value of type t, named by prefix, into its
// scalar lanes: vector components become x/y/z/w, array elements become their
// decimal index.
func Lanes(kind TransKind, prefix []string, t Type) []Trans {
	var out []Trans
	var walk func(path []string, t Type)
	walk = func(path []string, t Type) {
		switch x := t.(type) {
		case FloatVec:
			if x.Dim == 1 {
				out = append(out, Trans{Kind: kind, Path: clonePath(path), Type: Float})
				return
			}
			for i := 0; i < x.Dim; i++ {
				out = append(out, Trans{Kind: kind, Path: append(clonePath(path), laneLetters[i]), Type: Float})
			}
		case IntVec:
			if x.Dim == 1 {
				out = append(out, Trans{Kind: kind, Path: clonePath(path), Type: Int})
				return
			}
			for i := 0; i < x.Dim; i++ {
				out = append(out, Trans{Kind: kind, Path: append(clonePath(path), laneLetters[i]), Type: Int})
			}
		case BoolType:
			out = append(out, Trans{Kind: kind, Path: clonePath(path), Type: Bool})
		case ArrayType:
			for i := 0; i < x.Size; i++ {
				walk(append(clonePath(path), strconv.Itoa(i)), x.Elem)
			}
		default:
			Unreachable("cannot split %s into trans lanes", t)
		}
	}
	walk(prefix, t)
	return out
}

// LaneLetter returns the swizzle letter of component i.
func LaneLetter(i int) string {
	return laneLetters[i]
}

func clonePath(p []string) []string {
	out := make([]string, len(p), len(p)+1)
	copy(out, p)
	return out
}

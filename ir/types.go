package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a Gasoline type. It is a closed variant: the concrete cases are
// FloatVec, IntVec, FloatMatrix, Texture, BoolType, VoidType, NamespaceType,
// ArrayType and FunctionType.
type Type interface {
	typ()
	String() string
}

// FloatVec is a floating point vector, Dim 1 being the scalar Float.
type FloatVec struct {
	Dim int
}

// IntVec is an integer vector, Dim 1 being the scalar Int.
type IntVec struct {
	Dim int
}

// FloatMatrix maps a W-dimensional vector to an H-dimensional one under mul.
type FloatMatrix struct {
	W int
	H int
}

// TextureDim is the dimensionality of a texture.
type TextureDim uint8

const (
	Tex1D TextureDim = iota
	Tex2D
	Tex3D
	TexCube
)

// Texture is a sampled float texture. Solid marks an unbound material texture
// that evaluates to Colour when sampled; it does not take part in identity.
type Texture struct {
	Dim    TextureDim
	Solid  bool
	Colour [4]float32
}

// BoolType is the boolean type.
type BoolType struct{}

// VoidType is the result type of functions that return nothing.
type VoidType struct{}

// Namespace selects one of the six field tables.
type Namespace uint8

const (
	NSGlobal Namespace = iota
	NSMat
	NSVert
	NSOut
	NSBody
	NSFrag
)

// Keyword returns the lower-case expression keyword of the namespace.
func (n Namespace) Keyword() string {
	switch n {
	case NSGlobal:
		return "global"
	case NSMat:
		return "mat"
	case NSVert:
		return "vert"
	case NSOut:
		return "out"
	case NSBody:
		return "body"
	case NSFrag:
		return "frag"
	default:
		return "unknown"
	}
}

// NamespaceType carries no data; it routes field access to a table.
type NamespaceType struct {
	Space Namespace
}

// ArrayType is a fixed-size array.
type ArrayType struct {
	Size int
	Elem Type
}

// FunctionType is one overload signature.
type FunctionType struct {
	Params []Type
	Result Type
}

func (FloatVec) typ()      {}
func (IntVec) typ()        {}
func (FloatMatrix) typ()   {}
func (Texture) typ()       {}
func (BoolType) typ()      {}
func (VoidType) typ()      {}
func (NamespaceType) typ() {}
func (ArrayType) typ()     {}
func (FunctionType) typ()  {}

// Convenience values for the common scalar types.
var (
	Float  Type = FloatVec{Dim: 1}
	Float2 Type = FloatVec{Dim: 2}
	Float3 Type = FloatVec{Dim: 3}
	Float4 Type = FloatVec{Dim: 4}
	Int    Type = IntVec{Dim: 1}
	Bool   Type = BoolType{}
	Void   Type = VoidType{}
)

func (t FloatVec) String() string {
	if t.Dim == 1 {
		return "Float"
	}
	return "Float" + strconv.Itoa(t.Dim)
}

func (t IntVec) String() string {
	if t.Dim == 1 {
		return "Int"
	}
	return "Int" + strconv.Itoa(t.Dim)
}

func (t FloatMatrix) String() string {
	return fmt.Sprintf("Float%dx%d", t.W, t.H)
}

func (t Texture) String() string {
	switch t.Dim {
	case Tex1D:
		return "FloatTexture"
	case Tex2D:
		return "FloatTexture2"
	case Tex3D:
		return "FloatTexture3"
	case TexCube:
		return "FloatTextureCube"
	default:
		return "FloatTexture?"
	}
}

func (BoolType) String() string { return "Bool" }
func (VoidType) String() string { return "Void" }

func (t NamespaceType) String() string {
	k := t.Space.Keyword()
	return strings.ToUpper(k[:1]) + k[1:]
}

func (t ArrayType) String() string {
	return "[" + strconv.Itoa(t.Size) + "]" + t.Elem.String()
}

func (t FunctionType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + t.Result.String()
}

// Equal compares two types structurally.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case FloatVec:
		y, ok := b.(FloatVec)
		return ok && x.Dim == y.Dim
	case IntVec:
		y, ok := b.(IntVec)
		return ok && x.Dim == y.Dim
	case FloatMatrix:
		y, ok := b.(FloatMatrix)
		return ok && x.W == y.W && x.H == y.H
	case Texture:
		y, ok := b.(Texture)
		return ok && x.Dim == y.Dim
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case VoidType:
		_, ok := b.(VoidType)
		return ok
	case NamespaceType:
		y, ok := b.(NamespaceType)
		return ok && x.Space == y.Space
	case ArrayType:
		y, ok := b.(ArrayType)
		return ok && x.Size == y.Size && Equal(x.Elem, y.Elem)
	case FunctionType:
		y, ok := b.(FunctionType)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Result, y.Result) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		Unreachable("unknown type %T", a)
		return false
	}
}

// IsFirstClass reports whether values of t may be stored in variables.
func IsFirstClass(t Type) bool {
	switch x := t.(type) {
	case FloatVec, IntVec, BoolType:
		return true
	case ArrayType:
		return IsFirstClass(x.Elem)
	default:
		return false
	}
}

// VectorDim returns the dimension of a numeric vector type, or 0.
func VectorDim(t Type) int {
	switch x := t.(type) {
	case FloatVec:
		return x.Dim
	case IntVec:
		return x.Dim
	default:
		return 0
	}
}

// IsNumeric reports whether t is a FloatVec or an IntVec.
func IsNumeric(t Type) bool {
	return VectorDim(t) > 0
}

// ParseTypeName resolves a built-in type name such as "Float3", "Int",
// "Float4x4", "FloatTextureCube" or "Mat".
func ParseTypeName(name string) (Type, bool) {
	switch name {
	case "Bool":
		return BoolType{}, true
	case "Void":
		return VoidType{}, true
	case "Global":
		return NamespaceType{Space: NSGlobal}, true
	case "Mat":
		return NamespaceType{Space: NSMat}, true
	case "Vert":
		return NamespaceType{Space: NSVert}, true
	case "Out":
		return NamespaceType{Space: NSOut}, true
	case "Body":
		return NamespaceType{Space: NSBody}, true
	case "Frag":
		return NamespaceType{Space: NSFrag}, true
	case "FloatTexture", "FloatTexture1":
		return Texture{Dim: Tex1D}, true
	case "FloatTexture2":
		return Texture{Dim: Tex2D}, true
	case "FloatTexture3":
		return Texture{Dim: Tex3D}, true
	case "FloatTextureCube":
		return Texture{Dim: TexCube}, true
	case "Float", "Float1":
		return FloatVec{Dim: 1}, true
	case "Int", "Int1":
		return IntVec{Dim: 1}, true
	}

	if rest, ok := strings.CutPrefix(name, "Int"); ok {
		if d, ok := singleDigit(rest); ok {
			return IntVec{Dim: d}, true
		}
		return nil, false
	}
	if rest, ok := strings.CutPrefix(name, "Float"); ok {
		if d, ok := singleDigit(rest); ok {
			return FloatVec{Dim: d}, true
		}
		if len(rest) == 3 && rest[1] == 'x' {
			w, okW := singleDigit(rest[:1])
			h, okH := singleDigit(rest[2:])
			if okW && okH {
				return FloatMatrix{W: w, H: h}, true
			}
		}
	}
	return nil, false
}

func singleDigit(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '4' {
		return 0, false
	}
	return int(s[0] - '0'), true
}

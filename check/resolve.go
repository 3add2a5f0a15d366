package check

import (
	"fmt"
	"strings"

	"github.com/gogpu/gasoline/ir"
)

// Convertible reports whether a value of type from widens implicitly to to.
// The conversions are Int to IntN, Float to FloatN, Int to FloatN and IntN
// to FloatN.
func Convertible(from, to ir.Type) bool {
	switch f := from.(type) {
	case ir.FloatVec:
		t, ok := to.(ir.FloatVec)
		return ok && f.Dim == 1 && t.Dim > 1
	case ir.IntVec:
		switch t := to.(type) {
		case ir.IntVec:
			return f.Dim == 1 && t.Dim > 1
		case ir.FloatVec:
			return f.Dim == 1 || f.Dim == t.Dim
		}
	}
	return false
}

// Resolve picks the overload of name matching args. An exact match wins;
// otherwise exactly one candidate must be reachable through implicit
// conversions.
func Resolve(name string, candidates []ir.FunctionType, args []ir.Type) (ir.FunctionType, error) {
	for _, f := range candidates {
		if matches(f, args, ir.Equal) {
			return f, nil
		}
	}

	var reachable []ir.FunctionType
	for _, f := range candidates {
		if matches(f, args, func(a, p ir.Type) bool { return ir.Equal(a, p) || Convertible(a, p) }) {
			reachable = append(reachable, f)
		}
	}

	switch len(reachable) {
	case 1:
		return reachable[0], nil
	case 0:
		return ir.FunctionType{}, fmt.Errorf("no overload of %s accepts (%s)", name, typeList(args))
	default:
		sigs := make([]string, len(reachable))
		for i, f := range reachable {
			sigs[i] = name + f.String()
		}
		return ir.FunctionType{}, fmt.Errorf("ambiguous call %s(%s) could be any of: %s",
			name, typeList(args), strings.Join(sigs, "; "))
	}
}

func matches(f ir.FunctionType, args []ir.Type, ok func(arg, param ir.Type) bool) bool {
	if len(f.Params) != len(args) {
		return false
	}
	for i, p := range f.Params {
		if !ok(args[i], p) {
			return false
		}
	}
	return true
}

func typeList(ts []ir.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

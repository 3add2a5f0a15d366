package backend

import (
	"fmt"
	"strings"

	"github.com/gogpu/gasoline/ir"
)

// internalTrans lists the values the generated code threads from the vertex
// program to the fragment program, by name.
var internalTrans = map[string]ir.Type{
	"position": ir.Float3,
	"normal":   ir.Float3,
	"depth":    ir.Float,
}

// laneVar returns the variable expression holding a lane.
func laneVar(t ir.Trans) string {
	var b strings.Builder
	switch t.Kind {
	case ir.TransVertexAttribute:
		b.WriteString(prefixVert)
	case ir.TransUserVariable:
		b.WriteString(prefixUser)
	case ir.TransInternal:
		b.WriteString(prefixInternal)
	default:
		ir.Unreachable("unknown trans kind %d", t.Kind)
	}
	b.WriteString(t.Path[0])
	for _, p := range t.Path[1:] {
		if p[0] >= '0' && p[0] <= '9' {
			b.WriteString("[" + p + "]")
		} else {
			b.WriteString("." + p)
		}
	}
	return b.String()
}

// slotName returns the interpolator component carrying lane i of n lanes.
// The last interpolator is only as wide as the lanes it carries.
func slotName(i, n int) string {
	slot := i / 4
	if slotWidth(slot, n) == 1 {
		return fmt.Sprintf("trans%d", slot)
	}
	return fmt.Sprintf("trans%d.%s", slot, ir.LaneLetter(i%4))
}

func slotWidth(slot, n int) int {
	return min(4, n-slot*4)
}

// transVaryings returns the interpolators needed for n lanes.
func transVaryings(n int) []Varying {
	slots := (n + 3) / 4
	out := make([]Varying, slots)
	for i := range out {
		out[i] = Varying{
			Kind:  VaryingTrans,
			Name:  fmt.Sprintf("trans%d", i),
			Type:  ir.FloatVec{Dim: slotWidth(i, n)},
			Index: i,
		}
	}
	return out
}

// pack writes every lane into its interpolator component. Int lanes travel
// as Float and Bool lanes as 0 or 1.
func pack(w *Writer, d Dialect, set *ir.TransSet) {
	n := set.Len()
	for i, t := range set.Lanes() {
		v := laneVar(t)
		switch t.Type.(type) {
		case ir.FloatVec:
		case ir.IntVec:
			v = d.Convert(ir.Float, v)
		case ir.BoolType:
			v = "(" + v + " ? 1.0 : 0.0)"
		default:
			ir.Unreachable("lane %s has type %s", t, t.Type)
		}
		w.Line("%s = %s;", slotName(i, n), v)
	}
}

// unpack is the inverse of pack. Int lanes are rounded since interpolation
// may perturb them.
func unpack(w *Writer, d Dialect, set *ir.TransSet) {
	n := set.Len()
	for i, t := range set.Lanes() {
		v := slotName(i, n)
		switch t.Type.(type) {
		case ir.FloatVec:
		case ir.IntVec:
			v = d.Convert(ir.Int, "floor("+v+" + 0.5)")
		case ir.BoolType:
			v = "(" + v + " > 0.5)"
		default:
			ir.Unreachable("lane %s has type %s", t, t.Type)
		}
		w.Line("%s = %s;", laneVar(t), v)
	}
}

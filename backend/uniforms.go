package backend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/gasoline/check"
	"github.com/gogpu/gasoline/ir"
)

// uniformSet collects the engine-supplied fields a program reads.
type uniformSet struct {
	global check.NameSet
	body   check.NameSet
	mat    check.NameSet
}

func (u *uniformSet) addGlobal(names ...string) {
	for _, n := range names {
		u.global.Add(n)
	}
}

func (u *uniformSet) addBody(names ...string) {
	for _, n := range names {
		u.body.Add(n)
	}
}

// addReads adds everything a checked stage reads.
func (u *uniformSet) addReads(s *Stage) {
	if s == nil {
		return
	}
	u.addGlobal(s.Checker.GlobalFieldsRead.Names()...)
	u.addBody(s.Checker.BodyFieldsRead.Names()...)
	for _, n := range s.Checker.MatFieldsRead.Names() {
		u.mat.Add(n)
	}
}

type declaration struct {
	name string
	line string
}

// write declares the collected fields sorted by generated name. Static
// material parameters become constants and solid textures need no
// declaration, since sampling one yields its colour.
func (u *uniformSet) write(w *Writer, d Dialect, ctx *check.Context) {
	var decls []declaration
	for _, name := range u.global.Names() {
		f, ok := ctx.Global.Lookup(name)
		if !ok {
			ir.Unreachable("unknown global field %s", name)
		}
		decls = append(decls, declaration{prefixGlobal + name, d.Uniform(f.Type, prefixGlobal+name)})
	}
	for _, name := range u.body.Names() {
		f, ok := ctx.Body.Lookup(name)
		if !ok {
			ir.Unreachable("unknown body field %s", name)
		}
		decls = append(decls, declaration{prefixBody + name, d.Uniform(f.Type, prefixBody+name)})
	}
	for _, name := range u.mat.Names() {
		f, ok := ctx.Mat.Lookup(name)
		if !ok {
			ir.Unreachable("unknown material field %s", name)
		}
		mangled := prefixMat + name
		if tex, isTex := f.Type.(ir.Texture); isTex && tex.Solid {
			continue
		}
		if v, static := ctx.StaticValues[name]; static {
			decls = append(decls, declaration{mangled,
				fmt.Sprintf("%s%s = %s;", d.ConstPrefix(), Declare(f.Type, mangled), constant(f.Type, v))})
			continue
		}
		decls = append(decls, declaration{mangled, d.Uniform(f.Type, mangled)})
	}

	sort.Slice(decls, func(i, j int) bool { return decls[i].name < decls[j].name })
	for _, decl := range decls {
		w.Line("%s", decl.line)
	}
}

// constant spells a static material value of type t.
func constant(t ir.Type, v [4]float32) string {
	dim := ir.VectorDim(t)
	parts := make([]string, dim)
	for i := range parts {
		if _, isInt := t.(ir.IntVec); isInt {
			parts[i] = strconv.Itoa(int(v[i]))
		} else {
			parts[i] = FormatFloat(v[i])
		}
	}
	if dim == 1 {
		return parts[0]
	}
	return t.String() + "(" + strings.Join(parts, ", ") + ")"
}

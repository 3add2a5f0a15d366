package lang

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/gogpu/gasoline/ir"
)

func parseOK(t *testing.T, source string) (*ir.Arena, ir.Shader) {
	t.Helper()
	arena := ir.NewArena()
	id, err := ParseSource(source, arena)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	shader, ok := arena.Node(id).(ir.Shader)
	if !ok {
		t.Fatalf("Expected Shader root, got %T", arena.Node(id))
	}
	return arena, shader
}

func TestParseStatements(t *testing.T) {
	source := `
var a: Float3;
var b = 1.0;
var c: [2]Float = []Float{1, 2};
out.alpha = b;
if (b > 0.5) discard; else { return; }
for (var i = 0; i < 4; i = i + 1) a = a + Float3(i, i, i);
`
	arena, shader := parseOK(t, source)

	kinds := make([]string, len(shader.Stmts))
	for i, id := range shader.Stmts {
		switch arena.Node(id).(type) {
		case ir.Decl:
			kinds[i] = "decl"
		case ir.Assign:
			kinds[i] = "assign"
		case ir.If:
			kinds[i] = "if"
		case ir.For:
			kinds[i] = "for"
		default:
			kinds[i] = "other"
		}
	}
	got := strings.Join(kinds, ",")
	want := "decl,decl,decl,assign,if,for"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	decl := arena.Node(shader.Stmts[2]).(ir.Decl)
	arr, ok := decl.Annotation.(ir.ArrayType)
	if !ok || arr.Size != 2 || !ir.Equal(arr.Elem, ir.Float) {
		t.Errorf("Expected [2]Float annotation, got %v", decl.Annotation)
	}
	if _, ok := arena.Node(decl.Init).(ir.LiteralArray); !ok {
		t.Errorf("Expected literal array initializer, got %T", arena.Node(decl.Init))
	}

	ifNode := arena.Node(shader.Stmts[4]).(ir.If)
	if _, ok := arena.Node(ifNode.Yes).(ir.Discard); !ok {
		t.Errorf("Expected discard in then-branch, got %T", arena.Node(ifNode.Yes))
	}
	if _, ok := arena.Node(ifNode.No).(ir.Block); !ok {
		t.Errorf("Expected block in else-branch, got %T", arena.Node(ifNode.No))
	}
	if !ifNode.YesScope.Valid() || !ifNode.NoScope.Valid() {
		t.Error("Expected both branch scopes to be allocated")
	}

	forNode := arena.Node(shader.Stmts[5]).(ir.For)
	if !forNode.Decl.Valid() || forNode.Init.Valid() {
		t.Error("Expected fresh-variable for initializer")
	}
}

func TestParseForBareInit(t *testing.T) {
	arena, shader := parseOK(t, "for (x = 0; x < 3; x = x + 1) { }")
	forNode := arena.Node(shader.Stmts[0]).(ir.For)
	if forNode.Decl.Valid() || !forNode.Init.Valid() {
		t.Error("Expected bare-assignment for initializer")
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c", "((a * b) + c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a < b == c < d", "((a < b) == (c < d))"},
		{"a && b == c", "(a && (b == c))"},
		{"-a * b", "((0 - a) * b)"},
		{"!a && b", "((a == false) && b)"},
		{"f(a, b).xy[1]", "f(a, b).xy[1]"},
		{"Float3(1, 2, 3).z", "Float3(1, 2, 3).z"},
		{"mat.albedo.rgb", "mat.albedo.rgb"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			arena, shader := parseOK(t, "x = "+tt.expr+";")
			assign := arena.Node(shader.Stmts[0]).(ir.Assign)
			got := render(arena, assign.Value)
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// render prints an expression fully parenthesized.
func render(arena *ir.Arena, id ir.NodeID) string {
	switch n := arena.Node(id).(type) {
	case ir.Var:
		return n.Name
	case ir.LiteralInt:
		return strconv.FormatInt(n.Value, 10)
	case ir.LiteralFloat:
		return n.Text
	case ir.LiteralBool:
		if n.Value {
			return "true"
		}
		return "false"
	case ir.Binary:
		return "(" + render(arena, n.A) + " " + n.Op.String() + " " + render(arena, n.B) + ")"
	case ir.Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = render(arena, a)
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	case ir.Field:
		return render(arena, n.Target) + "." + n.Name
	case ir.ArrayLookup:
		return render(arena, n.Target) + "[" + render(arena, n.Index) + "]"
	case ir.NamespaceRef:
		return n.Space.Keyword()
	default:
		return "?"
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    int
		column  int
		message string
	}{
		{"missing semicolon", "x = 1\ny = 2;", 2, 1, "expected ;"},
		{"expression statement", "f(x);", 1, 5, "expected '='"},
		{"bad array size", "var a: [0]Float;", 1, 9, "positive integer"},
		{"float array size", "var a: [2.0]Float;", 1, 9, "positive integer"},
		{"missing type", "var a: foo;", 1, 8, "expected type"},
		{"call on field", "x = a.b(1);", 1, 8, "only named functions"},
		{"unclosed block", "{ x = 1;", 1, 9, "expected '}'"},
		{"bare type name", "x = Float3;", 1, 11, "expected '('"},
		{"bad for increment", "for (var i = 0; i < 3; i = ) {}", 1, 28, "expected expression"},
		{"bad else branch", "if (true) x = 1; else { y = ; }", 1, 29, "expected expression"},
		{"bad array element", "var a = []Float{1.0, !};", 1, 23, "expected expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.source, ir.NewArena())
			var irErr *ir.Error
			if !errors.As(err, &irErr) {
				t.Fatalf("Expected *ir.Error, got %v", err)
			}
			if irErr.Kind != ir.ErrParse {
				t.Errorf("Expected ParseError, got %v", irErr.Kind)
			}
			if irErr.Loc.Line != tt.line || irErr.Loc.Column != tt.column {
				t.Errorf("Expected %d:%d, got %d:%d (%s)", tt.line, tt.column, irErr.Loc.Line, irErr.Loc.Column, irErr.Message)
			}
			if !strings.Contains(irErr.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, irErr.Message)
			}
			if irErr.Source != tt.source {
				t.Error("Expected source to be attached to the error")
			}
		})
	}
}

func TestParseLocations(t *testing.T) {
	arena, shader := parseOK(t, "var x = mat.nonexistentField;")
	decl := arena.Node(shader.Stmts[0]).(ir.Decl)
	loc := arena.Loc(decl.Init)
	if loc.Line != 1 || loc.Column != 9 {
		t.Errorf("Expected field access at 1:9, got %d:%d", loc.Line, loc.Column)
	}
}

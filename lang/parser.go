package lang

import (
	"strconv"

	"github.com/gogpu/gasoline/ir"
)

// Parser parses Gasoline tokens into nodes owned by an ir.Arena.
type Parser struct {
	tokens  []Token
	current int
	arena   *ir.Arena
}

// NewParser creates a new parser for the given tokens. Nodes are allocated
// in arena.
func NewParser(tokens []Token, arena *ir.Arena) *Parser {
	return &Parser{
		tokens: tokens,
		arena:  arena,
	}
}

// Parse parses a token stream into a Shader node.
func Parse(tokens []Token, arena *ir.Arena) (ir.NodeID, error) {
	return NewParser(tokens, arena).Parse()
}

// ParseSource lexes and parses a stage source text.
func ParseSource(source string, arena *ir.Arena) (ir.NodeID, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return ir.NoNode, err
	}
	id, err := Parse(tokens, arena)
	if e, ok := err.(*ir.Error); ok {
		return ir.NoNode, e.WithSource(source)
	}
	return id, err
}

// Parse parses statements until EOF and returns the Shader node. The first
// error aborts parsing.
func (p *Parser) Parse() (ir.NodeID, error) {
	loc := p.peek().Loc()
	scope := p.arena.NewScope()
	var stmts []ir.NodeID
	for !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return ir.NoNode, err
		}
		stmts = append(stmts, stmt)
	}
	return p.arena.New(ir.Shader{Stmts: stmts, Scope: scope}, loc), nil
}

// statement parses one statement.
func (p *Parser) statement() (ir.NodeID, *ir.Error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenIf:
		return p.ifStatement()
	case TokenFor:
		return p.forStatement()
	case TokenLeftBrace:
		return p.block()
	case TokenDiscard:
		p.advance()
		if err := p.expectErr(TokenSemicolon, "after discard"); err != nil {
			return ir.NoNode, err
		}
		return p.arena.New(ir.Discard{}, tok.Loc()), nil
	case TokenReturn:
		p.advance()
		if err := p.expectErr(TokenSemicolon, "after return"); err != nil {
			return ir.NoNode, err
		}
		return p.arena.New(ir.Return{}, tok.Loc()), nil
	case TokenVar:
		decl, err := p.varDecl()
		if err != nil {
			return ir.NoNode, err
		}
		if err := p.expectErr(TokenSemicolon, "after variable declaration"); err != nil {
			return ir.NoNode, err
		}
		return decl, nil
	default:
		assign, err := p.assignment()
		if err != nil {
			return ir.NoNode, err
		}
		if err := p.expectErr(TokenSemicolon, "after assignment"); err != nil {
			return ir.NoNode, err
		}
		return assign, nil
	}
}

func (p *Parser) ifStatement() (ir.NodeID, *ir.Error) {
	tok := p.advance() // consume 'if'
	if err := p.expectErr(TokenLeftParen, "after 'if'"); err != nil {
		return ir.NoNode, err
	}
	cond, err := p.expression()
	if err != nil {
		return ir.NoNode, err
	}
	if err := p.expectErr(TokenRightParen, "after if condition"); err != nil {
		return ir.NoNode, err
	}

	node := ir.If{
		Cond:     cond,
		YesScope: p.arena.NewScope(),
	}
	if node.Yes, err = p.statement(); err != nil {
		return ir.NoNode, err
	}
	if p.match(TokenElse) {
		node.NoScope = p.arena.NewScope()
		if node.No, err = p.statement(); err != nil {
			return ir.NoNode, err
		}
	}
	return p.arena.New(node, tok.Loc()), nil
}

func (p *Parser) forStatement() (ir.NodeID, *ir.Error) {
	tok := p.advance() // consume 'for'
	if err := p.expectErr(TokenLeftParen, "after 'for'"); err != nil {
		return ir.NoNode, err
	}

	node := ir.For{Scope: p.arena.NewScope()}
	var err *ir.Error
	if p.check(TokenVar) {
		node.Decl, err = p.varDecl()
	} else {
		node.Init, err = p.assignment()
	}
	if err != nil {
		return ir.NoNode, err
	}
	if err := p.expectErr(TokenSemicolon, "after for initializer"); err != nil {
		return ir.NoNode, err
	}
	if node.Cond, err = p.expression(); err != nil {
		return ir.NoNode, err
	}
	if err := p.expectErr(TokenSemicolon, "after for condition"); err != nil {
		return ir.NoNode, err
	}
	if node.Inc, err = p.assignment(); err != nil {
		return ir.NoNode, err
	}
	if err := p.expectErr(TokenRightParen, "after for increment"); err != nil {
		return ir.NoNode, err
	}
	if node.Body, err = p.statement(); err != nil {
		return ir.NoNode, err
	}

	return p.arena.New(node, tok.Loc()), nil
}

func (p *Parser) block() (ir.NodeID, *ir.Error) {
	tok := p.advance() // consume '{'
	scope := p.arena.NewScope()
	var stmts []ir.NodeID
	for !p.check(TokenRightBrace) {
		if p.isAtEnd() {
			return ir.NoNode, p.errorAt(p.peek(), "expected '}' to close block opened at %d:%d", tok.Line, tok.Column)
		}
		stmt, err := p.statement()
		if err != nil {
			return ir.NoNode, err
		}
		stmts = append(stmts, stmt)
	}
	p.advance()
	return p.arena.New(ir.Block{Stmts: stmts, Scope: scope}, tok.Loc()), nil
}

// varDecl parses «var id [: Type] [= expr]» without the terminator.
func (p *Parser) varDecl() (ir.NodeID, *ir.Error) {
	p.advance() // consume 'var'
	name, err := p.expect(TokenIdent, "as variable name")
	if err != nil {
		return ir.NoNode, err
	}

	decl := ir.Decl{Name: name.Lexeme}
	if p.match(TokenColon) {
		if decl.Annotation, err = p.typeExpr(); err != nil {
			return ir.NoNode, err
		}
	}
	if p.matchOperator("=") {
		if decl.Init, err = p.expression(); err != nil {
			return ir.NoNode, err
		}
	}
	return p.arena.New(decl, name.Loc()), nil
}

// assignment parses «lhs = rhs» without the terminator.
func (p *Parser) assignment() (ir.NodeID, *ir.Error) {
	start := p.peek()
	target, err := p.expression()
	if err != nil {
		return ir.NoNode, err
	}
	if !p.matchOperator("=") {
		return ir.NoNode, p.errorAt(p.peek(), "expected '=' in assignment, got %s", p.peek().describe())
	}
	value, err := p.expression()
	if err != nil {
		return ir.NoNode, err
	}
	return p.arena.New(ir.Assign{Target: target, Value: value}, start.Loc()), nil
}

// typeExpr parses a built-in type name or «[N]Elem».
func (p *Parser) typeExpr() (ir.Type, *ir.Error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenTypeName:
		p.advance()
		t, _ := ir.ParseTypeName(tok.Lexeme)
		return t, nil
	case TokenLeftBracket:
		p.advance()
		sizeTok := p.peek()
		if sizeTok.Kind != TokenIntLiteral {
			return nil, p.errorAt(sizeTok, "array size must be a positive integer literal, got %s", sizeTok.describe())
		}
		p.advance()
		size, convErr := strconv.Atoi(sizeTok.Lexeme)
		if convErr != nil || size <= 0 {
			return nil, p.errorAt(sizeTok, "array size must be a positive integer literal, got %q", sizeTok.Lexeme)
		}
		if err := p.expectErr(TokenRightBracket, "after array size"); err != nil {
			return nil, err
		}
		elem, err := p.typeExpr()
		if err != nil {
			return nil, err
		}
		return ir.ArrayType{Size: size, Elem: elem}, nil
	default:
		return nil, p.errorAt(tok, "expected type, got %s", tok.describe())
	}
}

// Binary operator levels, tightest first. Level 2 is the prefix level.
var binaryLevels = []map[string]ir.Op{
	3: {"*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpMod},
	4: {"+": ir.OpAdd, "-": ir.OpSub},
	5: {"<": ir.OpLess, "<=": ir.OpLessEqual, ">": ir.OpGreater, ">=": ir.OpGreaterEqual},
	6: {"==": ir.OpEqual, "!=": ir.OpNotEqual},
	7: {"&&": ir.OpAnd, "||": ir.OpOr},
}

const loosestLevel = 7

func (p *Parser) expression() (ir.NodeID, *ir.Error) {
	return p.exprAt(loosestLevel)
}

// exprAt parses an expression whose operators bind at least as tightly as
// level.
func (p *Parser) exprAt(level int) (ir.NodeID, *ir.Error) {
	switch {
	case level == 0:
		return p.primary()
	case level == 1:
		return p.apply()
	case level == 2:
		return p.unary()
	}

	left, err := p.exprAt(level - 1)
	if err != nil {
		return ir.NoNode, err
	}
	for {
		tok := p.peek()
		if tok.Kind != TokenOperator {
			return left, nil
		}
		op, ok := binaryLevels[level][tok.Lexeme]
		if !ok {
			if !isKnownOperator(tok.Lexeme) {
				return ir.NoNode, p.errorAt(tok, "unknown operator %q", tok.Lexeme)
			}
			return left, nil
		}
		p.advance()
		right, err := p.exprAt(level - 1)
		if err != nil {
			return ir.NoNode, err
		}
		left = p.arena.New(ir.Binary{Op: op, A: left, B: right}, tok.Loc())
	}
}

func isKnownOperator(s string) bool {
	if s == "=" || s == "!" {
		return true
	}
	for _, ops := range binaryLevels {
		if _, ok := ops[s]; ok {
			return true
		}
	}
	return false
}

// unary desugars «!e» to «e == false» and «-e» to «0 - e».
func (p *Parser) unary() (ir.NodeID, *ir.Error) {
	tok := p.peek()
	if tok.Kind == TokenOperator {
		switch tok.Lexeme {
		case "!":
			p.advance()
			operand, err := p.unary()
			if err != nil {
				return ir.NoNode, err
			}
			f := p.arena.New(ir.LiteralBool{Value: false}, tok.Loc())
			return p.arena.New(ir.Binary{Op: ir.OpEqual, A: operand, B: f}, tok.Loc()), nil
		case "-":
			p.advance()
			operand, err := p.unary()
			if err != nil {
				return ir.NoNode, err
			}
			zero := p.arena.New(ir.LiteralInt{Value: 0}, tok.Loc())
			return p.arena.New(ir.Binary{Op: ir.OpSub, A: zero, B: operand}, tok.Loc()), nil
		}
	}
	return p.apply()
}

// apply parses postfix calls, index expressions and field accesses.
func (p *Parser) apply() (ir.NodeID, *ir.Error) {
	start := p.peek()
	expr, err := p.primary()
	if err != nil {
		return ir.NoNode, err
	}

	for {
		switch {
		case p.check(TokenLeftParen):
			callee, ok := p.arena.Node(expr).(ir.Var)
			if !ok {
				return ir.NoNode, p.errorAt(p.peek(), "only named functions can be called")
			}
			args, err := p.arguments()
			if err != nil {
				return ir.NoNode, err
			}
			p.arena.Replace(expr, ir.Call{Name: callee.Name, Args: args})
		case p.match(TokenLeftBracket):
			index, err := p.expression()
			if err != nil {
				return ir.NoNode, err
			}
			if err := p.expectErr(TokenRightBracket, "after array index"); err != nil {
				return ir.NoNode, err
			}
			expr = p.arena.New(ir.ArrayLookup{Target: expr, Index: index}, start.Loc())
		case p.match(TokenDot):
			name, err := p.expect(TokenIdent, "as field name")
			if err != nil {
				return ir.NoNode, err
			}
			expr = p.arena.New(ir.Field{Target: expr, Name: name.Lexeme}, start.Loc())
		default:
			return expr, nil
		}
	}
}

// arguments parses «( [expr {, expr}] )».
func (p *Parser) arguments() ([]ir.NodeID, *ir.Error) {
	if err := p.expectErr(TokenLeftParen, "to open argument list"); err != nil {
		return nil, err
	}
	var args []ir.NodeID
	if p.match(TokenRightParen) {
		return args, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.match(TokenComma) {
			continue
		}
		if err := p.expectErr(TokenRightParen, "after arguments"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *Parser) primary() (ir.NodeID, *ir.Error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenGlobal, TokenMat, TokenVert, TokenOut, TokenBody, TokenFrag:
		p.advance()
		return p.arena.New(ir.NamespaceRef{Space: namespaceTokens[tok.Kind]}, tok.Loc()), nil

	case TokenIdent:
		p.advance()
		return p.arena.New(ir.Var{Name: tok.Lexeme}, tok.Loc()), nil

	case TokenTypeName:
		// A type name in expression position is a constructor call.
		p.advance()
		if !p.check(TokenLeftParen) {
			return ir.NoNode, p.errorAt(p.peek(), "expected '(' after type name %s", tok.Lexeme)
		}
		args, err := p.arguments()
		if err != nil {
			return ir.NoNode, err
		}
		return p.arena.New(ir.Call{Name: tok.Lexeme, Args: args}, tok.Loc()), nil

	case TokenIntLiteral:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			return ir.NoNode, p.errorAt(tok, "integer literal %s out of range", tok.Lexeme)
		}
		return p.arena.New(ir.LiteralInt{Value: v}, tok.Loc()), nil

	case TokenFloatLiteral:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 32)
		if err != nil {
			return ir.NoNode, p.errorAt(tok, "float literal %s out of range", tok.Lexeme)
		}
		return p.arena.New(ir.LiteralFloat{Value: v, Text: tok.Lexeme}, tok.Loc()), nil

	case TokenTrue, TokenFalse:
		p.advance()
		return p.arena.New(ir.LiteralBool{Value: tok.Kind == TokenTrue}, tok.Loc()), nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return ir.NoNode, err
		}
		if err := p.expectErr(TokenRightParen, "after parenthesized expression"); err != nil {
			return ir.NoNode, err
		}
		return expr, nil

	case TokenLeftBracket:
		return p.arrayLiteral()

	default:
		return ir.NoNode, p.errorAt(tok, "expected expression, got %s", tok.describe())
	}
}

// arrayLiteral parses «[]Elem{ e, e, ... }».
func (p *Parser) arrayLiteral() (ir.NodeID, *ir.Error) {
	tok := p.advance() // consume '['
	if err := p.expectErr(TokenRightBracket, "in array literal"); err != nil {
		return ir.NoNode, err
	}
	elem, err := p.typeExpr()
	if err != nil {
		return ir.NoNode, err
	}
	if err := p.expectErr(TokenLeftBrace, "to open array literal"); err != nil {
		return ir.NoNode, err
	}

	var elems []ir.NodeID
	for !p.check(TokenRightBrace) {
		e, err := p.expression()
		if err != nil {
			return ir.NoNode, err
		}
		elems = append(elems, e)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightBrace, "to close array literal"); err != nil {
		return ir.NoNode, err
	}
	return p.arena.New(ir.LiteralArray{Elem: elem, Elems: elems}, tok.Loc()), nil
}

// Helper methods

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchOperator(lexeme string) bool {
	tok := p.peek()
	if tok.Kind == TokenOperator && tok.Lexeme == lexeme {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		if len(p.tokens) == 0 {
			return Token{Kind: TokenEOF, Line: 1, Column: 1}
		}
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

// expect consumes a token of the given kind and returns it.
func (p *Parser) expect(kind TokenKind, context string) (Token, *ir.Error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorAt(tok, "expected %s %s, got %s", kind, context, tok.describe())
}

// expectErr is expect for callers that do not need the token.
func (p *Parser) expectErr(kind TokenKind, context string) *ir.Error {
	_, err := p.expect(kind, context)
	return err
}

func (p *Parser) errorAt(tok Token, format string, args ...interface{}) *ir.Error {
	return ir.Errorf(ir.ErrParse, tok.Loc(), format, args...)
}

// Package lang turns Gasoline shader-stage source text into an ir.Shader.
//
// The surface language is a small statement language: variable
// declarations, assignments, if, for, blocks, discard and return. Values
// reach the shader through six namespaces (global, mat, vert, out, body,
// frag) that are accessed with field syntax.
//
//	var n = normalize(vert.normal);
//	out.diffuse = mat.albedo * max(0.2, dot(n, global.sunDirection));
package lang

import "github.com/gogpu/gasoline/ir"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Literals and names
	TokenIdent
	TokenTypeName
	TokenIntLiteral
	TokenFloatLiteral

	// TokenOperator is a run of operator characters such as "+", "==" or "&&".
	TokenOperator

	// Structural symbols, never combined
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenDot          // .
	TokenComma        // ,
	TokenSemicolon    // ;
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenColon        // :

	// Keywords
	TokenVar
	TokenIf
	TokenElse
	TokenFor
	TokenDiscard
	TokenReturn
	TokenTrue
	TokenFalse

	// Namespace keywords
	TokenGlobal
	TokenMat
	TokenVert
	TokenOut
	TokenBody
	TokenFrag
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenTypeName:
		return "type name"
	case TokenIntLiteral:
		return "integer literal"
	case TokenFloatLiteral:
		return "float literal"
	case TokenOperator:
		return "operator"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenDot:
		return "."
	case TokenComma:
		return ","
	case TokenSemicolon:
		return ";"
	case TokenLeftBracket:
		return "["
	case TokenRightBracket:
		return "]"
	case TokenColon:
		return ":"
	case TokenVar:
		return "var"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenFor:
		return "for"
	case TokenDiscard:
		return "discard"
	case TokenReturn:
		return "return"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenGlobal:
		return "global"
	case TokenMat:
		return "mat"
	case TokenVert:
		return "vert"
	case TokenOut:
		return "out"
	case TokenBody:
		return "body"
	case TokenFrag:
		return "frag"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

// Loc returns the token position as an ir.Location.
func (t Token) Loc() ir.Location {
	return ir.Location{Line: t.Line, Column: t.Column}
}

// describe renders a token for error messages.
func (t Token) describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of input"
	case TokenIdent, TokenTypeName, TokenIntLiteral, TokenFloatLiteral, TokenOperator:
		return t.Kind.String() + " \"" + t.Lexeme + "\""
	default:
		return "\"" + t.Lexeme + "\""
	}
}

var keywords = map[string]TokenKind{
	"var":     TokenVar,
	"if":      TokenIf,
	"else":    TokenElse,
	"for":     TokenFor,
	"discard": TokenDiscard,
	"return":  TokenReturn,
	"true":    TokenTrue,
	"false":   TokenFalse,

	"global": TokenGlobal,
	"mat":    TokenMat,
	"vert":   TokenVert,
	"out":    TokenOut,
	"body":   TokenBody,
	"frag":   TokenFrag,
}

var namespaceTokens = map[TokenKind]ir.Namespace{
	TokenGlobal: ir.NSGlobal,
	TokenMat:    ir.NSMat,
	TokenVert:   ir.NSVert,
	TokenOut:    ir.NSOut,
	TokenBody:   ir.NSBody,
	TokenFrag:   ir.NSFrag,
}

package lang

import (
	"strings"

	"github.com/gogpu/gasoline/ir"
)

// Lexer tokenizes Gasoline source code.
type Lexer struct {
	source string
	pos    int
	line   int
	column int

	start       int
	startLine   int
	startColumn int

	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 4 characters of source.
	estTokens := len(source) / 4
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize lexes source in one call.
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

// Tokenize returns all tokens from the source, ending with an EOF token.
// The first malformed input aborts with an *ir.Error of kind ErrLex.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startLine = l.line
		l.startColumn = l.column
		if err := l.scanToken(); err != nil {
			return nil, err.WithSource(l.source)
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() *ir.Error {
	c := l.advance()

	switch c {
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '.':
		l.addToken(TokenDot)
	case ',':
		l.addToken(TokenComma)
	case ';':
		l.addToken(TokenSemicolon)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ':':
		l.addToken(TokenColon)

	case ' ', '\r', '\t':
	case '\n':
		l.newline()

	default:
		switch {
		case c == '/' && l.peek() == '/':
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		case c == '/' && l.peek() == '*':
			return l.blockComment()
		case isOperatorChar(c):
			l.operator()
		case isDigit(c):
			return l.number()
		case isAlpha(c) || c == '_':
			l.identifier()
		default:
			return ir.Errorf(ir.ErrLex, l.startLoc(), "unrecognized character %q", c)
		}
	}

	return nil
}

func (l *Lexer) blockComment() *ir.Error {
	l.advance() // consume '*'
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		if l.advance() == '\n' {
			l.newline()
		}
	}
	return ir.Errorf(ir.ErrLex, l.startLoc(), "unterminated block comment")
}

// operator lexes a maximal run of operator characters. The run stops before
// a comment opener and then gives back trailing prefix operators, so that
// "a+-b" is "a", "+", "-", "b".
func (l *Lexer) operator() {
	for !l.isAtEnd() && isOperatorChar(l.peek()) {
		if l.peek() == '/' && (l.peekNext() == '/' || l.peekNext() == '*') {
			break
		}
		l.advance()
	}
	for l.pos-l.start > 1 && strings.IndexByte("+-~!", l.source[l.pos-1]) >= 0 {
		l.pos--
		l.column--
	}
	l.addToken(TokenOperator)
}

func (l *Lexer) number() *ir.Error {
	for isDigit(l.peek()) {
		l.advance()
	}

	kind := TokenIntLiteral

	if l.peek() == '.' {
		kind = TokenFloatLiteral
		l.advance()
		if !isDigit(l.peek()) {
			return ir.Errorf(ir.ErrLex, l.startLoc(), "malformed number %q: expected digit after '.'", l.source[l.start:l.pos])
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		kind = TokenFloatLiteral
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		if !isDigit(l.peek()) {
			return ir.Errorf(ir.ErrLex, l.startLoc(), "malformed number %q: expected exponent digits", l.source[l.start:l.pos])
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if isAlpha(l.peek()) || l.peek() == '_' || l.peek() == '.' {
		return ir.Errorf(ir.ErrLex, l.startLoc(), "malformed number %q", l.source[l.start:l.pos+1])
	}

	l.addToken(kind)
	return nil
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	if kind, ok := keywords[text]; ok {
		l.addToken(kind)
		return
	}
	if _, ok := ir.ParseTypeName(text); ok {
		l.addToken(TokenTypeName)
		return
	}
	l.addToken(TokenIdent)
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startColumn,
	})
}

func (l *Lexer) startLoc() ir.Location {
	return ir.Location{Line: l.startLine, Column: l.startColumn}
}

func (l *Lexer) newline() {
	l.line++
	l.column = 1
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	l.column++
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isOperatorChar(c byte) bool {
	return strings.IndexByte("+-*/%<>=!&|~^?@#", c) >= 0
}

package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Lexer tokenizes SQL input.
//
// Malformed input (unterminated strings, quoted identifiers or block
// comments, stray characters) is reported as an ILLEGAL token whose literal
// carries the error message, so truncated workload text fails to parse
// instead of being silently accepted.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	pendingErr string
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	if l.pendingErr != "" {
		msg := l.pendingErr
		l.pendingErr = ""
		return token.Token{Type: token.ILLEGAL, Literal: msg, Pos: pos}
	}
	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	single := func(t token.TokenType) token.Token {
		lit := string(l.ch)
		l.readChar()
		return token.Token{Type: t, Literal: lit, Pos: pos}
	}
	double := func(t token.TokenType, lit string) token.Token {
		l.readChar()
		l.readChar()
		return token.Token{Type: t, Literal: lit, Pos: pos}
	}

	switch l.ch {
	case '+':
		return single(token.PLUS)
	case '-':
		if l.peekChar() == '>' {
			return double(token.ARROW, "->")
		}
		return single(token.MINUS)
	case '*':
		return single(token.STAR)
	case '/':
		return single(token.SLASH)
	case '%':
		return single(token.PERCENT)
	case '=':
		return single(token.EQ)
	case '<':
		switch l.peekChar() {
		case '=':
			return double(token.LE, "<=")
		case '>':
			return double(token.NE, "<>")
		}
		return single(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return double(token.GE, ">=")
		}
		return single(token.GT)
	case '!':
		if l.peekChar() == '=' {
			return double(token.NE, "!=")
		}
	case '|':
		if l.peekChar() == '|' {
			return double(token.DPIPE, "||")
		}
	case ':':
		if l.peekChar() == ':' {
			return double(token.DCOLON, "::")
		}
	case '.':
		if isDigit(l.peekChar()) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		return single(token.DOT)
	case ',':
		return single(token.COMMA)
	case '(':
		return single(token.LPAREN)
	case ')':
		return single(token.RPAREN)
	case '[':
		return single(token.LBRACKET)
	case ']':
		return single(token.RBRACKET)
	case ';':
		return single(token.SEMICOLON)
	case '?':
		return single(token.PARAM)
	case '$':
		if isDigit(l.peekChar()) {
			start := l.pos
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
			return token.Token{Type: token.PARAM, Literal: l.input[start:l.pos], Pos: pos}
		}
	case '\'':
		s, ok := l.readQuoted('\'')
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedString, Pos: pos}
		}
		return token.Token{Type: token.STRING, Literal: s, Pos: pos}
	case '"', '`':
		s, ok := l.readQuoted(l.ch)
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: ErrUnterminatedIdent, Pos: pos}
		}
		return token.Token{Type: token.IDENT, Literal: s, Quoted: true, Pos: pos}
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(lit), Literal: lit, Pos: pos}
		case isDigit(l.ch):
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		}
	}

	ch := l.ch
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Literal: fmt.Sprintf(ErrIllegalCharacter, ch), Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, -- line comments and
// /* block */ comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			closed := false
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				l.pendingErr = ErrUnterminatedBlock
				return
			}
			continue
		}

		return
	}
}

// readQuoted reads a literal delimited by quote, where a doubled quote
// escapes itself: 'it''s' -> it's. ok is false when input ends first.
func (l *Lexer) readQuoted(quote byte) (string, bool) {
	l.readChar() // opening quote

	var sb strings.Builder
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				sb.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing quote
			return sb.String(), true
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return sb.String(), false
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && (isDigit(l.peekChar()) || l.pos == start) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isLetter accepts ASCII letters and any non-ASCII byte, so UTF-8
// identifiers lex as a single IDENT.
func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}

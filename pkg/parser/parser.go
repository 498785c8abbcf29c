// Package parser parses the SQL found in warehouse workloads: SELECT
// statements (with CTEs, set operations, joins, subqueries and window
// functions) and CREATE TABLE statements.
//
// # Usage
//
//	stmt, err := parser.Parse("SELECT a, b FROM t")
//	if err != nil {
//	    // handle error
//	}
//	switch s := stmt.(type) {
//	case *parser.SelectStmt:
//	case *parser.CreateTableStmt:
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for a subset of SQL:
//
//	statement     → (select_stmt | create_table) [;]
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	select_body   → operand [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	operand       → select_core | ( select_stmt )
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [WINDOW window_list] [QUALIFY expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr] [FETCH ...]
//	create_table  → CREATE [OR REPLACE] [TEMP] TABLE [IF NOT EXISTS] table_name
//	                [( column_defs )] [options] [AS select_stmt]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	peek2  token.Token // second lookahead token
	errors []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{lexer: NewLexer(sql)}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement. A trailing semicolon is allowed; any
// other trailing input is an error.
func Parse(sql string) (Statement, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ParseSelect parses a single SELECT statement.
func ParseSelect(sql string) (*SelectStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, &ParseError{Pos: token.Position{Line: 1, Column: 1}, Message: "not a SELECT statement"}
	}
	return sel, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token. Once an error is recorded the
// parser stays on EOF so every loop terminates.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
	if p.token.Type == token.ILLEGAL {
		p.addError(p.token.Literal)
	}
	if p.failed() {
		p.token.Type = token.EOF
	}
}

// failed reports whether an error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

func (p *Parser) checkPeek2(t token.TokenType) bool {
	return p.peek2.Type == t
}

// checkWord reports whether the current token is the unreserved word w.
func (p *Parser) checkWord(w string) bool {
	return p.token.Type == token.IDENT && !p.token.Quoted && strings.EqualFold(p.token.Literal, w)
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchWord consumes the current token if it is the unreserved word w.
func (p *Parser) matchWord(w string) bool {
	if p.checkWord(w) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.errorf(ErrUnexpectedToken, p.describe(), t)
	return false
}

func (p *Parser) describe() string {
	switch p.token.Type {
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", p.token.Type, p.token.Literal)
	case token.STRING:
		return "STRING"
	}
	return p.token.Type.String()
}

// addError records a parse error. Only the first error is reported.
func (p *Parser) addError(msg string) {
	if p.failed() {
		return
	}
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

func (p *Parser) errorf(format string, args ...any) {
	p.addError(fmt.Sprintf(format, args...))
}

// ---------- Identifier Helpers ----------

// isIdentLike returns true if tok can be used as a name.
func isIdentLike(tok token.Token) bool {
	return tok.Type == token.IDENT || token.IsSoftKeyword(tok.Type)
}

// parseIdent consumes a name and returns its text.
func (p *Parser) parseIdent() string {
	if !isIdentLike(p.token) {
		p.errorf(ErrUnexpectedToken, p.describe(), "identifier")
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parseIdentList parses ( ident [, ident]* ).
func (p *Parser) parseIdentList() []string {
	if !p.expect(token.LPAREN) {
		return nil
	}
	var names []string
	for !p.failed() {
		names = append(names, p.parseIdent())
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return names
}

// canStartImplicitAlias returns true if tok can be an alias written
// without AS. Reserved and soft keywords are excluded so that clause
// words such as WINDOW or ROWS are never swallowed as aliases.
func canStartImplicitAlias(tok token.Token) bool {
	return tok.Type == token.IDENT &&
		!(!tok.Quoted && isContextualClauseWord(tok.Literal))
}

// isContextualClauseWord lists unreserved words that begin a clause or
// modifier after a table or select item.
func isContextualClauseWord(s string) bool {
	switch strings.ToLower(s) {
	case "tablesample", "for", "returning", "escape":
		return true
	}
	return false
}

// parseOptionalAlias parses [AS] alias.
func (p *Parser) parseOptionalAlias() string {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		return p.parseIdent()
	}
	if canStartImplicitAlias(p.token) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

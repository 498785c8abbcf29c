package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Primary expression grammar:
//
//	primary   → literal | param | case_expr | cast_expr | extract_expr
//	          | interval | typed_literal | ( select_stmt ) | ( expr [, expr]* )
//	          | * | name_chain [. *] | func_call
//	func_call → name ( [DISTINCT] [* | args] [ORDER BY ...] ) [WITHIN GROUP ( ORDER BY ... )]
//	            [FILTER ( WHERE expr )] [OVER window]

// typedLiteralPrefixes are type names that may prefix a string literal,
// as in DATE '2024-01-01'.
var typedLiteralPrefixes = map[string]bool{
	"date":        true,
	"time":        true,
	"timestamp":   true,
	"timestamptz": true,
	"decimal":     true,
	"json":        true,
	"uuid":        true,
}

func (p *Parser) parsePrimary() Expr {
	tok := p.token

	switch tok.Type {
	case token.NUMBER:
		p.nextToken()
		return &Literal{Type: LiteralNumber, Value: tok.Literal}
	case token.STRING:
		p.nextToken()
		return &Literal{Type: LiteralString, Value: tok.Literal}
	case token.TRUE, token.FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: strings.ToUpper(tok.Literal)}
	case token.NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}
	case token.PARAM:
		p.nextToken()
		return &ParamExpr{Text: tok.Literal}
	case token.CASE:
		return p.parseCase()
	case token.CAST:
		return p.parseCast(false)
	case token.STAR:
		p.nextToken()
		return &StarExpr{}
	case token.LPAREN:
		return p.parseParenExpr()
	case token.LEFT, token.RIGHT:
		// LEFT(s, n) / RIGHT(s, n) string functions
		if p.checkPeek(token.LPAREN) {
			p.nextToken()
			return p.parseFuncCallArgs(tok.Literal)
		}
	}

	if !isIdentLike(tok) {
		p.errorf(ErrUnexpectedToken, p.describe(), "expression")
		return nil
	}

	if tok.Type == token.IDENT && !tok.Quoted {
		lower := strings.ToLower(tok.Literal)
		switch {
		case lower == "try_cast" && p.checkPeek(token.LPAREN):
			return p.parseCast(true)
		case lower == "extract" && p.checkPeek(token.LPAREN):
			return p.parseExtract()
		case lower == "interval" && (p.checkPeek(token.STRING) || p.checkPeek(token.NUMBER)):
			return p.parseInterval()
		case typedLiteralPrefixes[lower] && p.checkPeek(token.STRING):
			p.nextToken()
			val := p.token.Literal
			p.nextToken()
			return &Literal{Type: LiteralTyped, Value: val, TypeName: strings.ToUpper(tok.Literal)}
		case lower == "array" && p.checkPeek(token.LBRACKET):
			p.nextToken()
			p.nextToken()
			fn := &FuncCall{Name: "ARRAY"}
			if !p.check(token.RBRACKET) {
				fn.Args = p.parseExprList()
			}
			p.expect(token.RBRACKET)
			return fn
		}
	}

	return p.parseNameChain()
}

// parseNameChain parses name [. name]* followed by an optional ( for a
// function call, or a trailing .* for a qualified star.
func (p *Parser) parseNameChain() Expr {
	pos := p.token.Pos
	parts := []string{p.parseIdent()}

	for p.check(token.DOT) {
		p.nextToken()
		if p.check(token.STAR) {
			p.nextToken()
			return &StarExpr{Table: strings.Join(parts, ".")}
		}
		// Any keyword is a valid name after a dot (t.date, t.order).
		if p.token.Type == token.IDENT || token.IsKeyword(p.token.Type) {
			parts = append(parts, p.token.Literal)
			p.nextToken()
			continue
		}
		p.errorf(ErrUnexpectedToken, p.describe(), "identifier")
		return nil
	}

	if p.check(token.LPAREN) {
		return p.parseFuncCallArgs(strings.Join(parts, "."))
	}

	col := &ColumnRef{Pos: pos}
	switch len(parts) {
	case 1:
		col.Column = parts[0]
	case 2:
		col.Table, col.Column = parts[0], parts[1]
	case 3:
		col.Schema, col.Table, col.Column = parts[0], parts[1], parts[2]
	case 4:
		col.Catalog, col.Schema, col.Table, col.Column = parts[0], parts[1], parts[2], parts[3]
	default:
		p.errorf("column reference has too many parts: %d", len(parts))
		return nil
	}
	return col
}

// parseParenExpr parses ( select_stmt ), ( expr ) or ( expr, expr, ... ).
func (p *Parser) parseParenExpr() Expr {
	if isSelectStart(p.peek) {
		return &SubqueryExpr{Select: p.parseParenSelect()}
	}
	p.expect(token.LPAREN)
	first := p.parseExpr()
	if p.check(token.COMMA) {
		tuple := &TupleExpr{Items: []Expr{first}}
		for p.match(token.COMMA) {
			tuple.Items = append(tuple.Items, p.parseExpr())
		}
		p.expect(token.RPAREN)
		return tuple
	}
	p.expect(token.RPAREN)
	return &ParenExpr{Expr: first}
}

// parseFuncCallArgs parses the argument list and trailing modifiers of a
// function call whose name has already been consumed.
func (p *Parser) parseFuncCallArgs(name string) *FuncCall {
	fn := &FuncCall{Name: strings.ToUpper(name)}
	p.expect(token.LPAREN)

	switch {
	case p.check(token.RPAREN):
	case p.check(token.STAR) && p.checkPeek(token.RPAREN):
		p.nextToken()
		fn.Star = true
	case p.parseKeywordArgs(fn):
	default:
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		for !p.failed() {
			if isSelectStart(p.token) {
				fn.Args = append(fn.Args, &SubqueryExpr{Select: p.parseSelectStmt()})
			} else {
				fn.Args = append(fn.Args, p.parseExpr())
			}
			if !p.match(token.COMMA) {
				break
			}
		}
		if p.check(token.ORDER) {
			p.nextToken()
			p.expect(token.BY)
			fn.WithinGroup = p.parseOrderByList()
		}
		p.skipNullTreatment()
	}
	p.expect(token.RPAREN)
	p.skipNullTreatment()

	if p.check(token.WITHIN) {
		p.nextToken()
		p.expect(token.GROUP)
		p.expect(token.LPAREN)
		p.expect(token.ORDER)
		p.expect(token.BY)
		fn.WithinGroup = p.parseOrderByList()
		p.expect(token.RPAREN)
	}

	if p.check(token.FILTER) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		p.expect(token.WHERE)
		fn.Filter = p.parseExpr()
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		fn.Window = p.parseWindowRef()
	}
	return fn
}

// parseKeywordArgs parses the keyword argument forms POSITION(needle IN
// haystack) and SUBSTRING(s FROM start FOR length). POSITION is rewritten
// to STRPOS(haystack, needle). It reports whether the argument list is
// complete; on false, parsing continues after a comma with fn.Args holding
// the arguments read so far.
func (p *Parser) parseKeywordArgs(fn *FuncCall) bool {
	switch fn.Name {
	case "POSITION":
		needle := p.parseExprPrec(precComparison + 1)
		if p.match(token.IN) {
			fn.Name = "STRPOS"
			fn.Args = []Expr{p.parseExpr(), needle}
			return true
		}
		fn.Args = []Expr{needle}
	case "SUBSTRING", "SUBSTR":
		fn.Args = []Expr{p.parseExpr()}
		if !p.check(token.FROM) && !p.checkWord("for") {
			break
		}
		if p.match(token.FROM) {
			fn.Args = append(fn.Args, p.parseExpr())
		} else {
			fn.Args = append(fn.Args, &Literal{Type: LiteralNumber, Value: "1"})
		}
		if p.matchWord("for") {
			fn.Args = append(fn.Args, p.parseExpr())
		}
		return true
	default:
		return false
	}
	return !p.match(token.COMMA)
}

// skipNullTreatment consumes IGNORE NULLS / RESPECT NULLS.
func (p *Parser) skipNullTreatment() {
	if (p.checkWord("ignore") || p.checkWord("respect")) && p.checkPeek(token.NULLS) {
		p.nextToken()
		p.nextToken()
	}
}

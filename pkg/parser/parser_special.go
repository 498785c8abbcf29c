package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Special expression grammar:
//
//	case_expr    → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr    → (CAST | TRY_CAST) ( expr AS type_name )
//	extract_expr → EXTRACT ( field FROM expr )
//	interval     → INTERVAL (string | number) [unit [TO unit]]
//	exists_expr  → EXISTS ( select_stmt )
//	type_name    → name [name] [( args )] [[]]*

func (p *Parser) parseCase() Expr {
	p.expect(token.CASE)
	c := &CaseExpr{}
	if !p.check(token.WHEN) {
		c.Operand = p.parseExpr()
	}
	for p.match(token.WHEN) {
		w := &WhenClause{Condition: p.parseExpr()}
		p.expect(token.THEN)
		w.Result = p.parseExpr()
		c.Whens = append(c.Whens, w)
	}
	if len(c.Whens) == 0 {
		p.errorf(ErrUnexpectedToken, p.describe(), "WHEN")
		return nil
	}
	if p.match(token.ELSE) {
		c.Else = p.parseExpr()
	}
	p.expect(token.END)
	return c
}

func (p *Parser) parseCast(try bool) Expr {
	p.nextToken() // CAST or TRY_CAST
	p.expect(token.LPAREN)
	c := &CastExpr{Expr: p.parseExpr(), Try: try}
	p.expect(token.AS)
	c.TypeName = p.parseTypeName()
	p.expect(token.RPAREN)
	return c
}

func (p *Parser) parseExtract() Expr {
	p.nextToken() // EXTRACT
	p.expect(token.LPAREN)
	e := &ExtractExpr{}
	if p.check(token.STRING) {
		e.Field = strings.ToUpper(p.token.Literal)
		p.nextToken()
	} else {
		e.Field = strings.ToUpper(p.parseIdent())
	}
	p.expect(token.FROM)
	e.From = p.parseExpr()
	p.expect(token.RPAREN)
	return e
}

// intervalUnits are the words accepted after an INTERVAL literal.
var intervalUnits = map[string]bool{
	"year": true, "years": true, "quarter": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true, "hour": true, "hours": true,
	"minute": true, "minutes": true, "second": true, "seconds": true,
	"millisecond": true, "milliseconds": true, "microsecond": true, "microseconds": true,
}

func (p *Parser) parseInterval() Expr {
	p.nextToken() // INTERVAL
	iv := &IntervalExpr{}
	if p.check(token.STRING) {
		iv.Value = &Literal{Type: LiteralString, Value: p.token.Literal}
	} else {
		iv.Value = &Literal{Type: LiteralNumber, Value: p.token.Literal}
	}
	p.nextToken()

	if p.token.Type == token.IDENT && intervalUnits[strings.ToLower(p.token.Literal)] {
		iv.Unit = strings.ToUpper(p.token.Literal)
		p.nextToken()
		if p.checkWord("to") && p.peek.Type == token.IDENT && intervalUnits[strings.ToLower(p.peek.Literal)] {
			p.nextToken()
			iv.Unit += " TO " + strings.ToUpper(p.token.Literal)
			p.nextToken()
		}
	}
	return iv
}

func (p *Parser) parseExists() *ExistsExpr {
	p.expect(token.EXISTS)
	return &ExistsExpr{Select: p.parseParenSelect()}
}

// multiWordTypes maps the first word of a multi-word type name to the
// words that may follow it.
var multiWordTypes = map[string][]string{
	"double":    {"precision"},
	"character": {"varying"},
	"timestamp": {"with", "without", "time", "zone"},
	"time":      {"with", "without", "time", "zone"},
}

// parseTypeName parses a type name such as VARCHAR(100), DECIMAL(10, 2),
// DOUBLE PRECISION, TIMESTAMP(3) WITH TIME ZONE, ARRAY(VARCHAR) or INT[].
func (p *Parser) parseTypeName() string {
	if !isIdentLike(p.token) {
		p.errorf(ErrUnexpectedToken, p.describe(), "type name")
		return ""
	}
	first := strings.ToUpper(p.token.Literal)
	follow := multiWordTypes[strings.ToLower(first)]
	p.nextToken()

	var sb strings.Builder
	sb.WriteString(first)
	p.writeTypeWords(&sb, follow)

	if p.check(token.LPAREN) {
		sb.WriteString(p.collectBalanced())
		// TIMESTAMP(3) WITH TIME ZONE
		p.writeTypeWords(&sb, follow)
	}
	for p.check(token.LBRACKET) && p.checkPeek(token.RBRACKET) {
		p.nextToken()
		p.nextToken()
		sb.WriteString("[]")
	}
	return sb.String()
}

func (p *Parser) writeTypeWords(sb *strings.Builder, follow []string) {
	for isTypeWord(p.token, follow) {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToUpper(p.token.Literal))
		p.nextToken()
	}
}

func isTypeWord(tok token.Token, allowed []string) bool {
	if tok.Type != token.IDENT && tok.Type != token.WITH {
		return false
	}
	for _, w := range allowed {
		if strings.EqualFold(tok.Literal, w) {
			return true
		}
	}
	return false
}

// collectBalanced consumes a parenthesized token run and returns its text
// with tokens re-joined. The current token must be (.
func (p *Parser) collectBalanced() string {
	var sb strings.Builder
	depth := 0
	prev := token.LPAREN
	for !p.failed() {
		tok := p.token
		switch tok.Type {
		case token.EOF:
			p.errorf(ErrUnexpectedToken, "EOF", ")")
			return sb.String()
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		if needsSpace(prev, tok.Type) {
			sb.WriteByte(' ')
		}
		if tok.Type == token.STRING {
			sb.WriteString("'" + strings.ReplaceAll(tok.Literal, "'", "''") + "'")
		} else {
			sb.WriteString(tok.Literal)
		}
		prev = tok.Type
		p.nextToken()
		if depth == 0 {
			break
		}
	}
	return sb.String()
}

func needsSpace(prev, cur token.TokenType) bool {
	switch {
	case prev == token.LPAREN, prev == token.DOT:
		return false
	case cur == token.RPAREN, cur == token.COMMA, cur == token.DOT, cur == token.LPAREN:
		return false
	}
	return true
}

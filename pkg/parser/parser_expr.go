package parser

import "github.com/leapstack-labs/ctxpack/pkg/token"

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone       = 0
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precAddition   = 5  (+, -, ||)
//	precMultiply   = 6  (*, /, %)
//	precUnary      = 7  (-, +)
//	precPostfix    = 8  (::, [])
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
	precPostfix
)

// parseExpr parses a full expression.
func (p *Parser) parseExpr() Expr {
	return p.parseExprPrec(precNone + 1)
}

// parseExprPrec parses an expression whose infix operators bind at least
// as tightly as minPrec.
func (p *Parser) parseExprPrec(minPrec int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}
	if p.check(token.ARROW) {
		return p.parseLambda(left)
	}

	for !p.failed() {
		prec := p.infixPrecedence()
		if prec == precNone || prec < minPrec {
			break
		}
		left = p.parseInfixExpr(left, prec)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			e := p.parseExists()
			e.Not = true
			return e
		}
		p.nextToken()
		return &UnaryExpr{Op: token.NOT, Expr: p.parseExprPrec(precNot)}
	case token.MINUS, token.PLUS:
		op := p.token.Type
		p.nextToken()
		return &UnaryExpr{Op: op, Expr: p.parseExprPrec(precUnary)}
	case token.EXISTS:
		return p.parseExists()
	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of the current token as an infix
// operator, or precNone.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
		return precComparison
	case token.NOT:
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
			return precComparison
		}
	case token.PLUS, token.MINUS, token.DPIPE:
		return precAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	case token.DCOLON, token.LBRACKET:
		return precPostfix
	}
	return precNone
}

func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	op := p.token.Type

	switch op {
	case token.DCOLON:
		p.nextToken()
		return &CastExpr{Expr: left, TypeName: p.parseTypeName(), Postfix: true}
	case token.LBRACKET:
		p.nextToken()
		idx := p.parseExpr()
		p.expect(token.RBRACKET)
		return &SubscriptExpr{Expr: left, Index: idx}
	case token.IS:
		return p.parseIs(left)
	}

	not := false
	if op == token.NOT {
		not = true
		p.nextToken()
		op = p.token.Type
	}

	switch op {
	case token.IN:
		return p.parseIn(left, not)
	case token.BETWEEN:
		p.nextToken()
		low := p.parseExprPrec(precComparison + 1)
		p.expect(token.AND)
		high := p.parseExprPrec(precComparison + 1)
		return &BetweenExpr{Expr: left, Not: not, Low: low, High: high}
	case token.LIKE, token.ILIKE:
		p.nextToken()
		like := &LikeExpr{Expr: left, Not: not, ILike: op == token.ILIKE}
		like.Pattern = p.parseExprPrec(precComparison + 1)
		if p.matchWord("escape") {
			like.Escape = p.parseExprPrec(precComparison + 1)
		}
		return like
	}

	p.nextToken()
	right := p.parseExprPrec(prec + 1)
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// parseLambda parses the body of x -> expr or (x, y) -> expr. params is
// the already parsed left side and must be one or more bare names.
func (p *Parser) parseLambda(params Expr) Expr {
	var items []Expr
	switch e := params.(type) {
	case *ColumnRef:
		items = []Expr{e}
	case *ParenExpr:
		items = []Expr{e.Expr}
	case *TupleExpr:
		items = e.Items
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		col, ok := item.(*ColumnRef)
		if !ok || col.Table != "" {
			break
		}
		names = append(names, col.Column)
	}
	if len(items) == 0 || len(names) != len(items) {
		p.errorf("invalid lambda parameters")
		return nil
	}

	p.expect(token.ARROW)
	return &LambdaExpr{Params: names, Body: p.parseExpr()}
}

// parseIs parses IS [NOT] NULL | TRUE | FALSE | DISTINCT FROM expr.
// IS [NOT] DISTINCT FROM is folded into != / = comparisons.
func (p *Parser) parseIs(left Expr) Expr {
	p.expect(token.IS)
	not := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: not}
	case token.TRUE, token.FALSE:
		val := p.check(token.TRUE)
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: not, Value: val}
	case token.DISTINCT:
		p.nextToken()
		p.expect(token.FROM)
		right := p.parseExprPrec(precComparison + 1)
		op := token.NE
		if not {
			op = token.EQ
		}
		return &BinaryExpr{Left: left, Op: op, Right: right}
	}
	p.errorf(ErrUnexpectedToken, p.describe(), "NULL, TRUE, FALSE or DISTINCT FROM")
	return nil
}

// parseIn parses IN ( select_stmt | expr_list ).
func (p *Parser) parseIn(left Expr, not bool) Expr {
	p.expect(token.IN)
	in := &InExpr{Expr: left, Not: not}
	if !p.expect(token.LPAREN) {
		return nil
	}
	if isSelectStart(p.token) {
		in.Query = p.parseSelectStmt()
	} else {
		in.Values = p.parseExprList()
	}
	p.expect(token.RPAREN)
	return in
}

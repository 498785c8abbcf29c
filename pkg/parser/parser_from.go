package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// FROM clause grammar:
//
//	from_clause → table_ref [join | , table_ref]*
//	join        → [NATURAL] [INNER | CROSS | (LEFT|RIGHT|FULL) [OUTER]] JOIN table_ref
//	              [ON expr | USING ( column_list )]
//	table_ref   → table_name [alias]
//	            | [LATERAL] ( select_stmt ) [alias]
//	            | ( from_clause ) [alias]
//	            | ( VALUES row [, row]* ) [alias] | VALUES row [, row]* [alias]
//	            | [LATERAL] func_name ( args ) [alias]
//	table_name  → [[catalog .] schema .] name
//	alias       → [AS] name [( column_list )]

func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableRef()}

	for !p.failed() {
		if p.match(token.COMMA) {
			from.Joins = append(from.Joins, &Join{Type: JoinComma, Right: p.parseTableRef()})
			continue
		}
		if !p.isJoinStart() {
			break
		}
		from.Joins = append(from.Joins, p.parseJoin())
	}
	return from
}

func (p *Parser) isJoinStart() bool {
	switch p.token.Type {
	case token.JOIN, token.INNER, token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.NATURAL:
		return true
	}
	return false
}

func (p *Parser) parseJoin() *Join {
	join := &Join{Type: JoinInner}
	join.Natural = p.match(token.NATURAL)

	switch p.token.Type {
	case token.INNER:
		p.nextToken()
	case token.CROSS:
		join.Type = JoinCross
		p.nextToken()
	case token.LEFT, token.RIGHT, token.FULL:
		join.Type = map[token.TokenType]JoinType{
			token.LEFT:  JoinLeft,
			token.RIGHT: JoinRight,
			token.FULL:  JoinFull,
		}[p.token.Type]
		p.nextToken()
		p.match(token.OUTER)
	}
	p.expect(token.JOIN)

	join.Right = p.parseTableRef()

	if join.Type == JoinCross || join.Natural {
		return join
	}
	switch {
	case p.match(token.ON):
		join.Condition = p.parseExpr()
	case p.check(token.USING):
		p.nextToken()
		join.Using = p.parseIdentList()
	}
	return join
}

func (p *Parser) parseTableRef() TableRef {
	if p.match(token.LATERAL) {
		if p.check(token.LPAREN) {
			lt := &LateralTable{Select: p.parseParenSelect()}
			lt.Alias, lt.ColumnAliases = p.parseTableAlias()
			return lt
		}
		return p.parseFuncTable()
	}

	if p.check(token.LPAREN) {
		if p.checkPeek(token.VALUES) {
			p.nextToken()
			vt := p.parseValues()
			p.expect(token.RPAREN)
			vt.Alias, vt.ColumnAliases = p.parseTableAlias()
			return vt
		}
		if p.isDerivedTableStart() {
			dt := &DerivedTable{Select: p.parseParenSelect()}
			dt.Alias, dt.ColumnAliases = p.parseTableAlias()
			return dt
		}
		return p.parseJoinTree()
	}

	if p.check(token.VALUES) && p.checkPeek(token.LPAREN) {
		vt := p.parseValues()
		vt.Alias, vt.ColumnAliases = p.parseTableAlias()
		return vt
	}

	if !isIdentLike(p.token) {
		p.errorf(ErrUnexpectedToken, p.describe(), "table name")
		return nil
	}

	// A name followed by ( is a table function: UNNEST(...), generate_series(...)
	if p.checkPeek(token.LPAREN) {
		return p.parseFuncTable()
	}

	return p.parseTableName()
}

// isDerivedTableStart reports whether the ( at the current token opens a
// subquery rather than a parenthesized join.
func (p *Parser) isDerivedTableStart() bool {
	if isSelectStart(p.peek) {
		return true
	}
	return p.checkPeek(token.LPAREN) && (isSelectStart(p.peek2) || p.checkPeek2(token.LPAREN))
}

// parseJoinTree parses ( from_clause ) [alias], as in
// FROM (a JOIN b ON a.id = b.id) JOIN c ON ...
func (p *Parser) parseJoinTree() *JoinTree {
	p.expect(token.LPAREN)
	jt := &JoinTree{From: p.parseFromClause()}
	p.expect(token.RPAREN)
	jt.Alias, jt.ColumnAliases = p.parseTableAlias()
	return jt
}

func (p *Parser) parseTableName() *TableName {
	tn := &TableName{Pos: p.token.Pos}
	parts := []string{p.parseIdent()}
	for p.check(token.DOT) {
		p.nextToken()
		parts = append(parts, p.parseIdent())
	}

	switch len(parts) {
	case 1:
		tn.Name = parts[0]
	case 2:
		tn.Schema, tn.Name = parts[0], parts[1]
	case 3:
		tn.Catalog, tn.Schema, tn.Name = parts[0], parts[1], parts[2]
	default:
		p.errorf("table name has too many parts: %d", len(parts))
		return tn
	}

	tn.Alias, tn.ColumnAliases = p.parseTableAlias()
	return tn
}

func (p *Parser) parseFuncTable() *FuncTable {
	name := p.parseIdent()
	fn := p.parseFuncCallArgs(name)
	ft := &FuncTable{Func: fn}
	if p.check(token.WITH) && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "ordinality") {
		p.nextToken()
		p.nextToken()
	}
	ft.Alias, ft.ColumnAliases = p.parseTableAlias()
	return ft
}

// parseTableAlias parses [AS] alias [( column_list )].
func (p *Parser) parseTableAlias() (string, []string) {
	alias := p.parseOptionalAlias()
	if alias == "" {
		return "", nil
	}
	var cols []string
	if p.check(token.LPAREN) {
		cols = p.parseIdentList()
	}
	return alias, cols
}

// parseValues parses VALUES ( expr [, expr]* ) [, ( ... )]*.
func (p *Parser) parseValues() *ValuesTable {
	p.expect(token.VALUES)
	vt := &ValuesTable{}
	for !p.failed() {
		p.expect(token.LPAREN)
		vt.Rows = append(vt.Rows, p.parseExprList())
		p.expect(token.RPAREN)
		if !p.match(token.COMMA) {
			break
		}
	}
	return vt
}

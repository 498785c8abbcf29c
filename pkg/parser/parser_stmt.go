package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Statement-level grammar:
//
//	statement    → (select_stmt | create_table | insert) [;]
//	insert       → INSERT (INTO | OVERWRITE [TABLE]) table_name [( column_list )]
//	               (select_stmt | VALUES row [, row]*)
//	select_stmt  → [with_clause] select_body
//	with_clause  → WITH [RECURSIVE] cte [, cte]*
//	cte          → name [( column_list )] AS [[NOT] MATERIALIZED] ( select_stmt )
//	select_body  → operand [set_op [ALL|DISTINCT] select_body]
//	operand      → select_core | ( select_stmt )
//	select_core  → SELECT [DISTINCT|ALL] select_list [FROM from_clause] tail
//	tail         → [WHERE expr] [GROUP BY group_list] [HAVING expr]
//	               [WINDOW name AS ( window_spec ) [, ...]] [QUALIFY expr]
//	               [ORDER BY order_list] [LIMIT expr|ALL] [OFFSET expr [ROW|ROWS]]
//	               [FETCH (FIRST|NEXT) expr (ROW|ROWS) ONLY]
//	group_list   → group_item [, group_item]*
//	group_item   → expr | ROLLUP ( expr_list ) | CUBE ( expr_list )
//	             | GROUPING SETS ( grouping_set [, grouping_set]* )
//	grouping_set → ( ) | ( expr_list ) | expr

func (p *Parser) parseStatement() Statement {
	var stmt Statement
	switch p.token.Type {
	case token.SELECT, token.WITH, token.LPAREN:
		stmt = p.parseSelectStmt()
	case token.CREATE:
		stmt = p.parseCreateTable()
	case token.IDENT:
		if !p.checkWord("insert") {
			p.errorf(ErrUnsupportedStmt, p.describe())
			return nil
		}
		stmt = p.parseInsert()
	default:
		p.errorf(ErrUnsupportedStmt, p.describe())
		return nil
	}

	for p.match(token.SEMICOLON) {
	}
	if !p.check(token.EOF) {
		p.errorf(ErrTrailingInput, p.describe())
	}
	return stmt
}

// isSelectStart reports whether tok begins a select statement.
func isSelectStart(tok token.Token) bool {
	return tok.Type == token.SELECT || tok.Type == token.WITH
}

func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{}
	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}
	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseParenSelect parses ( select_stmt ).
func (p *Parser) parseParenSelect() *SelectStmt {
	p.expect(token.LPAREN)
	stmt := p.parseSelectStmt()
	p.expect(token.RPAREN)
	return stmt
}

func (p *Parser) parseWithClause() *WithClause {
	p.expect(token.WITH)
	with := &WithClause{Recursive: p.match(token.RECURSIVE)}

	for !p.failed() {
		cte := &CTE{Name: p.parseIdent()}
		if p.check(token.LPAREN) {
			cte.Columns = p.parseIdentList()
		}
		p.expect(token.AS)
		p.match(token.NOT)
		p.matchWord("materialized")
		cte.Select = p.parseParenSelect()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(token.COMMA) {
			break
		}
	}
	return with
}

func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	switch {
	case p.check(token.LPAREN):
		body.Paren = p.parseParenSelect()
	case p.check(token.SELECT):
		body.Left = p.parseSelectCore()
	default:
		p.errorf(ErrUnexpectedToken, p.describe(), "SELECT")
		return body
	}

	switch p.token.Type {
	case token.UNION:
		body.Op = SetOpUnion
	case token.INTERSECT:
		body.Op = SetOpIntersect
	case token.EXCEPT:
		body.Op = SetOpExcept
	default:
		return body
	}
	p.nextToken()
	if p.match(token.ALL) {
		body.All = true
	} else {
		p.match(token.DISTINCT)
	}
	body.Right = p.parseSelectBody()
	return body
}

func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(token.SELECT)
	core := &SelectCore{}

	if p.match(token.DISTINCT) {
		core.Distinct = true
	} else {
		p.match(token.ALL)
	}

	core.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		core.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		core.Where = p.parseExpr()
	}
	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		if !p.match(token.ALL) {
			p.match(token.DISTINCT)
		}
		core.GroupBy = p.parseGroupByList()
	}
	if p.match(token.HAVING) {
		core.Having = p.parseExpr()
	}
	if p.match(token.WINDOW) {
		core.Windows = p.parseWindowDefs()
	}
	if p.match(token.QUALIFY) {
		core.Qualify = p.parseExpr()
	}
	p.parseTail(core)
	return core
}

// parseTail parses ORDER BY / LIMIT / OFFSET / FETCH in any order.
func (p *Parser) parseTail(core *SelectCore) {
	for !p.failed() {
		switch {
		case p.check(token.ORDER):
			p.nextToken()
			p.expect(token.BY)
			core.OrderBy = p.parseOrderByList()
		case p.check(token.LIMIT):
			p.nextToken()
			if !p.match(token.ALL) {
				core.Limit = p.parseExpr()
			}
			if p.match(token.COMMA) {
				// LIMIT offset, count
				core.Offset = core.Limit
				core.Limit = p.parseExpr()
			}
		case p.check(token.OFFSET):
			p.nextToken()
			core.Offset = p.parseExpr()
			if !p.match(token.ROW) {
				p.match(token.ROWS)
			}
		case p.check(token.FETCH):
			p.nextToken()
			if !p.match(token.FIRST) {
				p.matchWord("next")
			}
			if !p.check(token.ROW) && !p.check(token.ROWS) {
				core.Limit = p.parseExpr()
			}
			if !p.match(token.ROW) {
				p.expect(token.ROWS)
			}
			if !p.matchWord("only") {
				p.expect(token.WITH)
				p.matchWord("ties")
			}
		default:
			return
		}
	}
}

// parseInsert parses INSERT INTO ... SELECT and INSERT INTO ... VALUES.
func (p *Parser) parseInsert() *InsertStmt {
	p.nextToken()
	stmt := &InsertStmt{}
	switch {
	case p.matchWord("into"):
	case p.matchWord("overwrite"):
		stmt.Overwrite = true
		p.match(token.TABLE)
	default:
		p.errorf(ErrUnexpectedToken, p.describe(), "INTO")
		return nil
	}

	stmt.Table = p.parseDDLTableName()
	if p.check(token.LPAREN) && !isSelectStart(p.peek) && !p.checkPeek(token.LPAREN) {
		stmt.Columns = p.parseIdentList()
	}

	if p.check(token.VALUES) {
		stmt.Values = p.parseValues()
		return stmt
	}
	stmt.Select = p.parseSelectStmt()
	return stmt
}

// parseGroupByList parses the GROUP BY list, including ROLLUP, CUBE and
// GROUPING SETS elements.
func (p *Parser) parseGroupByList() []Expr {
	var exprs []Expr
	for !p.failed() {
		switch {
		case p.checkWord("grouping") && p.peek.Type == token.IDENT && strings.EqualFold(p.peek.Literal, "sets"):
			p.nextToken()
			p.nextToken()
			exprs = append(exprs, p.parseGroupingElement(GroupingSets))
		case p.checkWord("rollup") && p.checkPeek(token.LPAREN):
			p.nextToken()
			exprs = append(exprs, p.parseGroupingElement(GroupingRollup))
		case p.checkWord("cube") && p.checkPeek(token.LPAREN):
			p.nextToken()
			exprs = append(exprs, p.parseGroupingElement(GroupingCube))
		default:
			exprs = append(exprs, p.parseExpr())
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

func (p *Parser) parseGroupingElement(kind GroupingKind) *GroupingElement {
	g := &GroupingElement{Kind: kind}
	p.expect(token.LPAREN)
	for !p.failed() {
		if p.check(token.LPAREN) && p.checkPeek(token.RPAREN) {
			p.nextToken()
			p.nextToken()
			g.Items = append(g.Items, &TupleExpr{})
		} else {
			g.Items = append(g.Items, p.parseExpr())
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return g
}

func (p *Parser) parseSelectList() []*SelectItem {
	var items []*SelectItem
	for !p.failed() {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

func (p *Parser) parseSelectItem() *SelectItem {
	if p.match(token.STAR) {
		return &SelectItem{Star: true}
	}
	// t.*
	if isIdentLike(p.token) && p.checkPeek(token.DOT) && p.checkPeek2(token.STAR) {
		table := p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return &SelectItem{TableStar: table}
	}

	item := &SelectItem{Expr: p.parseExpr()}
	item.Alias = p.parseOptionalAlias()
	return item
}

func (p *Parser) parseExprList() []Expr {
	var exprs []Expr
	for !p.failed() {
		exprs = append(exprs, p.parseExpr())
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

func (p *Parser) parseOrderByList() []*OrderByItem {
	var items []*OrderByItem
	for !p.failed() {
		item := &OrderByItem{Expr: p.parseExpr()}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		if p.match(token.NULLS) {
			first := p.check(token.FIRST)
			if !p.match(token.FIRST) {
				p.expect(token.LAST)
			}
			item.NullsFirst = &first
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}
	return items
}

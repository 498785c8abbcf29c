package format

import (
	"github.com/leapstack-labs/ctxpack/pkg/parser"
	"github.com/leapstack-labs/ctxpack/pkg/token"
)

func (p *Printer) formatSelectStmt(stmt *parser.SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}
	p.formatSelectBody(stmt.Body)
}

func (p *Printer) formatWithClause(with *parser.WithClause) {
	p.kw(token.WITH)
	if with.Recursive {
		p.space()
		p.kw(token.RECURSIVE)
	}
	p.space()
	p.formatList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		p.ident(cte.Name)
		if len(cte.Columns) > 0 {
			p.space()
			p.identList(cte.Columns)
		}
		p.space()
		p.kw(token.AS)
		p.write(" (")
		p.formatSelectStmt(cte.Select)
		p.write(")")
	}, ", ")
	p.space()
}

func (p *Printer) formatSelectBody(body *parser.SelectBody) {
	if body == nil {
		return
	}

	if body.Paren != nil {
		p.write("(")
		p.formatSelectStmt(body.Paren)
		p.write(")")
	} else {
		p.formatSelectCore(body.Left)
	}

	if body.Op == parser.SetOpNone {
		return
	}
	p.space()
	p.keyword(string(body.Op))
	if body.All {
		p.space()
		p.kw(token.ALL)
	}
	p.space()
	p.formatSelectBody(body.Right)
}

func (p *Printer) formatSelectCore(sc *parser.SelectCore) {
	if sc == nil {
		return
	}

	p.kw(token.SELECT)
	if sc.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.space()
	p.formatList(len(sc.Columns), func(i int) { p.formatSelectItem(sc.Columns[i]) }, ", ")

	if sc.From != nil {
		p.space()
		p.kw(token.FROM)
		p.space()
		p.formatFromClause(sc.From)
	}
	if sc.Where != nil {
		p.space()
		p.kw(token.WHERE)
		p.space()
		p.formatExpr(sc.Where)
	}
	if len(sc.GroupBy) > 0 {
		p.space()
		p.kw(token.GROUP, token.BY)
		p.space()
		p.formatList(len(sc.GroupBy), func(i int) { p.formatExpr(sc.GroupBy[i]) }, ", ")
	}
	if sc.Having != nil {
		p.space()
		p.kw(token.HAVING)
		p.space()
		p.formatExpr(sc.Having)
	}
	if len(sc.Windows) > 0 {
		p.space()
		p.kw(token.WINDOW)
		p.space()
		p.formatList(len(sc.Windows), func(i int) {
			p.ident(sc.Windows[i].Name)
			p.space()
			p.kw(token.AS)
			p.space()
			p.formatWindowSpec(sc.Windows[i].Spec)
		}, ", ")
	}
	if sc.Qualify != nil {
		p.space()
		p.kw(token.QUALIFY)
		p.space()
		p.formatExpr(sc.Qualify)
	}
	if len(sc.OrderBy) > 0 {
		p.space()
		p.formatOrderBy(sc.OrderBy)
	}
	if sc.Limit != nil {
		p.space()
		p.kw(token.LIMIT)
		p.space()
		p.formatExpr(sc.Limit)
	}
	if sc.Offset != nil {
		p.space()
		p.kw(token.OFFSET)
		p.space()
		p.formatExpr(sc.Offset)
	}
}

func (p *Printer) formatSelectItem(item *parser.SelectItem) {
	switch {
	case item.Star:
		p.write("*")
		return
	case item.TableStar != "":
		p.ident(item.TableStar)
		p.write(".*")
		return
	}
	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(item.Alias)
	}
}

// formatOrderBy prints ORDER BY followed by the items.
func (p *Printer) formatOrderBy(items []*parser.OrderByItem) {
	p.kw(token.ORDER, token.BY)
	p.space()
	p.formatList(len(items), func(i int) {
		item := items[i]
		p.formatExpr(item.Expr)
		if item.Desc {
			p.space()
			p.kw(token.DESC)
		}
		if item.NullsFirst != nil {
			p.space()
			if *item.NullsFirst {
				p.kw(token.NULLS, token.FIRST)
			} else {
				p.kw(token.NULLS, token.LAST)
			}
		}
	}, ", ")
}

func (p *Printer) formatFromClause(from *parser.FromClause) {
	p.formatTableRef(from.Source)
	for _, join := range from.Joins {
		p.formatJoin(join)
	}
}

func (p *Printer) formatJoin(join *parser.Join) {
	if join.Type == parser.JoinComma {
		p.write(", ")
		p.formatTableRef(join.Right)
		return
	}

	p.space()
	if join.Natural {
		p.kw(token.NATURAL)
		p.space()
	}
	if join.Type != parser.JoinInner {
		p.keyword(string(join.Type))
		p.space()
	}
	p.kw(token.JOIN)
	p.space()
	p.formatTableRef(join.Right)

	switch {
	case join.Condition != nil:
		p.space()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.Condition)
	case len(join.Using) > 0:
		p.space()
		p.kw(token.USING)
		p.space()
		p.identList(join.Using)
	}
}

func (p *Printer) formatTableRef(ref parser.TableRef) {
	switch t := ref.(type) {
	case *parser.TableName:
		p.dotted(t.Catalog, t.Schema, t.Name)
		p.formatAlias(t.Alias, t.ColumnAliases)
	case *parser.DerivedTable:
		p.write("(")
		p.formatSelectStmt(t.Select)
		p.write(")")
		p.formatAlias(t.Alias, t.ColumnAliases)
	case *parser.LateralTable:
		p.kw(token.LATERAL)
		p.write(" (")
		p.formatSelectStmt(t.Select)
		p.write(")")
		p.formatAlias(t.Alias, t.ColumnAliases)
	case *parser.ValuesTable:
		p.write("(")
		p.kw(token.VALUES)
		p.space()
		p.formatList(len(t.Rows), func(i int) {
			p.write("(")
			p.formatList(len(t.Rows[i]), func(j int) { p.formatExpr(t.Rows[i][j]) }, ", ")
			p.write(")")
		}, ", ")
		p.write(")")
		p.formatAlias(t.Alias, t.ColumnAliases)
	case *parser.FuncTable:
		p.formatFuncCall(t.Func)
		p.formatAlias(t.Alias, t.ColumnAliases)
	case *parser.JoinTree:
		p.write("(")
		p.formatFromClause(t.From)
		p.write(")")
		p.formatAlias(t.Alias, t.ColumnAliases)
	}
}

func (p *Printer) formatAlias(alias string, columns []string) {
	if alias == "" {
		return
	}
	p.space()
	p.kw(token.AS)
	p.space()
	p.ident(alias)
	if len(columns) > 0 {
		p.identList(columns)
	}
}

func (p *Printer) identList(names []string) {
	p.write("(")
	p.formatList(len(names), func(i int) { p.ident(names[i]) }, ", ")
	p.write(")")
}

func (p *Printer) formatCreateTable(stmt *parser.CreateTableStmt) {
	p.kw(token.CREATE)
	p.space()
	if stmt.OrReplace {
		p.kw(token.OR)
		p.space()
		p.keyword("replace")
		p.space()
	}
	if stmt.Temporary {
		p.keyword("temporary")
		p.space()
	}
	p.kw(token.TABLE)
	p.space()
	if stmt.IfNotExists {
		p.kw(token.IF, token.NOT, token.EXISTS)
		p.space()
	}
	p.dotted(stmt.Name.Catalog, stmt.Name.Schema, stmt.Name.Name)
	if len(stmt.Columns) > 0 {
		p.write(" (")
		p.formatList(len(stmt.Columns), func(i int) {
			p.ident(stmt.Columns[i].Name)
			if stmt.Columns[i].TypeName != "" {
				p.space()
				p.write(stmt.Columns[i].TypeName)
			}
		}, ", ")
		p.write(")")
	}
	if stmt.AsSelect != nil {
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatSelectStmt(stmt.AsSelect)
	}
}

func (p *Printer) formatInsert(stmt *parser.InsertStmt) {
	p.keyword("insert")
	p.space()
	if stmt.Overwrite {
		p.keyword("overwrite")
		p.space()
		p.kw(token.TABLE)
	} else {
		p.keyword("into")
	}
	p.space()
	p.dotted(stmt.Table.Catalog, stmt.Table.Schema, stmt.Table.Name)
	if len(stmt.Columns) > 0 {
		p.space()
		p.identList(stmt.Columns)
	}
	p.space()
	if stmt.Select != nil {
		p.formatSelectStmt(stmt.Select)
		return
	}
	p.kw(token.VALUES)
	p.space()
	p.formatList(len(stmt.Values.Rows), func(i int) {
		p.write("(")
		p.formatList(len(stmt.Values.Rows[i]), func(j int) { p.formatExpr(stmt.Values.Rows[i][j]) }, ", ")
		p.write(")")
	}, ", ")
}

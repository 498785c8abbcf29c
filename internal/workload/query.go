package workload

import (
	"maps"
	"sort"
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/format"
	"github.com/leapstack-labs/ctxpack/pkg/parser"
	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// queryWalk analyzes one parsed query. Each SELECT core is its own block;
// nested statements are analyzed recursively with the enclosing block as
// parent so correlated references resolve.
type queryWalk struct {
	r      *resolver
	st     *stats
	q      QueryStat
	tables *stringSet
}

func (w *queryWalk) run(stmt *parser.SelectStmt) {
	w.statement(stmt, nil, nil)
	for _, fqtn := range w.tables.items {
		w.st.scanQueries.add(fqtn, w.q.Weight)
	}
	parser.Inspect(stmt, func(n parser.Node) bool {
		if fn, ok := n.(*parser.FuncCall); ok && fn.Window != nil {
			w.st.windows.add(strings.ToUpper(fn.Name), w.q.Weight)
		}
		return true
	})
}

// statement returns the physical tables a SELECT statement reads from.
func (w *queryWalk) statement(stmt *parser.SelectStmt, env *cteEnv, parent *block) []string {
	if stmt == nil {
		return nil
	}
	if stmt.With != nil {
		env = w.with(stmt.With, env)
	}
	return w.body(stmt.Body, env, parent)
}

// with binds each CTE in order, so later CTEs see earlier ones.
func (w *queryWalk) with(with *parser.WithClause, env *cteEnv) *cteEnv {
	for _, cte := range with.CTEs {
		name := Unquote(cte.Name)
		inner := env
		if with.Recursive {
			inner = env.bind(name, nil)
		}
		env = env.bind(name, w.statement(cte.Select, inner, nil))
	}
	return env
}

func (w *queryWalk) body(body *parser.SelectBody, env *cteEnv, parent *block) []string {
	bases := newStringSet()
	for cur := body; cur != nil; cur = cur.Right {
		if cur.Paren != nil {
			bases.add(w.statement(cur.Paren, env, parent)...)
		}
		if cur.Left != nil {
			bases.add(w.core(cur.Left, env, parent)...)
		}
	}
	return bases.items
}

func (w *queryWalk) core(core *parser.SelectCore, env *cteEnv, parent *block) []string {
	b := newBlock(parent, env)
	w.groupBy(core)

	var exprs []parser.Node
	if core.From != nil {
		exprs = append(exprs, w.source(core.From.Source, b)...)
		for _, j := range core.From.Joins {
			exprs = append(exprs, w.source(j.Right, b)...)
		}
	}
	exprs = append(exprs, coreExprs(core)...)

	w.columns(exprs, b)
	w.joins(core, b)
	return b.bases.items
}

// source resolves one FROM or JOIN source into b and returns expressions of
// the source that may reference columns.
func (w *queryWalk) source(ref parser.TableRef, b *block) []parser.Node {
	switch t := ref.(type) {
	case *parser.TableName:
		targets := w.r.tableName(t, b.env)
		for _, fqtn := range targets {
			w.st.scans.add(fqtn, w.q.Weight)
			w.tables.add(fqtn)
		}
		b.bases.add(targets...)
		if alias := Unquote(t.Alias); alias != "" {
			b.bind(alias, targets, true)
		} else {
			b.bind(Unquote(t.Name), targets, false)
		}
	case *parser.DerivedTable:
		targets := w.statement(t.Select, b.env, nil)
		b.bases.add(targets...)
		b.bind(Unquote(t.Alias), targets, true)
	case *parser.LateralTable:
		targets := w.statement(t.Select, b.env, b)
		b.bases.add(targets...)
		b.bind(Unquote(t.Alias), targets, true)
	case *parser.ValuesTable:
		var nodes []parser.Node
		for _, row := range t.Rows {
			for _, e := range row {
				nodes = append(nodes, e)
			}
		}
		return nodes
	case *parser.FuncTable:
		if t.Func != nil {
			return []parser.Node{t.Func}
		}
	case *parser.JoinTree:
		before := b.bases.len()
		nodes := w.source(t.From.Source, b)
		for _, j := range t.From.Joins {
			nodes = append(nodes, w.source(j.Right, b)...)
		}
		if alias := Unquote(t.Alias); alias != "" {
			b.bind(alias, append([]string(nil), b.bases.items[before:]...), true)
		}
		return nodes
	}
	return nil
}

// joinConditions lists the ON conditions of a FROM clause, including those
// inside parenthesized joins, in source order.
func joinConditions(from *parser.FromClause) []parser.Expr {
	if from == nil {
		return nil
	}
	conds := nestedJoinConditions(from.Source)
	for _, j := range from.Joins {
		conds = append(conds, nestedJoinConditions(j.Right)...)
		if j.Condition != nil {
			conds = append(conds, j.Condition)
		}
	}
	return conds
}

func nestedJoinConditions(ref parser.TableRef) []parser.Expr {
	if tree, ok := ref.(*parser.JoinTree); ok {
		return joinConditions(tree.From)
	}
	return nil
}

// coreExprs lists the expression-bearing parts of a block outside FROM sources.
func coreExprs(core *parser.SelectCore) []parser.Node {
	var nodes []parser.Node
	add := func(e parser.Expr) {
		if e != nil {
			nodes = append(nodes, e)
		}
	}
	for _, item := range core.Columns {
		add(item.Expr)
	}
	for _, cond := range joinConditions(core.From) {
		add(cond)
	}
	add(core.Where)
	for _, e := range core.GroupBy {
		add(e)
	}
	add(core.Having)
	for _, def := range core.Windows {
		if def.Spec != nil {
			nodes = append(nodes, def.Spec)
		}
	}
	add(core.Qualify)
	for _, item := range core.OrderBy {
		nodes = append(nodes, item)
	}
	add(core.Limit)
	add(core.Offset)
	return nodes
}

// columns attributes the column references of block b in source order.
// Nested statements are analyzed as child blocks. Lambda parameters are
// not columns.
func (w *queryWalk) columns(nodes []parser.Node, b *block) {
	var refs []*parser.ColumnRef
	var collect func(node parser.Node, params map[string]bool)
	collect = func(node parser.Node, params map[string]bool) {
		parser.Inspect(node, func(n parser.Node) bool {
			switch n := n.(type) {
			case *parser.SelectStmt:
				w.statement(n, b.env, b)
				return false
			case *parser.LambdaExpr:
				inner := maps.Clone(params)
				if inner == nil {
					inner = make(map[string]bool, len(n.Params))
				}
				for _, name := range n.Params {
					inner[strings.ToLower(Unquote(name))] = true
				}
				collect(n.Body, inner)
				return false
			case *parser.ColumnRef:
				if !params[lambdaRoot(n)] {
					refs = append(refs, n)
				}
			}
			return true
		})
	}
	for _, node := range nodes {
		collect(node, nil)
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Pos.Offset < refs[j].Pos.Offset
	})

	for _, ref := range refs {
		col := Unquote(ref.Column)
		if col == "" {
			continue
		}
		if ref.Table != "" {
			for _, fqtn := range w.r.qualifier(ref, b) {
				if IsPhysical(fqtn) {
					w.st.creditColumn(fqtn, col, w.q.Weight)
					b.seenQualified(col, fqtn)
				}
			}
			continue
		}
		for _, fqtn := range w.unqualified(col, b) {
			w.st.creditColumn(fqtn, col, w.q.Weight)
		}
	}
}

// lambdaRoot returns the leading name of a column reference, which is the
// lambda parameter when the reference is x or x.field.
func lambdaRoot(ref *parser.ColumnRef) string {
	for _, part := range []string{ref.Catalog, ref.Schema, ref.Table, ref.Column} {
		if part != "" {
			return strings.ToLower(Unquote(part))
		}
	}
	return ""
}

// unqualified picks the owner of a bare column: the only base table, the
// only table the name was already seen qualified with, the only aliased
// source, or the unknown bucket.
func (w *queryWalk) unqualified(col string, b *block) []string {
	if b.bases.len() == 1 {
		return b.bases.items
	}
	if seen := b.qualified[col]; seen.len() == 1 {
		return seen.items
	}
	if len(b.aliased) == 1 {
		return b.aliased[0]
	}
	return []string{UnknownTable}
}

// groupBy records the GROUP BY list of a block, if any.
func (w *queryWalk) groupBy(core *parser.SelectCore) {
	if len(core.GroupBy) == 0 {
		return
	}
	p := GroupByPattern{
		QueryID:     w.q.ID,
		Weight:      w.q.Weight,
		ColumnsRaw:  make([]string, 0, len(core.GroupBy)),
		ColumnsOnly: []string{},
	}
	for _, e := range core.GroupBy {
		p.ColumnsRaw = append(p.ColumnsRaw, format.Expr(e))
		if ref, ok := e.(*parser.ColumnRef); ok {
			p.ColumnsOnly = append(p.ColumnsOnly, Unquote(ref.Column))
		}
	}
	w.st.groupBy = append(w.st.groupBy, p)
}

// joins records column equalities in JOIN conditions and WHERE.
func (w *queryWalk) joins(core *parser.SelectCore, b *block) {
	preds := joinConditions(core.From)
	if core.Where != nil {
		preds = append(preds, core.Where)
	}

	for _, pred := range preds {
		parser.Inspect(pred, func(n parser.Node) bool {
			switch n := n.(type) {
			case *parser.SelectStmt, *parser.LambdaExpr:
				return false
			case *parser.BinaryExpr:
				if n.Op == token.EQ {
					w.equality(n, b)
				}
			}
			return true
		})
	}
}

func (w *queryWalk) equality(eq *parser.BinaryExpr, b *block) {
	left, ok := eq.Left.(*parser.ColumnRef)
	if !ok {
		return
	}
	right, ok := eq.Right.(*parser.ColumnRef)
	if !ok {
		return
	}
	lt, rt := w.joinSide(left, b), w.joinSide(right, b)
	if len(lt) == 0 || len(rt) == 0 {
		return
	}
	lc := strings.ToLower(Unquote(left.Column))
	rc := strings.ToLower(Unquote(right.Column))
	for _, a := range lt {
		for _, c := range rt {
			w.st.addJoin(a, lc, c, rc, w.q.Weight)
		}
	}
}

// joinSide resolves the table of one side of an equality. Bare columns only
// resolve when the block reads a single table.
func (w *queryWalk) joinSide(ref *parser.ColumnRef, b *block) []string {
	if ref.Table != "" {
		return w.r.qualifier(ref, b)
	}
	if b.bases.len() == 1 {
		return b.bases.items
	}
	return nil
}

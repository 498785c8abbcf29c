package format

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/parser"
	"github.com/leapstack-labs/ctxpack/pkg/token"
)

func (p *Printer) formatExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *parser.Literal:
		p.formatLiteral(expr)
	case *parser.ParamExpr:
		p.write(expr.Text)
	case *parser.ColumnRef:
		p.dotted(expr.Catalog, expr.Schema, expr.Table, expr.Column)
	case *parser.BinaryExpr:
		p.formatBinaryExpr(expr)
	case *parser.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *parser.FuncCall:
		p.formatFuncCall(expr)
	case *parser.CaseExpr:
		p.formatCaseExpr(expr)
	case *parser.CastExpr:
		p.formatCastExpr(expr)
	case *parser.ExtractExpr:
		p.keyword("extract")
		p.write("(")
		p.write(expr.Field)
		p.space()
		p.kw(token.FROM)
		p.space()
		p.formatExpr(expr.From)
		p.write(")")
	case *parser.IntervalExpr:
		p.keyword("interval")
		p.space()
		p.formatExpr(expr.Value)
		if expr.Unit != "" {
			p.space()
			p.write(expr.Unit)
		}
	case *parser.InExpr:
		p.formatInExpr(expr)
	case *parser.BetweenExpr:
		p.formatBetweenExpr(expr)
	case *parser.IsNullExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.isPrefix(expr.Not)
		p.kw(token.NULL)
	case *parser.IsBoolExpr:
		p.formatExpr(expr.Expr)
		p.space()
		p.isPrefix(expr.Not)
		if expr.Value {
			p.kw(token.TRUE)
		} else {
			p.kw(token.FALSE)
		}
	case *parser.LikeExpr:
		p.formatLikeExpr(expr)
	case *parser.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *parser.TupleExpr:
		p.write("(")
		p.formatList(len(expr.Items), func(i int) { p.formatExpr(expr.Items[i]) }, ", ")
		p.write(")")
	case *parser.SubscriptExpr:
		p.formatExpr(expr.Expr)
		p.write("[")
		p.formatExpr(expr.Index)
		p.write("]")
	case *parser.StarExpr:
		if expr.Table != "" {
			p.write(expr.Table)
			p.write(".")
		}
		p.write("*")
	case *parser.SubqueryExpr:
		p.write("(")
		p.formatSelectStmt(expr.Select)
		p.write(")")
	case *parser.ExistsExpr:
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.EXISTS)
		p.write(" (")
		p.formatSelectStmt(expr.Select)
		p.write(")")
	case *parser.LambdaExpr:
		if len(expr.Params) == 1 {
			p.ident(expr.Params[0])
		} else {
			p.identList(expr.Params)
		}
		p.write(" -> ")
		p.formatExpr(expr.Body)
	case *parser.GroupingElement:
		p.keyword(string(expr.Kind))
		p.write(" (")
		p.formatList(len(expr.Items), func(i int) { p.formatExpr(expr.Items[i]) }, ", ")
		p.write(")")
	}
}

func (p *Printer) formatLiteral(lit *parser.Literal) {
	switch lit.Type {
	case parser.LiteralString:
		p.quoted(lit.Value)
	case parser.LiteralTyped:
		p.write(lit.TypeName)
		p.space()
		p.quoted(lit.Value)
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) quoted(s string) {
	p.write("'" + strings.ReplaceAll(s, "'", "''") + "'")
}

func (p *Printer) formatBinaryExpr(expr *parser.BinaryExpr) {
	p.formatExpr(expr.Left)
	p.space()
	p.kw(expr.Op)
	p.space()
	p.formatExpr(expr.Right)
}

func (p *Printer) formatUnaryExpr(expr *parser.UnaryExpr) {
	p.kw(expr.Op)
	if expr.Op == token.NOT {
		p.space()
	}
	p.formatExpr(expr.Expr)
}

// isPrefix prints IS [NOT] followed by a space.
func (p *Printer) isPrefix(not bool) {
	p.kw(token.IS)
	p.space()
	if not {
		p.kw(token.NOT)
		p.space()
	}
}

func (p *Printer) formatFuncCall(fn *parser.FuncCall) {
	p.write(fn.Name)
	p.write("(")

	if fn.Distinct {
		p.kw(token.DISTINCT)
		p.space()
	}

	if fn.Star {
		p.write("*")
	} else {
		p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ", ")
	}
	p.write(")")

	if len(fn.WithinGroup) > 0 {
		p.space()
		p.kw(token.WITHIN, token.GROUP)
		p.write(" (")
		p.formatOrderBy(fn.WithinGroup)
		p.write(")")
	}

	if fn.Filter != nil {
		p.space()
		p.kw(token.FILTER)
		p.write(" (")
		p.kw(token.WHERE)
		p.space()
		p.formatExpr(fn.Filter)
		p.write(")")
	}

	if fn.Window != nil {
		p.space()
		p.kw(token.OVER)
		p.space()
		if fn.Window.Name != "" && len(fn.Window.PartitionBy) == 0 &&
			len(fn.Window.OrderBy) == 0 && fn.Window.Frame == nil {
			p.ident(fn.Window.Name)
			return
		}
		p.formatWindowSpec(fn.Window)
	}
}

func (p *Printer) formatWindowSpec(w *parser.WindowSpec) {
	p.write("(")
	sep := func() {}
	next := func() {
		sep()
		sep = p.space
	}

	if w.Name != "" {
		next()
		p.ident(w.Name)
	}
	if len(w.PartitionBy) > 0 {
		next()
		p.kw(token.PARTITION, token.BY)
		p.space()
		p.formatList(len(w.PartitionBy), func(i int) { p.formatExpr(w.PartitionBy[i]) }, ", ")
	}
	if len(w.OrderBy) > 0 {
		next()
		p.formatOrderBy(w.OrderBy)
	}
	if w.Frame != nil {
		next()
		p.formatFrameSpec(w.Frame)
	}
	p.write(")")
}

func (p *Printer) formatFrameSpec(f *parser.FrameSpec) {
	p.keyword(string(f.Type))
	p.space()
	if f.End == nil {
		p.formatFrameBound(f.Start)
		return
	}
	p.kw(token.BETWEEN)
	p.space()
	p.formatFrameBound(f.Start)
	p.space()
	p.kw(token.AND)
	p.space()
	p.formatFrameBound(f.End)
}

func (p *Printer) formatFrameBound(b *parser.FrameBound) {
	if b == nil {
		return
	}
	switch b.Type {
	case parser.FrameUnboundedPreceding:
		p.kw(token.UNBOUNDED, token.PRECEDING)
	case parser.FrameUnboundedFollowing:
		p.kw(token.UNBOUNDED, token.FOLLOWING)
	case parser.FrameCurrentRow:
		p.kw(token.CURRENT, token.ROW)
	case parser.FrameExprPreceding:
		p.formatExpr(b.Offset)
		p.space()
		p.kw(token.PRECEDING)
	case parser.FrameExprFollowing:
		p.formatExpr(b.Offset)
		p.space()
		p.kw(token.FOLLOWING)
	}
}

func (p *Printer) formatCaseExpr(c *parser.CaseExpr) {
	p.kw(token.CASE)
	if c.Operand != nil {
		p.space()
		p.formatExpr(c.Operand)
	}
	for _, w := range c.Whens {
		p.space()
		p.kw(token.WHEN)
		p.space()
		p.formatExpr(w.Condition)
		p.space()
		p.kw(token.THEN)
		p.space()
		p.formatExpr(w.Result)
	}
	if c.Else != nil {
		p.space()
		p.kw(token.ELSE)
		p.space()
		p.formatExpr(c.Else)
	}
	p.space()
	p.kw(token.END)
}

func (p *Printer) formatCastExpr(c *parser.CastExpr) {
	if c.Postfix {
		p.formatExpr(c.Expr)
		p.write("::")
		p.write(c.TypeName)
		return
	}
	if c.Try {
		p.keyword("try_cast")
	} else {
		p.kw(token.CAST)
	}
	p.write("(")
	p.formatExpr(c.Expr)
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(c.TypeName)
	p.write(")")
}

func (p *Printer) formatInExpr(in *parser.InExpr) {
	p.formatExpr(in.Expr)
	if in.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.IN)
	p.write(" (")
	if in.Query != nil {
		p.formatSelectStmt(in.Query)
	} else {
		p.formatList(len(in.Values), func(i int) { p.formatExpr(in.Values[i]) }, ", ")
	}
	p.write(")")
}

func (p *Printer) formatBetweenExpr(b *parser.BetweenExpr) {
	p.formatExpr(b.Expr)
	if b.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.BETWEEN)
	p.space()
	p.formatExpr(b.Low)
	p.space()
	p.kw(token.AND)
	p.space()
	p.formatExpr(b.High)
}

func (p *Printer) formatLikeExpr(like *parser.LikeExpr) {
	p.formatExpr(like.Expr)
	if like.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	if like.ILike {
		p.kw(token.ILIKE)
	} else {
		p.kw(token.LIKE)
	}
	p.space()
	p.formatExpr(like.Pattern)
	if like.Escape != nil {
		p.space()
		p.keyword("escape")
		p.space()
		p.formatExpr(like.Escape)
	}
}

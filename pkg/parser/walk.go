package parser

// Inspect traverses the AST rooted at node in depth-first source order,
// calling fn for each node. If fn returns false, the children of that node
// are skipped. Nil nodes are never passed to fn.
func Inspect(node Node, fn func(Node) bool) {
	if isNilNode(node) || !fn(node) {
		return
	}

	switch n := node.(type) {
	// Statements and clauses
	case *SelectStmt:
		inspect(n.With, fn)
		inspect(n.Body, fn)
	case *CreateTableStmt:
		inspect(n.Name, fn)
		inspect(n.AsSelect, fn)
	case *InsertStmt:
		inspect(n.Table, fn)
		inspect(n.Select, fn)
		inspect(n.Values, fn)
	case *WithClause:
		for _, c := range n.CTEs {
			inspect(c, fn)
		}
	case *CTE:
		inspect(n.Select, fn)
	case *SelectBody:
		inspect(n.Left, fn)
		inspect(n.Paren, fn)
		inspect(n.Right, fn)
	case *SelectCore:
		for _, item := range n.Columns {
			inspect(item, fn)
		}
		inspect(n.From, fn)
		inspectExpr(n.Where, fn)
		inspectExprs(n.GroupBy, fn)
		inspectExpr(n.Having, fn)
		for _, w := range n.Windows {
			inspect(w, fn)
		}
		inspectExpr(n.Qualify, fn)
		inspectOrderBy(n.OrderBy, fn)
		inspectExpr(n.Limit, fn)
		inspectExpr(n.Offset, fn)
	case *SelectItem:
		inspectExpr(n.Expr, fn)
	case *FromClause:
		inspectTable(n.Source, fn)
		for _, j := range n.Joins {
			inspect(j, fn)
		}
	case *Join:
		inspectTable(n.Right, fn)
		inspectExpr(n.Condition, fn)
	case *OrderByItem:
		inspectExpr(n.Expr, fn)
	case *WindowDef:
		inspect(n.Spec, fn)
	case *WindowSpec:
		inspectExprs(n.PartitionBy, fn)
		inspectOrderBy(n.OrderBy, fn)
		if n.Frame != nil {
			if n.Frame.Start != nil {
				inspectExpr(n.Frame.Start.Offset, fn)
			}
			if n.Frame.End != nil {
				inspectExpr(n.Frame.End.Offset, fn)
			}
		}

	// Table references
	case *TableName:
	case *DerivedTable:
		inspect(n.Select, fn)
	case *LateralTable:
		inspect(n.Select, fn)
	case *ValuesTable:
		for _, row := range n.Rows {
			inspectExprs(row, fn)
		}
	case *FuncTable:
		inspect(n.Func, fn)
	case *JoinTree:
		inspect(n.From, fn)

	// Expressions
	case *ColumnRef, *Literal, *ParamExpr, *StarExpr:
	case *BinaryExpr:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)
	case *UnaryExpr:
		inspectExpr(n.Expr, fn)
	case *FuncCall:
		inspectExprs(n.Args, fn)
		inspectOrderBy(n.WithinGroup, fn)
		inspectExpr(n.Filter, fn)
		inspect(n.Window, fn)
	case *CaseExpr:
		inspectExpr(n.Operand, fn)
		for _, w := range n.Whens {
			inspectExpr(w.Condition, fn)
			inspectExpr(w.Result, fn)
		}
		inspectExpr(n.Else, fn)
	case *CastExpr:
		inspectExpr(n.Expr, fn)
	case *ExtractExpr:
		inspectExpr(n.From, fn)
	case *IntervalExpr:
		inspectExpr(n.Value, fn)
	case *InExpr:
		inspectExpr(n.Expr, fn)
		inspectExprs(n.Values, fn)
		inspect(n.Query, fn)
	case *BetweenExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Low, fn)
		inspectExpr(n.High, fn)
	case *IsNullExpr:
		inspectExpr(n.Expr, fn)
	case *IsBoolExpr:
		inspectExpr(n.Expr, fn)
	case *LikeExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Pattern, fn)
		inspectExpr(n.Escape, fn)
	case *ParenExpr:
		inspectExpr(n.Expr, fn)
	case *TupleExpr:
		inspectExprs(n.Items, fn)
	case *SubscriptExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Index, fn)
	case *SubqueryExpr:
		inspect(n.Select, fn)
	case *ExistsExpr:
		inspect(n.Select, fn)
	case *LambdaExpr:
		inspectExpr(n.Body, fn)
	case *GroupingElement:
		inspectExprs(n.Items, fn)
	}
}

// inspect is Inspect for typed child pointers, which may be nil.
func inspect[T Node](n T, fn func(Node) bool) {
	Inspect(n, fn)
}

func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectTable(t TableRef, fn func(Node) bool) {
	if t != nil {
		Inspect(t, fn)
	}
}

func inspectExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		inspectExpr(e, fn)
	}
}

func inspectOrderBy(items []*OrderByItem, fn func(Node) bool) {
	for _, item := range items {
		inspect(item, fn)
	}
}

// isNilNode reports whether node is nil or a typed nil pointer.
func isNilNode(node Node) bool {
	if node == nil {
		return true
	}
	switch n := node.(type) {
	case *SelectStmt:
		return n == nil
	case *CreateTableStmt:
		return n == nil
	case *InsertStmt:
		return n == nil
	case *WithClause:
		return n == nil
	case *CTE:
		return n == nil
	case *SelectBody:
		return n == nil
	case *SelectCore:
		return n == nil
	case *SelectItem:
		return n == nil
	case *FromClause:
		return n == nil
	case *Join:
		return n == nil
	case *OrderByItem:
		return n == nil
	case *WindowDef:
		return n == nil
	case *WindowSpec:
		return n == nil
	case *TableName:
		return n == nil
	case *ValuesTable:
		return n == nil
	case *FuncCall:
		return n == nil
	}
	return false
}

package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Node is implemented by every AST node.
type Node interface {
	node()
}

// Statement represents a SQL statement.
type Statement interface {
	Node
	stmtNode()
}

// Expr represents an expression in SQL.
type Expr interface {
	Node
	exprNode()
}

// TableRef represents a table reference in FROM clause.
type TableRef interface {
	Node
	tableRefNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

// CreateTableStmt represents CREATE TABLE, either with column definitions
// or AS SELECT.
type CreateTableStmt struct {
	Name        *TableName
	OrReplace   bool
	Temporary   bool
	IfNotExists bool
	Columns     []*ColumnDef
	AsSelect    *SelectStmt
}

// InsertStmt represents INSERT INTO ... SELECT or INSERT INTO ... VALUES.
type InsertStmt struct {
	Table     *TableName
	Overwrite bool
	Columns   []string
	Select    *SelectStmt
	Values    *ValuesTable
}

// ColumnDef is a column definition inside CREATE TABLE.
type ColumnDef struct {
	Name     string
	TypeName string
}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectStmt
}

// SelectBody is a chain of set operations. Exactly one of Left and Paren is
// set: Paren holds a parenthesized operand such as (SELECT ...) UNION ...
type SelectBody struct {
	Left  *SelectCore
	Paren *SelectStmt
	Op    SetOpType
	All   bool
	Right *SelectBody
}

// SetOpType represents the type of set operation.
type SetOpType string

// Set operation types.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents the core SELECT clause.
type SelectCore struct {
	Distinct bool
	Columns  []*SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Windows  []*WindowDef
	Qualify  Expr
	OrderBy  []*OrderByItem
	Limit    Expr
	Offset   Expr
}

// WindowDef is a named window from the WINDOW clause.
type WindowDef struct {
	Name string
	Spec *WindowSpec
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr
	Alias     string
}

// FromClause represents the FROM clause.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr
	Using     []string
}

// JoinType represents the type of join.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// OrderByItem represents an item in ORDER BY clause.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// ---------- Table References ----------

// TableName is a possibly qualified table reference.
type TableName struct {
	Catalog       string
	Schema        string
	Name          string
	Alias         string
	ColumnAliases []string
	Pos           token.Position
}

// Qualified returns the dotted name as written, without alias.
func (t *TableName) Qualified() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Catalog, t.Schema, t.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	Select        *SelectStmt
	Alias         string
	ColumnAliases []string
}

// LateralTable represents a LATERAL subquery.
type LateralTable struct {
	Select        *SelectStmt
	Alias         string
	ColumnAliases []string
}

// ValuesTable represents an inline VALUES list in FROM clause.
type ValuesTable struct {
	Rows          [][]Expr
	Alias         string
	ColumnAliases []string
}

// FuncTable represents a table function such as UNNEST(x) AS t(a).
type FuncTable struct {
	Func          *FuncCall
	Alias         string
	ColumnAliases []string
}

// JoinTree is a parenthesized join, as in FROM (a JOIN b ON ...) JOIN c.
type JoinTree struct {
	From          *FromClause
	Alias         string
	ColumnAliases []string
}

// ---------- Expressions ----------

// ColumnRef is a column reference, optionally qualified by up to three
// name segments (catalog.schema.table.column).
type ColumnRef struct {
	Catalog string
	Schema  string
	Table   string
	Column  string
	Pos     token.Position
}

// Qualifier returns the dotted qualifier, or "" for a bare column.
func (c *ColumnRef) Qualifier() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Catalog, c.Schema, c.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Literal represents a literal value.
type Literal struct {
	Type     LiteralType
	Value    string
	TypeName string // DATE, TIMESTAMP, ... for typed string literals
}

// LiteralType represents the type of literal.
type LiteralType int

// Literal types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
	LiteralTyped
)

// ParamExpr is a bind parameter (? or $n).
type ParamExpr struct {
	Text string
}

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

// UnaryExpr represents a unary expression.
type UnaryExpr struct {
	Op   token.TokenType
	Expr Expr
}

// FuncCall represents a function call. Name is upper-cased.
type FuncCall struct {
	Name        string
	Distinct    bool
	Args        []Expr
	Star        bool
	WithinGroup []*OrderByItem
	Filter      Expr
	Window      *WindowSpec
}

// WindowSpec represents a window specification (OVER clause).
type WindowSpec struct {
	Name        string // reference to a named window
	PartitionBy []Expr
	OrderBy     []*OrderByItem
	Frame       *FrameSpec
}

// FrameSpec represents a window frame specification.
type FrameSpec struct {
	Type  FrameType
	Start *FrameBound
	End   *FrameBound
}

// FrameType represents ROWS, RANGE or GROUPS.
type FrameType string

// Frame types.
const (
	FrameRows   FrameType = "ROWS"
	FrameRange  FrameType = "RANGE"
	FrameGroups FrameType = "GROUPS"
)

// FrameBound represents a frame boundary.
type FrameBound struct {
	Type   FrameBoundType
	Offset Expr
}

// FrameBoundType represents the type of frame bound.
type FrameBoundType string

// Frame bound types.
const (
	FrameUnboundedPreceding FrameBoundType = "UNBOUNDED PRECEDING"
	FrameUnboundedFollowing FrameBoundType = "UNBOUNDED FOLLOWING"
	FrameCurrentRow         FrameBoundType = "CURRENT ROW"
	FrameExprPreceding      FrameBoundType = "PRECEDING"
	FrameExprFollowing      FrameBoundType = "FOLLOWING"
)

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr // nil for searched CASE
	Whens   []*WhenClause
	Else    Expr
}

// WhenClause represents a WHEN clause in CASE.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type), TRY_CAST or expr::type.
type CastExpr struct {
	Expr     Expr
	TypeName string
	Try      bool
	Postfix  bool // written as expr::type
}

// ExtractExpr represents EXTRACT(field FROM expr).
type ExtractExpr struct {
	Field string
	From  Expr
}

// IntervalExpr represents INTERVAL 'value' [unit].
type IntervalExpr struct {
	Value Expr
	Unit  string
}

// InExpr represents an IN expression.
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

// BetweenExpr represents a BETWEEN expression.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// IsNullExpr represents IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

// IsBoolExpr represents IS [NOT] TRUE/FALSE.
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool
}

// LikeExpr represents [NOT] LIKE / ILIKE.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	ILike   bool
	Escape  Expr
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

// TupleExpr represents a row constructor such as (a, b).
type TupleExpr struct {
	Items []Expr
}

// SubscriptExpr represents expr[index].
type SubscriptExpr struct {
	Expr  Expr
	Index Expr
}

// StarExpr represents * or t.* inside an expression (e.g. COUNT(t.*)).
type StarExpr struct {
	Table string
}

// LambdaExpr represents x -> expr or (x, y) -> expr.
type LambdaExpr struct {
	Params []string
	Body   Expr
}

// GroupingKind is the kind of a grouping element.
type GroupingKind string

// Grouping kinds.
const (
	GroupingSets   GroupingKind = "GROUPING SETS"
	GroupingRollup GroupingKind = "ROLLUP"
	GroupingCube   GroupingKind = "CUBE"
)

// GroupingElement is GROUPING SETS (...), ROLLUP (...) or CUBE (...) in a
// GROUP BY list. For GROUPING SETS each item is one set, written as a
// TupleExpr when it has zero or several columns.
type GroupingElement struct {
	Kind  GroupingKind
	Items []Expr
}

// SubqueryExpr represents a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

// ExistsExpr represents [NOT] EXISTS (subquery).
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*SelectStmt) node()      {}
func (*CreateTableStmt) node() {}
func (*InsertStmt) node()      {}
func (*WithClause) node()      {}
func (*CTE) node()             {}
func (*SelectBody) node()      {}
func (*SelectCore) node()      {}
func (*SelectItem) node()      {}
func (*FromClause) node()      {}
func (*Join) node()            {}
func (*OrderByItem) node()     {}
func (*WindowDef) node()       {}
func (*WindowSpec) node()      {}
func (*TableName) node()       {}
func (*DerivedTable) node()    {}
func (*LateralTable) node()    {}
func (*ValuesTable) node()     {}
func (*FuncTable) node()       {}
func (*JoinTree) node()        {}
func (*ColumnRef) node()       {}
func (*Literal) node()         {}
func (*ParamExpr) node()       {}
func (*BinaryExpr) node()      {}
func (*UnaryExpr) node()       {}
func (*FuncCall) node()        {}
func (*CaseExpr) node()        {}
func (*CastExpr) node()        {}
func (*ExtractExpr) node()     {}
func (*IntervalExpr) node()    {}
func (*InExpr) node()          {}
func (*BetweenExpr) node()     {}
func (*IsNullExpr) node()      {}
func (*IsBoolExpr) node()      {}
func (*LikeExpr) node()        {}
func (*ParenExpr) node()       {}
func (*TupleExpr) node()       {}
func (*SubscriptExpr) node()   {}
func (*StarExpr) node()        {}
func (*SubqueryExpr) node()    {}
func (*ExistsExpr) node()      {}
func (*LambdaExpr) node()      {}
func (*GroupingElement) node() {}

func (*SelectStmt) stmtNode()      {}
func (*CreateTableStmt) stmtNode() {}
func (*InsertStmt) stmtNode()      {}

func (*TableName) tableRefNode()    {}
func (*DerivedTable) tableRefNode() {}
func (*LateralTable) tableRefNode() {}
func (*ValuesTable) tableRefNode()  {}
func (*FuncTable) tableRefNode()    {}
func (*JoinTree) tableRefNode()     {}

func (*ColumnRef) exprNode()       {}
func (*Literal) exprNode()         {}
func (*ParamExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*UnaryExpr) exprNode()       {}
func (*FuncCall) exprNode()        {}
func (*CaseExpr) exprNode()        {}
func (*CastExpr) exprNode()        {}
func (*ExtractExpr) exprNode()     {}
func (*IntervalExpr) exprNode()    {}
func (*InExpr) exprNode()          {}
func (*BetweenExpr) exprNode()     {}
func (*IsNullExpr) exprNode()      {}
func (*IsBoolExpr) exprNode()      {}
func (*LikeExpr) exprNode()        {}
func (*ParenExpr) exprNode()       {}
func (*TupleExpr) exprNode()       {}
func (*SubscriptExpr) exprNode()   {}
func (*StarExpr) exprNode()        {}
func (*SubqueryExpr) exprNode()    {}
func (*ExistsExpr) exprNode()      {}
func (*LambdaExpr) exprNode()      {}
func (*GroupingElement) exprNode() {}

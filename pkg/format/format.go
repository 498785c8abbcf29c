// Package format renders parsed SQL back to compact, single-line text.
//
// Output is canonical rather than faithful: keywords are upper-cased,
// whitespace is normalized and redundant syntax (AS before column aliases,
// OUTER in joins) is dropped. It is used wherever the analyzer reports an
// expression as text, such as GROUP BY keys.
package format

import "github.com/leapstack-labs/ctxpack/pkg/parser"

// Expr formats a single expression.
func Expr(e parser.Expr) string {
	p := newPrinter()
	p.formatExpr(e)
	return p.String()
}

// Statement formats a SELECT, CREATE TABLE or INSERT statement.
func Statement(stmt parser.Statement) string {
	p := newPrinter()
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		p.formatSelectStmt(s)
	case *parser.CreateTableStmt:
		p.formatCreateTable(s)
	case *parser.InsertStmt:
		p.formatInsert(s)
	}
	return p.String()
}

// SQL parses and re-formats a statement.
func SQL(sql string) (string, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return "", err
	}
	return Statement(stmt), nil
}

package parser

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// CREATE TABLE grammar:
//
//	create_table → CREATE [OR REPLACE] [TEMP | TEMPORARY | TRANSIENT] TABLE
//	               [IF NOT EXISTS] table_name [( element [, element]* )]
//	               [options] [AS select_stmt]
//	element      → column_name type_and_constraints | table_constraint
//
// Column types are kept as raw text. Table constraints and trailing
// storage options (WITH (...), COMMENT '...', PARTITIONED BY (...)) are
// skipped.

// tableConstraintWords start a table-level constraint inside the column list.
var tableConstraintWords = map[string]bool{
	"constraint": true,
	"primary":    true,
	"unique":     true,
	"foreign":    true,
	"check":      true,
	"key":        true,
	"index":      true,
	"period":     true,
}

func (p *Parser) parseCreateTable() *CreateTableStmt {
	p.expect(token.CREATE)
	stmt := &CreateTableStmt{}

	if p.match(token.OR) {
		if !p.matchWord("replace") {
			p.errorf(ErrUnexpectedToken, p.describe(), "REPLACE")
			return nil
		}
		stmt.OrReplace = true
	}
	if p.checkWord("temp") || p.checkWord("temporary") || p.checkWord("transient") {
		stmt.Temporary = true
		p.nextToken()
	}
	if !p.check(token.TABLE) {
		p.errorf(ErrUnsupportedStmt, "CREATE "+p.describe())
		return nil
	}
	p.nextToken()

	if p.check(token.IF) {
		p.nextToken()
		p.expect(token.NOT)
		p.expect(token.EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Name = p.parseDDLTableName()
	if p.failed() {
		return nil
	}

	if p.check(token.LPAREN) {
		stmt.Columns = p.parseColumnDefs()
	}

	// Skip storage options until AS select or end of statement.
	for !p.failed() && !p.check(token.EOF) && !p.check(token.SEMICOLON) {
		if p.check(token.AS) && (isSelectStart(p.peek) || p.checkPeek(token.LPAREN)) {
			p.nextToken()
			stmt.AsSelect = p.parseSelectStmt()
			break
		}
		if p.check(token.LPAREN) {
			p.collectBalanced()
			continue
		}
		p.nextToken()
	}
	return stmt
}

// parseDDLTableName parses the created table name, which never takes an
// alias.
func (p *Parser) parseDDLTableName() *TableName {
	tn := &TableName{Pos: p.token.Pos}
	parts := []string{p.parseIdent()}
	for p.match(token.DOT) {
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
	}
	return tn
}

// parseColumnDefs parses the parenthesized element list, returning the
// column definitions and skipping table constraints.
func (p *Parser) parseColumnDefs() []*ColumnDef {
	p.expect(token.LPAREN)
	var cols []*ColumnDef

	for !p.failed() && !p.check(token.RPAREN) {
		elem := p.collectElement()
		if len(elem) == 0 {
			p.errorf(ErrUnexpectedToken, p.describe(), "column definition")
			return cols
		}
		first := elem[0]
		isConstraint := first.Type == token.IDENT && !first.Quoted &&
			tableConstraintWords[strings.ToLower(first.Literal)]
		if !isConstraint && isIdentLike(first) {
			cols = append(cols, &ColumnDef{Name: first.Literal, TypeName: typeText(elem[1:])})
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return cols
}

// collectElement consumes tokens up to the next top-level comma or the
// closing paren of the element list.
func (p *Parser) collectElement() []token.Token {
	var toks []token.Token
	depth := 0
	for !p.failed() {
		switch p.token.Type {
		case token.EOF:
			p.errorf(ErrUnexpectedToken, "EOF", ")")
			return toks
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				return toks
			}
			depth--
		case token.COMMA:
			if depth == 0 {
				return toks
			}
		}
		toks = append(toks, p.token)
		p.nextToken()
	}
	return toks
}

// typeText renders the type portion of a column definition, stopping at
// the first column constraint keyword.
func typeText(toks []token.Token) string {
	var sb strings.Builder
	prev := token.LPAREN
	depth := 0
	for _, tok := range toks {
		if depth == 0 && (tok.Type == token.NOT || tok.Type == token.NULL ||
			(tok.Type == token.IDENT && isColumnConstraintWord(tok.Literal))) {
			break
		}
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		if sb.Len() > 0 && needsSpace(prev, tok.Type) {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(tok.Literal))
		prev = tok.Type
	}
	return sb.String()
}

func isColumnConstraintWord(s string) bool {
	switch strings.ToLower(s) {
	case "primary", "unique", "references", "default", "check", "constraint",
		"comment", "collate", "generated", "identity", "autoincrement", "auto_increment":
		return true
	}
	return false
}

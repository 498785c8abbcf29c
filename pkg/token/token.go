// Package token defines the lexical tokens of the SQL subset understood by
// the workload parser.
//
// Reserved words are constants so the parser can switch on them. Words that
// only matter in one position (REPLACE, TEMPORARY, INTERVAL, EXTRACT, ...) are
// left as IDENT and matched by literal at that position.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better at call sites than token.Type
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier, unquoted text of quoted identifiers
	NUMBER // 123, 45.67, 1e10
	STRING // 'hello'
	PARAM  // ? or $1

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	DPIPE     // ||
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	DOT       // .
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	SEMICOLON // ;
	DCOLON    // ::
	ARROW     // ->

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CAST
	CREATE
	CROSS
	CURRENT
	DESC
	DISTINCT
	ELSE
	END
	EXCEPT
	EXISTS
	FALSE
	FETCH
	FILTER
	FIRST
	FOLLOWING
	FROM
	FULL
	GROUP
	GROUPS
	HAVING
	IF
	ILIKE
	IN
	INNER
	INTERSECT
	IS
	JOIN
	LAST
	LATERAL
	LEFT
	LIKE
	LIMIT
	NATURAL
	NOT
	NULL
	NULLS
	OFFSET
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	PRECEDING
	QUALIFY
	RANGE
	RECURSIVE
	RIGHT
	ROW
	ROWS
	SELECT
	TABLE
	THEN
	TRUE
	UNBOUNDED
	UNION
	USING
	VALUES
	WHEN
	WHERE
	WINDOW
	WITH
	WITHIN
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	PARAM:  "PARAM",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	DPIPE:     "||",
	EQ:        "=",
	NE:        "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	DOT:       ".",
	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	SEMICOLON: ";",
	DCOLON:    "::",
	ARROW:     "->",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{}

func init() {
	for t := ALL; t <= WITHIN; t++ {
		name := keywordNames[t-ALL]
		tokenNames[t] = name
		keywords[strings.ToLower(name)] = t
	}
}

// keywordNames is indexed by keyword token offset from ALL and must follow
// the constant order above.
var keywordNames = [...]string{
	"ALL", "AND", "AS", "ASC", "BETWEEN", "BY", "CASE", "CAST", "CREATE", "CROSS",
	"CURRENT", "DESC", "DISTINCT", "ELSE", "END", "EXCEPT", "EXISTS", "FALSE", "FETCH", "FILTER",
	"FIRST", "FOLLOWING", "FROM", "FULL", "GROUP", "GROUPS", "HAVING", "IF", "ILIKE", "IN",
	"INNER", "INTERSECT", "IS", "JOIN", "LAST", "LATERAL", "LEFT", "LIKE", "LIMIT", "NATURAL",
	"NOT", "NULL", "NULLS", "OFFSET", "ON", "OR", "ORDER", "OUTER", "OVER", "PARTITION",
	"PRECEDING", "QUALIFY", "RANGE", "RECURSIVE", "RIGHT", "ROW", "ROWS", "SELECT", "TABLE", "THEN",
	"TRUE", "UNBOUNDED", "UNION", "USING", "VALUES", "WHEN", "WHERE", "WINDOW", "WITH", "WITHIN",
}

// LookupIdent returns the keyword token type for ident, or IDENT.
// Matching is case-insensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WITHIN
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= ARROW
}

// IsSoftKeyword reports whether a keyword may also be used as a plain
// identifier (column, alias or function name) outside the clause that
// gives it meaning.
func IsSoftKeyword(t TokenType) bool {
	switch t {
	case CURRENT, FIRST, LAST, ROW, ROWS, RANGE, GROUPS, FOLLOWING, PRECEDING,
		UNBOUNDED, FILTER, WITHIN, NULLS, FETCH, IF, TABLE, VALUES:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Quoted  bool // identifier was written with "..." or `...`
	Pos     Position
}

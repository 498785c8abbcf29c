package token

import "fmt"

// Position is a location in SQL source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

// IsValid returns true if the position was set by the lexer.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

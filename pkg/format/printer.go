package format

import (
	"strings"

	"github.com/leapstack-labs/ctxpack/pkg/token"
)

// Printer accumulates formatted SQL.
type Printer struct {
	output strings.Builder
}

func newPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output.
func (p *Printer) String() string {
	return p.output.String()
}

func (p *Printer) write(s string) {
	p.output.WriteString(s)
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}

// kw prints keywords by token type, separated by spaces.
func (p *Printer) kw(tokens ...token.TokenType) {
	for i, t := range tokens {
		if i > 0 {
			p.space()
		}
		p.write(t.String())
	}
}

// keyword prints an unreserved word in upper case.
func (p *Printer) keyword(s string) {
	p.write(strings.ToUpper(s))
}

// formatList prints count items separated by sep.
func (p *Printer) formatList(count int, format func(i int), sep string) {
	for i := 0; i < count; i++ {
		if i > 0 {
			p.write(sep)
		}
		format(i)
	}
}

// ident prints a name, quoting it when it would not lex back as a plain
// identifier.
func (p *Printer) ident(name string) {
	if needsQuote(name) {
		p.write(`"` + strings.ReplaceAll(name, `"`, `""`) + `"`)
		return
	}
	p.write(name)
}

func needsQuote(name string) bool {
	if name == "" {
		return true
	}
	if token.LookupIdent(name) != token.IDENT {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c >= 0x80:
		case (c >= '0' && c <= '9') || c == '$':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// dotted prints non-empty parts joined by dots.
func (p *Printer) dotted(parts ...string) {
	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !first {
			p.write(".")
		}
		p.ident(part)
		first = false
	}
}

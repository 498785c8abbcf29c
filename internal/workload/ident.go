package workload

import (
	"regexp"
	"strings"
)

// UnknownTable is the reserved bucket for columns that cannot be
// attributed to a single physical table.
const UnknownTable = "__unknown__"

// physicalRe matches schema.table and catalog.schema.table.
var physicalRe = regexp.MustCompile(`^([A-Za-z0-9_]+\.)?[A-Za-z0-9_]+\.[A-Za-z0-9_]+$`)

// IsPhysical reports whether name is a two- or three-segment dotted name
// that can be reported as a real table.
func IsPhysical(name string) bool {
	return physicalRe.MatchString(strings.TrimSpace(name))
}

// Unquote strips surrounding whitespace and any double-quote or backtick
// characters from an identifier.
func Unquote(name string) string {
	name = strings.TrimSpace(name)
	if !strings.ContainsAny(name, "\"`") {
		return name
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '`' {
			return -1
		}
		return r
	}, name)
}

// joinName joins the non-empty parts with dots.
func joinName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

package workload

import (
	"regexp"
)

// fromPhysicalRe finds "FROM schema.table" and "FROM catalog.schema.table"
// in text that did not parse.
var fromPhysicalRe = regexp.MustCompile(`(?i)\bFROM\s+(([A-Za-z0-9_]+\.)?[A-Za-z0-9_]+\.[A-Za-z0-9_]+)`)

// fallbackScans returns the physical tables named after FROM in sql, in
// order of appearance with duplicates kept.
func fallbackScans(sql string) []string {
	matches := fromPhysicalRe.FindAllStringSubmatch(sql, -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables
}

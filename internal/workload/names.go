package workload

import (
	"github.com/leapstack-labs/ctxpack/pkg/parser"
)

// defaults is the catalog and schema applied to references that omit them.
type defaults struct {
	catalog string
	schema  string
}

// qualify builds the name of a table reference with defaults applied.
// ok is false when no schema is known.
func (d defaults) qualify(catalog, schema, table string) (string, bool) {
	if schema == "" {
		if d.schema == "" {
			return "", false
		}
		schema = d.schema
	}
	if catalog == "" {
		catalog = d.catalog
	}
	return joinName(catalog, schema, table), true
}

// ddlTable is a parsed CREATE TABLE name.
type ddlTable struct {
	catalog string
	schema  string
	table   string
}

func ddlTableOf(tn *parser.TableName) ddlTable {
	return ddlTable{
		catalog: Unquote(tn.Catalog),
		schema:  Unquote(tn.Schema),
		table:   Unquote(tn.Name),
	}
}

// defaultsFrom returns the catalog and schema of the first created table
// that names at least a schema.
func defaultsFrom(tables []ddlTable) defaults {
	for _, t := range tables {
		if t.schema != "" {
			return defaults{catalog: t.catalog, schema: t.schema}
		}
	}
	return defaults{}
}

// shortNameIndex maps bare table names to the physical name they were
// most often seen as.
type shortNameIndex map[string]string

// shortNameVotes tallies, per bare table name, how often each physical name
// was observed. Ties go to the physical name seen first.
type shortNameVotes struct {
	votes map[string]*counter[string]
	order []string
}

func newShortNameVotes() *shortNameVotes {
	return &shortNameVotes{votes: make(map[string]*counter[string])}
}

func (v *shortNameVotes) add(table, fqtn string) {
	if table == "" || !IsPhysical(fqtn) {
		return
	}
	c, ok := v.votes[table]
	if !ok {
		c = newCounter[string]()
		v.votes[table] = c
		v.order = append(v.order, table)
	}
	c.add(fqtn, 1)
}

func (v *shortNameVotes) index() shortNameIndex {
	idx := make(shortNameIndex, len(v.votes))
	for _, table := range v.order {
		c := v.votes[table]
		var best string
		var bestCount int64 = -1
		for _, fqtn := range c.keys() {
			if n := c.get(fqtn); n > bestCount {
				best, bestCount = fqtn, n
			}
		}
		idx[table] = best
	}
	return idx
}

// voteQueryTables records every schema-qualified table reference in stmt.
// Bare names do not vote: they may be CTE names and are what the index is
// meant to resolve.
func (v *shortNameVotes) voteQueryTables(stmt parser.Node, d defaults) {
	parser.Inspect(stmt, func(n parser.Node) bool {
		tn, ok := n.(*parser.TableName)
		if !ok || tn.Schema == "" {
			return true
		}
		table := Unquote(tn.Name)
		if fqtn, ok := d.qualify(Unquote(tn.Catalog), Unquote(tn.Schema), table); ok {
			v.add(table, fqtn)
		}
		return true
	})
}

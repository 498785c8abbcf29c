// Package workload builds a context pack from a warehouse's DDL and a
// weighted workload of SQL queries.
//
// Every table and column reference is resolved through aliases, CTEs,
// derived tables and short names down to physical tables. Scan counts,
// column usage, join edges, GROUP BY patterns and window function calls are
// aggregated by each query's run weight. Analysis never fails: statements
// that do not parse degrade to smaller results.
package workload

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/ctxpack/pkg/parser"
)

// Options controls the size of the ranked sections of a context pack.
type Options struct {
	TopEdges   int // edges whose endpoints seed hot clique search
	TopCliques int
	TopColumns int // hot columns kept per table
	TopQueries int

	Logger *slog.Logger
}

// DefaultOptions returns the standard ranking limits.
func DefaultOptions() Options {
	return Options{
		TopEdges:   5,
		TopCliques: 3,
		TopColumns: 10,
		TopQueries: 10,
	}
}

// Analyzer builds context packs. It holds no state between calls and is
// safe for concurrent use.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Analyzer. Non-positive limits fall back to DefaultOptions.
func New(opts Options) *Analyzer {
	def := DefaultOptions()
	if opts.TopEdges <= 0 {
		opts.TopEdges = def.TopEdges
	}
	if opts.TopCliques <= 0 {
		opts.TopCliques = def.TopCliques
	}
	if opts.TopColumns <= 0 {
		opts.TopColumns = def.TopColumns
	}
	if opts.TopQueries <= 0 {
		opts.TopQueries = def.TopQueries
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{opts: opts, logger: logger}
}

// BuildContextPack normalizes raw DDL and query records and analyzes them
// with default options.
func BuildContextPack(ddl, queries []Record) *ContextPack {
	return New(DefaultOptions()).Analyze(NormalizeDDL(ddl), NormalizeQueries(queries))
}

// Analyze builds a context pack for the given DDL and queries.
func (a *Analyzer) Analyze(ddl []DDLStmt, queries []QueryStat) *ContextPack {
	tables := a.parseDDL(ddl)
	defs := defaultsFrom(tables)

	votes := newShortNameVotes()
	for _, t := range tables {
		if fqtn, ok := defs.qualify(t.catalog, t.schema, t.table); ok {
			votes.add(t.table, fqtn)
		}
	}

	stmts := make([]*parser.SelectStmt, len(queries))
	for i, q := range queries {
		stmt, err := parseQuery(q.SQL)
		if err != nil {
			a.logger.Debug("query did not parse, falling back to FROM scan",
				"queryid", q.ID, "error", err)
			continue
		}
		stmts[i] = stmt
		votes.voteQueryTables(stmt, defs)
	}

	r := &resolver{defaults: defs, short: votes.index()}
	st := newStats()
	for i, q := range queries {
		if stmts[i] == nil {
			a.fallback(q, st)
			continue
		}
		w := &queryWalk{r: r, st: st, q: q, tables: newStringSet()}
		w.run(stmts[i])
	}

	pack := a.assemble(tables, defs, queries, st)
	a.logger.Debug("context pack built",
		"ddl_tables", len(pack.DDLTables),
		"queries", pack.QueriesOverview.TotalQueries,
		"join_edges", len(pack.JoinGraphEdges))
	return pack
}

// parseDDL returns the created table names in statement order. Statements
// that do not parse or are not CREATE TABLE are skipped.
func (a *Analyzer) parseDDL(ddl []DDLStmt) []ddlTable {
	var tables []ddlTable
	for i, d := range ddl {
		stmt, err := parser.Parse(d.Statement)
		if err != nil {
			a.logger.Debug("skipping DDL statement", "index", i, "error", err)
			continue
		}
		create, ok := stmt.(*parser.CreateTableStmt)
		if !ok || create.Name == nil {
			a.logger.Debug("skipping DDL statement", "index", i, "reason", "not CREATE TABLE")
			continue
		}
		tables = append(tables, ddlTableOf(create.Name))
	}
	return tables
}

var errNotQuery = errors.New("statement is not a query")

// parseQuery parses a workload query. CREATE TABLE ... AS SELECT and
// INSERT ... SELECT are analyzed through their SELECT.
func parseQuery(sql string) (*parser.SelectStmt, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return s, nil
	case *parser.CreateTableStmt:
		if s.AsSelect != nil {
			return s.AsSelect, nil
		}
	case *parser.InsertStmt:
		if s.Select != nil {
			return s.Select, nil
		}
	}
	return nil, errNotQuery
}

// fallback credits scans found by text search in a query that did not parse.
func (a *Analyzer) fallback(q QueryStat, st *stats) {
	seen := newStringSet()
	for _, fqtn := range fallbackScans(q.SQL) {
		st.scans.add(fqtn, q.Weight)
		seen.add(fqtn)
	}
	for _, fqtn := range seen.items {
		st.scanQueries.add(fqtn, q.Weight)
	}
	a.logger.Debug("fallback scan", "queryid", q.ID, "tables", seen.len())
}

func (a *Analyzer) assemble(tables []ddlTable, defs defaults, queries []QueryStat, st *stats) *ContextPack {
	pack := &ContextPack{
		DefaultCatalog:     optional(defs.catalog),
		DefaultSchema:      optional(defs.schema),
		DDLTables:          make([]DDLTable, 0, len(tables)),
		JoinGraphEdges:     []JoinEdge{},
		JoinKeyFreq:        st.joinKeys.counts,
		TableScanFreq:      st.scans.counts,
		TableScanQueryFreq: st.scanQueries.counts,
		ColumnUsageFreq:    st.columns.counts,
		GroupByPatterns:    st.groupBy,
		WindowFunctions:    st.windows.counts,
		TopQueries:         topQueries(queries, a.opts.TopQueries),
		HotJoinCliques:     st.joins.HotCliques(a.opts.TopEdges, a.opts.TopCliques),
		HotColumnsPerTable: make(map[string][]string, len(st.perTable)),
	}

	for _, t := range tables {
		catalog, schema := t.catalog, t.schema
		if catalog == "" {
			catalog = defs.catalog
		}
		if schema == "" {
			schema = defs.schema
		}
		pack.DDLTables = append(pack.DDLTables, DDLTable{
			Catalog: optional(catalog),
			Schema:  optional(schema),
			Table:   t.table,
		})
	}

	pack.QueriesOverview.TotalQueries = len(queries)
	for _, q := range queries {
		pack.QueriesOverview.TotalWeight += q.Weight
	}

	for _, e := range st.joins.Edges() {
		pack.JoinGraphEdges = append(pack.JoinGraphEdges, JoinEdge{A: e.A, B: e.B, Weight: e.Weight})
	}

	for _, fqtn := range st.perTableOrder {
		pack.HotColumnsPerTable[fqtn] = topKeys(st.perTable[fqtn], a.opts.TopColumns)
	}
	return pack
}

// topKeys returns up to n keys by descending weight, ties in insertion order.
func topKeys(c *counter[string], n int) []string {
	keys := append([]string(nil), c.keys()...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.get(keys[i]) > c.get(keys[j])
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// topQueries returns up to n queries by descending weight, ties in input order.
func topQueries(queries []QueryStat, n int) []TopQuery {
	sorted := append([]QueryStat(nil), queries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	top := make([]TopQuery, 0, len(sorted))
	for _, q := range sorted {
		top = append(top, TopQuery{QueryID: q.ID, Weight: q.Weight})
	}
	return top
}

package workload

import (
	"encoding/json"
	"fmt"
)

// ContextPack is the aggregated workload analysis. Its JSON field names are
// consumed by downstream tooling and must stay stable.
type ContextPack struct {
	DefaultCatalog     *string             `json:"default_catalog"`
	DefaultSchema      *string             `json:"default_schema"`
	DDLTables          []DDLTable          `json:"ddl_tables"`
	QueriesOverview    QueriesOverview     `json:"queries_overview"`
	JoinGraphEdges     []JoinEdge          `json:"join_graph_edges"`
	JoinKeyFreq        map[string]int64    `json:"join_key_freq"`
	TableScanFreq      map[string]int64    `json:"table_scan_freq"`
	TableScanQueryFreq map[string]int64    `json:"table_scan_query_freq"`
	ColumnUsageFreq    map[string]int64    `json:"column_usage_freq"`
	GroupByPatterns    []GroupByPattern    `json:"groupby_patterns"`
	WindowFunctions    map[string]int64    `json:"window_functions"`
	TopQueries         []TopQuery          `json:"top_queries_by_q"`
	HotJoinCliques     [][]string          `json:"hot_join_cliques"`
	HotColumnsPerTable map[string][]string `json:"hot_columns_per_table"`
}

// DDLTable is a table created by a DDL statement, with defaults applied to
// missing name parts.
type DDLTable struct {
	Catalog *string `json:"catalog"`
	Schema  *string `json:"schema"`
	Table   string  `json:"table"`
}

// FQTN returns the dotted name of the table.
func (t DDLTable) FQTN() string {
	return joinName(deref(t.Catalog), deref(t.Schema), t.Table)
}

// QueriesOverview summarizes the workload size.
type QueriesOverview struct {
	TotalQueries int   `json:"total_queries"`
	TotalWeight  int64 `json:"total_runquantity"`
}

// JoinEdge is a weighted join between two physical tables, A < B.
// It encodes as a [a, b, weight] triple.
type JoinEdge struct {
	A      string
	B      string
	Weight int64
}

// MarshalJSON implements json.Marshaler.
func (e JoinEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.A, e.B, e.Weight})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *JoinEdge) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("join edge: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.A); err != nil {
		return fmt.Errorf("join edge table a: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.B); err != nil {
		return fmt.Errorf("join edge table b: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Weight); err != nil {
		return fmt.Errorf("join edge weight: %w", err)
	}
	return nil
}

// GroupByPattern is the GROUP BY list of one SELECT block.
type GroupByPattern struct {
	QueryID     string   `json:"queryid"`
	Weight      int64    `json:"runquantity"`
	ColumnsRaw  []string `json:"columns_raw"`
	ColumnsOnly []string `json:"columns_only"`
}

// TopQuery is a query ranked by run weight.
type TopQuery struct {
	QueryID string `json:"queryid"`
	Weight  int64  `json:"runquantity"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

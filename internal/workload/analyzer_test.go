package workload

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/ctxpack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func ddlRecords(stmts ...string) []Record {
	out := make([]Record, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, Record{"statement": s})
	}
	return out
}

func query(id, sql string, weight int64) Record {
	return Record{"queryid": id, "query": sql, "runquantity": weight}
}

func analyze(t *testing.T, ddl []Record, queries ...Record) *ContextPack {
	t.Helper()
	opts := DefaultOptions()
	opts.Logger = testutil.NewTestLogger(t)
	return New(opts).Analyze(NormalizeDDL(ddl), NormalizeQueries(queries))
}

var twoTables = ddlRecords(
	"CREATE TABLE cat.sch.t1 (id int, name varchar(20))",
	"CREATE TABLE cat.sch.t2 (id int, t1_id int)",
)

// =============================================================================
// Scenarios
// =============================================================================

func TestBuildContextPack_SingleTable(t *testing.T) {
	pack := BuildContextPack(
		ddlRecords("CREATE TABLE quests.public.h_client (...)"),
		[]Record{query("q1", "SELECT id FROM quests.public.h_client", 5)},
	)

	require.NotNil(t, pack.DefaultCatalog)
	require.NotNil(t, pack.DefaultSchema)
	assert.Equal(t, "quests", *pack.DefaultCatalog)
	assert.Equal(t, "public", *pack.DefaultSchema)
	assert.Equal(t, int64(5), pack.TableScanFreq["quests.public.h_client"])
	assert.Equal(t, int64(5), pack.TableScanQueryFreq["quests.public.h_client"])
	assert.Equal(t, int64(5), pack.ColumnUsageFreq["quests.public.h_client.id"])
	assert.Equal(t, []string{"id"}, pack.HotColumnsPerTable["quests.public.h_client"])
}

func TestBuildContextPack_ShortNameJoin(t *testing.T) {
	pack := analyze(t, twoTables,
		query("q1", "SELECT a.id FROM t1 a JOIN t2 b ON a.id = b.t1_id", 3))

	assert.Equal(t, []JoinEdge{{A: "cat.sch.t1", B: "cat.sch.t2", Weight: 3}}, pack.JoinGraphEdges)
	assert.Equal(t, map[string]int64{"cat.sch.t1|cat.sch.t2|id|t1_id": 3}, pack.JoinKeyFreq)
	assert.Equal(t, int64(3), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(3), pack.TableScanFreq["cat.sch.t2"])
	assert.Equal(t, int64(6), pack.ColumnUsageFreq["cat.sch.t1.id"])
	assert.Equal(t, int64(3), pack.ColumnUsageFreq["cat.sch.t2.t1_id"])
	assert.Equal(t, [][]string{{"cat.sch.t1", "cat.sch.t2"}}, pack.HotJoinCliques)
}

func TestBuildContextPack_ShortNameJoinWithLambdaAndGroupingSets(t *testing.T) {
	pack := analyze(t, twoTables, query("q1", `
		SELECT a.id, transform(a.name, x -> x || '!')
		FROM t1 a JOIN t2 b ON a.id = b.t1_id
		GROUP BY GROUPING SETS ((a.id), ())`, 4))

	assert.Equal(t, []JoinEdge{{A: "cat.sch.t1", B: "cat.sch.t2", Weight: 4}}, pack.JoinGraphEdges)
	assert.Equal(t, int64(4), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(4), pack.TableScanFreq["cat.sch.t2"])
	assert.Equal(t, int64(12), pack.ColumnUsageFreq["cat.sch.t1.id"])
	assert.Equal(t, int64(4), pack.ColumnUsageFreq["cat.sch.t1.name"])
	for key := range pack.ColumnUsageFreq {
		assert.NotContains(t, key, ".x", "lambda parameter credited as a column")
	}
	assert.Equal(t, []GroupByPattern{{
		QueryID:     "q1",
		Weight:      4,
		ColumnsRaw:  []string{"GROUPING SETS ((a.id), ())"},
		ColumnsOnly: []string{},
	}}, pack.GroupByPatterns)
}

func TestBuildContextPack_InsertSelectAndParenthesizedJoin(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{name: "insert select", sql: "INSERT INTO cat.sch.t3 SELECT a.id FROM t1 a JOIN t2 b ON a.id = b.t1_id"},
		{name: "parenthesized join", sql: "SELECT a.id FROM (t1 a JOIN t2 b ON a.id = b.t1_id)"},
		{name: "insert over parenthesized join", sql: "INSERT INTO cat.sch.t3 (id) SELECT a.id FROM (t1 a JOIN t2 b ON a.id = b.t1_id) WHERE b.id > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := analyze(t, twoTables, query("q1", tt.sql, 2))

			assert.Equal(t, []JoinEdge{{A: "cat.sch.t1", B: "cat.sch.t2", Weight: 2}}, pack.JoinGraphEdges)
			assert.Equal(t, map[string]int64{"cat.sch.t1|cat.sch.t2|id|t1_id": 2}, pack.JoinKeyFreq)
			assert.Equal(t, int64(2), pack.TableScanFreq["cat.sch.t1"])
			assert.Equal(t, int64(2), pack.TableScanFreq["cat.sch.t2"])
			assert.NotContains(t, pack.TableScanFreq, "cat.sch.t3")
		})
	}
}

func TestBuildContextPack_ParseFailureFallback(t *testing.T) {
	pack := analyze(t, twoTables,
		query("bad", "SELECT a, FROM cat.sch.orphan WHERE (", 7),
		query("good", "SELECT id FROM cat.sch.t1", 1))

	assert.Equal(t, int64(7), pack.TableScanFreq["cat.sch.orphan"])
	assert.Equal(t, int64(7), pack.TableScanQueryFreq["cat.sch.orphan"])
	assert.Equal(t, map[string]int64{"cat.sch.t1.id": 1}, pack.ColumnUsageFreq)
	assert.Equal(t, 2, pack.QueriesOverview.TotalQueries)
	assert.Equal(t, int64(8), pack.QueriesOverview.TotalWeight)
}

func TestBuildContextPack_CTEResolvesToBase(t *testing.T) {
	pack := analyze(t, twoTables,
		query("q1", "WITH x AS (SELECT id FROM cat.sch.t1) SELECT * FROM x", 2))

	assert.NotContains(t, pack.TableScanFreq, "x")
	assert.Equal(t, int64(4), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(2), pack.TableScanQueryFreq["cat.sch.t1"])
	assert.Equal(t, int64(2), pack.ColumnUsageFreq["cat.sch.t1.id"])
}

// =============================================================================
// Properties
// =============================================================================

func workloadFixture() []Record {
	return []Record{
		query("q1", "SELECT a.id, b.t1_id FROM t1 a JOIN t2 b ON a.id = b.t1_id", 10),
		query("q2", "SELECT t1.name, count(*) FROM t1, t2 WHERE t1.id = t2.t1_id GROUP BY t1.name", 4),
		query("q3", "SELECT * FROM cat.sch.t1 x JOIN cat.sch.t1 y ON x.id = y.id", 2),
		query("q4", "WITH c AS (SELECT t1_id FROM t2) SELECT id FROM t1 WHERE id IN (SELECT t1_id FROM c)", 3),
		query("q5", "SELECT row_number() OVER (PARTITION BY name ORDER BY id) FROM t1", 1),
	}
}

func TestBuildContextPack_Idempotent(t *testing.T) {
	first, err := json.Marshal(BuildContextPack(twoTables, workloadFixture()))
	require.NoError(t, err)
	second, err := json.Marshal(BuildContextPack(twoTables, workloadFixture()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestBuildContextPack_WeightConservation(t *testing.T) {
	pack := BuildContextPack(twoTables, workloadFixture())
	require.NotEmpty(t, pack.TableScanQueryFreq)
	for table, perQuery := range pack.TableScanQueryFreq {
		assert.LessOrEqual(t, perQuery, pack.TableScanFreq[table], table)
	}
	// q3 scans t1 twice.
	assert.Equal(t, int64(10+4+4+3+1), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(10+4+2+3+1), pack.TableScanQueryFreq["cat.sch.t1"])
}

func TestBuildContextPack_CanonicalEdges(t *testing.T) {
	pack := BuildContextPack(twoTables, workloadFixture())
	require.NotEmpty(t, pack.JoinGraphEdges)
	for _, e := range pack.JoinGraphEdges {
		assert.Less(t, e.A, e.B)
	}
	// q1 and q2 both join t1 to t2; the q3 self-join is discarded.
	assert.Equal(t, []JoinEdge{{A: "cat.sch.t1", B: "cat.sch.t2", Weight: 14}}, pack.JoinGraphEdges)
}

func TestBuildContextPack_Empty(t *testing.T) {
	pack := BuildContextPack(nil, nil)

	assert.Nil(t, pack.DefaultCatalog)
	assert.Nil(t, pack.DefaultSchema)
	assert.Equal(t, QueriesOverview{}, pack.QueriesOverview)

	data, err := json.Marshal(pack)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"default_catalog": null,
		"default_schema": null,
		"ddl_tables": [],
		"queries_overview": {"total_queries": 0, "total_runquantity": 0},
		"join_graph_edges": [],
		"join_key_freq": {},
		"table_scan_freq": {},
		"table_scan_query_freq": {},
		"column_usage_freq": {},
		"groupby_patterns": [],
		"window_functions": {},
		"top_queries_by_q": [],
		"hot_join_cliques": [],
		"hot_columns_per_table": {}
	}`, string(data))
}

func TestContextPack_JSONShape(t *testing.T) {
	pack := analyze(t, twoTables,
		query("q1", "SELECT a.id FROM t1 a JOIN t2 b ON a.id = b.t1_id", 3))

	data, err := json.Marshal(pack)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `[["cat.sch.t1", "cat.sch.t2", 3]]`, string(raw["join_graph_edges"]))
	assert.JSONEq(t, `[{"queryid": "q1", "runquantity": 3}]`, string(raw["top_queries_by_q"]))

	var decoded ContextPack
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pack.JoinGraphEdges, decoded.JoinGraphEdges)
}

// =============================================================================
// Column attribution
// =============================================================================

func TestAnalyze_ColumnAttribution(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected map[string]int64
	}{
		{
			name: "ambiguous bare column goes to unknown",
			sql:  "SELECT name FROM t1 a JOIN t2 b ON a.id = b.t1_id",
			expected: map[string]int64{
				"__unknown__.name": 1,
				"cat.sch.t1.id":    1,
				"cat.sch.t2.t1_id": 1,
			},
		},
		{
			name: "bare column after qualified use",
			sql:  "SELECT a.name, name FROM t1 a JOIN t2 b ON a.id = b.t1_id",
			expected: map[string]int64{
				"cat.sch.t1.name":  2,
				"cat.sch.t1.id":    1,
				"cat.sch.t2.t1_id": 1,
			},
		},
		{
			name: "bare column before qualified use",
			sql:  "SELECT name, a.name FROM t1 a JOIN t2 b ON a.id = b.t1_id",
			expected: map[string]int64{
				"__unknown__.name": 1,
				"cat.sch.t1.name":  1,
				"cat.sch.t1.id":    1,
				"cat.sch.t2.t1_id": 1,
			},
		},
		{
			name: "single aliased source",
			sql:  "SELECT flag FROM cat.sch.t1 x, cat.sch.t2",
			expected: map[string]int64{
				"cat.sch.t1.flag": 1,
			},
		},
		{
			name: "qualified by bare table name",
			sql:  "SELECT t2.id, t1.name FROM t1, t2",
			expected: map[string]int64{
				"cat.sch.t2.id":   1,
				"cat.sch.t1.name": 1,
			},
		},
		{
			name: "schema qualified column",
			sql:  "SELECT sch.t1.name FROM sch.t1",
			expected: map[string]int64{
				"cat.sch.t1.name": 1,
			},
		},
		{
			name: "derived table alias",
			sql:  "SELECT d.name FROM (SELECT name FROM t1) d",
			expected: map[string]int64{
				"cat.sch.t1.name": 2,
			},
		},
		{
			name: "quoted identifiers",
			sql:  `SELECT "a"."name" FROM "t1" "a"`,
			expected: map[string]int64{
				"cat.sch.t1.name": 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := analyze(t, twoTables, query("q", tt.sql, 1))
			assert.Equal(t, tt.expected, pack.ColumnUsageFreq)
		})
	}
}

func TestAnalyze_CorrelatedSubquery(t *testing.T) {
	pack := analyze(t, twoTables, query("q",
		"SELECT a.id FROM t1 a WHERE EXISTS (SELECT 1 FROM t2 b WHERE b.t1_id = a.id)", 2))

	assert.Equal(t, int64(4), pack.ColumnUsageFreq["cat.sch.t1.id"])
	assert.Equal(t, int64(2), pack.ColumnUsageFreq["cat.sch.t2.t1_id"])
	assert.Equal(t, map[string]int64{"cat.sch.t1|cat.sch.t2|id|t1_id": 2}, pack.JoinKeyFreq)
}

func TestAnalyze_CTEChain(t *testing.T) {
	pack := analyze(t, twoTables, query("q", `
		WITH a AS (SELECT * FROM t1),
		     b AS (SELECT * FROM a)
		SELECT b.name FROM b`, 1))

	assert.Equal(t, int64(3), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(1), pack.TableScanQueryFreq["cat.sch.t1"])
	assert.Equal(t, map[string]int64{"cat.sch.t1.name": 1}, pack.ColumnUsageFreq)
}

func TestAnalyze_CTEShadowsTable(t *testing.T) {
	pack := analyze(t, twoTables, query("q",
		"WITH t2 AS (SELECT id FROM t1) SELECT id FROM t2", 1))

	assert.NotContains(t, pack.TableScanFreq, "cat.sch.t2")
	assert.Equal(t, int64(2), pack.TableScanFreq["cat.sch.t1"])
}

func TestAnalyze_UnionCTE(t *testing.T) {
	pack := analyze(t, twoTables, query("q", `
		WITH u AS (SELECT id FROM t1 UNION ALL SELECT id FROM t2)
		SELECT u.id FROM u`, 1))

	assert.Equal(t, int64(2), pack.ColumnUsageFreq["cat.sch.t1.id"])
	assert.Equal(t, int64(2), pack.ColumnUsageFreq["cat.sch.t2.id"])
	assert.Equal(t, int64(2), pack.TableScanFreq["cat.sch.t1"])
	assert.Equal(t, int64(2), pack.TableScanFreq["cat.sch.t2"])
}

func TestAnalyze_DefaultSchemaForUnknownShortName(t *testing.T) {
	pack := analyze(t, twoTables, query("q", "SELECT v FROM t9", 1))

	assert.Equal(t, int64(1), pack.TableScanFreq["cat.sch.t9"])
	assert.Equal(t, int64(1), pack.ColumnUsageFreq["cat.sch.t9.v"])
}

// =============================================================================
// Short names and defaults
// =============================================================================

func TestAnalyze_ShortNameVote(t *testing.T) {
	ddl := ddlRecords("CREATE TABLE c1.s.t (x int)")

	tests := []struct {
		name     string
		queries  []Record
		expected string
	}{
		{
			name: "majority wins",
			queries: []Record{
				query("q1", "SELECT 1 FROM c2.s.t", 1),
				query("q2", "SELECT 1 FROM c2.s.t", 1),
				query("q3", "SELECT x FROM t", 1),
			},
			expected: "c2.s.t",
		},
		{
			name: "tie goes to first seen",
			queries: []Record{
				query("q1", "SELECT 1 FROM c2.s.t", 1),
				query("q3", "SELECT x FROM t", 1),
			},
			expected: "c1.s.t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := analyze(t, ddl, tt.queries...)
			assert.Equal(t, int64(1), pack.ColumnUsageFreq[tt.expected+".x"])
		})
	}
}

func TestAnalyze_DDLTables(t *testing.T) {
	pack := analyze(t, ddlRecords(
		"CREATE TABLE (",
		"DROP TABLE cat.sch.old",
		"CREATE TABLE loose (a int)",
		"CREATE TABLE sch.t1 (a int)",
		"CREATE TABLE cat2.sch2.t2 AS SELECT 1",
	))

	require.NotNil(t, pack.DefaultSchema)
	assert.Nil(t, pack.DefaultCatalog)
	assert.Equal(t, "sch", *pack.DefaultSchema)

	var names []string
	for _, tbl := range pack.DDLTables {
		names = append(names, tbl.FQTN())
	}
	assert.Equal(t, []string{"sch.loose", "sch.t1", "cat2.sch2.t2"}, names)
}

// =============================================================================
// Group by, windows and rankings
// =============================================================================

func TestAnalyze_GroupByPatterns(t *testing.T) {
	pack := analyze(t, twoTables, query("q7", `
		SELECT name, date_trunc('day', ts), count(*)
		FROM t1
		WHERE id IN (SELECT t1_id FROM t2 GROUP BY t1_id)
		GROUP BY name, date_trunc('day', ts)`, 5))

	assert.Equal(t, []GroupByPattern{
		{
			QueryID:     "q7",
			Weight:      5,
			ColumnsRaw:  []string{"name", "DATE_TRUNC('day', ts)"},
			ColumnsOnly: []string{"name"},
		},
		{
			QueryID:     "q7",
			Weight:      5,
			ColumnsRaw:  []string{"t1_id"},
			ColumnsOnly: []string{"t1_id"},
		},
	}, pack.GroupByPatterns)
}

func TestAnalyze_WindowFunctions(t *testing.T) {
	pack := analyze(t, twoTables,
		query("q1", "SELECT row_number() OVER (ORDER BY id), sum(id) OVER (PARTITION BY name) FROM t1", 2),
		query("q2", "SELECT rank() OVER (ORDER BY id), rank() OVER (ORDER BY name) FROM t1", 3),
		query("q3", "SELECT sum(id) FROM t1", 100))

	assert.Equal(t, map[string]int64{
		"ROW_NUMBER": 2,
		"SUM":        2,
		"RANK":       6,
	}, pack.WindowFunctions)
}

func TestAnalyze_HotColumns(t *testing.T) {
	opts := DefaultOptions()
	opts.TopColumns = 2
	pack := New(opts).Analyze(
		NormalizeDDL(twoTables),
		NormalizeQueries([]Record{
			query("q1", "SELECT a, b, c FROM t1", 1),
			query("q2", "SELECT c FROM t1", 5),
			query("q3", "SELECT x FROM t1, t2", 50),
		}),
	)

	assert.Equal(t, map[string][]string{"cat.sch.t1": {"c", "a"}}, pack.HotColumnsPerTable)
	assert.Equal(t, int64(50), pack.ColumnUsageFreq["__unknown__.x"])
}

func TestAnalyze_TopQueries(t *testing.T) {
	opts := DefaultOptions()
	opts.TopQueries = 3
	pack := New(opts).Analyze(nil, []QueryStat{
		{ID: "a", SQL: "SELECT 1", Weight: 1},
		{ID: "b", SQL: "SELECT 1", Weight: 9},
		{ID: "c", SQL: "SELECT 1", Weight: 5},
		{ID: "d", SQL: "SELECT 1", Weight: 9},
	})

	assert.Equal(t, []TopQuery{
		{QueryID: "b", Weight: 9},
		{QueryID: "d", Weight: 9},
		{QueryID: "c", Weight: 5},
	}, pack.TopQueries)
}

func TestAnalyze_HotCliques(t *testing.T) {
	ddl := ddlRecords(
		"CREATE TABLE c.s.a (id int)",
		"CREATE TABLE c.s.b (id int)",
		"CREATE TABLE c.s.d (id int)",
		"CREATE TABLE c.s.e (id int)",
	)
	pack := analyze(t, ddl,
		query("q1", "SELECT 1 FROM a JOIN b ON a.id = b.id JOIN d ON b.id = d.id", 10),
		query("q2", "SELECT 1 FROM a JOIN d ON a.id = d.id", 10),
		query("q3", "SELECT 1 FROM d JOIN e ON d.id = e.id", 1))

	require.NotEmpty(t, pack.HotJoinCliques)
	assert.Equal(t, []string{"c.s.a", "c.s.b", "c.s.d"}, pack.HotJoinCliques[0])
	assert.Len(t, pack.JoinGraphEdges, 4)
}

func TestAnalyze_LogsSkippedStatements(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	opts := DefaultOptions()
	opts.Logger = logger

	New(opts).Analyze(
		NormalizeDDL(ddlRecords("CREATE TABLE cat.sch.t1 (id int)", "DROP TABLE cat.sch.t1")),
		NormalizeQueries([]Record{query("q1", "SELECT a, FROM cat.sch.t1 WHERE (", 1)}),
	)

	msgs := logs.Messages(slog.LevelDebug)
	assert.Contains(t, msgs, "skipping DDL statement")
	assert.Contains(t, msgs, "query did not parse, falling back to FROM scan")
	assert.Contains(t, msgs, "context pack built")

	for _, rec := range logs.Records() {
		if rec.Message == "query did not parse, falling back to FROM scan" {
			assert.Equal(t, "q1", rec.Attrs["queryid"])
		}
	}
}

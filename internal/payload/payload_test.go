package payload

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/ctxpack/internal/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "url": "jdbc:trino://localhost:8080",
  "ddl": [
    {"statement": "CREATE TABLE cat.sch.orders (id int, customer_id int)"},
    {"statement": "CREATE TABLE cat.sch.customers (id int, name varchar)"}
  ],
  "queries": [
    {
      "queryid": "0b7a1c1e-0000-4000-8000-000000000001",
      "query": "SELECT c.name FROM orders o JOIN customers c ON o.customer_id = c.id",
      "runquantity": 120
    },
    {
      "queryid": "0b7a1c1e-0000-4000-8000-000000000002",
      "query": "SELECT count(*) FROM orders WHERE id < 10",
      "runquantity": 9007199254740993
    }
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_JSON(t *testing.T) {
	p, err := Load(writeFile(t, "payload.json", samplePayload))
	require.NoError(t, err)

	assert.False(t, p.Loose)
	assert.Equal(t, "jdbc:trino://localhost:8080", p.URL)
	assert.Len(t, p.DDL, 2)
	require.Len(t, p.Queries, 2)

	queries := workload.NormalizeQueries(p.Queries)
	assert.Equal(t, int64(120), queries[0].Weight)
	assert.Equal(t, int64(9007199254740993), queries[1].Weight)
}

func TestLoad_YAML(t *testing.T) {
	content := `
ddl:
  - statement: CREATE TABLE cat.sch.orders (id int)
queries:
  - queryid: q1
    query: SELECT id FROM orders
    runquantity: 4
`
	for _, name := range []string{"payload.yaml", "payload.YML"} {
		t.Run(name, func(t *testing.T) {
			p, err := Load(writeFile(t, name, content))
			require.NoError(t, err)

			pack := p.Analyze(workload.New(workload.DefaultOptions()))
			assert.Equal(t, int64(4), pack.ColumnUsageFreq["cat.sch.orders.id"])
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Load(writeFile(t, "empty.json", "  \n"))
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "ddl: [unclosed"))
		assert.Error(t, err)
	})
}

func TestDecode_FallsBackToLoose(t *testing.T) {
	broken := `{
  "ddl": [
    {"statement": "CREATE TABLE cat.sch.orders (id int, total decimal(10,2))"},
    {"statement": "create table cat.sch.items (order_id int)"},
    {"statement": "CREATE TABLE cat.sch.orders (id int)"}
  ],
  "queries": [
    {"queryid": "aaaaaaaa-1111", "query": "SELECT id
FROM cat.sch.orders", "runquantity": 12},
    {"queryid": "bbbbbbbb-2222", "query": "SELECT id FROM cat.sch.items WHERE ...", "runquantity": 3},
    {"queryid": "cccccccc-3333", "query": "SELECT 1 FROM cat.sch.ite`

	p, err := Decode([]byte(broken))
	require.NoError(t, err)
	assert.True(t, p.Loose)

	assert.Equal(t, []workload.Record{
		{"statement": "CREATE TABLE cat.sch.orders (x int)"},
		{"statement": "CREATE TABLE cat.sch.items (x int)"},
	}, p.DDL)

	assert.Equal(t, []workload.Record{
		{"queryid": "aaaaaaaa-1111", "query": "SELECT id FROM cat.sch.orders", "runquantity": int64(12)},
		{"queryid": "bbbbbbbb-2222", "query": workload.PlaceholderQuery, "runquantity": int64(3)},
		{"queryid": "cccccccc-3333", "query": workload.PlaceholderQuery, "runquantity": int64(1)},
	}, p.Queries)
}

func TestLoose_QueryIDFallbackKey(t *testing.T) {
	p := Loose([]byte(`[{"queryId": "deadbeef01", "query": "SELECT 2", "runQuantity": 5}`))

	require.Len(t, p.Queries, 1)
	assert.Equal(t, "deadbeef01", p.Queries[0]["queryid"])
	assert.Equal(t, "SELECT 2", p.Queries[0]["query"])
	assert.Equal(t, int64(5), p.Queries[0]["runquantity"])
}

func TestLoose_NothingFound(t *testing.T) {
	p := Loose([]byte("not a payload at all"))
	assert.Empty(t, p.DDL)
	assert.Empty(t, p.Queries)
	assert.NotNil(t, p.DDL)
	assert.NotNil(t, p.Queries)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		payload  string
		outDir   string
		expected string
	}{
		{"data/payload.json", "", filepath.Join("data", "payload.context_pack.json")},
		{"payload.yaml", "", "payload.context_pack.json"},
		{"data/payload", "out", filepath.Join("out", "payload.context_pack.json")},
		{"data/v1.2.json", "out", filepath.Join("out", "v1.2.context_pack.json")},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputPath(tt.payload, tt.outDir))
		})
	}
}

func TestWrite(t *testing.T) {
	p, err := Decode([]byte(samplePayload))
	require.NoError(t, err)
	pack := p.Analyze(workload.New(workload.DefaultOptions()))

	path := filepath.Join(t.TempDir(), "nested", "payload"+PackSuffix)
	require.NoError(t, Write(path, pack))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"default_catalog\": \"cat\",\n")

	var decoded workload.ContextPack
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, pack.JoinGraphEdges, decoded.JoinGraphEdges)
	assert.Equal(t, []workload.JoinEdge{{A: "cat.sch.customers", B: "cat.sch.orders", Weight: 120}}, decoded.JoinGraphEdges)
}

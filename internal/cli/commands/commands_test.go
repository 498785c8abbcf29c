package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/ctxpack/internal/cli/config"
	"github.com/leapstack-labs/ctxpack/internal/cli/output"
	"github.com/leapstack-labs/ctxpack/internal/state"
	"github.com/leapstack-labs/ctxpack/internal/testutil"
	"github.com/leapstack-labs/ctxpack/internal/workload"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "ddl": [
    {"statement": "CREATE TABLE cat.sch.orders (id int, customer_id int)"},
    {"statement": "CREATE TABLE cat.sch.customers (id int, name varchar)"}
  ],
  "queries": [
    {"queryid": "q1", "query": "SELECT c.name FROM orders o JOIN customers c ON o.customer_id = c.id", "runquantity": 40}
  ]
}`

type testContext struct {
	*CommandContext
	out, errOut *bytes.Buffer
	logs        *testutil.LogCapture
}

func newTestContext(t *testing.T, mode output.Mode) *testContext {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	logger, logs := testutil.NewCaptureLogger()
	return &testContext{
		CommandContext: &CommandContext{
			Cfg:      config.Default(),
			Logger:   logger,
			Renderer: output.NewRendererWithTTY(out, errOut, false, mode),
		},
		out:    out,
		errOut: errOut,
		logs:   logs,
	}
}

func openMemoryStore(t *testing.T) *state.SQLStore {
	t.Helper()
	store, err := state.Open(context.Background(), state.DialectSQLite, ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewAnalyzeCommand(), "analyze <payload>...", []string{"stdout", "watch", "store", "out-dir", "concurrency", "store-driver", "store-dsn"}},
		{NewGenerateCommand(), "generate", []string{"ddl", "queries", "seed", "url", "file"}},
		{NewServeCommand(), "serve", []string{"addr", "workers", "task-timeout", "username", "store-driver", "store-dsn"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestNewTasksCommand(t *testing.T) {
	cmd := NewTasksCommand()

	assert.Equal(t, "tasks", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("store-dsn"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, names)
}

func TestNewCommandContext(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	cc, err := NewCommandContext(cmd)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cc.Cfg)

	cfg := config.Default()
	cfg.Output = "xml"
	cmd.SetContext(config.WithConfig(context.Background(), cfg))
	_, err = NewCommandContext(cmd)
	assert.Error(t, err)
}

func TestEdgeRows(t *testing.T) {
	edges := []workload.JoinEdge{
		{A: "a", B: "b", Weight: 5},
		{A: "a", B: "c", Weight: 9},
		{A: "b", B: "c", Weight: 5},
		{A: "c", B: "d", Weight: 1},
	}

	rows := edgeRows(edges, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[0][1])
	assert.Equal(t, int64(9), rows[0][2])
	assert.Equal(t, "b", rows[1][1], "ties keep pack order")
	assert.Equal(t, "c", rows[2][1])

	assert.Equal(t, "a", edges[0].A, "input is not reordered")
	assert.Empty(t, edgeRows(nil, 5))
}

func TestAnalyzeOne_WritesPack(t *testing.T) {
	tc := newTestContext(t, output.ModeText)
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "workload.json", samplePayload)

	a := &analyzeRun{cc: tc.CommandContext, analyzer: tc.Analyzer()}
	res, err := a.analyzeOne(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "workload.context_pack.json"), res.Output)
	assert.FileExists(t, res.Output)
	assert.Equal(t, 1, res.Queries)
	assert.Equal(t, int64(40), res.Weight)
	assert.Equal(t, 1, res.JoinEdges)
	assert.Empty(t, res.TaskID)

	require.NoError(t, a.render([]*AnalyzeResult{res}))
	assert.Contains(t, tc.out.String(), "OK: context_pack written to "+res.Output)
	assert.Contains(t, tc.out.String(), "cat.sch.customers")
}

func TestAnalyzeOne_OutDir(t *testing.T) {
	tc := newTestContext(t, output.ModeJSON)
	tc.Cfg.OutDir = filepath.Join(t.TempDir(), "packs")
	path := testutil.WriteFile(t, t.TempDir(), "w.json", samplePayload)

	a := &analyzeRun{cc: tc.CommandContext, analyzer: tc.Analyzer()}
	res, err := a.analyzeOne(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tc.Cfg.OutDir, "w.context_pack.json"), res.Output)
	assert.FileExists(t, res.Output)
}

func TestAnalyzeOne_RecordsTasks(t *testing.T) {
	tc := newTestContext(t, output.ModeJSON)
	store := openMemoryStore(t)
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.json", samplePayload)
	bad := testutil.WriteFile(t, dir, "bad.yaml", "ddl: [unclosed")

	a := &analyzeRun{cc: tc.CommandContext, analyzer: tc.Analyzer(), store: store, stdout: true}
	ctx := context.Background()

	res, err := a.analyzeOne(ctx, good)
	require.NoError(t, err)
	require.NotEmpty(t, res.TaskID)
	assert.Empty(t, res.Output, "stdout runs do not write files")

	task, err := store.GetTask(ctx, res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, state.TaskComplete, task.Status)
	assert.Equal(t, state.PayloadHash([]byte(samplePayload)), task.PayloadHash)
	assert.Contains(t, string(task.Result), `"join_graph_edges"`)

	_, err = a.analyzeOne(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	tasks, err := store.ListTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	var failed *state.Task
	for _, tk := range tasks {
		if tk.Status == state.TaskFailed {
			failed = tk
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Error, "bad.yaml")
}

func TestAnalyzeOne_LoosePayloadWarns(t *testing.T) {
	tc := newTestContext(t, output.ModeText)
	broken := `{"ddl": [{"statement": "CREATE TABLE cat.sch.orders (id int)"}],
"queries": [{"queryid": "aaaaaaaa-1111", "query": "SELECT id FROM cat.sch.orders", "runquantity": 2}`
	path := testutil.WriteFile(t, t.TempDir(), "broken.json", broken)

	a := &analyzeRun{cc: tc.CommandContext, analyzer: tc.Analyzer()}
	res, err := a.analyzeOne(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.Loose)
	assert.Equal(t, int64(2), res.Weight)

	assert.Contains(t, tc.logs.Messages(slog.LevelWarn), "payload is not valid JSON, recovered records by pattern matching")

	require.NoError(t, a.render([]*AnalyzeResult{res}))
	assert.Contains(t, tc.errOut.String(), "recovered from malformed JSON")
}

func TestAnalyzeAll_KeepsOrder(t *testing.T) {
	tc := newTestContext(t, output.ModeJSON)
	tc.Cfg.Concurrency = 2
	dir := t.TempDir()
	paths := []string{
		testutil.WriteFile(t, dir, "3.json", samplePayload),
		filepath.Join(dir, "missing.json"),
		testutil.WriteFile(t, dir, "1.json", samplePayload),
	}

	a := &analyzeRun{cc: tc.CommandContext, analyzer: tc.Analyzer()}
	results, errs := a.analyzeAll(context.Background(), paths)

	require.Len(t, results, 3)
	assert.Equal(t, paths[0], results[0].Payload)
	assert.Nil(t, results[1])
	assert.Error(t, errs[1])
	assert.Equal(t, paths[2], results[2].Payload)
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[2])
}

func TestWatchPayloads(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "w.json", "{}")
	testutil.WriteFile(t, dir, "other.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchPayloads(ctx, testutil.NewTestLogger(t), []string{path}, func(p string) {
			changed <- p
		})
	}()

	// The watcher starts asynchronously; keep writing until it reports.
	// Writes are spaced wider than the debounce so each one can fire.
	tick := time.NewTicker(3 * watchDebounce)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
	var got string
loop:
	for {
		select {
		case got = <-changed:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600))
			require.NoError(t, os.WriteFile(path, []byte(samplePayload), 0o600))
		case <-deadline:
			t.Fatal("watcher did not report a change")
		}
	}
	assert.Equal(t, path, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

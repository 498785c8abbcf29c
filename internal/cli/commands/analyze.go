package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/ctxpack/internal/cli/output"
	"github.com/leapstack-labs/ctxpack/internal/payload"
	"github.com/leapstack-labs/ctxpack/internal/state"
	"github.com/leapstack-labs/ctxpack/internal/workload"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// topEdgesShown is the number of join edges listed in the text summary.
const topEdgesShown = 5

// AnalyzeResult summarizes one analyzed payload.
type AnalyzeResult struct {
	Payload    string `json:"payload"`
	Output     string `json:"output,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Loose      bool   `json:"loose"`
	DDLTables  int    `json:"ddl_tables"`
	Queries    int    `json:"total_queries"`
	Weight     int64  `json:"total_runquantity"`
	JoinEdges  int    `json:"join_edges"`
	HotCliques int    `json:"hot_join_cliques"`

	pack *workload.ContextPack
}

type analyzeOptions struct {
	stdout bool
	watch  bool
	store  bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <payload>...",
		Short: "Build context packs from workload payloads",
		Long: `Analyze one or more payload files (DDL plus weighted queries) and write a
context pack next to each payload as <name>.context_pack.json.

Payloads are JSON or YAML. A JSON file that does not decode is scanned for
CREATE TABLE statements and query records instead.

Output adapts to environment:
  - Terminal: a summary with the heaviest join edges
  - Piped/Scripted: a JSON summary per payload`,
		Example: `  # Analyze a payload
  ctxpack analyze workload.json

  # Analyze several payloads into one directory
  ctxpack analyze --out-dir packs a.json b.json c.yaml

  # Print the context pack instead of writing it
  ctxpack analyze --stdout workload.json | jq .join_graph_edges

  # Re-analyze whenever the payload changes
  ctxpack analyze --watch workload.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Print context packs to stdout instead of writing files")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-analyze payloads when they change")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Record each run as a task in the task store")
	cmd.Flags().String("out-dir", "", "Directory for context packs (default: next to each payload)")
	cmd.Flags().Int("concurrency", 0, "Number of payloads analyzed in parallel")
	addStoreFlags(cmd.Flags())

	return cmd
}

func runAnalyze(cmd *cobra.Command, paths []string, opts analyzeOptions) error {
	ctx := cmd.Context()
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	var store *state.SQLStore
	if opts.store {
		store, err = cc.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	a := &analyzeRun{cc: cc, analyzer: cc.Analyzer(), store: store, stdout: opts.stdout}

	results, errs := a.analyzeAll(ctx, paths)
	if err := a.render(results); err != nil {
		return err
	}
	for _, err := range errs {
		if err != nil {
			cc.Renderer.Error(err.Error())
		}
	}

	if opts.watch {
		var mu sync.Mutex
		return watchPayloads(ctx, cc.Logger, paths, func(path string) {
			mu.Lock()
			defer mu.Unlock()
			res, err := a.analyzeOne(ctx, path)
			if err != nil {
				cc.Renderer.Error(err.Error())
				return
			}
			if err := a.render([]*AnalyzeResult{res}); err != nil {
				cc.Renderer.Error(err.Error())
			}
		})
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}

// analyzeRun holds what every payload of one analyze invocation shares.
type analyzeRun struct {
	cc       *CommandContext
	analyzer *workload.Analyzer
	store    *state.SQLStore
	stdout   bool
}

// analyzeAll analyzes payloads concurrently. Results and errors are indexed
// like paths; a failed payload has a nil result.
func (a *analyzeRun) analyzeAll(ctx context.Context, paths []string) ([]*AnalyzeResult, []error) {
	results := make([]*AnalyzeResult, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(a.cc.Cfg.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i], errs[i] = a.analyzeOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

func (a *analyzeRun) analyzeOne(ctx context.Context, path string) (*AnalyzeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read payload: %w", path, err)
	}

	var task *state.Task
	if a.store != nil {
		task, err = a.store.CreateTask(ctx, state.PayloadHash(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := a.store.StartTask(ctx, task.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	res, err := a.build(path, data)
	if a.store != nil {
		res, err = a.record(ctx, task, res, err)
	}
	if err != nil {
		return nil, err
	}

	if !a.stdout {
		res.Output = payload.OutputPath(path, a.cc.Cfg.OutDir)
		if err := payload.Write(res.Output, res.pack); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	a.cc.Logger.Info("payload analyzed",
		"payload", path,
		"queries", res.Queries,
		"join_edges", res.JoinEdges,
		"loose", res.Loose)
	return res, nil
}

func (a *analyzeRun) build(path string, data []byte) (*AnalyzeResult, error) {
	p, err := payload.Parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Loose {
		a.cc.Logger.Warn("payload is not valid JSON, recovered records by pattern matching",
			"payload", path, "ddl", len(p.DDL), "queries", len(p.Queries))
	}

	pack := p.Analyze(a.analyzer)
	return &AnalyzeResult{
		Payload:    path,
		Loose:      p.Loose,
		DDLTables:  len(pack.DDLTables),
		Queries:    pack.QueriesOverview.TotalQueries,
		Weight:     pack.QueriesOverview.TotalWeight,
		JoinEdges:  len(pack.JoinGraphEdges),
		HotCliques: len(pack.HotJoinCliques),
		pack:       pack,
	}, nil
}

// record stores the outcome of a run on its task.
func (a *analyzeRun) record(ctx context.Context, task *state.Task, res *AnalyzeResult, runErr error) (*AnalyzeResult, error) {
	if runErr != nil {
		if err := a.store.FailTask(ctx, task.ID, runErr.Error()); err != nil {
			a.cc.Logger.Error("failed to record task failure", "task_id", task.ID, "error", err)
		}
		return nil, runErr
	}
	data, err := payload.Marshal(res.pack)
	if err != nil {
		return nil, err
	}
	if err := a.store.CompleteTask(ctx, task.ID, data); err != nil {
		return nil, fmt.Errorf("%s: %w", res.Payload, err)
	}
	res.TaskID = task.ID
	return res, nil
}

func (a *analyzeRun) render(results []*AnalyzeResult) error {
	r := a.cc.Renderer

	if a.stdout {
		for _, res := range results {
			if res == nil {
				continue
			}
			if err := r.JSON(res.pack); err != nil {
				return err
			}
		}
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		done := make([]*AnalyzeResult, 0, len(results))
		for _, res := range results {
			if res != nil {
				done = append(done, res)
			}
		}
		return r.JSON(done)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		renderSummary(r, res)
	}
	return nil
}

func renderSummary(r *output.Renderer, res *AnalyzeResult) {
	r.Success("OK: context_pack written to " + res.Output)
	if res.Loose {
		r.Warning(res.Payload + " was recovered from malformed JSON")
	}
	r.KeyValue("DDL tables", res.DDLTables)
	r.KeyValue("Queries", res.Queries)
	r.KeyValue("Total runquantity", res.Weight)
	r.KeyValue("Join edges", res.JoinEdges)
	r.KeyValue("Hot join cliques", res.HotCliques)
	if res.TaskID != "" {
		r.KeyValue("Task", res.TaskID)
	}
	r.Println("")

	r.Header(2, "Top join edges")
	r.Table(table.Row{"Table A", "Table B", "Weight"}, edgeRows(res.pack.JoinGraphEdges, topEdgesShown))
	r.Println("")
}

// edgeRows returns up to n edges by descending weight, ties in pack order.
func edgeRows(edges []workload.JoinEdge, n int) []table.Row {
	sorted := append([]workload.JoinEdge(nil), edges...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	rows := make([]table.Row, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, table.Row{e.A, e.B, e.Weight})
	}
	return rows
}

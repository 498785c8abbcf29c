package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/ctxpack/internal/cli/config"
	"github.com/leapstack-labs/ctxpack/internal/cli/output"
	"github.com/leapstack-labs/ctxpack/internal/state"
	"github.com/leapstack-labs/ctxpack/internal/workload"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the command dependencies from the config and
// logger the root command stored in the context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	mode, err := output.ParseMode(cfg.Output)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// Analyzer creates an analyzer with the configured ranking limits.
func (c *CommandContext) Analyzer() *workload.Analyzer {
	opts := c.Cfg.Analyzer.Options()
	opts.Logger = c.Logger
	return workload.New(opts)
}

// OpenStore opens the configured task store, creating the directory of a
// SQLite database file when needed.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLStore, error) {
	dialect, err := state.ParseDialect(c.Cfg.Store.Driver)
	if err != nil {
		return nil, err
	}
	dsn := c.Cfg.Store.DSN
	if dialect == state.DialectSQLite && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	}
	store, err := state.Open(ctx, dialect, dsn, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}
	return store, nil
}

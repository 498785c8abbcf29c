package commands

import (
	"github.com/leapstack-labs/ctxpack/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP task service",
		Long: `Run an HTTP service that analyzes payloads in the background.

Endpoints:
  POST /new                     submit a payload, returns {"taskid": ...}
  GET  /status?task_id=ID       task status; add &wait=10s to long-poll
  GET  /getresult?task_id=ID    the context pack of a COMPLETE task
  GET  /healthz                 liveness probe

Tasks are stored in the configured task store (store.driver, store.dsn).
Set server.username and server.password to require HTTP basic auth.`,
		Example: `  # Serve on the default address with a local SQLite store
  ctxpack serve

  # Serve with Postgres and basic auth
  CTXPACK_SERVER__PASSWORD=secret ctxpack serve --addr :9000 \
    --store-driver postgres --store-dsn postgres://localhost/ctxpack --username admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			store, err := cc.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg := cc.Cfg.Server
			srv := server.New(server.Config{
				Addr:        cfg.Addr,
				Username:    cfg.Username,
				Password:    cfg.Password,
				Workers:     cfg.Workers,
				TaskTimeout: cfg.TaskTimeout,
				Store:       store,
				Analyzer:    cc.Analyzer(),
				Logger:      cc.Logger,
			})
			cc.Renderer.Success("ctxpack task service listening on " + cfg.Addr)
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8000)")
	cmd.Flags().Int("workers", 0, "Number of analysis workers")
	cmd.Flags().Duration("task-timeout", 0, "Maximum analysis time per task")
	cmd.Flags().String("username", "", "Basic auth username")
	addStoreFlags(cmd.Flags())

	return cmd
}

// addStoreFlags registers the task store flags.
func addStoreFlags(fs *pflag.FlagSet) {
	fs.String("store-driver", "", "Task store driver (sqlite|postgres)")
	fs.String("store-dsn", "", "Task store DSN or SQLite file path")
}

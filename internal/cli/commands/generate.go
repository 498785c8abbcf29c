package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/ctxpack/internal/cli/config"
	"github.com/leapstack-labs/ctxpack/internal/payload"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var (
		opts    payload.GenerateOptions
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic workload payload",
		Long: `Generate a payload with random tables and a weighted query workload.

Queries join two random tables with a GROUP BY, or select through a CTE and
an IN subquery. The same --seed always produces the same payload.`,
		Example: `  # Print a small payload
  ctxpack generate --ddl 2 --queries 2

  # Write a reproducible payload and analyze it
  ctxpack generate --ddl 20 --queries 500 --seed 7 -f workload.json
  ctxpack analyze workload.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.Seed = time.Now().UnixNano()
			}
			p, err := payload.Generate(opts)
			if err != nil {
				return err
			}

			data, err := encodePayload(p, outPath)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o600); err != nil {
				return fmt.Errorf("failed to write payload: %w", err)
			}
			config.GetLogger(cmd.Context()).Info("payload generated", "path", outPath, "ddl", len(p.DDL), "queries", len(p.Queries))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Tables, "ddl", 2, "Number of CREATE TABLE statements")
	cmd.Flags().IntVar(&opts.Queries, "queries", 2, "Number of queries")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (default: time-based)")
	cmd.Flags().StringVar(&opts.URL, "url", payload.DefaultURL, "Connection URL stored in the payload")
	cmd.Flags().StringVarP(&outPath, "file", "f", "", "Write the payload to a file (.json, .yaml or .yml) instead of stdout")

	return cmd
}

// encodePayload encodes p as YAML for .yaml/.yml targets and as indented
// JSON otherwise.
func encodePayload(p *payload.Payload, path string) ([]byte, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Marshal(p)
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

package config

import (
	"fmt"

	"github.com/leapstack-labs/ctxpack/internal/state"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Output {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("invalid output %q: expected auto, text or json", c.Output)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := state.ParseDialect(c.Store.Driver); err != nil {
		return fmt.Errorf("invalid store.driver: %w", err)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be at least 1, got %d", c.Server.Workers)
	}
	if c.Server.TaskTimeout <= 0 {
		return fmt.Errorf("server.task_timeout must be positive, got %s", c.Server.TaskTimeout)
	}
	if c.Server.Password != "" && c.Server.Username == "" {
		return fmt.Errorf("server.password is set but server.username is empty")
	}

	limits := []struct {
		key string
		val int
	}{
		{"analyzer.top_edges", c.Analyzer.TopEdges},
		{"analyzer.top_cliques", c.Analyzer.TopCliques},
		{"analyzer.top_columns", c.Analyzer.TopColumns},
		{"analyzer.top_queries", c.Analyzer.TopQueries},
	}
	for _, l := range limits {
		if l.val < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", l.key, l.val)
		}
	}
	return nil
}

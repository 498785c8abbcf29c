package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by the loader.
// A double underscore separates nested keys: CTXPACK_SERVER__TASK_TIMEOUT
// sets server.task_timeout.
const EnvPrefix = "CTXPACK_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"ctxpack.yaml", "ctxpack.yml"}

// flagKeys maps flag names to config keys. Flags not listed here are
// command options and never reach the config.
var flagKeys = map[string]string{
	"verbose":      "verbose",
	"output":       "output",
	"out-dir":      "out_dir",
	"concurrency":  "concurrency",
	"store-driver": "store.driver",
	"store-dsn":    "store.dsn",
	"addr":         "server.addr",
	"username":     "server.username",
	"password":     "server.password",
	"workers":      "server.workers",
	"task-timeout": "server.task_timeout",
	"top-edges":    "analyzer.top_edges",
	"top-cliques":  "analyzer.top_cliques",
	"top-columns":  "analyzer.top_columns",
	"top-queries":  "analyzer.top_queries",
}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > ctxpack.yaml/yml in the working directory or
// one of its parents.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	def := Default()
	if err := k.Load(confmap.Provider(map[string]any{
		"verbose":              def.Verbose,
		"output":               def.Output,
		"out_dir":              def.OutDir,
		"concurrency":          def.Concurrency,
		"store.driver":         def.Store.Driver,
		"store.dsn":            def.Store.DSN,
		"server.addr":          def.Server.Addr,
		"server.username":      "",
		"server.password":      "",
		"server.workers":       def.Server.Workers,
		"server.task_timeout":  def.Server.TaskTimeout.String(),
		"analyzer.top_edges":   def.Analyzer.TopEdges,
		"analyzer.top_cliques": def.Analyzer.TopCliques,
		"analyzer.top_columns": def.Analyzer.TopColumns,
		"analyzer.top_queries": def.Analyzer.TopQueries,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	cfg.Store.DSN = expandEnvVars(cfg.Store.DSN)
	cfg.Server.Username = expandEnvVars(cfg.Server.Username)
	cfg.Server.Password = expandEnvVars(cfg.Server.Password)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey transforms CTXPACK_SERVER__TASK_TIMEOUT into server.task_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, falling back to
// defaults.
func GetConfig(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	return Default()
}

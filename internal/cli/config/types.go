// Package config provides configuration management for the ctxpack CLI.
//
// Values are layered with koanf: built-in defaults, then ctxpack.yaml, then
// CTXPACK_ environment variables, then explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/ctxpack/internal/workload"
)

// Default configuration values.
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=json
	DefaultConcurrency = 4
	DefaultStoreDriver = "sqlite"
	DefaultStoreDSN    = ".ctxpack/tasks.db"
	DefaultServerAddr  = ":8000"
	DefaultWorkers     = 4
	DefaultTaskTimeout = 5 * time.Minute
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose     bool           `koanf:"verbose"`
	Output      string         `koanf:"output"`
	OutDir      string         `koanf:"out_dir"`
	Concurrency int            `koanf:"concurrency"`
	Store       StoreConfig    `koanf:"store"`
	Server      ServerConfig   `koanf:"server"`
	Analyzer    AnalyzerConfig `koanf:"analyzer"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// StoreConfig selects the task store backend.
type StoreConfig struct {
	Driver string `koanf:"driver"` // sqlite or postgres
	DSN    string `koanf:"dsn"`
}

// ServerConfig holds configuration for the HTTP task service.
type ServerConfig struct {
	Addr        string        `koanf:"addr"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	Workers     int           `koanf:"workers"`
	TaskTimeout time.Duration `koanf:"task_timeout"`
}

// AnalyzerConfig holds the ranking limits of a context pack.
type AnalyzerConfig struct {
	TopEdges   int `koanf:"top_edges"`
	TopCliques int `koanf:"top_cliques"`
	TopColumns int `koanf:"top_columns"`
	TopQueries int `koanf:"top_queries"`
}

// Options converts the limits to analyzer options.
func (a AnalyzerConfig) Options() workload.Options {
	return workload.Options{
		TopEdges:   a.TopEdges,
		TopCliques: a.TopCliques,
		TopColumns: a.TopColumns,
		TopQueries: a.TopQueries,
	}
}

// Default returns a Config populated with default values.
func Default() *Config {
	opts := workload.DefaultOptions()
	return &Config{
		Output:      DefaultOutput,
		Concurrency: DefaultConcurrency,
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			DSN:    DefaultStoreDSN,
		},
		Server: ServerConfig{
			Addr:        DefaultServerAddr,
			Workers:     DefaultWorkers,
			TaskTimeout: DefaultTaskTimeout,
		},
		Analyzer: AnalyzerConfig{
			TopEdges:   opts.TopEdges,
			TopCliques: opts.TopCliques,
			TopColumns: opts.TopColumns,
			TopQueries: opts.TopQueries,
		},
	}
}

// Package server exposes the workload analyzer as an asynchronous HTTP task
// service. Submitted payloads are stored as tasks and analyzed by a bounded
// worker pool.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/ctxpack/internal/state"
	"github.com/leapstack-labs/ctxpack/internal/workload"
	"golang.org/x/sync/errgroup"
)

// TaskStore persists tasks. *state.SQLStore implements it.
type TaskStore interface {
	CreateTask(ctx context.Context, payloadHash string) (*state.Task, error)
	GetTask(ctx context.Context, id string) (*state.Task, error)
	FindCompleted(ctx context.Context, payloadHash string) (*state.Task, error)
	StartTask(ctx context.Context, id string) error
	CompleteTask(ctx context.Context, id string, result []byte) error
	FailTask(ctx context.Context, id string, errMsg string) error
}

// Analyzer builds context packs. *workload.Analyzer implements it.
type Analyzer interface {
	Analyze(ddl []workload.DDLStmt, queries []workload.QueryStat) *workload.ContextPack
}

// Config holds configuration for the task server.
type Config struct {
	Addr        string
	Username    string // basic auth is enabled when set
	Password    string
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	MaxBodySize int64

	Store    TaskStore
	Analyzer Analyzer
	Logger   *slog.Logger
}

// Server is the HTTP task service.
type Server struct {
	cfg      Config
	store    TaskStore
	analyzer Analyzer
	logger   *slog.Logger
	jobs     chan job
	watchers *taskWatchers
}

// New creates a server. Zero values in cfg get defaults.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 16
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Minute
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 64 << 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		cfg:      cfg,
		store:    cfg.Store,
		analyzer: cfg.Analyzer,
		logger:   logger,
		jobs:     make(chan job, cfg.QueueSize),
		watchers: newTaskWatchers(),
	}
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.Username != "" {
			r.Use(middleware.BasicAuth("ctxpack", map[string]string{s.cfg.Username: s.cfg.Password}))
		}
		r.Post("/new", s.handleNew)
		r.Get("/status", s.handleStatus)
		r.Get("/getresult", s.handleResult)
	})
	return r
}

// Serve starts the HTTP server and workers and blocks until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting task server", "addr", s.cfg.Addr, "workers", s.cfg.Workers)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.RunWorkers(egctx)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down task server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

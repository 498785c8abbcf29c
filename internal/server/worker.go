package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/ctxpack/internal/payload"
	"github.com/leapstack-labs/ctxpack/internal/workload"
	"golang.org/x/sync/errgroup"
)

var errQueueFull = errors.New("task queue is full")

type job struct {
	taskID  string
	payload *payload.Payload
}

type outcome struct {
	result []byte
	err    error
}

// enqueue hands a job to the worker pool without blocking.
func (s *Server) enqueue(j job) error {
	select {
	case s.jobs <- j:
		return nil
	default:
		return errQueueFull
	}
}

// RunWorkers processes queued tasks until ctx is cancelled.
func (s *Server) RunWorkers(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case <-egctx.Done():
					return nil
				case j := <-s.jobs:
					s.process(egctx, j)
				}
			}
		})
	}
	return eg.Wait()
}

// process runs one task with the configured timeout. Timeouts and panics
// mark the task failed.
func (s *Server) process(ctx context.Context, j job) {
	logger := s.logger.With(slog.String("task_id", j.taskID))
	defer s.watchers.notify(j.taskID)

	// Store writes must succeed even after the task deadline passes.
	storeCtx := context.WithoutCancel(ctx)

	if err := s.store.StartTask(storeCtx, j.taskID); err != nil {
		logger.Error("failed to start task", "error", err)
		return
	}
	s.watchers.notify(j.taskID)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("analysis panicked: %v", r)}
			}
		}()
		pack := s.analyzer.Analyze(
			workload.NormalizeDDL(j.payload.DDL),
			workload.NormalizeQueries(j.payload.Queries),
		)
		data, err := json.Marshal(pack)
		done <- outcome{result: data, err: err}
	}()

	var res outcome
	select {
	case <-ctx.Done():
		res.err = fmt.Errorf("analysis did not finish: %w", ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		logger.Warn("task failed", "error", res.err)
		if err := s.store.FailTask(storeCtx, j.taskID, res.err.Error()); err != nil {
			logger.Error("failed to record task failure", "error", err)
		}
		return
	}

	if err := s.store.CompleteTask(storeCtx, j.taskID, res.result); err != nil {
		logger.Error("failed to record task result", "error", err)
		return
	}
	logger.Info("task complete", "bytes", len(res.result))
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/ctxpack/internal/payload"
	"github.com/leapstack-labs/ctxpack/internal/state"
)

// maxStatusWait bounds the wait parameter of /status.
const maxStatusWait = 60 * time.Second

type newTaskResponse struct {
	TaskID      string `json:"taskid"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

type statusResponse struct {
	Status state.TaskStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}
	p, err := payload.DecodeStrict(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	hash := state.PayloadHash(body)

	var duplicateOf string
	if prev, err := s.store.FindCompleted(ctx, hash); err != nil {
		s.logger.Warn("duplicate lookup failed", "error", err)
	} else if prev != nil {
		duplicateOf = prev.ID
	}

	task, err := s.store.CreateTask(ctx, hash)
	if err != nil {
		s.logger.Error("failed to create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	if err := s.enqueue(job{taskID: task.ID, payload: p}); err != nil {
		_ = s.store.FailTask(ctx, task.ID, err.Error())
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.logger.Info("task queued",
		"task_id", task.ID,
		"ddl", len(p.DDL),
		"queries", len(p.Queries),
		"duplicate_of", duplicateOf)
	writeJSON(w, http.StatusOK, newTaskResponse{TaskID: task.ID, DuplicateOf: duplicateOf})
}

// handleStatus reports a task's status. With wait=<duration> it blocks until
// the task finishes or the wait elapses.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid wait duration")
			return
		}
		wait = min(d, maxStatusWait)
	}

	ch := s.watchers.watch(id)
	defer s.watchers.unwatch(id, ch)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		task, ok := s.lookup(w, r, id)
		if !ok {
			return
		}
		if task.Status.Done() || wait == 0 {
			writeJSON(w, http.StatusOK, statusResponse{Status: task.Status, Error: task.Error})
			return
		}
		select {
		case <-ch:
		case <-timer.C:
			wait = 0
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	task, ok := s.lookup(w, r, id)
	if !ok {
		return
	}
	if task.Status != state.TaskComplete {
		writeError(w, http.StatusBadRequest, "task not complete")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(task.Result)
}

// taskID validates the task_id query parameter.
func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("task_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task_id")
		return "", false
	}
	return id.String(), true
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, id string) (*state.Task, bool) {
	task, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, state.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to get task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, false
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

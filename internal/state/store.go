// Package state persists analysis tasks submitted to the task service.
// SQLite and PostgreSQL are supported through database/sql.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskPending  TaskStatus = "PENDING"
	TaskRunning  TaskStatus = "RUNNING"
	TaskComplete TaskStatus = "COMPLETE"
	TaskFailed   TaskStatus = "FAILED"
)

// Done reports whether the task reached a final status.
func (s TaskStatus) Done() bool {
	return s == TaskComplete || s == TaskFailed
}

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotOpen is returned when the store has no database connection.
	ErrNotOpen = errors.New("database not opened")
)

// Task is one analysis request and its outcome.
type Task struct {
	ID          string          `json:"id"`
	Status      TaskStatus      `json:"status"`
	PayloadHash string          `json:"payload_hash"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PayloadHash returns a stable digest of a raw payload.
func PayloadHash(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

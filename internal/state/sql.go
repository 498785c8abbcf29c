package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported store driver %q (expected sqlite or postgres)", name)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) gooseDialect() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// SQLStore stores tasks in a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the database, verifies the connection and applies
// migrations. For SQLite, dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One connection keeps ":memory:" databases shared and serializes writes.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := NewWithDB(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection. Migrations are not applied.
// If logger is nil, a discard logger is used.
func NewWithDB(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const (
	insertTaskSQL = `INSERT INTO tasks (id, status, payload_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	selectTaskSQL = `SELECT id, status, payload_hash, result, error, created_at, updated_at FROM tasks`
	updateTaskSQL = `UPDATE tasks SET status = ?, result = ?, error = ?, updated_at = ? WHERE id = ?`
)

// CreateTask inserts a new pending task.
func (s *SQLStore) CreateTask(ctx context.Context, payloadHash string) (*Task, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	now := s.now()
	task := &Task{
		ID:          uuid.NewString(),
		Status:      TaskPending,
		PayloadHash: payloadHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.logger.Debug("creating task", slog.String("id", task.ID), slog.String("payload_hash", payloadHash))

	_, err := s.db.ExecContext(ctx, s.rebind(insertTaskSQL),
		task.ID, string(task.Status), task.PayloadHash, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by id.
func (s *SQLStore) GetTask(ctx context.Context, id string) (*Task, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx, s.rebind(selectTaskSQL+` WHERE id = ?`), id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// FindCompleted returns the most recent completed task for a payload hash,
// or nil if there is none.
func (s *SQLStore) FindCompleted(ctx context.Context, payloadHash string) (*Task, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx,
		s.rebind(selectTaskSQL+` WHERE payload_hash = ? AND status = ? ORDER BY created_at DESC LIMIT 1`),
		payloadHash, string(TaskComplete))
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasks returns the most recent tasks, newest first.
func (s *SQLStore) ListTasks(ctx context.Context, limit int) ([]*Task, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(selectTaskSQL+` ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// StartTask marks a task as running.
func (s *SQLStore) StartTask(ctx context.Context, id string) error {
	return s.update(ctx, id, TaskRunning, nil, "")
}

// CompleteTask stores the result of a task and marks it complete.
func (s *SQLStore) CompleteTask(ctx context.Context, id string, result []byte) error {
	return s.update(ctx, id, TaskComplete, result, "")
}

// FailTask records an error and marks the task failed.
func (s *SQLStore) FailTask(ctx context.Context, id string, errMsg string) error {
	return s.update(ctx, id, TaskFailed, nil, errMsg)
}

func (s *SQLStore) update(ctx context.Context, id string, status TaskStatus, result []byte, errMsg string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	var resultArg, errorArg any
	if result != nil {
		resultArg = string(result)
	}
	if errMsg != "" {
		errorArg = errMsg
	}

	s.logger.Debug("updating task", slog.String("id", id), slog.String("status", string(status)))

	res, err := s.db.ExecContext(ctx, s.rebind(updateTaskSQL), string(status), resultArg, errorArg, s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*Task, error) {
	task := &Task{}
	var result, errMsg sql.NullString
	if err := row.Scan(&task.ID, &task.Status, &task.PayloadHash, &result, &errMsg,
		&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	if result.Valid {
		task.Result = []byte(result.String)
	}
	if errMsg.Valid {
		task.Error = errMsg.String
	}
	return task, nil
}

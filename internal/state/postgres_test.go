package state

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewWithDB(db, DialectPostgres, nil)
	store.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestSQLStore_Rebind(t *testing.T) {
	store := NewWithDB(nil, DialectPostgres, nil)
	assert.Equal(t,
		`UPDATE tasks SET status = $1, result = $2, error = $3, updated_at = $4 WHERE id = $5`,
		store.rebind(updateTaskSQL))

	sqlite := NewWithDB(nil, DialectSQLite, nil)
	assert.Equal(t, updateTaskSQL, sqlite.rebind(updateTaskSQL))
}

func TestSQLStore_Postgres(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "status", "payload_hash", "result", "error", "created_at", "updated_at"}

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		run     func(store *SQLStore) error
		wantErr error
	}{
		{
			name: "create",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO tasks (id, status, payload_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`).
					WithArgs(sqlmock.AnyArg(), "PENDING", "h1", now, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			run: func(store *SQLStore) error {
				_, err := store.CreateTask(ctx, "h1")
				return err
			},
		},
		{
			name: "get",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTaskSQL+` WHERE id = $1`).
					WithArgs("t1").
					WillReturnRows(sqlmock.NewRows(columns).
						AddRow("t1", "COMPLETE", "h1", `{"a":1}`, nil, now, now))
			},
			run: func(store *SQLStore) error {
				task, err := store.GetTask(ctx, "t1")
				if err != nil {
					return err
				}
				assert.Equal(t, TaskComplete, task.Status)
				assert.JSONEq(t, `{"a":1}`, string(task.Result))
				assert.Empty(t, task.Error)
				return nil
			},
		},
		{
			name: "get missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTaskSQL + ` WHERE id = $1`).
					WithArgs("nope").
					WillReturnError(sql.ErrNoRows)
			},
			run: func(store *SQLStore) error {
				_, err := store.GetTask(ctx, "nope")
				return err
			},
			wantErr: ErrTaskNotFound,
		},
		{
			name: "fail",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE tasks SET status = $1, result = $2, error = $3, updated_at = $4 WHERE id = $5`).
					WithArgs("FAILED", nil, "boom", now, "t1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			run: func(store *SQLStore) error {
				return store.FailTask(ctx, "t1", "boom")
			},
		},
		{
			name: "complete missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE tasks SET status = $1, result = $2, error = $3, updated_at = $4 WHERE id = $5`).
					WithArgs("COMPLETE", "{}", nil, now, "gone").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			run: func(store *SQLStore) error {
				return store.CompleteTask(ctx, "gone", []byte("{}"))
			},
			wantErr: ErrTaskNotFound,
		},
		{
			name: "list",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectTaskSQL+` ORDER BY created_at DESC LIMIT $1`).
					WithArgs(5).
					WillReturnRows(sqlmock.NewRows(columns).
						AddRow("t2", "RUNNING", "h2", nil, nil, now, now).
						AddRow("t1", "FAILED", "h1", nil, "boom", now, now))
			},
			run: func(store *SQLStore) error {
				tasks, err := store.ListTasks(ctx, 5)
				if err != nil {
					return err
				}
				require.Len(t, tasks, 2)
				assert.Equal(t, "t2", tasks[0].ID)
				assert.Equal(t, "boom", tasks[1].Error)
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockStore(t)
			tt.setup(mock)

			err := tt.run(store)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

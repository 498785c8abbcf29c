package state

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate runs all pending database migrations.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return ErrNotOpen
	}
	return migrate(ctx, s.db, s.dialect)
}

// MigrationVersion returns the current migration version.
func (s *SQLStore) MigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

func migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect.gooseDialect()); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

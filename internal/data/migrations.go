package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/danxi/authgate/internal/migrate"
)

// RunMigrations creates the kv_entries schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrate.Run(ctx, db, migrate.Options{Logger: logger})
}

// PendingMigrations lists migrations not yet applied to db.
func PendingMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Pending(ctx, db)
}

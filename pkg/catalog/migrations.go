package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/bizauthz/pkg/errs"
	"github.com/platinummonkey/bizauthz/pkg/observability"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all catalog migrations in version order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create permissions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS permissions (
					id VARCHAR(64) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					display_name VARCHAR(255) NOT NULL,
					description TEXT,
					category VARCHAR(100) NOT NULL,
					is_system_permission BOOLEAN NOT NULL DEFAULT FALSE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_permissions_name ON permissions(name);
			`,
		},
		{
			Version:     2,
			Description: "Index permissions by category and status",
			SQL: `
				CREATE INDEX IF NOT EXISTS idx_permissions_category_active ON permissions(category, is_active);
				CREATE INDEX IF NOT EXISTS idx_permissions_is_system ON permissions(is_system_permission);
			`,
		},
	}
}

// RunMigrations executes all pending migrations, each in its own transaction
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	if logger == nil {
		logger = observability.NopLogger()
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return errs.Storage("create migrations table", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		log := logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})
		log.Info("running migration")

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errs.Storage("start migration transaction", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return errs.Storage(fmt.Sprintf("execute migration %d", migration.Version), err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO catalog_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return errs.Storage(fmt.Sprintf("record migration %d", migration.Version), err)
		}

		if err := tx.Commit(); err != nil {
			return errs.Storage(fmt.Sprintf("commit migration %d", migration.Version), err)
		}

		log.Info("migration completed")
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM catalog_migrations ORDER BY version")
	if err != nil {
		return nil, errs.Storage("query migrations", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, errs.Storage("scan migration version", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("read migrations", err)
	}
	return applied, nil
}

package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY,
  owner_id      TEXT        NOT NULL,
  original_name TEXT        NOT NULL,
  stored_name   TEXT        NOT NULL,
  storage_path  TEXT        NOT NULL UNIQUE,
  size          BIGINT      NOT NULL CHECK (size >= 0),
  format        TEXT        NOT NULL,
  page_count    INTEGER     CHECK (page_count > 0),
  artifact_path TEXT,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents (owner_id);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_orders",
		SQL: `CREATE TABLE IF NOT EXISTS orders (
  id          UUID        PRIMARY KEY,
  owner_id    TEXT        NOT NULL,
  status      TEXT        NOT NULL CHECK (status IN ('created', 'paid', 'closed')),
  total_price BIGINT      NOT NULL CHECK (total_price >= 0),
  duplex      BOOLEAN     NOT NULL DEFAULT false,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_orders_owner_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_orders_owner_id ON orders (owner_id, created_at DESC);`,
	},
	{
		Name: "create_table_order_files",
		SQL: `CREATE TABLE IF NOT EXISTS order_files (
  id          UUID        PRIMARY KEY,
  order_id    UUID        NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  copies      INTEGER     NOT NULL CHECK (copies > 0),
  position    INTEGER     NOT NULL,
  printed_at  TIMESTAMPTZ,
  UNIQUE (order_id, document_id)
);`,
	},
	{
		Name: "create_index_order_files_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_order_files_document_id ON order_files (document_id);`,
	},
	{
		Name: "create_table_login_codes",
		SQL: `CREATE TABLE IF NOT EXISTS login_codes (
  id         UUID        PRIMARY KEY,
  phone      TEXT        NOT NULL,
  code       TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  expires_at TIMESTAMPTZ NOT NULL,
  is_used    BOOLEAN     NOT NULL DEFAULT false
);`,
	},
	{
		Name: "create_index_login_codes_phone",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_login_codes_phone ON login_codes (phone);`,
	},
}

// EnsureMigrated checks if the 'login_codes' table exists and runs migrations if it doesn't.
// The sentinel is the last table created, so a partially applied schema is re-run.
func EnsureMigrated(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	l := log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})

	l.WithFields(logrus.Fields{"event": "db_migration_check", "status": "starting"}).Info("checking schema")

	var exists bool
	query := "SELECT to_regclass('public.login_codes') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		l.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"status":      "error",
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		l.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"status":      "success",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	l.WithFields(logrus.Fields{"event": "db_migration_start", "status": "in_progress"}).Info("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			l.WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).WithError(err).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		l.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Debug("migration step applied")
	}

	l.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema applied")

	return nil
}

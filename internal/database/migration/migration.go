package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/criszst/neopdf-sub000/internal/config"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Steps returns the ordered schema steps for the given dedup scope.
//
// The unique index on the content fingerprint is what makes concurrent
// uploads of identical bytes safe: the second insert fails with a unique
// violation instead of producing a second canonical row. Per-owner scope
// widens the index to (owner_id, content_fingerprint).
func Steps(dedupScope string) []migrationStep {
	fingerprintIndex := migrationStep{
		Name: "create_unique_index_documents_fingerprint",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_fingerprint ON documents (content_fingerprint);`,
	}
	if dedupScope == config.DedupScopeOwner {
		fingerprintIndex = migrationStep{
			Name: "create_unique_index_documents_owner_fingerprint",
			SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_owner_fingerprint ON documents (owner_id, content_fingerprint);`,
		}
	}

	return []migrationStep{
		{
			Name: "create_extension_uuid_ossp",
			SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		},
		{
			Name: "create_table_documents",
			SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name                TEXT        NOT NULL,
  content_fingerprint TEXT        NOT NULL,
  storage_key         TEXT        NOT NULL,
  size_bytes          BIGINT      NOT NULL CHECK (size_bytes >= 0),
  content_type        TEXT        NOT NULL DEFAULT 'application/pdf',
  owner_id            TEXT        NOT NULL,
  is_starred          BOOLEAN     NOT NULL DEFAULT FALSE,
  view_count          BIGINT      NOT NULL DEFAULT 0 CHECK (view_count >= 0),
  last_viewed_at      TIMESTAMPTZ,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		},
		fingerprintIndex,
		{
			Name: "create_index_documents_owner",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_id, created_at DESC);`,
		},
		{
			Name: "create_index_documents_starred",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_starred ON documents (owner_id) WHERE is_starred;`,
		},
		{
			Name: "create_table_activities",
			SQL: `CREATE TABLE IF NOT EXISTS activities (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  type        TEXT        NOT NULL CHECK (type IN ('UPLOAD','VIEW','DOWNLOAD','DELETE','STAR','UNSTAR','SHARE')),
  document_id UUID        REFERENCES documents (id) ON DELETE SET NULL,
  owner_id    TEXT        NOT NULL,
  details     TEXT,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		},
		{
			Name: "create_index_activities_owner_created",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_activities_owner_created ON activities (owner_id, created_at DESC);`,
		},
		{
			Name: "create_index_activities_type_created",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_activities_type_created ON activities (type, created_at);`,
		},
	}
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost, dedupScope string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range Steps(dedupScope) {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}

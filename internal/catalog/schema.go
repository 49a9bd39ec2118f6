// Implements: §4.2 "Schema evolution" and §9's REDESIGN FLAG on
// migration tracking (explicit schemaVersion instead of swallowing
// duplicate-column errors).
// Grounded on petar-djukic-crumbs/internal/sqlite/schema.go (DDL-as-code
// lists applied at open time).
package catalog

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// migration is one ordered schema change applied at most once,
// tracked by version number in trace_values.schemaVersion (§9: "record
// the highest applied version ... rather than swallowing errors").
type migration struct {
	version   int
	statement string
}

// migrations lists schema changes beyond the baseline CREATE TABLE
// statements in schema.sql, in the order they must be applied. New
// migrations are appended here; never edited or reordered once shipped.
var migrations = []migration{
	{version: 1, statement: `ALTER TABLE traces ADD COLUMN remoteShareExpireTime TEXT NOT NULL DEFAULT ''`},
}

// openAndMigrate opens (creating if necessary) the SQLite file at path,
// applies the baseline schema and any outstanding migrations, and ensures
// the trace_values singleton row exists (§4.2).
func openAndMigrate(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply baseline schema: %w", err)
	}

	if err := ensureSingleton(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ensureSingleton inserts the trace_values row {id:0, maxTraceID:0} if
// absent (§3 TraceValues).
func ensureSingleton(db *sql.DB) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO trace_values (id, maxTraceID, schemaVersion) VALUES (0, 0, 0)`)
	if err != nil {
		return fmt.Errorf("insert trace_values singleton: %w", err)
	}
	return nil
}

// applyMigrations runs every migration whose version exceeds the stored
// schemaVersion, then advances schemaVersion. Statements need not be
// idempotent on their own (the ALTER TABLE ... ADD COLUMN above would fail
// if run twice); the explicit version check runs each one at most once, so
// "already applied" never needs to be detected from a driver error string
// (§9 REDESIGN FLAG).
func applyMigrations(db *sql.DB) error {
	var current int
	if err := db.QueryRow(`SELECT schemaVersion FROM trace_values WHERE id = 0`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.statement); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := db.Exec(`UPDATE trace_values SET schemaVersion = ? WHERE id = 0`, m.version); err != nil {
			return fmt.Errorf("record schema version %d: %w", m.version, err)
		}
		current = m.version
	}
	return nil
}

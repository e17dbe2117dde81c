package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of schema migrations. SQL is embedded so
// the binary and tests need no external assets.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_core_tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS walks (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				dog_ids TEXT NOT NULL DEFAULT '[]',
				started_at_ms INTEGER NOT NULL,
				ended_at_ms INTEGER,
				distance_m REAL NOT NULL DEFAULT 0,
				duration_s REAL NOT NULL DEFAULT 0,
				sniff_time_s REAL NOT NULL DEFAULT 0,
				synced INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS track_points (
				id TEXT PRIMARY KEY,
				walk_id TEXT NOT NULL REFERENCES walks(id) ON DELETE CASCADE,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				ts_ms INTEGER NOT NULL,
				accuracy_m REAL NOT NULL,
				speed_mps REAL,
				seq INTEGER NOT NULL,
				synced INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_track_points_walk_ts
				ON track_points(walk_id, ts_ms, seq);

			CREATE TABLE IF NOT EXISTS stop_events (
				id TEXT PRIMARY KEY,
				walk_id TEXT NOT NULL REFERENCES walks(id) ON DELETE CASCADE,
				ts_start_ms INTEGER NOT NULL,
				ts_end_ms INTEGER NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				radius_m REAL NOT NULL,
				label TEXT NOT NULL,
				confidence REAL NOT NULL,
				score REAL NOT NULL,
				provenance TEXT NOT NULL DEFAULT 'auto',
				synced INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_stop_events_walk
				ON stop_events(walk_id);
		`,
	},
	{
		Version: 2,
		Name:    "create_sync_queue",
		SQL: `
			CREATE TABLE IF NOT EXISTS sync_queue (
				entity_type TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				op TEXT NOT NULL,
				enqueued_at_ms INTEGER NOT NULL,
				PRIMARY KEY (entity_type, entity_id)
			);
		`,
	},
}

// initMigrationsTable creates the migrations tracking table.
func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// appliedMigrations returns the set of applied migration versions.
func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// applyMigration applies a single migration.
func applyMigration(db *sql.DB, migration Migration) error {
	return Transaction(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.SQL); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
}

// RunMigrations runs all pending migrations.
func RunMigrations(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if err := applyMigration(db, migration); err != nil {
			return err
		}
		log.Printf("Applied migration %d: %s", migration.Version, migration.Name)
	}

	return nil
}

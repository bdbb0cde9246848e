package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// SchemaVersion reports the version recorded in the database.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	return version, err
}

func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id           TEXT PRIMARY KEY,
			taken_at         TEXT NOT NULL,
			timezone         TEXT NOT NULL,
			total_turns      INTEGER NOT NULL,
			unique_sessions  INTEGER NOT NULL,
			avg_latency_ms   REAL NOT NULL,
			p50_ms           INTEGER NOT NULL,
			p90_ms           INTEGER NOT NULL,
			p99_ms           INTEGER NOT NULL,
			first_date       TEXT,
			last_date        TEXT,
			current_streak   INTEGER NOT NULL,
			longest_streak   INTEGER NOT NULL,
			files_processed  INTEGER NOT NULL,
			lines_skipped    INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS snapshot_days (
			run_id          TEXT NOT NULL REFERENCES snapshots(run_id) ON DELETE CASCADE,
			date            TEXT NOT NULL,
			turns           INTEGER NOT NULL,
			avg_latency_ms  REAL NOT NULL,
			p50_ms          INTEGER NOT NULL,
			p90_ms          INTEGER NOT NULL,
			p99_ms          INTEGER NOT NULL,
			PRIMARY KEY (run_id, date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

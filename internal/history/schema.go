package history

import "database/sql"

type migration struct {
	version int
	up      []string
}

var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY
			)`,

			`CREATE TABLE runs (
				id TEXT PRIMARY KEY,
				mode TEXT NOT NULL,
				dry_run INTEGER NOT NULL DEFAULT 0,
				args TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'running',
				renamed INTEGER NOT NULL DEFAULT 0,
				skipped INTEGER NOT NULL DEFAULT 0,
				started_at INTEGER NOT NULL,
				finished_at INTEGER
			)`,

			`CREATE TABLE renames (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL REFERENCES runs(id),
				source_path TEXT NOT NULL,
				target_path TEXT NOT NULL,
				show_name TEXT NOT NULL DEFAULT '',
				season INTEGER,
				episodes TEXT NOT NULL DEFAULT '',
				provider TEXT NOT NULL DEFAULT '',
				renamed_at INTEGER NOT NULL,
				undone_at INTEGER
			)`,

			`CREATE INDEX idx_renames_run ON renames(run_id)`,
			`CREATE INDEX idx_renames_target ON renames(target_path)`,
			`CREATE INDEX idx_runs_started ON runs(started_at)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "neurons: memory graph nodes",
		SQL: `
CREATE TABLE neurons (
    id             TEXT PRIMARY KEY,
    type           TEXT NOT NULL CHECK (type IN ('file', 'tool', 'error', 'semantic')),
    path           TEXT NOT NULL,

    -- Signals
    activation     REAL NOT NULL DEFAULT 1.0,
    myelination    REAL NOT NULL DEFAULT 0.0,

    -- Access tracking
    access_count   INTEGER NOT NULL DEFAULT 0,
    last_accessed  TEXT,
    created_at     TEXT NOT NULL,

    -- JSON array of recent query/context strings
    contexts       TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX idx_neurons_type        ON neurons(type);
CREATE INDEX idx_neurons_myelination ON neurons(myelination DESC);
`,
	},
	{
		Version:     2,
		Description: "synapses: weighted directed edges between neurons",
		SQL: `
CREATE TABLE synapses (
    source_id       TEXT NOT NULL,
    target_id       TEXT NOT NULL,
    weight          REAL NOT NULL DEFAULT 0.0,
    co_access_count INTEGER NOT NULL DEFAULT 0,
    last_fired      TEXT,
    created_at      TEXT NOT NULL,

    PRIMARY KEY (source_id, target_id),
    FOREIGN KEY (source_id) REFERENCES neurons(id) ON DELETE CASCADE,
    FOREIGN KEY (target_id) REFERENCES neurons(id) ON DELETE CASCADE
);

CREATE INDEX idx_synapses_source_weight ON synapses(source_id, weight DESC);
CREATE INDEX idx_synapses_target        ON synapses(target_id);
`,
	},
	{
		Version:     3,
		Description: "access_log: append-only record of every neuron access",
		SQL: `
CREATE TABLE access_log (
    id           INTEGER PRIMARY KEY,
    neuron_id    TEXT NOT NULL,
    session_id   TEXT,
    query        TEXT,
    timestamp    TEXT NOT NULL,
    token_cost   INTEGER NOT NULL DEFAULT 0,
    access_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_access_log_time   ON access_log(timestamp DESC);
CREATE INDEX idx_access_log_neuron ON access_log(neuron_id);
`,
	},
	{
		Version:     4,
		Description: "brain_sessions: per-open session tracking",
		SQL: `
CREATE TABLE brain_sessions (
    id             TEXT PRIMARY KEY,
    started_at     TEXT NOT NULL,
    ended_at       TEXT,
    total_accesses INTEGER NOT NULL DEFAULT 0,
    tokens_used    INTEGER NOT NULL DEFAULT 0,
    tokens_saved   INTEGER NOT NULL DEFAULT 0,
    hit_rate       REAL NOT NULL DEFAULT 0.0
);

CREATE INDEX idx_brain_sessions_started ON brain_sessions(started_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var version int
	err := db.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

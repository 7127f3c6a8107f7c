package store

import (
	"fmt"
	"time"
)

// Access is one append-only record of a neuron access.
type Access struct {
	ID          int64
	NeuronID    string
	SessionID   string
	Query       string
	Timestamp   time.Time
	TokenCost   int
	AccessOrder int64
}

const appendAccessSQL = `
	INSERT INTO access_log (neuron_id, session_id, query, timestamp, token_cost, access_order)
	VALUES (?, ?, ?, ?, ?, ?)`

// AppendAccess logs one access. access_order is a per-process monotonic
// counter used for intra-timestamp ordering.
func (db *DB) AppendAccess(neuronID, sessionID, query string, tokenCost int, accessOrder int64, now time.Time) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.stmt.appendAccess.Exec(neuronID, sessionID, query, FormatTime(now), tokenCost, accessOrder)
	if err != nil {
		return fmt.Errorf("append access: %w", err)
	}
	return nil
}

// RecentAccessNeuronIDs returns neuron ids accessed since the given time,
// in ascending (timestamp, access_order) order. May contain duplicates —
// window seeding deduplicates keeping the most recent occurrence.
func (db *DB) RecentAccessNeuronIDs(since time.Time) ([]string, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := db.db.Query(`
		SELECT neuron_id FROM access_log
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, access_order ASC
	`, FormatTime(since))
	if err != nil {
		return nil, fmt.Errorf("recent accesses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan access: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountAccesses returns the total number of access-log rows.
func (db *DB) CountAccesses() (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM access_log`).Scan(&count)
	return count, err
}

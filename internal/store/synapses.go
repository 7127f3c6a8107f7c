package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Synapse is a directed weighted edge between two neurons.
type Synapse struct {
	SourceID      string     `json:"source_id"`
	TargetID      string     `json:"target_id"`
	Weight        float64    `json:"weight"`
	CoAccessCount int        `json:"co_access_count"`
	LastFired     *time.Time `json:"last_fired"`
	CreatedAt     time.Time  `json:"created_at"`
}

// strengthenSQL applies the saturating update w ← min(w + Δ·(1−w), 1).
// A fresh edge starts from w = 0, so the insert value is just Δ.
const strengthenSQL = `
	INSERT INTO synapses (source_id, target_id, weight, co_access_count, last_fired, created_at)
	VALUES (?, ?, MIN(?, 1.0), 1, ?, ?)
	ON CONFLICT(source_id, target_id) DO UPDATE SET
		weight          = MIN(synapses.weight + ? * (1.0 - synapses.weight), 1.0),
		co_access_count = synapses.co_access_count + 1,
		last_fired      = excluded.last_fired`

// StrengthenSynapse upserts the edge (source → target) with learning delta.
// Both endpoints must exist — foreign keys reject dangling edges.
func (db *DB) StrengthenSynapse(sourceID, targetID string, delta float64, now time.Time) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	ts := FormatTime(now)
	_, err := db.stmt.strengthen.Exec(sourceID, targetID, delta, ts, ts, delta)
	if err != nil {
		return fmt.Errorf("strengthen synapse %s -> %s: %w", sourceID, targetID, err)
	}
	return nil
}

// OutgoingSynapses returns the strongest outgoing edges of a neuron,
// ordered by weight DESC.
func (db *DB) OutgoingSynapses(sourceID string, limit int) ([]Synapse, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := db.db.Query(`
		SELECT source_id, target_id, weight, co_access_count, last_fired, created_at
		FROM synapses WHERE source_id = ?
		ORDER BY weight DESC LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("outgoing synapses: %w", err)
	}
	defer rows.Close()

	var synapses []Synapse
	for rows.Next() {
		var s Synapse
		var lastFired sql.NullString
		var createdAt string
		if err := rows.Scan(&s.SourceID, &s.TargetID, &s.Weight, &s.CoAccessCount, &lastFired, &createdAt); err != nil {
			return nil, fmt.Errorf("scan synapse: %w", err)
		}
		s.CreatedAt = ParseTime(createdAt)
		if lastFired.Valid {
			t := ParseTime(lastFired.String)
			s.LastFired = &t
		}
		synapses = append(synapses, s)
	}
	return synapses, rows.Err()
}

// GetSynapse returns one edge, or nil if absent.
func (db *DB) GetSynapse(sourceID, targetID string) (*Synapse, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	var s Synapse
	var lastFired sql.NullString
	var createdAt string
	err := db.db.QueryRow(`
		SELECT source_id, target_id, weight, co_access_count, last_fired, created_at
		FROM synapses WHERE source_id = ? AND target_id = ?
	`, sourceID, targetID).Scan(&s.SourceID, &s.TargetID, &s.Weight, &s.CoAccessCount, &lastFired, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get synapse: %w", err)
	}
	s.CreatedAt = ParseTime(createdAt)
	if lastFired.Valid {
		t := ParseTime(lastFired.String)
		s.LastFired = &t
	}
	return &s, nil
}

// DecaySynapses multiplies every edge weight by the retention factor.
func (db *DB) DecaySynapses(retain float64) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.db.Exec(`UPDATE synapses SET weight = weight * ?`, retain)
	if err != nil {
		return fmt.Errorf("decay synapses: %w", err)
	}
	return nil
}

// PruneSynapses deletes edges whose weight has decayed below the threshold.
func (db *DB) PruneSynapses(threshold float64) (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	result, err := db.db.Exec(`DELETE FROM synapses WHERE weight < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("prune synapses: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// CountSynapses returns the number of edges in the graph.
func (db *DB) CountSynapses() (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM synapses`).Scan(&count)
	return count, err
}

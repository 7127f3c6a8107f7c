package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session tracks one engine open: accumulated accesses and token totals.
type Session struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	TotalAccesses int        `json:"total_accesses"`
	TokensUsed    int        `json:"tokens_used"`
	TokensSaved   int        `json:"tokens_saved"`
	HitRate       float64    `json:"hit_rate"`
}

// CreateSession inserts a new session row.
func (db *DB) CreateSession(id string, now time.Time) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.db.Exec(`
		INSERT INTO brain_sessions (id, started_at) VALUES (?, ?)
	`, id, FormatTime(now))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns a session by id, or nil if not found.
func (db *DB) GetSession(id string) (*Session, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	row := db.db.QueryRow(`
		SELECT id, started_at, ended_at, total_accesses, tokens_used, tokens_saved, hit_rate
		FROM brain_sessions WHERE id = ?
	`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// BumpSession accumulates one access and its token cost onto the session.
func (db *DB) BumpSession(id string, tokenCost int) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.db.Exec(`
		UPDATE brain_sessions
		SET total_accesses = total_accesses + 1, tokens_used = tokens_used + ?
		WHERE id = ?
	`, tokenCost, id)
	if err != nil {
		return fmt.Errorf("bump session: %w", err)
	}
	return nil
}

// EndSession stamps ended_at if the session is still open.
func (db *DB) EndSession(id string, now time.Time) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.db.Exec(`
		UPDATE brain_sessions SET ended_at = COALESCE(ended_at, ?) WHERE id = ?
	`, FormatTime(now), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// RecentSessions returns the most recent sessions, ordered by started_at DESC.
func (db *DB) RecentSessions(limit int) ([]Session, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := db.db.Query(`
		SELECT id, started_at, ended_at, total_accesses, tokens_used, tokens_saved, hit_rate
		FROM brain_sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func scanSession(row rowScanner) (*Session, error) {
	var s Session
	var startedAt string
	var endedAt sql.NullString
	if err := row.Scan(&s.ID, &startedAt, &endedAt, &s.TotalAccesses,
		&s.TokensUsed, &s.TokensSaved, &s.HitRate); err != nil {
		return nil, err
	}
	s.StartedAt = ParseTime(startedAt)
	if endedAt.Valid {
		t := ParseTime(endedAt.String)
		s.EndedAt = &t
	}
	return &s, nil
}

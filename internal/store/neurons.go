package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NeuronType tags the kind of entity a neuron remembers.
type NeuronType string

const (
	NeuronFile     NeuronType = "file"
	NeuronTool     NeuronType = "tool"
	NeuronError    NeuronType = "error"
	NeuronSemantic NeuronType = "semantic"
)

// Valid reports whether t is one of the four known neuron types.
func (t NeuronType) Valid() bool {
	switch t {
	case NeuronFile, NeuronTool, NeuronError, NeuronSemantic:
		return true
	}
	return false
}

// NeuronID builds the stable composite identifier "<type>:<path>".
func NeuronID(t NeuronType, path string) string {
	return string(t) + ":" + path
}

// Neuron represents one remembered entity in the memory graph.
type Neuron struct {
	ID           string     `json:"id"`
	Type         NeuronType `json:"type"`
	Path         string     `json:"path"`
	Activation   float64    `json:"activation"`
	Myelination  float64    `json:"myelination"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed"`
	CreatedAt    time.Time  `json:"created_at"`
	Contexts     []string   `json:"contexts"`
}

// ContextString returns the lowercased concatenation of all stored contexts,
// used for keyword matching during confidence scoring.
func (n *Neuron) ContextString() string {
	return strings.ToLower(strings.Join(n.Contexts, " "))
}

const selectNeuron = `
	SELECT id, type, path, activation, myelination, access_count, last_accessed, created_at, contexts
	FROM neurons`

const upsertNeuronSQL = `
	INSERT INTO neurons (id, type, path, activation, myelination, access_count, last_accessed, created_at, contexts)
	VALUES (?, ?, ?, 1.0, ?, 1, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		activation    = 1.0,
		myelination   = excluded.myelination,
		access_count  = neurons.access_count + 1,
		last_accessed = excluded.last_accessed,
		contexts      = excluded.contexts`

// EncodeContexts serializes a context list to its JSON text form.
func EncodeContexts(contexts []string) string {
	if len(contexts) == 0 {
		return "[]"
	}
	data, err := json.Marshal(contexts)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeContexts parses a stored contexts blob. A blob that cannot be decoded
// is treated as empty — it gets overwritten on the next upsert.
func (db *DB) decodeContexts(id, raw string) []string {
	if raw == "" {
		return nil
	}
	var contexts []string
	if err := json.Unmarshal([]byte(raw), &contexts); err != nil {
		db.logger.Warn("undecodable contexts blob, treating as empty",
			zap.String("neuron", id),
			zap.Error(err))
		return nil
	}
	return contexts
}

// GetNeuron returns a neuron by its composite id, or nil if not found.
func (db *DB) GetNeuron(id string) (*Neuron, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	n, err := db.scanNeuron(db.stmt.getNeuron.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get neuron: %w", err)
	}
	return n, nil
}

// UpsertNeuron creates or touches a neuron: activation resets to 1.0,
// access_count increments, last_accessed advances. The caller supplies the
// already-advanced myelination and the already-trimmed context list.
func (db *DB) UpsertNeuron(id string, t NeuronType, path string, myelination float64, contexts []string, now time.Time) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	ts := FormatTime(now)
	_, err := db.stmt.upsertNeuron.Exec(id, string(t), path, myelination, ts, ts, EncodeContexts(contexts))
	if err != nil {
		return fmt.Errorf("upsert neuron: %w", err)
	}
	return nil
}

// NeuronsByContextKeyword returns neurons whose contexts blob contains the
// keyword, ordered by myelination DESC. The keyword is matched as a LIKE
// substring; callers pass lowercased keywords (LIKE is case-insensitive for
// ASCII).
func (db *DB) NeuronsByContextKeyword(keyword string, limit int) ([]Neuron, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := db.db.Query(
		selectNeuron+` WHERE contexts LIKE ? ORDER BY myelination DESC LIMIT ?`,
		"%"+keyword+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("neurons by keyword: %w", err)
	}
	defer rows.Close()
	return db.scanNeurons(rows)
}

// TopMyelinated returns the highest-myelination neurons of a type, excluding
// the given ids.
func (db *DB) TopMyelinated(t NeuronType, exclude []string, limit int) ([]Neuron, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}

	query := selectNeuron + ` WHERE type = ?`
	args := []any{string(t)}
	if len(exclude) > 0 {
		placeholders := make([]string, len(exclude))
		for i, id := range exclude {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` AND id NOT IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY myelination DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("top myelinated: %w", err)
	}
	defer rows.Close()
	return db.scanNeurons(rows)
}

// DecayNeurons multiplies every neuron's activation and myelination by the
// given retention factors.
func (db *DB) DecayNeurons(activationRetain, myelinationRetain float64) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	_, err := db.db.Exec(
		`UPDATE neurons SET activation = activation * ?, myelination = myelination * ?`,
		activationRetain, myelinationRetain)
	if err != nil {
		return fmt.Errorf("decay neurons: %w", err)
	}
	return nil
}

// PruneNeurons deletes neurons below both signal floors that have been
// accessed fewer than minAccess times. Synapses cascade.
func (db *DB) PruneNeurons(activationFloor, myelinationFloor float64, minAccess int) (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	result, err := db.db.Exec(
		`DELETE FROM neurons WHERE activation < ? AND myelination < ? AND access_count < ?`,
		activationFloor, myelinationFloor, minAccess)
	if err != nil {
		return 0, fmt.Errorf("prune neurons: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// CountNeurons returns the number of neurons in the graph.
func (db *DB) CountNeurons() (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM neurons`).Scan(&count)
	return count, err
}

// AvgMyelination returns the mean myelination across all neurons, 0 if empty.
func (db *DB) AvgMyelination() (float64, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var avg float64
	err := db.db.QueryRow(`SELECT COALESCE(AVG(myelination), 0) FROM neurons`).Scan(&avg)
	return avg, err
}

// CountSuperhighways returns the number of neurons whose myelination exceeds
// the threshold.
func (db *DB) CountSuperhighways(threshold float64) (int, error) {
	if err := db.ensureOpen(); err != nil {
		return 0, err
	}
	var count int
	err := db.db.QueryRow(`SELECT COUNT(*) FROM neurons WHERE myelination > ?`, threshold).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanNeuron(row rowScanner) (*Neuron, error) {
	var n Neuron
	var typ, createdAt, contexts string
	var lastAccessed sql.NullString
	if err := row.Scan(&n.ID, &typ, &n.Path, &n.Activation, &n.Myelination,
		&n.AccessCount, &lastAccessed, &createdAt, &contexts); err != nil {
		return nil, err
	}
	n.Type = NeuronType(typ)
	n.CreatedAt = ParseTime(createdAt)
	if lastAccessed.Valid {
		t := ParseTime(lastAccessed.String)
		n.LastAccessed = &t
	}
	n.Contexts = db.decodeContexts(n.ID, contexts)
	return &n, nil
}

func (db *DB) scanNeurons(rows *sql.Rows) ([]Neuron, error) {
	var neurons []Neuron
	for rows.Next() {
		n, err := db.scanNeuron(rows)
		if err != nil {
			return nil, fmt.Errorf("scan neuron: %w", err)
		}
		neurons = append(neurons, *n)
	}
	return neurons, rows.Err()
}

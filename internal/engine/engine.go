package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/brainbox/internal/store"
)

// Tuning constants of the Hebbian memory model. These are compile-time
// properties of the engine, not configuration.
const (
	// Neuron signals
	MyelinMax  = 0.95 // myelination saturation ceiling
	MyelinRate = 0.02 // per-access asymptotic advance

	// Hebbian learning
	LearningRate       = 0.1
	CoAccessWindowSize = 10

	// Recall gating
	ConfidenceGate    = 0.4  // phases 1 and 2
	FallbackGate      = 0.15 // phase 3
	SpreadWeightFloor = 0.3  // minimum edge weight to spread along
	PhaseFetchLimit   = 10   // per-keyword and per-frontier fetch cap

	// Decay
	ActivationDecayRate   = 0.15
	MyelinDecayRate       = 0.005
	SynapseDecayRate      = 0.02
	SynapsePruneThreshold = 0.05
	NeuronPruneFloor      = 0.01 // both activation and myelination
	NeuronPruneMinAccess  = 2

	// Context list bound
	MaxContexts = 20

	// Access-log heuristics
	FileTokenCost    = 1500
	DefaultTokenCost = 500

	// Window reconstruction horizon on open
	WindowSeedHorizon = time.Hour

	// Recency half-window for confidence scoring
	RecencyWindow = 168 * time.Hour
)

// Engine is the Hebbian memory engine: a persistent graph of neurons and
// synapses over a single SQLite file, plus the in-memory co-access window.
//
// The engine is single-writer and holds no interior locking — callers
// serialize their own calls or wrap the engine in a mutex.
type Engine struct {
	DB *store.DB

	logger      *zap.Logger
	sessionID   string
	window      []string
	accessOrder int64
}

// Open opens (or creates) the database at dbPath, creates a session record,
// and reconstructs the co-access window from the recent access log.
func Open(dbPath string, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := store.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		DB:        db,
		logger:    logger,
		sessionID: uuid.New().String(),
	}

	if err := db.CreateSession(e.sessionID, time.Now()); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := e.seedWindow(time.Now()); err != nil {
		// A damaged access log should not block opening — start cold.
		logger.Warn("window seeding failed, starting with empty window", zap.Error(err))
		e.window = nil
	}

	logger.Info("brainbox open",
		zap.String("db", dbPath),
		zap.String("session", e.sessionID),
		zap.Int("window", len(e.window)))
	return e, nil
}

// SessionID returns the id of the session created by Open.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Record registers an access to the entity at path. It upserts the neuron,
// strengthens synapses to everything in the co-access window, appends to the
// access log, and updates session counters.
//
// Empty paths and unknown types are silent no-ops — memory is best-effort.
func (e *Engine) Record(path string, t store.NeuronType, context string) error {
	if path == "" {
		return nil
	}
	if t == "" {
		t = store.NeuronFile
	}
	if !t.Valid() {
		return nil
	}

	now := time.Now()
	id := store.NeuronID(t, path)

	existing, err := e.DB.GetNeuron(id)
	if err != nil {
		return err
	}

	var myelination float64
	var contexts []string
	if existing != nil {
		myelination = existing.Myelination
		contexts = existing.Contexts
	}
	myelination = advanceMyelination(myelination)
	contexts = appendContext(contexts, context)

	if err := e.DB.UpsertNeuron(id, t, path, myelination, contexts, now); err != nil {
		return err
	}

	e.accessOrder++
	cost := tokenCost(t)
	if err := e.DB.AppendAccess(id, e.sessionID, context, cost, e.accessOrder, now); err != nil {
		return err
	}

	// Hebbian step: strengthen both directions against every window entry.
	// More recent window positions earn a larger learning delta.
	size := len(e.window)
	for i, recentID := range e.window {
		if recentID == id {
			continue
		}
		delta := LearningRate * float64(i+1) / float64(size)
		if err := e.DB.StrengthenSynapse(id, recentID, delta, now); err != nil {
			return err
		}
		if err := e.DB.StrengthenSynapse(recentID, id, delta, now); err != nil {
			return err
		}
	}

	e.touchWindow(id)

	if err := e.DB.BumpSession(e.sessionID, cost); err != nil {
		return err
	}
	return nil
}

// RecordSemantic registers a free-text fact as a semantic neuron.
func (e *Engine) RecordSemantic(text, context string) error {
	return e.Record(text, store.NeuronSemantic, context)
}

// Close stamps the session and closes the store handle. Idempotent — and a
// later Record or Recall reopens the store lazily.
func (e *Engine) Close() error {
	if err := e.DB.EndSession(e.sessionID, time.Now()); err != nil {
		e.logger.Warn("end session", zap.Error(err))
	}
	return e.DB.Close()
}

// advanceMyelination applies m ← min(m + MYELIN_RATE·(1−m), MYELIN_MAX).
func advanceMyelination(m float64) float64 {
	m += MyelinRate * (1 - m)
	if m > MyelinMax {
		m = MyelinMax
	}
	return m
}

// appendContext adds a context string if non-empty and not already present,
// then trims to the trailing MaxContexts entries.
func appendContext(contexts []string, context string) []string {
	if context == "" {
		return contexts
	}
	for _, c := range contexts {
		if c == context {
			return contexts
		}
	}
	contexts = append(contexts, context)
	if len(contexts) > MaxContexts {
		contexts = contexts[len(contexts)-MaxContexts:]
	}
	return contexts
}

func tokenCost(t store.NeuronType) int {
	if t == store.NeuronFile {
		return FileTokenCost
	}
	return DefaultTokenCost
}

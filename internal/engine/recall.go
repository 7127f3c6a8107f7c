package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/lazypower/brainbox/internal/store"
)

// Activation paths a recall result can arrive by.
const (
	PathDirect     = "direct"
	PathSpread     = "spread"
	PathMyelinated = "myelinated"
)

// RecallResult is one ranked recall candidate.
type RecallResult struct {
	Neuron         store.Neuron `json:"neuron"`
	Confidence     float64      `json:"confidence"`
	ActivationPath string       `json:"activation_path"`
}

// DefaultRecallLimit is what hosts pass when the caller did not choose one.
const DefaultRecallLimit = 5

// Recall performs three-phase retrieval: direct keyword match, strict 1-hop
// spreading activation from the direct frontier, and myelinated fallback.
// Results are ranked by confidence, truncated to limit.
//
// Unknown types and non-positive limits return an empty result. The phases
// tolerate neurons vanishing between queries — a missing row is skipped.
func (e *Engine) Recall(query string, t store.NeuronType, limit int) ([]RecallResult, error) {
	if t == "" {
		t = store.NeuronFile
	}
	if !t.Valid() || limit <= 0 {
		return nil, nil
	}

	keywords := extractKeywords(query)
	now := time.Now()

	activated := make(map[string]bool)
	var results []RecallResult

	// Phase 1 — direct match: per-keyword context LIKE scan, dedup by id.
	seen := make(map[string]bool)
	var candidates []store.Neuron
	for _, kw := range keywords {
		neurons, err := e.DB.NeuronsByContextKeyword(kw, PhaseFetchLimit)
		if err != nil {
			return nil, err
		}
		for _, n := range neurons {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			candidates = append(candidates, n)
		}
	}
	for i := range candidates {
		n := &candidates[i]
		if n.Type != t {
			continue
		}
		confidence := e.score(n, keywords, now)
		if confidence < ConfidenceGate {
			continue
		}
		activated[n.ID] = true
		results = append(results, RecallResult{
			Neuron:         *n,
			Confidence:     confidence,
			ActivationPath: PathDirect,
		})
	}

	// Phase 2 — 1-hop spread from the direct frontier only. Nodes activated
	// by spread do not themselves spread.
	frontier := results[:len(results):len(results)]
	for _, seed := range frontier {
		synapses, err := e.DB.OutgoingSynapses(seed.Neuron.ID, PhaseFetchLimit)
		if err != nil {
			return nil, err
		}
		for _, s := range synapses {
			if s.Weight < SpreadWeightFloor || activated[s.TargetID] {
				continue
			}
			target, err := e.DB.GetNeuron(s.TargetID)
			if err != nil {
				return nil, err
			}
			if target == nil || target.Type != t {
				continue
			}
			confidence := seed.Confidence * s.Weight * (1 + target.Myelination)
			if confidence > 0.99 {
				confidence = 0.99
			}
			if confidence < ConfidenceGate {
				continue
			}
			activated[target.ID] = true
			results = append(results, RecallResult{
				Neuron:         *target,
				Confidence:     confidence,
				ActivationPath: PathSpread,
			})
		}
	}

	// Phase 3 — myelinated fallback: top-trust neurons of the type fill any
	// remaining slots, gated at the lower fallback threshold.
	if len(results) < limit {
		exclude := make([]string, 0, len(activated))
		for id := range activated {
			exclude = append(exclude, id)
		}
		sort.Strings(exclude)

		fallback, err := e.DB.TopMyelinated(t, exclude, limit)
		if err != nil {
			return nil, err
		}
		for i := range fallback {
			if len(results) >= limit {
				break
			}
			n := &fallback[i]
			confidence := n.Myelination * 0.5
			if confidence < FallbackGate {
				continue
			}
			activated[n.ID] = true
			results = append(results, RecallResult{
				Neuron:         *n,
				Confidence:     confidence,
				ActivationPath: PathMyelinated,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// score computes the direct-match confidence for a neuron against a query's
// keyword set:
//
//	0.4·ctx_match + 0.3·myelination + 0.2·recency + 0.1·path_match
//
// clamped to 1. Recency falls linearly to zero over the 168-hour window.
func (e *Engine) score(n *store.Neuron, keywords []string, now time.Time) float64 {
	var ctxMatch, pathMatch float64
	if len(keywords) > 0 {
		ctx := n.ContextString()
		path := strings.ToLower(n.Path)
		ctxHits, pathHits := 0, 0
		for _, kw := range keywords {
			if strings.Contains(ctx, kw) {
				ctxHits++
			}
			if strings.Contains(path, kw) {
				pathHits++
			}
		}
		ctxMatch = float64(ctxHits) / float64(len(keywords))
		pathMatch = float64(pathHits) / float64(len(keywords))
	}

	var recency float64
	if n.LastAccessed != nil {
		age := now.Sub(*n.LastAccessed)
		recency = 1 - float64(age)/float64(RecencyWindow)
		if recency < 0 {
			recency = 0
		}
	}

	score := 0.4*ctxMatch + 0.3*n.Myelination + 0.2*recency + 0.1*pathMatch
	if score > 1 {
		score = 1
	}
	return score
}

// extractKeywords lowercases the query, splits on whitespace, and drops
// tokens of length <= 2.
func extractKeywords(query string) []string {
	var keywords []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) > 2 {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

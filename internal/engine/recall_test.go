package engine

import (
	"testing"
	"time"

	"github.com/lazypower/brainbox/internal/store"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Grep Foo", []string{"grep", "foo"}},
		{"a an to fix", []string{"fix"}},
		{"", nil},
		{"  ", nil},
	}
	for _, tt := range tests {
		got := extractKeywords(tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("extractKeywords(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("extractKeywords(%q)[%d] = %q, want %q", tt.query, i, got[i], tt.want[i])
			}
		}
	}
}

func TestRecallDirectMatch(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/handlers.go", store.NeuronFile, "grep foo")

	results, err := eng.Recall("grep foo", store.NeuronFile, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Neuron.ID != "file:/handlers.go" {
		t.Errorf("id = %s", r.Neuron.ID)
	}
	if r.ActivationPath != PathDirect {
		t.Errorf("activation_path = %s, want direct", r.ActivationPath)
	}
	if r.Confidence < ConfidenceGate {
		t.Errorf("confidence = %v, want >= %v", r.Confidence, ConfidenceGate)
	}
}

func TestRecallHebbianPairBothReturned(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/x", store.NeuronFile, "grep foo")
	eng.Record("/y", store.NeuronFile, "grep foo")

	results, err := eng.Recall("foo", store.NeuronFile, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	found := map[string]bool{}
	for _, r := range results {
		found[r.Neuron.ID] = true
		if r.ActivationPath == PathDirect && r.Confidence < ConfidenceGate {
			t.Errorf("direct confidence = %v, below gate", r.Confidence)
		}
	}
	if !found["file:/x"] || !found["file:/y"] {
		t.Errorf("missing pair member: %v", found)
	}
}

func TestRecallTypeFilter(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/file1", store.NeuronFile, "deploy")
	eng.Record("tool1", store.NeuronTool, "deploy")

	results, err := eng.Recall("deploy", store.NeuronTool, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Neuron.ID != "tool:tool1" {
		t.Errorf("id = %s, want tool:tool1", results[0].Neuron.ID)
	}
}

func TestRecallMyelinatedFallback(t *testing.T) {
	eng := testEngine(t)

	// 20 accesses push myelination to 1 − 0.98^20 ≈ 0.33.
	for i := 0; i < 20; i++ {
		eng.Record("/hot", store.NeuronFile, "unrelated")
	}

	results, err := eng.Recall("nothing-matches", store.NeuronFile, 3)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.ActivationPath != PathMyelinated {
		t.Errorf("activation_path = %s, want myelinated", r.ActivationPath)
	}
	if !almostEqual(r.Confidence, r.Neuron.Myelination*0.5) {
		t.Errorf("confidence = %v, want myelination·0.5 = %v", r.Confidence, r.Neuron.Myelination*0.5)
	}
	if r.Confidence < FallbackGate {
		t.Errorf("confidence = %v, below fallback gate", r.Confidence)
	}
}

func TestRecallSpreadGateRejectsWeakPath(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/a", store.NeuronFile, "deploy config")

	// A target with no matching context and a synapse under the gate:
	// spread confidence ≈ 0.6·0.4·1.0 < 0.4.
	if err := eng.DB.UpsertNeuron("file:/c", store.NeuronFile, "/c", 0, nil, time.Now()); err != nil {
		t.Fatalf("UpsertNeuron: %v", err)
	}
	if err := eng.DB.StrengthenSynapse("file:/a", "file:/c", 0.4, time.Now()); err != nil {
		t.Fatalf("StrengthenSynapse: %v", err)
	}

	results, err := eng.Recall("deploy config", store.NeuronFile, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for _, r := range results {
		if r.Neuron.ID == "file:/c" {
			t.Errorf("weak spread path emitted: %+v", r)
		}
	}
}

func TestRecallSpreadEmitsStrongPath(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/a", store.NeuronFile, "deploy config")

	if err := eng.DB.UpsertNeuron("file:/c", store.NeuronFile, "/c", 0.1, nil, time.Now()); err != nil {
		t.Fatalf("UpsertNeuron: %v", err)
	}
	if err := eng.DB.StrengthenSynapse("file:/a", "file:/c", 0.9, time.Now()); err != nil {
		t.Fatalf("StrengthenSynapse: %v", err)
	}

	results, err := eng.Recall("deploy config", store.NeuronFile, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}

	var spread *RecallResult
	for i := range results {
		if results[i].Neuron.ID == "file:/c" {
			spread = &results[i]
		}
	}
	if spread == nil {
		t.Fatal("strong spread path not emitted")
	}
	if spread.ActivationPath != PathSpread {
		t.Errorf("activation_path = %s, want spread", spread.ActivationPath)
	}
	if spread.Confidence < ConfidenceGate || spread.Confidence > 0.99 {
		t.Errorf("spread confidence = %v out of range", spread.Confidence)
	}
}

func TestRecallRankedByConfidence(t *testing.T) {
	eng := testEngine(t)

	eng.Record("/partial", store.NeuronFile, "deploy")
	eng.Record("/full", store.NeuronFile, "deploy production cluster")

	results, err := eng.Recall("deploy production cluster", store.NeuronFile, 5)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Confidence > results[i-1].Confidence {
			t.Errorf("results not sorted: %v then %v",
				results[i-1].Confidence, results[i].Confidence)
		}
	}
	if len(results) == 0 || results[0].Neuron.ID != "file:/full" {
		t.Errorf("best match should rank first, got %v", results)
	}
}

func TestRecallLimit(t *testing.T) {
	eng := testEngine(t)

	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		eng.Record(p, store.NeuronFile, "deploy service")
	}

	results, err := eng.Recall("deploy service", store.NeuronFile, 2)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestRecallInvalidInput(t *testing.T) {
	eng := testEngine(t)
	eng.Record("/x", store.NeuronFile, "deploy")

	if results, _ := eng.Recall("deploy", store.NeuronFile, 0); len(results) != 0 {
		t.Errorf("non-positive limit should return empty, got %d", len(results))
	}
	if results, _ := eng.Recall("deploy", store.NeuronType("bogus"), 5); len(results) != 0 {
		t.Errorf("unknown type should return empty, got %d", len(results))
	}
	// An empty keyword set produces no direct candidates; with low
	// myelination the fallback stays gated too.
	if results, _ := eng.Recall("", store.NeuronFile, 5); len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

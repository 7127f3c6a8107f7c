package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lazypower/brainbox/internal/engine"
	"github.com/lazypower/brainbox/internal/store"
)

func newTestServer(t *testing.T) (*engine.Engine, *httptest.Server) {
	t.Helper()
	eng, err := engine.Open(filepath.Join(t.TempDir(), "brain.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}
	ts := httptest.NewServer(New(eng, "test", zap.NewNop()))
	t.Cleanup(func() {
		ts.Close()
		eng.Close()
	})
	return eng, ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]any
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestRecordThenRecall(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/record", map[string]string{
		"path":    "/handlers.go",
		"type":    "file",
		"context": "grep foo",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/recall?q=grep+foo&type=file")
	if err != nil {
		t.Fatalf("GET /api/recall: %v", err)
	}
	var results []engine.RecallResult
	decodeJSON(t, resp, &results)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Neuron.Path != "/handlers.go" {
		t.Errorf("path = %s", results[0].Neuron.Path)
	}
	if results[0].ActivationPath != engine.PathDirect {
		t.Errorf("activation_path = %s", results[0].ActivationPath)
	}
}

func TestRecallEmptyIsArray(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/recall?q=nothing")
	if err != nil {
		t.Fatalf("GET /api/recall: %v", err)
	}
	var results []engine.RecallResult
	decodeJSON(t, resp, &results)
	if results == nil || len(results) != 0 {
		t.Errorf("want empty array, got %v", results)
	}
}

func TestRecordSemanticEndpoint(t *testing.T) {
	eng, ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/record/semantic", map[string]string{
		"text":    "always use WAL mode",
		"context": "sqlite",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	n, _ := eng.DB.GetNeuron("semantic:always use WAL mode")
	if n == nil {
		t.Fatal("semantic neuron not created")
	}
}

func TestRecordInvalidJSON(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/record", "application/json", bytes.NewReader([]byte("{nope")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRecordBestEffortSwallowsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	// An unknown type is a no-op at the engine, still 200 here.
	resp := postJSON(t, ts, "/api/record", map[string]string{
		"path": "/x", "type": "bogus",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestDecayEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts, "/api/record", map[string]string{"path": "/x", "type": "file"}).Body.Close()

	resp := postJSON(t, ts, "/api/decay", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result engine.DecayResult
	decodeJSON(t, resp, &result)
	if result.PrunedSynapses != 0 || result.PrunedNeurons != 0 {
		t.Errorf("fresh graph pruned: %+v", result)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts, "/api/record", map[string]string{"path": "/x", "type": "file"}).Body.Close()
	postJSON(t, ts, "/api/record", map[string]string{"path": "/y", "type": "file"}).Body.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	var stats engine.Stats
	decodeJSON(t, resp, &stats)
	if stats.NeuronCount != 2 {
		t.Errorf("neuron_count = %d, want 2", stats.NeuronCount)
	}
	if stats.TotalAccesses != 2 {
		t.Errorf("total_accesses = %d, want 2", stats.TotalAccesses)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	eng, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions: %v", err)
	}
	var sessions []store.Session
	decodeJSON(t, resp, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID != eng.SessionID() {
		t.Errorf("session id = %s, want %s", sessions[0].ID, eng.SessionID())
	}
}

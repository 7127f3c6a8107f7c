package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/lazypower/brainbox/internal/engine"
	"github.com/lazypower/brainbox/internal/store"
)

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path    string `json:"path"`
		Type    string `json:"type"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	// Memory is best-effort at this boundary: record errors are logged, not
	// surfaced to the hook subprocess.
	if err := s.engine.Record(req.Path, store.NeuronType(req.Type), req.Context); err != nil {
		s.logger.Warn("record failed", zap.String("path", req.Path), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecordSemantic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string `json:"text"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.engine.RecordSemantic(req.Text, req.Context); err != nil {
		s.logger.Warn("record semantic failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	typ := store.NeuronType(r.URL.Query().Get("type"))

	limit := engine.DefaultRecallLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	results, err := s.engine.Recall(query, typ, limit)
	if err != nil {
		// Recall degrades to an empty sequence at the host boundary.
		s.logger.Warn("recall failed", zap.String("query", query), zap.Error(err))
		results = nil
	}
	if results == nil {
		results = []engine.RecallResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Decay()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := s.engine.DB.RecentSessions(limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

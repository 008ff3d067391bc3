package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/askdoc/askdoc/internal/parser"
)

// runRequest is the body of POST /run: one document URL and the batch of
// questions to answer against it.
type runRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// runResponse returns one answer per question, in request order.
type runResponse struct {
	Answers []string `json:"answers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requireAuth enforces the configured bearer token. An empty configured
// token disables auth entirely.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || token != s.cfg.AuthToken {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or missing bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Documents == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "documents is required"})
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "questions must not be empty"})
		return
	}

	answers, err := s.engine.Process(r.Context(), req.Documents, req.Questions)
	if err != nil {
		log.Printf("server: process %s: %v", req.Documents, err)
		status := http.StatusInternalServerError
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	// Reassemble in request order; the engine's map is keyed by question.
	resp := runResponse{Answers: make([]string, len(req.Questions))}
	for i, q := range req.Questions {
		resp.Answers[i] = answers[q]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearAllCaches(r.Context()); err != nil {
		log.Printf("server: clear caches: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

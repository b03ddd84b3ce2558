package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"go-rag-assistant/rag"
)

// Answerer produces an answer for a query from a prepared context.
type Answerer interface {
	Answer(ctx context.Context, query, contextText string, opts rag.AnswerOptions) string
}

type Server struct {
	pipeline *rag.Pipeline
	llm      Answerer // nil when no endpoint is configured
	defaults rag.AnswerOptions
}

func NewServer(pipeline *rag.Pipeline, llm Answerer, defaults rag.AnswerOptions) *Server {
	return &Server{
		pipeline: pipeline,
		llm:      llm,
		defaults: defaults,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/chunk", s.chunkHandler)
	mux.HandleFunc("/upload", s.uploadHandler)
	mux.HandleFunc("/ask", s.askHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rag.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// POST /chunk  (body: raw text)
func (s *Server) chunkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	text := string(body)
	if text == "" {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	source := uuid.NewString()
	chunks, err := s.pipeline.ChunkText(text, source)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source": source,
		"chunks": chunks,
	})
}

// POST /upload  (multipart form, field "file")
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Max 10MB for safety
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// the loader dispatches on extension, so keep it on the temp file
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		http.Error(w, "failed to create temp file", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		http.Error(w, "failed to save upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Sync(); err != nil {
		http.Error(w, "failed to save upload", http.StatusInternalServerError)
		return
	}

	res, err := s.pipeline.RunAs(tmp.Name(), header.Filename)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"filename": header.Filename,
		"status":   res.Status,
		"reason":   res.Reason,
		"chunks":   res.Chunks,
	})
}

type askRequest struct {
	Query       string   `json:"query"`
	Context     string   `json:"context"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// POST /ask  { "query": "your question", "context": "..." }
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.llm == nil {
		http.Error(w, "no LLM endpoint configured", http.StatusServiceUnavailable)
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	opts := s.defaults
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}

	answer := s.llm.Answer(r.Context(), req.Query, req.Context, opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":     answer,
		"diagnostic": rag.IsDiagnostic(answer),
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomekmatuszewski/pdf-research-assistant/internal/background"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/eval"
	"github.com/tomekmatuszewski/pdf-research-assistant/internal/rag"
)

// Answerer is the synchronous question-answering path.
type Answerer interface {
	Answer(ctx context.Context, query, modelID string) (rag.Answer, error)
}

// Submitter queues answered questions for deferred evaluation.
type Submitter interface {
	Submit(task background.Task) error
}

// askRequest is the POST /ask body.
type askRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// askResponse is the POST /ask reply.
type askResponse struct {
	Answer       string  `json:"answer"`
	Model        string  `json:"model"`
	ResponseTime float64 `json:"response_time"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Config holds server configuration.
type Config struct {
	Orchestrator Answerer
	Runner       Submitter

	// Model used when the request does not name one
	DefaultModel string

	Logger zerolog.Logger
}

// Server answers questions over HTTP and hands each exchange to the
// background runner.
type Server struct {
	orchestrator Answerer
	runner       Submitter
	defaultModel string
	log          zerolog.Logger
}

// New creates the HTTP server.
func New(config *Config) (*Server, error) {
	if config.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if config.Runner == nil {
		return nil, errors.New("background runner is required")
	}
	return &Server{
		orchestrator: config.Orchestrator,
		runner:       config.Runner,
		defaultModel: config.DefaultModel,
		log:          config.Logger,
	}, nil
}

// Handler returns the routing mux for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthcheck", s.handleHealthcheck)
	return mux
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	answer, err := s.orchestrator.Answer(r.Context(), req.Text, model)
	if err != nil {
		s.log.Error().Err(err).Str("model", model).Msg("failed to answer question")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
		return
	}

	if err := s.runner.Submit(background.Task{
		Question:    req.Text,
		RawResponse: answer.Response,
		ModelID:     answer.ModelID,
		Latency:     answer.Latency,
	}); err != nil {
		// The answer is already computed; losing the stored record is
		// acceptable, losing the response is not.
		s.log.Warn().Err(err).Msg("failed to queue conversation for evaluation")
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:       eval.Clean(answer.Response),
		Model:        answer.ModelID,
		ResponseTime: answer.Latency.Seconds(),
	})
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

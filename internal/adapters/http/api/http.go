// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/inforum/diagnostico/internal/app"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit runs the submission pipeline. origin is the public
	// scheme://host of the request.
	Submit(ctx context.Context, sub service.Submission, origin string) (service.Outcome, error)

	// Questions returns the questionnaire served to the wizard.
	Questions() []questionnaire.Question
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	submitHandler    *SubmitHandler
	questionsHandler *QuestionsHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	defaultOrigin string
	logger        logger.Logger
}

// WithDefaultOrigin sets the origin used when a request names no host.
func WithDefaultOrigin(origin string) ServerOption {
	return func(o *serverOptions) {
		if origin != "" {
			o.defaultOrigin = origin
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	o := serverOptions{
		defaultOrigin: DefaultOrigin,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		submitHandler:    NewSubmitHandler(deps, o.defaultOrigin, o.logger),
		questionsHandler: NewQuestionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument(routeHealth, s.healthHandler.HandleHealth))
	mux.HandleFunc("/submit", instrument(routeSubmit, s.submitHandler.HandleSubmit))
	mux.HandleFunc("/questions", instrument(routeQuestions, s.questionsHandler.HandleQuestions))
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/engine"
)

// SessionHeader carries the conversation identifier. The server echoes the
// effective session on every query response, generating one when the
// client sent none.
const SessionHeader = "X-Session-ID"

// maxBodyBytes bounds request bodies; repository URLs and questions are
// small, anything larger is a client error.
const maxBodyBytes = 1 << 20

// Server is the HTTP front of the engine.
type Server struct {
	engine      *engine.Engine
	logger      *slog.Logger
	allowOrigin string
}

// NewServer creates the HTTP server over the given engine. CORS_ORIGIN
// narrows the allowed browser origin; unset means any.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "*"
	}
	return &Server{engine: eng, logger: logger, allowOrigin: origin}
}

// Handler returns the routed handler with CORS applied. Mount it directly
// on http.Server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/repo/info", s.handleInfo)
	mux.HandleFunc("POST /api/repo/query", s.handleQuery)
	mux.HandleFunc("POST /api/repo/file/summarize", s.handleSummarizeFile)
	mux.HandleFunc("POST /api/repo/dependencies", s.handleDependencies)
	return withCORS(mux, s.allowOrigin)
}

// decode reads the JSON request body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindInvalidRequest, "malformed request body", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError maps the shared error taxonomy onto HTTP statuses and emits
// the structured error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidRequest:
		return http.StatusBadRequest
	case apperr.KindAccessDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindContextTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

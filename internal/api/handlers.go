package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/atharvvvg/LLMRepo/internal/engine"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req RepoRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := repoid.Parse(req.RepoURL, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.engine.Info(r.Context(), id, req.AccessToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, InfoResponse{
		RepoURL:       req.RepoURL,
		Repo:          info.Repo,
		Branch:        info.Ref,
		CommitSHA:     info.CommitSHA,
		Files:         info.Files,
		TreeTruncated: info.TreeTruncated,
		Structure:     info.TopLevel,
		Summary:       info.Summary,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := repoid.Parse(req.RepoURL, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Session precedence: body, then header, then a fresh one.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get(SessionHeader)
	}
	if sessionID == "" {
		sessionID = session.NewID()
	}
	w.Header().Set(SessionHeader, sessionID)

	result, err := s.engine.Query(r.Context(), engine.QueryRequest{
		Identity:     id,
		SessionID:    sessionID,
		Token:        req.AccessToken,
		Query:        req.Query,
		ContextFiles: req.ContextFiles,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, QueryResponse{
		RepoURL:   req.RepoURL,
		Branch:    id.Ref,
		Query:     req.Query,
		Response:  result.Response,
		SessionID: sessionID,
	})
}

func (s *Server) handleSummarizeFile(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := repoid.Parse(req.RepoURL, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	summary, err := s.engine.SummarizeFile(r.Context(), id, req.FilePath, req.AccessToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, FileSummaryResponse{
		RepoURL:   req.RepoURL,
		Branch:    id.Ref,
		FilePath:  summary.Path,
		Summary:   summary.Summary,
		Truncated: summary.Truncated,
		Cached:    summary.Cached,
	})
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	var req RepoRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := repoid.Parse(req.RepoURL, req.Branch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.engine.Dependencies(r.Context(), id, req.AccessToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DependenciesResponse{
		RepoURL:      req.RepoURL,
		Repo:         report.Repo,
		Dependencies: report.Dependencies,
		Explanation:  report.Explanation,
		Cached:       report.Cached,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

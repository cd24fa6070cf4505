package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

// QueryRequest is one natural-language question about a repository.
type QueryRequest struct {
	Identity  repoid.Identity
	SessionID string
	Token     string
	Query     string
	// ContextFiles are files the user explicitly selected; they are pinned
	// to the session and ranked above everything else.
	ContextFiles []string
}

// QueryResult carries the answer and the final state of the request.
type QueryResult struct {
	Response string
	State    State
}

// Query runs the full pipeline for one question. The user's turn is
// recorded on receipt, so even a failing request leaves an accurate
// transcript; failures additionally append a system turn describing the
// error before it propagates.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	// Received: validate, then record the question immediately.
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return &QueryResult{State: StateFailed}, apperr.New(apperr.KindInvalidRequest, "query is empty")
	}

	repoKey := req.Identity.Key()
	turn := e.sessions.Append(repoKey, req.SessionID, session.RoleUser, query)
	e.sessions.Pin(repoKey, req.SessionID, req.ContextFiles...)

	result, err := e.answer(ctx, req, repoKey, query, turn)
	if err != nil {
		e.sessions.Append(repoKey, req.SessionID, session.RoleSystem,
			fmt.Sprintf("The previous question could not be answered: %v", err))
		e.logger.Warn("query failed",
			"repo", req.Identity.Slug(),
			"kind", apperr.KindOf(err).String(),
			"error", err,
		)
		return &QueryResult{State: StateFailed}, err
	}

	e.sessions.Append(repoKey, req.SessionID, session.RoleAssistant, result.Response)
	return result, nil
}

func (e *Engine) answer(ctx context.Context, req QueryRequest, repoKey, query string, turn int) (*QueryResult, error) {
	// ContextBuilding: warm the index and assemble the prompt context.
	snap, err := e.index.Ensure(ctx, req.Identity, req.Token)
	if err != nil {
		return nil, err
	}

	// History excludes exactly the turn appended for this query (the query
	// travels in the final user message); turns other requests interleaved
	// into the session meanwhile are kept.
	history := e.sessions.History(repoKey, req.SessionID)
	history = append(history[:turn], history[turn+1:]...)

	summary := e.cachedRepoSummary(snap)
	bundle, err := e.assembler.Build(ctx, snap, summary, query,
		e.sessions.Pinned(repoKey, req.SessionID), history, e.maxTokens,
		e.fileSource(snap, req.Token))
	if err != nil {
		return nil, err
	}

	// Invoking: one gateway call with the assembled bundle.
	response, err := e.gateway.Complete(ctx, llm.Request{
		System:  querySystemPrompt,
		Context: bundle.Render(),
		History: toGatewayHistory(history),
		Query:   query,
	})
	if err != nil {
		return nil, err
	}

	return &QueryResult{Response: response, State: StateCompleted}, nil
}

// toGatewayHistory converts transcript turns into gateway messages.
func toGatewayHistory(history []session.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		out = append(out, llm.Message{Role: llm.Role(turn.Role), Content: turn.Text})
	}
	return out
}

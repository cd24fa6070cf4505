// Package llm is the single choke-point for model invocations. Every
// completion goes through a Gateway, which owns retries, the per-call
// timeout, and normalization of the provider response to plain text.
package llm

import (
	"context"
)

// Role labels one message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn handed to the model.
type Message struct {
	Role    Role
	Content string
}

// Request carries everything one completion needs. Context is the
// assembled repository material; History is the prior conversation.
type Request struct {
	System  string
	Context string
	History []Message
	Query   string
}

// Gateway produces one plain-text completion per request. Implementations
// must distinguish rate-limit, timeout, and invalid-request failures via
// the apperr taxonomy so callers can message them differently.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

package llm

import (
	"context"
	"sync/atomic"
)

// StubGateway is a test double that answers from a fixed function and
// counts invocations. The default behavior echoes the assembled context,
// which lets end-to-end tests verify what the model would have seen.
type StubGateway struct {
	calls atomic.Int64

	// Respond overrides the default echo behavior when non-nil.
	Respond func(req Request) (string, error)
}

// Complete implements Gateway.
func (s *StubGateway) Complete(ctx context.Context, req Request) (string, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Respond != nil {
		return s.Respond(req)
	}
	return req.Context, nil
}

// Calls returns how many completions were requested.
func (s *StubGateway) Calls() int64 {
	return s.calls.Load()
}

package engine

import (
	"context"

	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// FileSummary is the result of summarizing one file.
type FileSummary struct {
	Path string
	// Truncated marks summaries produced from a clipped prefix of the file.
	Truncated bool
	Summary   string
	Cached    bool
}

// SummarizeFile summarizes one file by path. Results are keyed by the
// file's content hash, so an unchanged file never triggers a second model
// call even across refs or snapshot refreshes.
func (e *Engine) SummarizeFile(ctx context.Context, id repoid.Identity, path, token string) (*FileSummary, error) {
	snap, err := e.index.Ensure(ctx, id, token)
	if err != nil {
		return nil, err
	}

	content, err := e.index.GetFile(ctx, snap.Identity, path, token)
	if err != nil {
		return nil, err
	}

	truncated := false
	if len(content) > fileSummaryBytes {
		content = content[:fileSummaryBytes]
		truncated = true
	}

	key := cache.Key{
		Repo: snap.Identity.Key(),
		Kind: cache.KindFileSummary,
		Path: path,
		Hash: repo.ContentHash(content),
	}
	if cached, ok := e.cache.Get(key); ok {
		if text, ok := cached.(string); ok {
			return &FileSummary{Path: path, Truncated: truncated, Summary: text, Cached: true}, nil
		}
	}

	summary, err := e.gateway.Complete(ctx, llm.Request{
		System: summarySystemPrompt,
		Query:  fileSummaryPrompt(path, content, truncated),
	})
	if err != nil {
		return nil, err
	}

	e.cache.Put(key, summary, e.summaryTTL)
	return &FileSummary{Path: path, Truncated: truncated, Summary: summary}, nil
}

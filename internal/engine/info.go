package engine

import (
	"context"
	"strings"

	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/contextbuild"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// RepoInfo is the overview returned for one repository.
type RepoInfo struct {
	Repo          string
	Ref           string
	CommitSHA     string
	Files         int
	TreeTruncated bool
	TopLevel      []string
	Summary       string
}

// Info ensures a fresh snapshot and returns the repository overview with
// an LLM-generated summary. Summaries are keyed by commit SHA, so a new
// push invalidates them while unchanged repos reuse the cached text.
func (e *Engine) Info(ctx context.Context, id repoid.Identity, token string) (*RepoInfo, error) {
	snap, err := e.index.Ensure(ctx, id, token)
	if err != nil {
		return nil, err
	}

	summary, err := e.repoSummary(ctx, snap)
	if err != nil {
		return nil, err
	}

	return &RepoInfo{
		Repo:          snap.Identity.Slug(),
		Ref:           snap.Identity.Ref,
		CommitSHA:     snap.CommitSHA,
		Files:         snap.Tree.Len(),
		TreeTruncated: snap.TreeTruncated,
		TopLevel:      snap.Tree.TopLevel(),
		Summary:       summary,
	}, nil
}

// repoSummary returns the cached summary for this snapshot's commit, or
// generates and caches one.
func (e *Engine) repoSummary(ctx context.Context, snap *repo.Snapshot) (string, error) {
	key := e.summaryKey(snap)
	if cached, ok := e.cache.Get(key); ok {
		if text, ok := cached.(string); ok {
			return text, nil
		}
	}

	var outline []string
	var readmeExcerpt string
	if path, content, ok := snap.Readme(); ok {
		readmeExcerpt = e.excerpter.Excerpt([]byte(content), summaryReadmeBytes)
		if isMarkdown(path) {
			if headings, err := e.excerpter.Outline([]byte(content)); err == nil {
				outline = headings
			}
		}
	}

	summary, err := e.gateway.Complete(ctx, llm.Request{
		System: summarySystemPrompt,
		Query:  repoSummaryPrompt(snap.Identity.Slug(), snap.Tree.Paths(), outline, readmeExcerpt),
	})
	if err != nil {
		return "", err
	}

	e.cache.Put(key, summary, e.summaryTTL)
	return summary, nil
}

func (e *Engine) summaryKey(snap *repo.Snapshot) cache.Key {
	return cache.Key{
		Repo: snap.Identity.Key(),
		Kind: cache.KindRepoSummary,
		Hash: snap.CommitSHA,
	}
}

// cachedRepoSummary returns the summary only when it is already cached.
// Query assembly never generates one; that would add a second model call
// to every question.
func (e *Engine) cachedRepoSummary(snap *repo.Snapshot) string {
	if cached, ok := e.cache.Get(e.summaryKey(snap)); ok {
		if text, ok := cached.(string); ok {
			return text
		}
	}
	return ""
}

// fileSource adapts the index's lazy file fetch for the assembler.
func (e *Engine) fileSource(snap *repo.Snapshot, token string) contextbuild.FileSource {
	return func(ctx context.Context, path string) (string, error) {
		return e.index.GetFile(ctx, snap.Identity, path, token)
	}
}

func isMarkdown(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".md")
}

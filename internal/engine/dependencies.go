package engine

import (
	"context"

	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/manifest"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
)

// noManifestsExplanation is returned when no dependency manifests were
// found; there is nothing for the model to analyze.
const noManifestsExplanation = "No dependency manifests were found in this repository, so no dependency analysis is available."

// DependencyReport maps detected dependencies per ecosystem and explains
// the tech stack in prose.
type DependencyReport struct {
	Repo         string
	Dependencies manifest.Deps
	Explanation  string
	Cached       bool
}

// Dependencies parses the snapshot's manifests and asks the model for a
// tech-stack explanation. The explanation is keyed by a hash of the
// parsed dependency mapping, so repos whose manifests have not changed
// reuse the cached text.
func (e *Engine) Dependencies(ctx context.Context, id repoid.Identity, token string) (*DependencyReport, error) {
	snap, err := e.index.Ensure(ctx, id, token)
	if err != nil {
		return nil, err
	}

	report := &DependencyReport{
		Repo:         snap.Identity.Slug(),
		Dependencies: snap.Dependencies,
	}
	if len(snap.Dependencies) == 0 {
		report.Explanation = noManifestsExplanation
		return report, nil
	}

	depsJSON := canonicalJSON(snap.Dependencies)
	key := cache.Key{
		Repo: snap.Identity.Key(),
		Kind: cache.KindDepsExplanation,
		Hash: repo.ContentHash(depsJSON),
	}
	if cached, ok := e.cache.Get(key); ok {
		if text, ok := cached.(string); ok {
			report.Explanation = text
			report.Cached = true
			return report, nil
		}
	}

	explanation, err := e.gateway.Complete(ctx, llm.Request{
		System: summarySystemPrompt,
		Query:  depsPrompt(depsJSON, e.manifestContents(snap)),
	})
	if err != nil {
		return nil, err
	}

	e.cache.Put(key, explanation, e.summaryTTL)
	report.Explanation = explanation
	return report, nil
}

// manifestContents collects the eagerly fetched manifest files that fed
// the parsed mapping, for supporting context in the prompt.
func (e *Engine) manifestContents(snap *repo.Snapshot) map[string]string {
	out := make(map[string]string)
	for path, content := range snap.Eager {
		if e.index.IsManifest(path) {
			out[path] = content
		}
	}
	return out
}

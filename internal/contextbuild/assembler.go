// Package contextbuild selects and ranks the subset of repository material
// that fits an LLM prompt budget. Assembly is deterministic: identical
// inputs produce byte-identical bundles, which is what makes the selection
// policy testable.
package contextbuild

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

const (
	// DefaultPerFileBytes caps how much of one file an excerpt may carry.
	DefaultPerFileBytes = 4096
	// DefaultMaxFiles caps how many file excerpts one bundle may hold.
	DefaultMaxFiles = 12

	scorePathOverlap = 3
	scorePinned      = 5
	scoreRecentTurn  = 2
	scoreOlderTurn   = 1
	// recentTurnWindow is how many trailing turns count as "recent".
	recentTurnWindow = 2
)

// FileSource fetches one file's content during assembly.
type FileSource func(ctx context.Context, path string) (string, error)

// FileExcerpt is one file's contribution to a bundle.
type FileExcerpt struct {
	Path string
	Body string
	// Omitted marks binary or oversized files whose body is withheld.
	Omitted bool
	// Clipped marks bodies cut to the per-file byte budget.
	Clipped bool
}

// Bundle is the assembled context handed to the LLM for one query.
type Bundle struct {
	Repo    string
	Summary string
	Listing []string
	Files   []FileExcerpt
}

// Render produces the prompt-ready text form of the bundle.
func (b *Bundle) Render() string {
	var sb strings.Builder
	sb.WriteString("Repository: ")
	sb.WriteString(b.Repo)
	sb.WriteString("\n")

	if b.Summary != "" {
		sb.WriteString("\nRepository summary:\n")
		sb.WriteString(b.Summary)
		sb.WriteString("\n")
	}

	sb.WriteString("\nTop-level structure:\n")
	for _, entry := range b.Listing {
		sb.WriteString("- ")
		sb.WriteString(entry)
		sb.WriteString("\n")
	}

	for _, f := range b.Files {
		if f.Omitted {
			fmt.Fprintf(&sb, "\n--- File: %s ---\n[content omitted]\n", f.Path)
			continue
		}
		fmt.Fprintf(&sb, "\n--- File: %s ---\n```\n%s\n```\n", f.Path, f.Body)
		if f.Clipped {
			sb.WriteString("(content truncated)\n")
		}
	}

	return sb.String()
}

// EstimatedTokens returns the token estimate of the rendered bundle.
func (b *Bundle) EstimatedTokens() int {
	return EstimateTokens(b.Render())
}

// Assembler builds bundles under a token budget.
type Assembler struct {
	perFileBytes int
	maxFiles     int
	logger       *slog.Logger
}

// NewAssembler creates an assembler; zero values take the defaults.
func NewAssembler(perFileBytes, maxFiles int, logger *slog.Logger) *Assembler {
	if perFileBytes <= 0 {
		perFileBytes = DefaultPerFileBytes
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{perFileBytes: perFileBytes, maxFiles: maxFiles, logger: logger}
}

// Build assembles the context for one query. The repo summary (when
// cached) and the top-level listing are mandatory; ranked file excerpts
// are added greedily until the next one would exceed maxTokens. Fails with
// ContextTooLarge only when the mandatory head alone exceeds the budget.
func (a *Assembler) Build(
	ctx context.Context,
	snap *repo.Snapshot,
	summary, query string,
	pinned []string,
	history []session.Turn,
	maxTokens int,
	getFile FileSource,
) (*Bundle, error) {
	bundle := &Bundle{
		Repo:    snap.Identity.Slug(),
		Summary: summary,
		Listing: snap.Tree.TopLevel(),
	}

	if bundle.EstimatedTokens() > maxTokens {
		return nil, apperr.Newf(apperr.KindContextTooLarge,
			"repository summary and structure alone exceed the %d token budget", maxTokens)
	}

	for _, c := range a.rank(snap, query, pinned, history) {
		if len(bundle.Files) >= a.maxFiles {
			break
		}

		excerpt := FileExcerpt{Path: c.node.Path}
		if c.node.Binary || c.node.Truncated {
			excerpt.Omitted = true
		} else {
			content, err := getFile(ctx, c.node.Path)
			if err != nil {
				a.logger.Debug("excerpt skipped", "path", c.node.Path, "error", err)
				continue
			}
			excerpt.Body, excerpt.Clipped = clip(content, a.perFileBytes)
		}

		bundle.Files = append(bundle.Files, excerpt)
		if bundle.EstimatedTokens() > maxTokens {
			bundle.Files = bundle.Files[:len(bundle.Files)-1]
			break
		}
	}

	return bundle, nil
}

type candidate struct {
	node  *repo.Node
	score int
}

// rank orders the snapshot's files by relevance to the query. Ties break
// by shorter path first, then lexicographic path order, so ranking is a
// total order and assembly stays deterministic.
func (a *Assembler) rank(snap *repo.Snapshot, query string, pinned []string, history []session.Turn) []candidate {
	queryTokens := tokenize(query)
	pinnedSet := make(map[string]bool, len(pinned))
	for _, p := range pinned {
		pinnedSet[p] = true
	}

	var candidates []candidate
	for _, node := range snap.Tree.Files() {
		score := 0

		overlap := 0
		pathToks := tokenize(node.Path)
		for tok := range queryTokens {
			if pathToks[tok] {
				overlap++
			}
		}
		score += overlap * scorePathOverlap

		if pinnedSet[node.Path] {
			score += scorePinned
		}

		score += historyBonus(node.Path, history)

		candidates = append(candidates, candidate{node: node, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		pi, pj := candidates[i].node.Path, candidates[j].node.Path
		if len(pi) != len(pj) {
			return len(pi) < len(pj)
		}
		return pi < pj
	})
	return candidates
}

// historyBonus rewards files mentioned in the conversation, weighting the
// trailing turns above older ones.
func historyBonus(path string, history []session.Turn) int {
	lowered := strings.ToLower(path)
	for i := len(history) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(history[i].Text), lowered) {
			if len(history)-i <= recentTurnWindow {
				return scoreRecentTurn
			}
			return scoreOlderTurn
		}
	}
	return 0
}

// tokenize splits text into a set of lowercase alphanumeric tokens. Single
// characters are dropped; they match everything and rank nothing.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 1 {
			tokens[strings.ToLower(cur.String())] = true
		}
		cur.Reset()
	}
	for _, r := range text {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// clip cuts content to maxBytes at the last full line inside the budget.
func clip(content string, maxBytes int) (string, bool) {
	if len(content) <= maxBytes {
		return content, false
	}
	cut := maxBytes
	if i := strings.LastIndexByte(content[:maxBytes], '\n'); i > 0 {
		cut = i
	}
	return content[:cut], true
}

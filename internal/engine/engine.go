// Package engine orchestrates one request end to end: ensure the repo
// index is warm, assemble prompt context, invoke the LLM gateway, and keep
// the conversation transcript truthful in success and failure alike.
package engine

import (
	"log/slog"
	"time"

	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/contextbuild"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/markdown"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

// State names one phase of the per-request state machine. Failed is
// reachable from every other state.
type State int

const (
	StateReceived State = iota
	StateContextBuilding
	StateInvoking
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateContextBuilding:
		return "context_building"
	case StateInvoking:
		return "invoking"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxTokens is the prompt budget handed to the assembler.
	DefaultMaxTokens = 12000
	// DefaultSummaryTTL is how long derived summaries stay cached. The
	// content-hash key already invalidates them on change; the TTL just
	// bounds memory.
	DefaultSummaryTTL = 24 * time.Hour
)

// Config wires the engine's collaborators.
type Config struct {
	Index     *repo.Index
	Assembler *contextbuild.Assembler
	Gateway   llm.Gateway
	Cache     *cache.Cache
	Sessions  *session.Store
	Logger    *slog.Logger

	MaxTokens  int
	SummaryTTL time.Duration
}

// Engine coordinates the repo index, context assembler, LLM gateway,
// cache, and session store.
type Engine struct {
	index      *repo.Index
	assembler  *contextbuild.Assembler
	gateway    llm.Gateway
	cache      *cache.Cache
	sessions   *session.Store
	excerpter  *markdown.Excerpter
	logger     *slog.Logger
	maxTokens  int
	summaryTTL time.Duration
}

// New creates an engine. Zero MaxTokens and SummaryTTL take the defaults.
func New(cfg Config) *Engine {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = DefaultSummaryTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		index:      cfg.Index,
		assembler:  cfg.Assembler,
		gateway:    cfg.Gateway,
		cache:      cfg.Cache,
		sessions:   cfg.Sessions,
		excerpter:  markdown.NewExcerpter(),
		logger:     cfg.Logger,
		maxTokens:  cfg.MaxTokens,
		summaryTTL: cfg.SummaryTTL,
	}
}

package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/contextbuild"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

// stubSource serves a fixed file set without touching the network.
type stubSource struct {
	fetches atomic.Int64

	eager map[string]string
	files map[string]string

	// onFetch, when set, runs at the start of every Fetch.
	onFetch func()
}

func (s *stubSource) Fetch(ctx context.Context, id repoid.Identity, token string) (*repo.Snapshot, error) {
	s.fetches.Add(1)
	if s.onFetch != nil {
		s.onFetch()
	}

	tree := repo.NewFileTree()
	for path, content := range s.eager {
		tree.AddFile(path, int64(len(content)), false, false)
	}
	for path, content := range s.files {
		tree.AddFile(path, int64(len(content)), false, false)
	}

	eager := make(map[string]string, len(s.eager))
	for k, v := range s.eager {
		eager[k] = v
	}

	return &repo.Snapshot{
		Identity:  id.WithRef("main"),
		CommitSHA: "c0ffee01",
		FetchedAt: time.Now(),
		Tree:      tree,
		Eager:     eager,
	}, nil
}

func (s *stubSource) FetchFile(ctx context.Context, id repoid.Identity, path, token string) (string, error) {
	if content, ok := s.files[path]; ok {
		return content, nil
	}
	return "", apperr.Newf(apperr.KindNotFound, "no such file %q", path)
}

func newTestEngine(t *testing.T, src repo.Source, gw llm.Gateway) *Engine {
	t.Helper()
	store := cache.New(256, time.Hour)
	return New(Config{
		Index:     repo.NewIndex(src, store, nil, time.Minute, nil),
		Assembler: contextbuild.NewAssembler(0, 0, nil),
		Gateway:   gw,
		Cache:     store,
		Sessions:  session.NewStore(),
	})
}

func testIdentity(t *testing.T) repoid.Identity {
	t.Helper()
	id, err := repoid.Parse("https://github.com/acme/widget", "")
	require.NoError(t, err)
	return id
}

func TestQuery_AnswersAndRecordsTranscript(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n\nA widget service.\n"},
		files: map[string]string{"server.go": "package widget\n\nfunc Serve() {}\n"},
	}
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		return "it starts the server", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	res, err := eng.Query(context.Background(), QueryRequest{
		Identity:  id,
		SessionID: "s1",
		Query:     "what does server.go do?",
	})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, "it starts the server", res.Response)

	history := eng.sessions.History(id.Key(), "s1")
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, "what does server.go do?", history[0].Text)
	assert.Equal(t, session.RoleAssistant, history[1].Role)
	assert.Equal(t, "it starts the server", history[1].Text)
}

func TestQuery_ContextCarriesRelevantFile(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n"},
		files: map[string]string{
			"server.go": "package widget // listener setup\n",
			"parse.go":  "package widget // parsing\n",
		},
	}
	var seen string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		seen = req.Context
		return "ok", nil
	}}
	eng := newTestEngine(t, src, gw)

	_, err := eng.Query(context.Background(), QueryRequest{
		Identity:  testIdentity(t),
		SessionID: "s1",
		Query:     "explain the server setup",
	})
	require.NoError(t, err)
	assert.Contains(t, seen, "--- File: server.go ---")
	assert.Contains(t, seen, "listener setup")
}

func TestQuery_PinnedFilesAlwaysIncluded(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n"},
		files: map[string]string{
			"docs/obscure.txt": "pinned detail\n",
			"server.go":        "package widget\n",
		},
	}
	var seen string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		seen = req.Context
		return "ok", nil
	}}
	eng := newTestEngine(t, src, gw)

	_, err := eng.Query(context.Background(), QueryRequest{
		Identity:     testIdentity(t),
		SessionID:    "s1",
		Query:        "anything",
		ContextFiles: []string{"docs/obscure.txt"},
	})
	require.NoError(t, err)
	assert.Contains(t, seen, "--- File: docs/obscure.txt ---")
	assert.Contains(t, seen, "pinned detail")
}

func TestQuery_EmptyQueryRejectedBeforeTranscript(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	gw := &llm.StubGateway{}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	res, err := eng.Query(context.Background(), QueryRequest{
		Identity:  id,
		SessionID: "s1",
		Query:     "   ",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidRequest))
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, eng.sessions.History(id.Key(), "s1"))
	assert.Zero(t, gw.Calls())
}

func TestQuery_FailureAppendsSystemTurn(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		return "", apperr.New(apperr.KindRateLimited, "model rate limited")
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	res, err := eng.Query(context.Background(), QueryRequest{
		Identity:  id,
		SessionID: "s1",
		Query:     "why does it fail?",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindRateLimited))
	assert.Equal(t, StateFailed, res.State)

	history := eng.sessions.History(id.Key(), "s1")
	require.Len(t, history, 2)
	assert.Equal(t, session.RoleUser, history[0].Role)
	assert.Equal(t, session.RoleSystem, history[1].Role)
	assert.Contains(t, history[1].Text, "could not be answered")
}

func TestQuery_HistoryExcludesCurrentQuestion(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	var histories [][]llm.Message
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		histories = append(histories, req.History)
		return "answer", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	for _, q := range []string{"first question", "second question"} {
		_, err := eng.Query(context.Background(), QueryRequest{
			Identity: id, SessionID: "s1", Query: q,
		})
		require.NoError(t, err)
	}

	require.Len(t, histories, 2)
	assert.Empty(t, histories[0])
	require.Len(t, histories[1], 2)
	assert.Equal(t, llm.RoleUser, histories[1][0].Role)
	assert.Equal(t, "first question", histories[1][0].Content)
	assert.Equal(t, llm.RoleAssistant, histories[1][1].Role)
}

func TestQuery_InterleavedTurnsStayInHistory(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	var seen []llm.Message
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		seen = req.History
		return "answer", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	// Another request for the same session reaches the transcript while
	// this one is still fetching the snapshot.
	src.onFetch = func() {
		eng.sessions.Append(id.Key(), "s1", session.RoleUser, "interleaved question")
	}

	_, err := eng.Query(context.Background(), QueryRequest{
		Identity: id, SessionID: "s1", Query: "my question",
	})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "interleaved question", seen[0].Content)
	for _, msg := range seen {
		assert.NotEqual(t, "my question", msg.Content,
			"the request's own turn must not appear in history")
	}
}

func TestQuery_TinyBudgetFailsWithContextTooLarge(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	gw := &llm.StubGateway{}
	store := cache.New(256, time.Hour)
	eng := New(Config{
		Index:     repo.NewIndex(src, store, nil, time.Minute, nil),
		Assembler: contextbuild.NewAssembler(0, 0, nil),
		Gateway:   gw,
		Cache:     store,
		Sessions:  session.NewStore(),
		MaxTokens: 1,
	})

	_, err := eng.Query(context.Background(), QueryRequest{
		Identity: testIdentity(t), SessionID: "s1", Query: "hello there",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindContextTooLarge))
	assert.Zero(t, gw.Calls())
}

func TestInfo_SummaryCachedByCommit(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n\n## Usage\n\nRun it.\n"},
		files: map[string]string{"main.go": "package main\n"},
	}
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		return "a widget service", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	info, err := eng.Info(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "acme/widget", info.Repo)
	assert.Equal(t, "main", info.Ref)
	assert.Equal(t, "c0ffee01", info.CommitSHA)
	assert.Equal(t, "a widget service", info.Summary)
	assert.Contains(t, info.TopLevel, "README.md")

	again, err := eng.Info(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, info.Summary, again.Summary)
	assert.EqualValues(t, 1, gw.Calls())
}

func TestInfo_SummaryPromptCarriesReadme(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n\n## Install\n\nInstructions here.\n"},
	}
	var prompt string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		prompt = req.Query
		return "summary", nil
	}}
	eng := newTestEngine(t, src, gw)

	_, err := eng.Info(context.Background(), testIdentity(t), "")
	require.NoError(t, err)
	assert.Contains(t, prompt, "acme/widget")
	assert.Contains(t, prompt, "README outline:")
	assert.Contains(t, prompt, "Instructions here.")
}

func TestQuery_ReusesSummaryAfterInfo(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n"},
		files: map[string]string{"main.go": "package main\n"},
	}
	var queryContext string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		if req.System == querySystemPrompt {
			queryContext = req.Context
			return "answer", nil
		}
		return "a widget service", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	_, err := eng.Info(context.Background(), id, "")
	require.NoError(t, err)

	_, err = eng.Query(context.Background(), QueryRequest{
		Identity: id, SessionID: "s1", Query: "what is this?",
	})
	require.NoError(t, err)
	assert.Contains(t, queryContext, "Repository summary:")
	assert.Contains(t, queryContext, "a widget service")
}

func TestSummarizeFile_CachedByContentHash(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n"},
		files: map[string]string{"server.go": "package widget\n\nfunc Serve() {}\n"},
	}
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		return "sets up the server", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	first, err := eng.SummarizeFile(context.Background(), id, "server.go", "")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "sets up the server", first.Summary)

	second, err := eng.SummarizeFile(context.Background(), id, "server.go", "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Summary, second.Summary)
	assert.EqualValues(t, 1, gw.Calls())
}

func TestSummarizeFile_MissingFileIsNotFound(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	eng := newTestEngine(t, src, &llm.StubGateway{})

	_, err := eng.SummarizeFile(context.Background(), testIdentity(t), "ghost.go", "")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSummarizeFile_LargeFileTruncated(t *testing.T) {
	big := strings.Repeat("x := 1\n", fileSummaryBytes)
	src := &stubSource{
		eager: map[string]string{"README.md": "# Widget\n"},
		files: map[string]string{"huge.go": big},
	}
	var prompt string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		prompt = req.Query
		return "summary of prefix", nil
	}}
	eng := newTestEngine(t, src, gw)

	res, err := eng.SummarizeFile(context.Background(), testIdentity(t), "huge.go", "")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Contains(t, prompt, "File content (truncated):")
	assert.Less(t, len(prompt), len(big))
}

func TestDependencies_ParsesAndExplains(t *testing.T) {
	pkg := `{
  "name": "widget-ui",
  "dependencies": {"react": "^18.2.0"},
  "devDependencies": {"jest": "^29.0.0"}
}`
	src := &stubSource{
		eager: map[string]string{
			"README.md":    "# Widget\n",
			"package.json": pkg,
		},
	}
	var prompt string
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		prompt = req.Query
		return "a React frontend tested with Jest", nil
	}}
	eng := newTestEngine(t, src, gw)

	report, err := eng.Dependencies(context.Background(), testIdentity(t), "")
	require.NoError(t, err)
	assert.Equal(t, "^18.2.0", report.Dependencies["npm"]["react"])
	assert.Equal(t, "^29.0.0", report.Dependencies["npm-dev"]["jest"])
	assert.Equal(t, "a React frontend tested with Jest", report.Explanation)
	assert.Contains(t, prompt, "package.json")
	assert.Contains(t, prompt, "react")
}

func TestDependencies_NoManifestsSkipsModel(t *testing.T) {
	src := &stubSource{eager: map[string]string{"README.md": "# Widget\n"}}
	gw := &llm.StubGateway{}
	eng := newTestEngine(t, src, gw)

	report, err := eng.Dependencies(context.Background(), testIdentity(t), "")
	require.NoError(t, err)
	assert.Empty(t, report.Dependencies)
	assert.Equal(t, noManifestsExplanation, report.Explanation)
	assert.Zero(t, gw.Calls())
}

func TestDependencies_ExplanationCached(t *testing.T) {
	src := &stubSource{
		eager: map[string]string{
			"README.md":        "# Widget\n",
			"requirements.txt": "flask==2.3.0\nrequests>=2.28\n",
		},
	}
	gw := &llm.StubGateway{Respond: func(req llm.Request) (string, error) {
		return "a Flask service", nil
	}}
	eng := newTestEngine(t, src, gw)
	id := testIdentity(t)

	first, err := eng.Dependencies(context.Background(), id, "")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := eng.Dependencies(context.Background(), id, "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Explanation, second.Explanation)
	assert.EqualValues(t, 1, gw.Calls())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "received", StateReceived.String())
	assert.Equal(t, "context_building", StateContextBuilding.String())
	assert.Equal(t, "invoking", StateInvoking.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "failed", StateFailed.String())
}

package contextbuild

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atharvvvg/LLMRepo/internal/apperr"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

func testSnapshot(t *testing.T, contents map[string]string) (*repo.Snapshot, FileSource) {
	t.Helper()
	id, err := repoid.Parse("https://github.com/acme/widget", "main")
	require.NoError(t, err)

	tree := repo.NewFileTree()
	for path, content := range contents {
		tree.AddFile(path, int64(len(content)), false, false)
	}

	snap := &repo.Snapshot{
		Identity:  id,
		FetchedAt: time.Now(),
		Tree:      tree,
	}
	getFile := func(_ context.Context, path string) (string, error) {
		if c, ok := contents[path]; ok {
			return c, nil
		}
		return "", apperr.Newf(apperr.KindNotFound, "no file %q", path)
	}
	return snap, getFile
}

func TestBuild_Deterministic(t *testing.T) {
	snap, getFile := testSnapshot(t, map[string]string{
		"README.md":        "# Widget\nA parser of things.",
		"src/parser.go":    "package parser",
		"src/lexer.go":     "package lexer",
		"docs/parser.md":   "parser docs",
		"cmd/widget/m.go":  "package main",
		"internal/util.go": "package util",
	})
	a := NewAssembler(0, 0, nil)

	first, err := a.Build(context.Background(), snap, "summary", "how does the parser work", nil, nil, 4000, getFile)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := a.Build(context.Background(), snap, "summary", "how does the parser work", nil, nil, 4000, getFile)
		require.NoError(t, err)
		assert.Equal(t, first.Render(), again.Render(), "identical inputs must produce byte-identical bundles")
	}
}

func TestBuild_QueryOverlapRanksFirst(t *testing.T) {
	snap, getFile := testSnapshot(t, map[string]string{
		"src/parser.go": "package parser",
		"src/render.go": "package render",
		"zz/notes.txt":  "misc",
	})
	a := NewAssembler(0, 0, nil)

	bundle, err := a.Build(context.Background(), snap, "", "explain the parser", nil, nil, 4000, getFile)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Files)
	assert.Equal(t, "src/parser.go", bundle.Files[0].Path)
}

func TestBuild_PinnedFilesOutrankOverlap(t *testing.T) {
	snap, getFile := testSnapshot(t, map[string]string{
		"src/parser.go": "package parser",
		"src/config.go": "package config",
	})
	a := NewAssembler(0, 0, nil)

	bundle, err := a.Build(context.Background(), snap, "", "parser", []string{"src/config.go"}, nil, 4000, getFile)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Files)
	assert.Equal(t, "src/config.go", bundle.Files[0].Path, "user-pinned file wins over single-token overlap")
}

func TestBuild_HistoryMentionBoostsFile(t *testing.T) {
	snap, getFile := testSnapshot(t, map[string]string{
		"aa/one.go": "package one",
		"bb/two.go": "package two",
	})
	a := NewAssembler(0, 0, nil)

	history := []session.Turn{
		{Role: session.RoleUser, Text: "what is in bb/two.go?"},
	}
	bundle, err := a.Build(context.Background(), snap, "", "unrelated question", nil, history, 4000, getFile)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Files)
	assert.Equal(t, "bb/two.go", bundle.Files[0].Path)
}

func TestBuild_TieBreakShorterThenLex(t *testing.T) {
	snap, getFile := testSnapshot(t, map[string]string{
		"bbb.go":  "b",
		"aaaa.go": "a",
		"ccc.go":  "c",
	})
	a := NewAssembler(0, 0, nil)

	bundle, err := a.Build(context.Background(), snap, "", "nothing matches", nil, nil, 4000, getFile)
	require.NoError(t, err)
	require.Len(t, bundle.Files, 3)
	assert.Equal(t, "bbb.go", bundle.Files[0].Path, "shorter path sorts first")
	assert.Equal(t, "ccc.go", bundle.Files[1].Path, "equal length breaks lexicographically")
	assert.Equal(t, "aaaa.go", bundle.Files[2].Path)
}

func TestBuild_NeverExceedsBudget(t *testing.T) {
	big := strings.Repeat("line of source code\n", 200)
	snap, getFile := testSnapshot(t, map[string]string{
		"a.go": big,
		"b.go": big,
		"c.go": big,
	})
	a := NewAssembler(0, 0, nil)

	maxTokens := 600
	bundle, err := a.Build(context.Background(), snap, "", "code", nil, nil, maxTokens, getFile)
	require.NoError(t, err)
	assert.LessOrEqual(t, bundle.EstimatedTokens(), maxTokens)
	assert.Less(t, len(bundle.Files), 3, "budget should stop the greedy fill early")
}

func TestBuild_ContextTooLargeWhenMandatoryHeadOverflows(t *testing.T) {
	contents := map[string]string{}
	for i := 0; i < 40; i++ {
		contents[strings.Repeat("x", 40)+string(rune('a'+i))+".go"] = "content"
	}
	snap, getFile := testSnapshot(t, contents)
	a := NewAssembler(0, 0, nil)

	_, err := a.Build(context.Background(), snap, strings.Repeat("long summary ", 50), "q", nil, nil, 10, getFile)
	require.Error(t, err)
	assert.Equal(t, apperr.KindContextTooLarge, apperr.KindOf(err))
}

func TestBuild_BinaryAndOversizedBodiesOmitted(t *testing.T) {
	id, err := repoid.Parse("https://github.com/acme/widget", "main")
	require.NoError(t, err)

	tree := repo.NewFileTree()
	tree.AddFile("logo.png", 100, false, true)
	tree.AddFile("huge.sql", 10<<20, true, false)
	snap := &repo.Snapshot{Identity: id, Tree: tree}

	getFile := func(context.Context, string) (string, error) {
		t.Fatal("bodies of omitted files must never be fetched")
		return "", nil
	}

	a := NewAssembler(0, 0, nil)
	bundle, err := a.Build(context.Background(), snap, "", "logo huge sql png", nil, nil, 4000, getFile)
	require.NoError(t, err)

	require.Len(t, bundle.Files, 2)
	for _, f := range bundle.Files {
		assert.True(t, f.Omitted)
		assert.Empty(t, f.Body)
	}
	assert.Contains(t, bundle.Render(), "[content omitted]")
}

func TestClip_CutsAtLineBoundary(t *testing.T) {
	content := "first line\nsecond line\nthird line\n"
	clipped, wasClipped := clip(content, 15)
	assert.True(t, wasClipped)
	assert.Equal(t, "first line", clipped)

	whole, wasClipped := clip("short", 100)
	assert.False(t, wasClipped)
	assert.Equal(t, "short", whole)
}

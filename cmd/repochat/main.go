// Package main provides the repochat CLI for one-shot repository analysis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/contextbuild"
	"github.com/atharvvvg/LLMRepo/internal/engine"
	ghclient "github.com/atharvvvg/LLMRepo/internal/github"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/manifest"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

var (
	flagBranch string

	rootCmd = &cobra.Command{
		Use:   "repochat",
		Short: "Ask questions about GitHub repositories from the command line",
		Long: `CLI for the repository context engine.

Fetches a bounded snapshot of a GitHub repository and answers questions,
summarizes files, or explains the dependency stack using an LLM.

Environment variables:
  OPENAI_API_KEY OpenAI API key (required)
  OPENAI_MODEL   Chat model override (optional)
  GITHUB_TOKEN   GitHub token for private repos and higher rate limits (optional)`,
	}

	infoCmd = &cobra.Command{
		Use:   "info <repo-url>",
		Short: "Show repository structure and a generated summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	queryCmd = &cobra.Command{
		Use:   "query <repo-url> <question>",
		Short: "Ask a natural-language question about a repository",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuery,
	}

	summarizeCmd = &cobra.Command{
		Use:   "summarize <repo-url> <file-path>",
		Short: "Summarize one file from a repository",
		Args:  cobra.ExactArgs(2),
		RunE:  runSummarize,
	}

	depsCmd = &cobra.Command{
		Use:   "deps <repo-url>",
		Short: "List and explain a repository's dependencies",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeps,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBranch, "branch", "b", "", "branch or tag to read (default: repository default branch)")
	rootCmd.AddCommand(infoCmd, queryCmd, summarizeCmd, depsCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine wires the full pipeline for a single CLI invocation.
func newEngine() (*engine.Engine, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := ghclient.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	gateway, err := llm.NewOpenAIGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM gateway: %w", err)
	}

	manifests := manifest.NewRegistry(nil, logger)
	fetcher := ghclient.NewFetcher(client, ghclient.Limits{}, manifests, 0, logger)
	store := cache.New(256, time.Hour)

	return engine.New(engine.Config{
		Index:     repo.NewIndex(fetcher, store, manifests, 0, logger),
		Assembler: contextbuild.NewAssembler(0, 0, logger),
		Gateway:   gateway,
		Cache:     store,
		Sessions:  session.NewStore(),
		Logger:    logger,
	}), nil
}

func parseRepo(rawURL string) (repoid.Identity, error) {
	return repoid.Parse(rawURL, flagBranch)
}

func runInfo(cmd *cobra.Command, args []string) error {
	id, err := parseRepo(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	info, err := eng.Info(context.Background(), id, "")
	if err != nil {
		return err
	}

	fmt.Printf("Repository: %s (branch %s, commit %s)\n", info.Repo, info.Ref, shortSHA(info.CommitSHA))
	fmt.Printf("Files: %d", info.Files)
	if info.TreeTruncated {
		fmt.Print(" (listing truncated)")
	}
	fmt.Println()
	fmt.Println()
	fmt.Println("Top-level structure:")
	for _, entry := range info.TopLevel {
		fmt.Printf("  %s\n", entry)
	}
	fmt.Println()
	fmt.Println(info.Summary)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	id, err := parseRepo(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	result, err := eng.Query(context.Background(), engine.QueryRequest{
		Identity:  id,
		SessionID: session.NewID(),
		Query:     args[1],
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Response)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	id, err := parseRepo(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	summary, err := eng.SummarizeFile(context.Background(), id, args[1], "")
	if err != nil {
		return err
	}

	if summary.Truncated {
		fmt.Println("(summary covers the beginning of a large file)")
		fmt.Println()
	}
	fmt.Println(summary.Summary)
	return nil
}

func runDeps(cmd *cobra.Command, args []string) error {
	id, err := parseRepo(args[0])
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	report, err := eng.Dependencies(context.Background(), id, "")
	if err != nil {
		return err
	}

	for eco, pkgs := range report.Dependencies {
		fmt.Printf("%s:\n", eco)
		for name, version := range pkgs {
			fmt.Printf("  %s %s\n", name, version)
		}
	}
	if len(report.Dependencies) > 0 {
		fmt.Println()
	}
	fmt.Println(report.Explanation)
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

// Package main provides the repository context server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/atharvvvg/LLMRepo/internal/api"
	"github.com/atharvvvg/LLMRepo/internal/cache"
	"github.com/atharvvvg/LLMRepo/internal/contextbuild"
	"github.com/atharvvvg/LLMRepo/internal/engine"
	ghclient "github.com/atharvvvg/LLMRepo/internal/github"
	"github.com/atharvvvg/LLMRepo/internal/llm"
	"github.com/atharvvvg/LLMRepo/internal/manifest"
	mcpserver "github.com/atharvvvg/LLMRepo/internal/mcp"
	"github.com/atharvvvg/LLMRepo/internal/repo"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Configuration from environment
	port := getEnv("PORT", "8080")
	cacheEntries := getEnvInt("CACHE_MAX_ENTRIES", 2048)
	snapshotTTL := getEnvDuration("SNAPSHOT_TTL", repo.DefaultSnapshotTTL)
	summaryTTL := getEnvDuration("SUMMARY_TTL", engine.DefaultSummaryTTL)
	maxTokens := getEnvInt("MAX_CONTEXT_TOKENS", engine.DefaultMaxTokens)

	client, err := ghclient.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	gateway, err := llm.NewOpenAIGateway()
	if err != nil {
		return fmt.Errorf("failed to create LLM gateway: %w", err)
	}

	manifests := manifest.NewRegistry(nil, logger)
	fetcher := ghclient.NewFetcher(client, ghclient.Limits{}, manifests, 0, logger)
	store := cache.New(cacheEntries, 48*time.Hour)

	eng := engine.New(engine.Config{
		Index:      repo.NewIndex(fetcher, store, manifests, snapshotTTL, logger),
		Assembler:  contextbuild.NewAssembler(0, 0, logger),
		Gateway:    gateway,
		Cache:      store,
		Sessions:   session.NewStore(),
		Logger:     logger,
		MaxTokens:  maxTokens,
		SummaryTTL: summaryTTL,
	})

	// REST API plus the MCP endpoint on one mux
	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(eng, logger).Handler())
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(mcpserver.NewServer(eng)))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

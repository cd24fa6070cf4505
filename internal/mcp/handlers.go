package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atharvvvg/LLMRepo/internal/engine"
	"github.com/atharvvvg/LLMRepo/internal/repoid"
	"github.com/atharvvvg/LLMRepo/internal/session"
)

// makeQueryHandler creates the query_repo tool handler. A missing
// session_id starts a fresh conversation and returns its identifier so
// the client can follow up.
func makeQueryHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, QueryRepoInput,
) (*mcp.CallToolResult, QueryRepoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryRepoInput) (
		*mcp.CallToolResult, QueryRepoOutput, error,
	) {
		id, err := repoid.Parse(input.RepoURL, input.Branch)
		if err != nil {
			return nil, QueryRepoOutput{}, err
		}

		sessionID := input.SessionID
		if sessionID == "" {
			sessionID = session.NewID()
		}

		result, err := eng.Query(ctx, engine.QueryRequest{
			Identity:     id,
			SessionID:    sessionID,
			Query:        input.Query,
			ContextFiles: input.ContextFiles,
		})
		if err != nil {
			return nil, QueryRepoOutput{}, fmt.Errorf("query failed: %w", err)
		}

		return nil, QueryRepoOutput{
			Response:  result.Response,
			SessionID: sessionID,
		}, nil
	}
}

// makeInfoHandler creates the repo_info tool handler.
func makeInfoHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, RepoInfoInput,
) (*mcp.CallToolResult, RepoInfoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RepoInfoInput) (
		*mcp.CallToolResult, RepoInfoOutput, error,
	) {
		id, err := repoid.Parse(input.RepoURL, input.Branch)
		if err != nil {
			return nil, RepoInfoOutput{}, err
		}

		info, err := eng.Info(ctx, id, "")
		if err != nil {
			return nil, RepoInfoOutput{}, fmt.Errorf("info failed: %w", err)
		}

		return nil, RepoInfoOutput{
			Repo:      info.Repo,
			Branch:    info.Ref,
			CommitSHA: info.CommitSHA,
			Files:     info.Files,
			Structure: info.TopLevel,
			Summary:   info.Summary,
		}, nil
	}
}

// makeSummarizeHandler creates the summarize_file tool handler.
func makeSummarizeHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, SummarizeFileInput,
) (*mcp.CallToolResult, SummarizeFileOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeFileInput) (
		*mcp.CallToolResult, SummarizeFileOutput, error,
	) {
		id, err := repoid.Parse(input.RepoURL, input.Branch)
		if err != nil {
			return nil, SummarizeFileOutput{}, err
		}

		summary, err := eng.SummarizeFile(ctx, id, input.FilePath, "")
		if err != nil {
			return nil, SummarizeFileOutput{}, fmt.Errorf("summarize failed: %w", err)
		}

		return nil, SummarizeFileOutput{
			FilePath:  summary.Path,
			Summary:   summary.Summary,
			Truncated: summary.Truncated,
		}, nil
	}
}

// makeDependenciesHandler creates the list_dependencies tool handler.
func makeDependenciesHandler(eng *engine.Engine) func(
	context.Context, *mcp.CallToolRequest, ListDependenciesInput,
) (*mcp.CallToolResult, ListDependenciesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDependenciesInput) (
		*mcp.CallToolResult, ListDependenciesOutput, error,
	) {
		id, err := repoid.Parse(input.RepoURL, input.Branch)
		if err != nil {
			return nil, ListDependenciesOutput{}, err
		}

		report, err := eng.Dependencies(ctx, id, "")
		if err != nil {
			return nil, ListDependenciesOutput{}, fmt.Errorf("dependency analysis failed: %w", err)
		}

		deps := report.Dependencies
		if deps == nil {
			deps = map[string]map[string]string{} // non-nil for JSON marshaling
		}
		return nil, ListDependenciesOutput{
			Dependencies: deps,
			Explanation:  report.Explanation,
		}, nil
	}
}

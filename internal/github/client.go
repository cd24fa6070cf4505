// Package github implements the repository fetcher over the GitHub REST
// API with rate-limit-aware transport and bounded snapshot fetching.
package github

import (
	"os"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support. Requests
// may carry a caller-supplied access token for private repositories; the
// GITHUB_TOKEN environment variable serves as the server-wide fallback.
type Client struct {
	base *github.Client
}

// NewClient creates a GitHub client whose transport waits out secondary
// rate limits instead of failing. Primary rate limit exhaustion still
// surfaces as a RateLimited error so callers can message a retry hint.
func NewClient() (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{base: ghClient}, nil
}

// rest returns the API client to use for one request. A non-empty token
// yields an authenticated derivative; tokens are never stored.
func (c *Client) rest(token string) *github.Client {
	if token == "" {
		return c.base
	}
	return c.base.WithAuthToken(token)
}

// Package githubdocs fetches course documents from a GitHub repository
// and feeds them through the ingestion pipeline, so a course corpus can
// live in a repo instead of on local disk.
package githubdocs

import (
	"os"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limit handling. Both
// primary and secondary rate limits are waited out automatically.
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client. When GITHUB_TOKEN is set the
// client authenticates with it for the higher request quota.
func NewClient() (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}

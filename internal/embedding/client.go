// Package embedding turns text into vectors with OpenAI's embedding API,
// batching requests and backing off on rate limits.
package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
)

// Client wraps the OpenAI client. The same underlying client backs both
// embedding generation here and chat generation elsewhere.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client. It reads OPENAI_API_KEY from the
// environment and returns an error if it is not set.
func NewClient() (*Client, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go reads OPENAI_API_KEY from the environment itself
	client := openai.NewClient()

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages.
func (c *Client) Client() *openai.Client {
	return c.client
}

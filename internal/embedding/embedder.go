package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v2"
	"golang.org/x/time/rate"
)

const (
	// EmbeddingModel is the OpenAI model used for generating embeddings.
	EmbeddingModel = "text-embedding-3-small"

	// EmbeddingDimension is the vector dimension for text-embedding-3-small.
	// This matches storage.VectorDimension (1536).
	EmbeddingDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// Embedder generates embeddings with text-embedding-3-small. It batches
// requests, optionally paces them with a client-side request limiter, and
// retries rate-limited batches with exponential backoff.
type Embedder struct {
	client    *Client
	batchSize int
	limiter   *rate.Limiter
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithRequestsPerMinute caps embedding API calls at rpm requests per
// minute. Zero or negative disables client-side pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(e *Embedder) {
		if rpm > 0 {
			e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

// NewEmbedder creates an Embedder with the given client and batch size.
// If batchSize is 0, DefaultBatchSize (500) is used.
func NewEmbedder(client *Client, batchSize int, opts ...Option) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	e := &Embedder{
		client:    client,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateEmbeddings generates embeddings for the given texts, in input
// order. Returns [][]float32 to match storage vector types.
func (e *Embedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	return embeddings[0], nil
}

// embedBatchWithRetry embeds a single batch, retrying with exponential
// backoff on rate limit errors (HTTP 429). Other errors are permanent.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: EmbeddingModel,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // retried with backoff
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the float64 vectors the API returns into the
// float32 form the store keeps.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

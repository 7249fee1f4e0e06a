// Package search resolves fuzzy course references against the catalog
// and runs filtered semantic search over course content.
package search

import (
	"context"
	"fmt"

	"github.com/bull/coursechat/internal/storage"
)

// DefaultResolveThreshold is the minimum catalog similarity for a course
// reference to count as resolved.
const DefaultResolveThreshold = 0.35

// Store is the slice of the index the search layer reads.
type Store interface {
	QueryCatalog(ctx context.Context, embedding []float32, limit int) ([]*storage.ScoredCourse, error)
	SearchContent(ctx context.Context, embedding []float32, limit int, filter storage.ContentFilter) ([]*storage.ScoredChunk, error)
	GetCourse(ctx context.Context, title string) (*storage.CourseRecord, error)
}

// Embedder turns query text into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Resolver maps fuzzy course references ("the MCP course") to canonical
// catalog titles by embedding similarity.
type Resolver struct {
	store     Store
	embedder  Embedder
	threshold float64
}

// NewResolver creates a Resolver. A threshold of 0 or below selects
// DefaultResolveThreshold.
func NewResolver(store Store, embedder Embedder, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultResolveThreshold
	}
	return &Resolver{
		store:     store,
		embedder:  embedder,
		threshold: threshold,
	}
}

// Resolve returns the canonical title of the catalog course most similar
// to name. If the best match scores below the threshold, or the catalog
// is empty, it returns ErrNoMatchingCourse.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, name)
	if err != nil {
		return "", fmt.Errorf("embed course name: %w", err)
	}

	matches, err := r.store.QueryCatalog(ctx, embedding, 1)
	if err != nil {
		return "", fmt.Errorf("query catalog: %w", err)
	}
	if len(matches) == 0 || matches[0].Score < r.threshold {
		return "", fmt.Errorf("%w: %q", ErrNoMatchingCourse, name)
	}
	return matches[0].Course.Title, nil
}

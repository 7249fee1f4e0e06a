package githubdocs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/coursechat/internal/ingest"
)

// Source lists and fetches remote course documents. *Fetcher is the
// GitHub-backed implementation.
type Source interface {
	ListDocs(ctx context.Context) ([]string, error)
	FetchDoc(ctx context.Context, relativePath string) (*Doc, error)
	LatestCommitSHA(ctx context.Context) (string, error)
}

// Ingester indexes one course document.
type Ingester interface {
	IngestDocument(ctx context.Context, source, content string) (*ingest.DocumentResult, error)
}

// SyncResult reports one synchronization run.
type SyncResult struct {
	CommitSHA    string
	TotalDocs    int
	IngestedDocs int
	TotalChunks  int
	FailedDocs   []ingest.FailedDoc
	Duration     time.Duration
}

// Syncer pulls course documents from a remote repository and feeds them
// through the ingestion pipeline. Every fetched document is re-ingested,
// replacing whatever the index held for its course.
type Syncer struct {
	source   Source
	ingester Ingester
	logger   *slog.Logger
}

// NewSyncer creates a Syncer. A nil logger falls back to slog.Default().
func NewSyncer(source Source, ingester Ingester, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{source: source, ingester: ingester, logger: logger}
}

// Sync fetches and ingests every course document in the remote corpus.
// Documents are processed one at a time to stay friendly to the GitHub
// API; a document that fails to fetch or ingest is recorded and does
// not stop the run.
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()

	sha, err := s.source.LatestCommitSHA(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest commit: %w", err)
	}

	paths, err := s.source.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote documents: %w", err)
	}

	result := &SyncResult{CommitSHA: sha, TotalDocs: len(paths)}
	s.logger.Info("Starting remote sync", "commit", sha, "documents", len(paths))

	for _, relPath := range paths {
		doc, err := s.source.FetchDoc(ctx, relPath)
		if err != nil {
			s.logger.Warn("Failed to fetch document", "source", relPath, "error", err)
			result.FailedDocs = append(result.FailedDocs, ingest.FailedDoc{Path: relPath, Reason: err.Error()})
			continue
		}

		docResult, err := s.ingester.IngestDocument(ctx, doc.Path, doc.Content)
		if err != nil {
			s.logger.Warn("Failed to ingest document", "source", relPath, "error", err)
			result.FailedDocs = append(result.FailedDocs, ingest.FailedDoc{Path: relPath, Reason: err.Error()})
			continue
		}

		result.IngestedDocs++
		result.TotalChunks += docResult.Chunks
	}

	result.Duration = time.Since(start)
	s.logger.Info("Remote sync complete",
		"ingested", result.IngestedDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration)
	return result, nil
}

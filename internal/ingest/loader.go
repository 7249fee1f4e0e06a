package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bull/coursechat/internal/coursedoc"
)

// DefaultParallelism bounds how many documents a directory load
// processes at once.
const DefaultParallelism = 4

// Result reports a directory ingestion run.
type Result struct {
	TotalDocs   int
	NewCourses  int
	SkippedDocs int
	TotalChunks int
	FailedDocs  []FailedDoc
	Duration    time.Duration
}

// FailedDoc names a document that could not be ingested and why.
type FailedDoc struct {
	Path   string
	Reason string
}

// IngestDir loads every course document under dir, skipping documents
// whose course title is already indexed. Documents are processed in
// parallel, bounded by DefaultParallelism; a document that fails to
// parse or store is recorded and does not stop the run.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()

	paths, err := listCourseFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list course documents in %s: %w", dir, err)
	}

	existing, err := p.store.ListCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexed courses: %w", err)
	}

	claimed := make(map[string]bool, len(existing))
	for _, title := range existing {
		claimed[title] = true
	}

	result := &Result{TotalDocs: len(paths)}
	var mu sync.Mutex // guards claimed and result

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultParallelism)

	for _, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				p.recordFailure(result, &mu, path, err)
				return nil
			}

			doc, err := coursedoc.ParseFile(path, data)
			if err != nil {
				p.recordFailure(result, &mu, path, err)
				return nil
			}

			mu.Lock()
			if claimed[doc.Title] {
				result.SkippedDocs++
				mu.Unlock()
				p.logger.Debug("Skipping already indexed course", "source", path, "course", doc.Title)
				return nil
			}
			claimed[doc.Title] = true
			mu.Unlock()

			docResult, err := p.ingestParsed(ctx, path, doc)
			if err != nil {
				// Release the claim so a later run can retry the course.
				mu.Lock()
				delete(claimed, doc.Title)
				mu.Unlock()
				p.recordFailure(result, &mu, path, err)
				return nil
			}

			mu.Lock()
			result.NewCourses++
			result.TotalChunks += docResult.Chunks
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	p.logger.Info("Directory ingestion complete",
		"dir", dir,
		"total", result.TotalDocs,
		"new", result.NewCourses,
		"skipped", result.SkippedDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) recordFailure(result *Result, mu *sync.Mutex, path string, err error) {
	p.logger.Warn("Failed to ingest document", "source", path, "error", err)
	mu.Lock()
	result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: path, Reason: err.Error()})
	mu.Unlock()
}

// listCourseFiles walks dir and returns every course document path,
// sorted by WalkDir's lexical order. Hidden files and directories are
// ignored.
func listCourseFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isCourseFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// isCourseFile reports whether the path looks like a course document.
func isCourseFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Package ingest turns course documents into index records: parse,
// chunk, embed, then replace the course's catalog entry and content in
// the store. Writes for the same course are serialized so re-ingestion
// never interleaves with itself.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bull/coursechat/internal/coursedoc"
	"github.com/bull/coursechat/internal/storage"
)

// Store is the slice of the index the pipeline writes.
type Store interface {
	UpsertCourse(ctx context.Context, course *storage.CourseRecord) error
	ReplaceCourseContent(ctx context.Context, courseTitle string, chunks []*storage.ChunkRecord) error
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// Embedder turns batches of text into vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentResult reports one document's ingestion.
type DocumentResult struct {
	Source      string
	CourseTitle string
	Lessons     int
	Chunks      int
}

// Pipeline orchestrates parse, chunk, embed and store for course
// documents.
type Pipeline struct {
	store    Store
	embedder Embedder
	chunker  *coursedoc.Chunker
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates an ingestion pipeline. A nil logger falls back to
// slog.Default().
func NewPipeline(store Store, embedder Embedder, chunker *coursedoc.Chunker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// IngestDocument parses and indexes one course document, replacing any
// previously indexed course with the same title. source is the file
// name or another origin label; its extension selects the parser.
func (p *Pipeline) IngestDocument(ctx context.Context, source, content string) (*DocumentResult, error) {
	doc, err := coursedoc.ParseFile(source, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	return p.ingestParsed(ctx, source, doc)
}

// ingestParsed chunks, embeds and stores an already parsed document.
func (p *Pipeline) ingestParsed(ctx context.Context, source string, doc *coursedoc.Document) (*DocumentResult, error) {
	chunks := p.chunker.Chunk(doc)

	// One batch covers the catalog vector and every chunk. The catalog
	// vector embeds the bare title, so fuzzy course references resolve
	// against names rather than content.
	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, doc.Title)
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}

	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", source, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embed %s: got %d embeddings for %d texts", source, len(embeddings), len(texts))
	}

	course := &storage.CourseRecord{
		Title:      doc.Title,
		Link:       doc.Link,
		Instructor: doc.Instructor,
		Lessons:    lessonRefs(doc),
		Embedding:  embeddings[0],
	}
	records := make([]*storage.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &storage.ChunkRecord{
			CourseTitle:  chunk.CourseTitle,
			LessonNumber: chunk.LessonNumber,
			ChunkIndex:   chunk.Index,
			Text:         chunk.Text,
			Embedding:    embeddings[i+1],
		}
	}

	// The per-course lock covers the whole clear-then-insert sequence.
	// Content lands before the catalog entry, so a new course only
	// becomes resolvable once its chunks are all in place.
	lock := p.courseLock(doc.Title)
	lock.Lock()
	defer lock.Unlock()

	if err := p.store.ReplaceCourseContent(ctx, doc.Title, records); err != nil {
		return nil, fmt.Errorf("store content for %q: %w", doc.Title, err)
	}
	if err := p.store.UpsertCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("store catalog entry for %q: %w", doc.Title, err)
	}

	p.logger.Info("Ingested course document",
		"source", source,
		"course", doc.Title,
		"lessons", len(doc.Lessons),
		"chunks", len(records))

	return &DocumentResult{
		Source:      source,
		CourseTitle: doc.Title,
		Lessons:     len(doc.Lessons),
		Chunks:      len(records),
	}, nil
}

// courseLock returns the mutex serializing writes for one course title,
// creating it on first use.
func (p *Pipeline) courseLock(title string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[title]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[title] = lock
	}
	return lock
}

func lessonRefs(doc *coursedoc.Document) []storage.LessonRef {
	if len(doc.Lessons) == 0 {
		return nil
	}
	refs := make([]storage.LessonRef, len(doc.Lessons))
	for i, lesson := range doc.Lessons {
		refs[i] = storage.LessonRef{
			Number: lesson.Number,
			Title:  lesson.Title,
			Link:   lesson.Link,
		}
	}
	return refs
}

// Package storage persists the course index in Qdrant: a catalog
// collection for resolving course names by title similarity, and a
// content collection for semantic search over course chunks.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and health checks.
type Store struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewStore creates a Qdrant-backed store with health validation.
// It performs a health check with retry on startup and fails fast if
// Qdrant is unreachable.
func NewStore(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &Store{
		client: client,
		host:   host,
		port:   port,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollections creates both collections and their payload indexes
// if they do not exist yet. Idempotent.
func (s *Store) EnsureCollections(ctx context.Context) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	present := map[string]bool{}
	for _, name := range existing {
		present[name] = true
	}

	if !present[CatalogCollection] {
		if err := s.createCollection(ctx, CatalogCollection); err != nil {
			return err
		}
	}
	if !present[ContentCollection] {
		if err := s.createCollection(ctx, ContentCollection); err != nil {
			return err
		}
	}
	return nil
}

// createCollection creates one collection with cosine vectors and the
// payload indexes its filters rely on.
func (s *Store) createCollection(ctx context.Context, name string) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	// Without these indexes exact-match filtering degrades badly.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      "course_title",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create course_title index on %s: %w", name, err)
	}

	if name == ContentCollection {
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      "lesson_number",
			FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create lesson_number index on %s: %w", name, err)
		}
	}
	return nil
}

// Reset drops and recreates both collections. Used for full re-indexing.
func (s *Store) Reset(ctx context.Context) error {
	for _, name := range []string{CatalogCollection, ContentCollection} {
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
	}
	return s.EnsureCollections(ctx)
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff retry.
func (s *Store) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// UpsertCourse writes the catalog entry for a course. The point ID is
// derived from the title, so writing the same course twice replaces the
// earlier entry.
func (s *Store) UpsertCourse(ctx context.Context, course *CourseRecord) error {
	if len(course.Embedding) != VectorDimension {
		return fmt.Errorf("%w: course %q has %d dimensions, expected %d",
			ErrDimensionMismatch, course.Title, len(course.Embedding), VectorDimension)
	}

	lessonsJSON, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("failed to encode lessons for %q: %w", course.Title, err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(coursePointID(course.Title)),
		Vectors: qdrant.NewVectors(course.Embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"course_title": course.Title,
			"course_link":  course.Link,
			"instructor":   course.Instructor,
			"lessons_json": string(lessonsJSON),
			"lesson_count": len(course.Lessons),
		}),
	}

	return s.upsertWithRetry(ctx, CatalogCollection, []*qdrant.PointStruct{point})
}

// ReplaceCourseContent deletes every content point of the course, then
// writes the new chunks in batches of 100. Together with title-derived
// point IDs this keeps re-ingestion idempotent.
func (s *Store) ReplaceCourseContent(ctx context.Context, courseTitle string, chunks []*ChunkRecord) error {
	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ContentCollection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("course_title", courseTitle)},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to clear content for %q: %w", courseTitle, err)
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			payload := map[string]any{
				"course_title": chunk.CourseTitle,
				"chunk_index":  chunk.ChunkIndex,
				"text":         chunk.Text,
			}
			// Preamble chunks carry no lesson_number key at all, so
			// lesson filters can never match them.
			if chunk.LessonNumber != nil {
				payload["lesson_number"] = *chunk.LessonNumber
			}
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunkPointID(chunk.CourseTitle, chunk.ChunkIndex)),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(payload),
			}
		}

		if err := s.upsertWithRetry(ctx, ContentCollection, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteCourse removes a course from both collections.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ContentCollection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("course_title", title)},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete content for %q: %w", title, err)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CatalogCollection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(coursePointID(title))),
	})
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry for %q: %w", title, err)
	}
	return nil
}

// QueryCatalog returns the catalog entries most similar to the query
// embedding, ordered by score descending.
func (s *Store) QueryCatalog(ctx context.Context, embedding []float32, limit int) ([]*ScoredCourse, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CatalogCollection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}

	courses := make([]*ScoredCourse, 0, len(results))
	for _, result := range results {
		courses = append(courses, &ScoredCourse{
			Course: courseFromPayload(result.Payload),
			Score:  float64(result.Score),
		})
	}
	return courses, nil
}

// SearchContent performs vector similarity search over content chunks,
// optionally narrowed by exact course title and lesson number matches.
// Returns the top limit chunks ordered by score descending.
func (s *Store) SearchContent(ctx context.Context, embedding []float32, limit int, filter ContentFilter) ([]*ScoredChunk, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	var must []*qdrant.Condition
	if filter.CourseTitle != "" {
		must = append(must, qdrant.NewMatch("course_title", filter.CourseTitle))
	}
	if filter.LessonNumber != nil {
		must = append(must, qdrant.NewMatchInt("lesson_number", int64(*filter.LessonNumber)))
	}
	var qf *qdrant.Filter
	if len(must) > 0 {
		qf = &qdrant.Filter{Must: must}
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: ContentCollection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search content: %w", err)
	}

	chunks := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, &ScoredChunk{
			Chunk: chunkFromPayload(result.Payload),
			Score: float64(result.Score),
		})
	}
	return chunks, nil
}

// GetCourse retrieves a catalog entry by its exact title.
// Returns ErrCourseNotFound if the course is not in the catalog.
func (s *Store) GetCourse(ctx context.Context, title string) (*CourseRecord, error) {
	results, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CatalogCollection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(coursePointID(title))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get course %q: %w", title, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, title)
	}
	return courseFromPayload(results[0].Payload), nil
}

// ListCourseTitles returns every course title in the catalog, sorted.
// Uses the Scroll API to page through the collection.
func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	var titles []string
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CatalogCollection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("course_title"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll catalog: %w", err)
		}

		for _, result := range results {
			if title := result.Payload["course_title"].GetStringValue(); title != "" {
				titles = append(titles, title)
			}
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Strings(titles)
	return titles, nil
}

// Counts reports how many courses and chunks are indexed.
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	catalog, err := s.client.GetCollectionInfo(ctx, CatalogCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog collection: %w", err)
	}
	content, err := s.client.GetCollectionInfo(ctx, ContentCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to get content collection: %w", err)
	}
	return &Counts{
		Courses: catalog.GetPointsCount(),
		Chunks:  content.GetPointsCount(),
	}, nil
}

// courseFromPayload rebuilds a catalog record from point payload.
// The lesson list travels as a JSON string; a corrupt value degrades to
// an empty outline rather than failing the read.
func courseFromPayload(payload map[string]*qdrant.Value) *CourseRecord {
	course := &CourseRecord{
		Title:      payload["course_title"].GetStringValue(),
		Link:       payload["course_link"].GetStringValue(),
		Instructor: payload["instructor"].GetStringValue(),
	}
	if raw := payload["lessons_json"].GetStringValue(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &course.Lessons); err != nil {
			course.Lessons = nil
		}
	}
	return course
}

// chunkFromPayload rebuilds a content record from point payload.
func chunkFromPayload(payload map[string]*qdrant.Value) *ChunkRecord {
	chunk := &ChunkRecord{
		CourseTitle: payload["course_title"].GetStringValue(),
		ChunkIndex:  int(payload["chunk_index"].GetIntegerValue()),
		Text:        payload["text"].GetStringValue(),
	}
	if v, ok := payload["lesson_number"]; ok {
		n := int(v.GetIntegerValue())
		chunk.LessonNumber = &n
	}
	return chunk
}

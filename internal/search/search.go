package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/coursechat/internal/storage"
)

// DefaultMaxResults caps how many chunks a search returns by default.
const DefaultMaxResults = 5

// Attribution names where a piece of answer material came from.
type Attribution struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	Link         string `json:"link,omitempty"`
}

// Label renders the attribution as display text.
func (a Attribution) Label() string {
	if a.LessonNumber != nil {
		return fmt.Sprintf("%s - Lesson %d", a.CourseTitle, *a.LessonNumber)
	}
	return a.CourseTitle
}

// Request describes one content search. CourseName and LessonNumber are
// optional narrowing filters; Limit of 0 uses the service default.
type Request struct {
	Query        string
	CourseName   string
	LessonNumber *int
	Limit        int
}

// Match is one retrieved chunk with its provenance.
type Match struct {
	Text        string
	Score       float64
	Attribution Attribution
}

// Results is the outcome of a search. No matches with a nil error is a
// meaningful outcome: the filters were valid but nothing relevant is
// indexed.
type Results struct {
	Matches        []Match
	ResolvedCourse string // canonical title when a course filter was applied
}

// Empty reports whether the search surfaced nothing.
func (r *Results) Empty() bool {
	return len(r.Matches) == 0
}

// Outline is a course skeleton for structural questions.
type Outline struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []storage.LessonRef
}

// Service runs resolve-then-search over the course index.
type Service struct {
	store      Store
	embedder   Embedder
	resolver   *Resolver
	maxResults int
	logger     *slog.Logger
}

// NewService creates the search service. maxResults of 0 selects
// DefaultMaxResults; a nil logger falls back to slog.Default().
func NewService(store Store, embedder Embedder, resolver *Resolver, maxResults int, logger *slog.Logger) *Service {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		embedder:   embedder,
		resolver:   resolver,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search resolves an optional course reference, embeds the query and
// returns the best-matching chunks under the requested filters.
// An unresolvable course reference returns ErrNoMatchingCourse.
func (s *Service) Search(ctx context.Context, req Request) (*Results, error) {
	results := &Results{}
	filter := storage.ContentFilter{LessonNumber: req.LessonNumber}

	if req.CourseName != "" {
		title, err := s.resolver.Resolve(ctx, req.CourseName)
		if err != nil {
			return nil, err
		}
		filter.CourseTitle = title
		results.ResolvedCourse = title
	}

	embedding, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	scored, err := s.store.SearchContent(ctx, embedding, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}

	links := s.linkIndex(ctx, scored)
	for _, sc := range scored {
		results.Matches = append(results.Matches, Match{
			Text:  sc.Chunk.Text,
			Score: sc.Score,
			Attribution: Attribution{
				CourseTitle:  sc.Chunk.CourseTitle,
				LessonNumber: sc.Chunk.LessonNumber,
				Link:         links.lookup(sc.Chunk.CourseTitle, sc.Chunk.LessonNumber),
			},
		})
	}

	s.logger.Debug("content search",
		"query", req.Query,
		"course", results.ResolvedCourse,
		"matches", len(results.Matches))
	return results, nil
}

// Outline resolves a course reference and returns its lesson skeleton.
func (s *Service) Outline(ctx context.Context, courseName string) (*Outline, error) {
	title, err := s.resolver.Resolve(ctx, courseName)
	if err != nil {
		return nil, err
	}

	course, err := s.store.GetCourse(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("get course %q: %w", title, err)
	}

	return &Outline{
		Title:      course.Title,
		Link:       course.Link,
		Instructor: course.Instructor,
		Lessons:    course.Lessons,
	}, nil
}

type courseLinks struct {
	courseLink string
	lessons    map[int]string
}

type linkTable map[string]courseLinks

// linkIndex fetches catalog entries for every distinct course in the
// result set so matches can carry lesson links. Lookup failures degrade
// to linkless attributions instead of failing the search.
func (s *Service) linkIndex(ctx context.Context, scored []*storage.ScoredChunk) linkTable {
	table := linkTable{}
	for _, sc := range scored {
		title := sc.Chunk.CourseTitle
		if _, ok := table[title]; ok {
			continue
		}
		course, err := s.store.GetCourse(ctx, title)
		if err != nil {
			s.logger.Warn("link lookup failed", "course", title, "error", err)
			table[title] = courseLinks{}
			continue
		}
		cl := courseLinks{courseLink: course.Link, lessons: map[int]string{}}
		for _, lesson := range course.Lessons {
			if lesson.Link != "" {
				cl.lessons[lesson.Number] = lesson.Link
			}
		}
		table[title] = cl
	}
	return table
}

// lookup picks the most specific link available: the lesson link when
// present, otherwise the course link.
func (t linkTable) lookup(title string, lesson *int) string {
	cl, ok := t[title]
	if !ok {
		return ""
	}
	if lesson != nil {
		if link, ok := cl.lessons[*lesson]; ok {
			return link
		}
	}
	return cl.courseLink
}

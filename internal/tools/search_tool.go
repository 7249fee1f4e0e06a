package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bull/coursechat/internal/generate"
	"github.com/bull/coursechat/internal/search"
)

// SearchToolName is the name the provider calls content search by.
const SearchToolName = "search_course_content"

// Searcher is the search capability the tool fronts.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Results, error)
}

// SearchTool lets the provider search course materials with optional
// course and lesson filters.
type SearchTool struct {
	search Searcher
}

// NewSearchTool creates the content search tool.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{search: searcher}
}

// Definition describes the tool for the provider.
func (t *SearchTool) Definition() generate.ToolDef {
	return generate.ToolDef{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and optional lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Intro')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

type searchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

// Execute runs a search. An unresolvable course name and an empty result
// set both come back as explanatory text, so the provider can tell the
// user what happened instead of failing the turn.
func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (string, []search.Attribution, error) {
	var parsed searchArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	if strings.TrimSpace(parsed.Query) == "" {
		return "", nil, fmt.Errorf("%w: query is required", ErrBadArguments)
	}

	results, err := t.search.Search(ctx, search.Request{
		Query:        parsed.Query,
		CourseName:   parsed.CourseName,
		LessonNumber: parsed.LessonNumber,
	})
	if err != nil {
		if errors.Is(err, search.ErrNoMatchingCourse) {
			return fmt.Sprintf("No course found matching '%s'", parsed.CourseName), nil, nil
		}
		return "", nil, err
	}

	if results.Empty() {
		return emptySearchMessage(parsed, results.ResolvedCourse), nil, nil
	}

	blocks := make([]string, 0, len(results.Matches))
	sources := make([]search.Attribution, 0, len(results.Matches))
	for _, match := range results.Matches {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", match.Attribution.Label(), match.Text))
		sources = append(sources, match.Attribution)
	}
	return strings.Join(blocks, "\n\n"), sources, nil
}

// emptySearchMessage names the filters that were applied, so "nothing
// found" is distinguishable from "nothing found in that lesson".
func emptySearchMessage(parsed searchArgs, resolvedCourse string) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	course := resolvedCourse
	if course == "" {
		course = parsed.CourseName
	}
	if course != "" {
		fmt.Fprintf(&b, " in course '%s'", course)
	}
	if parsed.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *parsed.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

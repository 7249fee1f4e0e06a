package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/storage"
)

// Searcher is the slice of the search service the tools call.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Results, error)
	Outline(ctx context.Context, courseName string) (*search.Outline, error)
}

// Index is the slice of the store the catalog tools read.
type Index interface {
	ListCourseTitles(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (*storage.Counts, error)
}

// makeSearchHandler creates the search_course_content tool handler.
// An unresolvable course name and an empty result set are reported via
// the Message field, not as errors, so MCP clients can relay what
// happened.
func makeSearchHandler(searcher Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		results, err := searcher.Search(ctx, search.Request{
			Query:        input.Query,
			CourseName:   input.CourseName,
			LessonNumber: input.LessonNumber,
			Limit:        input.MaxResults,
		})
		if err != nil {
			if errors.Is(err, search.ErrNoMatchingCourse) {
				return nil, SearchOutput{
					Results: []SearchResult{},
					Message: fmt.Sprintf("No course found matching '%s'. Use list_courses to see what is indexed.", input.CourseName),
				}, nil
			}
			return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if results.Empty() {
			return nil, SearchOutput{
				Results:        []SearchResult{},
				ResolvedCourse: results.ResolvedCourse,
				Message:        "No relevant course material found. Try broader terms or drop the lesson filter.",
			}, nil
		}

		out := SearchOutput{
			Results:        make([]SearchResult, 0, len(results.Matches)),
			ResolvedCourse: results.ResolvedCourse,
		}
		for _, match := range results.Matches {
			out.Results = append(out.Results, SearchResult{
				CourseTitle:  match.Attribution.CourseTitle,
				LessonNumber: match.Attribution.LessonNumber,
				Text:         match.Text,
				Link:         match.Attribution.Link,
				Score:        match.Score,
			})
		}
		return nil, out, nil
	}
}

// makeOutlineHandler creates the get_course_outline tool handler.
func makeOutlineHandler(searcher Searcher) func(
	context.Context, *mcp.CallToolRequest, OutlineInput,
) (*mcp.CallToolResult, OutlineOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input OutlineInput) (
		*mcp.CallToolResult, OutlineOutput, error,
	) {
		outline, err := searcher.Outline(ctx, input.CourseName)
		if err != nil {
			if errors.Is(err, search.ErrNoMatchingCourse) {
				return nil, OutlineOutput{
					Message: fmt.Sprintf("No course found matching '%s'. Use list_courses to see what is indexed.", input.CourseName),
				}, nil
			}
			return nil, OutlineOutput{}, fmt.Errorf("outline failed: %w", err)
		}

		lessons := make([]OutlineLesson, 0, len(outline.Lessons))
		for _, lesson := range outline.Lessons {
			lessons = append(lessons, OutlineLesson{
				Number: lesson.Number,
				Title:  lesson.Title,
				Link:   lesson.Link,
			})
		}
		return nil, OutlineOutput{
			CourseTitle: outline.Title,
			CourseLink:  outline.Link,
			Instructor:  outline.Instructor,
			Lessons:     lessons,
		}, nil
	}
}

// makeListCoursesHandler creates the list_courses tool handler.
func makeListCoursesHandler(index Index) func(
	context.Context, *mcp.CallToolRequest, ListCoursesInput,
) (*mcp.CallToolResult, ListCoursesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListCoursesInput) (
		*mcp.CallToolResult, ListCoursesOutput, error,
	) {
		titles, err := index.ListCourseTitles(ctx)
		if err != nil {
			return nil, ListCoursesOutput{}, fmt.Errorf("list courses: %w", err)
		}
		if titles == nil {
			titles = []string{}
		}
		return nil, ListCoursesOutput{Titles: titles, Count: len(titles)}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(index Index) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		counts, err := index.Counts(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("count index: %w", err)
		}
		titles, err := index.ListCourseTitles(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("list courses: %w", err)
		}
		if titles == nil {
			titles = []string{}
		}
		return nil, StatusOutput{
			Courses: counts.Courses,
			Chunks:  counts.Chunks,
			Titles:  titles,
		}, nil
	}
}

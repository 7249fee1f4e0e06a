package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bull/coursechat/internal/search"
	"github.com/bull/coursechat/internal/storage"
)

type fakeSearcher struct {
	results *search.Results
	err     error
	lastReq search.Request
}

func (f *fakeSearcher) Search(ctx context.Context, req search.Request) (*search.Results, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeOutliner struct {
	outline *search.Outline
	err     error
}

func (f *fakeOutliner) Outline(ctx context.Context, courseName string) (*search.Outline, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.outline, nil
}

func intPtr(n int) *int { return &n }

// TestRegistry_DefinitionsInRegistrationOrder tests stable definition
// ordering.
func TestRegistry_DefinitionsInRegistrationOrder(t *testing.T) {
	registry := NewRegistry(
		NewSearchTool(&fakeSearcher{}),
		NewOutlineTool(&fakeOutliner{}),
	)

	defs := registry.Definitions()
	if len(defs) != 2 {
		t.Fatalf("Expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != SearchToolName || defs[1].Name != OutlineToolName {
		t.Errorf("Definition order: got %q, %q", defs[0].Name, defs[1].Name)
	}
}

// TestRegistry_UnknownTool tests the unknown-name sentinel.
func TestRegistry_UnknownTool(t *testing.T) {
	registry := NewRegistry(NewSearchTool(&fakeSearcher{}))

	_, _, err := registry.Execute(context.Background(), "no_such_tool", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("Expected ErrUnknownTool, got %v", err)
	}
}

// TestRegistry_RoutesByName tests dispatch to the right tool.
func TestRegistry_RoutesByName(t *testing.T) {
	searcher := &fakeSearcher{results: &search.Results{}}
	registry := NewRegistry(NewSearchTool(searcher), NewOutlineTool(&fakeOutliner{}))

	_, _, err := registry.Execute(context.Background(), SearchToolName, json.RawMessage(`{"query":"routed"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if searcher.lastReq.Query != "routed" {
		t.Errorf("Search tool did not receive the call: %+v", searcher.lastReq)
	}
}

// TestSearchTool_FormatsResultsWithSources tests result blocks and the
// attributions returned alongside.
func TestSearchTool_FormatsResultsWithSources(t *testing.T) {
	searcher := &fakeSearcher{
		results: &search.Results{
			ResolvedCourse: "Intro to MCP",
			Matches: []search.Match{
				{
					Text: "Servers expose tools.",
					Attribution: search.Attribution{
						CourseTitle:  "Intro to MCP",
						LessonNumber: intPtr(1),
						Link:         "https://example.com/mcp/1",
					},
				},
				{
					Text: "Clients call them.",
					Attribution: search.Attribution{
						CourseTitle:  "Intro to MCP",
						LessonNumber: intPtr(2),
					},
				},
			},
		},
	}
	tool := NewSearchTool(searcher)

	text, sources, err := tool.Execute(context.Background(),
		json.RawMessage(`{"query":"servers","course_name":"mcp"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(text, "[Intro to MCP - Lesson 1]\nServers expose tools.") {
		t.Errorf("Missing first result block:\n%s", text)
	}
	if !strings.Contains(text, "[Intro to MCP - Lesson 2]\nClients call them.") {
		t.Errorf("Missing second result block:\n%s", text)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].Link != "https://example.com/mcp/1" {
		t.Errorf("Source link: got %q", sources[0].Link)
	}
}

// TestSearchTool_EmptyResultsNamesFilters tests the explanatory message
// for empty outcomes.
func TestSearchTool_EmptyResultsNamesFilters(t *testing.T) {
	searcher := &fakeSearcher{
		results: &search.Results{ResolvedCourse: "Intro to MCP"},
	}
	tool := NewSearchTool(searcher)

	text, sources, err := tool.Execute(context.Background(),
		json.RawMessage(`{"query":"q","course_name":"mcp","lesson_number":3}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if text != "No relevant content found in course 'Intro to MCP' in lesson 3." {
		t.Errorf("Empty message: got %q", text)
	}
	if len(sources) != 0 {
		t.Errorf("Empty result should carry no sources, got %d", len(sources))
	}
}

// TestSearchTool_EmptyResultsNoFilters tests the plain empty message.
func TestSearchTool_EmptyResultsNoFilters(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{results: &search.Results{}})

	text, _, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"q"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if text != "No relevant content found." {
		t.Errorf("Empty message: got %q", text)
	}
}

// TestSearchTool_UnresolvableCourseIsText tests that a failed course
// resolution becomes a readable result, not an error.
func TestSearchTool_UnresolvableCourseIsText(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{err: fmt.Errorf("%w: %q", search.ErrNoMatchingCourse, "ghost")})

	text, sources, err := tool.Execute(context.Background(),
		json.RawMessage(`{"query":"q","course_name":"ghost"}`))
	if err != nil {
		t.Fatalf("Execute should not fail: %v", err)
	}
	if text != "No course found matching 'ghost'" {
		t.Errorf("Resolution message: got %q", text)
	}
	if len(sources) != 0 {
		t.Errorf("Expected no sources, got %d", len(sources))
	}
}

// TestSearchTool_BadArguments tests malformed JSON and a missing query.
func TestSearchTool_BadArguments(t *testing.T) {
	tool := NewSearchTool(&fakeSearcher{})

	_, _, err := tool.Execute(context.Background(), json.RawMessage(`{not json`))
	if !errors.Is(err, ErrBadArguments) {
		t.Errorf("Malformed JSON: expected ErrBadArguments, got %v", err)
	}

	_, _, err = tool.Execute(context.Background(), json.RawMessage(`{"course_name":"x"}`))
	if !errors.Is(err, ErrBadArguments) {
		t.Errorf("Missing query: expected ErrBadArguments, got %v", err)
	}
}

// TestSearchTool_InfrastructureErrorPropagates tests that store-level
// failures are not swallowed.
func TestSearchTool_InfrastructureErrorPropagates(t *testing.T) {
	wantErr := errors.New("qdrant down")
	tool := NewSearchTool(&fakeSearcher{err: wantErr})

	_, _, err := tool.Execute(context.Background(), json.RawMessage(`{"query":"q"}`))
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected propagated store error, got %v", err)
	}
}

// TestOutlineTool_FormatsOutline tests the outline rendering and its
// attribution.
func TestOutlineTool_FormatsOutline(t *testing.T) {
	outliner := &fakeOutliner{
		outline: &search.Outline{
			Title:      "Intro to MCP",
			Link:       "https://example.com/mcp",
			Instructor: "Jane Doe",
			Lessons: []storage.LessonRef{
				{Number: 0, Title: "Welcome"},
				{Number: 1, Title: "Servers"},
			},
		},
	}
	tool := NewOutlineTool(outliner)

	text, sources, err := tool.Execute(context.Background(),
		json.RawMessage(`{"course_name":"mcp"}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, want := range []string{
		"Course: Intro to MCP",
		"Course Link: https://example.com/mcp",
		"Instructor: Jane Doe",
		"Lessons (2):",
		"Lesson 0: Welcome",
		"Lesson 1: Servers",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Outline missing %q:\n%s", want, text)
		}
	}

	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}
	if sources[0].CourseTitle != "Intro to MCP" || sources[0].Link != "https://example.com/mcp" {
		t.Errorf("Outline source: got %+v", sources[0])
	}
	if sources[0].LessonNumber != nil {
		t.Errorf("Outline source should not carry a lesson number")
	}
}

// TestOutlineTool_UnresolvableCourseIsText tests the not-found message.
func TestOutlineTool_UnresolvableCourseIsText(t *testing.T) {
	tool := NewOutlineTool(&fakeOutliner{err: search.ErrNoMatchingCourse})

	text, _, err := tool.Execute(context.Background(), json.RawMessage(`{"course_name":"ghost"}`))
	if err != nil {
		t.Fatalf("Execute should not fail: %v", err)
	}
	if text != "No course found matching 'ghost'" {
		t.Errorf("Resolution message: got %q", text)
	}
}

// TestOutlineTool_MissingCourseName tests argument validation.
func TestOutlineTool_MissingCourseName(t *testing.T) {
	tool := NewOutlineTool(&fakeOutliner{})

	_, _, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if !errors.Is(err, ErrBadArguments) {
		t.Errorf("Expected ErrBadArguments, got %v", err)
	}
}

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

// OutlineToolName is the name the provider calls outline retrieval by.
const OutlineToolName = "get_course_outline"

// Outliner is the outline capability the tool fronts.
type Outliner interface {
	Outline(ctx context.Context, courseName string) (*search.Outline, error)
}

// OutlineTool lets the provider fetch a course's lesson structure for
// questions about what a course covers.
type OutlineTool struct {
	outlines Outliner
}

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(outliner Outliner) *OutlineTool {
	return &OutlineTool{outlines: outliner}
}

// Definition describes the tool for the provider.
func (t *OutlineTool) Definition() generate.ToolDef {
	return generate.ToolDef{
		Name:        OutlineToolName,
		Description: "Get the full outline of a course: title, link, instructor and the complete lesson list",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Intro')",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

type outlineArgs struct {
	CourseName string `json:"course_name"`
}

// Execute fetches and formats the outline. An unresolvable course name
// comes back as explanatory text rather than an error.
func (t *OutlineTool) Execute(ctx context.Context, args json.RawMessage) (string, []search.Attribution, error) {
	var parsed outlineArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	if strings.TrimSpace(parsed.CourseName) == "" {
		return "", nil, fmt.Errorf("%w: course_name is required", ErrBadArguments)
	}

	outline, err := t.outlines.Outline(ctx, parsed.CourseName)
	if err != nil {
		if errors.Is(err, search.ErrNoMatchingCourse) {
			return fmt.Sprintf("No course found matching '%s'", parsed.CourseName), nil, nil
		}
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", outline.Title)
	if outline.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.Link)
	}
	if outline.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", outline.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(outline.Lessons))
	for _, lesson := range outline.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	sources := []search.Attribution{{CourseTitle: outline.Title, Link: outline.Link}}
	return strings.TrimRight(b.String(), "\n"), sources, nil
}

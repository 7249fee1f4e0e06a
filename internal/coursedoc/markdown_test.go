package coursedoc

import (
	"errors"
	"strings"
	"testing"
)

// TestParseMarkdown_CourseStructure tests H1 title, metadata lines and
// lesson sections under H2 headings.
func TestParseMarkdown_CourseStructure(t *testing.T) {
	input := `# Go Deep Dive

Course Link: https://example.com/go
Course Instructor: Rob

A course about Go internals.

## Lesson 1: Scheduler

Lesson Link: https://example.com/go/1

Goroutines are cheap. The scheduler multiplexes them.

## Lesson 2: Memory

The allocator has size classes.
`

	doc, err := ParseMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}

	if doc.Title != "Go Deep Dive" {
		t.Errorf("Title: got %q", doc.Title)
	}
	if doc.Link != "https://example.com/go" {
		t.Errorf("Link: got %q", doc.Link)
	}
	if doc.Instructor != "Rob" {
		t.Errorf("Instructor: got %q", doc.Instructor)
	}
	if doc.Preamble != "A course about Go internals." {
		t.Errorf("Preamble: got %q", doc.Preamble)
	}

	if len(doc.Lessons) != 2 {
		t.Fatalf("Expected 2 lessons, got %d", len(doc.Lessons))
	}
	if doc.Lessons[0].Number != 1 || doc.Lessons[0].Title != "Scheduler" {
		t.Errorf("Lesson 0: got number=%d title=%q", doc.Lessons[0].Number, doc.Lessons[0].Title)
	}
	if doc.Lessons[0].Link != "https://example.com/go/1" {
		t.Errorf("Lesson 0 link: got %q", doc.Lessons[0].Link)
	}
	if doc.Lessons[0].Body != "Goroutines are cheap. The scheduler multiplexes them." {
		t.Errorf("Lesson 0 body: got %q", doc.Lessons[0].Body)
	}
	if doc.Lessons[1].Body != "The allocator has size classes." {
		t.Errorf("Lesson 1 body: got %q", doc.Lessons[1].Body)
	}
}

// TestParseMarkdown_HeadingLink tests that a link inside a lesson
// heading becomes the lesson link.
func TestParseMarkdown_HeadingLink(t *testing.T) {
	input := `# Linked Course

## [Lesson 1: Intro](https://example.com/l1)

Intro body.
`

	doc, err := ParseMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if len(doc.Lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(doc.Lessons))
	}
	if doc.Lessons[0].Link != "https://example.com/l1" {
		t.Errorf("Lesson link from heading: got %q", doc.Lessons[0].Link)
	}
	if doc.Lessons[0].Title != "Intro" {
		t.Errorf("Lesson title: got %q", doc.Lessons[0].Title)
	}
}

// TestParseMarkdown_NonLessonSectionJoinsPreamble tests that H2 sections
// that are not lessons contribute to the preamble.
func TestParseMarkdown_NonLessonSectionJoinsPreamble(t *testing.T) {
	input := `# Mixed Course

Opening words.

## Resources

Reading list here.

## Lesson 1: Real
Actual lesson.
`

	doc, err := ParseMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if !strings.Contains(doc.Preamble, "Opening words.") {
		t.Errorf("Preamble missing opening text: %q", doc.Preamble)
	}
	if !strings.Contains(doc.Preamble, "Resources") || !strings.Contains(doc.Preamble, "Reading list here.") {
		t.Errorf("Preamble missing non-lesson section: %q", doc.Preamble)
	}
	if len(doc.Lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(doc.Lessons))
	}
}

// TestParseMarkdown_NoHeadingsFallsBack tests plain-format content in a
// markdown file.
func TestParseMarkdown_NoHeadingsFallsBack(t *testing.T) {
	input := `Course Title: Plain in MD

Lesson 1: One
Body text.
`

	doc, err := ParseMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("ParseMarkdown failed: %v", err)
	}
	if doc.Title != "Plain in MD" {
		t.Errorf("Title: got %q", doc.Title)
	}
	if len(doc.Lessons) != 1 {
		t.Errorf("Expected 1 lesson, got %d", len(doc.Lessons))
	}
}

// TestParseMarkdown_MissingTitle tests that a document whose outline
// starts at H2 is rejected.
func TestParseMarkdown_MissingTitle(t *testing.T) {
	input := `## Lesson 1: Stray

Body.
`

	_, err := ParseMarkdown([]byte(input))
	if err == nil {
		t.Fatal("Expected error for missing course title, got nil")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %T: %v", err, err)
	}
}

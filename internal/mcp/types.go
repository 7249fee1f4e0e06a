// Package mcp exposes the course index over the Model Context Protocol:
// content search, course outlines and index status as typed tools.
package mcp

// SearchInput defines the input for the search_course_content tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=What to search for in the course content"`
	// CourseName optionally narrows the search to one course. Partial
	// names resolve against the catalog.
	CourseName string `json:"course_name,omitempty" jsonschema:"description=Course title to search within (partial matches work e.g. 'MCP' or 'Intro')"`
	// LessonNumber optionally narrows the search to one lesson.
	LessonNumber *int `json:"lesson_number,omitempty" jsonschema:"description=Lesson number to search within (e.g. 1 or 2)"`
	// MaxResults caps how many chunks are returned.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of content chunks to return"`
}

// SearchOutput contains the search results.
type SearchOutput struct {
	// Results is the list of matching content chunks.
	Results []SearchResult `json:"results"`
	// ResolvedCourse is the canonical title a course_name filter
	// resolved to, when one was given.
	ResolvedCourse string `json:"resolved_course,omitempty"`
	// Message carries context when there is nothing to return (e.g.
	// "No course found matching 'X'").
	Message string `json:"message,omitempty"`
}

// SearchResult is one matching chunk of course content.
type SearchResult struct {
	// CourseTitle is the canonical title of the course the chunk
	// belongs to.
	CourseTitle string `json:"course_title"`
	// LessonNumber is the lesson the chunk came from; absent for
	// course preamble material.
	LessonNumber *int `json:"lesson_number,omitempty"`
	// Text is the chunk content, including its course/lesson context
	// prefix.
	Text string `json:"text"`
	// Link points at the lesson when one is known, otherwise the course.
	Link string `json:"link,omitempty"`
	// Score is the similarity score (0-1).
	Score float64 `json:"score"`
}

// OutlineInput defines the input for the get_course_outline tool.
type OutlineInput struct {
	// CourseName is the course to outline. Partial names resolve
	// against the catalog.
	CourseName string `json:"course_name" jsonschema:"required,description=Course title to outline (partial matches work)"`
}

// OutlineOutput contains a course's lesson skeleton.
type OutlineOutput struct {
	// CourseTitle is the canonical course title.
	CourseTitle string `json:"course_title,omitempty"`
	// CourseLink is the course's URL when one is indexed.
	CourseLink string `json:"course_link,omitempty"`
	// Instructor is the course instructor when one is indexed.
	Instructor string `json:"instructor,omitempty"`
	// Lessons is the complete lesson list in course order.
	Lessons []OutlineLesson `json:"lessons,omitempty"`
	// Message carries context when the course could not be resolved.
	Message string `json:"message,omitempty"`
}

// OutlineLesson is one lesson in a course outline.
type OutlineLesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// ListCoursesInput defines the input for the list_courses tool, which
// takes no parameters.
type ListCoursesInput struct{}

// ListCoursesOutput contains every indexed course title.
type ListCoursesOutput struct {
	// Titles is the canonical course titles in the catalog.
	Titles []string `json:"titles"`
	// Count is the number of indexed courses.
	Count int `json:"count"`
}

// StatusInput defines the input for the get_index_status tool, which
// takes no parameters.
type StatusInput struct{}

// StatusOutput reports the size of the index.
type StatusOutput struct {
	// Courses is the number of catalog entries.
	Courses uint64 `json:"courses"`
	// Chunks is the number of indexed content chunks.
	Chunks uint64 `json:"chunks"`
	// Titles is the indexed course titles.
	Titles []string `json:"titles"`
}

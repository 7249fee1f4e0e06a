// Package coursedoc parses structured course documents and splits lesson
// bodies into overlapping, sentence-respecting chunks ready for indexing.
package coursedoc

// Lesson is one lesson section of a course document.
type Lesson struct {
	Number int    // Lesson number as written in the source document
	Title  string // Lesson title
	Link   string // Optional lesson link
	Body   string // Lesson body text, whitespace-trimmed
}

// Document is a fully parsed course document.
type Document struct {
	Title      string   // Canonical course title (required)
	Link       string   // Optional course link
	Instructor string   // Optional instructor name
	Preamble   string   // Text between the header block and the first lesson
	Lessons    []Lesson // Lessons in document order
}

// Chunk is the atomic retrievable unit produced from a document.
// Text carries the course/lesson context prefix so the embedded
// representation keeps its locality even when retrieved out of order.
type Chunk struct {
	Text         string
	CourseTitle  string
	LessonNumber *int // nil for chunks taken from the preamble
	Index        int  // zero-based, contiguous within the course
}

package storage

// Collection names for the two-sided index: the catalog holds one point
// per course for name resolution, the content collection holds the
// searchable chunks.
const (
	CatalogCollection = "course_catalog"
	ContentCollection = "course_content"
)

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// LessonRef describes one lesson in a course outline.
type LessonRef struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseRecord is a catalog entry: one per course, embedded on the
// course title so fuzzy name references resolve by similarity.
type CourseRecord struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []LessonRef
	Embedding  []float32 // title embedding
}

// ChunkRecord is a content entry: one chunk of course material with its
// embedding and the metadata used for filtering and attribution.
type ChunkRecord struct {
	CourseTitle  string
	LessonNumber *int // nil for preamble chunks
	ChunkIndex   int
	Text         string
	Embedding    []float32
}

// ScoredCourse pairs a catalog record with its similarity score.
type ScoredCourse struct {
	Course *CourseRecord
	Score  float64
}

// ScoredChunk pairs a content record with its similarity score.
type ScoredChunk struct {
	Chunk *ChunkRecord
	Score float64
}

// ContentFilter narrows a content search. Zero values mean no
// constraint; both fields set mean both must match.
type ContentFilter struct {
	CourseTitle  string
	LessonNumber *int
}

// Counts reports the size of both collections.
type Counts struct {
	Courses uint64
	Chunks  uint64
}

package coursedoc

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the target maximum chunk length in characters.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the target trailing-context carry-over in characters.
	DefaultChunkOverlap = 100
)

var sentenceRE = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Chunker splits documents into overlapping windows of whole sentences.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the target maximum chunk length in characters.
func WithChunkSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithChunkOverlap sets the target overlap between consecutive chunks.
func WithChunkOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// NewChunker builds a Chunker. An overlap that is not smaller than the
// chunk size is reduced to a quarter of it so the window always advances.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Chunk splits the preamble and every lesson body of doc into sentence
// windows. Each chunk text is prefixed with the course title, and with the
// lesson number for lesson chunks, so the chunk stays self-describing once
// it lands in the index. Chunk indexes are contiguous across the document.
func (c *Chunker) Chunk(doc *Document) []Chunk {
	var chunks []Chunk

	emit := func(lesson *Lesson, text string) {
		ch := Chunk{CourseTitle: doc.Title, Index: len(chunks)}
		if lesson != nil {
			n := lesson.Number
			ch.LessonNumber = &n
			ch.Text = fmt.Sprintf("Course %s Lesson %d content: %s", doc.Title, lesson.Number, text)
		} else {
			ch.Text = fmt.Sprintf("Course %s content: %s", doc.Title, text)
		}
		chunks = append(chunks, ch)
	}

	for _, w := range c.windows(doc.Preamble) {
		emit(nil, w)
	}
	for i := range doc.Lessons {
		lesson := &doc.Lessons[i]
		for _, w := range c.windows(lesson.Body) {
			emit(lesson, w)
		}
	}
	return chunks
}

// windows packs sentences greedily up to the chunk size, then steps the
// window forward keeping up to overlap characters of trailing sentences.
// Sentences are never split, so a single oversized sentence becomes its
// own oversized chunk.
func (c *Chunker) windows(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var out []string
	i := 0
	for i < len(sentences) {
		j := i + 1
		length := len(sentences[i])
		for j < len(sentences) && length+1+len(sentences[j]) <= c.size {
			length += 1 + len(sentences[j])
			j++
		}
		out = append(out, strings.Join(sentences[i:j], " "))
		if j == len(sentences) {
			break
		}

		back := 0
		carried := 0
		for back < j-i-1 {
			next := carried + len(sentences[j-1-back])
			if back > 0 {
				next++
			}
			if next > c.overlap {
				break
			}
			carried = next
			back++
		}
		i = j - back
	}
	return out
}

// SplitSentences normalizes whitespace and splits text on sentence
// terminators. Trailing text without a terminator is kept as a final
// sentence so no content is lost.
func SplitSentences(text string) []string {
	norm := strings.Join(strings.Fields(text), " ")
	if norm == "" {
		return nil
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceRE.FindAllStringIndex(norm, -1) {
		if s := strings.TrimSpace(norm[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(norm[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

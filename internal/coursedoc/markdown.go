package coursedoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// ParseMarkdown reads a Markdown course document. The first H1 is the
// course title, H2 headings of the form "Lesson N: Title" open lessons,
// and Course Link / Course Instructor / Lesson Link lines are recognized
// inside section bodies the same way the plain-text parser recognizes
// them. A document without any headings falls back to the plain-text
// format.
func ParseMarkdown(source []byte) (*Document, error) {
	md := goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	root := md.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(root, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect document outline: %w", err)
	}
	if len(tree.Items) == 0 {
		return Parse(string(source))
	}

	var flat []flatSection
	flattenSections(root, tree.Items, &flat)

	doc := &Document{}
	var preamble []string
	seen := map[int]bool{}

	for i, sec := range flat {
		from := sec.segment.Stop
		to := len(source)
		if i+1 < len(flat) {
			to = flat[i+1].segment.Start
		}
		body := sectionBody(source, from, to)

		if sec.level == 1 && doc.Title == "" {
			doc.Title = sec.title
			rest := extractCourseMeta(body, doc)
			if doc.Link == "" {
				doc.Link = sec.headingLink
			}
			if rest != "" {
				preamble = append(preamble, rest)
			}
			continue
		}

		if m := lessonHeaderRE.FindStringSubmatch(sec.title); sec.level == 2 && m != nil {
			num, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				return nil, &ParseError{Msg: fmt.Sprintf("invalid lesson number %q", m[1])}
			}
			if seen[num] {
				return nil, &ParseError{Msg: fmt.Sprintf("duplicate lesson number %d", num)}
			}
			seen[num] = true

			lesson := Lesson{Number: num, Title: strings.TrimSpace(m[2]), Link: sec.headingLink}
			lesson.Body = extractLessonLink(body, &lesson)
			doc.Lessons = append(doc.Lessons, lesson)
			continue
		}

		if body == "" {
			preamble = append(preamble, sec.title)
		} else {
			preamble = append(preamble, sec.title+"\n"+body)
		}
	}

	if doc.Title == "" {
		return nil, &ParseError{Msg: "missing course title"}
	}
	doc.Preamble = strings.TrimSpace(strings.Join(preamble, "\n\n"))
	return doc, nil
}

type flatSection struct {
	title       string
	level       int
	headingLink string
	segment     text.Segment
}

// flattenSections resolves TOC items to their heading segments in
// document order. Items whose heading cannot be located are dropped.
// The level is taken from the heading node itself, so a document whose
// outline starts at H2 is not mistaken for one with a title.
func flattenSections(root ast.Node, items toc.Items, out *[]flatSection) {
	for _, item := range items {
		heading := findHeadingByID(root, string(item.ID))
		if heading != nil && heading.Lines().Len() > 0 {
			*out = append(*out, flatSection{
				title:       string(item.Title),
				level:       heading.(*ast.Heading).Level,
				headingLink: firstLinkDestination(heading),
				segment:     heading.Lines().At(0),
			})
		}
		if len(item.Items) > 0 {
			flattenSections(root, item.Items, out)
		}
	}
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			attr, ok := n.AttributeString("id")
			if ok && string(attr.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// firstLinkDestination returns the destination of the first link nested
// in the node, or "" when the node carries no link.
func firstLinkDestination(node ast.Node) string {
	var dest string
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindLink {
			dest = string(n.(*ast.Link).Destination)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return dest
}

// sectionBody slices the source between two heading segments and drops
// the marker stub ("##") that precedes the next heading's text.
func sectionBody(source []byte, from, to int) string {
	if from >= to {
		return ""
	}
	body := string(source[from:to])
	if idx := strings.LastIndex(body, "\n"); idx >= 0 {
		if tail := strings.TrimSpace(body[idx:]); tail != "" && strings.TrimLeft(tail, "#") == "" {
			body = body[:idx]
		}
	}
	return strings.TrimSpace(body)
}

// extractCourseMeta pulls Course Link / Course Instructor lines out of a
// section body into doc and returns the remaining text.
func extractCourseMeta(body string, doc *Document) string {
	var rest []string
	for _, line := range strings.Split(body, "\n") {
		switch {
		case doc.Link == "" && courseLinkRE.MatchString(line):
			doc.Link = courseLinkRE.FindStringSubmatch(line)[1]
		case doc.Instructor == "" && courseInstructorRE.MatchString(line):
			doc.Instructor = strings.TrimSpace(courseInstructorRE.FindStringSubmatch(line)[1])
		default:
			rest = append(rest, line)
		}
	}
	return strings.TrimSpace(strings.Join(rest, "\n"))
}

// extractLessonLink pulls a Lesson Link line out of a lesson body into
// lesson and returns the remaining text.
func extractLessonLink(body string, lesson *Lesson) string {
	var rest []string
	for _, line := range strings.Split(body, "\n") {
		if lesson.Link == "" && lessonLinkRE.MatchString(line) {
			lesson.Link = lessonLinkRE.FindStringSubmatch(line)[1]
			continue
		}
		rest = append(rest, line)
	}
	return strings.TrimSpace(strings.Join(rest, "\n"))
}

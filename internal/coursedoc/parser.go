package coursedoc

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	courseTitleRE      = regexp.MustCompile(`(?i)^course title:\s*(.+)$`)
	courseLinkRE       = regexp.MustCompile(`(?i)^course link:\s*(\S+)\s*$`)
	courseInstructorRE = regexp.MustCompile(`(?i)^course instructor:\s*(.+)$`)
	lessonHeaderRE     = regexp.MustCompile(`(?i)^lesson\s+(\d+):\s*(.*)$`)
	lessonLinkRE       = regexp.MustCompile(`(?i)^lesson link:\s*(\S+)\s*$`)
)

// Parse reads a plain-text course document. The expected shape is a
// header block (Course Title / Course Link / Course Instructor lines),
// followed by any number of "Lesson N: Title" sections. Header lines may
// appear in any order; only the course title is mandatory. Lines that
// match no marker become preamble or lesson body text.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	var (
		current  *Lesson
		body     []string
		preamble []string
		seen     = map[int]int{}
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		doc.Lessons = append(doc.Lessons, *current)
		current = nil
		body = nil
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		lineNo := i + 1

		if m := lessonHeaderRE.FindStringSubmatch(line); m != nil {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid lesson number %q", m[1])}
			}
			if prev, dup := seen[num]; dup {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("duplicate lesson number %d (first seen on line %d)", num, prev)}
			}
			seen[num] = lineNo
			flush()
			current = &Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			continue
		}

		if current == nil {
			switch {
			case doc.Title == "" && courseTitleRE.MatchString(line):
				doc.Title = strings.TrimSpace(courseTitleRE.FindStringSubmatch(line)[1])
			case doc.Link == "" && courseLinkRE.MatchString(line):
				doc.Link = courseLinkRE.FindStringSubmatch(line)[1]
			case doc.Instructor == "" && courseInstructorRE.MatchString(line):
				doc.Instructor = strings.TrimSpace(courseInstructorRE.FindStringSubmatch(line)[1])
			default:
				preamble = append(preamble, line)
			}
			continue
		}

		if current.Link == "" {
			if m := lessonLinkRE.FindStringSubmatch(line); m != nil {
				current.Link = m[1]
				continue
			}
		}
		body = append(body, line)
	}
	flush()

	if doc.Title == "" {
		return nil, &ParseError{Msg: "missing course title"}
	}
	doc.Preamble = strings.TrimSpace(strings.Join(preamble, "\n"))
	return doc, nil
}

// ParseFile dispatches on the file extension: Markdown documents go
// through the goldmark parser, everything else through the plain-text one.
func ParseFile(name string, data []byte) (*Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return ParseMarkdown(data)
	default:
		return Parse(string(data))
	}
}

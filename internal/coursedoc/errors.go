package coursedoc

import "fmt"

// ParseError describes a structural defect in a course document.
type ParseError struct {
	Line int // 1-based line number, 0 when the defect is not tied to a line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse course document: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("parse course document: %s", e.Msg)
}

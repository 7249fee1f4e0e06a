package search

import "errors"

// ErrNoMatchingCourse is returned when a course reference resolves to
// nothing confident enough in the catalog.
var ErrNoMatchingCourse = errors.New("no matching course found")

package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// Point IDs are derived from course titles, so re-ingesting a course
// overwrites its previous points instead of accumulating duplicates.

func coursePointID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("coursechat://catalog/"+title)).String()
}

func chunkPointID(title string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("coursechat://content/%s/%d", title, index))).String()
}

package content

import (
	"regexp"
	"strconv"
)

// Matches /files/{id} and /files/{id}/download links, including the
// /courses/{course_id}/files/{id} form.
var fileRefPattern = regexp.MustCompile(`/files/(\d+)(?:/download)?`)

// ExtractFileRefs returns the unique file ids referenced by embedded
// file links in an HTML body, in order of first appearance.
func ExtractFileRefs(body string) []int64 {
	if body == "" {
		return nil
	}
	matches := fileRefPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[int64]bool, len(matches))
	var ids []int64
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

package content

import "strings"

// maxNameLength caps sanitized path segments so deeply nested module
// names cannot overflow filesystem limits.
const maxNameLength = 200

var illegalChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeName makes a remote display name safe to use as a single path
// segment: characters that are illegal on common filesystems become
// underscores, surrounding dots and spaces are trimmed, and the result
// is capped at a fixed length. An empty result becomes "unnamed".
func SanitizeName(name string) string {
	name = illegalChars.Replace(name)
	name = strings.Trim(name, ". ")
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	if name == "" {
		return "unnamed"
	}
	return name
}

// CourseFolder derives the local directory name for a course from its
// short code and display name.
func CourseFolder(code, name string) string {
	if code == "" {
		return SanitizeName(name)
	}
	return SanitizeName(code + "_" + name)
}

// PageDocName returns the document name a page body is saved under.
func PageDocName(title string) string {
	return SanitizeName(title + ".html")
}

// AssignmentDocName returns the document name an assignment description
// is saved under.
func AssignmentDocName(title string) string {
	return SanitizeName(title + "_description.html")
}

package csync

import (
	"path"
	"strings"
)

// maxUploadSize is the remote index service's per-document limit.
const maxUploadSize = 512 * 1024 * 1024 // 512 MiB

// supportedExtensions is the fixed document-format set the remote
// index service accepts.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
	".xls":  true,
	".xlsx": true,
	".json": true,
	".csv":  true,
}

// Eligible reports whether an artifact qualifies for index upload:
// supported extension and size within the cap. Eligibility is a static
// property of the artifact, independent of index state.
func Eligible(relPath string, size int64) bool {
	if !supportedExtensions[strings.ToLower(path.Ext(relPath))] {
		return false
	}
	return size <= maxUploadSize
}

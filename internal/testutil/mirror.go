package testutil

import (
	"csync-go/internal/index"
	"csync-go/internal/mirror"
)

// NewTestMirror creates a new in-memory mirror for testing.
func NewTestMirror() *mirror.MemoryMirror {
	return mirror.NewMemoryMirror()
}

// NewTestIndex creates a new in-memory index store for testing.
func NewTestIndex() *index.MemoryIndex {
	return index.NewMemoryIndex()
}

package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"csync-go/internal/csync"
)

// MemoryMirror is an in-memory implementation of the Mirror interface,
// useful for testing. Safe for concurrent use.
type MemoryMirror struct {
	mu    sync.RWMutex
	files map[string][]byte // relPath -> content
}

// NewMemoryMirror creates an empty in-memory mirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{files: make(map[string][]byte)}
}

// Size reports the byte length of an artifact, with ok=false when no
// artifact exists at the path.
func (m *MemoryMirror) Size(_ context.Context, relPath string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[relPath]
	if !ok {
		return 0, false, nil
	}
	return int64(len(data)), true, nil
}

// Put stores r's content at the path, replacing any previous content.
func (m *MemoryMirror) Put(_ context.Context, relPath string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[relPath] = data
	return int64(len(data)), nil
}

// Open returns a reader over the artifact at the path.
func (m *MemoryMirror) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[relPath]
	if !ok {
		return nil, fmt.Errorf("artifact not found: %s", relPath)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// List enumerates artifacts under the given prefix in lexical order.
func (m *MemoryMirror) List(_ context.Context, prefix string) ([]csync.MirrorEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []csync.MirrorEntry
	for relPath, data := range m.files {
		if prefix != "" && relPath != prefix && !strings.HasPrefix(relPath, prefix+"/") {
			continue
		}
		entries = append(entries, csync.MirrorEntry{RelPath: relPath, Size: int64(len(data))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// ValidateSetup always succeeds for the in-memory mirror.
func (m *MemoryMirror) ValidateSetup(_ context.Context) error {
	return nil
}

// Compile-time check that MemoryMirror implements csync.Mirror
var _ csync.Mirror = (*MemoryMirror)(nil)

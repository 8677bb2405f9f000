package mirror

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"csync-go/internal/csync"
)

// FileSystemMirror stores artifacts as plain files under a root
// directory, preserving the course/module relative layout. Writes are
// atomic (temp file + rename) so a partial download never masquerades
// as a complete artifact.
type FileSystemMirror struct {
	root string
}

// NewFileSystemMirror creates a mirror rooted at the given path.
func NewFileSystemMirror(root string) (*FileSystemMirror, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	return &FileSystemMirror{root: root}, nil
}

// Root returns the mirror's root directory.
func (m *FileSystemMirror) Root() string {
	return m.root
}

func (m *FileSystemMirror) abs(relPath string) string {
	return filepath.Join(m.root, filepath.FromSlash(relPath))
}

// Size reports the byte length of an artifact, with ok=false when no
// artifact exists at the path.
func (m *FileSystemMirror) Size(_ context.Context, relPath string) (int64, bool, error) {
	info, err := os.Stat(m.abs(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if info.IsDir() {
		return 0, false, fmt.Errorf("%s is a directory, not an artifact", relPath)
	}
	return info.Size(), true, nil
}

// Put streams r to the artifact path, replacing any previous content.
// Returns the number of bytes written.
func (m *FileSystemMirror) Put(_ context.Context, relPath string, r io.Reader) (int64, error) {
	destPath := m.abs(relPath)
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("failed to write artifact: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return written, nil
}

// Open returns a reader over the artifact at the path.
func (m *FileSystemMirror) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	f, err := os.Open(m.abs(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", relPath)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// List enumerates artifacts under the given relative prefix in lexical
// order. A missing prefix directory yields an empty listing. Hidden
// files are skipped so in-flight temp files never surface.
func (m *FileSystemMirror) List(_ context.Context, prefix string) ([]csync.MirrorEntry, error) {
	start := m.abs(prefix)
	if _, err := os.Stat(start); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", prefix, err)
	}

	var entries []csync.MirrorEntry
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, csync.MirrorEntry{
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	return entries, nil
}

// ValidateSetup verifies that the mirror root is an accessible directory.
func (m *FileSystemMirror) ValidateSetup(_ context.Context) error {
	info, err := os.Stat(m.root)
	if err != nil {
		return fmt.Errorf("mirror root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mirror root is not a directory: %s", m.root)
	}
	return nil
}

// Compile-time check that FileSystemMirror implements csync.Mirror
var _ csync.Mirror = (*FileSystemMirror)(nil)

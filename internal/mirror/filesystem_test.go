package mirror

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemMirror(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		root := filepath.Join(tmpDir, "downloads")

		m, err := NewFileSystemMirror(root)
		if err != nil {
			t.Fatalf("NewFileSystemMirror() error = %v", err)
		}

		if _, err := os.Stat(root); err != nil {
			t.Errorf("root directory not created: %v", err)
		}
		if m.Root() != root {
			t.Errorf("Root() = %q, want %q", m.Root(), root)
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemMirror(t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemMirror() error = %v", err)
		}
	})
}

func TestFileSystemMirror_PutAndSize(t *testing.T) {
	ctx := context.Background()
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	relPath := "CS101_Intro/Modules/Week 1/syllabus.pdf"
	data := "pdf bytes"

	n, err := m.Put(ctx, relPath, strings.NewReader(data))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("Put() wrote %d bytes, want %d", n, len(data))
	}

	size, ok, err := m.Size(ctx, relPath)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if !ok {
		t.Fatal("Size() ok = false, want true")
	}
	if size != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", size, len(data))
	}
}

func TestFileSystemMirror_Size_Missing(t *testing.T) {
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	_, ok, err := m.Size(context.Background(), "nope/missing.pdf")
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if ok {
		t.Error("Size() ok = true for missing artifact, want false")
	}
}

func TestFileSystemMirror_Put_Overwrites(t *testing.T) {
	ctx := context.Background()
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	relPath := "CS101/Files/notes.txt"
	if _, err := m.Put(ctx, relPath, strings.NewReader("version 1 long")); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if _, err := m.Put(ctx, relPath, strings.NewReader("v2")); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	r, err := m.Open(ctx, relPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("content = %q, want %q", string(got), "v2")
	}
}

func TestFileSystemMirror_Open_Missing(t *testing.T) {
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	_, err = m.Open(context.Background(), "missing.pdf")
	if err == nil {
		t.Fatal("Open() expected error for missing artifact")
	}
	if !strings.Contains(err.Error(), "artifact not found") {
		t.Errorf("error = %v, want error containing 'artifact not found'", err)
	}
}

func TestFileSystemMirror_List(t *testing.T) {
	ctx := context.Background()
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	files := map[string]string{
		"CS101/Files/notes.pdf":            "notes",
		"CS101/Modules/Week 1/slides.pptx": "slides",
		"MATH200/Files/hw.pdf":             "hw",
	}
	for relPath, data := range files {
		if _, err := m.Put(ctx, relPath, strings.NewReader(data)); err != nil {
			t.Fatalf("Put(%s) error = %v", relPath, err)
		}
	}

	t.Run("lists one course only", func(t *testing.T) {
		entries, err := m.List(ctx, "CS101")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("len(entries) = %d, want 2", len(entries))
		}
		if entries[0].RelPath != "CS101/Files/notes.pdf" {
			t.Errorf("entries[0].RelPath = %q, want %q", entries[0].RelPath, "CS101/Files/notes.pdf")
		}
		if entries[0].Size != int64(len("notes")) {
			t.Errorf("entries[0].Size = %d, want %d", entries[0].Size, len("notes"))
		}
		if entries[1].RelPath != "CS101/Modules/Week 1/slides.pptx" {
			t.Errorf("entries[1].RelPath = %q, want %q", entries[1].RelPath, "CS101/Modules/Week 1/slides.pptx")
		}
	})

	t.Run("missing prefix yields empty listing", func(t *testing.T) {
		entries, err := m.List(ctx, "PHYS999")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("len(entries) = %d, want 0", len(entries))
		}
	})
}

func TestFileSystemMirror_AtomicWrite(t *testing.T) {
	ctx := context.Background()
	m, err := NewFileSystemMirror(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemMirror() error = %v", err)
	}

	relPath := "CS101/Files/a.pdf"
	if _, err := m.Put(ctx, relPath, strings.NewReader("data")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Check for leftover temp files
	dir := filepath.Dir(filepath.Join(m.Root(), filepath.FromSlash(relPath)))
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read artifact dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileSystemMirror_ValidateSetup(t *testing.T) {
	t.Run("valid setup", func(t *testing.T) {
		m, err := NewFileSystemMirror(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileSystemMirror() error = %v", err)
		}
		if err := m.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("missing root directory", func(t *testing.T) {
		m := &FileSystemMirror{root: "/nonexistent/path"}
		if err := m.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error for missing root")
		}
	})
}

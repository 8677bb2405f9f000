package csync

import (
	"context"
	"io"
)

// MirrorEntry describes one artifact found in the mirror.
type MirrorEntry struct {
	RelPath string // storage-root-relative, slash-separated
	Size    int64
}

// Mirror is the artifact store the materializer writes into. Paths are
// slash-separated and relative to the storage root; backends map them
// onto their own layout.
type Mirror interface {
	// Size returns the stored artifact's byte size. ok is false when no
	// artifact exists at relPath.
	Size(ctx context.Context, relPath string) (size int64, ok bool, err error)
	// Put streams r into the artifact at relPath, creating parents as
	// needed and replacing any previous artifact. Returns bytes written.
	Put(ctx context.Context, relPath string, r io.Reader) (int64, error)
	// Open streams the stored artifact back.
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)
	// List enumerates artifacts under a prefix, e.g. one course folder.
	List(ctx context.Context, prefix string) ([]MirrorEntry, error)
	// ValidateSetup verifies the backend is usable before a run starts.
	ValidateSetup(ctx context.Context) error
}

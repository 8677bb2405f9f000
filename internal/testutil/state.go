package testutil

import (
	"path/filepath"
	"testing"

	"csync-go/internal/state"
)

// NewTestState creates a mapping and denial log backed by a temporary
// directory that is removed when the test completes.
func NewTestState(t *testing.T) (*state.Mapping, *state.Denials) {
	t.Helper()

	dir := t.TempDir()
	mapping := state.NewMapping(filepath.Join(dir, state.MappingFileName))
	denials := state.NewDenials(filepath.Join(dir, state.InaccessibleFileName))
	return mapping, denials
}

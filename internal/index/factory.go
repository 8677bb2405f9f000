package index

import (
	"fmt"

	"csync-go/internal/config"
	"csync-go/internal/csync"
)

// NewIndexStoreFromConfig creates an IndexStore from configuration.
// The "none" type returns nil, which disables uploading entirely. An
// openai index without an API key also returns nil: runs proceed
// download-only rather than failing at startup.
func NewIndexStoreFromConfig(cfg config.IndexConfig) (csync.IndexStore, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "memory":
		return NewMemoryIndex(), nil
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}

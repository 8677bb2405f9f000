package mirror

import (
	"context"
	"fmt"

	"csync-go/internal/config"
	"csync-go/internal/csync"
)

// NewMirrorFromConfig creates a Mirror implementation based on the mirror config type.
// root is the local root directory, used by the filesystem backend.
func NewMirrorFromConfig(cfg config.MirrorConfig, root string) (csync.Mirror, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryMirror(), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 mirror requires s3_bucket to be set")
		}
		return NewS3Mirror(context.Background(), cfg)
	case "filesystem", "":
		if root == "" {
			return nil, fmt.Errorf("filesystem mirror requires root_dir to be set")
		}
		return NewFileSystemMirror(root)
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}

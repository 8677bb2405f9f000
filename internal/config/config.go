package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the main configuration for csync.
type Config struct {
	CanvasURL string `toml:"canvas_url"`
	// CanvasToken may be stored here by `config init`, but the
	// CANVAS_ACCESS_TOKEN environment variable always wins.
	CanvasToken string `toml:"canvas_token,omitempty"`
	RootDir     string `toml:"root_dir"`
	LogDir      string `toml:"log_dir"`

	Mirror   MirrorConfig   `toml:"mirror"`
	Database DatabaseConfig `toml:"database"`
	Index    IndexConfig    `toml:"index"`
	Server   ServerConfig   `toml:"server"`
}

// MirrorConfig represents configuration for the local mirror backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type MirrorConfig struct {
	Type string `toml:"type"` // "filesystem", "s3", or "memory"

	// S3-specific fields (only used when Type == "s3"). Endpoint and
	// static credentials support S3-compatible services; when the
	// credential fields are empty the default AWS chain applies.
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// DatabaseConfig represents configuration for the run-history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// IndexConfig represents configuration for the remote index-store service.
type IndexConfig struct {
	Type    string `toml:"type"`               // "openai", "memory", or "none"
	BaseURL string `toml:"base_url,omitempty"` // defaults to the public endpoint
	// APIKey may be stored here by `config init`, but the
	// OPENAI_API_KEY environment variable always wins.
	APIKey        string `toml:"api_key,omitempty"`
	UploadDelayMS int    `toml:"upload_delay_ms"` // pause between uploads; defaults to 100
}

// ServerConfig represents configuration for the status API server.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(canvasURL, rootDir string) *Config {
	return &Config{
		CanvasURL: canvasURL,
		RootDir:   rootDir,
		LogDir:    filepath.Join(rootDir, "log"),
		Mirror:    MirrorConfig{Type: "filesystem"},
		Database:  DatabaseConfig{Type: "sqlite", DataDir: rootDir},
		Index:     IndexConfig{Type: "openai", UploadDelayMS: 100},
		Server:    ServerConfig{Addr: "127.0.0.1:8484"},
	}
}

// LoadDotEnv loads a .env file from the working directory when one
// exists. Absence is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides secret fields from the environment. Environment
// variables always take precedence over values stored in the file.
func (c *Config) ApplyEnv() {
	if token := os.Getenv("CANVAS_ACCESS_TOKEN"); token != "" {
		c.CanvasToken = token
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Index.APIKey = key
	}
}

// Validate checks that the config is usable for a sync run.
func (c *Config) Validate() error {
	if c.CanvasURL == "" {
		return fmt.Errorf("canvas_url is required")
	}
	if c.CanvasToken == "" {
		return fmt.Errorf("canvas access token is required: set CANVAS_ACCESS_TOKEN or canvas_token in the config")
	}
	if c.RootDir == "" {
		return fmt.Errorf("root_dir is required")
	}
	switch c.Mirror.Type {
	case "filesystem", "memory", "":
	case "s3":
		if c.Mirror.S3Bucket == "" {
			return fmt.Errorf("s3 mirror requires s3_bucket to be set")
		}
	default:
		return fmt.Errorf("unknown mirror type: %s", c.Mirror.Type)
	}
	// A missing index API key is not a validation error: the run
	// proceeds download-only and logs that indexing is skipped.
	switch c.Index.Type {
	case "openai", "memory", "none", "":
	default:
		return fmt.Errorf("unknown index type: %s", c.Index.Type)
	}
	return nil
}

// UploadDelay returns the configured pause between uploads.
func (c *Config) UploadDelay() time.Duration {
	ms := c.Index.UploadDelayMS
	if ms <= 0 {
		ms = 100
	}
	return time.Duration(ms) * time.Millisecond
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

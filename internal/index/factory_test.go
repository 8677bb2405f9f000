package index

import (
	"testing"

	"csync-go/internal/config"
)

func TestNewIndexStoreFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.IndexConfig
		wantNil  bool
		wantErr  bool
		wantType string
	}{
		{
			name:     "openai",
			cfg:      config.IndexConfig{Type: "openai", APIKey: "sk-test"},
			wantType: "openai",
		},
		{
			name:     "default type is openai",
			cfg:      config.IndexConfig{APIKey: "sk-test"},
			wantType: "openai",
		},
		{
			name:    "openai without key runs download-only",
			cfg:     config.IndexConfig{Type: "openai"},
			wantNil: true,
		},
		{
			name:     "memory",
			cfg:      config.IndexConfig{Type: "memory"},
			wantType: "memory",
		},
		{
			name:    "none disables the index",
			cfg:     config.IndexConfig{Type: "none"},
			wantNil: true,
		},
		{
			name:    "unknown type",
			cfg:     config.IndexConfig{Type: "pinecone"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewIndexStoreFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewIndexStoreFromConfig() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewIndexStoreFromConfig() error = %v", err)
			}
			if tt.wantNil {
				if store != nil {
					t.Fatalf("NewIndexStoreFromConfig() = %T, want nil", store)
				}
				return
			}

			switch tt.wantType {
			case "openai":
				if _, ok := store.(*OpenAIClient); !ok {
					t.Errorf("NewIndexStoreFromConfig() = %T, want *OpenAIClient", store)
				}
			case "memory":
				if _, ok := store.(*MemoryIndex); !ok {
					t.Errorf("NewIndexStoreFromConfig() = %T, want *MemoryIndex", store)
				}
			}
		})
	}
}

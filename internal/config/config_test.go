package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polytran.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const validConfig = `
providers:
  - id: groq-llama
    family: groq
    model: llama-3.3-70b-versatile
    endpoint: https://api.groq.com/openai/v1/chat/completions
    api_keys: [sk-one, sk-two]
    key_names: [main, backup]
    requests_per_minute: 30
  - id: openrouter-gemini
    family: openrouter
    model: google/gemini-2.0-flash-exp
    endpoint: https://openrouter.ai/api/v1/chat/completions
    api_key: sk-or-test

priority: [groq-llama, openrouter-gemini]
max_providers: 2
call_timeout: 45s
db_path: /tmp/test-polytran.db

embeddings:
  endpoint: https://api.openai.com/v1/embeddings
  api_key: sk-emb
  model: text-embedding-3-small

fallback:
  enabled: true
  credentials: /etc/polytran/gcp.json
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.Providers))
	}
	if cfg.MaxProviders != 2 {
		t.Errorf("max_providers = %d, want 2", cfg.MaxProviders)
	}
	if cfg.CallTimeout != 45*time.Second {
		t.Errorf("call_timeout = %v, want 45s", cfg.CallTimeout)
	}
	if len(cfg.Providers[0].APIKeys) != 2 {
		t.Errorf("expected 2 api keys for pooled provider, got %v", cfg.Providers[0].APIKeys)
	}
	if !cfg.Fallback.Enabled {
		t.Error("expected fallback enabled")
	}
	if cfg.Embeddings.Model != "text-embedding-3-small" {
		t.Errorf("unexpected embeddings model %q", cfg.Embeddings.Model)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
providers:
  - id: solo
    model: m
    endpoint: https://example.com
    api_key: sk
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxProviders != 3 {
		t.Errorf("default max_providers = %d, want 3", cfg.MaxProviders)
	}
	if cfg.CallTimeout != 60*time.Second {
		t.Errorf("default call_timeout = %v, want 60s", cfg.CallTimeout)
	}
	if cfg.DBPath != "polytran.db" {
		t.Errorf("default db_path = %q", cfg.DBPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no providers",
			content: `max_providers: 3`,
			wantErr: "no providers",
		},
		{
			name: "missing api key",
			content: `
providers:
  - id: broken
    model: m
    endpoint: https://example.com
`,
			wantErr: "api_key or api_keys required",
		},
		{
			name: "duplicate ids",
			content: `
providers:
  - id: dup
    model: m
    endpoint: https://example.com
    api_key: sk
  - id: dup
    model: m2
    endpoint: https://example.com
    api_key: sk2
`,
			wantErr: "duplicate provider id",
		},
		{
			name: "priority references unknown provider",
			content: `
providers:
  - id: real
    model: m
    endpoint: https://example.com
    api_key: sk
priority: [real, ghost]
`,
			wantErr: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Descriptors(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	descriptors := cfg.Descriptors()
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].ID != "groq-llama" || string(descriptors[0].Family) != "groq" {
		t.Errorf("unexpected first descriptor %+v", descriptors[0])
	}
	if descriptors[0].RequestsPerMinute != 30 {
		t.Errorf("requests_per_minute not carried over: %+v", descriptors[0])
	}
}

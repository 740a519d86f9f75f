package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithEnvKey(t *testing.T) {
	t.Setenv("VOICEKEY_API_KEY", "key-from-env")
	t.Setenv("GROQ_API_KEY", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if !strings.Contains(cfg.Endpoint, "groq.com") {
		t.Errorf("default endpoint = %q", cfg.Endpoint)
	}
	if cfg.Model != "whisper-large-v3" {
		t.Errorf("default model = %q", cfg.Model)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v", cfg.Timeout)
	}
	if cfg.MinBytes != 1000 {
		t.Errorf("default min_bytes = %d", cfg.MinBytes)
	}
}

func TestLoadGroqKeyFallback(t *testing.T) {
	t.Setenv("VOICEKEY_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "groq-key" {
		t.Errorf("APIKey = %q, want groq fallback", cfg.APIKey)
	}
}

func TestLoadMissingKeyFails(t *testing.T) {
	t.Setenv("VOICEKEY_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Chdir(t.TempDir())

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing credential")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("VOICEKEY_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `api_key: from-file
endpoint: https://example.test/v1/audio
model: whisper-large-v3-turbo
timeout: 10s
min_bytes: 2000
language: en
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Endpoint != "https://example.test/v1/audio" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Model != "whisper-large-v3-turbo" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MinBytes != 2000 {
		t.Errorf("MinBytes = %d", cfg.MinBytes)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q", cfg.Language)
	}
}

func TestValidate(t *testing.T) {
	base := Config{APIKey: "k", Endpoint: "https://x", Timeout: time.Second}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := base
	bad.Endpoint = ""
	if err := bad.Validate(); err == nil {
		t.Error("empty endpoint accepted")
	}

	bad = base
	bad.Timeout = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero timeout accepted")
	}

	bad = base
	bad.MinBytes = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative min_bytes accepted")
	}
}

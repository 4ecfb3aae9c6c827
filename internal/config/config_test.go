package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != ":8000" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.VLM.Model != "llava:7b" || cfg.VLM.TimeoutSeconds != 120 {
		t.Errorf("vlm defaults = %+v", cfg.VLM)
	}
	if cfg.Verify.RateLimitSeconds != 2.0 {
		t.Errorf("rate limit = %v", cfg.Verify.RateLimitSeconds)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentord.toml")
	content := `
[server]
bind = ":9001"

[vlm]
model = "qwen2-vl"
timeout_seconds = 30

[verify]
rate_limit_seconds = 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != ":9001" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.VLM.Model != "qwen2-vl" {
		t.Errorf("model = %q", cfg.VLM.Model)
	}
	if cfg.VLMTimeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.VLMTimeout())
	}
	if cfg.RateLimit() != 500*time.Millisecond {
		t.Errorf("rate limit = %v", cfg.RateLimit())
	}

	// Unspecified sections keep their defaults.
	if cfg.Store.Path != "mentor.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VLM_BASE_URL", "http://gpu-box:11434/v1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TTS.APIKey != "sk-test" {
		t.Errorf("tts key = %q", cfg.TTS.APIKey)
	}
	if cfg.VLM.BaseURL != "http://gpu-box:11434/v1" {
		t.Errorf("vlm base url = %q", cfg.VLM.BaseURL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentord.toml")
	if err := os.WriteFile(path, []byte("[vlm]\ntimeout_seconds = -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for negative timeout")
	}
}

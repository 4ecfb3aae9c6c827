// Package config handles loading, defaulting, and validation of the mentord
// TOML configuration file. Every section maps to a typed struct so the rest
// of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Server  ServerConfig  `toml:"server"  json:"server"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Store   StoreConfig   `toml:"store"   json:"store"`
	VLM     VLMConfig     `toml:"vlm"     json:"vlm"`
	TTS     TTSConfig     `toml:"tts"     json:"tts"`
	Verify  VerifyConfig  `toml:"verify"  json:"verify"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type StoreConfig struct {
	Path string `toml:"path" json:"path"`
}

type VLMConfig struct {
	BaseURL        string `toml:"base_url"        json:"base_url"`
	Model          string `toml:"model"           json:"model"`
	APIKey         string `toml:"api_key"         json:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

type TTSConfig struct {
	APIKey string `toml:"api_key" json:"api_key"`
	Voice  string `toml:"voice"   json:"voice"`
}

type VerifyConfig struct {
	RateLimitSeconds float64 `toml:"rate_limit_seconds" json:"rate_limit_seconds"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: ":8000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Path: "mentor.db",
		},
		VLM: VLMConfig{
			BaseURL:        "http://localhost:11434/v1",
			Model:          "llava:7b",
			TimeoutSeconds: 120,
		},
		TTS: TTSConfig{
			Voice: "nova",
		},
		Verify: VerifyConfig{
			RateLimitSeconds: 2.0,
		},
	}
}

// Load reads the TOML file at path, applies defaults for missing fields,
// and validates the result. A missing file is not an error: defaults plus
// environment overrides are returned instead.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets environment variables override secrets so keys never need
// to live in the config file.
func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.TTS.APIKey == "" {
		c.TTS.APIKey = key
	}
	if key := os.Getenv("VLM_API_KEY"); key != "" && c.VLM.APIKey == "" {
		c.VLM.APIKey = key
	}
	if url := os.Getenv("VLM_BASE_URL"); url != "" {
		c.VLM.BaseURL = url
	}
}

// Validate checks for configuration values that would break the daemon.
func (c *Config) Validate() error {
	if c.Server.Bind == "" {
		return errors.New("config: server.bind must not be empty")
	}
	if c.Store.Path == "" {
		return errors.New("config: store.path must not be empty")
	}
	if c.VLM.BaseURL == "" {
		return errors.New("config: vlm.base_url must not be empty")
	}
	if c.VLM.TimeoutSeconds <= 0 {
		return errors.New("config: vlm.timeout_seconds must be positive")
	}
	if c.Verify.RateLimitSeconds < 0 {
		return errors.New("config: verify.rate_limit_seconds must not be negative")
	}
	return nil
}

// VLMTimeout returns the VLM request timeout as a duration.
func (c *Config) VLMTimeout() time.Duration {
	return time.Duration(c.VLM.TimeoutSeconds) * time.Second
}

// RateLimit returns the per-procedure verification rate limit as a duration.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.Verify.RateLimitSeconds * float64(time.Second))
}

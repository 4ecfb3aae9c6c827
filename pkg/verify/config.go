package verify

import (
	"log/slog"
	"time"
)

// Config holds gateway client configuration.
type Config struct {
	// BaseURL is the verifier service root, e.g. "http://localhost:8000".
	BaseURL string

	// Timeout bounds a single verification round trip. Vision models are
	// slow; the default leaves headroom for multi-second inference.
	Timeout time.Duration

	// Logger is the structured logger for request-level logging.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the verifier service base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults for a locally running verifier.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8000",
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

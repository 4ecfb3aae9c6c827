// Package guidance implements the continuous step-verification engine: it
// buffers sensor frames, debounces user presence, schedules verification
// polls, and runs the state machine that advances a user through a
// procedure based on remote verdicts.
//
// The engine coordinates three independently-timed activities (the frame
// stream, the poll ticker, and slow verifier calls) behind a single mutex,
// so user-visible state can never be corrupted by interleaved updates and
// always has a path back to monitoring.
package guidance

import (
	"encoding/base64"
	"log/slog"
	"time"
)

// Config holds all tunable parameters for the engine.
type Config struct {
	// Timing
	PollInterval    time.Duration // How often to attempt a verification call
	MinPresence     time.Duration // Required continuous presence before checking
	FrameInterval   time.Duration // Minimum spacing between buffered frames
	CompletionDelay time.Duration // Pause on a completed step before advancing
	MistakeCooldown time.Duration // Pause on a mistake before resuming monitoring

	// Frame buffering
	BufferSize     int // Rolling buffer capacity
	MinFrames      int // Minimum buffered frames before checking
	FramesPerCheck int // Most recent frames sent per verification call

	// EncodeFrame converts a raw frame to the base64 payload sent to the
	// verifier. Downsampling and compression belong here, not in the
	// engine. Nil means plain base64 of the raw bytes.
	EncodeFrame func(data []byte) (string, error)

	// Logger is the structured logger for engine events.
	Logger *slog.Logger
}

// DefaultConfig returns the recommended engine configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:    3 * time.Second,
		MinPresence:     1500 * time.Millisecond,
		FrameInterval:   400 * time.Millisecond,
		CompletionDelay: 1500 * time.Millisecond,
		MistakeCooldown: 4 * time.Second,

		BufferSize:     5,
		MinFrames:      3,
		FramesPerCheck: 3,
	}
}

// normalize fills in zero values so a partially specified config is usable.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MinPresence <= 0 {
		c.MinPresence = def.MinPresence
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = def.FrameInterval
	}
	if c.CompletionDelay <= 0 {
		c.CompletionDelay = def.CompletionDelay
	}
	if c.MistakeCooldown <= 0 {
		c.MistakeCooldown = def.MistakeCooldown
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.MinFrames <= 0 {
		c.MinFrames = def.MinFrames
	}
	if c.FramesPerCheck <= 0 {
		c.FramesPerCheck = def.FramesPerCheck
	}
	if c.EncodeFrame == nil {
		c.EncodeFrame = func(data []byte) (string, error) {
			return base64.StdEncoding.EncodeToString(data), nil
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

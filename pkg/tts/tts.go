// Package tts synthesizes spoken guidance audio. The engine never plays
// audio itself; the verifier service exposes synthesis over HTTP and the
// rendering layer decides what to do with the bytes.
package tts

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("tts: API key required")

	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("tts: text required")
)

// Provider is the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio bytes.
	Audio []byte

	// ContentType is the MIME type of Audio, e.g. "audio/mpeg".
	ContentType string

	// CharCount is the number of characters synthesized.
	CharCount int

	// Latency is the full round-trip synthesis time.
	Latency time.Duration
}

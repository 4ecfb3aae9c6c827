package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyclopsvision/go-mentor/internal/httpc"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI voice options.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// OpenAI model options.
const (
	ModelTTS1   = "tts-1"    // Standard quality, faster
	ModelTTS1HD = "tts-1-hd" // Higher quality, slower
)

// OpenAI implements Provider using the OpenAI speech API.
type OpenAI struct {
	apiKey  string
	voice   string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAI)

// WithVoice selects the voice.
func WithVoice(voice string) OpenAIOption {
	return func(o *OpenAI) { o.voice = voice }
}

// WithModel selects the model.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) { o.model = model }
}

// WithBaseURL overrides the API base URL (for tests and proxies).
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) { o.baseURL = strings.TrimSuffix(url, "/") }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) OpenAIOption {
	return func(o *OpenAI) { o.logger = l }
}

// NewOpenAI creates an OpenAI TTS provider.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	o := &OpenAI{
		apiKey:  apiKey,
		voice:   VoiceNova,
		model:   ModelTTS1,
		baseURL: defaultOpenAIBaseURL,
		client:  httpc.NewClient(30 * time.Second),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "tts.openai")
	return o, nil
}

// Synthesize converts text to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()

	payload := map[string]interface{}{
		"model":           o.model,
		"voice":           o.voice,
		"input":           text,
		"response_format": "mp3",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts: API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read response: %w", err)
	}

	latency := time.Since(start)
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency.Milliseconds(),
		"voice", o.voice,
	)

	return &AudioResult{
		Audio:       audio,
		ContentType: "audio/mpeg",
		CharCount:   len(text),
		Latency:     latency,
	}, nil
}

// Health checks the API key by listing models.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts: health check returned %d", resp.StatusCode)
	}
	return nil
}

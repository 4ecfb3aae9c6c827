package verify

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

// Client is the HTTP implementation of Gateway, talking to the mentord
// verifier service.
type Client struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gateway client for the verifier service.
func NewClient(opts ...Option) *Client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "verify.client"),
	}
}

// VerifyStep submits a verification request and decodes the verdict.
func (c *Client) VerifyStep(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	var resp Response
	if err := c.post(ctx, "/api/verify_step", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("verdict received",
		"step_id", req.StepID,
		"status", resp.Status,
		"confidence", resp.Confidence,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &resp, nil
}

// RequestFeedback asks the verifier for a corrective overlay.
func (c *Client) RequestFeedback(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error) {
	var resp FeedbackResponse
	if err := c.post(ctx, "/api/ai/feedback", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("verifier returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

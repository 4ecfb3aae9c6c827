package ctl

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/cyclopsvision/go-mentor/pkg/verify"
)

// VerifyOptions controls the verify probe command.
type VerifyOptions struct {
	StepTitle       string
	StepDescription string
	JSON            bool
}

// Verify sends the given image files straight to a verifier daemon and
// prints the verdict. Useful for probing a model setup without running a
// full session.
func Verify(baseURL string, imagePaths []string, opts VerifyOptions) error {
	if len(imagePaths) == 0 {
		return fmt.Errorf("no image files given")
	}

	frames := make([]string, 0, len(imagePaths))
	for _, p := range imagePaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		frames = append(frames, base64.StdEncoding.EncodeToString(data))
	}

	req := verify.Request{
		ProcedureID:     "probe",
		StepID:          1,
		StepTitle:       opts.StepTitle,
		StepDescription: opts.StepDescription,
		Frames:          frames,
	}
	if req.StepTitle == "" {
		req.StepTitle = "Probe"
	}

	var resp verify.Response
	if err := postJSON(baseURL, "/api/verify_step", req, &resp); err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(resp)
	}

	statusColor := yellow
	switch resp.Status {
	case verify.StatusComplete:
		statusColor = green
	case verify.StatusMistake:
		statusColor = red
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", padRight("status:", 12), colorize(statusColor, resp.Status))
	fmt.Printf("  %s %.2f\n", padRight("confidence:", 12), resp.Confidence)
	if resp.Reason != "" {
		fmt.Printf("  %s %s\n", padRight("reason:", 12), resp.Reason)
	}
	if resp.Suggestion != "" {
		fmt.Printf("  %s %s\n", padRight("suggestion:", 12), resp.Suggestion)
	}
	fmt.Println()
	return nil
}

// Health queries a verifier daemon's health endpoints.
func Health(baseURL string, jsonOut bool) error {
	var h map[string]any
	if err := getJSON(baseURL, "/health", &h); err != nil {
		return err
	}

	var ai map[string]any
	aiErr := getJSON(baseURL, "/api/ai/health", &ai)

	if jsonOut {
		out := map[string]any{"daemon": h}
		if aiErr == nil {
			out["ai"] = ai
		}
		return printJSON(out)
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", padRight("daemon:", 10), colorize(green, "ok"))
	if aiErr != nil {
		fmt.Printf("  %s %s\n", padRight("model:", 10), colorize(red, aiErr.Error()))
	} else if status, _ := ai["status"].(string); status != "" {
		c := green
		if status != "healthy" {
			c = red
		}
		fmt.Printf("  %s %s\n", padRight("model:", 10), colorize(c, status))
	}
	fmt.Println()
	return nil
}

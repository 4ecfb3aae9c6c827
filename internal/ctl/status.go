package ctl

import (
	"fmt"
)

// StatusResponse mirrors the JSON returned by the dashboard's GET /api/status.
type StatusResponse struct {
	State          string  `json:"state"`
	StepIndex      int     `json:"step_index"`
	StepTitle      string  `json:"step_title"`
	TotalSteps     int     `json:"total_steps"`
	Terminal       bool    `json:"terminal"`
	EngagedSeconds float64 `json:"engaged_seconds"`
	BufferedFrames int     `json:"buffered_frames"`
	Confidence     float64 `json:"confidence"`
	MistakeReason  string  `json:"mistake_reason"`
}

// Status fetches the session status and prints a formatted summary.
func Status(baseURL string, jsonOut bool) error {
	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(s)
	}

	fmt.Println()
	fmt.Printf("  %s\n", header("Session"))
	fmt.Printf("  %s %s\n", padRight("state:", 12), colorize(stateColor(s.State), s.State))
	if s.TotalSteps > 0 {
		fmt.Printf("  %s step %d of %d", padRight("progress:", 12), s.StepIndex+1, s.TotalSteps)
		if s.StepTitle != "" {
			fmt.Printf("  %s", colorize(dim, s.StepTitle))
		}
		fmt.Println()
	}
	fmt.Printf("  %s %.1fs\n", padRight("engaged:", 12), s.EngagedSeconds)
	fmt.Printf("  %s %d\n", padRight("frames:", 12), s.BufferedFrames)
	if s.Confidence > 0 {
		fmt.Printf("  %s %.2f\n", padRight("confidence:", 12), s.Confidence)
	}
	if s.MistakeReason != "" {
		fmt.Printf("  %s %s\n", padRight("mistake:", 12), colorize(red, s.MistakeReason))
	}
	if s.Terminal {
		fmt.Printf("  %s\n", colorize(green, "procedure finished"))
	}
	fmt.Println()
	return nil
}

// Steps fetches the procedure's step list with per-step progress markers.
func Steps(baseURL string, jsonOut bool) error {
	var resp struct {
		ProcedureID string `json:"procedure_id"`
		Title       string `json:"title"`
		Steps       []struct {
			StepID      string `json:"step_id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
		} `json:"steps"`
	}
	if err := getJSON(baseURL, "/api/steps", &resp); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Printf("  %s\n", header(resp.Title))
	for i, st := range resp.Steps {
		mark := " "
		color := white
		switch st.Status {
		case "done":
			mark, color = "x", green
		case "active":
			mark, color = ">", cyan
		}
		fmt.Printf("  %s %2d. %s\n", colorize(color, "["+mark+"]"), i+1, st.Title)
	}
	fmt.Println()
	return nil
}

// Advance tells the session to mark the current step done and move on.
func Advance(baseURL string, jsonOut bool) error {
	var resp struct {
		OK     bool           `json:"ok"`
		Status StatusResponse `json:"status"`
	}
	if err := postJSON(baseURL, "/api/advance", nil, &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp)
	}
	fmt.Printf("  advanced to step %d of %d\n", resp.Status.StepIndex+1, resp.Status.TotalSteps)
	return nil
}

// Mistake flags the current step as a mistake with the given reason.
func Mistake(baseURL, reason string, jsonOut bool) error {
	body := map[string]string{"reason": reason}
	var resp struct {
		OK     bool           `json:"ok"`
		Status StatusResponse `json:"status"`
	}
	if err := postJSON(baseURL, "/api/mistake", body, &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp)
	}
	fmt.Printf("  mistake flagged: %s\n", colorize(red, resp.Status.MistakeReason))
	return nil
}

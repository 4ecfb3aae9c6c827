package server

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/cyclopsvision/go-mentor/pkg/verify"
	"github.com/cyclopsvision/go-mentor/pkg/vlm"
)

// handleVerifyStep judges whether the current step is in progress, complete,
// or a mistake. Every failure path degrades to an in_progress verdict with
// HTTP 200: from the engine's point of view a broken verifier looks like a
// step that just isn't finished yet.
func (s *Server) handleVerifyStep(c *fiber.Ctx) error {
	var req verify.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if !s.allowCheck(req.ProcedureID) {
		return c.JSON(verify.Response{
			Status:     verify.StatusInProgress,
			Reason:     "Checking...",
			Confidence: 0.0,
		})
	}

	s.logger.Info("checking step",
		"procedure_id", req.ProcedureID,
		"step_id", req.StepID,
		"title", req.StepTitle,
		"frames", len(req.Frames),
	)

	images := make([][]byte, 0, len(req.Frames))
	for _, b64 := range req.Frames {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			s.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}
		images = append(images, data)
	}

	resp, err := s.vlm.Vision(c.Context(), &vlm.VisionRequest{
		System:      monitoringSystem,
		Prompt:      monitoringPrompt(req.StepTitle, req.StepDescription, len(images)),
		Images:      images,
		Temperature: 0.1,
	})
	if err != nil {
		s.logger.Error("verification failed", "error", err)
		return c.JSON(verify.Response{
			Status:     verify.StatusInProgress,
			Reason:     "Error",
			Confidence: 0.0,
		})
	}

	return c.JSON(parseVerdict(resp.Content))
}

// parseVerdict turns model output into a verdict, coercing anything
// malformed into a safe in_progress response.
func parseVerdict(content string) verify.Response {
	raw, err := vlm.ExtractJSON(content)
	if err != nil {
		return verify.Response{
			Status:     verify.StatusInProgress,
			Reason:     "Processing...",
			Confidence: 0.0,
		}
	}

	var v verify.Response
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return verify.Response{
			Status:     verify.StatusInProgress,
			Reason:     "Analyzing...",
			Confidence: 0.0,
		}
	}

	if !v.Known() {
		v.Status = verify.StatusInProgress
	}
	if v.Reason == "" {
		v.Reason = "Analyzing..."
	}
	return v
}

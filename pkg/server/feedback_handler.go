package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cyclopsvision/go-mentor/internal/store"
	"github.com/cyclopsvision/go-mentor/pkg/overlay"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
	"github.com/cyclopsvision/go-mentor/pkg/verify"
	"github.com/cyclopsvision/go-mentor/pkg/vlm"
)

// handleFeedback turns a detected mistake into a corrective overlay. Model
// failure falls back to a label-only overlay rather than an error: the user
// still gets pointed at the step that needs attention.
func (s *Server) handleFeedback(c *fiber.Ctx) error {
	var req verify.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	proc, err := s.store.Get(req.ProcedureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "procedure not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	step, err := proc.StepByID(req.StepID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	inst, err := s.generateOverlay(c, step, req)
	if err != nil {
		s.logger.Warn("overlay generation failed, using fallback", "error", err)
		return c.JSON(verify.FeedbackResponse{
			Success: true,
			Overlay: overlay.Fallback(step.Title),
			Message: "Using fallback correction",
		})
	}

	return c.JSON(verify.FeedbackResponse{
		Success: true,
		Overlay: inst,
		Message: "Correction generated successfully",
	})
}

func (s *Server) generateOverlay(c *fiber.Ctx, step procedure.Step, req verify.FeedbackRequest) (*overlay.Instruction, error) {
	visReq := &vlm.VisionRequest{
		Prompt:      overlayPrompt(step, req.MistakeType),
		Temperature: 0.3,
	}
	if req.Frame != "" {
		if data, err := base64.StdEncoding.DecodeString(req.Frame); err == nil {
			visReq.Images = [][]byte{data}
		}
	}

	resp, err := s.vlm.Vision(c.Context(), visReq)
	if err != nil {
		return nil, err
	}

	raw, err := vlm.ExtractJSON(resp.Content)
	if err != nil {
		return nil, err
	}

	var inst overlay.Instruction
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return nil, err
	}
	if inst.OverlayType == "" {
		inst.OverlayType = "diagram"
	}
	if inst.AudioText == "" {
		inst.AudioText = "Please adjust your technique."
	}
	if inst.DurationSeconds <= 0 {
		inst.DurationSeconds = 5.0
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

package server

import (
	"github.com/gofiber/fiber/v2"
)

// SpeakRequest is the body for POST /api/tts/speak.
type SpeakRequest struct {
	Text string `json:"text"`
}

// handleSpeak synthesizes speech and returns the audio bytes directly.
func (s *Server) handleSpeak(c *fiber.Ctx) error {
	if s.tts == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "tts not configured",
		})
	}

	var req SpeakRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	result, err := s.tts.Synthesize(c.Context(), req.Text)
	if err != nil {
		s.logger.Error("tts synthesis failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set("Content-Type", result.ContentType)
	c.Set("Content-Disposition", "inline; filename=speech.mp3")
	return c.Send(result.Audio)
}

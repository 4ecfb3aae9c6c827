package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/cyclopsvision/go-mentor/pkg/hub"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.engine.Status())
}

func (s *Server) handleSteps(c *fiber.Ctx) error {
	snap := s.engine.Status()
	steps := make([]fiber.Map, len(s.proc.Steps))
	for i, step := range s.proc.Steps {
		status := "pending"
		switch {
		case i < snap.StepIndex || snap.Terminal:
			status = "done"
		case i == snap.StepIndex:
			status = "active"
		}
		steps[i] = fiber.Map{
			"step_id":     step.ID,
			"title":       step.Title,
			"description": step.Description,
			"status":      status,
		}
	}
	return c.JSON(fiber.Map{
		"procedure_id": s.proc.ID,
		"title":        s.proc.Title,
		"steps":        steps,
	})
}

func (s *Server) handleLog(c *fiber.Ctx) error {
	s.logsMu.RLock()
	logs := make([]LogEntry, len(s.logs))
	copy(logs, s.logs)
	s.logsMu.RUnlock()
	return c.JSON(logs)
}

func (s *Server) handleAdvance(c *fiber.Ctx) error {
	s.engine.ManualAdvance()
	s.AddLog("step", "step advanced manually")
	return c.JSON(fiber.Map{"ok": true, "status": s.engine.Status()})
}

func (s *Server) handleMistake(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		req.Reason = "flagged by operator"
	}
	s.engine.ManualTriggerMistake(req.Reason)
	s.AddLog("mistake", req.Reason)
	return c.JSON(fiber.Map{"ok": true, "status": s.engine.Status()})
}

func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	// Send the current snapshot so new subscribers render immediately.
	_ = conn.WriteJSON(s.engine.Status())
	client.Run()
}

func (s *Server) handleLogWS(conn *websocket.Conn) {
	client := hub.NewClient(s.logHub, conn)
	client.Run()
}

func (s *Server) handleCameraWS(conn *websocket.Conn) {
	client := hub.NewClient(s.cameraHub, conn)
	client.Run()
}

package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/cyclopsvision/go-mentor/internal/store"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

// CreateProcedureRequest is the body for POST /procedures.
type CreateProcedureRequest struct {
	Title string           `json:"title"`
	Steps []procedure.Step `json:"steps"`
}

func (s *Server) handleCreateProcedure(c *fiber.Ctx) error {
	var req CreateProcedureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	proc := procedure.New(req.Title, req.Steps)
	if err := proc.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := s.store.Create(proc); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("procedure created", "procedure_id", proc.ID, "steps", proc.NumSteps())
	return c.Status(fiber.StatusCreated).JSON(proc)
}

func (s *Server) handleListProcedures(c *fiber.Ctx) error {
	procs, err := s.store.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if procs == nil {
		procs = []*procedure.Procedure{}
	}
	return c.JSON(procs)
}

func (s *Server) handleGetProcedure(c *fiber.Ctx) error {
	proc, err := s.store.Get(c.Params("id"))
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
	return c.JSON(proc)
}

func (s *Server) handleDeleteProcedure(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "procedure not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

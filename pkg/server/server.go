// Package server implements the verifier service: the HTTP API that judges
// step frames with a vision-language model, generates correction overlays,
// synthesizes spoken feedback, and stores procedures.
package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/cyclopsvision/go-mentor/internal/store"
	"github.com/cyclopsvision/go-mentor/pkg/tts"
	"github.com/cyclopsvision/go-mentor/pkg/vlm"
)

// Server is the verifier service.
type Server struct {
	app    *fiber.App
	store  *store.Store
	vlm    vlm.Provider
	tts    tts.Provider
	logger *slog.Logger

	// Per-procedure rate limiting of verification calls. The engine polls
	// at its own interval; this protects the model from misbehaving or
	// multiple clients.
	rateLimit time.Duration
	lastCheck map[string]time.Time
	rateMu    sync.Mutex

	now func() time.Time
}

// Options configures the server. Store and VLM are required; TTS is
// optional (the speak endpoint reports unavailable without it).
type Options struct {
	Store     *store.Store
	VLM       vlm.Provider
	TTS       tts.Provider
	RateLimit time.Duration
	Logger    *slog.Logger
}

// New creates the verifier service and registers all routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rateLimit := opts.RateLimit
	if rateLimit < 0 {
		rateLimit = 0
	}

	s := &Server{
		store:     opts.Store,
		vlm:       opts.VLM,
		tts:       opts.TTS,
		logger:    logger.With("component", "server"),
		rateLimit: rateLimit,
		lastCheck: make(map[string]time.Time),
		now:       time.Now,
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-mentor verifier",
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024, // frames are base64 JPEG
	})
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)

	app.Post("/procedures", s.handleCreateProcedure)
	app.Get("/procedures", s.handleListProcedures)
	app.Get("/procedures/:id", s.handleGetProcedure)
	app.Delete("/procedures/:id", s.handleDeleteProcedure)

	api := app.Group("/api")
	api.Post("/verify_step", s.handleVerifyStep)
	api.Post("/ai/feedback", s.handleFeedback)
	api.Get("/ai/health", s.handleAIHealth)
	api.Post("/tts/speak", s.handleSpeak)

	s.app = app
	return s
}

// Listen serves the API on the given address, blocking until shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("verifier service listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    "go-mentor verifier",
		"status":  "running",
		"version": "0.1.0",
		"endpoints": fiber.Map{
			"procedures": "/procedures",
			"verify":     "/api/verify_step",
			"feedback":   "/api/ai/feedback",
			"tts":        "/api/tts/speak",
			"health":     "/health",
		},
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (s *Server) handleAIHealth(c *fiber.Ctx) error {
	if err := s.vlm.Health(c.Context()); err != nil {
		return c.JSON(fiber.Map{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"ai_service": "vlm",
	})
}

// allowCheck implements the per-procedure rate limit. The first call for a
// procedure always passes.
func (s *Server) allowCheck(procedureID string) bool {
	if s.rateLimit == 0 {
		return true
	}
	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	now := s.now()
	if last, ok := s.lastCheck[procedureID]; ok && now.Sub(last) < s.rateLimit {
		return false
	}
	s.lastCheck[procedureID] = now
	return true
}

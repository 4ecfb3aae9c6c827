// Package web provides a real-time dashboard for a running guided session:
// current step, monitoring state, presence, and a camera preview, plus
// manual advance/mistake controls. It renders no graphics itself; it is the
// observation surface the UI binds to.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/cyclopsvision/go-mentor/pkg/guidance"
	"github.com/cyclopsvision/go-mentor/pkg/hub"
	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

// LogEntry is one line of the session log.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, step, mistake, error
	Message string `json:"message"`
}

// Server is the session dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	engine *guidance.Engine
	proc   *procedure.Procedure

	// Session log buffer (last 500 entries).
	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates a dashboard for the given engine and procedure.
func NewServer(addr string, engine *guidance.Engine, proc *procedure.Procedure) *Server {
	s := &Server{
		addr:      addr,
		logger:    slog.Default().With("component", "web"),
		engine:    engine,
		proc:      proc,
		logs:      make([]LogEntry, 0, 500),
		statusHub: hub.New("status"),
		logHub:    hub.New("log"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-mentor dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/steps", s.handleSteps)
	api.Get("/log", s.handleLog)
	api.Post("/advance", s.handleAdvance)
	api.Post("/mistake", s.handleMistake)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/log", websocket.New(s.handleLogWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and serves the dashboard, blocking.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync serves the dashboard in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PushState broadcasts an engine snapshot to status stream subscribers.
// Wire this to the engine's OnStateChange callback.
func (s *Server) PushState(snap guidance.Snapshot) {
	s.statusHub.BroadcastJSON(snap)
}

// AddLog appends to the session log and broadcasts the entry.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame broadcasts a JPEG preview frame to camera subscribers.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

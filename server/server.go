// Package server exposes a session over HTTP: one POST is one conversation
// turn, GET serves the static chat page.
package server

import (
	"net"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/pkg/session"
)

// Server is the HTTP driver for a session. Turns are serialized by the
// session, so concurrent connections never interleave a turn.
type Server struct {
	config  Config
	session *session.Session
	logger  *zap.Logger
	app     *fiber.App

	shutdownOnce sync.Once
}

// New creates a Server for s.
func New(config Config, s *session.Session, logger *zap.Logger) *Server {
	if config.StaticDir == "" {
		config.StaticDir = "."
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	srv := &Server{
		config:  config,
		session: s,
		logger:  logger,
		app:     app,
	}
	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// Turn archive inspection
	s.app.Get("/archive/stats", s.handleArchiveStats)
	s.app.Get("/archive/history", s.handleListHistories)
	s.app.Get("/archive/history/:hash", s.handleGetHistory)

	s.app.All("/mcp", adaptor.HTTPHandler(s.mcpHandler()))

	s.app.Post("/", s.handleChat)
	s.app.Post("/*", s.handleChat)
	s.app.Get("/", s.handleStatic)
	s.app.Get("/*", s.handleStatic)
}

// Run listens on the configured address until an exit command or Shutdown,
// then saves the conversation.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("listen", s.config.ListenAddr))
	return s.finish(s.app.Listen(s.config.ListenAddr))
}

// RunWithListener is Run on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting server", zap.String("listen", ln.Addr().String()))
	return s.finish(s.app.Listener(ln))
}

func (s *Server) finish(err error) error {
	s.logger.Info("saving conversation and shutting down")
	s.session.Stop()
	_ = s.session.Save()
	return err
}

// Shutdown stops accepting connections and lets in-flight requests finish.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.app.Shutdown()
	})
	return err
}

// shutdownAsync is used from a handler, which must return before the
// server can drain.
func (s *Server) shutdownAsync() {
	go func() {
		if err := s.Shutdown(); err != nil {
			s.logger.Error("shutdown failed", zap.Error(err))
		}
	}()
}

// Package server exposes the mailroom HTTP API. Every route except the
// health probe and the OAuth callback requires the shared token in the
// X-Auth-Token header.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"

	"github.com/mailroom-dev/mailroom/internal/app"
	"github.com/mailroom-dev/mailroom/internal/crypto"
	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/store"
)

const authHeader = "X-Auth-Token"

// Server bundles the HTTP handlers with their dependencies.
type Server struct {
	store  store.Store
	box    *crypto.Box
	syncer *app.Syncer
	oauth  *oauth2.Config
	logger *slog.Logger
	token  string

	// pending OAuth states, keyed by state token
	mu     sync.Mutex
	states map[string]time.Time

	app *fiber.App
}

// New builds the server and registers all routes.
func New(s store.Store, box *crypto.Box, syncer *app.Syncer, oauthCfg *oauth2.Config, token string, logger *slog.Logger) *Server {
	srv := &Server{
		store:  s,
		box:    box,
		syncer: syncer,
		oauth:  oauthCfg,
		logger: logger,
		token:  token,
		states: make(map[string]time.Time),
	}
	srv.app = fiber.New(fiber.Config{
		AppName:               "mailroom",
		DisableStartupMessage: true,
		ErrorHandler:          srv.handleError,
	})
	srv.routes()
	return srv
}

func (s *Server) routes() {
	// Registered before the auth middleware so they stay reachable
	// without a token. Google redirects the browser to the callback and
	// cannot attach our header.
	s.app.Get("/health", s.health)
	s.app.Get("/gmail/callback", s.gmailCallback)

	s.app.Use(s.requireToken)

	s.app.Post("/sync", s.syncExplicit)
	s.app.Get("/messages", s.listMessages)
	s.app.Get("/messages/:id", s.getMessage)
	s.app.Post("/messages/:id/delete", s.deleteMessage)
	s.app.Post("/messages/:id/restore", s.restoreMessage)
	s.app.Get("/messages/:id/audit", s.messageAudit)
	s.app.Get("/trash", s.listTrash)
	s.app.Get("/search", s.searchMessages)

	s.app.Get("/accounts", s.listAccounts)
	s.app.Post("/accounts", s.createAccount)
	s.app.Delete("/accounts/:id", s.deleteAccount)
	s.app.Post("/accounts/:id/sync", s.syncAccount)
	s.app.Get("/accounts/:id/settings", s.getSettings)
	s.app.Put("/accounts/:id/settings", s.putSettings)

	s.app.Get("/gmail/auth-url", s.gmailAuthURL)
}

// Listen serves HTTP on the given address until shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.token == "" || c.Get(authHeader) != s.token {
		return fmt.Errorf("%w: missing or invalid auth token", domain.ErrUnauthorized)
	}
	return c.Next()
}

// handleError maps domain error kinds onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	s.logger.Error("unhandled request error",
		"method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).
		JSON(fiber.Map{"error": "internal server error"})
}

// pathID parses the :id route parameter.
func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, c.Params("id"))
	}
	return int64(id), nil
}

package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/provider/gmail"
)

// stateTTL bounds how long an issued OAuth state stays redeemable.
const stateTTL = 10 * time.Minute

func (s *Server) gmailAuthURL(c *fiber.Ctx) error {
	if s.oauth == nil || s.oauth.ClientID == "" {
		return fmt.Errorf("%w: gmail client credentials are not configured", domain.ErrValidation)
	}

	url, state := gmail.AuthURL(s.oauth)
	s.rememberState(state)
	return c.JSON(fiber.Map{"auth_url": url, "state": state})
}

func (s *Server) gmailCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return fmt.Errorf("%w: code query parameter is required", domain.ErrValidation)
	}
	if !s.consumeState(c.Query("state")) {
		return fmt.Errorf("%w: unknown or expired oauth state", domain.ErrUnauthorized)
	}

	result, err := gmail.ExchangeCode(c.Context(), s.oauth, s.store, code)
	if err != nil {
		return err
	}
	s.logger.Info("gmail account linked",
		"account_id", result.AccountID, "email", result.EmailAddress)
	return c.JSON(result)
}

func (s *Server) rememberState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, issued := range s.states {
		if now.Sub(issued) > stateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
}

func (s *Server) consumeState(state string) bool {
	if state == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Since(issued) <= stateTTL
}

package server

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

type createAccountRequest struct {
	EmailAddress      string `json:"email"`
	IMAPHost          string `json:"imap_host"`
	IMAPPort          int    `json:"imap_port"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	AllowRemoteImages bool   `json:"allow_remote_images"`
}

func (r *createAccountRequest) validate() error {
	r.EmailAddress = strings.TrimSpace(r.EmailAddress)
	r.IMAPHost = strings.TrimSpace(r.IMAPHost)
	r.Username = strings.TrimSpace(r.Username)
	switch {
	case r.EmailAddress == "" || !strings.Contains(r.EmailAddress, "@"):
		return fmt.Errorf("%w: a valid email address is required", domain.ErrValidation)
	case r.IMAPHost == "":
		return fmt.Errorf("%w: imap_host is required", domain.ErrValidation)
	case r.Username == "":
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	case r.Password == "":
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if r.IMAPPort == 0 {
		r.IMAPPort = 993
	}
	return nil
}

func (s *Server) listAccounts(c *fiber.Ctx) error {
	accounts, err := s.store.ListAccounts(c.Context())
	if err != nil {
		return err
	}
	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, viewAccount(&accounts[i]))
	}
	return c.JSON(fiber.Map{"accounts": views})
}

func (s *Server) createAccount(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	// Passwords are stored encrypted only; the cleartext never touches
	// the database.
	encrypted, err := s.box.Encrypt(req.Password)
	if err != nil {
		return err
	}

	account := &domain.Account{
		EmailAddress:      req.EmailAddress,
		IMAPHost:          req.IMAPHost,
		IMAPPort:          req.IMAPPort,
		Username:          req.Username,
		EncryptedPassword: encrypted,
		AllowRemoteImages: req.AllowRemoteImages,
	}
	if err := s.store.CreateAccount(c.Context(), account); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(viewAccount(account))
}

func (s *Server) deleteAccount(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAccount(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "deleted": true})
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	account, err := s.store.GetAccount(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"allow_remote_images": account.AllowRemoteImages})
}

func (s *Server) putSettings(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		AllowRemoteImages *bool `json:"allow_remote_images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	if req.AllowRemoteImages == nil {
		return fmt.Errorf("%w: allow_remote_images is required", domain.ErrValidation)
	}

	if err := s.store.SetAllowRemoteImages(c.Context(), id, *req.AllowRemoteImages); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"allow_remote_images": *req.AllowRemoteImages})
}

package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// syncExplicit runs a one-shot IMAP sync from credentials supplied in the
// request body. The account is created on first use so the fetched
// messages have an owner; subsequent calls with the same address reuse it.
func (s *Server) syncExplicit(c *fiber.Ctx) error {
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	account, err := s.ensureAccount(c.Context(), &req)
	if err != nil {
		return err
	}

	result, err := s.syncer.SyncWithPassword(c.Context(), account, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"account_id": account.ID,
		"fetched":    result.Fetched,
		"skipped":    result.Skipped,
	})
}

func (s *Server) ensureAccount(ctx context.Context, req *createAccountRequest) (*domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].EmailAddress == req.EmailAddress {
			return &accounts[i], nil
		}
	}

	encrypted, err := s.box.Encrypt(req.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		EmailAddress:      req.EmailAddress,
		IMAPHost:          req.IMAPHost,
		IMAPPort:          req.IMAPPort,
		Username:          req.Username,
		EncryptedPassword: encrypted,
		AllowRemoteImages: req.AllowRemoteImages,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// syncAccount runs a sync pass for a stored account, letting the
// orchestrator pick the driver from the credentials on file.
func (s *Server) syncAccount(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := s.syncer.SyncAccount(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

package server

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// listOptions parses the page, page_size, and search query parameters
// shared by the listing routes.
func listOptions(c *fiber.Ctx) (store.ListOptions, error) {
	opts := store.ListOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", defaultPageSize),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if opts.Page < 1 {
		return opts, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if opts.PageSize < 1 || opts.PageSize > maxPageSize {
		return opts, fmt.Errorf("%w: page_size must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}
	return opts, nil
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}

	msgs, err := s.store.ListMessages(c.Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"messages":  viewMessages(msgs),
		"page":      opts.Page,
		"page_size": opts.PageSize,
	})
}

func (s *Server) listTrash(c *fiber.Ctx) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}
	opts.OnlyTrash = true

	msgs, err := s.store.ListMessages(c.Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"messages":  viewMessages(msgs),
		"page":      opts.Page,
		"page_size": opts.PageSize,
	})
}

func (s *Server) getMessage(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	msg, err := s.store.GetMessage(c.Context(), id)
	if err != nil {
		return err
	}
	// Hidden messages are only reachable through the trash listing.
	if msg.Hidden {
		return fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
	}

	srcs, err := s.store.ListImageSources(c.Context(), id)
	if err != nil {
		return err
	}
	blocked := make([]string, 0, len(srcs))
	for _, src := range srcs {
		blocked = append(blocked, src.Src)
	}

	return c.JSON(messageDetail{
		messageView:   viewMessage(msg),
		BlockedImages: blocked,
	})
}

func (s *Server) deleteMessage(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.HideMessage(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "hidden": true})
}

func (s *Server) restoreMessage(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.RestoreMessage(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "hidden": false})
}

func (s *Server) messageAudit(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := s.store.GetMessage(c.Context(), id); err != nil {
		return err
	}
	entries, err := s.store.ListAudit(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"audit": viewAudit(entries)})
}

// searchMessages serves full-text search over subject and sender, ranked
// by relevance. Listing-style substring filtering stays on /messages.
func (s *Server) searchMessages(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fmt.Errorf("%w: query parameter q is required", domain.ErrValidation)
	}

	msgs, err := s.store.SearchMessages(c.Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": viewMessages(msgs), "query": query})
}

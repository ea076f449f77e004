package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/store"
)

// InsertMessage writes a message and its blocked image sources in one
// transaction. The insert is a no-op, not an error, when the account
// already holds a row with the same sequence number or (when set) the same
// external id; the returned bool reports whether a row was actually
// written. A skipped insert leaves no image rows behind.
func (s *DB) InsertMessage(ctx context.Context, msg *domain.Message, imageSrcs []string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var externalID any
	if msg.ExternalID != "" {
		externalID = msg.ExternalID
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (account_id, seq, external_id, subject, from_addr, to_addrs,
			received_at, body_plain, body_html_raw, body_html_sanitized, hidden)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		msg.AccountID, msg.Sequence, externalID, msg.Subject, msg.FromAddr, msg.ToAddrs,
		msg.ReceivedAt.UTC().Format(time.RFC3339), msg.BodyPlain, msg.BodyHTMLRaw, msg.BodyHTMLSanitized,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Duplicate natural key, absorbed silently.
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read new message id: %w", err)
	}
	msg.ID = id

	for _, src := range imageSrcs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO image_sources (message_id, src) VALUES (?, ?)`, id, src); err != nil {
			return false, fmt.Errorf("failed to insert image source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit message insert: %w", err)
	}
	return true, nil
}

const messageColumns = `id, account_id, seq, external_id, subject, from_addr, to_addrs,
	received_at, body_plain, body_html_raw, body_html_sanitized, hidden, deleted_at`

func scanMessage(scan func(dest ...any) error) (*domain.Message, error) {
	var m domain.Message
	var externalID, deletedAt sql.NullString
	var receivedAt string

	if err := scan(&m.ID, &m.AccountID, &m.Sequence, &externalID, &m.Subject, &m.FromAddr,
		&m.ToAddrs, &receivedAt, &m.BodyPlain, &m.BodyHTMLRaw, &m.BodyHTMLSanitized,
		&m.Hidden, &deletedAt); err != nil {
		return nil, err
	}

	m.ExternalID = externalID.String

	received, err := time.Parse(time.RFC3339, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse received timestamp: %w", err)
	}
	m.ReceivedAt = received

	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deletion timestamp: %w", err)
		}
		m.DeletedAt = &t
	}
	return &m, nil
}

func (s *DB) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %d: %w", id, err)
	}
	return m, nil
}

// ListMessages returns one page of messages ordered by received timestamp
// descending. Each whitespace-separated search token must match subject,
// sender, or plain body as a substring.
func (s *DB) ListMessages(ctx context.Context, opts store.ListOptions) ([]domain.Message, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	var where []string
	var args []any

	switch {
	case opts.OnlyTrash:
		where = append(where, "hidden = 1")
	case !opts.IncludeHidden:
		where = append(where, "hidden = 0")
	}

	for _, token := range strings.Fields(opts.Search) {
		where = append(where, "(subject LIKE ? OR from_addr LIKE ? OR body_plain LIKE ?)")
		pattern := "%" + token + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query := `SELECT ` + messageColumns + ` FROM messages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY datetime(received_at) DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func (s *DB) ListImageSources(ctx context.Context, messageID int64) ([]domain.ImageSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, src FROM image_sources WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image sources: %w", err)
	}
	defer rows.Close()

	var srcs []domain.ImageSource
	for rows.Next() {
		var img domain.ImageSource
		if err := rows.Scan(&img.ID, &img.MessageID, &img.Src); err != nil {
			return nil, fmt.Errorf("failed to scan image source: %w", err)
		}
		srcs = append(srcs, img)
	}
	return srcs, rows.Err()
}

// HideMessage soft-deletes a message: it is marked hidden, stamped with
// the deletion time, and an audit entry is appended. Hiding an already
// hidden message is a valid repeat of the same action.
func (s *DB) HideMessage(ctx context.Context, id int64) error {
	return s.setHidden(ctx, id, true)
}

// RestoreMessage reverses a soft delete, clearing the deletion timestamp
// and appending an audit entry.
func (s *DB) RestoreMessage(ctx context.Context, id int64) error {
	return s.setHidden(ctx, id, false)
}

func (s *DB) setHidden(ctx context.Context, id int64, hidden bool) error {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	action := domain.AuditActionRestore
	if hidden {
		action = domain.AuditActionDelete
		res, err = tx.ExecContext(ctx,
			`UPDATE messages SET hidden = 1, deleted_at = ? WHERE id = ?`, now, id)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE messages SET hidden = 0, deleted_at = NULL WHERE id = ?`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update message %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (message_id, action, occurred_at) VALUES (?, ?, ?)`,
		id, action, now); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message update: %w", err)
	}
	return nil
}

func (s *DB) ListAudit(ctx context.Context, messageID int64) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, action, occurred_at, COALESCE(note, '')
		FROM audit_log WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var occurred string
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Action, &occurred, &e.Note); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339, occurred)
		if err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		e.OccurredAt = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *DB) CountMessages(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE account_id = ?`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages for account %d: %w", accountID, err)
	}
	return count, nil
}

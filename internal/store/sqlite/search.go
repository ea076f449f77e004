package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// SearchMessages queries the FTS5 index over subject and sender. The
// index is kept synchronized with the messages table by triggers, so
// results never lag an insert, update, or delete. Hidden messages are
// excluded. When the driver was built without FTS5 support, search falls
// back to substring filtering over the same columns, newest first.
func (s *DB) SearchMessages(ctx context.Context, query string) ([]domain.Message, error) {
	if !s.ftsEnabled {
		return s.searchSubstring(ctx, query)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedMessageColumns("m")+`
		FROM messages m
		JOIN message_search fts ON fts.rowid = m.id
		WHERE message_search MATCH ? AND m.hidden = 0
		ORDER BY rank`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// searchSubstring is the no-index search path: AND across whitespace
// tokens, each matching subject or sender as a substring.
func (s *DB) searchSubstring(ctx context.Context, query string) ([]domain.Message, error) {
	where := []string{"hidden = 0"}
	var args []any
	for _, token := range strings.Fields(query) {
		where = append(where, "(subject LIKE ? OR from_addr LIKE ?)")
		pattern := "%" + token + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY datetime(received_at) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func prefixedMessageColumns(alias string) string {
	return alias + `.id, ` + alias + `.account_id, ` + alias + `.seq, ` + alias + `.external_id, ` +
		alias + `.subject, ` + alias + `.from_addr, ` + alias + `.to_addrs, ` + alias + `.received_at, ` +
		alias + `.body_plain, ` + alias + `.body_html_raw, ` + alias + `.body_html_sanitized, ` +
		alias + `.hidden, ` + alias + `.deleted_at`
}

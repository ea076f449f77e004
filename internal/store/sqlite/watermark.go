package sqlite

import (
	"context"
	"fmt"
)

// HighestSequence returns the maximum stored sequence number for an
// account, or 0 when the account has no messages. This is the fetch
// watermark consumed by the IMAP sync driver.
func (s *DB) HighestSequence(ctx context.Context, accountID int64) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE account_id = ?`, accountID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get highest sequence for account %d: %w", accountID, err)
	}
	return max, nil
}

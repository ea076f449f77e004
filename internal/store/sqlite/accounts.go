package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

func (s *DB) CreateAccount(ctx context.Context, acct *domain.Account) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (email_address, imap_host, imap_port, username, encrypted_password, allow_remote_images)
		VALUES (?, ?, ?, ?, ?, ?)`,
		acct.EmailAddress, acct.IMAPHost, acct.IMAPPort, acct.Username,
		acct.EncryptedPassword, acct.AllowRemoteImages,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new account id: %w", err)
	}
	acct.ID = id
	return nil
}

func (s *DB) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email_address, imap_host, imap_port, username, encrypted_password, allow_remote_images, created_at
		FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.EmailAddress, &a.IMAPHost, &a.IMAPPort, &a.Username,
		&a.EncryptedPassword, &a.AllowRemoteImages, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return &a, nil
}

func (s *DB) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email_address, imap_host, imap_port, username, encrypted_password, allow_remote_images, created_at
		FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.EmailAddress, &a.IMAPHost, &a.IMAPPort, &a.Username,
			&a.EncryptedPassword, &a.AllowRemoteImages, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account; owned messages, image sources, audit
// entries, and OAuth credentials go with it via foreign-key cascade.
func (s *DB) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *DB) SetAllowRemoteImages(ctx context.Context, id int64, allow bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET allow_remote_images = ? WHERE id = ?`, allow, id)
	if err != nil {
		return fmt.Errorf("failed to update account %d settings: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

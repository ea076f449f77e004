package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// SaveOAuthCredential inserts or replaces the credential record for an
// (account, provider) pair. A fresh exchange or refresh rewrites the prior
// record rather than duplicating it.
func (s *DB) SaveOAuthCredential(ctx context.Context, cred *domain.OAuthCredential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oauth_credentials (account_id, provider, access_token, refresh_token, expiry, scope, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(account_id, provider) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry        = excluded.expiry,
			scope         = excluded.scope,
			updated_at    = excluded.updated_at`,
		cred.AccountID, cred.Provider, cred.AccessToken, cred.RefreshToken,
		cred.Expiry.UTC().Format(time.RFC3339), cred.Scope,
	)
	if err != nil {
		return fmt.Errorf("failed to save oauth credential for account %d: %w", cred.AccountID, err)
	}
	return nil
}

func (s *DB) GetOAuthCredential(ctx context.Context, accountID int64, provider string) (*domain.OAuthCredential, error) {
	var c domain.OAuthCredential
	var refresh, scope sql.NullString
	var expiry sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, provider, access_token, refresh_token, expiry, scope
		FROM oauth_credentials WHERE account_id = ? AND provider = ?`,
		accountID, provider,
	).Scan(&c.AccountID, &c.Provider, &c.AccessToken, &refresh, &expiry, &scope)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("oauth credential for account %d: %w", accountID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth credential for account %d: %w", accountID, err)
	}

	c.RefreshToken = refresh.String
	c.Scope = scope.String
	if expiry.Valid {
		t, err := time.Parse(time.RFC3339, expiry.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credential expiry: %w", err)
		}
		c.Expiry = t
	}
	return &c, nil
}

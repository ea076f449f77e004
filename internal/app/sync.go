// Package app wires the sync pipeline together: per account it selects
// the right driver based on which credential type is on file and surfaces
// a uniform result shape.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/mailroom-dev/mailroom/internal/crypto"
	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/provider"
	"github.com/mailroom-dev/mailroom/internal/provider/gmail"
	"github.com/mailroom-dev/mailroom/internal/provider/imap"
	"github.com/mailroom-dev/mailroom/internal/store"
)

// Syncer orchestrates synchronization for stored accounts.
type Syncer struct {
	store  store.Store
	box    *crypto.Box
	logger *slog.Logger

	// newIMAP and newGmail build the concrete drivers; tests stub them.
	newIMAP  func(account *domain.Account, password string) provider.MailSource
	newGmail func(account *domain.Account) provider.MailSource
}

// NewSyncer creates a Syncer. oauthCfg supplies the Gmail client
// credentials used for token refresh, maxResults bounds one provider
// listing call, and gmailOpts extends the Gmail API client options.
func NewSyncer(s store.Store, box *crypto.Box, oauthCfg *oauth2.Config, maxResults int, logger *slog.Logger, gmailOpts ...option.ClientOption) *Syncer {
	if maxResults <= 0 {
		maxResults = gmail.DefaultMaxResults
	}
	sy := &Syncer{store: s, box: box, logger: logger}
	sy.newIMAP = func(account *domain.Account, password string) provider.MailSource {
		return imap.New(s, logger, account, password, nil)
	}
	sy.newGmail = func(account *domain.Account) provider.MailSource {
		return gmail.New(s, logger, account, oauthCfg, maxResults, gmailOpts...)
	}
	return sy
}

// SyncAccount runs one sync pass for the account. An OAuth credential on
// file selects the Gmail driver; otherwise the stored password is
// decrypted and the IMAP driver runs. Missing account, missing
// credentials, and failed decryption surface as distinct error kinds.
func (s *Syncer) SyncAccount(ctx context.Context, accountID int64) (domain.SyncResult, error) {
	var result domain.SyncResult

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return result, err
	}

	_, err = s.store.GetOAuthCredential(ctx, accountID, gmail.Provider)
	if err == nil {
		return s.newGmail(account).Sync(ctx)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return result, err
	}

	if account.EncryptedPassword == "" {
		return result, fmt.Errorf("%w: account %d has no stored credentials", domain.ErrValidation, accountID)
	}

	password, err := s.box.Decrypt(account.EncryptedPassword)
	if err != nil {
		return result, err
	}

	return s.newIMAP(account, password).Sync(ctx)
}

// SyncWithPassword runs an IMAP sync for the account with a cleartext
// password supplied by the caller, bypassing stored credentials.
func (s *Syncer) SyncWithPassword(ctx context.Context, account *domain.Account, password string) (domain.SyncResult, error) {
	return s.newIMAP(account, password).Sync(ctx)
}

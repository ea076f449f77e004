package gmail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/store"
)

// OAuthConfig builds the oauth2 configuration from the operator-supplied
// client credentials. No credentials are embedded in the binary.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmailapi.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthURL returns the provider consent URL and the random state token the
// callback must echo back.
func AuthURL(cfg *oauth2.Config) (url, state string) {
	state = uuid.NewString()
	url = cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return url, state
}

// ExchangeResult reports the account created or refreshed by an
// authorization-code exchange.
type ExchangeResult struct {
	AccountID    int64  `json:"account_id"`
	EmailAddress string `json:"email"`
}

// ExchangeCode trades an authorization code for tokens, resolves the
// mailbox address from the Gmail profile, creates the owning account, and
// stores the credential record. The account keeps IMAP coordinates so a
// password can be registered later as a fallback.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, s store.Store, code string, opts ...option.ClientOption) (*ExchangeResult, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", domain.ErrUpstream, err)
	}

	clientOpts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(token)),
	}, opts...)
	svc, err := gmailapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	profile, err := svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gmail profile: %w", domain.ErrUpstream, err)
	}

	account := &domain.Account{
		EmailAddress: profile.EmailAddress,
		IMAPHost:     "imap.gmail.com",
		IMAPPort:     993,
		Username:     profile.EmailAddress,
	}
	if err := s.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	cred := &domain.OAuthCredential{
		AccountID:    account.ID,
		Provider:     Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry.UTC(),
		Scope:        gmailapi.GmailReadonlyScope,
	}
	if err := s.SaveOAuthCredential(ctx, cred); err != nil {
		return nil, err
	}

	return &ExchangeResult{AccountID: account.ID, EmailAddress: profile.EmailAddress}, nil
}

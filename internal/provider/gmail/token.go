package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// expiryMargin is the safety window before a stored access token is
// considered stale.
const expiryMargin = 60 * time.Second

// usableToken resolves a bearer token for the account. A stored token
// whose expiry is comfortably in the future is reused; otherwise a stored
// refresh credential is exchanged for a fresh token, which is persisted
// alongside the same refresh credential. With no refresh credential the
// stale token is returned as a last resort.
func (d *Driver) usableToken(ctx context.Context) (*oauth2.Token, error) {
	cred, err := d.store.GetOAuthCredential(ctx, d.account.ID, Provider)
	if err != nil {
		return nil, err
	}

	if !cred.Expiry.IsZero() && time.Until(cred.Expiry) > expiryMargin {
		return &oauth2.Token{AccessToken: cred.AccessToken, Expiry: cred.Expiry}, nil
	}

	if cred.RefreshToken == "" {
		// No way to refresh; let the provider reject it if truly stale.
		return &oauth2.Token{AccessToken: cred.AccessToken}, nil
	}

	source := d.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to refresh gmail token: %w", domain.ErrUpstream, err)
	}

	cred.AccessToken = fresh.AccessToken
	cred.Expiry = fresh.Expiry.UTC()
	if err := d.store.SaveOAuthCredential(ctx, cred); err != nil {
		return nil, err
	}
	return fresh, nil
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/normalize"
	"github.com/mailroom-dev/mailroom/internal/store"
)

const seedAddress = "demo@example.com"

var seedSubjects = []string{
	"Weekly digest",
	"Your invoice is ready",
	"Security alert: new sign-in",
	"Meeting notes",
	"Newsletter: release roundup",
}

// seedEpoch anchors seeded timestamps. Each message is received one hour
// after the previous sequence number, so later seed runs always sort
// after earlier ones in the newest-first listing.
var seedEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Seed fills the store with a demo account and count synthetic messages so
// listings, search, and sanitization can be exercised without a live
// mailbox. Re-running appends after the current watermark; it never
// duplicates. Returns the demo account id.
func Seed(ctx context.Context, s store.Store, count int) (int64, error) {
	account, err := seedAccount(ctx, s)
	if err != nil {
		return 0, err
	}

	seq, err := s.HighestSequence(ctx, account.ID)
	if err != nil {
		return 0, err
	}

	for i := 0; i < count; i++ {
		subject := fmt.Sprintf("%s #%d", seedSubjects[i%len(seedSubjects)], int(seq)+i+1)
		raw := normalize.Raw{
			Subject:    subject,
			From:       fmt.Sprintf("sender%d@example.org", i%3),
			To:         seedAddress,
			PlainParts: []string{fmt.Sprintf("Plain text body for %q.", subject)},
		}
		if i%2 == 0 {
			raw.HTMLParts = []string{fmt.Sprintf(
				`<p>HTML body for %s.</p><img src="https://img.example.org/%d.png">`,
				subject, i)}
		}
		norm := normalize.Canonical(raw)
		sequence := seq + int64(i) + 1
		msg := &domain.Message{
			AccountID:         account.ID,
			Sequence:          sequence,
			Subject:           norm.Subject,
			FromAddr:          norm.From,
			ToAddrs:           norm.To,
			ReceivedAt:        seedEpoch.Add(time.Duration(sequence) * time.Hour),
			BodyPlain:         norm.BodyPlain,
			BodyHTMLRaw:       norm.BodyHTMLRaw,
			BodyHTMLSanitized: norm.BodyHTMLSanitized,
		}
		if _, err := s.InsertMessage(ctx, msg, norm.ImageSources); err != nil {
			return 0, fmt.Errorf("failed to seed message %d: %w", msg.Sequence, err)
		}
	}
	return account.ID, nil
}

func seedAccount(ctx context.Context, s store.Store) (*domain.Account, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].EmailAddress == seedAddress {
			return &accounts[i], nil
		}
	}
	account := &domain.Account{
		EmailAddress: seedAddress,
		IMAPHost:     "imap.example.com",
		IMAPPort:     993,
		Username:     seedAddress,
	}
	if err := s.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

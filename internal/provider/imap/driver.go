// Package imap syncs a mailbox over IMAP: it computes the fetch window
// from the stored watermark, retrieves a bounded batch of new messages by
// UID, and persists each one through the normalizer.
package imap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/emersion/go-imap"

	"github.com/mailroom-dev/mailroom/internal/domain"
	"github.com/mailroom-dev/mailroom/internal/normalize"
	"github.com/mailroom-dev/mailroom/internal/provider"
	"github.com/mailroom-dev/mailroom/internal/store"
)

// BatchSize bounds how many new messages one Sync call processes. Callers
// re-invoke to drain a larger backlog.
const BatchSize = 50

// Session is the subset of the IMAP client the driver uses. The concrete
// implementation is an authenticated go-imap client; tests substitute a
// fake.
type Session interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// DialFunc opens an authenticated session against a mail server.
type DialFunc func(host string, port int, username, password string) (Session, error)

// Driver syncs one IMAP account.
type Driver struct {
	store    store.Store
	logger   *slog.Logger
	dial     DialFunc
	account  *domain.Account
	password string
}

// New returns a Driver for the given account using the plaintext password
// resolved by the caller. A nil dial falls back to a TLS connection.
func New(s store.Store, logger *slog.Logger, account *domain.Account, password string, dial DialFunc) *Driver {
	if dial == nil {
		dial = dialTLS
	}
	return &Driver{
		store:    s,
		logger:   logger.With("component", "imap", "account", account.ID),
		dial:     dial,
		account:  account,
		password: password,
	}
}

// Sync fetches messages with UIDs above the stored watermark, at most
// BatchSize per call, in ascending UID order. A single message that fails
// to fetch or parse is skipped; failure to open the session aborts the
// call; a failed search yields zero fetched without raising.
func (d *Driver) Sync(ctx context.Context) (domain.SyncResult, error) {
	var result domain.SyncResult

	watermark, err := d.store.HighestSequence(ctx, d.account.ID)
	if err != nil {
		return result, err
	}

	sess, err := d.dial(d.account.IMAPHost, d.account.IMAPPort, d.account.Username, d.password)
	if err != nil {
		return result, fmt.Errorf("%w: failed to open imap session: %w", domain.ErrUpstream, err)
	}
	defer sess.Logout()

	if _, err := sess.Select("INBOX", true); err != nil {
		return result, fmt.Errorf("%w: failed to select INBOX: %w", domain.ErrUpstream, err)
	}

	criteria := imap.NewSearchCriteria()
	window := new(imap.SeqSet)
	if watermark > 0 {
		window.AddRange(uint32(watermark)+1, 0)
	} else {
		window.AddRange(1, 0)
	}
	criteria.Uid = window

	uids, err := sess.UidSearch(criteria)
	if err != nil {
		d.logger.Warn("uid search failed", "error", err)
		return result, nil
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > BatchSize {
		uids = uids[:BatchSize]
	}

	for _, uid := range uids {
		// The search window is inclusive of the watermark UID on
		// servers that clamp an empty range to the last message.
		if int64(uid) <= watermark {
			continue
		}
		inserted, err := d.fetchOne(ctx, sess, uid)
		if err != nil {
			d.logger.Warn("skipping message", "uid", uid, "error", err)
			continue
		}
		if inserted {
			result.Fetched++
		} else {
			result.Skipped++
		}
	}

	d.logger.Info("imap sync complete", "fetched", result.Fetched, "skipped", result.Skipped)
	return result, nil
}

// fetchOne retrieves and persists a single message by UID. The returned
// bool reports whether the store actually inserted a row.
func (d *Driver) fetchOne(ctx context.Context, sess Session, uid uint32) (bool, error) {
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	set := new(imap.SeqSet)
	set.AddNum(uid)

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- sess.UidFetch(set, items, ch)
	}()

	var msg *imap.Message
	for m := range ch {
		if msg == nil {
			msg = m
		}
	}
	if err := <-done; err != nil {
		return false, fmt.Errorf("failed to fetch uid %d: %w", uid, err)
	}
	if msg == nil {
		return false, fmt.Errorf("no data returned for uid %d", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return false, fmt.Errorf("no body section for uid %d", uid)
	}

	raw, err := parseRaw(body)
	if err != nil {
		return false, fmt.Errorf("failed to parse uid %d: %w", uid, err)
	}

	n := normalize.Canonical(raw)
	record := &domain.Message{
		AccountID:         d.account.ID,
		Sequence:          int64(uid),
		Subject:           n.Subject,
		FromAddr:          n.From,
		ToAddrs:           n.To,
		ReceivedAt:        n.Received,
		BodyPlain:         n.BodyPlain,
		BodyHTMLRaw:       n.BodyHTMLRaw,
		BodyHTMLSanitized: n.BodyHTMLSanitized,
	}
	return d.store.InsertMessage(ctx, record, n.ImageSources)
}

// Compile-time interface compliance check.
var _ provider.MailSource = (*Driver)(nil)

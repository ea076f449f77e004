// Package provider defines the capability every remote mail source
// implements. Two implementations exist, the IMAP driver and the Gmail
// API driver, and the sync orchestrator selects between them based on
// which credential type an account has on file.
package provider

import (
	"context"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// MailSource syncs one remote mailbox into the local store. A source is
// constructed for a specific account with its resolved credentials; Sync
// runs one bounded fetch pass and reports how many messages were stored
// and how many were absorbed as duplicates.
type MailSource interface {
	Sync(ctx context.Context) (domain.SyncResult, error)
}

package domain

import "time"

// Message is the canonical record every sync source normalizes into.
//
// Sequence is the protocol-native sequence number: the IMAP UID for
// IMAP-sourced messages, a synthesized monotonic counter for Gmail-sourced
// ones. ExternalID carries the provider's opaque message id and is empty
// for IMAP messages. (AccountID, Sequence) is unique per account, and so is
// (AccountID, ExternalID) whenever ExternalID is set.
type Message struct {
	ID                int64
	AccountID         int64
	Sequence          int64
	ExternalID        string
	Subject           string
	FromAddr          string
	ToAddrs           string
	ReceivedAt        time.Time
	BodyPlain         string
	BodyHTMLRaw       string
	BodyHTMLSanitized string
	Hidden            bool
	DeletedAt         *time.Time
}

// Visible reports whether the message should appear in normal listings.
func (m *Message) Visible() bool {
	return !m.Hidden
}

// ImageSource records one image URL stripped from a message's HTML during
// sanitization, in document order.
type ImageSource struct {
	ID        int64
	MessageID int64
	Src       string
}

// Audit actions recorded for soft-delete state changes.
const (
	AuditActionDelete  = "delete"
	AuditActionRestore = "restore"
)

// AuditEntry is an append-only record of a hide or restore action.
type AuditEntry struct {
	ID         int64
	MessageID  int64
	Action     string
	OccurredAt time.Time
	Note       string
}

// SyncResult is the uniform outcome shape reported by every sync driver.
// Fetched counts messages actually inserted; Skipped counts messages whose
// natural key already existed locally.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Skipped int `json:"skipped"`
}

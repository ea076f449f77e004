package server

import (
	"time"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// messageView is the wire shape of a message. The raw HTML body never
// leaves the process; only the sanitized rendering is served.
type messageView struct {
	ID         int64  `json:"id"`
	AccountID  int64  `json:"account_id"`
	Sequence   int64  `json:"seq"`
	ExternalID string `json:"external_id,omitempty"`
	Subject    string `json:"subject"`
	From       string `json:"from"`
	To         string `json:"to"`
	ReceivedAt string `json:"received_at"`
	BodyPlain  string `json:"body_plain"`
	BodyHTML   string `json:"body_html"`
	Hidden     bool   `json:"hidden"`
	DeletedAt  string `json:"deleted_at,omitempty"`
}

// messageDetail extends messageView with the image URLs stripped during
// sanitization so a client can offer per-image loading.
type messageDetail struct {
	messageView
	BlockedImages []string `json:"blocked_images"`
}

func viewMessage(m *domain.Message) messageView {
	v := messageView{
		ID:         m.ID,
		AccountID:  m.AccountID,
		Sequence:   m.Sequence,
		ExternalID: m.ExternalID,
		Subject:    m.Subject,
		From:       m.FromAddr,
		To:         m.ToAddrs,
		ReceivedAt: m.ReceivedAt.UTC().Format(time.RFC3339),
		BodyPlain:  m.BodyPlain,
		BodyHTML:   m.BodyHTMLSanitized,
		Hidden:     m.Hidden,
	}
	if m.DeletedAt != nil {
		v.DeletedAt = m.DeletedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func viewMessages(msgs []domain.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for i := range msgs {
		views = append(views, viewMessage(&msgs[i]))
	}
	return views
}

type accountView struct {
	ID                int64  `json:"id"`
	EmailAddress      string `json:"email"`
	IMAPHost          string `json:"imap_host"`
	IMAPPort          int    `json:"imap_port"`
	Username          string `json:"username"`
	AllowRemoteImages bool   `json:"allow_remote_images"`
	CreatedAt         string `json:"created_at"`
}

func viewAccount(a *domain.Account) accountView {
	return accountView{
		ID:                a.ID,
		EmailAddress:      a.EmailAddress,
		IMAPHost:          a.IMAPHost,
		IMAPPort:          a.IMAPPort,
		Username:          a.Username,
		AllowRemoteImages: a.AllowRemoteImages,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type auditView struct {
	ID         int64  `json:"id"`
	MessageID  int64  `json:"message_id"`
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
	Note       string `json:"note,omitempty"`
}

func viewAudit(entries []domain.AuditEntry) []auditView {
	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{
			ID:         e.ID,
			MessageID:  e.MessageID,
			Action:     e.Action,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
			Note:       e.Note,
		})
	}
	return views
}

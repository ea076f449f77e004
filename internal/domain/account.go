package domain

import "time"

// Account identifies one remote mailbox. An account authenticates either
// with a stored (encrypted) IMAP password or with an OAuth credential
// record; when both exist, sync prefers OAuth.
type Account struct {
	ID                int64
	EmailAddress      string
	IMAPHost          string
	IMAPPort          int
	Username          string
	EncryptedPassword string
	AllowRemoteImages bool
	CreatedAt         time.Time
}

// OAuthCredential holds the bearer material for one (account, provider)
// pair. A fresh authorization exchange replaces the prior record.
type OAuthCredential struct {
	AccountID    int64
	Provider     string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scope        string
}

package store

import (
	"context"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

// Store defines the persistence interface for the application.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	SetAllowRemoteImages(ctx context.Context, id int64, allow bool) error

	// OAuth credentials
	SaveOAuthCredential(ctx context.Context, cred *domain.OAuthCredential) error
	GetOAuthCredential(ctx context.Context, accountID int64, provider string) (*domain.OAuthCredential, error)

	// Messages
	InsertMessage(ctx context.Context, msg *domain.Message, imageSrcs []string) (bool, error)
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)
	ListMessages(ctx context.Context, opts ListOptions) ([]domain.Message, error)
	ListImageSources(ctx context.Context, messageID int64) ([]domain.ImageSource, error)
	HideMessage(ctx context.Context, id int64) error
	RestoreMessage(ctx context.Context, id int64) error
	ListAudit(ctx context.Context, messageID int64) ([]domain.AuditEntry, error)
	CountMessages(ctx context.Context, accountID int64) (int64, error)

	// Sync watermark
	HighestSequence(ctx context.Context, accountID int64) (int64, error)

	// Search index (subject + sender)
	SearchMessages(ctx context.Context, query string) ([]domain.Message, error)

	// Lifecycle
	Close() error
}

// ListOptions configures paginated message listings.
//
// Search is a whitespace-tokenized filter: every token must match at least
// one of subject, sender, or plain body as a substring. Hidden messages
// are excluded unless OnlyTrash (hidden only) or IncludeHidden is set.
type ListOptions struct {
	Search        string
	Page          int
	PageSize      int
	OnlyTrash     bool
	IncludeHidden bool
}

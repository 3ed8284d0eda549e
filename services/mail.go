package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
	"github.com/lumeboard/lumeboard/backend/secrets"
)

// ErrProviderNotImplemented marks providers that are declared but not yet
// backed by a client.
var ErrProviderNotImplemented = errors.New("mail provider not implemented")

// MailMessage is the provider-neutral view of a mailbox message
type MailMessage struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	Subject string    `json:"subject"`
	Snippet string    `json:"snippet,omitempty"`
	Date    time.Time `json:"date"`
	Unread  bool      `json:"unread"`
}

// BulkActionResult reports per-message outcomes of a bulk operation
type BulkActionResult struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// MailProvider is the per-provider mailbox client
type MailProvider interface {
	ListMessages(ctx context.Context, limit int) ([]MailMessage, error)
	BulkAction(ctx context.Context, action string, messageIDs []string) (*BulkActionResult, error)
}

// Supported bulk actions
const (
	MailActionArchive  = "archive"
	MailActionDelete   = "delete"
	MailActionMarkRead = "mark_read"
)

func ValidMailAction(action string) bool {
	switch action {
	case MailActionArchive, MailActionDelete, MailActionMarkRead:
		return true
	}
	return false
}

type MailService struct {
	repo         *repository.GORMRepository
	oauthService *OAuthService
	cipher       *secrets.Cipher
}

func NewMailService(repo *repository.GORMRepository, oauthService *OAuthService, cipher *secrets.Cipher) *MailService {
	return &MailService{
		repo:         repo,
		oauthService: oauthService,
		cipher:       cipher,
	}
}

// providerFor builds the client for a mail account
func (s *MailService) providerFor(ctx context.Context, account *models.MailAccount) (MailProvider, error) {
	switch account.Provider {
	case "gmail":
		token, err := s.oauthService.Token(ctx, account.UserID, "google")
		if err != nil {
			return nil, fmt.Errorf("failed to get google token: %w", err)
		}
		return NewGmailProvider(token), nil
	case "imap":
		password, err := s.cipher.Decrypt(account.IMAPPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt imap password: %w", err)
		}
		return NewIMAPProvider(account.IMAPHost, account.IMAPPort, account.IMAPUsername, password), nil
	case "outlook":
		return NewOutlookProvider(), nil
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", account.Provider)
	}
}

// ListMessages fetches recent messages for one of the user's mail accounts
func (s *MailService) ListMessages(ctx context.Context, userID, accountID string, limit int) ([]MailMessage, error) {
	account, err := s.repo.GetMailAccount(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mail account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("mail account not found")
	}

	provider, err := s.providerFor(ctx, account)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 25
	}

	messages, err := provider.ListMessages(ctx, limit)
	if err != nil {
		return nil, err
	}

	slog.Info("Mail messages listed", "account_id", accountID, "provider", account.Provider, "count", len(messages))
	return messages, nil
}

// BulkAction applies an action to a set of messages. Per-message failures are
// collected in the result, not retried.
func (s *MailService) BulkAction(ctx context.Context, userID, accountID, action string, messageIDs []string) (*BulkActionResult, error) {
	if !ValidMailAction(action) {
		return nil, fmt.Errorf("invalid action: %s", action)
	}
	if len(messageIDs) == 0 {
		return nil, fmt.Errorf("no message ids provided")
	}

	account, err := s.repo.GetMailAccount(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mail account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("mail account not found")
	}

	provider, err := s.providerFor(ctx, account)
	if err != nil {
		return nil, err
	}

	result, err := provider.BulkAction(ctx, action, messageIDs)
	if err != nil {
		return nil, err
	}

	slog.Info("Mail bulk action applied",
		"account_id", accountID,
		"provider", account.Provider,
		"action", action,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result, nil
}

// EncryptIMAPPassword seals an IMAP password for storage
func (s *MailService) EncryptIMAPPassword(password string) (string, error) {
	return s.cipher.Encrypt(password)
}

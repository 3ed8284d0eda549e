package services

import "context"

// OutlookProvider is a declared placeholder. Accounts can be stored, but
// mailbox calls fail until a Microsoft Graph client lands.
type OutlookProvider struct{}

func NewOutlookProvider() *OutlookProvider {
	return &OutlookProvider{}
}

func (o *OutlookProvider) ListMessages(ctx context.Context, limit int) ([]MailMessage, error) {
	return nil, ErrProviderNotImplemented
}

func (o *OutlookProvider) BulkAction(ctx context.Context, action string, messageIDs []string) (*BulkActionResult, error) {
	return nil, ErrProviderNotImplemented
}

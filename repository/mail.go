package repository

import (
	"context"
	"log/slog"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
)

// Mail account operations
func (r *GORMRepository) CreateMailAccount(ctx context.Context, account *models.MailAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		slog.Error("Failed to create mail account", "error", err, "user_id", account.UserID)
		return err
	}
	slog.Info("Mail account created", "account_id", account.ID, "user_id", account.UserID, "provider", account.Provider)
	return nil
}

func (r *GORMRepository) GetMailAccounts(ctx context.Context, userID string) ([]models.MailAccount, error) {
	var accounts []models.MailAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&accounts).Error
	if err != nil {
		slog.Error("Failed to get mail accounts", "error", err, "user_id", userID)
		return nil, err
	}
	return accounts, nil
}

func (r *GORMRepository) GetMailAccount(ctx context.Context, accountID, userID string) (*models.MailAccount, error) {
	var account models.MailAccount
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get mail account", "error", err, "account_id", accountID, "user_id", userID)
		return nil, err
	}
	return &account, nil
}

func (r *GORMRepository) UpdateMailAccount(ctx context.Context, account *models.MailAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		slog.Error("Failed to update mail account", "error", err, "account_id", account.ID)
		return err
	}
	slog.Info("Mail account updated", "account_id", account.ID)
	return nil
}

func (r *GORMRepository) DeleteMailAccount(ctx context.Context, accountID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).Delete(&models.MailAccount{}).Error; err != nil {
		slog.Error("Failed to delete mail account", "error", err, "account_id", accountID)
		return err
	}
	slog.Info("Mail account deleted", "account_id", accountID)
	return nil
}

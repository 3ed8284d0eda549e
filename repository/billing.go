package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientCredits is returned when a debit would push the balance
// below zero.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Subscription operations
func (r *GORMRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		slog.Error("Failed to create subscription", "error", err, "user_id", sub.UserID)
		return err
	}
	slog.Info("Subscription created", "subscription_id", sub.ID, "user_id", sub.UserID, "plan", sub.Plan)
	return nil
}

func (r *GORMRepository) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get subscription", "error", err, "user_id", userID)
		return nil, err
	}
	return &sub, nil
}

func (r *GORMRepository) GetSubscriptionByStripeCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get subscription by customer", "error", err, "customer_id", customerID)
		return nil, err
	}
	return &sub, nil
}

func (r *GORMRepository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		slog.Error("Failed to update subscription", "error", err, "subscription_id", sub.ID)
		return err
	}
	slog.Info("Subscription updated", "subscription_id", sub.ID, "plan", sub.Plan, "status", sub.Status)
	return nil
}

func (r *GORMRepository) GetExpiringTrials(ctx context.Context, before time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", "trialing", before).
		Find(&subs).Error
	if err != nil {
		slog.Error("Failed to get expiring trials", "error", err)
		return nil, err
	}
	return subs, nil
}

func (r *GORMRepository) GetActiveSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).Where("status = ?", "active").Find(&subs).Error; err != nil {
		slog.Error("Failed to get active subscriptions", "error", err)
		return nil, err
	}
	return subs, nil
}

// Credit ledger operations

// GetCreditBalance returns the running balance from the latest ledger entry.
func (r *GORMRepository) GetCreditBalance(ctx context.Context, userID string) (int64, error) {
	var entry models.CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		slog.Error("Failed to get credit balance", "error", err, "user_id", userID)
		return 0, err
	}
	return entry.Balance, nil
}

// AppendCreditEntry appends a ledger row inside a transaction. The latest
// entry is row-locked so concurrent debits cannot both read the same balance;
// the database is the arbiter. A negative delta that would take the balance
// below zero fails with ErrInsufficientCredits.
func (r *GORMRepository) AppendCreditEntry(ctx context.Context, userID string, delta int64, reason, reference string) (*models.CreditEntry, error) {
	var created *models.CreditEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var balance int64
		var last models.CreditEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			First(&last).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if err == nil {
			balance = last.Balance
		}

		if balance+delta < 0 {
			return ErrInsufficientCredits
		}

		entry := models.CreditEntry{
			UserID:    userID,
			Delta:     delta,
			Balance:   balance + delta,
			Reason:    reason,
			Reference: reference,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		created = &entry
		return nil
	})
	if err != nil {
		if err != ErrInsufficientCredits {
			slog.Error("Failed to append credit entry", "error", err, "user_id", userID, "delta", delta, "reason", reason)
		}
		return nil, err
	}

	slog.Info("Credit entry appended", "user_id", userID, "delta", delta, "balance", created.Balance, "reason", reason)
	return created, nil
}

func (r *GORMRepository) GetCreditEntries(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	var entries []models.CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		slog.Error("Failed to get credit entries", "error", err, "user_id", userID)
		return nil, err
	}
	return entries, nil
}

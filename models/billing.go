package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription mirrors the Stripe subscription state for a user. One row per
// user; trialing users have no Stripe IDs until their first checkout.
type Subscription struct {
	ID                   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID               string         `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Plan                 string         `gorm:"size:50;not null;default:'free';check:plan IN ('free', 'pro', 'team')" json:"plan"`
	Status               string         `gorm:"size:50;not null;default:'trialing';check:status IN ('trialing', 'active', 'past_due', 'canceled')" json:"status"`
	StripeCustomerID     string         `gorm:"size:255;index" json:"-"`
	StripeSubscriptionID string         `gorm:"size:255;index" json:"-"`
	TrialEndsAt          *time.Time     `json:"trial_ends_at,omitempty"`
	CurrentPeriodEnd     *time.Time     `json:"current_period_end,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CreditEntry is an append-only ledger row. Delta is positive for grants and
// negative for consumption; Balance is the running balance after the entry.
type CreditEntry struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Delta     int64          `gorm:"not null" json:"delta"`
	Balance   int64          `gorm:"not null" json:"balance"`
	Reason    string         `gorm:"size:100;not null" json:"reason"` // e.g. "trial_grant", "plan_refill", "chat_message"
	Reference string         `gorm:"size:255" json:"reference,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

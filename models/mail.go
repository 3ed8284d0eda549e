package models

import (
	"time"

	"gorm.io/gorm"
)

// MailAccount is a connected mailbox. Gmail and Outlook accounts bind to an
// OAuthConnection; IMAP accounts carry host/port/username and an AES-GCM
// encrypted password in IMAPPassword.
type MailAccount struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider     string         `gorm:"size:32;not null;check:provider IN ('gmail', 'outlook', 'imap')" json:"provider"`
	Email        string         `gorm:"size:255;not null" json:"email"`
	Label        string         `gorm:"size:100" json:"label,omitempty"`
	ConnectionID *string        `gorm:"type:uuid;index" json:"connection_id,omitempty"` // gmail/outlook only
	IMAPHost     string         `gorm:"size:255" json:"imap_host,omitempty"`
	IMAPPort     int            `json:"imap_port,omitempty"`
	IMAPUsername string         `gorm:"size:255" json:"imap_username,omitempty"`
	IMAPPassword string         `gorm:"type:text" json:"-"` // Encrypted (excluded from JSON)
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Connection *OAuthConnection `gorm:"foreignKey:ConnectionID" json:"connection,omitempty"`
}

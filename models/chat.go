package models

import (
	"time"

	"gorm.io/gorm"
)

// Agent represents both public assistant personas (user_id is NULL) and
// private user-created ones (user_id is NOT NULL).
type Agent struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      *string        `gorm:"type:uuid;index" json:"user_id,omitempty"` // NULL for public agents
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Personality string         `gorm:"type:text;not null" json:"personality"` // System-prompt persona text
	Focus       string         `gorm:"size:100" json:"focus,omitempty"`       // productivity, email, code review, ...
	IsPublic    bool           `gorm:"default:false" json:"is_public"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Conversations []Conversation `gorm:"foreignKey:AgentID" json:"conversations,omitempty"`
}

// Conversation is a chat thread between a user and an agent persona.
type Conversation struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	AgentID   string         `gorm:"type:uuid;not null;index" json:"agent_id"`
	Title     string         `gorm:"size:255" json:"title,omitempty"`
	Status    string         `gorm:"not null;default:'active';check:status IN ('active', 'archived')" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User          `gorm:"foreignKey:UserID" json:"user"`
	Agent    Agent         `gorm:"foreignKey:AgentID" json:"agent"`
	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// ChatMessage stores one ordered turn of a conversation.
type ChatMessage struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ConversationID string         `gorm:"type:uuid;not null;index" json:"conversation_id"`
	TurnOrder      int            `gorm:"not null" json:"turn_order"`
	Role           string         `gorm:"not null;check:role IN ('user', 'assistant')" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"conversation"`
}

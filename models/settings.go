package models

import (
	"time"

	"gorm.io/gorm"
)

// UserSettings holds per-user dashboard customization. One row per user,
// created lazily with defaults on first read.
type UserSettings struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       string         `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Theme        string         `gorm:"size:50;not null;default:'system'" json:"theme"`
	AccentColor  string         `gorm:"size:20;default:'#6366f1'" json:"accent_color"`
	Font         string         `gorm:"size:100;default:'Inter'" json:"font"`
	SidebarWidth int            `gorm:"default:280" json:"sidebar_width"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Widget is a configurable dashboard panel with persisted position/size.
type Widget struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index:idx_user_kind_slot,unique" json:"user_id"`
	Kind      string         `gorm:"size:50;not null;index:idx_user_kind_slot,unique;check:kind IN ('news', 'pull_requests', 'mail', 'timer', 'chat')" json:"kind"`
	Slot      int            `gorm:"not null;default:0;index:idx_user_kind_slot,unique" json:"slot"`
	PosX      int            `gorm:"default:0" json:"pos_x"`
	PosY      int            `gorm:"default:0" json:"pos_y"`
	Width     int            `gorm:"default:1" json:"width"`
	Height    int            `gorm:"default:1" json:"height"`
	IsEnabled bool           `gorm:"default:true" json:"is_enabled"`
	Config    string         `gorm:"type:jsonb;default:'{}'" json:"config"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

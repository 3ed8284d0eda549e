package models

import (
	"time"

	"gorm.io/gorm"
)

// NewsSource is an RSS/Atom feed to poll. Public sources (user_id is NULL)
// are seeded defaults shared by everyone; users can add private sources.
type NewsSource struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    *string        `gorm:"type:uuid;index" json:"user_id,omitempty"` // NULL for shared defaults
	Name      string         `gorm:"size:255;not null" json:"name"`
	FeedURL   string         `gorm:"size:1000;not null" json:"feed_url"`
	Category  string         `gorm:"size:100" json:"category,omitempty"`
	IsEnabled bool           `gorm:"default:true" json:"is_enabled"`
	FetchedAt *time.Time     `json:"fetched_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []NewsItem `gorm:"foreignKey:SourceID" json:"items,omitempty"`
}

// NewsItem is one normalized feed entry. GUID is unique per source so
// refreshes upsert instead of duplicating.
type NewsItem struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SourceID    string         `gorm:"type:uuid;not null;index:idx_source_guid,unique" json:"source_id"`
	GUID        string         `gorm:"size:1000;not null;index:idx_source_guid,unique" json:"guid"`
	Title       string         `gorm:"size:1000;not null" json:"title"`
	Link        string         `gorm:"size:1000" json:"link"`
	Summary     string         `gorm:"type:text" json:"summary,omitempty"`
	ImageURL    string         `gorm:"size:1000" json:"image_url,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Source NewsSource `gorm:"foreignKey:SourceID" json:"source,omitempty"`
}

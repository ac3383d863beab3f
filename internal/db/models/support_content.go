package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupportContent is an article, exercise or resource offered to users.
// Unpublished content is visible to administrators only.
type SupportContent struct {
	// ID is the unique identifier for the content (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// Type is the content kind (e.g., "ARTICLE", "EXERCISE", "VIDEO").
	Type string `gorm:"size:30;not null"`
	// Title of the content.
	Title string `gorm:"size:255;not null"`
	// Content is the body text or resource reference.
	Content string `gorm:"type:text"`
	// Category groups content for filtering (e.g., "STRESS", "SLEEP").
	Category string `gorm:"size:50"`
	// Published content is listed to regular users.
	Published bool `gorm:"default:false"`
	// AuthorID is the creating user.
	AuthorID string `gorm:"size:36;not null"`
	// Author is the associated creating user.
	Author User `gorm:"foreignKey:AuthorID"`
	// CreatedAt is the timestamp when the content was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the content was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the SupportContent model.
func (SupportContent) TableName() string {
	return "support_contents"
}

// BeforeCreate assigns a UUID primary key when none was set.
func (s *SupportContent) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiaryComment is a comment on an anonymously shared diary entry.
type DiaryComment struct {
	// ID is the unique identifier for the comment (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// DiaryID is the commented diary entry.
	DiaryID string `gorm:"size:36;not null;index"`
	// Diary is the associated diary entry.
	Diary Diary `gorm:"foreignKey:DiaryID;constraint:OnDelete:CASCADE"`
	// UserID is the comment author.
	UserID string `gorm:"size:36;not null"`
	// User is the associated author.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Content is the comment text.
	Content string `gorm:"type:text;not null"`
	// CreatedAt is the timestamp when the comment was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the comment was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DiaryComment model.
func (DiaryComment) TableName() string {
	return "diary_comments"
}

// BeforeCreate assigns a UUID primary key when none was set.
func (c *DiaryComment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkNote is an ideological work note a manager keeps about a subject
// user in their unit. Access is restricted to the note's unit scope.
type WorkNote struct {
	// ID is the unique identifier for the note (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// ManagerID is the manager who wrote the note.
	ManagerID string `gorm:"size:36;not null;index"`
	// Manager is the associated author.
	Manager User `gorm:"foreignKey:ManagerID"`
	// SubjectUserID is the user the note is about (optional).
	SubjectUserID *string `gorm:"size:36"`
	// UnitID is the unit the note belongs to.
	UnitID uint `gorm:"not null;index"`
	// Unit is the associated unit.
	Unit Unit `gorm:"foreignKey:UnitID"`
	// Title of the note.
	Title string `gorm:"size:255;not null"`
	// Content is the note body.
	Content string `gorm:"type:text"`
	// NoteType classifies the note (e.g., "OBSERVATION", "CONVERSATION", "FOLLOW_UP").
	NoteType string `gorm:"size:30"`
	// Status tracks the follow-up state (e.g., "OPEN", "IN_PROGRESS", "CLOSED").
	Status string `gorm:"size:20;default:'OPEN'"`
	// CreatedAt is the timestamp when the note was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the note was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the WorkNote model.
func (WorkNote) TableName() string {
	return "work_notes"
}

// BeforeCreate assigns a UUID primary key when none was set.
func (w *WorkNote) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	return nil
}

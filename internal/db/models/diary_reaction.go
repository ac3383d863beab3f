package models

import "time"

// DiaryReaction is a single emoji reaction on a shared diary entry.
// A user can react to an entry at most once; re-reacting replaces the type.
type DiaryReaction struct {
	// DiaryID is the reacted diary entry.
	DiaryID string `gorm:"primaryKey;size:36"`
	// UserID is the reacting user.
	UserID string `gorm:"primaryKey;size:36"`
	// Diary is the associated diary entry.
	Diary Diary `gorm:"foreignKey:DiaryID;constraint:OnDelete:CASCADE"`
	// User is the associated user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// ReactionType is the reaction kind (e.g., "LIKE", "HEART", "HUG").
	ReactionType string `gorm:"size:20;not null"`
	// CreatedAt is the timestamp when the reaction was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the DiaryReaction model.
func (DiaryReaction) TableName() string {
	return "diary_reactions"
}

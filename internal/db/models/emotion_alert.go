package models

import "time"

// Alert levels ordered by severity.
const (
	AlertLevelLow      = "LOW"
	AlertLevelMedium   = "MEDIUM"
	AlertLevelHigh     = "HIGH"
	AlertLevelCritical = "CRITICAL"
)

// EmotionAlert flags a unit whose aggregated emotion score crossed a
// warning threshold. Alerts stay open until a manager resolves them.
type EmotionAlert struct {
	// ID is the unique identifier for the alert.
	ID uint `gorm:"primaryKey"`
	// UnitID is the unit the alert refers to.
	UnitID uint `gorm:"not null;index"`
	// Unit is the associated unit.
	Unit Unit `gorm:"foreignKey:UnitID"`
	// AlertLevel is the severity (LOW, MEDIUM, HIGH, CRITICAL).
	AlertLevel string `gorm:"size:20;not null"`
	// Message describes why the alert was raised.
	Message string `gorm:"size:512"`
	// IsResolved marks the alert as handled.
	IsResolved bool `gorm:"default:false;index"`
	// ResolverID is the user who resolved the alert (nil while open).
	ResolverID *string `gorm:"size:36"`
	// Resolver is the associated resolving user.
	Resolver *User `gorm:"foreignKey:ResolverID"`
	// ResolvedAt is when the alert was resolved (nil while open).
	ResolvedAt *time.Time
	// CreatedAt is the timestamp when the alert was raised (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the EmotionAlert model.
func (EmotionAlert) TableName() string {
	return "emotion_alerts"
}

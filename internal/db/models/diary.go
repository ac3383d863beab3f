package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmotionStatus classifies the dominant emotion of a diary entry.
type EmotionStatus string

const (
	EmotionVeryHappy EmotionStatus = "VERY_HAPPY"
	EmotionHappy     EmotionStatus = "HAPPY"
	EmotionExcited   EmotionStatus = "EXCITED"
	EmotionNormal    EmotionStatus = "NORMAL"
	EmotionTired     EmotionStatus = "TIRED"
	EmotionWorried   EmotionStatus = "WORRIED"
	EmotionStressed  EmotionStatus = "STRESSED"
	EmotionAnxious   EmotionStatus = "ANXIOUS"
	EmotionSad       EmotionStatus = "SAD"
	EmotionAngry     EmotionStatus = "ANGRY"
)

// PrivacyLevel controls who may see a diary entry.
type PrivacyLevel string

const (
	// PrivacyPrivate entries are visible to the author only.
	PrivacyPrivate PrivacyLevel = "PRIVATE"
	// PrivacyAnonymousShare entries appear in the anonymous feed and in statistics.
	PrivacyAnonymousShare PrivacyLevel = "ANONYMOUS_SHARE"
	// PrivacyStatisticsOnly entries are counted in statistics but never shown.
	PrivacyStatisticsOnly PrivacyLevel = "STATISTICS_ONLY"
)

// EmotionScore maps an emotion status to a 1-10 wellbeing score.
// Unknown statuses score the neutral 5.
func EmotionScore(s EmotionStatus) int {
	switch s {
	case EmotionVeryHappy:
		return 10
	case EmotionHappy, EmotionExcited:
		return 8
	case EmotionNormal:
		return 5
	case EmotionTired:
		return 4
	case EmotionWorried:
		return 3
	case EmotionStressed, EmotionAnxious:
		return 2
	case EmotionSad, EmotionAngry:
		return 1
	default:
		return 5
	}
}

// IsPositiveEmotion reports whether the status counts as positive in trends.
func IsPositiveEmotion(s EmotionStatus) bool {
	return s == EmotionVeryHappy || s == EmotionHappy || s == EmotionExcited
}

// IsNegativeEmotion reports whether the status counts as negative in trends.
func IsNegativeEmotion(s EmotionStatus) bool {
	switch s {
	case EmotionSad, EmotionWorried, EmotionStressed, EmotionAnxious, EmotionAngry:
		return true
	default:
		return false
	}
}

// Hashtags is a JSON encoded string list stored in a text column.
type Hashtags []string

// Value implements driver.Valuer.
func (h Hashtags) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}

	out, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (h *Hashtags) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("hashtags: unsupported scan type")
	}
}

// Diary represents a single diary entry of a user.
// A user can write at most one entry per calendar day.
type Diary struct {
	// ID is the unique identifier for the diary entry (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// UserID is the author of the entry.
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_user_date"`
	// User is the associated author.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Date is the calendar day the entry is written for (time truncated).
	Date time.Time `gorm:"not null;uniqueIndex:idx_user_date"`
	// Content is the free-form diary text.
	Content string `gorm:"type:text"`
	// EmotionStatus is the dominant emotion of the entry.
	EmotionStatus EmotionStatus `gorm:"type:varchar(20);not null"`
	// PrivacyLevel controls visibility of the entry.
	PrivacyLevel PrivacyLevel `gorm:"type:varchar(20);not null;default:'PRIVATE'"`
	// Hashtags attached to the entry.
	Hashtags Hashtags `gorm:"type:text"`
	// CreatedAt is the timestamp when the entry was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the entry was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Diary model.
func (Diary) TableName() string {
	return "diaries"
}

// BeforeCreate assigns a UUID primary key when none was set.
func (d *Diary) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	return nil
}

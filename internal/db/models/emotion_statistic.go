package models

import "time"

// EmotionStatistic is the daily per-unit aggregate produced by the
// analytics job. One row per unit per day.
type EmotionStatistic struct {
	// ID is the unique identifier for the row.
	ID uint `gorm:"primaryKey"`
	// UnitID is the aggregated unit.
	UnitID uint `gorm:"not null;uniqueIndex:idx_unit_day"`
	// Unit is the associated unit.
	Unit Unit `gorm:"foreignKey:UnitID"`
	// Date is the aggregated calendar day.
	Date time.Time `gorm:"not null;uniqueIndex:idx_unit_day"`
	// TotalDiaries counted for the day.
	TotalDiaries int
	// ActiveUsers is the number of distinct authors for the day.
	ActiveUsers int
	// AvgScore is the average wellbeing score (1-10).
	AvgScore float64
	// PositiveCount, NeutralCount and NegativeCount split the entries by emotion class.
	PositiveCount int
	NeutralCount  int
	NegativeCount int
	// CreatedAt is the timestamp when the row was written (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the EmotionStatistic model.
func (EmotionStatistic) TableName() string {
	return "emotion_statistics"
}

package analytics

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// Service computes emotion analytics over diary entries.
type Service struct {
	db *gorm.DB
}

// NewService creates a new analytics service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Summary is the aggregate over a unit scope and date range shown on the
// emotion dashboard.
type Summary struct {
	TotalDiaries  int            `json:"totalDiaries"`
	ActiveUsers   int            `json:"activeUsers"`
	AvgScore      float64        `json:"avgScore"`
	PositiveCount int            `json:"positiveCount"`
	NeutralCount  int            `json:"neutralCount"`
	NegativeCount int            `json:"negativeCount"`
	Distribution  map[string]int `json:"distribution"`
}

// TrendPoint is one day in an emotion trend series.
type TrendPoint struct {
	Date          string  `json:"date"`
	TotalDiaries  int     `json:"totalDiaries"`
	AvgScore      float64 `json:"avgScore"`
	PositiveCount int     `json:"positiveCount"`
	NegativeCount int     `json:"negativeCount"`
}

// diaryRow is the slice of a diary entry analytics cares about.
type diaryRow struct {
	UserID        string
	Date          time.Time
	EmotionStatus models.EmotionStatus
}

// loadRows fetches the entries in scope. STATISTICS_ONLY and shared
// entries count; the content is never touched here. An empty unit scope
// means unrestricted.
func (s *Service) loadRows(unitIDs []uint, from, to time.Time) ([]diaryRow, error) {
	q := s.db.Model(&models.Diary{}).
		Select("diaries.user_id, diaries.date, diaries.emotion_status").
		Joins("JOIN users ON users.id = diaries.user_id").
		Where("diaries.privacy_level <> ?", models.PrivacyPrivate).
		Where("diaries.date >= ? AND diaries.date < ?", from, to)

	if len(unitIDs) > 0 {
		q = q.Where("users.unit_id IN ?", unitIDs)
	}

	var rows []diaryRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "loading diary rows")
	}

	return rows, nil
}

// Summarize aggregates the entries of the given units between from
// (inclusive) and to (exclusive).
func (s *Service) Summarize(unitIDs []uint, from, to time.Time) (*Summary, error) {
	rows, err := s.loadRows(unitIDs, from, to)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Distribution: map[string]int{}}
	users := map[string]struct{}{}
	total := 0

	for _, row := range rows {
		summary.TotalDiaries++
		users[row.UserID] = struct{}{}
		total += models.EmotionScore(row.EmotionStatus)
		summary.Distribution[string(row.EmotionStatus)]++

		switch {
		case models.IsPositiveEmotion(row.EmotionStatus):
			summary.PositiveCount++
		case models.IsNegativeEmotion(row.EmotionStatus):
			summary.NegativeCount++
		default:
			summary.NeutralCount++
		}
	}

	summary.ActiveUsers = len(users)
	if summary.TotalDiaries > 0 {
		summary.AvgScore = float64(total) / float64(summary.TotalDiaries)
	}

	return summary, nil
}

// Trend returns a per-day series for the given units between from
// (inclusive) and to (exclusive). Days without entries appear with zero
// counts so charts do not skip them.
func (s *Service) Trend(unitIDs []uint, from, to time.Time) ([]TrendPoint, error) {
	rows, err := s.loadRows(unitIDs, from, to)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		total    int
		score    int
		positive int
		negative int
	}

	buckets := map[string]*bucket{}

	for _, row := range rows {
		key := row.Date.Format("2006-01-02")

		b := buckets[key]
		if b == nil {
			b = &bucket{}
			buckets[key] = b
		}

		b.total++
		b.score += models.EmotionScore(row.EmotionStatus)

		switch {
		case models.IsPositiveEmotion(row.EmotionStatus):
			b.positive++
		case models.IsNegativeEmotion(row.EmotionStatus):
			b.negative++
		}
	}

	var points []TrendPoint

	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		point := TrendPoint{Date: key}

		if b := buckets[key]; b != nil {
			point.TotalDiaries = b.total
			point.AvgScore = float64(b.score) / float64(b.total)
			point.PositiveCount = b.positive
			point.NegativeCount = b.negative
		}

		points = append(points, point)
	}

	return points, nil
}

// HashtagCount is one entry in a hashtag trend listing.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TopHashtags returns the most used hashtags across anonymously shared
// entries of the given units, most frequent first. Private and
// statistics-only entries never contribute their tags.
func (s *Service) TopHashtags(unitIDs []uint, from, to time.Time, limit int) ([]HashtagCount, error) {
	q := s.db.Model(&models.Diary{}).
		Select("diaries.hashtags").
		Joins("JOIN users ON users.id = diaries.user_id").
		Where("diaries.privacy_level = ?", models.PrivacyAnonymousShare).
		Where("diaries.date >= ? AND diaries.date < ?", from, to)

	if len(unitIDs) > 0 {
		q = q.Where("users.unit_id IN ?", unitIDs)
	}

	var rows []struct{ Hashtags models.Hashtags }
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "loading hashtags")
	}

	counts := map[string]int{}
	for _, row := range rows {
		for _, tag := range row.Hashtags {
			counts[tag]++
		}
	}

	result := make([]HashtagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, HashtagCount{Tag: tag, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// ComputeDailyStatistics writes one EmotionStatistic row per unit for
// the given calendar day and raises alerts for units whose average score
// crossed a warning threshold. Re-running for the same day replaces the
// rows.
func (s *Service) ComputeDailyStatistics(day time.Time) error {
	day = day.Truncate(24 * time.Hour)
	next := day.AddDate(0, 0, 1)

	var units []models.Unit
	if err := s.db.Find(&units).Error; err != nil {
		return errors.Wrap(err, "loading units")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		inner := &Service{db: tx}

		for _, unit := range units {
			summary, err := inner.Summarize([]uint{unit.ID}, day, next)
			if err != nil {
				return err
			}

			err = tx.Where("unit_id = ? AND date = ?", unit.ID, day).
				Delete(&models.EmotionStatistic{}).Error
			if err != nil {
				return errors.Wrap(err, "replacing statistics")
			}

			stat := models.EmotionStatistic{
				UnitID:        unit.ID,
				Date:          day,
				TotalDiaries:  summary.TotalDiaries,
				ActiveUsers:   summary.ActiveUsers,
				AvgScore:      summary.AvgScore,
				PositiveCount: summary.PositiveCount,
				NeutralCount:  summary.NeutralCount,
				NegativeCount: summary.NegativeCount,
			}
			if err := tx.Create(&stat).Error; err != nil {
				return errors.Wrap(err, "writing statistics")
			}

			if err := inner.maybeRaiseAlert(unit.ID, summary); err != nil {
				return err
			}
		}

		return nil
	})
}

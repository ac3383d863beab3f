package analytics

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// Alert thresholds on the 1-10 average score. A unit below a threshold
// with enough entries gets an open alert at that level.
const (
	alertMinDiaries   = 3
	criticalThreshold = 2.0
	highThreshold     = 3.0
	mediumThreshold   = 4.0
	lowThreshold      = 5.0
)

func alertLevelFor(avg float64) string {
	switch {
	case avg < criticalThreshold:
		return models.AlertLevelCritical
	case avg < highThreshold:
		return models.AlertLevelHigh
	case avg < mediumThreshold:
		return models.AlertLevelMedium
	case avg < lowThreshold:
		return models.AlertLevelLow
	default:
		return ""
	}
}

// maybeRaiseAlert opens an alert for the unit when its average score is
// below a threshold. A unit keeps at most one open alert; the level is
// bumped in place when the situation worsens.
func (s *Service) maybeRaiseAlert(unitID uint, summary *Summary) error {
	if summary.TotalDiaries < alertMinDiaries {
		return nil
	}

	level := alertLevelFor(summary.AvgScore)
	if level == "" {
		return nil
	}

	var open models.EmotionAlert

	err := s.db.Where("unit_id = ? AND is_resolved = ?", unitID, false).First(&open).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		alert := models.EmotionAlert{
			UnitID:     unitID,
			AlertLevel: level,
			Message:    "unit average emotion score dropped below threshold",
		}
		if err := s.db.Create(&alert).Error; err != nil {
			return errors.Wrap(err, "creating alert")
		}

		return nil
	case err != nil:
		return errors.Wrap(err, "looking up open alert")
	}

	if severityRank(level) > severityRank(open.AlertLevel) {
		err := s.db.Model(&open).Update("alert_level", level).Error
		if err != nil {
			return errors.Wrap(err, "escalating alert")
		}
	}

	return nil
}

func severityRank(level string) int {
	switch level {
	case models.AlertLevelCritical:
		return 4
	case models.AlertLevelHigh:
		return 3
	case models.AlertLevelMedium:
		return 2
	case models.AlertLevelLow:
		return 1
	default:
		return 0
	}
}

// ListAlerts returns alerts for the given unit scope, open ones first.
// An empty scope means unrestricted. Set onlyOpen to hide resolved
// alerts.
func (s *Service) ListAlerts(unitIDs []uint, onlyOpen bool) ([]models.EmotionAlert, error) {
	q := s.db.Preload("Unit").Order("is_resolved, created_at DESC")

	if len(unitIDs) > 0 {
		q = q.Where("unit_id IN ?", unitIDs)
	}
	if onlyOpen {
		q = q.Where("is_resolved = ?", false)
	}

	var alerts []models.EmotionAlert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, errors.Wrap(err, "listing alerts")
	}

	return alerts, nil
}

// ResolveAlert marks an alert as handled by the given user.
func (s *Service) ResolveAlert(id uint, resolverID string) (*models.EmotionAlert, error) {
	var alert models.EmotionAlert

	err := s.db.First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "looking up alert")
	}

	if alert.IsResolved {
		return nil, ErrAlertAlreadyResolved
	}

	now := time.Now()
	alert.IsResolved = true
	alert.ResolverID = &resolverID
	alert.ResolvedAt = &now

	if err := s.db.Save(&alert).Error; err != nil {
		return nil, errors.Wrap(err, "resolving alert")
	}

	return &alert, nil
}

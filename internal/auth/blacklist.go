package auth

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emolog/emolog/internal/db/models"
)

// Revoke puts a token ID on the revocation list until its expiry.
// Revoking the same token twice is a no-op.
func (s *Service) Revoke(tokenID string, expiresAt int64) error {
	revoked := models.RevokedToken{
		TokenID:   tokenID,
		ExpiredAt: time.Unix(expiresAt, 0),
	}

	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&revoked).Error
	if err != nil {
		return errors.Wrap(err, "revoking token")
	}

	return nil
}

// IsRevoked reports whether a token ID is on the revocation list.
func (s *Service) IsRevoked(tokenID string) (bool, error) {
	var count int64

	err := s.db.Model(&models.RevokedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking revocation list")
	}

	return count > 0, nil
}

// PruneRevoked removes revocation entries whose tokens have expired.
// Expired tokens fail verification anyway, so keeping them only grows
// the table. Returns the number of removed rows.
func (s *Service) PruneRevoked(now time.Time) (int64, error) {
	res := s.db.Where("expired_at < ?", now).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "pruning revoked tokens")
	}

	return res.RowsAffected, nil
}

// PruneLoginHistory removes login history records older than the cutoff.
// Returns the number of removed rows.
func (s *Service) PruneLoginHistory(before time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", before).Delete(&models.LoginHistory{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "pruning login history")
	}

	return res.RowsAffected, nil
}

// DB exposes the underlying database handle for handlers wired through
// this service.
func (s *Service) DB() *gorm.DB {
	return s.db
}

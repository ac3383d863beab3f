package models

import "time"

// RevokedToken is an entry of the token revocation list (blacklist).
// Presence of a token id invalidates an otherwise valid signed token
// until its natural expiry, after which the entry is safe to prune.
type RevokedToken struct {
	// ID is the unique identifier for the entry.
	ID uint `gorm:"primaryKey"`
	// TokenID is the unique token identifier (jti claim).
	TokenID string `gorm:"uniqueIndex;size:36;not null"`
	// ExpiredAt is the natural expiry of the revoked token.
	ExpiredAt time.Time `gorm:"not null"`
	// CreatedAt is the timestamp when the token was revoked (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the RevokedToken model.
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}

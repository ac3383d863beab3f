package models

import "time"

// LoginHistory records a successful login of a user.
// Old records are pruned by a scheduled job after 180 days.
type LoginHistory struct {
	// ID is the unique identifier for the record.
	ID uint `gorm:"primaryKey"`
	// UserID is the user who logged in.
	UserID string `gorm:"size:36;not null;index"`
	// User is the associated user.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// IPAddress is the remote address of the login request.
	IPAddress string `gorm:"size:45"`
	// UserAgent is the raw User-Agent header.
	UserAgent string `gorm:"size:512"`
	// Device is the coarse device class derived from the user agent.
	Device string `gorm:"size:20"`
	// CreatedAt is the timestamp of the login (managed by GORM).
	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the LoginHistory model.
func (LoginHistory) TableName() string {
	return "login_histories"
}

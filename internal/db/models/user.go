package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// User represents a user account in the system.
// Users authenticate with email and password and hold zero or more roles.
// Effective permissions are the union of the permissions of all held roles.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// Email is the unique email address used for login.
	Email string `gorm:"unique;size:255;not null"`
	// Password is the Argon2id hashed password. Never stored in plaintext.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// PhoneNumber is the user's contact phone number.
	PhoneNumber string `gorm:"size:20"`
	// Blocked users are rejected at authentication regardless of credential validity.
	Blocked bool `gorm:"default:false"`
	// AvatarURL points to the uploaded avatar file.
	AvatarURL string `gorm:"size:255"`
	// RefreshToken mirrors the most recently issued refresh token, nil
	// when no session is active. Only this token is accepted for the
	// refresh operation, which gives single-active-session semantics: a
	// new login invalidates the old refresh token (last write wins, see
	// auth package).
	RefreshToken *string `gorm:"size:512"`
	// UnitID is the organizational unit the user belongs to (optional).
	UnitID *uint
	// Unit is the associated organizational unit.
	Unit *Unit `gorm:"foreignKey:UnitID"`
	// Roles are the roles held by this user (many-to-many via user_roles).
	Roles []Role `gorm:"many2many:user_roles"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key when none was set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return nil
}

// HashPassword hashes a plaintext password with Argon2id and stores the
// hash on the user. Use this for every password create or update.
func (u *User) HashPassword(password string) error {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	u.Password = hashedPassword

	return nil
}

// VerifyPassword compares a plaintext password against the stored hash
// in constant time. A malformed stored hash surfaces as an error, never
// as a match.
func (u *User) VerifyPassword(password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		return false, errors.Wrap(err, "verifying password")
	}

	return match, nil
}

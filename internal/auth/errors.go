package auth

import "github.com/pkg/errors"

var (
	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when trying to create a user that already exists.
	ErrUserExists = errors.New("user already exists")

	// ErrUserBlocked is returned when a blocked user tries to authenticate.
	ErrUserBlocked = errors.New("user is blocked")

	// ErrInvalidPassword is returned when password verification fails.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidOldPassword is returned when the current password given on a
	// password change does not match.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked is returned when a token is on the revocation list.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrInvalidRefreshToken is returned when a refresh token is invalid,
	// of the wrong type, or no longer the user's active refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrPermissionDenied is returned when the principal lacks a required
	// permission or role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnitAccessDenied is returned when the principal may not access the
	// requested unit's data.
	ErrUnitAccessDenied = errors.New("unit access denied")
)

package auth

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginMeta carries request metadata recorded in the login history.
type LoginMeta struct {
	IPAddress string
	UserAgent string
}

// Login verifies the credentials and returns a fresh token pair. The new
// refresh token replaces the stored one, so a second login invalidates
// the previous session. A login history record is written on success.
func (s *Service) Login(email, password string, meta LoginMeta) (*models.User, *TokenPair, error) {
	var user models.User

	err := s.db.Preload("Roles").First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidPassword
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "looking up user")
	}

	ok, err := user.VerifyPassword(password)
	if err != nil {
		return nil, nil, errors.Wrap(err, "verifying password")
	}
	if !ok {
		return nil, nil, ErrInvalidPassword
	}

	if user.Blocked {
		return nil, nil, ErrUserBlocked
	}

	pair, err := s.issuePair(&user)
	if err != nil {
		return nil, nil, err
	}

	history := models.LoginHistory{
		UserID:    user.ID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Device:    deviceFromUserAgent(meta.UserAgent),
	}
	if err := s.db.Create(&history).Error; err != nil {
		return nil, nil, errors.Wrap(err, "recording login history")
	}

	return &user, pair, nil
}

// SignupInput holds the fields for self-registration.
type SignupInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Signup creates a new account with the default USER role attached.
func (s *Service) Signup(in SignupInput) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "checking email")
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	var role models.Role
	if err := s.db.First(&role, "name = ?", RoleUser).Error; err != nil {
		return nil, errors.Wrap(err, "loading default role")
	}

	user := models.User{
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Roles:       []models.Role{role},
	}
	if err := user.HashPassword(in.Password); err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "creating user")
	}

	return &user, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// token must match the stored refresh token of the user; role names are
// re-read so the new access token never carries stale claims. The
// refresh token itself stays valid until it expires or a new login
// replaces it.
func (s *Service) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	var user models.User

	err = s.db.Preload("Roles").First(&user, "id = ?", claims.Subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", errors.Wrap(err, "looking up user")
	}

	if user.Blocked {
		return "", ErrUserBlocked
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", ErrInvalidRefreshToken
	}

	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, roleNames(&user))
	if err != nil {
		return "", err
	}

	return access, nil
}

// Logout revokes the access token and clears the stored refresh token,
// ending the session on all fronts.
func (s *Service) Logout(principal *Principal, accessExpiry int64) error {
	if err := s.Revoke(principal.TokenID, accessExpiry); err != nil {
		return err
	}

	err := s.db.Model(&models.User{}).
		Where("id = ?", principal.User.ID).
		Update("refresh_token", nil).Error
	if err != nil {
		return errors.Wrap(err, "clearing refresh token")
	}

	return nil
}

// ChangePassword verifies the old password and stores the new one. The
// stored refresh token is cleared so existing sessions cannot refresh.
func (s *Service) ChangePassword(userID, oldPassword, newPassword string) error {
	var user models.User

	err := s.db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return errors.Wrap(err, "looking up user")
	}

	ok, err := user.VerifyPassword(oldPassword)
	if err != nil {
		return errors.Wrap(err, "verifying password")
	}
	if !ok {
		return ErrInvalidOldPassword
	}

	if err := user.HashPassword(newPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}

	err = s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"password":      user.Password,
			"refresh_token": nil,
		}).Error
	if err != nil {
		return errors.Wrap(err, "storing password")
	}

	return nil
}

func roleNames(user *models.User) []string {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	return roles
}

func (s *Service) issuePair(user *models.User) (*TokenPair, error) {
	access, _, err := s.tokens.IssueAccess(user.ID, user.Email, roleNames(user))
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", refresh).Error
	if err != nil {
		return nil, errors.Wrap(err, "storing refresh token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// deviceFromUserAgent derives a coarse device class from the User-Agent
// header. Good enough for the login history listing.
func deviceFromUserAgent(ua string) string {
	lower := strings.ToLower(ua)

	switch {
	case lower == "":
		return "UNKNOWN"
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "android"),
		strings.Contains(lower, "iphone"):
		return "MOBILE"
	case strings.Contains(lower, "ipad"), strings.Contains(lower, "tablet"):
		return "TABLET"
	default:
		return "DESKTOP"
	}
}

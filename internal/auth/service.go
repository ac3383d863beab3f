package auth

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// Service answers authentication and authorization questions against the
// database and issues tokens.
type Service struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

// NewService creates a new authorization service.
func NewService(db *gorm.DB, tokens *TokenIssuer) *Service {
	return &Service{db: db, tokens: tokens}
}

// Tokens exposes the token issuer.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Principal is the authenticated caller attached to a request. The
// permission set is the union over all held roles, computed fresh by the
// guard on every request.
type Principal struct {
	User        *models.User
	Roles       []string
	Permissions []string
	TokenID     string
}

// HasPermission reports whether the effective permission set contains
// the named permission.
func (p *Principal) HasPermission(name string) bool {
	for _, perm := range p.Permissions {
		if perm == name {
			return true
		}
	}

	return false
}

// HasRole reports whether the principal carries the named role.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}

	return false
}

// IsAdmin reports whether the principal carries the ADMIN role.
// Admins bypass all permission and role guards.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// HasPermission checks if a user has a specific permission through any of
// their roles.
func (s *Service) HasPermission(userID, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.name = ?", userID, permission).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking permission")
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given
// permissions.
func (s *Service) HasAnyPermission(userID string, permissions ...string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.name IN ?", userID, permissions).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking permissions")
	}

	return count > 0, nil
}

// HasAllPermissions checks if a user has every one of the given
// permissions.
func (s *Service) HasAllPermissions(userID string, permissions ...string) (bool, error) {
	if len(permissions) == 0 {
		return true, nil
	}

	var count int64

	err := s.db.Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.name IN ?", userID, permissions).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking permissions")
	}

	return count == int64(len(permissions)), nil
}

// GetUserPermissions returns the distinct permission names a user holds
// through their roles.
func (s *Service) GetUserPermissions(userID string) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, errors.Wrap(err, "getting user permissions")
	}

	return permissions, nil
}

// GetUserRoles returns the role names assigned to a user.
func (s *Service) GetUserRoles(userID string) ([]string, error) {
	var roles []string

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &roles).Error
	if err != nil {
		return nil, errors.Wrap(err, "getting user roles")
	}

	return roles, nil
}

// GetUser loads a user by ID with roles preloaded.
func (s *Service) GetUser(userID string) (*models.User, error) {
	var user models.User

	err := s.db.Preload("Roles").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting user")
	}

	return &user, nil
}

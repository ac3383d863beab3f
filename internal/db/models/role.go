package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles are named collections of permissions assigned to users.
// The ADMIN role bypasses all permission and role checks unconditionally.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "ADMIN", "USER").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Permissions granted by this role (many-to-many via role_permissions).
	Permissions []Permission `gorm:"many2many:role_permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

package models

import "time"

// Unit represents a node in the organizational unit tree.
// Units scope which users and aggregated data an actor may see.
// The tree is built by construction via the ParentID self reference;
// traversals guard against cycles with a visited set.
type Unit struct {
	// ID is the unique identifier for the unit.
	ID uint `gorm:"primaryKey"`
	// Code is the unique short code of the unit (e.g., "DV001").
	Code string `gorm:"unique;size:50;not null"`
	// Name is the display name of the unit.
	Name string `gorm:"size:255;not null"`
	// Description provides a human-readable explanation of the unit's purpose.
	Description string `gorm:"size:255"`
	// Status marks the unit as active or inactive.
	Status string `gorm:"size:20;default:'ACTIVE'"`
	// ParentID points to the parent unit (nil for root units).
	ParentID *uint
	// Children are the direct child units.
	Children []Unit `gorm:"foreignKey:ParentID"`
	// CreatedAt is the timestamp when the unit was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the unit was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Unit model.
func (Unit) TableName() string {
	return "units"
}

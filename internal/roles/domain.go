package roles

import "time"

// Role represents a role for management.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsManager   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is one entry of the permission catalogue.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// RoleInput carries fields for creating or updating a role.
type RoleInput struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
	IsManager   bool   `json:"is_manager"`
}

package users

import "time"

// User represents a user account with its profile for management.
type User struct {
	ID        int64
	Email     string
	FullName  *string
	RoleID    *int64
	RoleName  *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

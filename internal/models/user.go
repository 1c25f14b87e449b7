package models

import (
	"time"

	"github.com/google/uuid"
)

// Role names recognised by the authorization middleware
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an authenticated principal. The identity provider owns the
// full user record; the booking core only reads id, email, name and role.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

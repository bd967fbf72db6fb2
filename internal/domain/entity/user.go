package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin  = "ADMIN"
	RoleViewer = "VIEWER"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin indica si el usuario puede mutar el ledger.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

package auth

import (
	"errors"
	"strings"
	"time"
)

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleUser is a regular account.
	RoleUser Role = "user"

	// RoleAdmin has full control over all resources.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid user roles.
var ValidRoles = []Role{RoleUser, RoleAdmin}

// IsValidRole returns true if the role is a valid account role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// minNameLength is the minimum display name length accepted at signup.
const minNameLength = 2

// ValidateUser checks user input fields and returns human-readable
// problems, one per failed rule. An empty slice means the input is valid.
// Role may be empty (defaults to user at creation).
func ValidateUser(name, email string, role Role) []string {
	var problems []string

	if len(strings.TrimSpace(name)) < minNameLength {
		problems = append(problems, "Name is required and must be at least 2 characters")
	}
	if !strings.Contains(email, "@") {
		problems = append(problems, "Valid email is required")
	}
	if role != "" && !IsValidRole(role) {
		problems = append(problems, `Role must be either "user" or "admin"`)
	}

	return problems
}

// User represents an account record.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken represents a stored refresh token for session management.
// Only the SHA-256 hash of the raw token is persisted.
type RefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"` // never serialised
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the refresh token's expiry has passed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

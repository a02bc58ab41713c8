package models

import (
	"time"

	"github.com/google/uuid"
)

// Role decides which authorization rules apply to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the unique handle, derived from the email when not given.
	Username string

	// Email is the user's email address (unique). Used for login.
	Email string

	// Name is the display name of the user.
	Name string

	// Role defaults to member for self-registered users.
	Role Role

	// PasswordHash is the bcrypt hash of the password. Never serialized to clients.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser builds a member user with a fresh ID and timestamps.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     usernameFromEmail(email),
		Email:        email,
		Name:         name,
		Role:         RoleMember,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func usernameFromEmail(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

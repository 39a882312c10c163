// ABOUTME: User represents the logged-in operator as returned by the backend
// ABOUTME: Persisted in the profile store so later commands know who is chatting
package models

import (
	"errors"
	"strings"
)

// RoleAdmin is the role allowed to upload documents and read everyone's history
const RoleAdmin = "admin"

// User is the authenticated operator
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user may use admin-only commands
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks the user has a name
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username cannot be empty")
	}
	return nil
}

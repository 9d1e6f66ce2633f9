package user

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrValidation marks client input that violates a constraint.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrRoleNotFound indicates missing role.
	ErrRoleNotFound = errors.New("role not found")
	// ErrEmailNotUnique signals that another user already holds the email.
	ErrEmailNotUnique = errors.New("email isn't unique")
)

// Default role catalog names.
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSupport    = "Support"
	RoleSuperAdmin = "SuperAdmin"
)

// Role is a named grant that can be held by any number of users.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"role"`
}

// User is the directory entry together with its resolved roles.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRole associates one user with one role.
type UserRole struct {
	ID     string
	UserID string
	RoleID string
}

// RoleNames returns the distinct role names held by the user in first-seen order.
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(u.Roles))
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}
	return names
}

// HasAnyRole reports whether the user holds at least one of the named roles.
func (u *User) HasAnyRole(names []string) bool {
	for _, held := range u.Roles {
		for _, want := range names {
			if strings.EqualFold(held.Name, want) {
				return true
			}
		}
	}
	return false
}

// DedupeRoles drops repeated role ids, keeping the first occurrence.
func DedupeRoles(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

package competitions

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Role is a platform role.
type Role string

// Platform roles. The values are the ones the web client already stores.
const (
	RoleParticipant Role = "participant"    // Joins events and submits models
	RoleOrganizer   Role = "organisateur"   // Creates and manages events
	RoleAdmin       Role = "administrateur" // Moderates users and events
)

// String returns the string representation of a Role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Satisfies reports whether a holder of r may act as required.
// Administrators satisfy every role; other roles only satisfy themselves.
func (r Role) Satisfies(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// ParseRole parses a role name, accepting the English aliases.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "participant":
		return RoleParticipant, nil
	case "organisateur", "organizer", "organiser":
		return RoleOrganizer, nil
	case "administrateur", "administrator", "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// UserStatus is the moderation state of an account.
type UserStatus string

// Account states.
const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserSuspended
}

// User is a platform account.
type User struct {
	ID        string     `json:"id" yaml:"id"`
	Email     string     `json:"email" yaml:"email"`
	Name      string     `json:"name" yaml:"name"`
	Role      Role       `json:"role" yaml:"role"`
	Avatar    string     `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Status    UserStatus `json:"status" yaml:"status"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
}

// HasRole reports whether u may act as role. A nil user has no role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	return u.Role.Satisfies(role)
}

// IsAdmin reports whether u is an administrator.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Suspended reports whether the account is suspended.
func (u *User) Suspended() bool {
	return u != nil && u.Status == UserSuspended
}

// AvatarURL returns the generated avatar used when a user has none.
func AvatarURL(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(seed)
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

package domain

import (
	"strings"
	"time"
)

// UserStatus is the account status shown to administrators.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserInactive  UserStatus = "inactive"
)

// InactivityMonths is how long a user must be absent before deletion.
const InactivityMonths = 6

// User represents a platform account.
// Users are created outside this system and only ever deleted here.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// Role is the account's registered role. It is never RoleNone.
	Role Role `json:"role"`

	Status UserStatus `json:"status"`

	Joined    time.Time `json:"joined"`
	LastLogin time.Time `json:"last_login"`

	// HasPurchases and HasUploads protect the account from lifecycle deletion.
	HasPurchases bool `json:"has_purchases"`
	HasUploads   bool `json:"has_uploads"`
}

// HasAssets reports whether the user owns purchases or uploads.
func (u *User) HasAssets() bool {
	return u.HasPurchases || u.HasUploads
}

// InactiveSince reports whether the last login is strictly more than
// InactivityMonths calendar months before now.
func (u *User) InactiveSince(now time.Time) bool {
	cutoff := now.AddDate(0, -InactivityMonths, 0)
	return u.LastLogin.Before(cutoff)
}

// Deletable is the lifecycle deletion predicate. It is evaluated on every
// read and never cached.
func (u *User) Deletable(now time.Time) bool {
	return u.InactiveSince(now) && !u.HasAssets()
}

// Matches reports a case-insensitive substring match on name or email.
// An empty term matches every user.
func (u *User) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), term) ||
		strings.Contains(strings.ToLower(u.Email), term)
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

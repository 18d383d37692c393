package accounts

import (
	"time"

	"github.com/lims-platform/identity/internal/roles"
)

// Account represents a user account. PasswordHash is never serialized; an
// outer presentation layer only ever sees the redacted response shape.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Enabled      bool
	Roles        []roles.Role
	// Version increments on every role-set or credential mutation. The
	// repository uses it to detect lost updates under concurrency.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole reports whether the account directly holds the named role.
func (a Account) HasRole(name string) bool {
	for _, role := range a.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the account's directly held roles.
func (a Account) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, role := range a.Roles {
		names = append(names, role.Name)
	}
	return names
}

// NewAccount carries registration input. Password is plaintext; hashing
// happens inside the service boundary.
type NewAccount struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// ProfileUpdate carries the mutable profile fields. Password and roles are
// never touched by a profile update.
type ProfileUpdate struct {
	Email     string
	FirstName string
	LastName  string
	Enabled   bool
}

package roles

import (
	"time"

	"github.com/lims-platform/identity/internal/permissions"
)

// Canonical role names. Role identity is drawn from this closed set; the
// bootstrap seeder guarantees all five exist before traffic is served.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleTechnician = "TECHNICIAN"
	RoleViewer     = "VIEWER"
	RoleSupervisor = "SUPERVISOR"
)

// CanonicalNames returns the closed set of role names in a stable order.
func CanonicalNames() []string {
	return []string{RoleUser, RoleAdmin, RoleTechnician, RoleViewer, RoleSupervisor}
}

// IsCanonical reports whether name belongs to the closed role enumeration.
func IsCanonical(name string) bool {
	switch name {
	case RoleUser, RoleAdmin, RoleTechnician, RoleViewer, RoleSupervisor:
		return true
	}
	return false
}

// Role represents a named grouping of permissions. Roles are shared: many
// accounts may reference the same role, and removing a role from an account
// never deletes the role itself.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions []permissions.Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

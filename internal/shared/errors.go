package shared

import "errors"

var (
	// ErrDuplicateIdentity indicates a username, email, role name or
	// permission name collision on create.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrAccountNotFound indicates an account lookup miss.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleNotFound indicates a role lookup miss.
	ErrRoleNotFound = errors.New("role not found")
	// ErrPermissionNotFound indicates a permission lookup miss.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidUsername indicates a username that fails profile normalization.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrMisconfiguredBootstrap indicates that a canonical role or permission
	// expected to exist after seeding is absent. Fatal: the seeder did not run
	// or its data was rolled back.
	ErrMisconfiguredBootstrap = errors.New("bootstrap data missing")
)

// UserSafeMessage returns a message suitable for API consumers. Internal
// failures collapse to a generic message.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateIdentity),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrPermissionNotFound),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidUsername):
		return err.Error()
	default:
		return "internal error"
	}
}

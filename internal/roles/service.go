package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/lims-platform/identity/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Create(ctx context.Context, name, description string) (Role, error)
	FindByName(ctx context.Context, name string) (Role, error)
	List(ctx context.Context) ([]Role, error)
	Exists(ctx context.Context, name string) (bool, error)
	ReplacePermissions(ctx context.Context, roleName string, permissionNames []string) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a role. The name must belong to the canonical enumeration.
func (s *Service) Create(ctx context.Context, name, description string) (Role, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !IsCanonical(name) {
		return Role{}, fmt.Errorf("%w: %s is not a known role name", shared.ErrRoleNotFound, name)
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description))
}

// FindByName fetches a role with its permissions.
func (s *Service) FindByName(ctx context.Context, name string) (Role, error) {
	return s.repo.FindByName(ctx, name)
}

// List returns all roles with permissions loaded.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// SetPermissions replaces the permission set of a role.
func (s *Service) SetPermissions(ctx context.Context, roleName string, permissionNames []string) (Role, error) {
	if err := s.repo.ReplacePermissions(ctx, roleName, dedupe(permissionNames)); err != nil {
		return Role{}, err
	}
	return s.repo.FindByName(ctx, roleName)
}

// GrantPermissions adds permissions to a role, keeping the ones it already has.
func (s *Service) GrantPermissions(ctx context.Context, roleName string, permissionNames []string) (Role, error) {
	role, err := s.repo.FindByName(ctx, roleName)
	if err != nil {
		return Role{}, err
	}
	merged := make([]string, 0, len(role.Permissions)+len(permissionNames))
	for _, p := range role.Permissions {
		merged = append(merged, p.Name)
	}
	merged = append(merged, permissionNames...)
	return s.SetPermissions(ctx, roleName, merged)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

package permissions

import (
	"context"
	"errors"
	"strings"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	Create(ctx context.Context, name, description string) (Permission, error)
	FindByName(ctx context.Context, name string) (Permission, error)
	List(ctx context.Context) ([]Permission, error)
	Exists(ctx context.Context, name string) (bool, error)
	UpdateDescription(ctx context.Context, name, description string) (Permission, error)
}

// Service handles permission business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a new permission with a unique name.
func (s *Service) Create(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Permission{}, errors.New("permissions: name required")
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(description))
}

// FindByName fetches a permission by name.
func (s *Service) FindByName(ctx context.Context, name string) (Permission, error) {
	return s.repo.FindByName(ctx, name)
}

// List returns all permissions.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx)
}

// UpdateDescription changes the description of an existing permission.
func (s *Service) UpdateDescription(ctx context.Context, name, description string) (Permission, error) {
	return s.repo.UpdateDescription(ctx, name, strings.TrimSpace(description))
}

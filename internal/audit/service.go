package audit

import (
	"context"
	"fmt"
)

// RepositoryPort defines data access methods for audit events.
type RepositoryPort interface {
	Insert(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Service persists audit events. It runs on the worker side of the queue.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Record writes an event to the trail.
func (s *Service) Record(ctx context.Context, event Event) error {
	if event.ID == "" || event.Action == "" {
		return fmt.Errorf("audit: event id and action required")
	}
	return s.repo.Insert(ctx, event)
}

// Recent returns the most recent events, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

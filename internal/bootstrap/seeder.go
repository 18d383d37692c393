// Package bootstrap populates the canonical role/permission/account baseline.
// It runs once at process start, before the listener accepts traffic, and
// every step is idempotent.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lims-platform/identity/internal/accounts"
	"github.com/lims-platform/identity/internal/permissions"
	"github.com/lims-platform/identity/internal/roles"
	"github.com/lims-platform/identity/internal/shared"
)

// PermissionMode controls how canonical role permission sets are applied on
// each run.
type PermissionMode string

const (
	// ModeOverwrite replaces each canonical role's permission set with the
	// baseline. Out-of-band customization of canonical roles is lost on
	// restart; this matches the historical behavior and is the default.
	ModeOverwrite PermissionMode = "overwrite"
	// ModeMerge adds missing baseline permissions, keeping extras.
	ModeMerge PermissionMode = "merge"
	// ModeSkip only applies the baseline when the role has no permissions yet.
	ModeSkip PermissionMode = "skip"
)

const (
	lockKey = "identity:bootstrap:lock"
	lockTTL = time.Minute
)

var roleDescriptions = map[string]string{
	roles.RoleUser:       "Basic system user",
	roles.RoleAdmin:      "Full system administrator with every permission",
	roles.RoleTechnician: "Laboratory technician managing analyses",
	roles.RoleViewer:     "Read-only user",
	roles.RoleSupervisor: "Supervisor approving results and managing technicians",
}

var permissionDescriptions = map[string]string{
	"USER_VIEW":         "View user accounts",
	"USER_EDIT":         "Edit user accounts",
	"USER_DELETE":       "Delete user accounts",
	"REPORTS_ACCESS":    "Access reports",
	"MODULE_LAB_ACCESS": "Access the laboratory module",
	"BUTTON_EXPORT":     "Export data",
}

var permissionOrder = []string{
	"USER_VIEW", "USER_EDIT", "USER_DELETE", "REPORTS_ACCESS", "MODULE_LAB_ACCESS", "BUTTON_EXPORT",
}

// rolePermissionBaseline is the fixed permission subset per canonical role.
var rolePermissionBaseline = map[string][]string{
	roles.RoleAdmin:      permissionOrder,
	roles.RoleTechnician: {"MODULE_LAB_ACCESS", "REPORTS_ACCESS"},
	roles.RoleSupervisor: {"USER_VIEW", "USER_EDIT", "REPORTS_ACCESS"},
	roles.RoleViewer:     {"USER_VIEW"},
	roles.RoleUser:       {},
}

type demoAccount struct {
	username  string
	password  string
	email     string
	firstName string
	lastName  string
	roles     []string
}

var demoAccounts = []demoAccount{
	{"admin", "admin123", "admin@laboratorio.com", "Administrador", "Del Sistema", []string{roles.RoleAdmin, roles.RoleUser}},
	{"tecnico", "tecnico123", "tecnico@laboratorio.com", "Juan", "Técnico", []string{roles.RoleTechnician, roles.RoleUser}},
	{"supervisor", "super123", "supervisor@laboratorio.com", "María", "Supervisora", []string{roles.RoleSupervisor, roles.RoleTechnician, roles.RoleUser}},
	{"viewer", "viewer123", "viewer@laboratorio.com", "Carlos", "Observador", []string{roles.RoleViewer, roles.RoleUser}},
	{"usuario", "user123", "usuario@laboratorio.com", "Ana", "Usuario", []string{roles.RoleUser}},
}

// Seeder populates the canonical baseline through injected stores. No
// ambient globals: the process entry point owns construction and invocation.
type Seeder struct {
	logger       *slog.Logger
	roles        roles.RepositoryPort
	permissions  permissions.RepositoryPort
	accounts     *accounts.Service
	locker       *redis.Client
	mode         PermissionMode
	demoAccounts bool
}

// Options configures seeder behavior.
type Options struct {
	Mode         PermissionMode
	DemoAccounts bool
	// Locker guards against concurrently starting replicas interleaving
	// their seed runs. Optional: every step is idempotent, so running
	// without the lock is safe, just noisier.
	Locker *redis.Client
}

// NewSeeder builds a Seeder.
func NewSeeder(logger *slog.Logger, roleRepo roles.RepositoryPort, permRepo permissions.RepositoryPort, accountService *accounts.Service, opts Options) *Seeder {
	mode := opts.Mode
	switch mode {
	case ModeOverwrite, ModeMerge, ModeSkip:
	default:
		mode = ModeOverwrite
	}
	return &Seeder{
		logger:       logger,
		roles:        roleRepo,
		permissions:  permRepo,
		accounts:     accountService,
		locker:       opts.Locker,
		mode:         mode,
		demoAccounts: opts.DemoAccounts,
	}
}

// Run executes the full seed sequence: roles, permissions, role permission
// baselines, then demo accounts.
func (s *Seeder) Run(ctx context.Context) error {
	release, err := s.acquireLock(ctx)
	if err != nil {
		s.logger.Warn("bootstrap lock unavailable, seeding anyway", slog.Any("error", err))
	}
	if release != nil {
		defer release()
	}

	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("bootstrap: seed roles: %w", err)
	}
	if err := s.seedPermissions(ctx); err != nil {
		return fmt.Errorf("bootstrap: seed permissions: %w", err)
	}
	if err := s.applyRolePermissions(ctx); err != nil {
		return fmt.Errorf("bootstrap: apply role permissions: %w", err)
	}
	if s.demoAccounts {
		if err := s.seedDemoAccounts(ctx); err != nil {
			return fmt.Errorf("bootstrap: seed demo accounts: %w", err)
		}
	}
	s.logger.Info("bootstrap seed complete", slog.String("mode", string(s.mode)))
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	for _, name := range roles.CanonicalNames() {
		exists, err := s.roles.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.roles.Create(ctx, name, roleDescriptions[name]); err != nil {
			// Lost the race to another replica; the role is there.
			if errors.Is(err, shared.ErrDuplicateIdentity) {
				continue
			}
			return err
		}
		s.logger.Info("role created", slog.String("role", name))
	}
	return nil
}

func (s *Seeder) seedPermissions(ctx context.Context) error {
	for _, name := range permissionOrder {
		exists, err := s.permissions.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.permissions.Create(ctx, name, permissionDescriptions[name]); err != nil {
			if errors.Is(err, shared.ErrDuplicateIdentity) {
				continue
			}
			return err
		}
		s.logger.Info("permission created", slog.String("permission", name))
	}
	return nil
}

func (s *Seeder) applyRolePermissions(ctx context.Context) error {
	for _, roleName := range roles.CanonicalNames() {
		baseline := rolePermissionBaseline[roleName]
		target := baseline
		switch s.mode {
		case ModeMerge, ModeSkip:
			role, err := s.roles.FindByName(ctx, roleName)
			if err != nil {
				return err
			}
			if s.mode == ModeSkip && len(role.Permissions) > 0 {
				continue
			}
			if s.mode == ModeMerge {
				merged := make([]string, 0, len(role.Permissions)+len(baseline))
				for _, p := range role.Permissions {
					merged = append(merged, p.Name)
				}
				merged = append(merged, baseline...)
				target = merged
			}
		}
		if err := s.roles.ReplacePermissions(ctx, roleName, target); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedDemoAccounts(ctx context.Context) error {
	for _, demo := range demoAccounts {
		_, err := s.accounts.FindByUsername(ctx, demo.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrAccountNotFound) {
			return err
		}
		if _, err := s.accounts.CreateWithRoles(ctx, accounts.NewAccount{
			Username:  demo.username,
			Password:  demo.password,
			Email:     demo.email,
			FirstName: demo.firstName,
			LastName:  demo.lastName,
		}, demo.roles); err != nil {
			if errors.Is(err, shared.ErrDuplicateIdentity) {
				continue
			}
			return err
		}
		s.logger.Info("demo account created", slog.String("username", demo.username))
	}
	return nil
}

func (s *Seeder) acquireLock(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return nil, nil
	}
	ok, err := s.locker.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("bootstrap: lock held by another replica")
	}
	return func() {
		_ = s.locker.Del(context.Background(), lockKey).Err()
	}, nil
}

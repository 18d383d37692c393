package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lims-platform/identity/internal/audit"
	"github.com/lims-platform/identity/internal/roles"
	"github.com/lims-platform/identity/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Create(ctx context.Context, acct Account, roleIDs []int64) (Account, error)
	FindByID(ctx context.Context, id int64) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	ListByRole(ctx context.Context, roleID int64) ([]Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (Account, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	AddRole(ctx context.Context, accountID, roleID int64) error
	RemoveRole(ctx context.Context, accountID, roleID int64) error
}

// Mailer queues outbound mail for account lifecycle events.
type Mailer interface {
	SendWelcome(ctx context.Context, email, username string) error
}

// Service orchestrates account lifecycle and role assignment, keeping the
// account/role/permission relations consistent.
type Service struct {
	logger     *slog.Logger
	repo       RepositoryPort
	roles      roles.RepositoryPort
	events     audit.Sink
	mailer     Mailer
	bcryptCost int
}

// NewService builds Service instance. events may be nil when no audit trail
// is wired (tests, one-shot tools).
func NewService(logger *slog.Logger, repo RepositoryPort, roleRepo roles.RepositoryPort, events audit.Sink, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{logger: logger, repo: repo, roles: roleRepo, events: events, bcryptCost: bcryptCost}
}

// WithMailer wires the welcome mail queue. Optional, like the audit sink.
func (s *Service) WithMailer(mailer Mailer) *Service {
	s.mailer = mailer
	return s
}

// Register creates an account holding exactly the base USER role. The
// canonical role missing from the store is a bootstrap precondition
// violation, not a caller error.
func (s *Service) Register(ctx context.Context, input NewAccount) (Account, error) {
	base, err := s.roles.FindByName(ctx, roles.RoleUser)
	if err != nil {
		if errors.Is(err, shared.ErrRoleNotFound) {
			return Account{}, fmt.Errorf("%w: canonical role %s", shared.ErrMisconfiguredBootstrap, roles.RoleUser)
		}
		return Account{}, err
	}
	return s.create(ctx, input, []roles.Role{base})
}

// CreateWithRoles creates an account holding exactly the named roles. No
// implicit USER role is added. Any unresolvable name fails the whole
// operation with ErrRoleNotFound naming the missing role.
func (s *Service) CreateWithRoles(ctx context.Context, input NewAccount, roleNames []string) (Account, error) {
	resolved := make([]roles.Role, 0, len(roleNames))
	seen := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, shared.ErrRoleNotFound) {
				return Account{}, fmt.Errorf("%w: %s", shared.ErrRoleNotFound, name)
			}
			return Account{}, err
		}
		resolved = append(resolved, role)
	}
	return s.create(ctx, input, resolved)
}

func (s *Service) create(ctx context.Context, input NewAccount, roleSet []roles.Role) (Account, error) {
	username, err := shared.NormalizeUsername(input.Username)
	if err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: hash password: %w", err)
	}
	roleIDs := make([]int64, 0, len(roleSet))
	for _, role := range roleSet {
		roleIDs = append(roleIDs, role.ID)
	}
	created, err := s.repo.Create(ctx, Account{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Enabled:      true,
	}, roleIDs)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, audit.ActionAccountCreated, created.Username, strings.Join(created.RoleNames(), ","))
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, created.Email, created.Username); err != nil && s.logger != nil {
			s.logger.Warn("queue welcome mail", slog.String("username", created.Username), slog.Any("error", err))
		}
	}
	return created, nil
}

// FindByID fetches an account with role set loaded.
func (s *Service) FindByID(ctx context.Context, id int64) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByUsername fetches an account by normalized username.
func (s *Service) FindByUsername(ctx context.Context, username string) (Account, error) {
	normalized, err := shared.NormalizeUsername(username)
	if err != nil {
		return Account{}, err
	}
	return s.repo.FindByUsername(ctx, normalized)
}

// FindAll returns all accounts.
func (s *Service) FindAll(ctx context.Context) ([]Account, error) {
	return s.repo.FindAll(ctx)
}

// HasRole reports whether the account directly holds the named role.
func (s *Service) HasRole(ctx context.Context, id int64, roleName string) (bool, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return acct.HasRole(roleName), nil
}

// AddRole grants a role to an account. Granting an already held role is a
// no-op success.
func (s *Service) AddRole(ctx context.Context, id int64, roleName string) (Account, error) {
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return Account{}, err
	}
	if err := s.repo.AddRole(ctx, id, role.ID); err != nil {
		return Account{}, err
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, audit.ActionRoleGranted, acct.Username, role.Name)
	return acct, nil
}

// RemoveRole revokes a role from an account. Revoking an absent role is a
// no-op success, and the role entity itself always survives. Removing the
// last role leaves the account role-less.
func (s *Service) RemoveRole(ctx context.Context, id int64, roleName string) (Account, error) {
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return Account{}, err
	}
	if err := s.repo.RemoveRole(ctx, id, role.ID); err != nil {
		return Account{}, err
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, audit.ActionRoleRevoked, acct.Username, role.Name)
	return acct, nil
}

// UpdateProfile mutates email, first/last name and the enabled flag.
// Password and roles are never touched.
func (s *Service) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (Account, error) {
	update.Email = strings.TrimSpace(update.Email)
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	acct, err := s.repo.UpdateProfile(ctx, id, update)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, audit.ActionAccountUpdated, acct.Username, "")
	return acct, nil
}

// ChangePassword re-hashes and replaces the password. Callers supply
// plaintext; a pre-hashed value is never accepted.
func (s *Service) ChangePassword(ctx context.Context, id int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("accounts: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.record(ctx, audit.ActionPasswordChanged, fmt.Sprintf("account:%d", id), "")
	return nil
}

// Delete removes the account and its role associations only.
func (s *Service) Delete(ctx context.Context, id int64) error {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, audit.ActionAccountDeleted, acct.Username, "")
	return nil
}

// ListByRole returns accounts that directly hold the named role.
func (s *Service) ListByRole(ctx context.Context, roleName string) ([]Account, error) {
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByRole(ctx, role.ID)
}

// record publishes an audit event. Failures never fail the operation.
func (s *Service) record(ctx context.Context, action, entity, detail string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, audit.NewEvent(action, entity, detail)); err != nil && s.logger != nil {
		s.logger.Warn("publish audit event", slog.String("action", action), slog.Any("error", err))
	}
}

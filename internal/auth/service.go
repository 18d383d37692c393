package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/lims-platform/identity/internal/accounts"
	"github.com/lims-platform/identity/internal/authority"
	"github.com/lims-platform/identity/internal/shared"
)

// AccountsPort is the slice of the account service the resolver needs.
type AccountsPort interface {
	FindByUsername(ctx context.Context, username string) (accounts.Account, error)
}

// Service satisfies the authentication collaborator contract. Authority
// resolution happens on every call; assignments made since the last session
// are always reflected.
type Service struct {
	accounts AccountsPort
}

// NewService constructs a new Service.
func NewService(accts AccountsPort) *Service {
	return &Service{accounts: accts}
}

// LoadAccountAuthorities resolves the account's effective authority set
// together with the credential material an external verifier needs.
func (s *Service) LoadAccountAuthorities(ctx context.Context, username string) (AccountAuthorities, error) {
	acct, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return AccountAuthorities{}, err
	}
	return AccountAuthorities{
		Username:     acct.Username,
		PasswordHash: acct.PasswordHash,
		Enabled:      acct.Enabled,
		Authorities:  authority.Resolve(acct.Roles).Strings(),
	}, nil
}

// Authenticate validates username/password credentials and returns the
// resolved authorities on success. Lookup misses, disabled accounts and
// password mismatches are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (AccountAuthorities, error) {
	loaded, err := s.LoadAccountAuthorities(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) || errors.Is(err, shared.ErrInvalidUsername) {
			return AccountAuthorities{}, shared.ErrInvalidCredentials
		}
		return AccountAuthorities{}, err
	}
	if !loaded.Enabled {
		return AccountAuthorities{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(loaded.PasswordHash), []byte(password)); err != nil {
		return AccountAuthorities{}, shared.ErrInvalidCredentials
	}
	return loaded, nil
}

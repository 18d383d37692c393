package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lims-platform/identity/internal/accounts"
	"github.com/lims-platform/identity/internal/auth"
	"github.com/lims-platform/identity/internal/observability"
	"github.com/lims-platform/identity/internal/permissions"
	"github.com/lims-platform/identity/internal/roles"
	"github.com/lims-platform/identity/internal/shared"
	_ "github.com/lims-platform/identity/testing"
)

type stubAccountsPort struct {
	account *accounts.Account
}

func (s *stubAccountsPort) FindByUsername(ctx context.Context, username string) (accounts.Account, error) {
	if s.account == nil || s.account.Username != username {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return *s.account, nil
}

func newAuthRouter(t *testing.T, port auth.AccountsPort) chi.Router {
	t.Helper()
	handler := auth.NewHandler(slog.Default(), auth.NewService(port), observability.NewMetrics())
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func viewerAccount(t *testing.T, password string) *accounts.Account {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &accounts.Account{
		Username:     "viewer",
		Email:        "viewer@laboratorio.com",
		PasswordHash: string(hashed),
		Enabled:      true,
		Roles: []roles.Role{{
			Name:        roles.RoleViewer,
			Permissions: []permissions.Permission{{Name: "USER_VIEW"}},
		}},
	}
}

func TestLoginReturnsAuthorities(t *testing.T) {
	router := newAuthRouter(t, &stubAccountsPort{account: viewerAccount(t, "viewer123")})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"viewer","password":"viewer123"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}

	var body struct {
		Username    string   `json:"username"`
		Enabled     bool     `json:"enabled"`
		Authorities []string `json:"authorities"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Username != "viewer" || !body.Enabled {
		t.Fatalf("unexpected account payload: %+v", body)
	}
	want := []string{"USER_VIEW", "VIEWER"}
	if len(body.Authorities) != len(want) {
		t.Fatalf("expected authorities %v, got %v", want, body.Authorities)
	}
	for i := range want {
		if body.Authorities[i] != want[i] {
			t.Fatalf("expected authorities %v, got %v", want, body.Authorities)
		}
	}
	if strings.Contains(res.Body.String(), "passwordHash") {
		t.Fatalf("login response must not leak the password hash")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newAuthRouter(t, &stubAccountsPort{account: viewerAccount(t, "viewer123")})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"viewer","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
}

func TestLoginUnknownAccountIndistinguishable(t *testing.T) {
	router := newAuthRouter(t, &stubAccountsPort{})

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"ghost","password":"whatever"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", res.Code)
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	router := newAuthRouter(t, &stubAccountsPort{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"viewer"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
}

func TestAuthoritiesEndpointIncludesHash(t *testing.T) {
	account := viewerAccount(t, "viewer123")
	router := newAuthRouter(t, &stubAccountsPort{account: account})

	req := httptest.NewRequest(http.MethodGet, "/authorities/viewer", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", res.Code, res.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["passwordHash"] != account.PasswordHash {
		t.Fatalf("expected verifier payload to carry the stored hash")
	}
}

func TestAuthoritiesUnknownAccount(t *testing.T) {
	router := newAuthRouter(t, &stubAccountsPort{})

	req := httptest.NewRequest(http.MethodGet, "/authorities/ghost", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", res.Code)
	}
}

package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lims-platform/identity/internal/permissions"
	"github.com/lims-platform/identity/internal/shared"
)

type mockRepo struct {
	byName map[string]Role
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{byName: map[string]Role{}, nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, name, description string) (Role, error) {
	if _, ok := m.byName[name]; ok {
		return Role{}, shared.ErrDuplicateIdentity
	}
	role := Role{ID: m.nextID, Name: name, Description: description}
	m.nextID++
	m.byName[name] = role
	return role, nil
}

func (m *mockRepo) FindByName(ctx context.Context, name string) (Role, error) {
	role, ok := m.byName[name]
	if !ok {
		return Role{}, shared.ErrRoleNotFound
	}
	return role, nil
}

func (m *mockRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.byName))
	for _, role := range m.byName {
		out = append(out, role)
	}
	return out, nil
}

func (m *mockRepo) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := m.byName[name]
	return ok, nil
}

func (m *mockRepo) ReplacePermissions(ctx context.Context, roleName string, permissionNames []string) error {
	role, ok := m.byName[roleName]
	if !ok {
		return shared.ErrRoleNotFound
	}
	role.Permissions = nil
	for _, name := range permissionNames {
		role.Permissions = append(role.Permissions, permissions.Permission{Name: name})
	}
	m.byName[roleName] = role
	return nil
}

func TestCreateAcceptsCanonicalNames(t *testing.T) {
	service := NewService(newMockRepo())

	role, err := service.Create(context.Background(), "admin", "full access")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role.Name)
}

func TestCreateRejectsUnknownNames(t *testing.T) {
	service := NewService(newMockRepo())

	_, err := service.Create(context.Background(), "AUDITOR", "")
	assert.ErrorIs(t, err, shared.ErrRoleNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	service := NewService(newMockRepo())

	_, err := service.Create(context.Background(), RoleViewer, "")
	require.NoError(t, err)
	_, err = service.Create(context.Background(), RoleViewer, "")
	assert.ErrorIs(t, err, shared.ErrDuplicateIdentity)
}

func TestSetPermissionsDeduplicates(t *testing.T) {
	repo := newMockRepo()
	service := NewService(repo)
	_, err := service.Create(context.Background(), RoleViewer, "")
	require.NoError(t, err)

	role, err := service.SetPermissions(context.Background(), RoleViewer,
		[]string{"USER_VIEW", "USER_VIEW", "REPORTS_ACCESS"})
	require.NoError(t, err)
	require.Len(t, role.Permissions, 2)
}

func TestSetPermissionsUnknownRole(t *testing.T) {
	service := NewService(newMockRepo())

	_, err := service.SetPermissions(context.Background(), RoleViewer, []string{"USER_VIEW"})
	assert.ErrorIs(t, err, shared.ErrRoleNotFound)
}

func TestGrantPermissionsKeepsExisting(t *testing.T) {
	repo := newMockRepo()
	service := NewService(repo)
	_, err := service.Create(context.Background(), RoleViewer, "")
	require.NoError(t, err)
	_, err = service.SetPermissions(context.Background(), RoleViewer, []string{"USER_VIEW"})
	require.NoError(t, err)

	role, err := service.GrantPermissions(context.Background(), RoleViewer, []string{"REPORTS_ACCESS"})
	require.NoError(t, err)

	names := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"USER_VIEW", "REPORTS_ACCESS"}, names)
}

func TestIsCanonical(t *testing.T) {
	for _, name := range CanonicalNames() {
		assert.True(t, IsCanonical(name))
	}
	assert.False(t, IsCanonical("AUDITOR"))
	assert.False(t, IsCanonical("user"))
}

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

type mockAuditSink struct {
	entries []models.AuditLog
}

func (m *mockAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

type mockCache struct {
	patterns []string
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type mockUserRepo struct {
	mockAuditSink
	users    map[string]models.User
	revoked  []string
	cleared  int64
	approved map[string]bool
	blocked  map[string]bool
	deleted  []string
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var list []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		list = append(list, u)
	}
	return list, len(list), nil
}

func (m *mockUserRepo) ListStudents(ctx context.Context, filter models.UserFilter) ([]models.StudentDetail, int, error) {
	var list []models.StudentDetail
	for _, u := range m.users {
		if u.Role != models.RoleStudent {
			continue
		}
		list = append(list, models.StudentDetail{User: u, Lifecycle: models.LifecycleRequested})
	}
	return list, len(list), nil
}

func (m *mockUserRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Approved = approved
	m.users[id] = u
	if m.approved == nil {
		m.approved = map[string]bool{}
	}
	m.approved[id] = approved
	return nil
}

func (m *mockUserRepo) SetBlocked(ctx context.Context, id string, blocked bool) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Blocked = blocked
	m.users[id] = u
	if m.blocked == nil {
		m.blocked = map[string]bool{}
	}
	m.blocked[id] = blocked
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) DeleteStudents(ctx context.Context) (int64, error) {
	var count int64
	for id, u := range m.users {
		if u.Role == models.RoleStudent {
			delete(m.users, id)
			count++
		}
	}
	m.cleared = count
	return count, nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func newUserServiceFixture(users ...models.User) (*UserService, *mockUserRepo, *mockCache) {
	repo := &mockUserRepo{users: map[string]models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	cache := &mockCache{}
	return NewUserService(repo, cache, nil, nil), repo, cache
}

func TestUserServiceApproveUser(t *testing.T) {
	svc, repo, cache := newUserServiceFixture(models.User{
		ID: "stu-1", Name: "Lina", Role: models.RoleStudent, Approved: false,
	})

	user, err := svc.ApproveUser(context.Background(), "admin-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, user.Approved)
	assert.True(t, repo.approved["stu-1"])
	require.Len(t, repo.entries, 1)
	assert.Equal(t, models.AuditActionUserApprove, repo.entries[0].Action)
	assert.Equal(t, []string{adminCachePattern}, cache.patterns)
}

func TestUserServiceApproveUserAlreadyApproved(t *testing.T) {
	svc, repo, cache := newUserServiceFixture(models.User{
		ID: "tut-1", Role: models.RoleTutor, Approved: true,
	})

	user, err := svc.ApproveUser(context.Background(), "admin-1", "tut-1")
	require.NoError(t, err)
	assert.True(t, user.Approved)
	assert.Empty(t, repo.entries, "no-op approval should not audit")
	assert.Empty(t, cache.patterns)
}

func TestUserServiceApproveUserAdminForbidden(t *testing.T) {
	svc, _, _ := newUserServiceFixture(models.User{ID: "adm-1", Role: models.RoleAdmin})

	_, err := svc.ApproveUser(context.Background(), "admin-1", "adm-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceApproveUserNotFound(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.ApproveUser(context.Background(), "admin-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceBlockRevokesSessions(t *testing.T) {
	svc, repo, _ := newUserServiceFixture(models.User{
		ID: "stu-2", Role: models.RoleStudent, Approved: true,
	})

	user, err := svc.SetBlocked(context.Background(), "admin-1", "stu-2", true)
	require.NoError(t, err)
	assert.True(t, user.Blocked)
	assert.Equal(t, []string{"stu-2"}, repo.revoked)
}

func TestUserServiceUnblockKeepsSessions(t *testing.T) {
	svc, repo, _ := newUserServiceFixture(models.User{
		ID: "stu-3", Role: models.RoleStudent, Blocked: true,
	})

	user, err := svc.SetBlocked(context.Background(), "admin-1", "stu-3", false)
	require.NoError(t, err)
	assert.False(t, user.Blocked)
	assert.Empty(t, repo.revoked)
}

func TestUserServiceDeleteUser(t *testing.T) {
	svc, repo, _ := newUserServiceFixture(models.User{
		ID: "tut-2", Role: models.RoleTutor, Email: "tutor@example.com",
	})

	require.NoError(t, svc.DeleteUser(context.Background(), "admin-1", "tut-2"))
	assert.Equal(t, []string{"tut-2"}, repo.deleted)

	err := svc.DeleteUser(context.Background(), "admin-1", "tut-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceClearStudents(t *testing.T) {
	svc, repo, cache := newUserServiceFixture(
		models.User{ID: "s1", Role: models.RoleStudent},
		models.User{ID: "s2", Role: models.RoleStudent},
		models.User{ID: "t1", Role: models.RoleTutor},
	)

	count, err := svc.ClearStudents(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, repo.users, 1)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, models.AuditActionBulkClear, repo.entries[0].Action)
	assert.NotEmpty(t, cache.patterns)
}

func TestUserServiceListStudentsForcesRole(t *testing.T) {
	svc, _, _ := newUserServiceFixture(
		models.User{ID: "s1", Role: models.RoleStudent},
		models.User{ID: "t1", Role: models.RoleTutor},
	)

	students, pagination, err := svc.ListStudents(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}

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

type mockEnrollmentRepo struct {
	enrollments map[string]models.EnrollmentDetail
}

func (m *mockEnrollmentRepo) List(_ context.Context, _ models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	out := make([]models.EnrollmentDetail, 0, len(m.enrollments))
	for _, e := range m.enrollments {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByID(_ context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		copied := e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) SetStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	m.enrollments[id] = e
	return nil
}

func newEnrollmentServiceFixture(enrollments ...models.EnrollmentDetail) (*EnrollmentService, *mockEnrollmentRepo, *mockAuditSink) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.EnrollmentDetail{}}
	for _, e := range enrollments {
		repo.enrollments[e.ID] = e
	}
	audits := &mockAuditSink{}
	return NewEnrollmentService(repo, audits, nil, nil), repo, audits
}

func pendingEnrollment(id string) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID:        id,
			StudentID: "student-1",
			CourseID:  "course-1",
			Status:    models.EnrollmentStatusPending,
		},
		StudentName: "Maria Santos",
		CourseTitle: "Linear Algebra",
	}
}

func TestResolveEnrollmentApproves(t *testing.T) {
	svc, repo, audits := newEnrollmentServiceFixture(pendingEnrollment("enr-1"))

	resolved, err := svc.ResolveEnrollment(context.Background(), "admin-1", "enr-1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, resolved.Status)
	assert.Equal(t, models.EnrollmentStatusActive, repo.enrollments["enr-1"].Status)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionEnrollmentReview, audits.entries[0].Action)
}

func TestResolveEnrollmentRejects(t *testing.T) {
	svc, repo, _ := newEnrollmentServiceFixture(pendingEnrollment("enr-1"))

	resolved, err := svc.ResolveEnrollment(context.Background(), "admin-1", "enr-1", models.EnrollmentStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, resolved.Status)
	assert.Equal(t, models.EnrollmentStatusRejected, repo.enrollments["enr-1"].Status)
}

func TestResolveEnrollmentInvalidTarget(t *testing.T) {
	svc, _, _ := newEnrollmentServiceFixture(pendingEnrollment("enr-1"))

	_, err := svc.ResolveEnrollment(context.Background(), "admin-1", "enr-1", models.EnrollmentStatusPending)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveEnrollmentAlreadyResolved(t *testing.T) {
	resolved := pendingEnrollment("enr-1")
	resolved.Status = models.EnrollmentStatusActive
	svc, _, audits := newEnrollmentServiceFixture(resolved)

	_, err := svc.ResolveEnrollment(context.Background(), "admin-1", "enr-1", models.EnrollmentStatusRejected)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, audits.entries)
}

func TestResolveEnrollmentNotFound(t *testing.T) {
	svc, _, _ := newEnrollmentServiceFixture()

	_, err := svc.ResolveEnrollment(context.Background(), "admin-1", "missing", models.EnrollmentStatusActive)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

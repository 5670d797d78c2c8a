package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

// EnrollmentService implements admin resolution of enrollment requests.
type EnrollmentService struct {
	repo   enrollmentRepository
	audits courseAuditRepository
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, audits courseAuditRepository, cache cacheInvalidator, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, audits: audits, cache: cache, logger: logger}
}

// ListEnrollments returns enrollments matching the filter.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetEnrollment fetches a single enrollment by id.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch enrollment")
	}
	return enrollment, nil
}

// ResolveEnrollment moves a pending enrollment to active or rejected.
func (s *EnrollmentService) ResolveEnrollment(ctx context.Context, actorID, id string, status models.EnrollmentStatus) (*models.EnrollmentDetail, error) {
	if status != models.EnrollmentStatusActive && status != models.EnrollmentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolution must be active or rejected_by_admin")
	}

	enrollment, err := s.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.EnrollmentTransitionAllowed(enrollment.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move enrollment from %s to %s", enrollment.Status, status))
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	enrollment.Status = status

	s.recordAudit(ctx, actorID, id, fmt.Sprintf(`{"status":%q}`, status))
	s.invalidateCache(ctx)
	return enrollment, nil
}

func (s *EnrollmentService) recordAudit(ctx context.Context, actorID, enrollmentID, newValues string) {
	entry := &models.AuditLog{
		Action:    models.AuditActionEnrollmentReview,
		Resource:  "enrollment",
		NewValues: []byte(newValues),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if enrollmentID != "" {
		entry.ResourceID = &enrollmentID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
	}
}

func (s *EnrollmentService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

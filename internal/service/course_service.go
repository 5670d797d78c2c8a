package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	SetApproval(ctx context.Context, id string, status models.CourseApproval) error
	Delete(ctx context.Context, id string) error
}

type courseAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CourseService implements admin moderation of course listings.
type CourseService struct {
	repo      courseRepository
	audits    courseAuditRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, audits courseAuditRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, audits: audits, cache: cache, validator: validate, logger: logger}
}

// ListCourses returns courses matching the filter.
func (s *CourseService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetCourse fetches a single course by id.
func (s *CourseService) GetCourse(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}
	return course, nil
}

// ReviewCourse approves or rejects a pending course. Approval flips the
// published flag; rejection unpublishes.
func (s *CourseService) ReviewCourse(ctx context.Context, actorID, id string, status models.CourseApproval) (*models.CourseDetail, error) {
	if status != models.CourseApprovalApproved && status != models.CourseApprovalRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review status must be approved or rejected")
	}

	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.ApprovalStatus != models.CourseApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("course is already %s", course.ApprovalStatus))
	}

	if err := s.repo.SetApproval(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course approval")
	}
	course.ApprovalStatus = status
	course.Published = status == models.CourseApprovalApproved

	s.recordAudit(ctx, actorID, id, fmt.Sprintf(`{"approvalStatus":%q}`, status))
	s.invalidateCache(ctx)
	return course, nil
}

// DeleteCourse removes a course listing.
func (s *CourseService) DeleteCourse(ctx context.Context, actorID, id string) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.recordAudit(ctx, actorID, id, `{"deleted":true}`)
	s.invalidateCache(ctx)
	return nil
}

func (s *CourseService) recordAudit(ctx context.Context, actorID, courseID, newValues string) {
	entry := &models.AuditLog{
		Action:    models.AuditActionCourseReview,
		Resource:  "course",
		NewValues: []byte(newValues),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if courseID != "" {
		entry.ResourceID = &courseID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record course audit log", zap.Error(err))
	}
}

func (s *CourseService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

// adminCachePattern matches every cached admin list entry. Mutations blow the
// whole namespace away rather than tracking individual keys.
const adminCachePattern = "admin:*"

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListStudents(ctx context.Context, filter models.UserFilter) ([]models.StudentDetail, int, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Delete(ctx context.Context, id string) error
	DeleteStudents(ctx context.Context) (int64, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UserService implements admin moderation of user accounts.
type UserService struct {
	repo      userRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance. cache may be nil when
// admin list caching is disabled.
func NewUserService(repo userRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListUsers returns users matching the filter with pagination metadata.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListTeachers returns tutor accounts matching the filter.
func (s *UserService) ListTeachers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	role := models.RoleTutor
	filter.Role = &role
	return s.ListUsers(ctx, filter)
}

// ListStudents returns student accounts with their derived lifecycle state.
func (s *UserService) ListStudents(ctx context.Context, filter models.UserFilter) ([]models.StudentDetail, *models.Pagination, error) {
	role := models.RoleStudent
	filter.Role = &role
	students, total, err := s.repo.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetUser fetches a single user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}

// ApproveUser marks a pending account as approved. Admin accounts are never
// subject to approval.
func (s *UserService) ApproveUser(ctx context.Context, actorID, id string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be moderated")
	}
	if user.Approved {
		return user, nil
	}

	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve user")
	}
	user.Approved = true

	s.audit(ctx, actorID, models.AuditActionUserApprove, "user", id, fmt.Sprintf(`{"approved":true,"role":%q}`, user.Role))
	s.invalidate(ctx)
	return user, nil
}

// SetBlocked blocks or unblocks an account. Blocking also revokes every
// outstanding refresh token so the session dies immediately.
func (s *UserService) SetBlocked(ctx context.Context, actorID, id string, blocked bool) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be moderated")
	}

	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update block flag")
	}
	user.Blocked = blocked

	if blocked {
		if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke refresh tokens for blocked user", zap.String("user_id", id), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserBlock, "user", id, fmt.Sprintf(`{"blocked":%t}`, blocked))
	s.invalidate(ctx)
	return user, nil
}

// DeleteUser removes an account permanently.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, "user", id, fmt.Sprintf(`{"email":%q}`, user.Email))
	s.invalidate(ctx)
	return nil
}

// ClearStudents deletes every student account and returns the removed count.
func (s *UserService) ClearStudents(ctx context.Context, actorID string) (int64, error) {
	count, err := s.repo.DeleteStudents(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear students")
	}

	s.audit(ctx, actorID, models.AuditActionBulkClear, "students", "", fmt.Sprintf(`{"deleted":%d}`, count))
	s.invalidate(ctx)
	return count, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resource, resourceID, newValues string) {
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		NewValues: []byte(newValues),
		CreatedAt: time.Now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

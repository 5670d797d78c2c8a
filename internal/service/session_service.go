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

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SessionDetail, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// SessionCreateRequest schedules a new tutoring session.
type SessionCreateRequest struct {
	StudentID       string             `json:"student" validate:"required"`
	CourseID        string             `json:"course" validate:"required"`
	ScheduledAt     time.Time          `json:"scheduledAt" validate:"required"`
	DurationMinutes int                `json:"durationMinutes" validate:"required,min=15,max=480"`
	Mode            models.SessionMode `json:"mode" validate:"required,oneof=online offline hybrid"`
	Notes           string             `json:"notes" validate:"max=2000"`
}

// SessionUpdateRequest reschedules or annotates an existing session. Zero
// fields keep their current value.
type SessionUpdateRequest struct {
	ScheduledAt     *time.Time            `json:"scheduledAt"`
	DurationMinutes *int                  `json:"durationMinutes" validate:"omitempty,min=15,max=480"`
	Mode            *models.SessionMode   `json:"mode" validate:"omitempty,oneof=online offline hybrid"`
	Notes           *string               `json:"notes" validate:"omitempty,max=2000"`
	Status          *models.SessionStatus `json:"status" validate:"omitempty,oneof=completed cancelled"`
}

// SessionService implements admin scheduling of tutoring sessions.
type SessionService struct {
	repo      sessionRepository
	audits    courseAuditRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(repo sessionRepository, audits courseAuditRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{repo: repo, audits: audits, cache: cache, validator: validate, logger: logger}
}

// ListSessions returns sessions matching the filter.
func (s *SessionService) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetSession fetches a single session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.SessionDetail, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch session")
	}
	return session, nil
}

// ScheduleSession creates a new scheduled session.
func (s *SessionService) ScheduleSession(ctx context.Context, actorID string, req SessionCreateRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session := &models.Session{
		StudentID:       req.StudentID,
		CourseID:        req.CourseID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Mode:            req.Mode,
		Notes:           req.Notes,
		Status:          models.SessionStatusScheduled,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.recordAudit(ctx, actorID, models.AuditActionSessionSchedule, session.ID,
		fmt.Sprintf(`{"student":%q,"course":%q}`, req.StudentID, req.CourseID))
	s.invalidateCache(ctx)
	return session, nil
}

// UpdateSession applies a partial update to a session. Status changes are
// validated against the lifecycle rules.
func (s *SessionService) UpdateSession(ctx context.Context, actorID, id string, req SessionUpdateRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	detail, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	session := detail.Session

	if req.Status != nil && *req.Status != session.Status {
		if !models.SessionTransitionAllowed(session.Status, *req.Status) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("cannot move session from %s to %s", session.Status, *req.Status))
		}
		session.Status = *req.Status
	}
	if req.ScheduledAt != nil {
		session.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.DurationMinutes != nil {
		session.DurationMinutes = *req.DurationMinutes
	}
	if req.Mode != nil {
		session.Mode = *req.Mode
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, &session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.recordAudit(ctx, actorID, models.AuditActionSessionUpdate, id,
		fmt.Sprintf(`{"status":%q}`, session.Status))
	s.invalidateCache(ctx)
	return &session, nil
}

// DeleteSession removes a session record.
func (s *SessionService) DeleteSession(ctx context.Context, actorID, id string) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	s.recordAudit(ctx, actorID, models.AuditActionSessionDelete, id, `{"deleted":true}`)
	s.invalidateCache(ctx)
	return nil
}

// ClearSessions deletes every session record and returns the removed count.
func (s *SessionService) ClearSessions(ctx context.Context, actorID string) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear sessions")
	}

	s.recordAudit(ctx, actorID, models.AuditActionBulkClear, "",
		fmt.Sprintf(`{"resource":"sessions","deleted":%d}`, count))
	s.invalidateCache(ctx)
	return count, nil
}

func (s *SessionService) recordAudit(ctx context.Context, actorID, action, sessionID, newValues string) {
	entry := &models.AuditLog{
		Action:    action,
		Resource:  "session",
		NewValues: []byte(newValues),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if sessionID != "" {
		entry.ResourceID = &sessionID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record session audit log", zap.Error(err))
	}
}

func (s *SessionService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	SetStatus(ctx context.Context, id string, status models.PaymentStatus, rejectionReason string) error
}

// PaymentReviewRequest carries an admin's decision on a pending payment.
type PaymentReviewRequest struct {
	Status          models.PaymentStatus `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string               `json:"rejectionReason" validate:"required_if=Status rejected"`
}

// PaymentService implements the admin payment review queue.
type PaymentService struct {
	repo      paymentRepository
	audits    courseAuditRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(repo paymentRepository, audits courseAuditRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, audits: audits, cache: cache, validator: validate, logger: logger}
}

// ListPayments returns payments matching the filter.
func (s *PaymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetPayment fetches a single payment by id.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.PaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	return payment, nil
}

// ReviewPayment resolves a pending payment. Only pending payments may be
// reviewed, and rejection requires a reason.
func (s *PaymentService) ReviewPayment(ctx context.Context, actorID, id string, req PaymentReviewRequest) (*models.PaymentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.ReviewTransitionAllowed(payment.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move payment from %s to %s", payment.Status, req.Status))
	}

	reason := ""
	if req.Status == models.PaymentStatusRejected {
		reason = req.RejectionReason
	}

	if err := s.repo.SetStatus(ctx, id, req.Status, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	payment.Status = req.Status
	payment.RejectionReason = reason

	s.recordAudit(ctx, actorID, id, fmt.Sprintf(`{"status":%q}`, req.Status))
	s.invalidateCache(ctx)
	return payment, nil
}

func (s *PaymentService) recordAudit(ctx context.Context, actorID, paymentID, newValues string) {
	entry := &models.AuditLog{
		Action:    models.AuditActionPaymentReview,
		Resource:  "payment",
		NewValues: []byte(newValues),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if paymentID != "" {
		entry.ResourceID = &paymentID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record payment audit log", zap.Error(err))
	}
}

func (s *PaymentService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

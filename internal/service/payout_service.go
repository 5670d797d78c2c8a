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

type payoutRepository interface {
	List(ctx context.Context, filter models.PayoutSettingFilter) ([]models.PayoutSettingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PayoutSettingDetail, error)
	Update(ctx context.Context, setting *models.PayoutSetting) error
	Delete(ctx context.Context, id string) error
}

// PayoutUpdateRequest changes a tutor's payout configuration. Zero fields
// keep their current value.
type PayoutUpdateRequest struct {
	Method            *models.PayoutMethod `json:"method" validate:"omitempty,oneof=bank_transfer paypal upi"`
	AccountName       *string              `json:"accountName" validate:"omitempty,min=2,max=200"`
	AccountIdentifier *string              `json:"accountIdentifier" validate:"omitempty,min=4,max=200"`
	CommissionPercent *float64             `json:"commissionPercent" validate:"omitempty,min=0,max=100"`
}

// PayoutService implements admin management of tutor payout settings.
type PayoutService struct {
	repo      payoutRepository
	audits    courseAuditRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayoutService constructs a PayoutService instance.
func NewPayoutService(repo payoutRepository, audits courseAuditRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PayoutService{repo: repo, audits: audits, cache: cache, validator: validate, logger: logger}
}

// ListPayoutSettings returns payout settings matching the filter.
func (s *PayoutService) ListPayoutSettings(ctx context.Context, filter models.PayoutSettingFilter) ([]models.PayoutSettingDetail, *models.Pagination, error) {
	settings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payout settings")
	}
	return settings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetPayoutSetting fetches a single payout setting by id.
func (s *PayoutService) GetPayoutSetting(ctx context.Context, id string) (*models.PayoutSettingDetail, error) {
	setting, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payout setting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payout setting")
	}
	return setting, nil
}

// UpdatePayoutSetting applies the requested field changes.
func (s *PayoutService) UpdatePayoutSetting(ctx context.Context, actorID, id string, req PayoutUpdateRequest) (*models.PayoutSettingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payout setting payload")
	}

	detail, err := s.GetPayoutSetting(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Method != nil {
		detail.Method = *req.Method
	}
	if req.AccountName != nil {
		detail.AccountName = *req.AccountName
	}
	if req.AccountIdentifier != nil {
		detail.AccountIdentifier = *req.AccountIdentifier
	}
	if req.CommissionPercent != nil {
		detail.CommissionPercent = *req.CommissionPercent
	}

	if err := s.repo.Update(ctx, &detail.PayoutSetting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payout setting")
	}

	s.recordAudit(ctx, actorID, id, fmt.Sprintf(`{"method":%q,"commissionPercent":%g}`, detail.Method, detail.CommissionPercent))
	s.invalidateCache(ctx)
	return detail, nil
}

// DeletePayoutSetting removes a tutor's payout configuration.
func (s *PayoutService) DeletePayoutSetting(ctx context.Context, actorID, id string) error {
	if _, err := s.GetPayoutSetting(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payout setting not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payout setting")
	}

	s.recordAudit(ctx, actorID, id, `{"deleted":true}`)
	s.invalidateCache(ctx)
	return nil
}

func (s *PayoutService) recordAudit(ctx context.Context, actorID, settingID, newValues string) {
	entry := &models.AuditLog{
		Action:    models.AuditActionPayoutUpdate,
		Resource:  "payout_setting",
		NewValues: []byte(newValues),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if settingID != "" {
		entry.ResourceID = &settingID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record payout audit log", zap.Error(err))
	}
}

func (s *PayoutService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, adminCachePattern); err != nil {
		s.logger.Warn("failed to invalidate admin cache", zap.Error(err))
	}
}

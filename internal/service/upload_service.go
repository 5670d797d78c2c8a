package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
)

type uploadPaymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	SetScreenshotURL(ctx context.Context, id, url string) error
}

type uploadFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
}

type uploadURLSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error)
}

// UploadConfig bounds payment proof uploads.
type UploadConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// UploadService stores proof-of-payment screenshots and hands out signed
// view tokens so reviewers never get raw filesystem paths.
type UploadService struct {
	payments uploadPaymentRepository
	storage  uploadFileStorage
	signer   uploadURLSigner
	cfg      UploadConfig
	logger   *zap.Logger
}

// NewUploadService constructs an UploadService instance.
func NewUploadService(payments uploadPaymentRepository, storage uploadFileStorage, signer uploadURLSigner, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	return &UploadService{payments: payments, storage: storage, signer: signer, cfg: cfg, logger: logger}
}

// ScreenshotToken describes a signed screenshot reference.
type ScreenshotToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoreScreenshot validates and persists an uploaded payment proof, then
// records its location on the payment row.
func (s *UploadService) StoreScreenshot(ctx context.Context, paymentID, filename, contentType string, size int64, r io.Reader) (*models.PaymentDetail, error) {
	if size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type")
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = extensionFor(contentType)
	}
	relPath := fmt.Sprintf("screenshots/%s/%s%s", paymentID, uuid.NewString(), ext)

	limited := io.LimitReader(r, s.cfg.MaxFileSizeBytes+1)
	stored, err := s.storage.SaveStream(relPath, limited)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store screenshot")
	}

	if err := s.payments.SetScreenshotURL(ctx, paymentID, stored); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach screenshot")
	}

	s.logger.Info("payment screenshot stored",
		zap.String("paymentId", paymentID),
		zap.String("path", stored),
		zap.Int64("size", size))

	payment.ScreenshotURL = stored
	return payment, nil
}

// ScreenshotURL returns a signed token for viewing a payment's stored proof.
func (s *UploadService) ScreenshotURL(ctx context.Context, paymentID string) (*ScreenshotToken, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch payment")
	}
	if payment.ScreenshotURL == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment has no screenshot")
	}

	token, expiresAt, err := s.signer.Generate(paymentID, payment.ScreenshotURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign screenshot URL")
	}
	return &ScreenshotToken{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenScreenshot resolves a signed token to the stored file.
func (s *UploadService) OpenScreenshot(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, http.StatusForbidden, "invalid or expired screenshot token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "screenshot no longer available")
	}
	return file, filepath.Base(relPath), nil
}

func (s *UploadService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(strings.TrimSpace(allowed), base) {
			return true
		}
	}
	return false
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

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

type mockPaymentRepo struct {
	payments map[string]models.PaymentDetail
	statuses map[string]models.PaymentStatus
	reasons  map[string]string
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	var list []models.PaymentDetail
	for _, p := range m.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		list = append(list, p)
	}
	return list, len(list), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) SetStatus(ctx context.Context, id string, status models.PaymentStatus, rejectionReason string) error {
	p, ok := m.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	p.RejectionReason = rejectionReason
	m.payments[id] = p
	if m.statuses == nil {
		m.statuses = map[string]models.PaymentStatus{}
		m.reasons = map[string]string{}
	}
	m.statuses[id] = status
	m.reasons[id] = rejectionReason
	return nil
}

func newPaymentServiceFixture(payments ...models.PaymentDetail) (*PaymentService, *mockPaymentRepo, *mockAuditSink) {
	repo := &mockPaymentRepo{payments: map[string]models.PaymentDetail{}}
	for _, p := range payments {
		repo.payments[p.ID] = p
	}
	audits := &mockAuditSink{}
	return NewPaymentService(repo, audits, nil, nil, nil), repo, audits
}

func TestPaymentServiceApprovePending(t *testing.T) {
	svc, repo, audits := newPaymentServiceFixture(models.PaymentDetail{
		Payment: models.Payment{ID: "pay-1", Status: models.PaymentStatusPending, Amount: 120},
	})

	payment, err := svc.ReviewPayment(context.Background(), "admin-1", "pay-1", PaymentReviewRequest{
		Status: models.PaymentStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)
	assert.Equal(t, models.PaymentStatusApproved, repo.statuses["pay-1"])
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionPaymentReview, audits.entries[0].Action)
}

func TestPaymentServiceRejectRequiresReason(t *testing.T) {
	svc, _, _ := newPaymentServiceFixture(models.PaymentDetail{
		Payment: models.Payment{ID: "pay-2", Status: models.PaymentStatusPending},
	})

	_, err := svc.ReviewPayment(context.Background(), "admin-1", "pay-2", PaymentReviewRequest{
		Status: models.PaymentStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceRejectStoresReason(t *testing.T) {
	svc, repo, _ := newPaymentServiceFixture(models.PaymentDetail{
		Payment: models.Payment{ID: "pay-3", Status: models.PaymentStatusPending},
	})

	payment, err := svc.ReviewPayment(context.Background(), "admin-1", "pay-3", PaymentReviewRequest{
		Status:          models.PaymentStatusRejected,
		RejectionReason: "screenshot does not match amount",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, payment.Status)
	assert.Equal(t, "screenshot does not match amount", repo.reasons["pay-3"])
}

func TestPaymentServiceReviewNonPendingBlocked(t *testing.T) {
	for _, status := range []models.PaymentStatus{
		models.PaymentStatusApproved,
		models.PaymentStatusPaid,
		models.PaymentStatusRejected,
	} {
		svc, _, _ := newPaymentServiceFixture(models.PaymentDetail{
			Payment: models.Payment{ID: "pay-4", Status: status},
		})

		_, err := svc.ReviewPayment(context.Background(), "admin-1", "pay-4", PaymentReviewRequest{
			Status: models.PaymentStatusApproved,
		})
		require.Error(t, err, "status %s should not be reviewable", status)
		assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	}
}

func TestPaymentServiceReviewNotFound(t *testing.T) {
	svc, _, _ := newPaymentServiceFixture()

	_, err := svc.ReviewPayment(context.Background(), "admin-1", "ghost", PaymentReviewRequest{
		Status: models.PaymentStatusApproved,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

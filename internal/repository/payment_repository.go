package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhub/tutorhub-api/internal/models"
)

const paymentColumns = `p.id, p.student_id, p.course_id, p.amount, p.currency, p.status, p.provider, p.transaction_id, p.screenshot_url, p.rejection_reason, p.created_at, p.updated_at`

// PaymentRepository manages persistence for payment review records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments matching the provided filters.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments p JOIN users s ON s.id = p.student_id JOIN courses c ON c.id = p.course_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("p.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy, sortOrder := sanitizeSort(filter.SortBy, filter.SortOrder, map[string]bool{
		"amount":     true,
		"status":     true,
		"created_at": true,
	})
	_, pageSize, offset := sanitizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, s.name AS student_name, c.title AS course_title %s ORDER BY p.%s %s LIMIT %d OFFSET %d`,
		paymentColumns, base, sortBy, sortOrder, pageSize, offset)

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID fetches a payment by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, s.name AS student_name, c.title AS course_title
        FROM payments p JOIN users s ON s.id = p.student_id JOIN courses c ON c.id = p.course_id
        WHERE p.id = $1`, paymentColumns)
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a payment submission.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	const query = `INSERT INTO payments (id, student_id, course_id, amount, currency, status, provider, transaction_id, screenshot_url, rejection_reason, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :amount, :currency, :status, :provider, :transaction_id, :screenshot_url, :rejection_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SetScreenshotURL records the stored proof-of-payment location.
func (r *PaymentRepository) SetScreenshotURL(ctx context.Context, id, url string) error {
	const query = `UPDATE payments SET screenshot_url = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set payment screenshot: %w", err)
	}
	return requireRow(res)
}

// SetStatus updates the review status and optional rejection reason.
func (r *PaymentRepository) SetStatus(ctx context.Context, id string, status models.PaymentStatus, rejectionReason string) error {
	const query = `UPDATE payments SET status = $2, rejection_reason = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, rejectionReason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return requireRow(res)
}

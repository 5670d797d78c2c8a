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

const courseColumns = `c.id, c.title, c.subject, c.price, c.duration_weeks, c.tutor_id, c.approval_status, c.published, c.created_at, c.updated_at`

// CourseRepository manages persistence for course listings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c JOIN users t ON t.id = c.tutor_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("c.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Approval != "" {
		conditions = append(conditions, fmt.Sprintf("c.approval_status = $%d", len(args)+1))
		args = append(args, filter.Approval)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.title) LIKE $%d OR LOWER(c.subject) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy, sortOrder := sanitizeSort(filter.SortBy, filter.SortOrder, map[string]bool{
		"title":      true,
		"subject":    true,
		"price":      true,
		"created_at": true,
	})
	_, pageSize, offset := sanitizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, t.name AS tutor_name, t.email AS tutor_email %s ORDER BY c.%s %s LIMIT %d OFFSET %d`,
		courseColumns, base, sortBy, sortOrder, pageSize, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s, t.name AS tutor_name, t.email AS tutor_email
        FROM courses c JOIN users t ON t.id = c.tutor_id WHERE c.id = $1`, courseColumns)
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new course listing.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.ApprovalStatus == "" {
		course.ApprovalStatus = models.CourseApprovalPending
	}
	const query = `INSERT INTO courses (id, title, subject, price, duration_weeks, tutor_id, approval_status, published, created_at, updated_at)
        VALUES (:id, :title, :subject, :price, :duration_weeks, :tutor_id, :approval_status, :published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// SetApproval updates the moderation state of a course. Approval publishes
// the listing; rejection unpublishes it.
func (r *CourseRepository) SetApproval(ctx context.Context, id string, status models.CourseApproval) error {
	const query = `UPDATE courses SET approval_status = $2, published = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, status == models.CourseApprovalApproved, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set course approval: %w", err)
	}
	return requireRow(res)
}

// Delete removes a course listing.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return requireRow(res)
}

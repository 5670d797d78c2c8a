package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorhub/tutorhub-api/internal/models"
)

const payoutColumns = `p.id, p.tutor_id, p.method, p.account_name, p.account_identifier, p.commission_percent, p.created_at, p.updated_at`

// PayoutRepository manages persistence for tutor payout settings.
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository constructs a PayoutRepository.
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// List returns payout settings matching the provided filters.
func (r *PayoutRepository) List(ctx context.Context, filter models.PayoutSettingFilter) ([]models.PayoutSettingDetail, int, error) {
	base := `FROM payout_settings p JOIN users t ON t.id = p.tutor_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("p.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Method != "" {
		conditions = append(conditions, fmt.Sprintf("p.method = $%d", len(args)+1))
		args = append(args, filter.Method)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy, sortOrder := sanitizeSort(filter.SortBy, filter.SortOrder, map[string]bool{
		"method":     true,
		"created_at": true,
		"updated_at": true,
	})
	_, pageSize, offset := sanitizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, t.name AS tutor_name, t.email AS tutor_email %s ORDER BY p.%s %s LIMIT %d OFFSET %d`,
		payoutColumns, base, sortBy, sortOrder, pageSize, offset)

	var settings []models.PayoutSettingDetail
	if err := r.db.SelectContext(ctx, &settings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payout settings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payout settings: %w", err)
	}
	return settings, total, nil
}

// FindByID fetches a payout setting by ID.
func (r *PayoutRepository) FindByID(ctx context.Context, id string) (*models.PayoutSettingDetail, error) {
	query := fmt.Sprintf(`SELECT %s, t.name AS tutor_name, t.email AS tutor_email
        FROM payout_settings p JOIN users t ON t.id = p.tutor_id
        WHERE p.id = $1`, payoutColumns)
	var detail models.PayoutSettingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Update modifies an existing payout setting.
func (r *PayoutRepository) Update(ctx context.Context, setting *models.PayoutSetting) error {
	setting.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payout_settings SET method = :method, account_name = :account_name,
        account_identifier = :account_identifier, commission_percent = :commission_percent, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("update payout setting: %w", err)
	}
	return nil
}

// Delete removes a payout setting.
func (r *PayoutRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payout_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payout setting: %w", err)
	}
	return requireRow(res)
}

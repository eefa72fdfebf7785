package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/database"
)

type attendanceSummaryRepository struct {
	db *database.DB
}

func NewAttendanceSummaryRepository(db *database.DB) attendance.SummaryRepository {
	return &attendanceSummaryRepository{db: db}
}

const summaryColumns = `
	id, tenant_id, employee_id, site_id, date,
	expected_start, expected_end, actual_arrival, actual_departure, open_ended,
	time_on_site_minutes, variance_hours, status, is_late, is_early_departure,
	has_manual_confirmation, anomaly_reason, created_at, updated_at
`

// Upsert implements attendance.SummaryRepository. The key (tenant_id,
// employee_id, site_id, date) carries a unique constraint; re-running a
// reconciliation replaces the stored row.
func (r *attendanceSummaryRepository) Upsert(ctx context.Context, summary attendance.Summary) (attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_summaries (
			id, tenant_id, employee_id, site_id, date,
			expected_start, expected_end, actual_arrival, actual_departure, open_ended,
			time_on_site_minutes, variance_hours, status, is_late, is_early_departure,
			has_manual_confirmation, anomaly_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
		ON CONFLICT (tenant_id, employee_id, site_id, date) DO UPDATE SET
			expected_start = EXCLUDED.expected_start,
			expected_end = EXCLUDED.expected_end,
			actual_arrival = EXCLUDED.actual_arrival,
			actual_departure = EXCLUDED.actual_departure,
			open_ended = EXCLUDED.open_ended,
			time_on_site_minutes = EXCLUDED.time_on_site_minutes,
			variance_hours = EXCLUDED.variance_hours,
			status = EXCLUDED.status,
			is_late = EXCLUDED.is_late,
			is_early_departure = EXCLUDED.is_early_departure,
			has_manual_confirmation = EXCLUDED.has_manual_confirmation,
			anomaly_reason = EXCLUDED.anomaly_reason,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		summary.ID, summary.TenantID, summary.EmployeeID, summary.SiteID, summary.Date,
		summary.ExpectedStart, summary.ExpectedEnd,
		summary.ActualArrival, summary.ActualDeparture, summary.OpenEnded,
		summary.ActualTimeOnSite.Minutes(), summary.VarianceHours,
		string(summary.Status), summary.IsLate, summary.IsEarlyDeparture,
		summary.HasManualConfirmation, summary.AnomalyReason,
	).Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt)
	if err != nil {
		return attendance.Summary{}, fmt.Errorf("failed to upsert summary: %w", err)
	}

	return summary, nil
}

// GetByID implements attendance.SummaryRepository.
func (r *attendanceSummaryRepository) GetByID(ctx context.Context, id string, tenantID string) (attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + summaryColumns + `
		FROM attendance_summaries
		WHERE id = $1
		  AND tenant_id = $2
	`

	summary, err := scanSummaryRow(q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Summary{}, attendance.ErrSummaryNotFound
		}
		return attendance.Summary{}, fmt.Errorf("failed to get summary by id: %w", err)
	}

	return summary, nil
}

// GetByKey implements attendance.SummaryRepository.
func (r *attendanceSummaryRepository) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*attendance.Summary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + summaryColumns + `
		FROM attendance_summaries
		WHERE tenant_id = $1
		  AND employee_id = $2
		  AND site_id = $3
		  AND date = $4
	`

	summary, err := scanSummaryRow(q.QueryRow(ctx, query,
		tenantID, employeeID, siteID, date.UTC().Truncate(24*time.Hour)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary by key: %w", err)
	}

	return &summary, nil
}

// List implements attendance.SummaryRepository.
func (r *attendanceSummaryRepository) List(ctx context.Context, filter attendance.SummaryFilter, tenantID string) ([]attendance.Summary, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "tenant_id = $1"
	args := []interface{}{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.SiteID != nil && *filter.SiteID != "" {
		baseWhere += fmt.Sprintf(" AND site_id = $%d", argIdx)
		args = append(args, *filter.SiteID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := `SELECT COUNT(*) FROM attendance_summaries WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count summaries: %w", err)
	}

	// Build ORDER BY. SortBy is validated against a fixed set upstream.
	orderByField := "date"
	switch filter.SortBy {
	case "employee_id":
		orderByField = "employee_id"
	case "site_id":
		orderByField = "site_id"
	case "status":
		orderByField = "status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_summaries
		WHERE %s
		ORDER BY %s %s, employee_id, site_id
		LIMIT $%d OFFSET $%d
	`, summaryColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []attendance.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate summaries: %w", err)
	}

	return summaries, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummaryRow(row pgx.Row) (attendance.Summary, error) {
	return scanSummaryFrom(row)
}

func scanSummary(rows pgx.Rows) (attendance.Summary, error) {
	summary, err := scanSummaryFrom(rows)
	if err != nil {
		return attendance.Summary{}, fmt.Errorf("failed to scan summary: %w", err)
	}
	return summary, nil
}

func scanSummaryFrom(row rowScanner) (attendance.Summary, error) {
	var (
		s       attendance.Summary
		minutes int
		status  string
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &s.EmployeeID, &s.SiteID, &s.Date,
		&s.ExpectedStart, &s.ExpectedEnd, &s.ActualArrival, &s.ActualDeparture, &s.OpenEnded,
		&minutes, &s.VarianceHours, &status, &s.IsLate, &s.IsEarlyDeparture,
		&s.HasManualConfirmation, &s.AnomalyReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return attendance.Summary{}, err
	}

	tos, err := attendance.NewTimeOnSite(minutes)
	if err != nil {
		return attendance.Summary{}, fmt.Errorf("stored time on site is invalid: %w", err)
	}
	s.ActualTimeOnSite = tos
	s.Status = attendance.Status(status)

	return s, nil
}

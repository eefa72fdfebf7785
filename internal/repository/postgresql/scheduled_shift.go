package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/database"
)

type scheduledShiftRepository struct {
	db *database.DB
}

func NewScheduledShiftRepository(db *database.DB) roster.ShiftRepository {
	return &scheduledShiftRepository{db: db}
}

// GetByKey implements roster.ShiftRepository.
func (r *scheduledShiftRepository) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*roster.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id, date,
			   expected_start, expected_end, created_at, updated_at
		FROM scheduled_shifts
		WHERE tenant_id = $1
		  AND employee_id = $2
		  AND site_id = $3
		  AND date = $4
		LIMIT 1
	`

	var s roster.Shift
	err := q.QueryRow(ctx, query, tenantID, employeeID, siteID, date.UTC().Truncate(24*time.Hour)).Scan(
		&s.ID, &s.TenantID, &s.EmployeeID, &s.SiteID, &s.Date,
		&s.ExpectedStart, &s.ExpectedEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Unscheduled for this site on this date
			return nil, roster.ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift by key: %w", err)
	}

	return &s, nil
}

// ListForTenantDate implements roster.ShiftRepository.
func (r *scheduledShiftRepository) ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]roster.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id, date,
			   expected_start, expected_end, created_at, updated_at
		FROM scheduled_shifts
		WHERE tenant_id = $1
		  AND date = $2
		ORDER BY employee_id, site_id
	`

	rows, err := q.Query(ctx, query, tenantID, date.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts for tenant: %w", err)
	}
	defer rows.Close()

	var shifts []roster.Shift
	for rows.Next() {
		var s roster.Shift
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.EmployeeID, &s.SiteID, &s.Date,
			&s.ExpectedStart, &s.ExpectedEnd, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", err)
	}

	return shifts, nil
}

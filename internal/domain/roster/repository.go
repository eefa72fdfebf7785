package roster

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// GetByKey retrieves the shift for one employee+site+date, or
	// ErrShiftNotFound when the employee is unscheduled
	GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*Shift, error)

	// ListForTenantDate retrieves all shifts for a tenant on one date
	ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]Shift, error)
}

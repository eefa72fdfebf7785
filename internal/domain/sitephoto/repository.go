package sitephoto

import (
	"context"
	"time"
)

type ConfirmationRepository interface {
	// Create stores a submitted confirmation
	Create(ctx context.Context, confirmation Confirmation) (Confirmation, error)

	// ListByKey retrieves confirmations for one employee+site+date,
	// ordered by captured_at ascending
	ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]Confirmation, error)

	// ListForTenantDate retrieves all confirmations for a tenant on one date
	ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]Confirmation, error)
}

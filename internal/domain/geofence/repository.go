package geofence

import (
	"context"
	"time"
)

// EventRepository defines data access for geofence events. All methods are
// tenant-scoped to prevent cross-tenant reads.
type EventRepository interface {
	// CreateBatch inserts a batch of ingested events
	CreateBatch(ctx context.Context, events []Event) (int, error)

	// ListByKey retrieves events for one employee+site on one date,
	// ordered by occurred_at ascending
	ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]Event, error)

	// ListForTenantWindow retrieves all events for a tenant with
	// occurred_at in [from, to), ordered by employee, site, occurred_at.
	// Reconciliation fetches a window wider than the target date so that
	// stays spanning midnight pair up with their adjacent-day halves.
	ListForTenantWindow(ctx context.Context, tenantID string, from, to time.Time) ([]Event, error)
}

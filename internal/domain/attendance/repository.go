package attendance

import (
	"context"
	"time"
)

// SummaryRepository persists reconciled summaries. Upsert gives the engine
// its supersede-on-rerun semantics: the row for (tenant, employee, site,
// date) is replaced, never appended to.
type SummaryRepository interface {
	// Upsert inserts or replaces the summary for its key
	Upsert(ctx context.Context, summary Summary) (Summary, error)

	// GetByID retrieves a summary by ID with tenant isolation
	GetByID(ctx context.Context, id string, tenantID string) (Summary, error)

	// GetByKey retrieves the summary for one employee+site+date, or nil
	GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*Summary, error)

	// List retrieves summaries with filters and pagination
	List(ctx context.Context, filter SummaryFilter, tenantID string) ([]Summary, int64, error)
}

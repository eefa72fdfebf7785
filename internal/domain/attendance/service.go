package attendance

import (
	"context"
)

// SummaryService defines business logic for reading reconciled summaries
// and triggering reconciliation runs
type SummaryService interface {
	// ListSummaries retrieves summaries for the authenticated tenant with
	// filters and pagination
	ListSummaries(ctx context.Context, filter SummaryFilter) (ListSummariesResponse, error)

	// GetSummary retrieves a single summary by ID, tenant-scoped
	GetSummary(ctx context.Context, id string) (SummaryResponse, error)

	// RunReconciliation runs the daily batch for one date (admin only)
	RunReconciliation(ctx context.Context, req RunBatchRequest) (BatchResult, error)
}

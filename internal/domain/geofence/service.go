package geofence

import (
	"context"
)

// IngestService defines business logic for geofence event ingestion
type IngestService interface {
	// IngestBatch validates and stores a webhook batch for the
	// authenticated tenant
	IngestBatch(ctx context.Context, req IngestBatchRequest) (IngestBatchResponse, error)

	// IngestForTenant stores an already-fetched batch for one tenant,
	// used by the scheduled provider pull
	IngestForTenant(ctx context.Context, tenantID string, events []IngestEventRequest) (int, error)
}

package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/database"
)

type geofenceEventRepository struct {
	db *database.DB
}

func NewGeofenceEventRepository(db *database.DB) geofence.EventRepository {
	return &geofenceEventRepository{db: db}
}

// CreateBatch implements geofence.EventRepository. The batch is inserted in
// one transaction so a partial webhook delivery never lands.
func (r *geofenceEventRepository) CreateBatch(ctx context.Context, events []geofence.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO geofence_events (
			id, tenant_id, employee_id, site_id,
			event_type, trigger_method, occurred_at, latitude, longitude
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		for _, ev := range events {
			_, err := tx.Exec(ctx, query,
				ev.ID, ev.TenantID, ev.EmployeeID, ev.SiteID,
				string(ev.Type), string(ev.TriggerMethod), ev.OccurredAt,
				ev.Latitude, ev.Longitude,
			)
			if err != nil {
				return fmt.Errorf("failed to insert geofence event %s: %w", ev.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}

// ListByKey implements geofence.EventRepository.
func (r *geofenceEventRepository) ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]geofence.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id,
			   event_type, trigger_method, occurred_at, latitude, longitude, created_at
		FROM geofence_events
		WHERE tenant_id = $1
		  AND employee_id = $2
		  AND site_id = $3
		  AND occurred_at >= $4
		  AND occurred_at < $5
		ORDER BY occurred_at
	`

	dayStart := date.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := q.Query(ctx, query, tenantID, employeeID, siteID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence events by key: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListForTenantWindow implements geofence.EventRepository.
func (r *geofenceEventRepository) ListForTenantWindow(ctx context.Context, tenantID string, from, to time.Time) ([]geofence.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, site_id,
			   event_type, trigger_method, occurred_at, latitude, longitude, created_at
		FROM geofence_events
		WHERE tenant_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY employee_id, site_id, occurred_at
	`

	rows, err := q.Query(ctx, query, tenantID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list geofence events for tenant: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]geofence.Event, error) {
	var events []geofence.Event
	for rows.Next() {
		var (
			ev            geofence.Event
			eventType     string
			triggerMethod string
		)
		if err := rows.Scan(
			&ev.ID, &ev.TenantID, &ev.EmployeeID, &ev.SiteID,
			&eventType, &triggerMethod, &ev.OccurredAt,
			&ev.Latitude, &ev.Longitude, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan geofence event: %w", err)
		}
		ev.Type = geofence.EventType(eventType)
		ev.TriggerMethod = geofence.TriggerMethod(triggerMethod)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofence events: %w", err)
	}
	return events, nil
}

package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/geo"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
)

type IngestServiceImpl struct {
	geofence.EventRepository
}

func NewIngestService(eventRepository geofence.EventRepository) geofence.IngestService {
	return &IngestServiceImpl{
		EventRepository: eventRepository,
	}
}

// IngestBatch implements geofence.IngestService.
func (s *IngestServiceImpl) IngestBatch(ctx context.Context, req geofence.IngestBatchRequest) (geofence.IngestBatchResponse, error) {
	if err := req.Validate(); err != nil {
		return geofence.IngestBatchResponse{}, err
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return geofence.IngestBatchResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	tenantID, ok := claims["tenant_id"].(string)
	if !ok || tenantID == "" {
		return geofence.IngestBatchResponse{}, fmt.Errorf("tenant_id claim is missing or invalid")
	}

	events := make([]geofence.Event, 0, len(req.Events))
	for _, ev := range req.Events {
		// Validated above; parse cannot fail here.
		events = append(events, buildEvent(tenantID, ev))
	}

	count, err := s.EventRepository.CreateBatch(ctx, events)
	if err != nil {
		return geofence.IngestBatchResponse{}, fmt.Errorf("failed to store geofence events: %w", err)
	}

	return geofence.IngestBatchResponse{IngestedCount: count}, nil
}

// IngestForTenant implements geofence.IngestService. Invalid events from
// the external feed are skipped with a warning rather than failing the
// whole pull.
func (s *IngestServiceImpl) IngestForTenant(ctx context.Context, tenantID string, reqs []geofence.IngestEventRequest) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}

	events := make([]geofence.Event, 0, len(reqs))
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				slog.Warn("Skipping invalid provider event",
					"tenant_id", tenantID, "employee_id", reqs[i].EmployeeID,
					"errors", verrs.ToMap())
				continue
			}
			return 0, err
		}
		events = append(events, buildEvent(tenantID, reqs[i]))
	}

	if len(events) == 0 {
		return 0, nil
	}

	flagImplausibleJumps(tenantID, events)

	count, err := s.EventRepository.CreateBatch(ctx, events)
	if err != nil {
		return 0, fmt.Errorf("failed to store geofence events: %w", err)
	}

	return count, nil
}

// maxPlausibleSpeedMps is roughly 200 km/h; a worker cannot move between
// two geofence fixes faster than that.
const maxPlausibleSpeedMps = 55.0

// flagImplausibleJumps warns about consecutive fixes from one employee
// that imply an impossible travel speed. The events are still stored; the
// reconciliation engine degrades such days to incomplete data on its own
// signals, this is for operator visibility into a misbehaving feed.
func flagImplausibleJumps(tenantID string, events []geofence.Event) {
	last := make(map[string]geofence.Event)
	for _, ev := range events {
		if ev.Latitude == nil || ev.Longitude == nil {
			continue
		}
		prev, ok := last[ev.EmployeeID]
		last[ev.EmployeeID] = ev
		if !ok {
			continue
		}

		elapsed := ev.OccurredAt.Sub(prev.OccurredAt).Seconds()
		if elapsed <= 0 {
			continue
		}

		from, err := geo.New(*prev.Latitude, *prev.Longitude)
		if err != nil {
			continue
		}
		to, err := geo.New(*ev.Latitude, *ev.Longitude)
		if err != nil {
			continue
		}

		distance := from.DistanceMeters(to)
		if distance/elapsed > maxPlausibleSpeedMps {
			slog.Warn("Implausible movement between geofence events",
				"tenant_id", tenantID,
				"employee_id", ev.EmployeeID,
				"distance_meters", distance,
				"elapsed_seconds", elapsed)
		}
	}
}

func buildEvent(tenantID string, req geofence.IngestEventRequest) geofence.Event {
	eventType, _ := geofence.ParseEventType(req.Type)
	trigger, _ := geofence.ParseTriggerMethod(req.TriggerMethod)
	occurredAt, _ := time.Parse(time.RFC3339, req.OccurredAt)

	return geofence.Event{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		EmployeeID:    req.EmployeeID,
		SiteID:        req.SiteID,
		Type:          eventType,
		TriggerMethod: trigger,
		OccurredAt:    occurredAt.UTC(),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
}

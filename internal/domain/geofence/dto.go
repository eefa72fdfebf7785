package geofence

import (
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
)

// IngestEventRequest is one event as delivered by the geofencing webhook.
// Type and trigger method arrive as free strings and are validated here,
// once, at the boundary.
type IngestEventRequest struct {
	EmployeeID    string   `json:"employee_id"`
	SiteID        string   `json:"site_id"`
	Type          string   `json:"event_type"`
	TriggerMethod string   `json:"trigger_method"`
	OccurredAt    string   `json:"occurred_at"` // RFC3339
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

func (r *IngestEventRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.SiteID) {
		errs = append(errs, validator.ValidationError{
			Field:   "site_id",
			Message: "site_id is required",
		})
	}

	if _, ok := ParseEventType(r.Type); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "event_type",
			Message: "event_type must be one of: enter, exit",
		})
	}

	if _, ok := ParseTriggerMethod(r.TriggerMethod); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "trigger_method",
			Message: "trigger_method must be one of: automatic, manual",
		})
	}

	if _, ok := validator.IsValidDateTime(r.OccurredAt); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "occurred_at",
			Message: "occurred_at must be an RFC3339 timestamp",
		})
	}

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be supplied together",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// IngestBatchRequest is the webhook payload: a batch of events for one tenant.
type IngestBatchRequest struct {
	Events []IngestEventRequest `json:"events"`
}

func (r *IngestBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Events) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "events",
			Message: "at least one event is required",
		})
		return errs
	}

	for i := range r.Events {
		if err := r.Events[i].Validate(); err != nil {
			if inner, ok := err.(validator.ValidationErrors); ok {
				for _, e := range inner {
					errs = append(errs, validator.ValidationError{
						Field:   "events[" + validator.Itoa(i) + "]." + e.Field,
						Message: e.Message,
					})
				}
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type IngestBatchResponse struct {
	IngestedCount int `json:"ingested_count"`
}

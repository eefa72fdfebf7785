package geofence

import "time"

// EventType is the direction of a geofence crossing.
type EventType string

const (
	EventEnter EventType = "enter"
	EventExit  EventType = "exit"
)

// TriggerMethod records how the event was produced on the device.
type TriggerMethod string

const (
	TriggerAutomatic TriggerMethod = "automatic"
	TriggerManual    TriggerMethod = "manual"
)

// Event is one enter/exit notification from the mobile geofencing system.
// Events are read-only once ingested; ordering within an
// employee+site+day partition is by OccurredAt ascending.
type Event struct {
	ID            string
	TenantID      string
	EmployeeID    string
	SiteID        string
	Type          EventType
	TriggerMethod TriggerMethod
	OccurredAt    time.Time // UTC
	Latitude      *float64
	Longitude     *float64
	CreatedAt     time.Time
}

// ParseEventType validates an event-type string from the external source.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventEnter, EventExit:
		return EventType(s), true
	}
	return "", false
}

// ParseTriggerMethod validates a trigger-method string from the external source.
func ParseTriggerMethod(s string) (TriggerMethod, bool) {
	switch TriggerMethod(s) {
	case TriggerAutomatic, TriggerManual:
		return TriggerMethod(s), true
	}
	return "", false
}

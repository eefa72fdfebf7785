package geofence

import "errors"

var (
	ErrEventNotFound    = errors.New("geofence event not found")
	ErrInvalidEventType = errors.New("invalid geofence event type")
)

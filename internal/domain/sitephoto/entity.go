package sitephoto

import "time"

// Confirmation is a human-confirmed on-site checkpoint: a photo (and
// optionally a signature) captured at the site, independent of GPS. It acts
// as a fallback presence signal when geofence data is absent or inconsistent.
type Confirmation struct {
	ID           string
	TenantID     string
	EmployeeID   string
	SiteID       string
	Date         time.Time // midnight UTC
	CapturedAt   time.Time // UTC
	HasImage     bool
	HasSignature bool
	PhotoURL     *string
	CreatedAt    time.Time
}

package roster

import "time"

// Shift is the rostered expectation for one employee at one site on one
// date. At most one shift exists per employee+site+date; absence means the
// employee is unscheduled for that site that day.
type Shift struct {
	ID            string
	TenantID      string
	EmployeeID    string
	SiteID        string
	Date          time.Time // midnight UTC
	ExpectedStart time.Time // UTC
	ExpectedEnd   time.Time // UTC
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DurationHours is the scheduled length of the shift in hours.
func (s Shift) DurationHours() float64 {
	return s.ExpectedEnd.Sub(s.ExpectedStart).Hours()
}

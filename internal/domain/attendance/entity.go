package attendance

import "time"

// Status is the primary classification label of a reconciled day. Late and
// early-departure are not mutually exclusive, so Summary additionally
// carries the IsLate/IsEarlyDeparture flags; when both apply, the primary
// status is StatusLate.
type Status string

const (
	StatusOnTime                Status = "on_time"
	StatusLate                  Status = "late"
	StatusEarlyDeparture        Status = "early_departure"
	StatusNoShow                Status = "no_show"
	StatusIncompleteData        Status = "incomplete_data"
	StatusManuallyConfirmedOnly Status = "manually_confirmed_only"
)

// Summary is the reconciled attendance record for one employee at one site
// on one date. It is produced only by the reconciliation engine and never
// mutated afterwards; re-running reconciliation supersedes the stored row
// via upsert.
type Summary struct {
	ID         string
	TenantID   string
	EmployeeID string
	SiteID     string
	Date       time.Time // midnight UTC

	ExpectedStart *time.Time
	ExpectedEnd   *time.Time

	ActualArrival   *time.Time
	ActualDeparture *time.Time

	// OpenEnded marks a day whose last event was an unmatched enter; hours
	// are provisional, computed against the 23:59:59 UTC cutoff.
	OpenEnded bool

	ActualTimeOnSite TimeOnSite
	VarianceHours    *float64

	Status           Status
	IsLate           bool
	IsEarlyDeparture bool

	HasManualConfirmation bool
	AnomalyReason         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BatchFailure records one employee+site key whose reconciliation or
// persistence failed during a batch run.
type BatchFailure struct {
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`
	SiteID     string `json:"site_id"`
	Reason     string `json:"reason"`
}

// BatchResult is the outcome of one daily reconciliation run.
type BatchResult struct {
	RunID          string         `json:"run_id"`
	Date           string         `json:"date"`
	TenantCount    int            `json:"tenant_count"`
	ProcessedCount int            `json:"processed_count"`
	FailedCount    int            `json:"failed_count"`
	Failures       []BatchFailure `json:"failures,omitempty"`
}

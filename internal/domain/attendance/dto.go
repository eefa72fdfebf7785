package attendance

import (
	"strings"

	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
)

type SummaryResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	SiteID     string `json:"site_id"`
	Date       string `json:"date"`

	ExpectedStart *string `json:"expected_start,omitempty"`
	ExpectedEnd   *string `json:"expected_end,omitempty"`

	ActualArrival   *string `json:"actual_arrival,omitempty"`
	ActualDeparture *string `json:"actual_departure,omitempty"`
	OpenEnded       bool    `json:"open_ended"`

	HoursOnSite   float64  `json:"hours_on_site"`
	VarianceHours *float64 `json:"variance_hours,omitempty"`

	Status           string `json:"status"`
	IsLate           bool   `json:"is_late"`
	IsEarlyDeparture bool   `json:"is_early_departure"`

	HasManualConfirmation bool    `json:"has_manual_confirmation"`
	AnomalyReason         *string `json:"anomaly_reason,omitempty"`
}

type SummaryFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	SiteID     *string `json:"site_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortBy    string `json:"sort_by"`    // date, employee_id, site_id, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		validStatuses := []string{
			string(StatusOnTime), string(StatusLate), string(StatusEarlyDeparture),
			string(StatusNoShow), string(StatusIncompleteData), string(StatusManuallyConfirmedOnly),
		}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: on_time, late, early_departure, no_show, incomplete_data, manually_confirmed_only",
			})
		}
	}

	for field, value := range map[string]*string{
		"date":       f.Date,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
	} {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: field + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_id", "site_id", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, employee_id, site_id, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListSummariesResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Summaries  []SummaryResponse `json:"summaries"`
}

// RunBatchRequest triggers a reconciliation run for one date.
type RunBatchRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

func (r *RunBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

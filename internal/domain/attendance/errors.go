package attendance

import "errors"

var (
	// Value type errors
	ErrNegativeDuration = errors.New("time on site cannot be negative")

	// Engine errors
	ErrMismatchedKeys = errors.New("mismatched tenant/employee/site keys across reconciliation inputs")

	// General errors
	ErrSummaryNotFound = errors.New("attendance summary not found")
)

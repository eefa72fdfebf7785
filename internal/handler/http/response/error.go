package response

import (
	"errors"
	"net/http"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/auth"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/tenant"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/user"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User account is inactive")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrSummaryNotFound):
		NotFound(w, "Attendance summary not found")
	case errors.Is(err, attendance.ErrMismatchedKeys):
		BadRequest(w, "Mismatched reconciliation inputs", nil)

	// Roster domain errors
	case errors.Is(err, roster.ErrShiftNotFound):
		NotFound(w, "Scheduled shift not found")

	// Geofence domain errors
	case errors.Is(err, geofence.ErrInvalidEventType):
		BadRequest(w, "Invalid geofence event type", nil)
	case errors.Is(err, geofence.ErrEventNotFound):
		NotFound(w, "Geofence event not found")

	// Site photo domain errors
	case errors.Is(err, sitephoto.ErrConfirmationNotFound):
		NotFound(w, "Site photo confirmation not found")

	// Tenant domain errors
	case errors.Is(err, tenant.ErrTenantNotFound):
		NotFound(w, "Tenant not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

package sitephoto

import (
	"context"
)

// ConfirmationService defines business logic for photo-attendance
// confirmations
type ConfirmationService interface {
	// SubmitConfirmation stores the photo proof and records a confirmation
	// for the authenticated tenant
	SubmitConfirmation(ctx context.Context, req SubmitConfirmationRequest) (ConfirmationResponse, error)
}

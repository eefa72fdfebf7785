package sitephoto

import (
	"mime/multipart"
	"strings"

	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
)

// SubmitConfirmationRequest is a manual photo-attendance submission.
type SubmitConfirmationRequest struct {
	EmployeeID   string                `json:"employee_id"`
	SiteID       string                `json:"site_id"`
	CapturedAt   string                `json:"captured_at"` // RFC3339
	HasSignature bool                  `json:"has_signature"`
	File         multipart.File        `json:"-"`
	FileHeader   *multipart.FileHeader `json:"-"`
}

func (r *SubmitConfirmationRequest) Validate() error {
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

	if _, ok := validator.IsValidDateTime(r.CapturedAt); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "captured_at",
			Message: "captured_at must be an RFC3339 timestamp",
		})
	}

	if r.FileHeader == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "file",
			Message: "site photo is required",
		})
	} else {
		filename := r.FileHeader.Filename
		idx := strings.LastIndex(filename, ".")
		ext := ""
		if idx >= 0 {
			ext = strings.ToLower(filename[idx:])
		}
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "file",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.FileHeader.Size > 10<<20 { // 10MB
			errs = append(errs, validator.ValidationError{
				Field:   "file",
				Message: "site photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ConfirmationResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	SiteID       string  `json:"site_id"`
	Date         string  `json:"date"`
	CapturedAt   string  `json:"captured_at"`
	HasImage     bool    `json:"has_image"`
	HasSignature bool    `json:"has_signature"`
	PhotoURL     *string `json:"photo_url,omitempty"`
}

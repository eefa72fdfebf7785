package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/handler/http/response"
)

type SitePhotoHandler interface {
	SubmitConfirmation(w http.ResponseWriter, r *http.Request)
}

type sitePhotoHandlerImpl struct {
	confirmationService sitephoto.ConfirmationService
}

func NewSitePhotoHandler(confirmationService sitephoto.ConfirmationService) SitePhotoHandler {
	return &sitePhotoHandlerImpl{
		confirmationService: confirmationService,
	}
}

// SubmitConfirmation implements SitePhotoHandler.
func (h *sitePhotoHandlerImpl) SubmitConfirmation(w http.ResponseWriter, r *http.Request) {
	var req sitephoto.SubmitConfirmationRequest

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	// Get JSON data from 'data' field
	dataJSON := r.FormValue("data")
	if dataJSON == "" {
		response.BadRequest(w, "Field 'data' is required", nil)
		return
	}

	if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
		slog.Error("Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Get file from form
	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Site photo is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	req.File = file
	req.FileHeader = fileHeader

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.confirmationService.SubmitConfirmation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Site photo confirmation recorded", result)
}

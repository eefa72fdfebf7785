package sitephoto

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/storage"
)

type ConfirmationServiceImpl struct {
	sitephoto.ConfirmationRepository
	fileStorage storage.FileStorage
}

func NewConfirmationService(confirmationRepository sitephoto.ConfirmationRepository, fileStorage storage.FileStorage) sitephoto.ConfirmationService {
	return &ConfirmationServiceImpl{
		ConfirmationRepository: confirmationRepository,
		fileStorage:            fileStorage,
	}
}

// SubmitConfirmation implements sitephoto.ConfirmationService.
func (s *ConfirmationServiceImpl) SubmitConfirmation(ctx context.Context, req sitephoto.SubmitConfirmationRequest) (sitephoto.ConfirmationResponse, error) {
	if err := req.Validate(); err != nil {
		return sitephoto.ConfirmationResponse{}, err
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return sitephoto.ConfirmationResponse{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	tenantID, ok := claims["tenant_id"].(string)
	if !ok || tenantID == "" {
		return sitephoto.ConfirmationResponse{}, fmt.Errorf("tenant_id claim is missing or invalid")
	}

	// Validated above; parse cannot fail here.
	capturedAt, _ := time.Parse(time.RFC3339, req.CapturedAt)
	capturedAt = capturedAt.UTC()
	date := capturedAt.Truncate(24 * time.Hour)

	confirmation := sitephoto.Confirmation{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		EmployeeID:   req.EmployeeID,
		SiteID:       req.SiteID,
		Date:         date,
		CapturedAt:   capturedAt,
		HasImage:     true,
		HasSignature: req.HasSignature,
	}

	ext := strings.ToLower(filepath.Ext(req.FileHeader.Filename))
	path := fmt.Sprintf("site-photos/%s/%s/%s%s",
		tenantID, date.Format("2006-01-02"), confirmation.ID, ext)

	contentType := req.FileHeader.Header.Get("Content-Type")
	storedPath, err := s.fileStorage.Upload(ctx, req.File, path, contentType)
	if err != nil {
		return sitephoto.ConfirmationResponse{}, fmt.Errorf("failed to store site photo: %w", err)
	}

	photoURL, err := s.fileStorage.GetURL(ctx, storedPath, 0)
	if err != nil {
		return sitephoto.ConfirmationResponse{}, fmt.Errorf("failed to build photo URL: %w", err)
	}
	confirmation.PhotoURL = &photoURL

	created, err := s.ConfirmationRepository.Create(ctx, confirmation)
	if err != nil {
		// The stored photo is orphaned if this fails; remove it.
		_ = s.fileStorage.Delete(ctx, storedPath)
		return sitephoto.ConfirmationResponse{}, fmt.Errorf("failed to store confirmation: %w", err)
	}

	return toConfirmationResponse(created), nil
}

func toConfirmationResponse(c sitephoto.Confirmation) sitephoto.ConfirmationResponse {
	return sitephoto.ConfirmationResponse{
		ID:           c.ID,
		EmployeeID:   c.EmployeeID,
		SiteID:       c.SiteID,
		Date:         c.Date.Format("2006-01-02"),
		CapturedAt:   c.CapturedAt.Format(time.RFC3339),
		HasImage:     c.HasImage,
		HasSignature: c.HasSignature,
		PhotoURL:     c.PhotoURL,
	}
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/handler/http/response"
)

type GeofenceHandler interface {
	IngestEvents(w http.ResponseWriter, r *http.Request)
}

type geofenceHandlerImpl struct {
	ingestService geofence.IngestService
}

func NewGeofenceHandler(ingestService geofence.IngestService) GeofenceHandler {
	return &geofenceHandlerImpl{
		ingestService: ingestService,
	}
}

// IngestEvents implements GeofenceHandler.
func (h *geofenceHandlerImpl) IngestEvents(w http.ResponseWriter, r *http.Request) {
	var req geofence.IngestBatchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("IngestEvents decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.ingestService.IngestBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Geofence events ingested", "count", result.IngestedCount)
	response.Created(w, "Events ingested successfully", result)
}

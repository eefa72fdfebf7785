package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	ListSummaries(w http.ResponseWriter, r *http.Request)
	GetSummary(w http.ResponseWriter, r *http.Request)
	RunReconciliation(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	summaryService attendance.SummaryService
}

func NewAttendanceHandler(summaryService attendance.SummaryService) AttendanceHandler {
	return &attendanceHandlerImpl{
		summaryService: summaryService,
	}
}

// ListSummaries implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListSummaries(w http.ResponseWriter, r *http.Request) {
	filter := parseSummaryFilter(r)

	result, err := h.summaryService.ListSummaries(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Summaries, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// GetSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Summary ID is required", nil)
		return
	}

	result, err := h.summaryService.GetSummary(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RunReconciliation implements AttendanceHandler.
func (h *attendanceHandlerImpl) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req attendance.RunBatchRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RunReconciliation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.summaryService.RunReconciliation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Info("Reconciliation run completed",
		"run_id", result.RunID,
		"date", result.Date,
		"processed", result.ProcessedCount,
		"failed", result.FailedCount)
	response.SuccessWithMessage(w, "Reconciliation run completed", result)
}

func parseSummaryFilter(r *http.Request) attendance.SummaryFilter {
	var filter attendance.SummaryFilter

	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if siteID := r.URL.Query().Get("site_id"); siteID != "" {
		filter.SiteID = &siteID
	}
	if date := r.URL.Query().Get("date"); date != "" {
		filter.Date = &date
	}
	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil {
			filter.Page = p
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			filter.Limit = l
		}
	}

	filter.SortBy = r.URL.Query().Get("sort_by")
	filter.SortOrder = r.URL.Query().Get("sort_order")

	return filter
}

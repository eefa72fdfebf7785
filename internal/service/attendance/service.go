package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/validator"
	"github.com/sitecrew-hq/siteops-backend-go/internal/service/reconcile"
)

type SummaryServiceImpl struct {
	attendance.SummaryRepository
	runner *reconcile.BatchRunner
}

func NewSummaryService(summaryRepository attendance.SummaryRepository, runner *reconcile.BatchRunner) attendance.SummaryService {
	return &SummaryServiceImpl{
		SummaryRepository: summaryRepository,
		runner:            runner,
	}
}

func tenantIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	tenantID, ok := claims["tenant_id"].(string)
	if !ok || tenantID == "" {
		return "", fmt.Errorf("tenant_id claim is missing or invalid")
	}
	return tenantID, nil
}

// ListSummaries implements attendance.SummaryService.
func (s *SummaryServiceImpl) ListSummaries(ctx context.Context, filter attendance.SummaryFilter) (attendance.ListSummariesResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListSummariesResponse{}, err
	}

	tenantID, err := tenantIDFromContext(ctx)
	if err != nil {
		return attendance.ListSummariesResponse{}, err
	}

	summaries, total, err := s.SummaryRepository.List(ctx, filter, tenantID)
	if err != nil {
		return attendance.ListSummariesResponse{}, fmt.Errorf("failed to list summaries: %w", err)
	}

	responses := make([]attendance.SummaryResponse, 0, len(summaries))
	for i := range summaries {
		responses = append(responses, toSummaryResponse(summaries[i]))
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}

	return attendance.ListSummariesResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Summaries:  responses,
	}, nil
}

// GetSummary implements attendance.SummaryService.
func (s *SummaryServiceImpl) GetSummary(ctx context.Context, id string) (attendance.SummaryResponse, error) {
	tenantID, err := tenantIDFromContext(ctx)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}

	summary, err := s.SummaryRepository.GetByID(ctx, id, tenantID)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}

	return toSummaryResponse(summary), nil
}

// RunReconciliation implements attendance.SummaryService.
func (s *SummaryServiceImpl) RunReconciliation(ctx context.Context, req attendance.RunBatchRequest) (attendance.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.BatchResult{}, err
	}

	// Validated above; parse cannot fail here.
	date, _ := validator.IsValidDate(req.Date)

	result, err := s.runner.Run(ctx, date)
	if err != nil {
		return result, fmt.Errorf("reconciliation run failed: %w", err)
	}

	return result, nil
}

func toSummaryResponse(s attendance.Summary) attendance.SummaryResponse {
	resp := attendance.SummaryResponse{
		ID:                    s.ID,
		EmployeeID:            s.EmployeeID,
		SiteID:                s.SiteID,
		Date:                  s.Date.Format("2006-01-02"),
		OpenEnded:             s.OpenEnded,
		HoursOnSite:           s.ActualTimeOnSite.Hours(),
		VarianceHours:         s.VarianceHours,
		Status:                string(s.Status),
		IsLate:                s.IsLate,
		IsEarlyDeparture:      s.IsEarlyDeparture,
		HasManualConfirmation: s.HasManualConfirmation,
		AnomalyReason:         s.AnomalyReason,
	}

	resp.ExpectedStart = timePtrToString(s.ExpectedStart)
	resp.ExpectedEnd = timePtrToString(s.ExpectedEnd)
	resp.ActualArrival = timePtrToString(s.ActualArrival)
	resp.ActualDeparture = timePtrToString(s.ActualDeparture)

	return resp
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}

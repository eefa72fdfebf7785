package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/tenant"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/email"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/geotrack"
	"github.com/sitecrew-hq/siteops-backend-go/internal/service/reconcile"
)

type ReconciliationJobs struct {
	runner     *reconcile.BatchRunner
	tenantRepo tenant.TenantRepository
	ingestSvc  geofence.IngestService
	provider   *geotrack.Client // nil when no provider is configured
	emailSvc   email.EmailService
	reportTo   string
	runHour    int
}

func NewReconciliationJobs(
	runner *reconcile.BatchRunner,
	tenantRepo tenant.TenantRepository,
	ingestSvc geofence.IngestService,
	provider *geotrack.Client,
	emailSvc email.EmailService,
	reportTo string,
	runHour int,
) *ReconciliationJobs {
	return &ReconciliationJobs{
		runner:     runner,
		tenantRepo: tenantRepo,
		ingestSvc:  ingestSvc,
		provider:   provider,
		emailSvc:   emailSvc,
		reportTo:   reportTo,
		runHour:    runHour,
	}
}

func (j *ReconciliationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddDailyJob("daily_attendance_reconciliation", j.runHour, j.RunDailyReconciliation)
}

// RunDailyReconciliation reconciles the previous day. The scheduler's daily
// gate runs it once per date at the configured UTC hour and retries failed
// runs. When a provider is configured, its event feed is pulled first so
// late-arriving events are included.
func (j *ReconciliationJobs) RunDailyReconciliation(ctx context.Context) error {
	date := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	dateStr := date.Format("2006-01-02")

	slog.Info("Cron: Starting daily attendance reconciliation", "date", dateStr)

	if j.provider != nil {
		j.pullProviderEvents(ctx, date)
	}

	result, err := j.runner.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("reconciliation run failed: %w", err)
	}

	slog.Info("Cron: Daily attendance reconciliation finished",
		"date", dateStr,
		"processed", result.ProcessedCount,
		"failed", result.FailedCount)

	if j.emailSvc != nil && j.reportTo != "" {
		if err := j.emailSvc.SendBatchReport(j.reportTo, result); err != nil {
			slog.Error("Cron: Failed to send reconciliation report", "error", err)
		}
	}

	return nil
}

// pullProviderEvents fetches the previous day's events from the external
// geofencing vendor for every active tenant. Pull failures are logged per
// tenant; reconciliation proceeds with whatever is already stored.
func (j *ReconciliationJobs) pullProviderEvents(ctx context.Context, date time.Time) {
	tenants, err := j.tenantRepo.ListActive(ctx)
	if err != nil {
		slog.Error("Cron: Failed to list tenants for provider pull", "error", err)
		return
	}

	for _, tn := range tenants {
		events, err := j.provider.PullTenantEvents(ctx, tn.ID, date)
		if err != nil {
			slog.Error("Cron: Provider pull failed for tenant",
				"tenant_id", tn.ID, "error", err)
			continue
		}
		if len(events) == 0 {
			continue
		}

		count, err := j.ingestSvc.IngestForTenant(ctx, tn.ID, events)
		if err != nil {
			slog.Error("Cron: Failed to ingest provider events",
				"tenant_id", tn.ID, "error", err)
			continue
		}

		slog.Info("Cron: Pulled provider events",
			"tenant_id", tn.ID, "date", date.Format("2006-01-02"), "count", count)
	}
}

package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/tenant"
)

const (
	DefaultWorkerCount = 8

	persistAttempts = 3
	persistBackoff  = 200 * time.Millisecond

	// eventFetchPadding widens the event fetch on both sides of the target
	// date so that a stay spanning midnight pairs up with its adjacent-day
	// half instead of surfacing as an orphan enter or exit.
	eventFetchPadding = 24 * time.Hour
)

// BatchRunner runs the daily reconciliation over every active tenant.
// Tenants are processed sequentially with a cancellation check between
// them; inside a tenant, employee+site keys are independent and reconciled
// under a bounded worker pool. A failing key is logged and recorded, never
// fatal to the run. Concurrent runs for overlapping dates are not safe;
// the caller serializes them.
type BatchRunner struct {
	tenantRepo       tenant.TenantRepository
	eventRepo        geofence.EventRepository
	shiftRepo        roster.ShiftRepository
	confirmationRepo sitephoto.ConfirmationRepository
	summaryRepo      attendance.SummaryRepository
	engine           *Engine
	workers          int
}

func NewBatchRunner(
	tenantRepo tenant.TenantRepository,
	eventRepo geofence.EventRepository,
	shiftRepo roster.ShiftRepository,
	confirmationRepo sitephoto.ConfirmationRepository,
	summaryRepo attendance.SummaryRepository,
	engine *Engine,
	workers int,
) *BatchRunner {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	return &BatchRunner{
		tenantRepo:       tenantRepo,
		eventRepo:        eventRepo,
		shiftRepo:        shiftRepo,
		confirmationRepo: confirmationRepo,
		summaryRepo:      summaryRepo,
		engine:           engine,
		workers:          workers,
	}
}

type reconcileKey struct {
	employeeID string
	siteID     string
}

type keyInputs struct {
	events        []geofence.Event
	shift         *roster.Shift
	confirmations []sitephoto.Confirmation
}

// Run reconciles every employee+site key with a shift or observed signals
// on the given date. Re-running for the same date replaces prior summaries
// (upsert), so results are idempotent. A cancelled context abandons the
// remaining tenants and returns the partial result with ctx.Err().
func (r *BatchRunner) Run(ctx context.Context, date time.Time) (attendance.BatchResult, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	result := attendance.BatchResult{
		RunID: uuid.NewString(),
		Date:  day.Format("2006-01-02"),
	}

	tenants, err := r.tenantRepo.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list active tenants: %w", err)
	}
	result.TenantCount = len(tenants)

	slog.Info("Reconciliation run starting",
		"run_id", result.RunID, "date", result.Date, "tenants", len(tenants))

	for _, tn := range tenants {
		if err := ctx.Err(); err != nil {
			slog.Warn("Reconciliation run cancelled",
				"run_id", result.RunID, "remaining_tenant", tn.ID)
			result.FailedCount = len(result.Failures)
			return result, err
		}

		processed, failures := r.runTenant(ctx, tn, day)
		result.ProcessedCount += processed
		result.Failures = append(result.Failures, failures...)
	}

	result.FailedCount = len(result.Failures)
	slog.Info("Reconciliation run finished",
		"run_id", result.RunID, "date", result.Date,
		"processed", result.ProcessedCount, "failed", result.FailedCount)

	return result, nil
}

// runTenant fetches the tenant's signals for the date once, groups them by
// employee+site key, and reconciles the keys concurrently.
func (r *BatchRunner) runTenant(ctx context.Context, tn tenant.Tenant, day time.Time) (int, []attendance.BatchFailure) {
	keys, err := r.fetchInputs(ctx, tn.ID, day)
	if err != nil {
		slog.Error("Failed to load reconciliation inputs for tenant",
			"tenant_id", tn.ID, "date", day.Format("2006-01-02"), "error", err)
		return 0, []attendance.BatchFailure{{
			TenantID: tn.ID,
			Reason:   fmt.Sprintf("failed to load inputs: %v", err),
		}}
	}

	var (
		mu        sync.Mutex
		processed int
		failures  []attendance.BatchFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for key, inputs := range keys {
		key, inputs := key, inputs
		g.Go(func() error {
			failure := r.reconcileKey(gctx, tn.ID, key, day, inputs)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				failures = append(failures, *failure)
			} else {
				processed++
			}
			return nil
		})
	}

	// Workers never return errors; failures are collected per key.
	_ = g.Wait()

	return processed, failures
}

func (r *BatchRunner) fetchInputs(ctx context.Context, tenantID string, day time.Time) (map[reconcileKey]*keyInputs, error) {
	shifts, err := r.shiftRepo.ListForTenantDate(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	events, err := r.eventRepo.ListForTenantWindow(ctx, tenantID,
		day.Add(-eventFetchPadding), day.Add(24*time.Hour+eventFetchPadding))
	if err != nil {
		return nil, fmt.Errorf("list geofence events: %w", err)
	}
	confirmations, err := r.confirmationRepo.ListForTenantDate(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}

	keys := make(map[reconcileKey]*keyInputs)
	get := func(employeeID, siteID string) *keyInputs {
		k := reconcileKey{employeeID: employeeID, siteID: siteID}
		in, ok := keys[k]
		if !ok {
			in = &keyInputs{}
			keys[k] = in
		}
		return in
	}

	for i := range shifts {
		sh := shifts[i]
		get(sh.EmployeeID, sh.SiteID).shift = &sh
	}
	for _, ev := range events {
		in := get(ev.EmployeeID, ev.SiteID)
		in.events = append(in.events, ev)
	}
	for _, c := range confirmations {
		in := get(c.EmployeeID, c.SiteID)
		in.confirmations = append(in.confirmations, c)
	}

	return keys, nil
}

// reconcileKey computes and persists one key's summary. Returns nil on
// success (including keys that legitimately emit no summary).
func (r *BatchRunner) reconcileKey(ctx context.Context, tenantID string, key reconcileKey, day time.Time, inputs *keyInputs) (failure *attendance.BatchFailure) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic while reconciling key",
				"tenant_id", tenantID, "employee_id", key.employeeID,
				"site_id", key.siteID, "panic", p)
			failure = &attendance.BatchFailure{
				TenantID:   tenantID,
				EmployeeID: key.employeeID,
				SiteID:     key.siteID,
				Reason:     fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	summary, err := r.engine.Reconcile(Input{
		TenantID:      tenantID,
		EmployeeID:    key.employeeID,
		SiteID:        key.siteID,
		Date:          day,
		Events:        inputs.events,
		Shift:         inputs.shift,
		Confirmations: inputs.confirmations,
	})
	if err != nil {
		slog.Error("Reconciliation failed for key",
			"tenant_id", tenantID, "employee_id", key.employeeID,
			"site_id", key.siteID, "error", err)
		return &attendance.BatchFailure{
			TenantID:   tenantID,
			EmployeeID: key.employeeID,
			SiteID:     key.siteID,
			Reason:     err.Error(),
		}
	}
	if summary == nil {
		// Not expected, nothing observed.
		return nil
	}

	if err := r.persistWithRetry(ctx, *summary); err != nil {
		slog.Error("Failed to persist summary after retries",
			"tenant_id", tenantID, "employee_id", key.employeeID,
			"site_id", key.siteID, "error", err)
		return &attendance.BatchFailure{
			TenantID:   tenantID,
			EmployeeID: key.employeeID,
			SiteID:     key.siteID,
			Reason:     fmt.Sprintf("persist: %v", err),
		}
	}

	return nil
}

// persistWithRetry retries the upsert on storage failure with linear
// backoff, bounded at persistAttempts. Only the persistence step is
// retried, never the reconciliation itself.
func (r *BatchRunner) persistWithRetry(ctx context.Context, summary attendance.Summary) error {
	var lastErr error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if _, err := r.summaryRepo.Upsert(ctx, summary); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < persistAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * persistBackoff):
			}
		}
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", persistAttempts, lastErr)
}

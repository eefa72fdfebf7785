package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/tenant"
)

type fakeTenantRepo struct {
	tenants []tenant.Tenant
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, id string) (tenant.Tenant, error) {
	for _, tn := range f.tenants {
		if tn.ID == id {
			return tn, nil
		}
	}
	return tenant.Tenant{}, tenant.ErrTenantNotFound
}

func (f *fakeTenantRepo) ListActive(ctx context.Context) ([]tenant.Tenant, error) {
	return f.tenants, nil
}

type fakeEventRepo struct {
	events []geofence.Event
}

func (f *fakeEventRepo) CreateBatch(ctx context.Context, events []geofence.Event) (int, error) {
	f.events = append(f.events, events...)
	return len(events), nil
}

func (f *fakeEventRepo) ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]geofence.Event, error) {
	var out []geofence.Event
	for _, ev := range f.events {
		if ev.TenantID == tenantID && ev.EmployeeID == employeeID && ev.SiteID == siteID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListForTenantWindow(ctx context.Context, tenantID string, from, to time.Time) ([]geofence.Event, error) {
	var out []geofence.Event
	for _, ev := range f.events {
		if ev.TenantID == tenantID && !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeShiftRepo struct {
	shifts []roster.Shift
	onList func(tenantID string)
}

func (f *fakeShiftRepo) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*roster.Shift, error) {
	for i := range f.shifts {
		s := &f.shifts[i]
		if s.TenantID == tenantID && s.EmployeeID == employeeID && s.SiteID == siteID {
			return s, nil
		}
	}
	return nil, roster.ErrShiftNotFound
}

func (f *fakeShiftRepo) ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]roster.Shift, error) {
	if f.onList != nil {
		f.onList(tenantID)
	}
	var out []roster.Shift
	for _, s := range f.shifts {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeConfirmationRepo struct {
	confirmations []sitephoto.Confirmation
}

func (f *fakeConfirmationRepo) Create(ctx context.Context, c sitephoto.Confirmation) (sitephoto.Confirmation, error) {
	f.confirmations = append(f.confirmations, c)
	return c, nil
}

func (f *fakeConfirmationRepo) ListByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) ([]sitephoto.Confirmation, error) {
	var out []sitephoto.Confirmation
	for _, c := range f.confirmations {
		if c.TenantID == tenantID && c.EmployeeID == employeeID && c.SiteID == siteID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConfirmationRepo) ListForTenantDate(ctx context.Context, tenantID string, date time.Time) ([]sitephoto.Confirmation, error) {
	var out []sitephoto.Confirmation
	for _, c := range f.confirmations {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSummaryRepo struct {
	mu           sync.Mutex
	store        map[string]attendance.Summary
	attempts     int
	failuresLeft int
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{store: make(map[string]attendance.Summary)}
}

func upsertKey(s attendance.Summary) string {
	return fmt.Sprintf("%s|%s|%s|%s", s.TenantID, s.EmployeeID, s.SiteID, s.Date.Format("2006-01-02"))
}

func (f *fakeSummaryRepo) Upsert(ctx context.Context, s attendance.Summary) (attendance.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failuresLeft != 0 {
		if f.failuresLeft > 0 {
			f.failuresLeft--
		}
		return attendance.Summary{}, errors.New("storage unavailable")
	}
	f.store[upsertKey(s)] = s
	return s, nil
}

func (f *fakeSummaryRepo) GetByID(ctx context.Context, id, tenantID string) (attendance.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.store {
		if s.ID == id && s.TenantID == tenantID {
			return s, nil
		}
	}
	return attendance.Summary{}, attendance.ErrSummaryNotFound
}

func (f *fakeSummaryRepo) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*attendance.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.store[fmt.Sprintf("%s|%s|%s|%s", tenantID, employeeID, siteID, date.Format("2006-01-02"))]
	if !ok {
		return nil, nil
	}
	out := s
	return &out, nil
}

func (f *fakeSummaryRepo) List(ctx context.Context, filter attendance.SummaryFilter, tenantID string) ([]attendance.Summary, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Summary
	for _, s := range f.store {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func batchEvent(tenantID, employeeID, siteID string, typ geofence.EventType, ts time.Time) geofence.Event {
	return geofence.Event{
		ID:            fmt.Sprintf("ev-%s-%s-%s", employeeID, typ, ts.Format("150405")),
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		SiteID:        siteID,
		Type:          typ,
		TriggerMethod: geofence.TriggerAutomatic,
		OccurredAt:    ts,
	}
}

func batchShift(tenantID, employeeID, siteID string, date time.Time) roster.Shift {
	return roster.Shift{
		ID:            fmt.Sprintf("shift-%s-%s", tenantID, employeeID),
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		SiteID:        siteID,
		Date:          date,
		ExpectedStart: date.Add(8 * time.Hour),
		ExpectedEnd:   date.Add(17 * time.Hour),
	}
}

func newBatchRunner(tenants *fakeTenantRepo, events *fakeEventRepo, shifts *fakeShiftRepo, confs *fakeConfirmationRepo, summaries *fakeSummaryRepo) *BatchRunner {
	return NewBatchRunner(tenants, events, shifts, confs, summaries, NewEngine(Options{}), 4)
}

func TestBatchRun_ProcessesAllKeys(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{{ID: "t1", Name: "Tenant One"}}}
	shifts := &fakeShiftRepo{shifts: []roster.Shift{
		batchShift("t1", "e1", "s1", date),
		batchShift("t1", "e2", "s1", date),
		batchShift("t1", "e3", "s2", date),
	}}
	events := &fakeEventRepo{events: []geofence.Event{
		batchEvent("t1", "e1", "s1", geofence.EventEnter, date.Add(8*time.Hour)),
		batchEvent("t1", "e1", "s1", geofence.EventExit, date.Add(17*time.Hour)),
		batchEvent("t1", "e2", "s1", geofence.EventEnter, date.Add(9*time.Hour)),
		batchEvent("t1", "e2", "s1", geofence.EventExit, date.Add(17*time.Hour)),
	}}
	summaries := newFakeSummaryRepo()

	runner := newBatchRunner(tenants, events, shifts, &fakeConfirmationRepo{}, summaries)

	result, err := runner.Run(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TenantCount)
	assert.Equal(t, 3, result.ProcessedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Len(t, summaries.store, 3)

	onTime, err := summaries.GetByKey(context.Background(), "t1", "e1", "s1", date)
	require.NoError(t, err)
	require.NotNil(t, onTime)
	assert.Equal(t, attendance.StatusOnTime, onTime.Status)

	late, err := summaries.GetByKey(context.Background(), "t1", "e2", "s1", date)
	require.NoError(t, err)
	require.NotNil(t, late)
	assert.Equal(t, attendance.StatusLate, late.Status)

	noShow, err := summaries.GetByKey(context.Background(), "t1", "e3", "s2", date)
	require.NoError(t, err)
	require.NotNil(t, noShow)
	assert.Equal(t, attendance.StatusNoShow, noShow.Status)
}

func TestBatchRun_FailureDoesNotAbortOtherKeys(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{{ID: "t1", Name: "Tenant One"}}}
	shifts := &fakeShiftRepo{shifts: []roster.Shift{
		batchShift("t1", "e1", "s1", date),
		batchShift("t1", "e2", "s1", date),
	}}
	summaries := newFakeSummaryRepo()
	summaries.failuresLeft = -1 // every upsert fails

	runner := newBatchRunner(tenants, &fakeEventRepo{}, shifts, &fakeConfirmationRepo{}, summaries)

	result, err := runner.Run(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 2, result.FailedCount)
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, "t1", f.TenantID)
		assert.Contains(t, f.Reason, "persist")
	}
}

func TestBatchRun_TransientStorageFailureIsRetried(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{{ID: "t1", Name: "Tenant One"}}}
	shifts := &fakeShiftRepo{shifts: []roster.Shift{batchShift("t1", "e1", "s1", date)}}
	summaries := newFakeSummaryRepo()
	summaries.failuresLeft = 2 // first two attempts fail, third succeeds

	runner := newBatchRunner(tenants, &fakeEventRepo{}, shifts, &fakeConfirmationRepo{}, summaries)

	result, err := runner.Run(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, 3, summaries.attempts)
	assert.Len(t, summaries.store, 1)
}

func TestBatchRun_Idempotent(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{{ID: "t1", Name: "Tenant One"}}}
	shifts := &fakeShiftRepo{shifts: []roster.Shift{batchShift("t1", "e1", "s1", date)}}
	events := &fakeEventRepo{events: []geofence.Event{
		batchEvent("t1", "e1", "s1", geofence.EventEnter, date.Add(8*time.Hour)),
		batchEvent("t1", "e1", "s1", geofence.EventExit, date.Add(17*time.Hour)),
	}}
	summaries := newFakeSummaryRepo()

	runner := newBatchRunner(tenants, events, shifts, &fakeConfirmationRepo{}, summaries)

	_, err := runner.Run(context.Background(), date)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), date)
	require.NoError(t, err)

	// Second run overwrites rather than duplicates.
	assert.Len(t, summaries.store, 1)
}

func TestBatchRun_NightShiftSplitAcrossConsecutiveRuns(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{{ID: "t1", Name: "Tenant One"}}}
	events := &fakeEventRepo{events: []geofence.Event{
		batchEvent("t1", "e1", "s1", geofence.EventEnter, day1.Add(23*time.Hour)),
		batchEvent("t1", "e1", "s1", geofence.EventExit, day2.Add(1*time.Hour)),
	}}
	summaries := newFakeSummaryRepo()

	runner := newBatchRunner(tenants, events, &fakeShiftRepo{}, &fakeConfirmationRepo{}, summaries)

	_, err := runner.Run(context.Background(), day1)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), day2)
	require.NoError(t, err)

	// Each date is credited its own side of the midnight boundary.
	first, err := summaries.GetByKey(context.Background(), "t1", "e1", "s1", day1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 60, first.ActualTimeOnSite.Minutes())
	assert.False(t, first.OpenEnded)
	assert.Equal(t, attendance.StatusOnTime, first.Status)

	second, err := summaries.GetByKey(context.Background(), "t1", "e1", "s1", day2)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 60, second.ActualTimeOnSite.Minutes())
	assert.Equal(t, attendance.StatusOnTime, second.Status)
	require.NotNil(t, second.ActualDeparture)
	assert.Equal(t, day2.Add(1*time.Hour), *second.ActualDeparture)
}

func TestBatchRun_CancelledBetweenTenants(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{
		{ID: "t1", Name: "Tenant One"},
		{ID: "t2", Name: "Tenant Two"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	shifts := &fakeShiftRepo{
		shifts: []roster.Shift{
			batchShift("t1", "e1", "s1", date),
			batchShift("t2", "e2", "s1", date),
		},
		onList: func(tenantID string) {
			if tenantID == "t1" {
				cancel()
			}
		},
	}
	summaries := newFakeSummaryRepo()

	runner := newBatchRunner(tenants, &fakeEventRepo{}, shifts, &fakeConfirmationRepo{}, summaries)

	result, err := runner.Run(ctx, date)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)

	// Tenant two was never reached.
	skipped, getErr := summaries.GetByKey(context.Background(), "t2", "e2", "s1", date)
	require.NoError(t, getErr)
	assert.Nil(t, skipped)
	assert.LessOrEqual(t, result.ProcessedCount, 1)
}

func TestBatchRun_MultipleTenantsIsolated(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tenants := &fakeTenantRepo{tenants: []tenant.Tenant{
		{ID: "t1", Name: "Tenant One"},
		{ID: "t2", Name: "Tenant Two"},
	}}
	shifts := &fakeShiftRepo{shifts: []roster.Shift{
		batchShift("t1", "e1", "s1", date),
		batchShift("t2", "e1", "s1", date),
	}}
	events := &fakeEventRepo{events: []geofence.Event{
		batchEvent("t1", "e1", "s1", geofence.EventEnter, date.Add(8*time.Hour)),
		batchEvent("t1", "e1", "s1", geofence.EventExit, date.Add(17*time.Hour)),
	}}
	summaries := newFakeSummaryRepo()

	runner := newBatchRunner(tenants, events, shifts, &fakeConfirmationRepo{}, summaries)

	result, err := runner.Run(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TenantCount)
	assert.Equal(t, 2, result.ProcessedCount)

	t1, err := summaries.GetByKey(context.Background(), "t1", "e1", "s1", date)
	require.NoError(t, err)
	require.NotNil(t, t1)
	assert.Equal(t, attendance.StatusOnTime, t1.Status)

	// Same employee key under another tenant sees none of tenant one's events.
	t2, err := summaries.GetByKey(context.Background(), "t2", "e1", "s1", date)
	require.NoError(t, err)
	require.NotNil(t, t2)
	assert.Equal(t, attendance.StatusNoShow, t2.Status)
}

package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
)

const (
	testTenant   = "tenant-1"
	testEmployee = "emp-1"
	testSite     = "site-1"
)

var testDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDate.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func atSec(hour, minute, sec int) time.Time {
	return at(hour, minute).Add(time.Duration(sec) * time.Second)
}

func event(typ geofence.EventType, ts time.Time) geofence.Event {
	return geofence.Event{
		ID:            "ev-" + ts.Format("150405"),
		TenantID:      testTenant,
		EmployeeID:    testEmployee,
		SiteID:        testSite,
		Type:          typ,
		TriggerMethod: geofence.TriggerAutomatic,
		OccurredAt:    ts,
	}
}

func shift(startHour, startMin, endHour, endMin int) *roster.Shift {
	return &roster.Shift{
		ID:            "shift-1",
		TenantID:      testTenant,
		EmployeeID:    testEmployee,
		SiteID:        testSite,
		Date:          testDate,
		ExpectedStart: at(startHour, startMin),
		ExpectedEnd:   at(endHour, endMin),
	}
}

func confirmation(ts time.Time) sitephoto.Confirmation {
	return sitephoto.Confirmation{
		ID:         "conf-1",
		TenantID:   testTenant,
		EmployeeID: testEmployee,
		SiteID:     testSite,
		Date:       testDate,
		CapturedAt: ts,
		HasImage:   true,
	}
}

func input(events []geofence.Event, sh *roster.Shift, confs []sitephoto.Confirmation) Input {
	return Input{
		TenantID:      testTenant,
		EmployeeID:    testEmployee,
		SiteID:        testSite,
		Date:          testDate,
		Events:        events,
		Shift:         sh,
		Confirmations: confs,
	}
}

func TestReconcile_FullDayWithLunchBreak(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(12, 0)),
		event(geofence.EventEnter, at(12, 30)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.False(t, s.IsLate)
	assert.False(t, s.IsEarlyDeparture)
	assert.Equal(t, 8.5, s.ActualTimeOnSite.Hours())
	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, at(8, 0), *s.ActualArrival)
	require.NotNil(t, s.ActualDeparture)
	assert.Equal(t, at(17, 0), *s.ActualDeparture)
	require.NotNil(t, s.VarianceHours)
	assert.Equal(t, -0.5, *s.VarianceHours) // 8.5 on site against a 9h shift
	assert.False(t, s.OpenEnded)
}

func TestReconcile_LateArrivalNoExit_OpenEnded(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 20)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusLate, s.Status)
	assert.True(t, s.IsLate)
	assert.Nil(t, s.ActualDeparture)
	assert.True(t, s.OpenEnded)

	// Provisional hours run from 08:20 to the 23:59:59 cutoff.
	assert.Equal(t, 940, s.ActualTimeOnSite.Minutes())
}

func TestReconcile_NoShow(t *testing.T) {
	engine := NewEngine(Options{})

	s, err := engine.Reconcile(input(nil, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusNoShow, s.Status)
	assert.Nil(t, s.ActualArrival)
	assert.Nil(t, s.ActualDeparture)
	assert.True(t, s.ActualTimeOnSite.IsZero())
	assert.Nil(t, s.VarianceHours)
	require.NotNil(t, s.ExpectedStart)
	assert.Equal(t, at(8, 0), *s.ExpectedStart)
}

func TestReconcile_ScheduledWithManualConfirmationOnly(t *testing.T) {
	engine := NewEngine(Options{})

	s, err := engine.Reconcile(input(nil, shift(8, 0, 17, 0), []sitephoto.Confirmation{confirmation(at(9, 0))}))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusManuallyConfirmedOnly, s.Status)
	assert.True(t, s.HasManualConfirmation)
}

func TestReconcile_UnscheduledManualConfirmationOnly(t *testing.T) {
	engine := NewEngine(Options{})

	s, err := engine.Reconcile(input(nil, nil, []sitephoto.Confirmation{confirmation(at(9, 0))}))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusManuallyConfirmedOnly, s.Status)
	assert.Nil(t, s.ExpectedStart)
	assert.Nil(t, s.ExpectedEnd)
	assert.Nil(t, s.VarianceHours)
}

func TestReconcile_NothingExpectedNothingObserved_NoSummary(t *testing.T) {
	engine := NewEngine(Options{})

	s, err := engine.Reconcile(input(nil, nil, nil))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestReconcile_UnscheduledButObserved(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(10, 0)),
		event(geofence.EventExit, at(14, 0)),
	}

	s, err := engine.Reconcile(input(events, nil, nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Nil(t, s.ExpectedStart)
	assert.Nil(t, s.VarianceHours)
	assert.Equal(t, 4.0, s.ActualTimeOnSite.Hours())
	assert.False(t, s.IsLate)
	assert.False(t, s.IsEarlyDeparture)
}

func TestReconcile_DebounceDiscardsJitterPair(t *testing.T) {
	engine := NewEngine(Options{})

	// A 90-second blip at the boundary before the real arrival.
	events := []geofence.Event{
		event(geofence.EventEnter, atSec(7, 55, 0)),
		event(geofence.EventExit, atSec(7, 56, 30)),
		event(geofence.EventEnter, at(8, 5)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, at(8, 5), *s.ActualArrival)
	assert.Equal(t, attendance.StatusOnTime, s.Status)
}

func TestReconcile_DebounceBoundary(t *testing.T) {
	engine := NewEngine(Options{})

	// Exactly at the 2-minute window: still jitter.
	jitterOnly := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(8, 2)),
	}
	s, err := engine.Reconcile(input(jitterOnly, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, attendance.StatusNoShow, s.Status)

	// One second past the window: a real (if short) visit.
	shortVisit := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, atSec(8, 2, 1)),
	}
	s, err = engine.Reconcile(input(shortVisit, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, at(8, 0), *s.ActualArrival)
}

func TestReconcile_GracePeriodBoundary(t *testing.T) {
	engine := NewEngine(Options{})

	// Arrival exactly at expectedStart+grace is not late.
	onBoundary := []geofence.Event{
		event(geofence.EventEnter, at(8, 10)),
		event(geofence.EventExit, at(17, 0)),
	}
	s, err := engine.Reconcile(input(onBoundary, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.False(t, s.IsLate)

	// One second past the grace period is late.
	pastBoundary := []geofence.Event{
		event(geofence.EventEnter, atSec(8, 10, 1)),
		event(geofence.EventExit, at(17, 0)),
	}
	s, err = engine.Reconcile(input(pastBoundary, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, s.Status)
	assert.True(t, s.IsLate)
}

func TestReconcile_EarlyDeparture(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(15, 30)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusEarlyDeparture, s.Status)
	assert.True(t, s.IsEarlyDeparture)
	assert.False(t, s.IsLate)
}

func TestReconcile_LateAndEarlyDeparture_BothFlagsLatePrimary(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(9, 0)),
		event(geofence.EventExit, at(15, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, s.Status)
	assert.True(t, s.IsLate)
	assert.True(t, s.IsEarlyDeparture)
}

func TestReconcile_MidnightSpanningPairClippedToDate(t *testing.T) {
	engine := NewEngine(Options{})

	// Night shift: enters 23:00, the matching exit lands on the next date.
	events := []geofence.Event{
		event(geofence.EventEnter, at(23, 0)),
		event(geofence.EventExit, testDate.Add(25*time.Hour)), // 01:00 next day
	}

	s, err := engine.Reconcile(input(events, nil, nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	// Only the in-date hour counts toward this date.
	assert.Equal(t, 60, s.ActualTimeOnSite.Minutes())
	require.NotNil(t, s.ActualDeparture)
	assert.Equal(t, testDate.Add(25*time.Hour), *s.ActualDeparture)
}

func TestReconcile_NightShiftMorningPortionCreditedToSecondDate(t *testing.T) {
	engine := NewEngine(Options{})

	// The second date of a night shift sees the enter on the previous
	// evening and the exit at 01:00; the hour after midnight belongs here.
	events := []geofence.Event{
		event(geofence.EventEnter, testDate.Add(-1*time.Hour)), // 23:00 previous day
		event(geofence.EventExit, at(1, 0)),
	}

	s, err := engine.Reconcile(input(events, nil, nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, 60, s.ActualTimeOnSite.Minutes())
	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.False(t, s.OpenEnded)
	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, testDate.Add(-1*time.Hour), *s.ActualArrival)
	require.NotNil(t, s.ActualDeparture)
	assert.Equal(t, at(1, 0), *s.ActualDeparture)
}

func TestReconcile_AdjacentDayStaysDoNotDriveTheDate(t *testing.T) {
	engine := NewEngine(Options{})

	// A full previous-day visit rides along in the widened fetch; only the
	// stay crossing into this date counts.
	events := []geofence.Event{
		event(geofence.EventEnter, testDate.Add(-16*time.Hour)), // 08:00 previous day
		event(geofence.EventExit, testDate.Add(-7*time.Hour)),   // 17:00 previous day
		event(geofence.EventEnter, testDate.Add(-1*time.Hour)),  // 23:00 previous day
		event(geofence.EventExit, at(1, 0)),
	}

	s, err := engine.Reconcile(input(events, nil, nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, 60, s.ActualTimeOnSite.Minutes())
	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, testDate.Add(-1*time.Hour), *s.ActualArrival)
}

func TestReconcile_AdjacentDayOnlyEvents(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, testDate.Add(-16*time.Hour)),
		event(geofence.EventExit, testDate.Add(-7*time.Hour)),
		event(geofence.EventEnter, testDate.Add(34*time.Hour)), // 10:00 next day, still open
	}

	// Scheduled but only neighboring-day signal: a no-show on this date.
	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, attendance.StatusNoShow, s.Status)
	assert.Nil(t, s.ActualArrival)
	assert.False(t, s.OpenEnded)

	// Unscheduled with no in-date signal: no summary at all.
	s, err = engine.Reconcile(input(events, nil, nil))
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestReconcile_OrphanExitOnAdjacentDaySkipped(t *testing.T) {
	engine := NewEngine(Options{})

	// An exit on the previous day whose enter predates the fetch window is
	// the previous date's anomaly, not this one's.
	events := []geofence.Event{
		event(geofence.EventExit, testDate.Add(-2*time.Hour)), // 22:00 previous day
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.Equal(t, 9.0, s.ActualTimeOnSite.Hours())
}

func TestReconcile_OutOfOrderEventsAreSorted(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventExit, at(17, 0)),
		event(geofence.EventEnter, at(8, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.Equal(t, 9.0, s.ActualTimeOnSite.Hours())
}

func TestReconcile_LeadingExit_IncompleteData(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventExit, at(9, 0)),
		event(geofence.EventEnter, at(10, 0)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusIncompleteData, s.Status)
	require.NotNil(t, s.AnomalyReason)
	assert.Contains(t, *s.AnomalyReason, "without a matching enter")
}

func TestReconcile_DuplicateExitWithinDebounceTolerated(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(17, 0)),
		event(geofence.EventExit, at(17, 1)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.Equal(t, 9.0, s.ActualTimeOnSite.Hours())
}

func TestReconcile_DuplicateEnterTolerated(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventEnter, at(8, 1)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, at(8, 0), *s.ActualArrival)
	assert.Equal(t, 9.0, s.ActualTimeOnSite.Hours())
}

func TestReconcile_MismatchedKeys(t *testing.T) {
	engine := NewEngine(Options{})

	ev := event(geofence.EventEnter, at(8, 0))
	ev.EmployeeID = "someone-else"

	_, err := engine.Reconcile(input([]geofence.Event{ev}, nil, nil))
	assert.ErrorIs(t, err, attendance.ErrMismatchedKeys)

	sh := shift(8, 0, 17, 0)
	sh.SiteID = "other-site"
	_, err = engine.Reconcile(input(nil, sh, nil))
	assert.ErrorIs(t, err, attendance.ErrMismatchedKeys)
}

func TestReconcile_CustomOptions(t *testing.T) {
	engine := NewEngine(Options{
		DebounceWindow: 5 * time.Minute,
		GracePeriod:    30 * time.Minute,
	})

	// A 4-minute pair is jitter under the widened window.
	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(8, 4)),
		event(geofence.EventEnter, at(8, 25)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), nil))
	require.NoError(t, err)

	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, at(8, 25), *s.ActualArrival)
	// 25 minutes past start is inside the 30-minute grace period.
	assert.Equal(t, attendance.StatusOnTime, s.Status)
}

func TestReconcile_ManualConfirmationAlongsideGPS(t *testing.T) {
	engine := NewEngine(Options{})

	events := []geofence.Event{
		event(geofence.EventEnter, at(8, 0)),
		event(geofence.EventExit, at(17, 0)),
	}

	s, err := engine.Reconcile(input(events, shift(8, 0, 17, 0), []sitephoto.Confirmation{confirmation(at(8, 5))}))
	require.NoError(t, err)

	// GPS drives the classification; the confirmation is recorded as a flag.
	assert.Equal(t, attendance.StatusOnTime, s.Status)
	assert.True(t, s.HasManualConfirmation)
}

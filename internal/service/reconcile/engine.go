package reconcile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/attendance"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/roster"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/sitephoto"
)

const (
	DefaultDebounceWindow = 2 * time.Minute
	DefaultGracePeriod    = 10 * time.Minute
)

// Options tunes the reconciliation rules. Zero values fall back to the
// defaults.
type Options struct {
	// DebounceWindow is the maximum length of an enter/exit pair that is
	// treated as GPS jitter at the geofence boundary rather than a visit.
	DebounceWindow time.Duration

	// GracePeriod is the allowed lateness or early departure before the
	// day is flagged.
	GracePeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = DefaultDebounceWindow
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	return o
}

// Input is one employee+site+date key with its already-fetched signals:
// geofence events, the rostered shift (nil when unscheduled), and manual
// photo confirmations. Events may include the adjacent days so that a stay
// spanning midnight pairs up; only the in-date portion is credited.
type Input struct {
	TenantID   string
	EmployeeID string
	SiteID     string
	Date       time.Time // any time on the target day, UTC

	Events        []geofence.Event
	Shift         *roster.Shift
	Confirmations []sitephoto.Confirmation
}

// Engine reconciles roster, GPS and manual-confirmation signals into one
// attendance summary per key. It is pure and synchronous: all inputs are
// in memory and no call blocks.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// interval is one closed (or day-end-truncated) stay inside the geofence.
type interval struct {
	enter time.Time
	exit  time.Time
}

// Reconcile produces the summary for one key, or (nil, nil) when the
// employee was neither expected nor observed that day. Malformed upstream
// data degrades to an incomplete_data summary; the only error is
// attendance.ErrMismatchedKeys for inputs that disagree on their key.
func (e *Engine) Reconcile(in Input) (*attendance.Summary, error) {
	if err := validateKeys(in); err != nil {
		return nil, err
	}

	dayStart := in.Date.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	hasManual := len(in.Confirmations) > 0

	if in.Shift == nil && len(in.Events) == 0 && !hasManual {
		// Not expected, nothing happened: no summary for this key.
		return nil, nil
	}

	s := &attendance.Summary{
		ID:                    uuid.NewString(),
		TenantID:              in.TenantID,
		EmployeeID:            in.EmployeeID,
		SiteID:                in.SiteID,
		Date:                  dayStart,
		HasManualConfirmation: hasManual,
	}
	if in.Shift != nil {
		start := in.Shift.ExpectedStart.UTC()
		end := in.Shift.ExpectedEnd.UTC()
		s.ExpectedStart = &start
		s.ExpectedEnd = &end
	}

	intervals, openEnded, anomaly := e.pairEvents(in.Events, dayStart, dayEnd)
	if anomaly != "" {
		s.Status = attendance.StatusIncompleteData
		s.AnomalyReason = &anomaly
		return s, nil
	}

	intervals = intersectingDay(intervals, dayStart, dayEnd)

	if len(intervals) == 0 {
		// No usable GPS signal on this date: jitter-only and
		// adjacent-day-only event sets classify the same way as an empty
		// one.
		switch {
		case hasManual:
			s.Status = attendance.StatusManuallyConfirmedOnly
		case in.Shift != nil:
			s.Status = attendance.StatusNoShow
		default:
			return nil, nil
		}
		return s, nil
	}

	arrival := intervals[0].enter
	s.ActualArrival = &arrival
	s.OpenEnded = openEnded
	if !openEnded {
		departure := intervals[len(intervals)-1].exit
		s.ActualDeparture = &departure
	}

	tos, err := timeOnSite(intervals, dayStart, dayEnd)
	if err != nil {
		reason := fmt.Sprintf("inconsistent event intervals: %v", err)
		s.ActualArrival = nil
		s.ActualDeparture = nil
		s.OpenEnded = false
		s.Status = attendance.StatusIncompleteData
		s.AnomalyReason = &reason
		return s, nil
	}
	s.ActualTimeOnSite = tos

	e.classify(s, in.Shift)
	return s, nil
}

func validateKeys(in Input) error {
	if in.Shift != nil {
		if in.Shift.TenantID != in.TenantID || in.Shift.EmployeeID != in.EmployeeID || in.Shift.SiteID != in.SiteID {
			return fmt.Errorf("%w: shift %s/%s/%s does not belong to %s/%s/%s",
				attendance.ErrMismatchedKeys,
				in.Shift.TenantID, in.Shift.EmployeeID, in.Shift.SiteID,
				in.TenantID, in.EmployeeID, in.SiteID)
		}
	}
	for _, ev := range in.Events {
		if ev.TenantID != in.TenantID || ev.EmployeeID != in.EmployeeID || ev.SiteID != in.SiteID {
			return fmt.Errorf("%w: event %s does not belong to %s/%s/%s",
				attendance.ErrMismatchedKeys, ev.ID, in.TenantID, in.EmployeeID, in.SiteID)
		}
	}
	for _, c := range in.Confirmations {
		if c.TenantID != in.TenantID || c.EmployeeID != in.EmployeeID || c.SiteID != in.SiteID {
			return fmt.Errorf("%w: confirmation %s does not belong to %s/%s/%s",
				attendance.ErrMismatchedKeys, c.ID, in.TenantID, in.EmployeeID, in.SiteID)
		}
	}
	return nil
}

// pairEvents walks the events in timestamp order and pairs enters with
// exits. The slice may include the adjacent days; orphan events outside
// [dayStart, dayEnd) belong to a neighboring date's run and are skipped
// rather than reported. Pairs no longer than the de-bounce window are
// discarded as boundary jitter. A trailing unmatched enter truncates at the
// date's 23:59:59 cutoff and marks the day open-ended. Irrecoverable
// orderings inside the date are reported as an anomaly string, not
// corrected.
func (e *Engine) pairEvents(events []geofence.Event, dayStart, dayEnd time.Time) ([]interval, bool, string) {
	if len(events) == 0 {
		return nil, false, ""
	}

	cutoff := dayEnd.Add(-time.Second)

	sorted := make([]geofence.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	var (
		intervals []interval
		openEnter *time.Time
	)

	for _, ev := range sorted {
		ts := ev.OccurredAt.UTC()

		switch ev.Type {
		case geofence.EventEnter:
			if openEnter == nil {
				openEnter = &ts
			}
			// A second enter while already inside is a near-duplicate;
			// the earlier one stands.

		case geofence.EventExit:
			if openEnter == nil {
				if n := len(intervals); n > 0 && ts.Sub(intervals[n-1].exit) <= e.opts.DebounceWindow {
					// Duplicate exit right after the one that closed the
					// last interval.
					continue
				}
				if ts.Before(dayStart) || !ts.Before(dayEnd) {
					// Orphan exit on an adjacent day; its enter predates
					// the fetch window and that date's run reports it.
					continue
				}
				return nil, false, fmt.Sprintf("exit event at %s without a matching enter", ts.Format(time.RFC3339))
			}
			if ts.Sub(*openEnter) <= e.opts.DebounceWindow {
				// Jitter pair at the geofence boundary.
				openEnter = nil
				continue
			}
			intervals = append(intervals, interval{enter: *openEnter, exit: ts})
			openEnter = nil

		default:
			return nil, false, fmt.Sprintf("unknown event type %q", ev.Type)
		}
	}

	if openEnter != nil {
		if openEnter.After(cutoff) {
			// Entered after this date ended; the next date's run picks
			// it up.
			return intervals, false, ""
		}
		// Still inside the geofence as of processing time; provisional
		// hours run to the cutoff.
		intervals = append(intervals, interval{enter: *openEnter, exit: cutoff})
		return intervals, true, ""
	}

	return intervals, false, ""
}

// intersectingDay keeps only the intervals that overlap [dayStart, dayEnd);
// stays that lie wholly on an adjacent day are that date's to account for.
func intersectingDay(intervals []interval, dayStart, dayEnd time.Time) []interval {
	var out []interval
	for _, iv := range intervals {
		if iv.exit.After(dayStart) && iv.enter.Before(dayEnd) {
			out = append(out, iv)
		}
	}
	return out
}

// timeOnSite sums the portions of the intervals that fall inside
// [dayStart, dayEnd); a pair spanning midnight contributes only its
// in-date part, and an interval wholly outside contributes nothing.
func timeOnSite(intervals []interval, dayStart, dayEnd time.Time) (attendance.TimeOnSite, error) {
	var total time.Duration
	for _, iv := range intervals {
		start := iv.enter
		if start.Before(dayStart) {
			start = dayStart
		}
		end := iv.exit
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !end.After(start) {
			continue
		}
		total += end.Sub(start)
	}
	return attendance.TimeOnSiteFromDuration(total)
}

// classify applies the status ladder to a summary that has at least one
// usable interval.
func (e *Engine) classify(s *attendance.Summary, shift *roster.Shift) {
	if shift == nil {
		// Unscheduled but observed: no expectation to vary against.
		s.Status = attendance.StatusOnTime
		return
	}

	if s.ActualDeparture != nil && s.ActualArrival != nil && s.ActualDeparture.Before(*s.ActualArrival) {
		reason := fmt.Sprintf("departure %s precedes arrival %s",
			s.ActualDeparture.Format(time.RFC3339), s.ActualArrival.Format(time.RFC3339))
		s.Status = attendance.StatusIncompleteData
		s.AnomalyReason = &reason
		return
	}

	variance := round2(s.ActualTimeOnSite.Hours() - shift.DurationHours())
	s.VarianceHours = &variance

	s.IsLate = s.ActualArrival.After(shift.ExpectedStart.Add(e.opts.GracePeriod))
	s.IsEarlyDeparture = s.ActualDeparture != nil &&
		s.ActualDeparture.Before(shift.ExpectedEnd.Add(-e.opts.GracePeriod))

	switch {
	case s.IsLate:
		s.Status = attendance.StatusLate
	case s.IsEarlyDeparture:
		s.Status = attendance.StatusEarlyDeparture
	default:
		s.Status = attendance.StatusOnTime
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

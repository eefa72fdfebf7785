package attendance

import (
	"math"
	"time"
)

// TimeOnSite is a non-negative on-site duration with whole-minute
// precision. Sub-minute remainders are rounded half away from zero when
// constructing from a time.Duration.
type TimeOnSite struct {
	minutes int
}

// ZeroTimeOnSite is the zero duration, used for days with no credited
// on-site intervals.
func ZeroTimeOnSite() TimeOnSite {
	return TimeOnSite{}
}

// NewTimeOnSite builds a TimeOnSite from a whole number of minutes.
func NewTimeOnSite(minutes int) (TimeOnSite, error) {
	if minutes < 0 {
		return TimeOnSite{}, ErrNegativeDuration
	}
	return TimeOnSite{minutes: minutes}, nil
}

// TimeOnSiteFromDuration converts an elapsed duration to whole minutes.
func TimeOnSiteFromDuration(d time.Duration) (TimeOnSite, error) {
	if d < 0 {
		return TimeOnSite{}, ErrNegativeDuration
	}
	return TimeOnSite{minutes: int(math.Round(d.Minutes()))}, nil
}

func (t TimeOnSite) Minutes() int {
	return t.minutes
}

// Hours reports the duration in decimal hours rounded to two places,
// half away from zero. 90 minutes reads as 1.5, 50 minutes as 0.83.
func (t TimeOnSite) Hours() float64 {
	return math.Round(float64(t.minutes)/60*100) / 100
}

func (t TimeOnSite) IsZero() bool {
	return t.minutes == 0
}

func (t TimeOnSite) Less(other TimeOnSite) bool {
	return t.minutes < other.minutes
}

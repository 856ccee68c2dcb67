package valueobject

import (
	"errors"
	"fmt"
	"time"
)

// TimeRange is a value object representing a half-open rental window
// [start, end). It is immutable and always normalized to UTC.
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange creates a TimeRange. End must be strictly after start.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("time range bounds cannot be zero")
	}
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("time range end %s must be after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return TimeRange{start: start, end: end}, nil
}

// MustNewTimeRange creates a TimeRange, panics on error
func MustNewTimeRange(start, end time.Time) TimeRange {
	tr, err := NewTimeRange(start, end)
	if err != nil {
		panic(err)
	}
	return tr
}

// Start returns the inclusive start of the window
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End returns the exclusive end of the window
func (tr TimeRange) End() time.Time {
	return tr.end
}

// Duration returns the length of the window
func (tr TimeRange) Duration() time.Duration {
	return tr.end.Sub(tr.start)
}

// IsZero returns true for the zero-value range
func (tr TimeRange) IsZero() bool {
	return tr.start.IsZero() && tr.end.IsZero()
}

// BillableHours returns the window length in whole hours, rounding any
// started hour up. Kitchen time is billed per hour.
func (tr TimeRange) BillableHours() int64 {
	d := tr.Duration()
	hours := int64(d / time.Hour)
	if d%time.Hour > 0 {
		hours++
	}
	return hours
}

// BillableDays returns the window length in whole days, rounding any
// started day up. Storage and equipment are billed per day.
func (tr TimeRange) BillableDays() int64 {
	d := tr.Duration()
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Overlaps returns true if the two half-open windows intersect.
// Back-to-back windows (one ends exactly when the other starts) do not overlap.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.start.Before(other.end) && other.start.Before(tr.end)
}

// Contains returns true if t falls inside the half-open window
func (tr TimeRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(tr.start) && t.Before(tr.end)
}

// Equals returns true if both ranges have identical bounds
func (tr TimeRange) Equals(other TimeRange) bool {
	return tr.start.Equal(other.start) && tr.end.Equal(other.end)
}

// String returns a compact representation of the window
func (tr TimeRange) String() string {
	return fmt.Sprintf("%s..%s", tr.start.Format(time.RFC3339), tr.end.Format(time.RFC3339))
}

package entity

import "time"

// Interval is a half-open range [Start, End) of absolute instants.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval truncates both instants to millisecond resolution and stores them in UTC.
func NewInterval(start, end time.Time) Interval {
	return Interval{
		Start: start.UTC().Truncate(time.Millisecond),
		End:   end.UTC().Truncate(time.Millisecond),
	}
}

// IsEmpty reports whether the interval is degenerate (End <= Start).
func (i Interval) IsEmpty() bool {
	return !i.End.After(i.Start)
}

func (i Interval) Duration() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether the two intervals share at least one instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

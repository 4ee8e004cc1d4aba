package domain

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share any instant. Touching endpoints do
// not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i, o)
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) UTC() Interval {
	return Interval{Start: i.Start.UTC(), End: i.End.UTC()}
}

func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

func ShiftByDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}

// AddMonthsClamped advances t by months calendar months. When the target
// month is shorter than t's day of month the result lands on its last day.
func AddMonthsClamped(t time.Time, months int) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// AddOccurrence returns the start of the n-th (0-indexed) step of pattern
// counted from base.
func AddOccurrence(base time.Time, pattern Pattern, n int) time.Time {
	switch pattern {
	case PatternWeekly:
		return ShiftByDays(base, 7*n)
	case PatternBiweekly:
		return ShiftByDays(base, 14*n)
	case PatternMonthly:
		return AddMonthsClamped(base, n)
	default:
		return base.UTC()
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

type Pattern string

const (
	PatternWeekly   Pattern = "weekly"
	PatternBiweekly Pattern = "biweekly"
	PatternMonthly  Pattern = "monthly"
)

func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(strings.ToLower(strings.TrimSpace(s))); p {
	case PatternWeekly, PatternBiweekly, PatternMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported recurrence pattern %q", s)
	}
}

// RecurrenceBase is the first occurrence of a series plus how to repeat it.
type RecurrenceBase struct {
	Start   time.Time
	End     time.Time
	Pattern Pattern
	Count   int
}

// Occurrence is one generated, not yet persisted, instance of a series.
type Occurrence struct {
	Index int
	Start time.Time
	End   time.Time
}

// OccurrenceKeyLayout formats occurrence keys. Keys identify occurrences
// before they have an id.
const OccurrenceKeyLayout = time.RFC3339

func (o Occurrence) Key() string {
	return o.Start.UTC().Format(OccurrenceKeyLayout)
}

func (o Occurrence) Interval() Interval {
	return Interval{Start: o.Start, End: o.End}
}

// OccurrenceIterator lazily walks a finite series. Build a new one from the
// same base to restart; the sequence is deterministic.
type OccurrenceIterator struct {
	next      rrule.Next
	remainder time.Duration
	duration  time.Duration
	count     int
	index     int
}

// Occurrences prepares an iterator over exactly base.Count occurrences.
func Occurrences(base RecurrenceBase) (*OccurrenceIterator, error) {
	start := base.Start.UTC()
	end := base.End.UTC()
	if !end.After(start) {
		return nil, errors.New("invalid duration")
	}
	if base.Count < 1 {
		return nil, errors.New("count must be at least 1")
	}

	opt := rrule.ROption{
		Count:   base.Count,
		Dtstart: start.Truncate(time.Second),
	}
	switch base.Pattern {
	case PatternWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 1
	case PatternBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case PatternMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Interval = 1
		day := start.Day()
		if day > 28 {
			// The first of {day, last day} in each month is the clamped day.
			opt.Bymonthday = []int{day, -1}
			opt.Bysetpos = []int{1}
		} else {
			opt.Bymonthday = []int{day}
		}
	default:
		return nil, fmt.Errorf("unsupported recurrence pattern %q", base.Pattern)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	return &OccurrenceIterator{
		next:      rule.Iterator(),
		remainder: start.Sub(start.Truncate(time.Second)),
		duration:  end.Sub(start),
		count:     base.Count,
	}, nil
}

func (it *OccurrenceIterator) Next() (Occurrence, bool) {
	if it.index >= it.count {
		return Occurrence{}, false
	}
	t, ok := it.next()
	if !ok {
		return Occurrence{}, false
	}
	start := t.UTC().Add(it.remainder)
	o := Occurrence{
		Index: it.index,
		Start: start,
		End:   start.Add(it.duration),
	}
	it.index++
	return o, true
}

// Expand returns every occurrence of base ordered by start.
func Expand(base RecurrenceBase) ([]Occurrence, error) {
	it, err := Occurrences(base)
	if err != nil {
		return nil, err
	}
	out := make([]Occurrence, 0, base.Count)
	for {
		o, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, o)
	}
	if len(out) != base.Count {
		return nil, fmt.Errorf("recurrence produced %d occurrences, want %d", len(out), base.Count)
	}
	return out, nil
}

// Span is the interval covering every occurrence.
func Span(occs []Occurrence) Interval {
	if len(occs) == 0 {
		return Interval{}
	}
	span := occs[0].Interval()
	for _, o := range occs[1:] {
		if o.Start.Before(span.Start) {
			span.Start = o.Start
		}
		if o.End.After(span.End) {
			span.End = o.End
		}
	}
	return span
}

package sales

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used on the command line and in reports.
const DateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidDateRange, r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD bounds.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidDateRange, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidDateRange, err)
	}
	return NewDateRange(s, e)
}

// Contains reports whether the calendar date of t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterEvents returns the events whose date falls in r, in input order.
func FilterEvents(events []Event, r DateRange) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if r.Contains(e.EventDate) {
			out = append(out, e)
		}
	}
	return out
}

// FilterFacts returns the facts whose event date falls in r, in input order.
func FilterFacts(facts []ItemFact, r DateRange) []ItemFact {
	out := make([]ItemFact, 0, len(facts))
	for _, f := range facts {
		if r.Contains(f.EventDate) {
			out = append(out, f)
		}
	}
	return out
}

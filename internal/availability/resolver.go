package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

// Closed-day reasons that do not come from an exception.
const (
	ReasonInactive     = "schedule inactive"
	ReasonNotAccepting = "not accepting bookings"
	ReasonNoHours      = "no working hours"
)

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start schedule.Date
	End   schedule.Date
}

// Days returns the number of dates in r.
func (r DateRange) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Interval is a half-open [Start, End) span of local wall-clock time.
type Interval struct {
	Start schedule.Clock `json:"start_time"`
	End   schedule.Clock `json:"end_time"`
}

func (i Interval) Minutes() int { return int(i.End - i.Start) }

// DayAvailability holds the bookable intervals of a single date.
type DayAvailability struct {
	Date         schedule.Date  `json:"date"`
	Location     *time.Location `json:"-"`
	Intervals    []Interval     `json:"intervals"`
	ClosedReason string         `json:"closed_reason,omitempty"`
}

// Resolve computes the open intervals of every date in r, evaluated in the
// schedule's time zone. Dates beyond now+MaxBookingAdvance are omitted.
// When svc is non-nil, intervals shorter than its effective block are dropped.
func Resolve(s *schedule.Schedule, r DateRange, now time.Time, svc *schedule.ServiceDuration) ([]DayAvailability, error) {
	if s == nil {
		return nil, &ComputationError{Op: "resolve", Err: errors.New("schedule is nil")}
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return nil, fmt.Errorf("%w: both dates are required", ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, r.Start, r.End)
	}

	loc, err := s.Location()
	if err != nil {
		return nil, &ComputationError{Op: "load time zone " + s.Timezone, Err: err}
	}

	block := 0
	if svc != nil {
		if err := svc.Validate(); err != nil {
			return nil, &ComputationError{Op: "service " + svc.ServiceID, Err: err}
		}
		block = svc.EffectiveBlock()
	}

	earliest := ceilMinute(now.Add(schedule.Minutes(s.MinBookingNotice)).In(loc))
	latest := now.Add(schedule.Minutes(s.MaxBookingAdvance)).In(loc).Truncate(time.Minute)
	b := bounds{
		earliestDate:  schedule.DateOf(earliest),
		earliestClock: schedule.ClockOf(earliest),
		latestDate:    schedule.DateOf(latest),
		latestClock:   schedule.ClockOf(latest),
	}

	days := []DayAvailability{}
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		if d.After(b.latestDate) {
			break
		}
		day := DayAvailability{Date: d, Location: loc, Intervals: []Interval{}}
		switch {
		case !s.Active:
			day.ClosedReason = ReasonInactive
		case !s.AcceptsBookings:
			day.ClosedReason = ReasonNotAccepting
		default:
			day.Intervals, day.ClosedReason = resolveDay(s, d, loc, b, block)
		}
		days = append(days, day)
	}
	return days, nil
}

type bounds struct {
	earliestDate  schedule.Date
	earliestClock schedule.Clock
	latestDate    schedule.Date
	latestClock   schedule.Clock
}

func resolveDay(s *schedule.Schedule, d schedule.Date, loc *time.Location, b bounds, block int) ([]Interval, string) {
	window, breaks, reason := workingWindow(s, d)
	if reason != "" {
		return []Interval{}, reason
	}

	open := subtract(window, breaks)
	if gaps := skippedClock(d, loc); len(gaps) > 0 {
		kept := []Interval{}
		for _, iv := range open {
			kept = append(kept, subtract(iv, gaps)...)
		}
		open = kept
	}

	if d.Before(b.earliestDate) {
		return []Interval{}, ""
	}
	if d == b.earliestDate {
		open = clip(open, b.earliestClock, schedule.Clock(24*60))
	}
	if d == b.latestDate {
		open = clip(open, 0, b.latestClock)
	}

	out := open[:0]
	for _, iv := range open {
		if iv.Minutes() > 0 && iv.Minutes() >= block {
			out = append(out, iv)
		}
	}
	return out, ""
}

// workingWindow picks the day's window and the breaks that apply to it.
// A special-hours exception replaces the weekly window but keeps the
// weekday's active breaks.
func workingWindow(s *schedule.Schedule, d schedule.Date) (Interval, []schedule.Break, string) {
	slot, hasSlot := s.ActiveSlot(d.Weekday())

	var breaks []schedule.Break
	if hasSlot {
		breaks = slot.ActiveBreaks()
	}

	if ex, ok := s.ActiveException(d); ok {
		if schedule.Closes(ex.Kind) {
			return Interval{}, nil, ex.Reason
		}
		if sh, ok := ex.Kind.(schedule.SpecialHours); ok {
			return Interval{Start: sh.Start, End: sh.End}, breaks, ""
		}
	}

	if !hasSlot {
		return Interval{}, nil, ReasonNoHours
	}
	return Interval{Start: slot.Start, End: slot.End}, breaks, ""
}

// subtract removes breaks (sorted by start) from window and returns the
// remaining disjoint intervals in order.
func subtract(window Interval, breaks []schedule.Break) []Interval {
	out := []Interval{}
	cursor := window.Start
	for _, br := range breaks {
		if br.End <= cursor || br.Start >= window.End {
			continue
		}
		if br.Start > cursor {
			out = append(out, Interval{Start: cursor, End: br.Start})
		}
		cursor = max(cursor, br.End)
		if cursor >= window.End {
			break
		}
	}
	if cursor < window.End {
		out = append(out, Interval{Start: cursor, End: window.End})
	}
	return out
}

// skippedClock returns the wall-clock minutes of d that never occur in loc
// because clocks jump forward, as breaks sorted by start. Only days shorter
// than 24 hours are scanned.
func skippedClock(d schedule.Date, loc *time.Location) []schedule.Break {
	prevNoon := time.Date(d.Year, d.Month, d.Day-1, 12, 0, 0, 0, loc)
	nextNoon := time.Date(d.Year, d.Month, d.Day+1, 12, 0, 0, 0, loc)
	if nextNoon.Sub(prevNoon) >= 48*time.Hour {
		return nil
	}

	var gaps []schedule.Break
	for c := schedule.Clock(0); c < schedule.Clock(24*60); c++ {
		if schedule.ClockOf(c.On(d, loc)) == c {
			continue
		}
		if n := len(gaps); n > 0 && gaps[n-1].End == c {
			gaps[n-1].End++
			continue
		}
		gaps = append(gaps, schedule.Break{Start: c, End: c + 1, Active: true})
	}
	return gaps
}

func clip(ivs []Interval, lo, hi schedule.Clock) []Interval {
	out := ivs[:0]
	for _, iv := range ivs {
		iv.Start = max(iv.Start, lo)
		iv.End = min(iv.End, hi)
		if iv.End > iv.Start {
			out = append(out, iv)
		}
	}
	return out
}

func ceilMinute(t time.Time) time.Time {
	f := t.Truncate(time.Minute)
	if f.Equal(t) {
		return t
	}
	return f.Add(time.Minute)
}

package schedule

import (
	"maps"
	"slices"
	"time"
)

// ---------------------------------------------------------------------------
// Weekly rules
// ---------------------------------------------------------------------------

// Break is an intraday carve-out that is never bookable.
type Break struct {
	Start  Clock
	End    Clock
	Name   string
	Active bool
}

// WeekdaySlot is the recurring working window for one day of the week.
type WeekdaySlot struct {
	Weekday Weekday
	Start   Clock
	End     Clock
	Active  bool
	Breaks  []Break
}

// ActiveBreaks returns the active breaks ordered by start time.
func (w WeekdaySlot) ActiveBreaks() []Break {
	out := make([]Break, 0, len(w.Breaks))
	for _, b := range w.Breaks {
		if b.Active {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b Break) int { return int(a.Start - b.Start) })
	return out
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

type KindName string

const (
	KindUnavailable  KindName = "unavailable"
	KindVacation     KindName = "vacation"
	KindSickLeave    KindName = "sick_leave"
	KindHoliday      KindName = "holiday"
	KindSpecialHours KindName = "special_hours"
)

// ExceptionKind is a closed set of date override kinds. Only SpecialHours
// carries time bounds; every other kind closes the whole day.
type ExceptionKind interface {
	Name() KindName
	isExceptionKind()
}

type Unavailable struct{}
type Vacation struct{}
type SickLeave struct{}
type Holiday struct{}

// SpecialHours replaces the weekly window for a single date.
type SpecialHours struct {
	Start Clock
	End   Clock
}

func (Unavailable) Name() KindName  { return KindUnavailable }
func (Vacation) Name() KindName     { return KindVacation }
func (SickLeave) Name() KindName    { return KindSickLeave }
func (Holiday) Name() KindName      { return KindHoliday }
func (SpecialHours) Name() KindName { return KindSpecialHours }

func (Unavailable) isExceptionKind()  {}
func (Vacation) isExceptionKind()     {}
func (SickLeave) isExceptionKind()    {}
func (Holiday) isExceptionKind()      {}
func (SpecialHours) isExceptionKind() {}

// Closes reports whether k makes the whole day unavailable.
func Closes(k ExceptionKind) bool {
	switch k.(type) {
	case Unavailable, Vacation, SickLeave, Holiday:
		return true
	default:
		return false
	}
}

// Exception overrides the weekly rule on one date.
type Exception struct {
	Date   Date
	Kind   ExceptionKind
	Reason string
	Active bool
}

// ---------------------------------------------------------------------------
// Aggregate root
// ---------------------------------------------------------------------------

// Schedule is a professional's complete availability configuration. It is
// always read and written as a whole; callers must not share a *Schedule
// across goroutines while mutating it.
type Schedule struct {
	ID             string
	ProfessionalID string
	Timezone       string

	MinBookingNotice  int // minutes
	MaxBookingAdvance int // minutes
	SlotDuration      int // minutes

	Active          bool
	AcceptsBookings bool

	Version   int64
	UpdatedAt time.Time

	Weekly     map[Weekday]WeekdaySlot
	Exceptions map[Date]Exception
}

// New returns an empty schedule with initialised collections.
func New(professionalID, timezone string) *Schedule {
	return &Schedule{
		ProfessionalID:  professionalID,
		Timezone:        timezone,
		Active:          true,
		AcceptsBookings: true,
		Weekly:          make(map[Weekday]WeekdaySlot),
		Exceptions:      make(map[Date]Exception),
	}
}

// Location resolves the schedule's IANA time zone.
func (s *Schedule) Location() (*time.Location, error) {
	return LoadLocation(s.Timezone)
}

// LoadLocation resolves an IANA zone name. "Local" is rejected since it
// depends on the host rather than the professional.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, &time.ParseError{Layout: "IANA zone", Value: name, Message: ": unknown time zone " + name}
	}
	return time.LoadLocation(name)
}

// ActiveSlot returns the active weekly rule for w, if any.
func (s *Schedule) ActiveSlot(w Weekday) (WeekdaySlot, bool) {
	slot, ok := s.Weekly[w]
	if !ok || !slot.Active {
		return WeekdaySlot{}, false
	}
	return slot, true
}

// ActiveException returns the active exception for d, if any.
func (s *Schedule) ActiveException(d Date) (Exception, bool) {
	ex, ok := s.Exceptions[d]
	if !ok || !ex.Active {
		return Exception{}, false
	}
	return ex, true
}

// SetSlot replaces the rule for slot.Weekday.
func (s *Schedule) SetSlot(slot WeekdaySlot) {
	if s.Weekly == nil {
		s.Weekly = make(map[Weekday]WeekdaySlot)
	}
	s.Weekly[slot.Weekday] = slot
}

// SetException replaces the exception for ex.Date.
func (s *Schedule) SetException(ex Exception) {
	if s.Exceptions == nil {
		s.Exceptions = make(map[Date]Exception)
	}
	s.Exceptions[ex.Date] = ex
}

// Weekdays returns the configured weekdays in order.
func (s *Schedule) Weekdays() []Weekday {
	return slices.Sorted(maps.Keys(s.Weekly))
}

// ExceptionDates returns the exception dates in chronological order.
func (s *Schedule) ExceptionDates() []Date {
	return slices.SortedFunc(maps.Keys(s.Exceptions), Date.Compare)
}

// PruneExceptionsBefore drops exceptions dated strictly before cutoff and
// returns how many were removed.
func (s *Schedule) PruneExceptionsBefore(cutoff Date) int {
	n := 0
	for d := range s.Exceptions {
		if d.Before(cutoff) {
			delete(s.Exceptions, d)
			n++
		}
	}
	return n
}

// Clone returns a deep copy sharing no mutable state with s.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := *s
	out.Weekly = make(map[Weekday]WeekdaySlot, len(s.Weekly))
	for k, v := range s.Weekly {
		v.Breaks = slices.Clone(v.Breaks)
		out.Weekly[k] = v
	}
	out.Exceptions = maps.Clone(s.Exceptions)
	if out.Exceptions == nil {
		out.Exceptions = make(map[Date]Exception)
	}
	return &out
}

// ---------------------------------------------------------------------------
// Service duration
// ---------------------------------------------------------------------------

// ServiceDuration describes how long a booked service blocks the calendar.
type ServiceDuration struct {
	ServiceID       string
	DurationMinutes int
	BufferBefore    int
	BufferAfter     int
}

// EffectiveBlock is the total calendar time one booking occupies.
func (d ServiceDuration) EffectiveBlock() int {
	return d.BufferBefore + d.DurationMinutes + d.BufferAfter
}

func (d ServiceDuration) Validate() error {
	if d.DurationMinutes < 0 || d.BufferBefore < 0 || d.BufferAfter < 0 {
		return ErrNegativeDuration
	}
	if d.EffectiveBlock() <= 0 {
		return ErrEmptyServiceBlock
	}
	return nil
}

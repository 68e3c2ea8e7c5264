package schedule

import (
	"fmt"
	"time"
)

// Document is the wire representation of a Schedule. Times are "HH:MM",
// dates are "YYYY-MM-DD" and weekdays run from 0 (Monday) to 6 (Sunday).
type Document struct {
	ID                string           `json:"id,omitempty"`
	ProfessionalID    string           `json:"professional_id"`
	Timezone          string           `json:"timezone"`
	MinBookingNotice  int              `json:"min_booking_notice"`
	MaxBookingAdvance int              `json:"max_booking_advance"`
	SlotDuration      int              `json:"slot_duration"`
	IsActive          bool             `json:"is_active"`
	AcceptsBookings   bool             `json:"accepts_bookings"`
	Version           int64            `json:"version"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`
	WeekdaySlots      []WeekdaySlotDoc `json:"weekday_slots"`
	Exceptions        []ExceptionDoc   `json:"exceptions"`
}

type WeekdaySlotDoc struct {
	Weekday   int        `json:"weekday"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	IsActive  bool       `json:"is_active"`
	Breaks    []BreakDoc `json:"breaks"`
}

type BreakDoc struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
}

type ExceptionDoc struct {
	Date      string  `json:"date"`
	Kind      string  `json:"kind"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    string  `json:"reason"`
	IsActive  bool    `json:"is_active"`
}

// ToSchedule converts the document into an aggregate. Format problems are
// reported as issues; fields that fail to parse are left at their zero value
// so Validate can still run over the rest.
func (doc Document) ToSchedule() (*Schedule, []ValidationIssue) {
	var out issues

	s := New(doc.ProfessionalID, doc.Timezone)
	s.ID = doc.ID
	s.MinBookingNotice = doc.MinBookingNotice
	s.MaxBookingAdvance = doc.MaxBookingAdvance
	s.SlotDuration = doc.SlotDuration
	s.Active = doc.IsActive
	s.AcceptsBookings = doc.AcceptsBookings
	s.Version = doc.Version
	if doc.UpdatedAt != nil {
		s.UpdatedAt = *doc.UpdatedAt
	}

	if len(doc.WeekdaySlots) > 7 {
		out.add("weekday_slots", CodeOutOfRange, "at most 7 weekday slots are allowed")
	}
	for i, ws := range doc.WeekdaySlots {
		field := fmt.Sprintf("weekday_slots[%d]", i)
		w := Weekday(ws.Weekday)
		if !w.Valid() {
			out.add(field+".weekday", CodeOutOfRange, "weekday must be between 0 (Monday) and 6 (Sunday)")
			continue
		}
		if prev, dup := s.Weekly[w]; dup {
			// One rule per weekday; an inactive duplicate is dropped in favour of the active one.
			switch {
			case prev.Active && ws.IsActive:
				out.add(field+".weekday", CodeDuplicate, "more than one active slot for %s", w)
				continue
			case prev.Active:
				continue
			}
		}
		slot := WeekdaySlot{
			Weekday: w,
			Start:   parseClockField(&out, field+".start_time", ws.StartTime),
			End:     parseClockField(&out, field+".end_time", ws.EndTime),
			Active:  ws.IsActive,
		}
		for j, b := range ws.Breaks {
			bf := fmt.Sprintf("%s.breaks[%d]", field, j)
			slot.Breaks = append(slot.Breaks, Break{
				Start:  parseClockField(&out, bf+".start_time", b.StartTime),
				End:    parseClockField(&out, bf+".end_time", b.EndTime),
				Name:   b.Name,
				Active: b.IsActive,
			})
		}
		s.SetSlot(slot)
	}

	for i, ed := range doc.Exceptions {
		field := fmt.Sprintf("exceptions[%d]", i)
		if ed.Date == "" {
			out.add(field+".date", CodeRequired, "date is required")
			continue
		}
		d, err := ParseDate(ed.Date)
		if err != nil {
			out.add(field+".date", CodeInvalid, "%s", err.Error())
			continue
		}
		kind, ok := parseKind(&out, field, ed)
		if !ok {
			continue
		}
		if prev, dup := s.Exceptions[d]; dup {
			switch {
			case prev.Active && ed.IsActive:
				out.add(field+".date", CodeDuplicate, "more than one active exception on %s", d)
				continue
			case prev.Active:
				continue
			}
		}
		s.SetException(Exception{Date: d, Kind: kind, Reason: ed.Reason, Active: ed.IsActive})
	}

	return s, out
}

func parseKind(out *issues, field string, ed ExceptionDoc) (ExceptionKind, bool) {
	hasBounds := ed.StartTime != nil || ed.EndTime != nil
	name := KindName(ed.Kind)

	if name != KindSpecialHours && hasBounds {
		out.add(field, CodeInvalid, "start_time and end_time are only allowed for %s", KindSpecialHours)
		return nil, false
	}

	switch name {
	case KindUnavailable:
		return Unavailable{}, true
	case KindVacation:
		return Vacation{}, true
	case KindSickLeave:
		return SickLeave{}, true
	case KindHoliday:
		return Holiday{}, true
	case KindSpecialHours:
		if ed.StartTime == nil || ed.EndTime == nil {
			out.add(field, CodeRequired, "%s requires start_time and end_time", KindSpecialHours)
			return nil, false
		}
		return SpecialHours{
			Start: parseClockField(out, field+".start_time", *ed.StartTime),
			End:   parseClockField(out, field+".end_time", *ed.EndTime),
		}, true
	case "":
		out.add(field+".kind", CodeRequired, "kind is required")
	default:
		out.add(field+".kind", CodeInvalid, "unknown exception kind %q", ed.Kind)
	}
	return nil, false
}

func parseClockField(out *issues, field, v string) Clock {
	if v == "" {
		out.add(field, CodeRequired, "%s is required", lastSegment(field))
		return 0
	}
	c, err := ParseClock(v)
	if err != nil {
		out.add(field, CodeInvalid, "%s", err.Error())
		return 0
	}
	return c
}

func lastSegment(field string) string {
	for i := len(field) - 1; i >= 0; i-- {
		if field[i] == '.' {
			return field[i+1:]
		}
	}
	return field
}

// FromSchedule renders s in wire form with collections in key order.
func FromSchedule(s *Schedule) Document {
	doc := Document{
		ID:                s.ID,
		ProfessionalID:    s.ProfessionalID,
		Timezone:          s.Timezone,
		MinBookingNotice:  s.MinBookingNotice,
		MaxBookingAdvance: s.MaxBookingAdvance,
		SlotDuration:      s.SlotDuration,
		IsActive:          s.Active,
		AcceptsBookings:   s.AcceptsBookings,
		Version:           s.Version,
		WeekdaySlots:      []WeekdaySlotDoc{},
		Exceptions:        []ExceptionDoc{},
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		doc.UpdatedAt = &t
	}

	for _, w := range s.Weekdays() {
		slot := s.Weekly[w]
		sd := WeekdaySlotDoc{
			Weekday:   int(w),
			StartTime: slot.Start.String(),
			EndTime:   slot.End.String(),
			IsActive:  slot.Active,
			Breaks:    make([]BreakDoc, 0, len(slot.Breaks)),
		}
		for _, b := range slot.Breaks {
			sd.Breaks = append(sd.Breaks, BreakDoc{
				StartTime: b.Start.String(),
				EndTime:   b.End.String(),
				Name:      b.Name,
				IsActive:  b.Active,
			})
		}
		doc.WeekdaySlots = append(doc.WeekdaySlots, sd)
	}

	for _, d := range s.ExceptionDates() {
		ex := s.Exceptions[d]
		ed := ExceptionDoc{
			Date:     d.String(),
			Reason:   ex.Reason,
			IsActive: ex.Active,
		}
		if ex.Kind != nil {
			ed.Kind = string(ex.Kind.Name())
		}
		if sh, ok := ex.Kind.(SpecialHours); ok {
			start, end := sh.Start.String(), sh.End.String()
			ed.StartTime, ed.EndTime = &start, &end
		}
		doc.Exceptions = append(doc.Exceptions, ed)
	}

	return doc
}

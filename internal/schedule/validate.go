package schedule

import (
	"fmt"
)

// Issue codes.
const (
	CodeRequired   = "required"
	CodeInvalid    = "invalid"
	CodeOutOfRange = "out_of_range"
	CodeOverlap    = "overlap"
	CodeDuplicate  = "duplicate"
)

// ValidationIssue is a single structural or semantic problem found in a
// schedule. Issues are meant to be shown to the editor verbatim.
type ValidationIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i ValidationIssue) Error() string {
	return i.Field + ": " + i.Message
}

type issues []ValidationIssue

func (is *issues) add(field, code, format string, args ...any) {
	*is = append(*is, ValidationIssue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Validate checks s against the aggregate invariants. It never panics and
// returns an empty slice for a valid schedule.
func Validate(s *Schedule) []ValidationIssue {
	var out issues
	if s == nil {
		out.add("schedule", CodeRequired, "schedule is required")
		return out
	}

	if s.ProfessionalID == "" {
		out.add("professional_id", CodeRequired, "professional_id is required")
	}
	if s.Timezone == "" {
		out.add("timezone", CodeRequired, "timezone is required")
	} else if _, err := LoadLocation(s.Timezone); err != nil {
		out.add("timezone", CodeInvalid, "unknown time zone %q", s.Timezone)
	}
	if s.SlotDuration <= 0 {
		out.add("slot_duration", CodeOutOfRange, "slot_duration must be greater than 0")
	}
	if s.MinBookingNotice < 0 {
		out.add("min_booking_notice", CodeOutOfRange, "min_booking_notice must not be negative")
	}
	if s.MaxBookingAdvance < s.MinBookingNotice {
		out.add("max_booking_advance", CodeOutOfRange, "max_booking_advance must be greater than or equal to min_booking_notice")
	}

	for _, w := range s.Weekdays() {
		validateSlot(&out, w, s.Weekly[w])
	}
	for _, d := range s.ExceptionDates() {
		validateException(&out, d, s.Exceptions[d])
	}

	if out == nil {
		return []ValidationIssue{}
	}
	return out
}

func validateSlot(out *issues, key Weekday, slot WeekdaySlot) {
	field := fmt.Sprintf("weekday_slots[%s]", key)

	if !key.Valid() || slot.Weekday != key {
		out.add(field+".weekday", CodeOutOfRange, "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	boundsOK := slot.Start.Valid() && slot.End.Valid()
	if !boundsOK {
		out.add(field, CodeOutOfRange, "times must be between 00:00 and 24:00")
	} else if slot.Start >= slot.End {
		out.add(field+".end_time", CodeInvalid, "end_time must be after start_time")
		boundsOK = false
	}

	for i, b := range slot.Breaks {
		bf := fmt.Sprintf("%s.breaks[%d]", field, i)
		if b.Name == "" {
			out.add(bf+".name", CodeRequired, "break name is required")
		}
		if !b.Start.Valid() || !b.End.Valid() {
			out.add(bf, CodeOutOfRange, "times must be between 00:00 and 24:00")
			continue
		}
		if b.Start >= b.End {
			out.add(bf+".end_time", CodeInvalid, "end_time must be after start_time")
			continue
		}
		if boundsOK && (b.Start < slot.Start || b.End > slot.End) {
			out.add(bf, CodeOutOfRange, "break %s-%s must lie within %s-%s", b.Start, b.End, slot.Start, slot.End)
		}
	}

	// Pairwise check is order independent; only well-formed active breaks take part.
	for i := 0; i < len(slot.Breaks); i++ {
		a := slot.Breaks[i]
		if !a.Active || a.Start >= a.End {
			continue
		}
		for j := i + 1; j < len(slot.Breaks); j++ {
			b := slot.Breaks[j]
			if !b.Active || b.Start >= b.End {
				continue
			}
			if a.Start < b.End && b.Start < a.End {
				out.add(fmt.Sprintf("%s.breaks[%d]", field, j), CodeOverlap,
					"break %q overlaps break %q", b.Name, a.Name)
			}
		}
	}
}

func validateException(out *issues, key Date, ex Exception) {
	field := fmt.Sprintf("exceptions[%s]", key)

	if ex.Date.IsZero() || key.IsZero() {
		out.add(field+".date", CodeRequired, "date is required")
	} else if ex.Date != key {
		out.add(field+".date", CodeInvalid, "date does not match its key")
	}
	if ex.Reason == "" {
		out.add(field+".reason", CodeRequired, "reason is required")
	}

	switch k := ex.Kind.(type) {
	case nil:
		out.add(field+".kind", CodeRequired, "kind is required")
	case SpecialHours:
		if !k.Start.Valid() || !k.End.Valid() {
			out.add(field, CodeOutOfRange, "times must be between 00:00 and 24:00")
		} else if k.Start >= k.End {
			out.add(field+".end_time", CodeInvalid, "end_time must be after start_time")
		}
	}
}

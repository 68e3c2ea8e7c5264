package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchedule() *Schedule {
	s := New("pro-1", "Europe/Berlin")
	s.SlotDuration = 30
	s.MinBookingNotice = 60
	s.MaxBookingAdvance = 60 * 24 * 30
	s.SetSlot(WeekdaySlot{
		Weekday: Monday,
		Start:   MustClock("09:00"),
		End:     MustClock("18:00"),
		Active:  true,
		Breaks: []Break{
			{Start: MustClock("12:00"), End: MustClock("13:00"), Name: "Lunch", Active: true},
		},
	})
	s.SetException(Exception{
		Date:   Date{Year: 2024, Month: time.January, Day: 8},
		Kind:   SpecialHours{Start: MustClock("10:00"), End: MustClock("12:00")},
		Reason: "Conference",
		Active: true,
	})
	return s
}

func fields(issues []ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Field)
	}
	return out
}

func TestValidate_ValidSchedule(t *testing.T) {
	issues := Validate(validSchedule())
	require.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestValidate_NilSchedule(t *testing.T) {
	issues := Validate(nil)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeRequired, issues[0].Code)
}

func TestValidate_Rules(t *testing.T) {
	monday := Date{Year: 2024, Month: time.January, Day: 8}

	tests := []struct {
		name      string
		mutate    func(s *Schedule)
		wantField string
		wantCode  string
	}{
		{
			name:      "missing professional",
			mutate:    func(s *Schedule) { s.ProfessionalID = "" },
			wantField: "professional_id",
			wantCode:  CodeRequired,
		},
		{
			name:      "missing timezone",
			mutate:    func(s *Schedule) { s.Timezone = "" },
			wantField: "timezone",
			wantCode:  CodeRequired,
		},
		{
			name:      "unknown timezone",
			mutate:    func(s *Schedule) { s.Timezone = "Mars/Olympus_Mons" },
			wantField: "timezone",
			wantCode:  CodeInvalid,
		},
		{
			name:      "zero slot duration",
			mutate:    func(s *Schedule) { s.SlotDuration = 0 },
			wantField: "slot_duration",
			wantCode:  CodeOutOfRange,
		},
		{
			name:      "negative notice",
			mutate:    func(s *Schedule) { s.MinBookingNotice = -5 },
			wantField: "min_booking_notice",
			wantCode:  CodeOutOfRange,
		},
		{
			name:      "advance below notice",
			mutate:    func(s *Schedule) { s.MaxBookingAdvance = 30 },
			wantField: "max_booking_advance",
			wantCode:  CodeOutOfRange,
		},
		{
			name: "slot ends before it starts",
			mutate: func(s *Schedule) {
				slot := s.Weekly[Monday]
				slot.End = MustClock("08:00")
				slot.Breaks = nil
				s.SetSlot(slot)
			},
			wantField: "weekday_slots[monday].end_time",
			wantCode:  CodeInvalid,
		},
		{
			name: "break outside slot",
			mutate: func(s *Schedule) {
				slot := s.Weekly[Monday]
				slot.Breaks[0] = Break{Start: MustClock("17:30"), End: MustClock("18:30"), Name: "Late", Active: true}
				s.SetSlot(slot)
			},
			wantField: "weekday_slots[monday].breaks[0]",
			wantCode:  CodeOutOfRange,
		},
		{
			name: "break without name",
			mutate: func(s *Schedule) {
				slot := s.Weekly[Monday]
				slot.Breaks[0].Name = ""
				s.SetSlot(slot)
			},
			wantField: "weekday_slots[monday].breaks[0].name",
			wantCode:  CodeRequired,
		},
		{
			name: "inverted break",
			mutate: func(s *Schedule) {
				slot := s.Weekly[Monday]
				slot.Breaks[0].Start, slot.Breaks[0].End = slot.Breaks[0].End, slot.Breaks[0].Start
				s.SetSlot(slot)
			},
			wantField: "weekday_slots[monday].breaks[0].end_time",
			wantCode:  CodeInvalid,
		},
		{
			name: "overlapping breaks",
			mutate: func(s *Schedule) {
				slot := s.Weekly[Monday]
				slot.Breaks = append(slot.Breaks, Break{Start: MustClock("12:30"), End: MustClock("13:30"), Name: "Walk", Active: true})
				s.SetSlot(slot)
			},
			wantField: "weekday_slots[monday].breaks[1]",
			wantCode:  CodeOverlap,
		},
		{
			name: "exception without reason",
			mutate: func(s *Schedule) {
				ex := s.Exceptions[monday]
				ex.Reason = ""
				s.SetException(ex)
			},
			wantField: "exceptions[2024-01-08].reason",
			wantCode:  CodeRequired,
		},
		{
			name: "inverted special hours",
			mutate: func(s *Schedule) {
				ex := s.Exceptions[monday]
				ex.Kind = SpecialHours{Start: MustClock("12:00"), End: MustClock("10:00")}
				s.SetException(ex)
			},
			wantField: "exceptions[2024-01-08].end_time",
			wantCode:  CodeInvalid,
		},
		{
			name: "exception without kind",
			mutate: func(s *Schedule) {
				ex := s.Exceptions[monday]
				ex.Kind = nil
				s.SetException(ex)
			},
			wantField: "exceptions[2024-01-08].kind",
			wantCode:  CodeRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(s)

			issues := Validate(s)
			require.NotEmpty(t, issues)

			var found bool
			for _, i := range issues {
				if i.Field == tt.wantField && i.Code == tt.wantCode {
					found = true
				}
			}
			assert.Truef(t, found, "expected %s/%s in %v", tt.wantField, tt.wantCode, fields(issues))
		})
	}
}

func TestValidate_InactiveBreaksDoNotOverlap(t *testing.T) {
	s := validSchedule()
	slot := s.Weekly[Monday]
	slot.Breaks = append(slot.Breaks, Break{Start: MustClock("12:30"), End: MustClock("13:30"), Name: "Old", Active: false})
	s.SetSlot(slot)

	assert.Empty(t, Validate(s))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	s := New("", "")
	s.SlotDuration = 0
	s.MinBookingNotice = -1
	s.MaxBookingAdvance = -2

	issues := Validate(s)
	assert.ElementsMatch(t,
		[]string{"professional_id", "timezone", "slot_duration", "min_booking_notice", "max_booking_advance"},
		fields(issues))
}

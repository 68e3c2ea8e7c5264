package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
	"professional_id": "pro-1",
	"timezone": "America/New_York",
	"min_booking_notice": 0,
	"max_booking_advance": 10080,
	"slot_duration": 30,
	"is_active": true,
	"accepts_bookings": true,
	"weekday_slots": [
		{"weekday": 4, "start_time": "10:00", "end_time": "16:00", "is_active": true, "breaks": []},
		{"weekday": 0, "start_time": "09:00", "end_time": "17:00", "is_active": true,
		 "breaks": [{"start_time": "12:00", "end_time": "12:30", "name": "Lunch", "is_active": true}]}
	],
	"exceptions": [
		{"date": "2024-01-03", "kind": "special_hours", "start_time": "09:00", "end_time": "12:00", "reason": "Short day", "is_active": true},
		{"date": "2024-01-01", "kind": "holiday", "reason": "New Year", "is_active": true}
	]
}`

func TestDocumentToSchedule(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(sampleDocument), &doc))

	s, issues := doc.ToSchedule()
	require.Empty(t, issues)
	require.Empty(t, Validate(s))

	assert.Equal(t, []Weekday{Monday, Friday}, s.Weekdays())
	mon := s.Weekly[Monday]
	require.Len(t, mon.Breaks, 1)
	assert.Equal(t, MustClock("12:00"), mon.Breaks[0].Start)

	holiday := s.Exceptions[Date{Year: 2024, Month: time.January, Day: 1}]
	assert.Equal(t, Holiday{}, holiday.Kind)
	assert.True(t, Closes(holiday.Kind))

	special := s.Exceptions[Date{Year: 2024, Month: time.January, Day: 3}]
	assert.Equal(t, SpecialHours{Start: MustClock("09:00"), End: MustClock("12:00")}, special.Kind)
	assert.False(t, Closes(special.Kind))
}

func TestDocumentRoundTrip(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(sampleDocument), &doc))
	s, issues := doc.ToSchedule()
	require.Empty(t, issues)

	again, issues := FromSchedule(s).ToSchedule()
	require.Empty(t, issues)
	assert.Equal(t, s, again)

	out := FromSchedule(s)
	assert.Equal(t, 0, out.WeekdaySlots[0].Weekday)
	assert.Equal(t, "2024-01-01", out.Exceptions[0].Date)
	assert.Nil(t, out.Exceptions[0].StartTime)
	require.NotNil(t, out.Exceptions[1].StartTime)
	assert.Equal(t, "09:00", *out.Exceptions[1].StartTime)
}

func TestDocumentToSchedule_FormatIssues(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		doc       Document
		wantField string
		wantCode  string
	}{
		{
			name:      "weekday out of range",
			doc:       Document{WeekdaySlots: []WeekdaySlotDoc{{Weekday: 7, StartTime: "09:00", EndTime: "10:00"}}},
			wantField: "weekday_slots[0].weekday",
			wantCode:  CodeOutOfRange,
		},
		{
			name: "two active slots on one weekday",
			doc: Document{WeekdaySlots: []WeekdaySlotDoc{
				{Weekday: 1, StartTime: "09:00", EndTime: "10:00", IsActive: true},
				{Weekday: 1, StartTime: "11:00", EndTime: "12:00", IsActive: true},
			}},
			wantField: "weekday_slots[1].weekday",
			wantCode:  CodeDuplicate,
		},
		{
			name:      "malformed time",
			doc:       Document{WeekdaySlots: []WeekdaySlotDoc{{Weekday: 1, StartTime: "9am", EndTime: "10:00"}}},
			wantField: "weekday_slots[0].start_time",
			wantCode:  CodeInvalid,
		},
		{
			name:      "missing break end",
			doc:       Document{WeekdaySlots: []WeekdaySlotDoc{{Weekday: 1, StartTime: "09:00", EndTime: "10:00", Breaks: []BreakDoc{{StartTime: "09:15", Name: "x"}}}}},
			wantField: "weekday_slots[0].breaks[0].end_time",
			wantCode:  CodeRequired,
		},
		{
			name:      "missing date",
			doc:       Document{Exceptions: []ExceptionDoc{{Kind: "holiday", Reason: "x"}}},
			wantField: "exceptions[0].date",
			wantCode:  CodeRequired,
		},
		{
			name:      "bad date",
			doc:       Document{Exceptions: []ExceptionDoc{{Date: "2024/01/01", Kind: "holiday", Reason: "x"}}},
			wantField: "exceptions[0].date",
			wantCode:  CodeInvalid,
		},
		{
			name:      "unknown kind",
			doc:       Document{Exceptions: []ExceptionDoc{{Date: "2024-01-01", Kind: "sabbatical", Reason: "x"}}},
			wantField: "exceptions[0].kind",
			wantCode:  CodeInvalid,
		},
		{
			name:      "special hours without bounds",
			doc:       Document{Exceptions: []ExceptionDoc{{Date: "2024-01-01", Kind: "special_hours", Reason: "x"}}},
			wantField: "exceptions[0]",
			wantCode:  CodeRequired,
		},
		{
			name:      "bounds on a closing kind",
			doc:       Document{Exceptions: []ExceptionDoc{{Date: "2024-01-01", Kind: "vacation", StartTime: str("09:00"), EndTime: str("10:00"), Reason: "x"}}},
			wantField: "exceptions[0]",
			wantCode:  CodeInvalid,
		},
		{
			name: "two active exceptions on one date",
			doc: Document{Exceptions: []ExceptionDoc{
				{Date: "2024-01-01", Kind: "holiday", Reason: "a", IsActive: true},
				{Date: "2024-01-01", Kind: "vacation", Reason: "b", IsActive: true},
			}},
			wantField: "exceptions[1].date",
			wantCode:  CodeDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, issues := tt.doc.ToSchedule()
			require.NotEmpty(t, issues)
			assert.Equal(t, tt.wantField, issues[0].Field)
			assert.Equal(t, tt.wantCode, issues[0].Code)
		})
	}
}

func TestDocumentToSchedule_ActiveWinsOverInactiveDuplicate(t *testing.T) {
	doc := Document{WeekdaySlots: []WeekdaySlotDoc{
		{Weekday: 2, StartTime: "08:00", EndTime: "09:00", IsActive: false},
		{Weekday: 2, StartTime: "10:00", EndTime: "11:00", IsActive: true},
		{Weekday: 2, StartTime: "12:00", EndTime: "13:00", IsActive: false},
	}}

	s, issues := doc.ToSchedule()
	require.Empty(t, issues)
	slot, ok := s.ActiveSlot(Wednesday)
	require.True(t, ok)
	assert.Equal(t, MustClock("10:00"), slot.Start)
}

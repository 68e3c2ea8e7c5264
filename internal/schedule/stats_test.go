package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	s := New("pro-1", "UTC")
	s.SetSlot(WeekdaySlot{Weekday: Monday, Start: MustClock("09:00"), End: MustClock("17:00"), Active: true,
		Breaks: []Break{{Start: MustClock("12:00"), End: MustClock("12:30"), Name: "Lunch", Active: true}}})
	s.SetSlot(WeekdaySlot{Weekday: Tuesday, Start: MustClock("09:00"), End: MustClock("13:20"), Active: true})
	s.SetSlot(WeekdaySlot{Weekday: Wednesday, Start: MustClock("09:00"), End: MustClock("17:00"), Active: false})

	st := ComputeStats(s)
	assert.Equal(t, 2, st.ActiveDaysCount)
	assert.Equal(t, 2, st.WorkingDaysPerWeek)
	// 7.5h + 4h20m = 11h50m
	assert.Equal(t, 11.83, st.TotalWeeklyHours)
	assert.Equal(t, 0.5, st.TotalBreakHours)
}

func TestComputeStats_OverlappingBreaksCountedOnce(t *testing.T) {
	s := New("pro-1", "UTC")
	s.SetSlot(WeekdaySlot{Weekday: Friday, Start: MustClock("09:00"), End: MustClock("11:00"), Active: true,
		Breaks: []Break{
			{Start: MustClock("09:00"), End: MustClock("10:30"), Name: "a", Active: true},
			{Start: MustClock("10:00"), End: MustClock("11:00"), Name: "b", Active: true},
			{Start: MustClock("09:30"), End: MustClock("09:45"), Name: "inner", Active: true},
			{Start: MustClock("09:00"), End: MustClock("11:00"), Name: "off", Active: false},
		}})

	st := ComputeStats(s)
	assert.Equal(t, 0.0, st.TotalWeeklyHours)
	assert.Equal(t, 2.0, st.TotalBreakHours)
	assert.Equal(t, 1, st.ActiveDaysCount)
	assert.Equal(t, 0, st.WorkingDaysPerWeek)
}

func TestComputeStats_Bounds(t *testing.T) {
	full := New("pro-1", "UTC")
	for w := Monday; w <= Sunday; w++ {
		full.SetSlot(WeekdaySlot{Weekday: w, Start: MustClock("00:00"), End: MustClock("24:00"), Active: true})
	}
	assert.Equal(t, 168.0, ComputeStats(full).TotalWeeklyHours)

	empty := New("pro-2", "UTC")
	assert.Equal(t, Stats{}, ComputeStats(empty))
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestCloneIsDeep(t *testing.T) {
	s := validSchedule()
	c := s.Clone()
	require.Equal(t, s, c)

	slot := c.Weekly[Monday]
	slot.Breaks[0].Name = "changed"
	c.SetException(Exception{Date: Date{Year: 2030, Month: time.June, Day: 1}, Kind: Vacation{}, Reason: "x", Active: true})

	assert.Equal(t, "Lunch", s.Weekly[Monday].Breaks[0].Name)
	assert.Len(t, s.Exceptions, 1)
}

func TestPruneExceptionsBefore(t *testing.T) {
	s := New("pro-1", "UTC")
	for _, day := range []int{1, 2, 3} {
		s.SetException(Exception{Date: Date{Year: 2024, Month: time.January, Day: day}, Kind: Holiday{}, Reason: "x", Active: true})
	}

	removed := s.PruneExceptionsBefore(Date{Year: 2024, Month: time.January, Day: 2})
	assert.Equal(t, 1, removed)
	assert.Equal(t, []Date{{Year: 2024, Month: time.January, Day: 2}, {Year: 2024, Month: time.January, Day: 3}}, s.ExceptionDates())
}

func TestServiceDuration(t *testing.T) {
	d := ServiceDuration{DurationMinutes: 45, BufferBefore: 10, BufferAfter: 5}
	assert.Equal(t, 60, d.EffectiveBlock())
	assert.NoError(t, d.Validate())

	assert.ErrorIs(t, ServiceDuration{DurationMinutes: -1}.Validate(), ErrNegativeDuration)
	assert.ErrorIs(t, ServiceDuration{}.Validate(), ErrEmptyServiceBlock)
}

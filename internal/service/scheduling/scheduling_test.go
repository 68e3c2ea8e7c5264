package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_availability/internal/availability"
	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	msgs map[string][]byte
	fail bool
}

func (r *recorder) Publish(subject string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("nats unavailable")
	}
	if r.msgs == nil {
		r.msgs = map[string][]byte{}
	}
	r.msgs[subject] = data
	return nil
}

func (r *recorder) event(t *testing.T, professionalID string) events.ScheduleUpdated {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.msgs["simorq.schedule.updated."+professionalID]
	require.True(t, ok, "no schedule.updated event for %s", professionalID)
	var ev events.ScheduleUpdated
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

type fixture struct {
	svc       Service
	schedules *repository.MemoryScheduleRepository
	services  *repository.MemoryServiceRepository
	pub       *recorder
}

func newFixture() *fixture {
	f := &fixture{
		schedules: repository.NewMemoryScheduleRepository(),
		services: repository.NewMemoryServiceRepository(schedule.ServiceDuration{
			ServiceID: "consult", DurationMinutes: 50, BufferBefore: 5, BufferAfter: 5,
		}),
		pub: &recorder{},
	}
	f.svc = New(f.schedules, f.services, f.pub, Config{
		MaxRangeDays: 31,
		Now:          func() time.Time { return monday },
	})
	return f
}

func strPtr(s string) *string { return &s }

func mondayDoc(pro string) schedule.Document {
	return schedule.Document{
		ProfessionalID:    pro,
		Timezone:          "UTC",
		SlotDuration:      30,
		MaxBookingAdvance: 60 * 24 * 60,
		IsActive:          true,
		AcceptsBookings:   true,
		WeekdaySlots: []schedule.WeekdaySlotDoc{{
			Weekday: 0, StartTime: "09:00", EndTime: "17:00", IsActive: true,
			Breaks: []schedule.BreakDoc{{StartTime: "12:00", EndTime: "12:30", Name: "Lunch", IsActive: true}},
		}},
	}
}

func date(s string) schedule.Date {
	d, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSaveSchedule_CreatesAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := mondayDoc("")
	saved, err := f.svc.SaveSchedule(ctx, "pro-1", doc, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "pro-1", saved.ProfessionalID)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, monday, saved.UpdatedAt)

	ev := f.pub.event(t, "pro-1")
	assert.Equal(t, saved.ID, ev.ScheduleID)
	assert.Equal(t, int64(1), ev.Version)

	got, err := f.svc.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
}

func TestSaveSchedule_KeepsIDAcrossVersions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)

	doc := mondayDoc("pro-1")
	doc.SlotDuration = 45
	second, err := f.svc.SaveSchedule(ctx, "pro-1", doc, first.Version)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, 45, second.SlotDuration)
}

func TestSaveSchedule_VersionConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)

	_, err = f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestSaveSchedule_Invalid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := mondayDoc("pro-1")
	doc.SlotDuration = 0
	doc.WeekdaySlots[0].EndTime = "08:00"

	_, err := f.svc.SaveSchedule(ctx, "pro-1", doc, 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Issues), 2)

	_, err = f.svc.GetSchedule(ctx, "pro-1")
	assert.ErrorIs(t, err, ErrScheduleNotFound, "nothing is stored for an invalid document")
}

func TestSaveSchedule_ProfessionalMismatch(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveSchedule(context.Background(), "pro-1", mondayDoc("pro-2"), 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "professional_id", verr.Issues[0].Field)
}

func TestSaveSchedule_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.pub.fail = true

	saved, err := f.svc.SaveSchedule(context.Background(), "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)
}

func TestValidateSchedule(t *testing.T) {
	f := newFixture()

	assert.Empty(t, f.svc.ValidateSchedule(mondayDoc("pro-1")))
	assert.NotNil(t, f.svc.ValidateSchedule(mondayDoc("pro-1")))

	doc := mondayDoc("pro-1")
	doc.Timezone = "Mars/Olympus"
	doc.Exceptions = []schedule.ExceptionDoc{{Date: "2024-13-01", Kind: "holiday", Reason: "x", IsActive: true}}
	issues := f.svc.ValidateSchedule(doc)

	fields := make([]string, 0, len(issues))
	for _, i := range issues {
		fields = append(fields, i.Field)
	}
	assert.Contains(t, fields, "timezone")
	assert.Contains(t, fields, "exceptions[0].date")
}

func TestStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	st, err := f.svc.DocumentStats(mondayDoc("pro-1"))
	require.NoError(t, err)
	assert.Equal(t, 7.5, st.TotalWeeklyHours)
	assert.Equal(t, 0.5, st.TotalBreakHours)
	assert.Equal(t, 1, st.ActiveDaysCount)

	bad := mondayDoc("pro-1")
	bad.SlotDuration = -1
	_, err = f.svc.DocumentStats(bad)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.ScheduleStats(ctx, "pro-1")
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)
	stored, err := f.svc.ScheduleStats(ctx, "pro-1")
	require.NoError(t, err)
	assert.Equal(t, st, stored)
}

func TestComputeAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := mondayDoc("pro-1")
	doc.Exceptions = []schedule.ExceptionDoc{{Date: "2024-01-08", Kind: "vacation", Reason: "Skiing", IsActive: true}}
	_, err := f.svc.SaveSchedule(ctx, "pro-1", doc, 0)
	require.NoError(t, err)

	res, err := f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "pro-1",
		StartDate:      date("2024-01-01"),
		EndDate:        date("2024-01-08"),
	})
	require.NoError(t, err)

	assert.Equal(t, "UTC", res.Timezone)
	assert.Equal(t, 30, res.SlotMinutes)
	// 09:00-12:00 and 12:30-17:00 on Monday the 1st only.
	assert.Len(t, res.Slots, 15)
	for _, sl := range res.Slots {
		assert.Equal(t, date("2024-01-01"), sl.Date)
	}

	require.Len(t, res.ClosedDays, 7)
	last := res.ClosedDays[len(res.ClosedDays)-1]
	assert.Equal(t, date("2024-01-08"), last.Date)
	assert.Equal(t, "Skiing", last.Reason)
}

func TestComputeAvailability_WithService(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)

	res, err := f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "pro-1",
		StartDate:      date("2024-01-01"),
		EndDate:        date("2024-01-01"),
		ServiceID:      "consult",
	})
	require.NoError(t, err)
	assert.Equal(t, 60, res.SlotMinutes)
	// 09:00-12:00 fits three hour-long blocks, 12:30-17:00 fits four.
	assert.Len(t, res.Slots, 7)

	_, err = f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "pro-1",
		StartDate:      date("2024-01-01"),
		EndDate:        date("2024-01-01"),
		ServiceID:      "missing",
	})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestComputeAvailability_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "nobody",
		StartDate:      date("2024-01-01"),
		EndDate:        date("2024-01-02"),
	})
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "pro-1",
		StartDate:      date("2024-01-05"),
		EndDate:        date("2024-01-01"),
	})
	assert.ErrorIs(t, err, availability.ErrInvalidRange)

	_, err = f.svc.ComputeAvailability(ctx, AvailabilityQuery{
		ProfessionalID: "pro-1",
		StartDate:      date("2024-01-01"),
		EndDate:        date("2024-03-01"),
	})
	assert.ErrorIs(t, err, availability.ErrInvalidRange, "ranges above the configured maximum are rejected")
}

func TestDuplicateSchedule_ReplacesTarget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	src, err := f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)

	target := schedule.Document{
		ProfessionalID:    "pro-2",
		Timezone:          "Europe/Berlin",
		SlotDuration:      15,
		MaxBookingAdvance: 60 * 24 * 7,
		IsActive:          true,
		AcceptsBookings:   true,
		WeekdaySlots: []schedule.WeekdaySlotDoc{{
			Weekday: 4, StartTime: "10:00", EndTime: "14:00", IsActive: true,
			Breaks: []schedule.BreakDoc{{StartTime: "11:00", EndTime: "11:15", Name: "Coffee", IsActive: true}},
		}},
		Exceptions: []schedule.ExceptionDoc{{
			Date: "2024-02-02", Kind: "special_hours", StartTime: strPtr("10:00"), EndTime: strPtr("12:00"), Reason: "Short day", IsActive: true,
		}},
	}
	old, err := f.svc.SaveSchedule(ctx, "pro-2", target, 0)
	require.NoError(t, err)

	newID, err := f.svc.DuplicateSchedule(ctx, src.ID, "pro-2")
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, newID)
	assert.NotEqual(t, old.ID, newID)

	dup, err := f.svc.GetSchedule(ctx, "pro-2")
	require.NoError(t, err)
	assert.Equal(t, newID, dup.ID)
	assert.Equal(t, "pro-2", dup.ProfessionalID)
	assert.Equal(t, src.Timezone, dup.Timezone)
	assert.Equal(t, src.SlotDuration, dup.SlotDuration)
	assert.Equal(t, src.Weekly, dup.Weekly)
	assert.Empty(t, dup.Exceptions)
	_, hadFriday := dup.Weekly[schedule.Friday]
	assert.False(t, hadFriday)

	// The source is untouched.
	orig, err := f.svc.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.Equal(t, src.ID, orig.ID)
	assert.Equal(t, int64(1), orig.Version)

	assert.Equal(t, newID, f.pub.event(t, "pro-2").ScheduleID)
}

func TestDuplicateSchedule_NewTargetAndMissingSource(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.DuplicateSchedule(ctx, "does-not-exist", "pro-2")
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	src, err := f.svc.SaveSchedule(ctx, "pro-1", mondayDoc("pro-1"), 0)
	require.NoError(t, err)

	id, err := f.svc.DuplicateSchedule(ctx, src.ID, "pro-3")
	require.NoError(t, err)
	dup, err := f.svc.GetSchedule(ctx, "pro-3")
	require.NoError(t, err)
	assert.Equal(t, id, dup.ID)
	assert.Equal(t, int64(1), dup.Version)
}

func TestPruneExceptions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := mondayDoc("pro-1")
	doc.Exceptions = []schedule.ExceptionDoc{
		{Date: "2023-12-24", Kind: "holiday", Reason: "Past", IsActive: true},
		{Date: "2023-12-31", Kind: "holiday", Reason: "Past", IsActive: true},
		{Date: "2024-01-01", Kind: "holiday", Reason: "Today", IsActive: true},
		{Date: "2024-01-15", Kind: "vacation", Reason: "Future", IsActive: true},
	}
	_, err := f.svc.SaveSchedule(ctx, "pro-1", doc, 0)
	require.NoError(t, err)
	_, err = f.svc.SaveSchedule(ctx, "pro-2", mondayDoc("pro-2"), 0)
	require.NoError(t, err)

	removed, err := f.svc.PruneExceptions(ctx, monday.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err := f.svc.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.Equal(t, []schedule.Date{date("2024-01-01"), date("2024-01-15")}, got.ExceptionDates())
	assert.Equal(t, int64(2), got.Version)

	untouched, err := f.svc.GetSchedule(ctx, "pro-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), untouched.Version)

	removed, err = f.svc.PruneExceptions(ctx, monday.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPruneExceptions_UsesLocalDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := mondayDoc("pro-1")
	doc.Timezone = "Asia/Tokyo"
	doc.Exceptions = []schedule.ExceptionDoc{{Date: "2024-01-01", Kind: "holiday", Reason: "New year", IsActive: true}}
	_, err := f.svc.SaveSchedule(ctx, "pro-1", doc, 0)
	require.NoError(t, err)

	// 20:00 UTC on Jan 1 is already Jan 2 in Tokyo.
	removed, err := f.svc.PruneExceptions(ctx, monday.Add(20*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

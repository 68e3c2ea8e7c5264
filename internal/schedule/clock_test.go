package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"9:30", 0, true},
		{"09-30", 0, true},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestClockOn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	d := Date{Year: 2024, Month: time.March, Day: 4}
	got := MustClock("09:15").On(d, loc)
	assert.Equal(t, time.Date(2024, time.March, 4, 9, 15, 0, 0, loc), got)

	endOfDay := MustClock("24:00").On(d, loc)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, loc), endOfDay)
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, 0, d.Compare(Date{Year: 2024, Month: time.February, Day: 28}))

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDateWeekdayIsMondayBased(t *testing.T) {
	// 2024-01-01 was a Monday.
	d := Date{Year: 2024, Month: time.January, Day: 1}
	for i, want := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} {
		assert.Equal(t, want, d.AddDays(i).Weekday(), d.AddDays(i).String())
	}
	assert.Equal(t, "sunday", Sunday.String())
	assert.Equal(t, Monday, WeekdayOf(time.Monday))
	assert.Equal(t, Sunday, WeekdayOf(time.Sunday))
}

func TestClockAndDateJSON(t *testing.T) {
	type payload struct {
		Date Date  `json:"date"`
		At   Clock `json:"at"`
	}

	b, err := json.Marshal(payload{Date: Date{Year: 2024, Month: time.May, Day: 7}, At: MustClock("08:05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-05-07","at":"08:05"}`, string(b))

	var back payload
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, MustClock("08:05"), back.At)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"07/05/2024","at":"08:05"}`), &back))
}

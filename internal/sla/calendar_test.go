package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// officeHours is Monday-Friday 09:00-17:00 with no weekend rows.
func officeHours(holidays ...Holiday) *Calendar {
	var days []BusinessDay
	for w := Monday; w <= Friday; w++ {
		days = append(days, BusinessDay{Weekday: w, Start: Clock(9, 0), End: Clock(17, 0), WorkingDay: true})
	}
	return NewCalendar(days, holidays, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Monday, WeekdayOf(date(2025, time.January, 6)))
	assert.Equal(t, Friday, WeekdayOf(date(2025, time.January, 3)))
	assert.Equal(t, Sunday, WeekdayOf(date(2025, time.January, 5)))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(9, 30), c)
	assert.Equal(t, "09:30", c.String())

	c, err = ParseClock("17:00:45")
	require.NoError(t, err)
	assert.Equal(t, Clock(17, 0), c)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestCalendar_Configured(t *testing.T) {
	var nilCal *Calendar
	assert.False(t, nilCal.Configured())
	assert.False(t, NewCalendar(nil, nil, nil).Configured())
	assert.True(t, officeHours().Configured())
}

func TestCalendar_DayMissingIsNonWorking(t *testing.T) {
	c := officeHours()
	d, ok := c.Day(Saturday)
	assert.False(t, ok)
	assert.False(t, d.WorkingDay)

	d, ok = c.Day(Tuesday)
	assert.True(t, ok)
	assert.Equal(t, 480, d.Window())
}

func TestCalendar_IsHoliday(t *testing.T) {
	c := officeHours(
		Holiday{Name: "Founders day", Date: date(2025, time.January, 6), Active: true},
		Holiday{Name: "Christmas", Date: date(2020, time.December, 25), Recurring: true, Active: true},
		Holiday{Name: "Disabled", Date: date(2025, time.March, 3), Active: false},
	)

	assert.True(t, c.IsHoliday(at(2025, time.January, 6, 13, 0)))
	assert.False(t, c.IsHoliday(date(2026, time.January, 6)), "one-time holiday must not repeat")
	assert.True(t, c.IsHoliday(date(2031, time.December, 25)), "recurring holiday repeats yearly")
	assert.False(t, c.IsHoliday(date(2025, time.March, 3)), "inactive holidays are ignored")
	assert.False(t, c.IsHoliday(date(2025, time.January, 7)))
}

func TestCalendar_RecurringLeapDay(t *testing.T) {
	c := officeHours(Holiday{Name: "Leap day", Date: date(2024, time.February, 29), Recurring: true, Active: true})

	assert.True(t, c.IsHoliday(date(2028, time.February, 29)))
	assert.False(t, c.IsHoliday(date(2025, time.March, 1)))
	assert.False(t, c.IsHoliday(date(2025, time.February, 28)))

	// Monday 1 March 2027 stays a working day.
	assert.False(t, c.IsHoliday(date(2027, time.March, 1)))
	got, ok := AddBusinessMinutes(c, at(2027, time.February, 26, 16, 0), 120)
	require.True(t, ok)
	assert.Equal(t, at(2027, time.March, 1, 10, 0), got)
	assert.Equal(t, 8*60, ElapsedBusinessMinutes(c, at(2027, time.March, 1, 0, 0), at(2027, time.March, 2, 0, 0)))
}

func TestCalendar_IsWorkingTime(t *testing.T) {
	c := officeHours(Holiday{Date: date(2025, time.January, 7), Active: true})

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday morning", at(2025, time.January, 6, 10, 0), true},
		{"opening minute", at(2025, time.January, 6, 9, 0), true},
		{"closing minute", at(2025, time.January, 6, 17, 0), false},
		{"before hours", at(2025, time.January, 6, 7, 0), false},
		{"holiday", at(2025, time.January, 7, 10, 0), false},
		{"saturday", at(2025, time.January, 4, 10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsWorkingTime(tt.t))
		})
	}

	assert.True(t, NewCalendar(nil, nil, nil).IsWorkingTime(at(2025, time.January, 4, 3, 0)))
}

func TestCalendar_NextWorkingStart(t *testing.T) {
	c := officeHours()

	got, ok := c.NextWorkingStart(at(2025, time.January, 3, 18, 0))
	require.True(t, ok)
	assert.Equal(t, at(2025, time.January, 6, 9, 0), got)

	got, ok = c.NextWorkingStart(at(2025, time.January, 6, 11, 15))
	require.True(t, ok)
	assert.Equal(t, at(2025, time.January, 6, 11, 15), got)

	closed := NewCalendar([]BusinessDay{{Weekday: Monday, WorkingDay: false}}, nil, nil)
	_, ok = closed.NextWorkingStart(at(2025, time.January, 6, 9, 0))
	assert.False(t, ok)
}

func TestCalendar_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := NewCalendar([]BusinessDay{{Weekday: Monday, Start: Clock(9, 0), End: Clock(17, 0), WorkingDay: true}}, nil, loc)

	// 07:30 UTC is 09:30 local.
	assert.True(t, c.IsWorkingTime(at(2025, time.January, 6, 7, 30)))
	assert.False(t, c.IsWorkingTime(at(2025, time.January, 6, 6, 30)))
}

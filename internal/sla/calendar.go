package sla

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
)

// Weekday indexes business days Monday-first: 0=Monday .. 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf maps a time to its Monday-first weekday index.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}[w]
}

// ClockTime is a time of day in minutes after midnight.
type ClockTime int

// Clock builds a ClockTime from hour and minute.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", s)
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant at this clock time on t's calendar date, in t's location.
func (c ClockTime) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, t.Location())
}

// BusinessDay is the working window of one weekday.
type BusinessDay struct {
	Weekday    Weekday   `json:"weekday"`
	Start      ClockTime `json:"start"`
	End        ClockTime `json:"end"`
	WorkingDay bool      `json:"is_working_day"`
}

// Window returns the working window length in minutes, zero for non-working days.
func (d BusinessDay) Window() int {
	if !d.WorkingDay || d.End <= d.Start {
		return 0
	}
	return int(d.End - d.Start)
}

// Holiday excludes a date from business time. Recurring holidays repeat on the
// same month and day every year.
type Holiday struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Recurring bool      `json:"is_recurring"`
	Active    bool      `json:"is_active"`
}

// Calendar is a read-only snapshot of working hours and holidays.
// A nil *Calendar behaves as an unconfigured calendar.
type Calendar struct {
	days     map[Weekday]BusinessDay
	holidays []*cal.Holiday
	loc      *time.Location
}

// NewCalendar builds a calendar snapshot. Inactive holidays are dropped and a nil
// location means UTC.
func NewCalendar(days []BusinessDay, holidays []Holiday, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{
		days: make(map[Weekday]BusinessDay, len(days)),
		loc:  loc,
	}
	for _, d := range days {
		if d.Weekday < Monday || d.Weekday > Sunday {
			continue
		}
		c.days[d.Weekday] = d
	}
	for _, h := range holidays {
		if !h.Active || h.Date.IsZero() {
			continue
		}
		c.holidays = append(c.holidays, toCalHoliday(h))
	}
	return c
}

func toCalHoliday(h Holiday) *cal.Holiday {
	y, m, d := h.Date.Date()
	ch := &cal.Holiday{
		Name:  h.Name,
		Type:  cal.ObservancePublic,
		Month: m,
		Day:   d,
		Func:  cal.CalcDayOfMonth,
	}
	if !h.Recurring {
		ch.StartYear = y
		ch.EndYear = y
	}
	return ch
}

// Configured reports whether any business day rows exist. Unconfigured calendars
// make business-time math fall back to calendar time.
func (c *Calendar) Configured() bool {
	return c != nil && len(c.days) > 0
}

// Location returns the zone working hours are expressed in.
func (c *Calendar) Location() *time.Location {
	if c == nil || c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns the configuration for a weekday. The second result is false when the
// weekday has no row, which is equivalent to a non-working day.
func (c *Calendar) Day(w Weekday) (BusinessDay, bool) {
	if c == nil {
		return BusinessDay{Weekday: w}, false
	}
	d, ok := c.days[w]
	if !ok {
		return BusinessDay{Weekday: w}, false
	}
	return d, true
}

// Days returns the configured rows ordered Monday to Sunday.
func (c *Calendar) Days() []BusinessDay {
	var out []BusinessDay
	for w := Monday; w <= Sunday; w++ {
		if d, ok := c.Day(w); ok {
			out = append(out, d)
		}
	}
	return out
}

// IsHoliday reports whether the calendar date of t is an active holiday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	y, m, d := t.Date()
	for _, h := range c.holidays {
		actual, _ := h.Calc(y)
		// A recurring 29 February normalizes to 1 March in common years.
		if actual.IsZero() || actual.Month() != h.Month || actual.Day() != h.Day {
			continue
		}
		ay, am, ad := actual.Date()
		if ay == y && am == m && ad == d {
			return true
		}
	}
	return false
}

// workday returns the working window for t's date, or false if the date is a
// holiday, a non-working weekday or has an empty window.
func (c *Calendar) workday(t time.Time) (BusinessDay, bool) {
	if c.IsHoliday(t) {
		return BusinessDay{}, false
	}
	d, ok := c.Day(WeekdayOf(t))
	if !ok || d.Window() == 0 {
		return d, false
	}
	return d, true
}

// IsWorkingTime reports whether t falls inside working hours. An unconfigured
// calendar is always working.
func (c *Calendar) IsWorkingTime(t time.Time) bool {
	if !c.Configured() {
		return true
	}
	t = t.In(c.Location())
	d, ok := c.workday(t)
	if !ok {
		return false
	}
	return !t.Before(d.Start.On(t)) && t.Before(d.End.On(t))
}

// NextWorkingStart returns the earliest working instant at or after t. The second
// result is false when the calendar has no working window at all.
func (c *Calendar) NextWorkingStart(t time.Time) (time.Time, bool) {
	if !c.Configured() {
		return t, true
	}
	if c.weeklyWindow() == 0 {
		return time.Time{}, false
	}
	current := t.In(c.Location())
	for skipped := 0; skipped <= maxIdleDays; skipped++ {
		d, ok := c.workday(current)
		if ok {
			start, end := d.Start.On(current), d.End.On(current)
			if current.Before(start) {
				return start.In(t.Location()), true
			}
			if current.Before(end) {
				return current.In(t.Location()), true
			}
		}
		current = nextMidnight(current)
	}
	return time.Time{}, false
}

// maxIdleDays bounds how many consecutive days without working time a walk may
// cross before the calendar is considered unable to make progress.
const maxIdleDays = 2 * 366

// weeklyWindow sums the working minutes of a regular week.
func (c *Calendar) weeklyWindow() int {
	total := 0
	for w := Monday; w <= Sunday; w++ {
		d, _ := c.Day(w)
		total += d.Window()
	}
	return total
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

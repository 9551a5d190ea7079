package sla

import "time"

// AddBusinessMinutes advances start by the given number of working minutes,
// skipping holidays and non-working days and clipping to each day's window.
//
// An unconfigured calendar degrades to plain calendar-time addition. The second
// result is false when the calendar has no working time to consume, in which case
// no deadline can be reached. The result keeps start's location.
func AddBusinessMinutes(c *Calendar, start time.Time, minutes int) (time.Time, bool) {
	if minutes <= 0 {
		return start, true
	}
	if !c.Configured() {
		return start.Add(time.Duration(minutes) * time.Minute), true
	}
	if c.weeklyWindow() == 0 {
		return time.Time{}, false
	}

	current := start.In(c.Location())
	remaining := minutes
	idle := 0
	for remaining > 0 {
		if idle > maxIdleDays {
			return time.Time{}, false
		}
		if c.IsHoliday(current) {
			current = nextMidnight(current)
			idle++
			continue
		}
		day, _ := c.Day(WeekdayOf(current))
		if !day.WorkingDay {
			current = nextMidnight(current)
			idle++
			continue
		}
		if open := day.Start.On(current); current.Before(open) {
			current = open
		}
		closing := day.End.On(current)
		if !current.Before(closing) {
			current = nextMidnight(current)
			idle++
			continue
		}

		untilClose := int(closing.Sub(current) / time.Minute)
		if remaining <= untilClose {
			return current.Add(time.Duration(remaining) * time.Minute).In(start.Location()), true
		}
		remaining -= untilClose
		if untilClose > 0 {
			idle = 0
		} else {
			idle++
		}
		current = nextMidnight(current)
	}
	return current.In(start.Location()), true
}

// ElapsedBusinessMinutes sums the working minutes between start and end. Holidays
// and non-working days contribute nothing; an unconfigured calendar counts
// wall-clock minutes.
func ElapsedBusinessMinutes(c *Calendar, start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	if !c.Configured() {
		return int(end.Sub(start) / time.Minute)
	}

	loc := c.Location()
	current := start.In(loc)
	end = end.In(loc)
	total := 0
	for current.Before(end) {
		if day, ok := c.workday(current); ok {
			from := latest(current, day.Start.On(current))
			to := earliest(end, day.End.On(current))
			if from.Before(to) {
				total += int(to.Sub(from) / time.Minute)
			}
		}
		current = nextMidnight(current)
	}
	return total
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

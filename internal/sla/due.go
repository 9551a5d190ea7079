package sla

import "time"

// DueTimes are the deadlines derived from a target. A nil deadline means the
// target leaves the milestone unset or the calendar cannot reach it.
type DueTimes struct {
	FirstResponse *time.Time
	NextResponse  *time.Time
	Resolution    *time.Time
	Target        *Target
}

// CalculateDueTimes resolves the target for e and converts its durations into
// deadlines. It returns nil when no target applies.
func CalculateDueTimes(e Entity, policy *Policy, c *Calendar) *DueTimes {
	snap := e.SLASnapshot()
	target := Resolve(policy, snap.Priority)
	if target == nil {
		return nil
	}

	base := snap.CreatedAt
	nextBase := base
	if snap.FirstResponseAt != nil {
		nextBase = *snap.FirstResponseAt
	}

	due := &DueTimes{Target: target}
	if !snap.ResolutionOnly {
		due.FirstResponse = dueAt(c, target, base, target.FirstResponse)
		due.NextResponse = dueAt(c, target, nextBase, target.NextResponse)
	}
	due.Resolution = dueAt(c, target, base, target.Resolution)
	return due
}

// DueAt converts a single duration from base according to the target's
// operational hours.
func DueAt(c *Calendar, target *Target, base time.Time, d Duration) (time.Time, bool) {
	minutes := d.Minutes()
	if target.OperationalHours.CountsCalendarTime() {
		return base.Add(time.Duration(minutes) * time.Minute), true
	}
	return AddBusinessMinutes(c, base, minutes)
}

func dueAt(c *Calendar, target *Target, base time.Time, d *Duration) *time.Time {
	if d == nil {
		return nil
	}
	t, ok := DueAt(c, target, base, *d)
	if !ok {
		return nil
	}
	return &t
}

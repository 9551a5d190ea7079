package sla

import (
	"fmt"
	"time"
)

// Pause stops the SLA clock. It reports whether the state changed.
func Pause(p Pausable, reason string) bool {
	if p.IsSLAPaused() {
		return false
	}
	p.SetSLAPaused(true, reason)
	return true
}

// Resume restarts the SLA clock. It reports whether the state changed.
// Deadlines are not shifted by the time spent paused.
func Resume(p Pausable) bool {
	if !p.IsSLAPaused() {
		return false
	}
	p.SetSLAPaused(false, "")
	return true
}

// ElapsedTime reports how much of the SLA clock has run since creation.
type ElapsedTime struct {
	SystemMinutes   int    `json:"system_minutes"`
	BusinessMinutes int    `json:"business_minutes"`
	SystemHours     string `json:"system_formatted"`
	BusinessHours   string `json:"business_formatted"`
}

// Elapsed measures time since e was created. While paused it reports zero because
// pause start times are not tracked.
func Elapsed(e Entity, c *Calendar, now time.Time) ElapsedTime {
	snap := e.SLASnapshot()
	if snap.Paused || !now.After(snap.CreatedAt) {
		zero := FormatDuration(0)
		return ElapsedTime{SystemHours: zero, BusinessHours: zero}
	}
	wall := now.Sub(snap.CreatedAt)
	business := ElapsedBusinessMinutes(c, snap.CreatedAt, now)
	return ElapsedTime{
		SystemMinutes:   int(wall / time.Minute),
		BusinessMinutes: business,
		SystemHours:     FormatDuration(wall),
		BusinessHours:   FormatDuration(time.Duration(business) * time.Minute),
	}
}

// FormatDuration renders d as "1d 2h 3m", "2h 5m", "7m" or "30 seconds".
func FormatDuration(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

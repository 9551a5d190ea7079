package sla

// Unit is the granularity of an SLA duration.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
)

// MaxMinutes caps every normalized duration at five years so the calendar walker
// stays bounded.
const MaxMinutes = 5 * 365 * 24 * 60

// Duration is a magnitude expressed in a unit, as configured on a target.
type Duration struct {
	Magnitude int  `json:"magnitude" yaml:"magnitude"`
	Unit      Unit `json:"unit" yaml:"unit"`
}

// Minutes normalizes the duration.
func (d Duration) Minutes() int {
	return Normalize(d.Magnitude, d.Unit)
}

// Normalize converts magnitude/unit into minutes clamped to [0, MaxMinutes].
// Unknown units are treated as hours.
func Normalize(magnitude int, unit Unit) int {
	if magnitude <= 0 {
		return 0
	}
	factor := unitFactor(unit)
	if magnitude > MaxMinutes/factor {
		return MaxMinutes
	}
	return magnitude * factor
}

// KnownUnit reports whether u is one of the supported units.
func KnownUnit(u Unit) bool {
	switch u {
	case UnitMinutes, UnitHours, UnitDays, UnitWeeks:
		return true
	}
	return false
}

func unitFactor(unit Unit) int {
	switch unit {
	case UnitMinutes:
		return 1
	case UnitDays:
		return 24 * 60
	case UnitWeeks:
		return 7 * 24 * 60
	default:
		return 60
	}
}

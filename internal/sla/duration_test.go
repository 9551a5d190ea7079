package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		magnitude int
		unit      Unit
		want      int
	}{
		{"minutes", 45, UnitMinutes, 45},
		{"hours", 4, UnitHours, 240},
		{"days", 2, UnitDays, 2880},
		{"weeks", 1, UnitWeeks, 10080},
		{"unknown unit is hours", 3, Unit("fortnights"), 180},
		{"empty unit is hours", 1, "", 60},
		{"zero", 0, UnitHours, 0},
		{"negative clamps to zero", -5, UnitDays, 0},
		{"capped", 1000, UnitWeeks, MaxMinutes},
		{"huge magnitude does not overflow", int(^uint(0) >> 1), UnitWeeks, MaxMinutes},
		{"exactly the cap", MaxMinutes, UnitMinutes, MaxMinutes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.magnitude, tt.unit))
		})
	}
}

func TestNormalize_Monotonic(t *testing.T) {
	for _, unit := range []Unit{UnitMinutes, UnitHours, UnitDays, UnitWeeks} {
		prev := Normalize(0, unit)
		for m := 1; m <= 300; m++ {
			got := Normalize(m, unit)
			assert.GreaterOrEqual(t, got, prev, "unit %s magnitude %d", unit, m)
			assert.LessOrEqual(t, got, MaxMinutes)
			prev = got
		}
	}
}

func TestDuration_Minutes(t *testing.T) {
	assert.Equal(t, 90, Duration{Magnitude: 90, Unit: UnitMinutes}.Minutes())
	assert.Equal(t, 1440, Duration{Magnitude: 1, Unit: UnitDays}.Minutes())
}

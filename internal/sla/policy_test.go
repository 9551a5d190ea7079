package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hours(n int) *Duration { return &Duration{Magnitude: n, Unit: UnitHours} }

func TestResolve(t *testing.T) {
	policy := &Policy{
		Name:   "Standard",
		Active: true,
		Targets: []Target{
			{ID: "urgent", Priority: PriorityUrgent, Resolution: hours(2)},
			{ID: "normal", Priority: PriorityNormal, Resolution: hours(24)},
		},
	}

	got := Resolve(policy, PriorityUrgent)
	require.NotNil(t, got)
	assert.Equal(t, "urgent", got.ID)

	got = Resolve(policy, PriorityHigh)
	require.NotNil(t, got, "missing tier falls back to normal")
	assert.Equal(t, "normal", got.ID)
}

func TestResolve_NoMatch(t *testing.T) {
	policy := &Policy{Name: "Only urgent", Active: true, Targets: []Target{{Priority: PriorityUrgent, Resolution: hours(1)}}}

	assert.Nil(t, Resolve(policy, PriorityLow))
	assert.Nil(t, Resolve(policy, PriorityNormal))
	assert.Nil(t, Resolve(nil, PriorityUrgent))

	policy.Active = false
	assert.Nil(t, Resolve(policy, PriorityUrgent))
}

func TestResolve_FirstMatchWins(t *testing.T) {
	policy := &Policy{Active: true, Targets: []Target{
		{ID: "a", Priority: PriorityHigh, Resolution: hours(1)},
		{ID: "b", Priority: PriorityHigh, Resolution: hours(2)},
	}}
	assert.Equal(t, "a", Resolve(policy, PriorityHigh).ID)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority(" HIGH "))
	assert.Equal(t, PriorityNormal, ParsePriority("Normal"))
}

func TestOperationalHours_CountsCalendarTime(t *testing.T) {
	assert.True(t, OperationalCalendar.CountsCalendarTime())
	assert.False(t, OperationalBusiness.CountsCalendarTime())
	assert.False(t, OperationalHours("custom").CountsCalendarTime())
	assert.False(t, OperationalHours("").CountsCalendarTime())
}

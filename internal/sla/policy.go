package sla

import "strings"

// Priority is the urgency tier an SLA target applies to.
type Priority string

const (
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// FallbackPriority is tried when a policy has no target for the requested tier.
const FallbackPriority = PriorityNormal

// ParsePriority lower-cases and trims p so upper-case domain enums map onto tiers.
func ParsePriority(p string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(p)))
}

// OperationalHours selects how target durations are counted.
type OperationalHours string

const (
	OperationalCalendar OperationalHours = "calendar"
	OperationalBusiness OperationalHours = "business"
)

// CountsCalendarTime reports whether durations are plain wall-clock time. Any value
// other than "calendar" counts business time.
func (o OperationalHours) CountsCalendarTime() bool {
	return o == OperationalCalendar
}

// Target holds the commitments of a policy for one priority tier.
type Target struct {
	ID               string           `json:"id,omitempty" yaml:"id,omitempty"`
	Priority         Priority         `json:"priority" yaml:"priority"`
	FirstResponse    *Duration        `json:"first_response,omitempty" yaml:"first_response,omitempty"`
	NextResponse     *Duration        `json:"next_response,omitempty" yaml:"next_response,omitempty"`
	Resolution       *Duration        `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	OperationalHours OperationalHours `json:"operational_hours" yaml:"operational_hours"`
}

// Policy is a named set of targets. Targets are matched in slice order.
type Policy struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool     `json:"is_active" yaml:"active"`
	Default     bool     `json:"is_default" yaml:"default"`
	Targets     []Target `json:"targets" yaml:"targets"`
}

// Resolve selects the target for priority, falling back to the normal tier.
// It returns nil when the policy is missing, inactive or has no usable target.
func Resolve(policy *Policy, priority Priority) *Target {
	if policy == nil || !policy.Active {
		return nil
	}
	if t := policy.target(priority); t != nil {
		return t
	}
	if priority != FallbackPriority {
		return policy.target(FallbackPriority)
	}
	return nil
}

func (p *Policy) target(priority Priority) *Target {
	for i := range p.Targets {
		if p.Targets[i].Priority == priority {
			return &p.Targets[i]
		}
	}
	return nil
}

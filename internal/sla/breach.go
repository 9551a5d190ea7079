package sla

import "time"

// MilestoneKind names an SLA commitment.
type MilestoneKind string

const (
	MilestoneFirstResponse MilestoneKind = "first_response"
	MilestoneNextResponse  MilestoneKind = "next_response"
	MilestoneResolution    MilestoneKind = "resolution"
)

// State classifies a milestone against its deadline.
type State string

const (
	StatePending  State = "pending"
	StateMet      State = "met"
	StateBreached State = "breached"
)

// Milestone is the live classification of one commitment.
type Milestone struct {
	Kind   MilestoneKind `json:"kind"`
	State  State         `json:"status"`
	Due    *time.Time    `json:"due_time"`
	Actual *time.Time    `json:"completed_time"`
}

// Status is the SLA picture of an entity at a given instant. It is derived on
// every call and never cached.
type Status struct {
	HasSLA        bool       `json:"has_sla"`
	PolicyName    string     `json:"sla_name,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	FirstResponse *Milestone `json:"first_response,omitempty"`
	NextResponse  *Milestone `json:"next_response,omitempty"`
	Resolution    *Milestone `json:"resolution,omitempty"`
	Paused        bool       `json:"is_sla_paused"`
	Breached      bool       `json:"is_sla_breached"`
}

// Milestones returns the evaluated milestones in lifecycle order.
func (s Status) Milestones() []*Milestone {
	var out []*Milestone
	for _, m := range []*Milestone{s.FirstResponse, s.NextResponse, s.Resolution} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Classify compares an actual timestamp, or now when the milestone is still
// open, against a deadline. A missing deadline stays pending.
func Classify(due, actual *time.Time, now time.Time) State {
	if due == nil {
		return StatePending
	}
	if actual != nil {
		if actual.After(*due) {
			return StateBreached
		}
		return StateMet
	}
	if now.After(*due) {
		return StateBreached
	}
	return StatePending
}

// GetStatus evaluates every milestone of e at now.
func GetStatus(e Entity, policy *Policy, c *Calendar, now time.Time) Status {
	snap := e.SLASnapshot()
	due := CalculateDueTimes(e, policy, c)
	if due == nil {
		return Status{HasSLA: false, Paused: snap.Paused}
	}
	return evaluate(snap, policy, due, now)
}

// IsBreached reports whether any tracked milestone of e is breached at now.
// Terminal entities are never breached.
func IsBreached(e Entity, policy *Policy, c *Calendar, now time.Time) bool {
	return GetStatus(e, policy, c, now).Breached
}

// Evaluate classifies precomputed deadlines, for callers that already hold them.
func Evaluate(e Entity, policy *Policy, due *DueTimes, now time.Time) Status {
	snap := e.SLASnapshot()
	if due == nil {
		return Status{HasSLA: false, Paused: snap.Paused}
	}
	return evaluate(snap, policy, due, now)
}

func evaluate(snap Snapshot, policy *Policy, due *DueTimes, now time.Time) Status {
	st := Status{
		HasSLA:   true,
		Priority: due.Target.Priority,
		Paused:   snap.Paused,
	}
	if policy != nil {
		st.PolicyName = policy.Name
	}

	if !snap.ResolutionOnly {
		st.FirstResponse = &Milestone{
			Kind:   MilestoneFirstResponse,
			State:  Classify(due.FirstResponse, snap.FirstResponseAt, now),
			Due:    due.FirstResponse,
			Actual: snap.FirstResponseAt,
		}
		if due.NextResponse != nil {
			st.NextResponse = &Milestone{
				Kind:  MilestoneNextResponse,
				State: StatePending,
				Due:   due.NextResponse,
			}
		}
	}
	st.Resolution = &Milestone{
		Kind:   MilestoneResolution,
		State:  Classify(due.Resolution, snap.CompletedAt, now),
		Due:    due.Resolution,
		Actual: snap.CompletedAt,
	}

	if snap.Terminal {
		return st
	}
	for _, m := range st.Milestones() {
		if m.State == StateBreached {
			st.Breached = true
			break
		}
	}
	return st
}

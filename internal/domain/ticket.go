package domain

import (
	"time"

	"github.com/deskops/sla-service/internal/sla"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusOnHold      TicketStatus = "ON_HOLD"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// Valid reports whether s is a known ticket status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser, TicketStatusOnHold,
		TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the ticket is finished and can no longer breach.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// Active reports whether the ticket is still worked on and subject to monitoring.
func (s TicketStatus) Active() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser, TicketStatusOnHold:
		return true
	}
	return false
}

func (s TicketStatus) resolves() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Priority enumerates SLA urgency.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
	PriorityUrgent   Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityMedium, PriorityHigh, PriorityCritical, PriorityUrgent:
		return true
	}
	return false
}

// Tier maps the priority onto the SLA tier used for target lookup.
func (p Priority) Tier() sla.Priority {
	return sla.ParsePriority(string(p))
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	ExternalKey     string
	RequesterID     string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        Priority
	SLAPolicyID     *string
	SLAPaused       bool
	SLAPauseReason  string
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// SLASnapshot exposes the facts the SLA engine evaluates.
func (t *Ticket) SLASnapshot() sla.Snapshot {
	return sla.Snapshot{
		CreatedAt:       t.CreatedAt,
		Priority:        t.Priority.Tier(),
		Status:          string(t.Status),
		Terminal:        t.Status.Terminal(),
		Paused:          t.SLAPaused,
		FirstResponseAt: t.FirstResponseAt,
		CompletedAt:     t.ResolvedAt,
	}
}

// IsSLAPaused reports whether the SLA clock is paused.
func (t *Ticket) IsSLAPaused() bool { return t.SLAPaused }

// SetSLAPaused flips the pause flag; the reason is cleared on resume.
func (t *Ticket) SetSLAPaused(paused bool, reason string) {
	t.SLAPaused = paused
	if paused {
		t.SLAPauseReason = reason
	} else {
		t.SLAPauseReason = ""
	}
}

// TransitionTo moves the ticket to status, maintaining the resolved and closed
// timestamps. Leaving a resolving status clears them again.
func (t *Ticket) TransitionTo(status TicketStatus, now time.Time) {
	if status.resolves() {
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
	} else {
		t.ResolvedAt = nil
	}
	if status == TicketStatusClosed {
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	} else {
		t.ClosedAt = nil
	}
	t.Status = status
	t.UpdatedAt = now
}

// MarkFirstResponse records the first agent reply once. It reports whether the
// timestamp was set by this call.
func (t *Ticket) MarkFirstResponse(at time.Time) bool {
	if t.FirstResponseAt != nil {
		return false
	}
	t.FirstResponseAt = &at
	t.UpdatedAt = at
	return true
}

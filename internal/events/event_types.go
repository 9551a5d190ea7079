package events

import (
	"time"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/sla"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEntityCreated         EventType = "entity_created"
	EventEntityStatusChanged   EventType = "entity_status_changed"
	EventEntityPriorityChanged EventType = "entity_priority_changed"
	EventSLADueComputed        EventType = "sla_due_computed"
	EventSLAPaused             EventType = "sla_paused"
	EventSLAResumed            EventType = "sla_resumed"
	EventSLAFirstResponse      EventType = "sla_first_response"
	EventSLABreached           EventType = "sla_breached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   *string            `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Actor      Actor             `json:"actor"`
	Timestamp  time.Time         `json:"timestamp"`
	Payload    interface{}       `json:"payload"`
}

// EntityCreatedPayload payload.
type EntityCreatedPayload struct {
	Priority domain.Priority `json:"priority"`
	PolicyID *string         `json:"policy_id,omitempty"`
	Title    string          `json:"title"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
}

// DueComputedPayload carries freshly computed deadlines.
type DueComputedPayload struct {
	PolicyID         *string      `json:"policy_id,omitempty"`
	Tier             sla.Priority `json:"tier,omitempty"`
	FirstResponseDue *time.Time   `json:"first_response_due,omitempty"`
	NextResponseDue  *time.Time   `json:"next_response_due,omitempty"`
	ResolutionDue    *time.Time   `json:"resolution_due,omitempty"`
}

// PausePayload payload.
type PausePayload struct {
	Reason string `json:"reason,omitempty"`
}

// FirstResponsePayload payload.
type FirstResponsePayload struct {
	RespondedAt time.Time `json:"responded_at"`
}

// BreachedPayload describes a newly recorded violation.
type BreachedPayload struct {
	ViolationID string            `json:"violation_id"`
	Milestone   sla.MilestoneKind `json:"milestone"`
	DueAt       time.Time         `json:"due_at"`
	DetectedAt  time.Time         `json:"detected_at"`
	ActualAt    *time.Time        `json:"actual_at,omitempty"`
}

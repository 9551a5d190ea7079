package dto

import (
	"time"

	"github.com/deskops/sla-service/internal/domain"
)

// CreateTicketRequest payload. RequesterID is honoured for staff and service
// callers only; end users always file tickets for themselves.
type CreateTicketRequest struct {
	RequesterID string          `json:"requester_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	PolicyID    *string         `json:"sla_policy_id"`
}

// UpdateStatusRequest payload shared by tickets and tasks.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePriorityRequest payload shared by tickets and tasks.
type UpdatePriorityRequest struct {
	Priority domain.Priority `json:"priority"`
	PolicyID *string         `json:"sla_policy_id"`
}

// PauseRequest payload.
type PauseRequest struct {
	Reason string `json:"reason"`
}

// TicketResponse renders a ticket with its stored SLA fields.
type TicketResponse struct {
	ID              string              `json:"id"`
	ExternalKey     string              `json:"external_key"`
	RequesterID     string              `json:"requester_id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          domain.TicketStatus `json:"status"`
	Priority        domain.Priority     `json:"priority"`
	PolicyID        *string             `json:"sla_policy_id"`
	SLAPaused       bool                `json:"is_sla_paused"`
	SLAPauseReason  string              `json:"sla_pause_reason,omitempty"`
	FirstResponseAt *time.Time          `json:"first_response_at"`
	ResolvedAt      *time.Time          `json:"resolved_at"`
	DueDate         *time.Time          `json:"due_date"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	ClosedAt        *time.Time          `json:"closed_at"`
}

// NewTicketResponse maps a ticket to its response shape.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		RequesterID:     t.RequesterID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		PolicyID:        t.SLAPolicyID,
		SLAPaused:       t.SLAPaused,
		SLAPauseReason:  t.SLAPauseReason,
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		DueDate:         t.DueDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
	}
}

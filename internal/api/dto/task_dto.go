package dto

import (
	"time"

	"github.com/deskops/sla-service/internal/domain"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	TicketID    *string         `json:"ticket_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	PolicyID    *string         `json:"sla_policy_id"`
}

// TaskResponse renders a task with its stored SLA fields.
type TaskResponse struct {
	ID             string            `json:"id"`
	TicketID       *string           `json:"ticket_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Status         domain.TaskStatus `json:"status"`
	Priority       domain.Priority   `json:"priority"`
	PolicyID       *string           `json:"sla_policy_id"`
	SLAPaused      bool              `json:"is_sla_paused"`
	SLAPauseReason string            `json:"sla_pause_reason,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at"`
	DueDate        *time.Time        `json:"due_date"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewTaskResponse maps a task to its response shape.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		TicketID:       t.TicketID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		Priority:       t.Priority,
		PolicyID:       t.SLAPolicyID,
		SLAPaused:      t.SLAPaused,
		SLAPauseReason: t.SLAPauseReason,
		CompletedAt:    t.CompletedAt,
		DueDate:        t.DueDate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

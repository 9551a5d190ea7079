package domain

import (
	"time"

	"github.com/deskops/sla-service/internal/sla"
)

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusOnHold     TaskStatus = "ON_HOLD"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusOnHold, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the task is finished and can no longer breach.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Active reports whether the task is subject to monitoring.
func (s TaskStatus) Active() bool {
	return s == TaskStatusOpen || s == TaskStatusInProgress || s == TaskStatusOnHold
}

// Task is an internal work item. Tasks only carry a resolution commitment.
type Task struct {
	ID             string
	TicketID       *string
	Title          string
	Description    string
	Status         TaskStatus
	Priority       Priority
	SLAPolicyID    *string
	SLAPaused      bool
	SLAPauseReason string
	CompletedAt    *time.Time
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SLASnapshot exposes the facts the SLA engine evaluates.
func (t *Task) SLASnapshot() sla.Snapshot {
	return sla.Snapshot{
		CreatedAt:      t.CreatedAt,
		Priority:       t.Priority.Tier(),
		Status:         string(t.Status),
		Terminal:       t.Status.Terminal(),
		Paused:         t.SLAPaused,
		CompletedAt:    t.CompletedAt,
		ResolutionOnly: true,
	}
}

func (t *Task) IsSLAPaused() bool { return t.SLAPaused }

func (t *Task) SetSLAPaused(paused bool, reason string) {
	t.SLAPaused = paused
	if paused {
		t.SLAPauseReason = reason
	} else {
		t.SLAPauseReason = ""
	}
}

// TransitionTo moves the task to status. CompletedAt is set on entering
// COMPLETED and cleared when the task is reopened.
func (t *Task) TransitionTo(status TaskStatus, now time.Time) {
	if status == TaskStatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = status
	t.UpdatedAt = now
}

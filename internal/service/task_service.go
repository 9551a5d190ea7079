package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/sla"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// TaskService coordinates task workflows. Tasks only track a resolution deadline.
type TaskService struct {
	tasks      repository.TaskRepository
	sla        *SLAService
	dispatcher events.Dispatcher
}

// TaskDependencies bundles collaborators for task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	SLA        *SLAService
	Dispatcher events.Dispatcher
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	TicketID    *string
	Title       string
	Description string
	Priority    domain.Priority
	PolicyID    *string
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		sla:        deps.SLA,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTask creates a task and stores its resolution deadline.
func (s *TaskService) CreateTask(ctx context.Context, actor events.Actor, input TaskCreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("invalid task", map[string]any{"title": "required"})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid task", map[string]any{"priority": "unknown priority"})
	}

	policyID := input.PolicyID
	if policyID != nil {
		if err := s.sla.requirePolicy(ctx, policyID); err != nil {
			return nil, err
		}
	} else {
		id, err := s.sla.defaultPolicyID(ctx)
		if err != nil {
			return nil, err
		}
		policyID = id
	}

	now := s.sla.Now()
	task := &domain.Task{
		TicketID:    input.TicketID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TaskStatusOpen,
		Priority:    input.Priority,
		SLAPolicyID: policyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	due, err := s.sla.DueTimes(ctx, task, task.SLAPolicyID)
	if err != nil {
		return nil, err
	}
	task.DueDate = resolutionDue(due)

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventEntityCreated,
		EntityID: task.ID,
		Actor:    actor,
		Payload: events.EntityCreatedPayload{
			Priority: task.Priority,
			PolicyID: task.SLAPolicyID,
			Title:    task.Title,
		},
	})
	s.publishDue(ctx, task.ID, actor, task.SLAPolicyID, due)
	return task, nil
}

// GetTask loads a task.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
		}
		return nil, err
	}
	return task, nil
}

// ListTasks returns tasks matching filter. The page size defaults to 20.
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.tasks.ListWithFilter(ctx, filter)
}

// UpdateStatus changes the task status. Any status can follow any other; leaving
// COMPLETED clears the completion timestamp.
func (s *TaskService) UpdateStatus(ctx context.Context, actor events.Actor, taskID string, newStatus domain.TaskStatus) (*domain.Task, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == newStatus {
		return task, nil
	}

	oldStatus := task.Status
	task.TransitionTo(newStatus, s.sla.Now())
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventEntityStatusChanged,
		EntityID: task.ID,
		Actor:    actor,
		Payload:  events.StatusChangedPayload{OldStatus: string(oldStatus), NewStatus: string(newStatus)},
	})
	return task, nil
}

// UpdatePriority changes priority and optionally policy, recomputing the deadline.
func (s *TaskService) UpdatePriority(ctx context.Context, actor events.Actor, taskID string, newPriority domain.Priority, policyID *string) (*domain.Task, error) {
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}
	if err := s.sla.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	oldPriority := task.Priority
	task.Priority = newPriority
	if policyID != nil {
		task.SLAPolicyID = policyID
	}
	due, err := s.sla.DueTimes(ctx, task, task.SLAPolicyID)
	if err != nil {
		return nil, err
	}
	task.DueDate = resolutionDue(due)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if oldPriority != newPriority {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventEntityPriorityChanged,
			EntityID: task.ID,
			Actor:    actor,
			Payload:  events.PriorityChangedPayload{OldPriority: oldPriority, NewPriority: newPriority},
		})
	}
	s.publishDue(ctx, task.ID, actor, task.SLAPolicyID, due)
	return task, nil
}

// PauseSLA stops the task's SLA clock.
func (s *TaskService) PauseSLA(ctx context.Context, actor events.Actor, taskID, reason string) (*domain.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !sla.Pause(task, strings.TrimSpace(reason)) {
		return task, nil
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLAPaused,
		EntityID: task.ID,
		Actor:    actor,
		Payload:  events.PausePayload{Reason: task.SLAPauseReason},
	})
	return task, nil
}

// ResumeSLA restarts the task's SLA clock.
func (s *TaskService) ResumeSLA(ctx context.Context, actor events.Actor, taskID string) (*domain.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !sla.Resume(task) {
		return task, nil
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLAResumed,
		EntityID: task.ID,
		Actor:    actor,
		Payload:  events.PausePayload{},
	})
	return task, nil
}

// SLAStatus evaluates the task's SLA at the current instant.
func (s *TaskService) SLAStatus(ctx context.Context, taskID string) (*domain.Task, *SLAReport, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.sla.Report(ctx, task, task.SLAPolicyID)
	if err != nil {
		return nil, nil, err
	}
	return task, report, nil
}

func (s *TaskService) publishEvent(ctx context.Context, event events.Event) {
	event.EntityType = domain.EntityTask
	publish(ctx, s.dispatcher, event)
}

func (s *TaskService) publishDue(ctx context.Context, taskID string, actor events.Actor, policyID *string, due *sla.DueTimes) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLADueComputed,
		EntityID: taskID,
		Actor:    actor,
		Payload:  duePayload(policyID, due),
	})
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/sla"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows and keeps their SLA data current.
type TicketService struct {
	tickets    repository.TicketRepository
	sla        *SLAService
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	SLA        *SLAService
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	RequesterID string
	Title       string
	Description string
	Priority    domain.Priority
	PolicyID    *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		sla:        deps.SLA,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a ticket and stores its resolution deadline. Without an
// explicit policy the default policy applies.
func (s *TicketService) CreateTicket(ctx context.Context, actor events.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"title": "required"})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"priority": "unknown priority"})
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
	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: input.RequesterID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		SLAPolicyID: policyID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	due, err := s.sla.DueTimes(ctx, ticket, ticket.SLAPolicyID)
	if err != nil {
		return nil, err
	}
	ticket.DueDate = resolutionDue(due)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventEntityCreated,
		EntityID: ticket.ID,
		Actor:    actor,
		Payload: events.EntityCreatedPayload{
			Priority: ticket.Priority,
			PolicyID: ticket.SLAPolicyID,
			Title:    ticket.Title,
		},
	})
	s.publishDue(ctx, ticket.ID, actor, ticket.SLAPolicyID, due)
	return ticket, nil
}

// GetTicket loads a ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns tickets matching filter. The page size defaults to 20.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// UpdateStatus moves a ticket through its lifecycle. Reopening a resolved or
// closed ticket clears its resolution timestamp.
func (s *TicketService) UpdateStatus(ctx context.Context, actor events.Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("status transition not allowed", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	ticket.TransitionTo(newStatus, s.sla.Now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventEntityStatusChanged,
		EntityID: ticket.ID,
		Actor:    actor,
		Payload:  events.StatusChangedPayload{OldStatus: string(oldStatus), NewStatus: string(newStatus)},
	})
	return ticket, nil
}

// UpdatePriority changes the priority and optionally the policy, recomputing the
// stored deadline.
func (s *TicketService) UpdatePriority(ctx context.Context, actor events.Actor, ticketID string, newPriority domain.Priority, policyID *string) (*domain.Ticket, error) {
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}
	if err := s.sla.requirePolicy(ctx, policyID); err != nil {
		return nil, err
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if policyID != nil {
		ticket.SLAPolicyID = policyID
	}
	due, err := s.sla.DueTimes(ctx, ticket, ticket.SLAPolicyID)
	if err != nil {
		return nil, err
	}
	ticket.DueDate = resolutionDue(due)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if oldPriority != newPriority {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventEntityPriorityChanged,
			EntityID: ticket.ID,
			Actor:    actor,
			Payload:  events.PriorityChangedPayload{OldPriority: oldPriority, NewPriority: newPriority},
		})
	}
	s.publishDue(ctx, ticket.ID, actor, ticket.SLAPolicyID, due)
	return ticket, nil
}

// MarkFirstResponse records the first agent response. Later calls leave the
// original timestamp untouched.
func (s *TicketService) MarkFirstResponse(ctx context.Context, actor events.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.MarkFirstResponse(s.sla.Now()) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLAFirstResponse,
		EntityID: ticket.ID,
		Actor:    actor,
		Payload:  events.FirstResponsePayload{RespondedAt: *ticket.FirstResponseAt},
	})
	return ticket, nil
}

// PauseSLA stops the SLA clock. Pausing an already paused ticket is a no-op.
func (s *TicketService) PauseSLA(ctx context.Context, actor events.Actor, ticketID, reason string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !sla.Pause(ticket, strings.TrimSpace(reason)) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLAPaused,
		EntityID: ticket.ID,
		Actor:    actor,
		Payload:  events.PausePayload{Reason: ticket.SLAPauseReason},
	})
	return ticket, nil
}

// ResumeSLA restarts the SLA clock. Deadlines are not extended.
func (s *TicketService) ResumeSLA(ctx context.Context, actor events.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !sla.Resume(ticket) {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLAResumed,
		EntityID: ticket.ID,
		Actor:    actor,
		Payload:  events.PausePayload{},
	})
	return ticket, nil
}

// SLAStatus evaluates the ticket's SLA at the current instant.
func (s *TicketService) SLAStatus(ctx context.Context, ticketID string) (*domain.Ticket, *SLAReport, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.sla.Report(ctx, ticket, ticket.SLAPolicyID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, report, nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	event.EntityType = domain.EntityTicket
	publish(ctx, s.dispatcher, event)
}

func (s *TicketService) publishDue(ctx context.Context, ticketID string, actor events.Actor, policyID *string, due *sla.DueTimes) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventSLADueComputed,
		EntityID: ticketID,
		Actor:    actor,
		Payload:  duePayload(policyID, due),
	})
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:        {domain.TicketStatusInProgress, domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingUser, domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled},
	domain.TicketStatusPendingUser: {domain.TicketStatusInProgress, domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled},
	domain.TicketStatusOnHold:      {domain.TicketStatusInProgress, domain.TicketStatusPendingUser, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:      {domain.TicketStatusInProgress},
	domain.TicketStatusCancelled:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

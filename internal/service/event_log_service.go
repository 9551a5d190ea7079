package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/observability"
)

// EventLogService writes an audit trail of SLA events to the structured log and
// keeps the SLA metrics current.
type EventLogService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewEventLogService creates the service.
func NewEventLogService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *EventLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *EventLogService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEntityCreated, n.handleAudit)
	n.dispatcher.Subscribe(events.EventEntityStatusChanged, n.handleAudit)
	n.dispatcher.Subscribe(events.EventEntityPriorityChanged, n.handleAudit)
	n.dispatcher.Subscribe(events.EventSLAPaused, n.handleAudit)
	n.dispatcher.Subscribe(events.EventSLAResumed, n.handleAudit)
	n.dispatcher.Subscribe(events.EventSLAFirstResponse, n.handleAudit)
	n.dispatcher.Subscribe(events.EventSLADueComputed, n.handleDueComputed)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleBreached)
}

func (n *EventLogService) handleAudit(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), n.fields(event)...)
	return nil
}

func (n *EventLogService) handleDueComputed(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.DueComputedPayload)
	n.metrics.RecordDueComputed(string(event.EntityType), payload.ResolutionDue != nil)
	if payload.PolicyID != nil && payload.ResolutionDue == nil {
		n.logger.Warn("no resolution deadline could be computed", n.fields(event)...)
		return nil
	}
	n.logger.Info(string(event.Type), n.fields(event)...)
	return nil
}

func (n *EventLogService) handleBreached(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.BreachedPayload)
	n.metrics.RecordBreach(string(event.EntityType), string(payload.Milestone))
	n.logger.Warn(string(event.Type), n.fields(event)...)
	return nil
}

func (n *EventLogService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("entity_type", string(event.EntityType)),
		zap.String("entity_id", event.EntityID),
		zap.String("actor_type", string(event.Actor.Type)),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.ID != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.ID))
	}
	return fields
}

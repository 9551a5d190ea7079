package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/sla"
)

// SystemActor identifies work done by the service itself, such as monitor sweeps.
func SystemActor() events.Actor {
	return events.Actor{Type: domain.SubjectTypeService}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func resolutionDue(due *sla.DueTimes) *time.Time {
	if due == nil {
		return nil
	}
	return due.Resolution
}

func duePayload(policyID *string, due *sla.DueTimes) events.DueComputedPayload {
	payload := events.DueComputedPayload{PolicyID: policyID}
	if due == nil {
		return payload
	}
	if due.Target != nil {
		payload.Tier = due.Target.Priority
	}
	payload.FirstResponseDue = due.FirstResponse
	payload.NextResponseDue = due.NextResponse
	payload.ResolutionDue = due.Resolution
	return payload
}

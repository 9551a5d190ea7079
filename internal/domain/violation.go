package domain

import (
	"time"

	"github.com/deskops/sla-service/internal/sla"
)

// EntityType names the kind of tracked record a violation belongs to.
type EntityType string

const (
	EntityTicket EntityType = "TICKET"
	EntityTask   EntityType = "TASK"
)

// Violation is the durable record of a breached milestone. At most one exists
// per entity and milestone.
type Violation struct {
	ID         string
	EntityType EntityType
	EntityID   string
	PolicyID   *string
	Milestone  sla.MilestoneKind
	TargetTime time.Time
	BreachTime time.Time
	ActualTime *time.Time
	CreatedAt  time.Time
}

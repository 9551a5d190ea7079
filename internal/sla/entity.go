package sla

import "time"

// Snapshot is the read-only view of a tracked entity the engine works on.
type Snapshot struct {
	CreatedAt       time.Time
	Priority        Priority
	Status          string
	Terminal        bool
	Paused          bool
	FirstResponseAt *time.Time
	CompletedAt     *time.Time
	// ResolutionOnly limits evaluation to the resolution milestone, for entities
	// that have no response lifecycle.
	ResolutionOnly bool
}

// Entity is anything whose SLA can be tracked, e.g. tickets and tasks.
type Entity interface {
	SLASnapshot() Snapshot
}

// Pausable is an entity whose SLA clock can be paused.
type Pausable interface {
	IsSLAPaused() bool
	SetSLAPaused(paused bool, reason string)
}

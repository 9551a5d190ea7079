package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskops/sla-service/internal/sla"
)

func TestTicketStatusClassification(t *testing.T) {
	tests := []struct {
		status   TicketStatus
		terminal bool
		active   bool
	}{
		{TicketStatusOpen, false, true},
		{TicketStatusInProgress, false, true},
		{TicketStatusPendingUser, false, true},
		{TicketStatusOnHold, false, true},
		{TicketStatusResolved, false, false},
		{TicketStatusClosed, true, false},
		{TicketStatusCancelled, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.Equal(t, tt.active, tt.status.Active())
		})
	}
	assert.False(t, TicketStatus("ARCHIVED").Valid())
}

func TestPriorityTier(t *testing.T) {
	assert.Equal(t, sla.PriorityHigh, PriorityHigh.Tier())
	assert.Equal(t, sla.PriorityNormal, PriorityNormal.Tier())
	assert.False(t, Priority("SEVERE").Valid())
}

func TestTicketTransitionTimestamps(t *testing.T) {
	created := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	tk := &Ticket{Status: TicketStatusOpen, CreatedAt: created}

	resolvedAt := created.Add(2 * time.Hour)
	tk.TransitionTo(TicketStatusResolved, resolvedAt)
	require.NotNil(t, tk.ResolvedAt)
	assert.Equal(t, resolvedAt, *tk.ResolvedAt)
	assert.Nil(t, tk.ClosedAt)

	tk.TransitionTo(TicketStatusClosed, resolvedAt.Add(time.Hour))
	assert.Equal(t, resolvedAt, *tk.ResolvedAt, "resolved_at is kept when closing")
	require.NotNil(t, tk.ClosedAt)

	tk.TransitionTo(TicketStatusInProgress, resolvedAt.Add(2*time.Hour))
	assert.Nil(t, tk.ResolvedAt)
	assert.Nil(t, tk.ClosedAt)
}

func TestTicketSnapshotAndPause(t *testing.T) {
	created := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	tk := &Ticket{Status: TicketStatusClosed, Priority: PriorityUrgent, CreatedAt: created}

	assert.True(t, tk.MarkFirstResponse(created.Add(time.Minute)))
	assert.False(t, tk.MarkFirstResponse(created.Add(time.Hour)))

	snap := tk.SLASnapshot()
	assert.Equal(t, sla.PriorityUrgent, snap.Priority)
	assert.True(t, snap.Terminal)
	assert.False(t, snap.ResolutionOnly)
	assert.Equal(t, created.Add(time.Minute), *snap.FirstResponseAt)

	assert.True(t, sla.Pause(tk, "waiting on vendor"))
	assert.Equal(t, "waiting on vendor", tk.SLAPauseReason)
	assert.True(t, tk.SLASnapshot().Paused)
	assert.True(t, sla.Resume(tk))
	assert.Empty(t, tk.SLAPauseReason)
}

func TestTaskTransitionAndSnapshot(t *testing.T) {
	created := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	task := &Task{Status: TaskStatusOpen, Priority: PriorityLow, CreatedAt: created}

	task.TransitionTo(TaskStatusCompleted, created.Add(time.Hour))
	require.NotNil(t, task.CompletedAt)
	snap := task.SLASnapshot()
	assert.True(t, snap.ResolutionOnly)
	assert.True(t, snap.Terminal)
	assert.Nil(t, snap.FirstResponseAt)

	task.TransitionTo(TaskStatusInProgress, created.Add(2*time.Hour))
	assert.Nil(t, task.CompletedAt)
	assert.False(t, task.SLASnapshot().Terminal)
}

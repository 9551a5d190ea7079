package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/observability"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/sla"
)

// MonitorService sweeps active entities for breached milestones and records
// each breach once. Sweeps run on demand; scheduling is left to the caller.
type MonitorService struct {
	tickets     repository.TicketRepository
	tasks       repository.TaskRepository
	violations  repository.ViolationRepository
	sla         *SLAService
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	concurrency int
	batchSize   int
}

// MonitorDependencies bundles collaborators for MonitorService.
type MonitorDependencies struct {
	TicketRepo    repository.TicketRepository
	TaskRepo      repository.TaskRepository
	ViolationRepo repository.ViolationRepository
	SLA           *SLAService
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Concurrency   int
	BatchSize     int
}

// MonitorOptions tunes a single sweep.
type MonitorOptions struct {
	// DryRun reports breaches without recording violations or publishing events.
	DryRun bool
}

// BreachFinding is one breached milestone found during a sweep.
type BreachFinding struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Milestone  sla.MilestoneKind `json:"milestone"`
	DueAt      time.Time         `json:"due_at"`
	ActualAt   *time.Time        `json:"actual_at,omitempty"`
	Recorded   bool              `json:"recorded"`
}

// MonitorReport summarizes a sweep.
type MonitorReport struct {
	StartedAt      time.Time       `json:"started_at"`
	DryRun         bool            `json:"dry_run"`
	TicketsChecked int             `json:"tickets_checked"`
	TasksChecked   int             `json:"tasks_checked"`
	Recorded       int             `json:"recorded"`
	Failed         int             `json:"failed"`
	Breaches       []BreachFinding `json:"breaches"`
	Duration       time.Duration   `json:"duration"`
}

// NewMonitorService constructs the service.
func NewMonitorService(deps MonitorDependencies) *MonitorService {
	m := &MonitorService{
		tickets:     deps.TicketRepo,
		tasks:       deps.TaskRepo,
		violations:  deps.ViolationRepo,
		sla:         deps.SLA,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		concurrency: deps.Concurrency,
		batchSize:   deps.BatchSize,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.concurrency <= 0 {
		m.concurrency = 4
	}
	if m.batchSize <= 0 {
		m.batchSize = 500
	}
	return m
}

// Violations lists the breaches recorded for one entity.
func (m *MonitorService) Violations(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Violation, error) {
	return m.violations.ListByEntity(ctx, entityType, entityID)
}

type monitored struct {
	kind     domain.EntityType
	id       string
	policyID *string
	entity   sla.Entity
}

type sweep struct {
	*MonitorService
	opts     MonitorOptions
	now      time.Time
	calendar *sla.Calendar

	mu       sync.Mutex
	policies map[string]*sla.Policy
	report   *MonitorReport
}

// Run performs one sweep over active, unpaused tickets and tasks that carry a policy.
func (m *MonitorService) Run(ctx context.Context, opts MonitorOptions) (*MonitorReport, error) {
	started := time.Now()
	cal, err := m.sla.Calendar(ctx)
	if err != nil {
		m.metrics.RecordMonitorRun("error", time.Since(started))
		return nil, err
	}

	now := m.sla.Now()
	sw := &sweep{
		MonitorService: m,
		opts:           opts,
		now:            now,
		calendar:       cal,
		policies:       make(map[string]*sla.Policy),
		report:         &MonitorReport{StartedAt: now, DryRun: opts.DryRun, Breaches: []BreachFinding{}},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sw.sweepTickets(gctx) })
	g.Go(func() error { return sw.sweepTasks(gctx) })
	if err := g.Wait(); err != nil {
		m.metrics.RecordMonitorRun("error", time.Since(started))
		m.logger.Error("sla monitor sweep failed", zap.Error(err))
		return nil, err
	}

	sw.report.Duration = time.Since(started)
	m.metrics.RecordMonitorRun("ok", sw.report.Duration)
	m.logger.Info("sla monitor sweep completed",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("tickets_checked", sw.report.TicketsChecked),
		zap.Int("tasks_checked", sw.report.TasksChecked),
		zap.Int("breaches", len(sw.report.Breaches)),
		zap.Int("recorded", sw.report.Recorded),
		zap.Int("failed", sw.report.Failed),
		zap.Duration("duration", sw.report.Duration))
	return sw.report, nil
}

func (sw *sweep) sweepTickets(ctx context.Context) error {
	unpaused := false
	filter := repository.TicketFilter{
		Statuses:  activeTicketStatuses(),
		Paused:    &unpaused,
		HasPolicy: true,
		Keyset:    true,
		Limit:     sw.batchSize,
	}
	for {
		page, err := sw.tickets.ListWithFilter(ctx, filter)
		if err != nil {
			return err
		}
		items := make([]monitored, 0, len(page))
		for i := range page {
			t := &page[i]
			items = append(items, monitored{kind: domain.EntityTicket, id: t.ID, policyID: t.SLAPolicyID, entity: t})
		}
		if err := sw.evaluateAll(ctx, items); err != nil {
			return err
		}
		sw.mu.Lock()
		sw.report.TicketsChecked += len(page)
		sw.mu.Unlock()
		if len(page) < sw.batchSize {
			return nil
		}
		filter.AfterID = page[len(page)-1].ID
	}
}

func (sw *sweep) sweepTasks(ctx context.Context) error {
	unpaused := false
	filter := repository.TaskFilter{
		Statuses:  activeTaskStatuses(),
		Paused:    &unpaused,
		HasPolicy: true,
		Keyset:    true,
		Limit:     sw.batchSize,
	}
	for {
		page, err := sw.tasks.ListWithFilter(ctx, filter)
		if err != nil {
			return err
		}
		items := make([]monitored, 0, len(page))
		for i := range page {
			t := &page[i]
			items = append(items, monitored{kind: domain.EntityTask, id: t.ID, policyID: t.SLAPolicyID, entity: t})
		}
		if err := sw.evaluateAll(ctx, items); err != nil {
			return err
		}
		sw.mu.Lock()
		sw.report.TasksChecked += len(page)
		sw.mu.Unlock()
		if len(page) < sw.batchSize {
			return nil
		}
		filter.AfterID = page[len(page)-1].ID
	}
}

func (sw *sweep) evaluateAll(ctx context.Context, items []monitored) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sw.concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error { return sw.evaluate(gctx, item) })
	}
	return g.Wait()
}

func (sw *sweep) evaluate(ctx context.Context, item monitored) error {
	snap := item.entity.SLASnapshot()
	if snap.Paused || snap.Terminal {
		return nil
	}
	policy, err := sw.policy(ctx, item.policyID)
	if err != nil {
		return err
	}
	status := sla.GetStatus(item.entity, policy, sw.calendar, sw.now)
	if !status.Breached {
		return nil
	}

	for _, ms := range status.Milestones() {
		if ms.State != sla.StateBreached || ms.Due == nil {
			continue
		}
		finding := BreachFinding{
			EntityType: item.kind,
			EntityID:   item.id,
			Milestone:  ms.Kind,
			DueAt:      *ms.Due,
			ActualAt:   ms.Actual,
		}
		if !sw.opts.DryRun {
			recorded, err := sw.record(ctx, item, policy, ms)
			if err != nil {
				sw.logger.Warn("recording sla violation failed",
					zap.String("entity_type", string(item.kind)),
					zap.String("entity_id", item.id),
					zap.String("milestone", string(ms.Kind)),
					zap.Error(err))
				sw.mu.Lock()
				sw.report.Failed++
				sw.mu.Unlock()
				continue
			}
			finding.Recorded = recorded
		}

		sw.mu.Lock()
		sw.report.Breaches = append(sw.report.Breaches, finding)
		if finding.Recorded {
			sw.report.Recorded++
		}
		sw.mu.Unlock()
	}
	return nil
}

func (sw *sweep) record(ctx context.Context, item monitored, policy *sla.Policy, ms *sla.Milestone) (bool, error) {
	v := &domain.Violation{
		EntityType: item.kind,
		EntityID:   item.id,
		Milestone:  ms.Kind,
		TargetTime: *ms.Due,
		BreachTime: sw.now,
		ActualTime: ms.Actual,
	}
	if policy != nil && policy.ID != "" {
		id := policy.ID
		v.PolicyID = &id
	}
	inserted, err := sw.violations.CreateIfAbsent(ctx, v)
	if err != nil || !inserted {
		return false, err
	}
	publish(ctx, sw.dispatcher, events.Event{
		Type:       events.EventSLABreached,
		EntityType: item.kind,
		EntityID:   item.id,
		Actor:      SystemActor(),
		Payload: events.BreachedPayload{
			ViolationID: v.ID,
			Milestone:   ms.Kind,
			DueAt:       v.TargetTime,
			DetectedAt:  v.BreachTime,
			ActualAt:    v.ActualTime,
		},
	})
	return true, nil
}

func (sw *sweep) policy(ctx context.Context, id *string) (*sla.Policy, error) {
	if id == nil {
		return nil, nil
	}
	sw.mu.Lock()
	p, ok := sw.policies[*id]
	sw.mu.Unlock()
	if ok {
		return p, nil
	}
	p, err := sw.sla.Policy(ctx, id)
	if err != nil {
		return nil, err
	}
	sw.mu.Lock()
	sw.policies[*id] = p
	sw.mu.Unlock()
	return p, nil
}

func activeTicketStatuses() []domain.TicketStatus {
	return []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusPendingUser,
		domain.TicketStatusOnHold,
	}
}

func activeTaskStatuses() []domain.TaskStatus {
	return []domain.TaskStatus{
		domain.TaskStatusOpen,
		domain.TaskStatusInProgress,
		domain.TaskStatusOnHold,
	}
}

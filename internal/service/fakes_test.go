package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/sla"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = fmt.Sprintf("ticket-%03d", r.seq)
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	r.tickets[t.ID] = *t
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[t.ID] = *t
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ExternalKey == key {
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
			continue
		}
		if f.Paused != nil && t.SLAPaused != *f.Paused {
			continue
		}
		if f.HasPolicy && t.SLAPolicyID == nil {
			continue
		}
		if f.AfterID != "" && t.ID <= f.AfterID {
			continue
		}
		out = append(out, t)
	}
	sortPage(out, f.Keyset || f.AfterID != "", func(t domain.Ticket) (string, time.Time) { return t.ID, t.UpdatedAt })
	return paginate(out, f.Limit, f.Offset), nil
}

// sortPage mirrors the repository ordering: id ascending for keyset walks,
// most recently updated first otherwise.
func sortPage[T any](rows []T, keyset bool, key func(T) (string, time.Time)) {
	sort.SliceStable(rows, func(i, j int) bool {
		idI, updatedI := key(rows[i])
		idJ, updatedJ := key(rows[j])
		if keyset || updatedI.Equal(updatedJ) {
			return idI < idJ
		}
		return updatedI.After(updatedJ)
	})
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func containsStatus[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]domain.Task{}}
}

func (r *fakeTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = fmt.Sprintf("task-%03d", r.seq)
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *fakeTaskRepo) ListWithFilter(_ context.Context, f repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, t := range r.tasks {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
			continue
		}
		if f.Paused != nil && t.SLAPaused != *f.Paused {
			continue
		}
		if f.HasPolicy && t.SLAPolicyID == nil {
			continue
		}
		if f.AfterID != "" && t.ID <= f.AfterID {
			continue
		}
		out = append(out, t)
	}
	sortPage(out, f.Keyset || f.AfterID != "", func(t domain.Task) (string, time.Time) { return t.ID, t.UpdatedAt })
	return paginate(out, f.Limit, f.Offset), nil
}

type fakePolicyRepo struct {
	mu       sync.Mutex
	seq      int
	policies map[string]sla.Policy
	gets     int
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: map[string]sla.Policy{}}
}

func (r *fakePolicyRepo) Create(_ context.Context, p *sla.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = fmt.Sprintf("policy-%d", r.seq)
	if p.Default {
		for id, existing := range r.policies {
			existing.Default = false
			r.policies[id] = existing
		}
	}
	r.policies[p.ID] = *p
	return nil
}

func (r *fakePolicyRepo) GetByID(_ context.Context, id string) (*sla.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	p, ok := r.policies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *fakePolicyRepo) GetDefault(_ context.Context) (*sla.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.policies {
		if p.Default {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePolicyRepo) List(_ context.Context) ([]sla.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sla.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeCalendarRepo struct {
	mu       sync.Mutex
	days     []sla.BusinessDay
	holidays []sla.Holiday
}

func (r *fakeCalendarRepo) ReplaceDays(_ context.Context, days []sla.BusinessDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append([]sla.BusinessDay(nil), days...)
	return nil
}

func (r *fakeCalendarRepo) ListDays(_ context.Context) ([]sla.BusinessDay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sla.BusinessDay(nil), r.days...), nil
}

func (r *fakeCalendarRepo) AddHoliday(_ context.Context, h *sla.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = fmt.Sprintf("holiday-%d", len(r.holidays)+1)
	r.holidays = append(r.holidays, *h)
	return nil
}

func (r *fakeCalendarRepo) ListHolidays(_ context.Context) ([]sla.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sla.Holiday(nil), r.holidays...), nil
}

type fakeViolationRepo struct {
	mu         sync.Mutex
	violations map[string]domain.Violation
	failFor    string
}

func newFakeViolationRepo() *fakeViolationRepo {
	return &fakeViolationRepo{violations: map[string]domain.Violation{}}
}

func (r *fakeViolationRepo) CreateIfAbsent(_ context.Context, v *domain.Violation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.EntityID == r.failFor {
		return false, fmt.Errorf("insert violation for %s: connection reset", v.EntityID)
	}
	key := string(v.EntityType) + "/" + v.EntityID + "/" + string(v.Milestone)
	if _, ok := r.violations[key]; ok {
		return false, nil
	}
	v.ID = fmt.Sprintf("violation-%d", len(r.violations)+1)
	r.violations[key] = *v
	return true, nil
}

func (r *fakeViolationRepo) ListByEntity(_ context.Context, entityType domain.EntityType, entityID string) ([]domain.Violation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Violation
	for _, v := range r.violations {
		if v.EntityType == entityType && v.EntityID == entityID {
			out = append(out, v)
		}
	}
	return out, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(d events.Dispatcher, types ...events.EventType) *eventRecorder {
	rec := &eventRecorder{}
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, e)
			return nil
		})
	}
	return rec
}

func (r *eventRecorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

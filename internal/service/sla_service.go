package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/cache"
	"github.com/deskops/sla-service/internal/calendarfile"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/sla"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// SLAService loads SLA configuration and runs the engine against tracked entities.
type SLAService struct {
	policies repository.PolicyRepository
	calendar repository.CalendarRepository
	cache    *cache.ConfigCache
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// SLADependencies bundles collaborators for SLAService.
type SLADependencies struct {
	PolicyRepo   repository.PolicyRepository
	CalendarRepo repository.CalendarRepository
	Cache        *cache.ConfigCache
	Location     *time.Location
	Logger       *zap.Logger
	Clock        func() time.Time
}

// SLAReport is the live SLA picture of one entity.
type SLAReport struct {
	Status  sla.Status
	Elapsed sla.ElapsedTime
	Due     *sla.DueTimes
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	s := &SLAService{
		policies: deps.PolicyRepo,
		calendar: deps.CalendarRepo,
		cache:    deps.Cache,
		loc:      deps.Location,
		logger:   deps.Logger,
		now:      deps.Clock,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Now returns the service clock reading.
func (s *SLAService) Now() time.Time {
	return s.now()
}

// Location returns the zone business hours are expressed in.
func (s *SLAService) Location() *time.Location {
	return s.loc
}

// Calendar returns the current business calendar snapshot.
func (s *SLAService) Calendar(ctx context.Context) (*sla.Calendar, error) {
	snap, err := s.CalendarConfig(ctx)
	if err != nil {
		return nil, err
	}
	return sla.NewCalendar(snap.Days, snap.Holidays, s.loc), nil
}

// CalendarConfig returns the stored calendar rows.
func (s *SLAService) CalendarConfig(ctx context.Context) (*cache.CalendarSnapshot, error) {
	if snap, ok := s.cache.Calendar(ctx); ok {
		return snap, nil
	}
	days, err := s.calendar.ListDays(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := s.calendar.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	snap := &cache.CalendarSnapshot{Days: days, Holidays: holidays}
	s.cache.StoreCalendar(ctx, snap)
	return snap, nil
}

// Policy loads a policy by id. A nil id or a policy that no longer exists yields nil.
func (s *SLAService) Policy(ctx context.Context, id *string) (*sla.Policy, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	if p, ok := s.cache.Policy(ctx, *id); ok {
		return p, nil
	}
	p, err := s.policies.GetByID(ctx, *id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.StorePolicy(ctx, *id, p)
	return p, nil
}

// DefaultPolicy returns the policy assigned to new entities, or nil if none is marked.
func (s *SLAService) DefaultPolicy(ctx context.Context) (*sla.Policy, error) {
	if p, ok := s.cache.Policy(ctx, ""); ok {
		return p, nil
	}
	p, err := s.policies.GetDefault(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.StorePolicy(ctx, "", p)
	return p, nil
}

// DueTimes computes deadlines for e under the given policy.
func (s *SLAService) DueTimes(ctx context.Context, e sla.Entity, policyID *string) (*sla.DueTimes, error) {
	policy, err := s.Policy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	cal, err := s.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	return sla.CalculateDueTimes(e, policy, cal), nil
}

// Report evaluates e at the current instant.
func (s *SLAService) Report(ctx context.Context, e sla.Entity, policyID *string) (*SLAReport, error) {
	policy, err := s.Policy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	cal, err := s.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	due := sla.CalculateDueTimes(e, policy, cal)
	return &SLAReport{
		Status:  sla.Evaluate(e, policy, due, now),
		Elapsed: sla.Elapsed(e, cal, now),
		Due:     due,
	}, nil
}

// CreatePolicy validates and stores a policy.
func (s *SLAService) CreatePolicy(ctx context.Context, p *sla.Policy) error {
	for i := range p.Targets {
		p.Targets[i].Priority = sla.ParsePriority(string(p.Targets[i].Priority))
	}
	if err := sla.ValidatePolicy(*p); err != nil {
		return err
	}
	if err := s.policies.Create(ctx, p); err != nil {
		return err
	}
	s.cache.InvalidatePolicies(ctx, p.ID)
	s.logger.Info("sla policy created", zap.String("policy_id", p.ID), zap.String("name", p.Name))
	return nil
}

// ListPolicies returns every stored policy.
func (s *SLAService) ListPolicies(ctx context.Context) ([]sla.Policy, error) {
	return s.policies.List(ctx)
}

// ReplaceBusinessDays swaps the weekly schedule.
func (s *SLAService) ReplaceBusinessDays(ctx context.Context, days []sla.BusinessDay) error {
	if err := sla.ValidateBusinessDays(days); err != nil {
		return err
	}
	if err := s.calendar.ReplaceDays(ctx, days); err != nil {
		return err
	}
	s.cache.InvalidateCalendar(ctx)
	return nil
}

// AddHoliday stores a holiday.
func (s *SLAService) AddHoliday(ctx context.Context, h *sla.Holiday) error {
	if err := sla.ValidateHoliday(*h); err != nil {
		return err
	}
	if err := s.calendar.AddHoliday(ctx, h); err != nil {
		return err
	}
	s.cache.InvalidateCalendar(ctx)
	return nil
}

// Seed loads file-based configuration into empty stores. Existing working days
// and policies with the same name are left alone.
func (s *SLAService) Seed(ctx context.Context, cal *calendarfile.Calendar, policies []sla.Policy) error {
	if cal != nil {
		days, err := s.calendar.ListDays(ctx)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			if err := s.ReplaceBusinessDays(ctx, cal.Days); err != nil {
				return err
			}
			for i := range cal.Holidays {
				if err := s.AddHoliday(ctx, &cal.Holidays[i]); err != nil {
					return err
				}
			}
			s.logger.Info("business calendar seeded", zap.Int("days", len(cal.Days)), zap.Int("holidays", len(cal.Holidays)))
		}
	}

	if len(policies) == 0 {
		return nil
	}
	existing, err := s.policies.List(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		names[p.Name] = struct{}{}
	}
	for i := range policies {
		if _, ok := names[policies[i].Name]; ok {
			continue
		}
		if err := s.CreatePolicy(ctx, &policies[i]); err != nil {
			return err
		}
	}
	return nil
}

// requirePolicy checks an explicitly requested policy exists.
func (s *SLAService) requirePolicy(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	p, err := s.Policy(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return apperrors.NewNotFound("sla policy", map[string]any{"policy_id": *id})
	}
	return nil
}

// defaultPolicyID returns the id of the default policy, or nil.
func (s *SLAService) defaultPolicyID(ctx context.Context) (*string, error) {
	p, err := s.DefaultPolicy(ctx)
	if err != nil || p == nil {
		return nil, err
	}
	id := p.ID
	return &id, nil
}

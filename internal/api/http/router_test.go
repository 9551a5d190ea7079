package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/api/http/handlers"
	"github.com/deskops/sla-service/internal/auth"
	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/observability"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/service"
	"github.com/deskops/sla-service/internal/sla"
)

type memTickets struct {
	mu    sync.Mutex
	items map[string]domain.Ticket
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = fmt.Sprintf("ticket-%d", len(m.items)+1)
	m.items[t.ID] = *t
	return nil
}

func (m *memTickets) Update(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[t.ID] = *t
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *memTickets) GetByExternalKey(context.Context, string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (m *memTickets) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.items {
		if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type memPolicies struct {
	mu    sync.Mutex
	items []sla.Policy
}

func (m *memPolicies) Create(_ context.Context, p *sla.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = fmt.Sprintf("policy-%d", len(m.items)+1)
	m.items = append(m.items, *p)
	return nil
}

func (m *memPolicies) GetByID(_ context.Context, id string) (*sla.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memPolicies) GetDefault(_ context.Context) (*sla.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].Default {
			p := m.items[i]
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memPolicies) List(context.Context) ([]sla.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sla.Policy(nil), m.items...), nil
}

type memCalendar struct {
	days     []sla.BusinessDay
	holidays []sla.Holiday
}

func (m *memCalendar) ReplaceDays(_ context.Context, days []sla.BusinessDay) error {
	m.days = days
	return nil
}

func (m *memCalendar) ListDays(context.Context) ([]sla.BusinessDay, error) { return m.days, nil }

func (m *memCalendar) AddHoliday(_ context.Context, h *sla.Holiday) error {
	h.ID = fmt.Sprintf("holiday-%d", len(m.holidays)+1)
	m.holidays = append(m.holidays, *h)
	return nil
}

func (m *memCalendar) ListHolidays(context.Context) ([]sla.Holiday, error) { return m.holidays, nil }

type memTasks struct{}

func (memTasks) Create(_ context.Context, t *domain.Task) error {
	t.ID = "task-1"
	return nil
}

func (memTasks) Update(context.Context, *domain.Task) error { return nil }

func (memTasks) GetByID(context.Context, string) (*domain.Task, error) { return nil, pgx.ErrNoRows }

func (memTasks) ListWithFilter(context.Context, repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

type memViolations struct{}

func (memViolations) CreateIfAbsent(context.Context, *domain.Violation) (bool, error) { return true, nil }

func (memViolations) ListByEntity(context.Context, domain.EntityType, string) ([]domain.Violation, error) {
	return nil, nil
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app      *fiber.App
	tokens   *auth.TokenManager
	tickets  *memTickets
	postgres *stubPinger
	cache    *stubPinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tickets := &memTickets{items: map[string]domain.Ticket{}}
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics("router_test")

	slaService := service.NewSLAService(service.SLADependencies{
		PolicyRepo:   &memPolicies{},
		CalendarRepo: &memCalendar{},
		Logger:       zap.NewNop(),
	})
	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: tickets, SLA: slaService, Dispatcher: dispatcher})
	taskService := service.NewTaskService(service.TaskDependencies{TaskRepo: memTasks{}, SLA: slaService, Dispatcher: dispatcher})
	monitor := service.NewMonitorService(service.MonitorDependencies{
		TicketRepo:    tickets,
		TaskRepo:      memTasks{},
		ViolationRepo: memViolations{},
		SLA:           slaService,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
	})

	pg := &stubPinger{}
	redis := &stubPinger{err: errors.New("dial tcp 127.0.0.1:6379: connection refused")}

	tokens := auth.NewTokenManager("test-secret", "sla-service", 5)
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("sla-service", "test", pg, redis, slaService),
		Tickets:        handlers.NewTicketsHandler(ticketService, monitor),
		Tasks:          handlers.NewTasksHandler(taskService, monitor),
		SLAAdmin:       handlers.NewSLAAdminHandler(slaService, monitor),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens, tickets: tickets, postgres: pg, cache: redis}
}

func (s *testServer) token(t *testing.T, subject string, kind domain.SubjectType, role *domain.StaffRole) string {
	t.Helper()
	tok, _, err := s.tokens.GenerateToken(subject, kind, role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func role(r domain.StaffRole) *domain.StaffRole { return &r }

func highPolicyBody() map[string]any {
	return map[string]any{
		"name":       "Support",
		"is_default": true,
		"targets": []map[string]any{{
			"priority":          "high",
			"first_response":    map[string]any{"magnitude": 1, "unit": "hours"},
			"resolution":        map[string]any{"magnitude": 4, "unit": "hours"},
			"operational_hours": "calendar",
		}},
	}
}

func TestRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestAdminRoutesRequireRole(t *testing.T) {
	s := newTestServer(t)
	agent := s.token(t, "staff-1", domain.SubjectTypeStaff, role(domain.StaffRoleAgent))
	user := s.token(t, "user-1", domain.SubjectTypeUser, nil)
	admin := s.token(t, "staff-2", domain.SubjectTypeStaff, role(domain.StaffRoleAdmin))
	scheduler := s.token(t, "cron", domain.SubjectTypeService, nil)

	status, body := s.do(t, http.MethodGet, "/api/v1/sla/policies", agent, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = s.do(t, http.MethodGet, "/api/v1/sla/policies", user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/sla/policies", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/sla/monitor/run", scheduler, map[string]any{"dry_run": true})
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["dry_run"])
}

func TestPolicyValidationErrorsRenderDetails(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "staff-2", domain.SubjectTypeStaff, role(domain.StaffRoleAdmin))

	bad := highPolicyBody()
	bad["targets"] = []map[string]any{
		{"priority": "high", "resolution": map[string]any{"magnitude": 4, "unit": "hours"}},
		{"priority": "HIGH", "resolution": map[string]any{"magnitude": 0, "unit": "fortnights"}},
	}
	status, body := s.do(t, http.MethodPost, "/api/v1/sla/policies", admin, bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "targets[1].priority")
	assert.Contains(t, details, "targets[1].resolution.unit")

	status, body = s.do(t, http.MethodPost, "/api/v1/sla/policies", admin, highPolicyBody())
	assert.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "policy-1", data["id"])
	assert.Equal(t, true, data["is_active"])
}

func TestCalendarEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "staff-2", domain.SubjectTypeStaff, role(domain.StaffRoleTeamLead))

	status, body := s.do(t, http.MethodPut, "/api/v1/sla/calendar/days", admin, map[string]any{
		"days": []map[string]any{{"weekday": 0, "start_time": "9am", "end_time": "17:00", "is_working_day": true}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodPut, "/api/v1/sla/calendar/days", admin, map[string]any{
		"days": []map[string]any{
			{"weekday": 0, "start_time": "09:00", "end_time": "17:00", "is_working_day": true},
			{"weekday": 6, "is_working_day": false},
		},
	})
	assert.Equal(t, http.StatusOK, status)
	days := body["data"].(map[string]any)["days"].([]any)
	require.Len(t, days, 2)
	assert.Equal(t, "Monday", days[0].(map[string]any)["weekday_name"])
	assert.Equal(t, "09:00", days[0].(map[string]any)["start_time"])

	status, body = s.do(t, http.MethodPost, "/api/v1/sla/calendar/holidays", admin, map[string]any{
		"name": "New Year", "date": "2024-01-01", "is_recurring": true,
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2024-01-01", body["data"].(map[string]any)["date"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/sla/calendar/holidays", admin, map[string]any{
		"name": "Bad", "date": "01/01/2024",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "staff-2", domain.SubjectTypeStaff, role(domain.StaffRoleAdmin))
	agent := s.token(t, "staff-1", domain.SubjectTypeStaff, role(domain.StaffRoleAgent))
	owner := s.token(t, "user-1", domain.SubjectTypeUser, nil)
	stranger := s.token(t, "user-2", domain.SubjectTypeUser, nil)

	status, _ := s.do(t, http.MethodPost, "/api/v1/sla/policies", admin, highPolicyBody())
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/tickets", owner, map[string]any{
		"title": "Laptop will not boot", "priority": "HIGH", "requester_id": "someone-else",
	})
	require.Equal(t, http.StatusCreated, status)
	ticket := body["data"].(map[string]any)
	id := ticket["id"].(string)
	assert.Equal(t, "user-1", ticket["requester_id"])
	assert.Equal(t, "policy-1", ticket["sla_policy_id"])
	assert.NotNil(t, ticket["due_date"])

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets/"+id+"/sla", owner, nil)
	assert.Equal(t, http.StatusOK, status)
	report := body["data"].(map[string]any)
	assert.Equal(t, true, report["has_sla"])
	assert.Equal(t, "TICKET", report["entity_type"])
	assert.NotNil(t, report["due"])

	status, _ = s.do(t, http.MethodGet, "/api/v1/tickets/"+id+"/sla", stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodPatch, "/api/v1/tickets/"+id+"/status", owner, map[string]any{"status": "CLOSED"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/pause", agent, map[string]any{"reason": "customer away"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["is_sla_paused"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/resume", agent, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["is_sla_paused"])

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/"+id+"/first-response", agent, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body["data"].(map[string]any)["first_response_at"])

	status, body = s.do(t, http.MethodPatch, "/api/v1/tickets/"+id+"/status", agent, map[string]any{"status": "CANCELLED"})
	assert.Equal(t, http.StatusOK, status)
	status, body = s.do(t, http.MethodPatch, "/api/v1/tickets/"+id+"/status", agent, map[string]any{"status": "OPEN"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets", stranger, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets/missing", agent, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadinessReportsSLAConfiguration(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["postgres"])
	assert.Contains(t, deps["sla_cache"], "degraded")
	slaConfig := deps["sla_config"].(map[string]any)
	assert.Equal(t, "wall_clock", slaConfig["calendar"])
	assert.Equal(t, "UTC", slaConfig["timezone"])
	assert.Equal(t, "none", slaConfig["default_policy"])

	s.postgres.err = errors.New("connection refused")
	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}

func TestUnknownRouteRendersErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/api/dto"
	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/service"
)

// SLAAdminHandler manages SLA configuration and breach sweeps.
type SLAAdminHandler struct {
	sla     *service.SLAService
	monitor *service.MonitorService
}

// NewSLAAdminHandler constructs handler.
func NewSLAAdminHandler(slaService *service.SLAService, monitor *service.MonitorService) *SLAAdminHandler {
	return &SLAAdminHandler{sla: slaService, monitor: monitor}
}

// CreatePolicy POST /sla/policies.
func (h *SLAAdminHandler) CreatePolicy(c *fiber.Ctx) error {
	var req dto.PolicyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	policy := req.ToPolicy()
	if err := h.sla.CreatePolicy(c.UserContext(), policy); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": policy})
}

// ListPolicies GET /sla/policies.
func (h *SLAAdminHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.sla.ListPolicies(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policies})
}

// GetCalendar GET /sla/calendar.
func (h *SLAAdminHandler) GetCalendar(c *fiber.Ctx) error {
	snap, err := h.sla.CalendarConfig(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCalendarResponse(h.sla.Location(), snap.Days, snap.Holidays)})
}

// ReplaceDays PUT /sla/calendar/days.
func (h *SLAAdminHandler) ReplaceDays(c *fiber.Ctx) error {
	var req dto.ReplaceDaysRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	days, err := req.ToBusinessDays()
	if err != nil {
		return err
	}
	if err := h.sla.ReplaceBusinessDays(c.UserContext(), days); err != nil {
		return err
	}
	return h.GetCalendar(c)
}

// AddHoliday POST /sla/calendar/holidays.
func (h *SLAAdminHandler) AddHoliday(c *fiber.Ctx) error {
	var req dto.HolidayRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	holiday, err := req.ToHoliday()
	if err != nil {
		return err
	}
	if err := h.sla.AddHoliday(c.UserContext(), holiday); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewHolidayResponse(*holiday)})
}

// RunMonitor POST /sla/monitor/run.
func (h *SLAAdminHandler) RunMonitor(c *fiber.Ctx) error {
	var req dto.MonitorRunRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	report, err := h.monitor.Run(c.UserContext(), service.MonitorOptions{DryRun: req.DryRun})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

func slaStatusResponse(entityType domain.EntityType, id string, report *service.SLAReport) dto.SLAStatusResponse {
	return dto.SLAStatusResponse{
		EntityType: entityType,
		EntityID:   id,
		Status:     report.Status,
		Elapsed:    report.Elapsed,
		Due:        dto.NewDueTimesResponse(report.Due),
	}
}

func violationResponses(violations []domain.Violation) []dto.ViolationResponse {
	out := make([]dto.ViolationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, dto.NewViolationResponse(v))
	}
	return out
}

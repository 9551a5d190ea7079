package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/api/dto"
	"github.com/deskops/sla-service/internal/auth"
	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/service"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// TicketsHandler exposes ticket SLA endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	monitor *service.MonitorService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, monitor *service.MonitorService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, monitor: monitor}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	requester := req.RequesterID
	if p.SubjectType == domain.SubjectTypeUser || requester == "" {
		requester = p.SubjectID
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), p.Actor(), service.TicketCreateInput{
		RequesterID: requester,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		PolicyID:    req.PolicyID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets. End users only see their own tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := parseTicketFilter(c)
	if p.SubjectType == domain.SubjectTypeUser {
		id := p.SubjectID
		filter.RequesterID = &id
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ticket, err := h.visibleTicket(c, p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetSLA GET /tickets/:id/sla.
func (h *TicketsHandler) GetSLA(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if _, err := h.visibleTicket(c, p); err != nil {
		return err
	}
	ticket, report, err := h.tickets.SLAStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaStatusResponse(domain.EntityTicket, ticket.ID, report)})
}

// ListViolations GET /tickets/:id/violations.
func (h *TicketsHandler) ListViolations(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	violations, err := h.monitor.Violations(c.UserContext(), domain.EntityTicket, ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": violationResponses(violations)})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), p.Actor(), c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdatePriority(c.UserContext(), p.Actor(), c.Params("id"), req.Priority, req.PolicyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// MarkFirstResponse POST /tickets/:id/first-response.
func (h *TicketsHandler) MarkFirstResponse(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.MarkFirstResponse(c.UserContext(), p.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// PauseSLA POST /tickets/:id/pause.
func (h *TicketsHandler) PauseSLA(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PauseRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ticket, err := h.tickets.PauseSLA(c.UserContext(), p.Actor(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ResumeSLA POST /tickets/:id/resume.
func (h *TicketsHandler) ResumeSLA(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ResumeSLA(c.UserContext(), p.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

func (h *TicketsHandler) visibleTicket(c *fiber.Ctx, p *auth.Principal) (*domain.Ticket, error) {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if p.SubjectType == domain.SubjectTypeUser && ticket.RequesterID != p.SubjectID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
	}
	return ticket, nil
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	for _, s := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(s))
	}
	for _, s := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.Priority(s))
	}
	if policyID := c.Query("sla_policy_id"); policyID != "" {
		filter.PolicyID = &policyID
	}
	filter.Paused = parseBoolQuery(c.Query("paused"))
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

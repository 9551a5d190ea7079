package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/api/dto"
	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/service"
)

// TasksHandler exposes task SLA endpoints. Tasks are internal, so every route
// requires a staff or service caller.
type TasksHandler struct {
	tasks   *service.TaskService
	monitor *service.MonitorService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService, monitor *service.MonitorService) *TasksHandler {
	return &TasksHandler{tasks: taskService, monitor: monitor}
}

// CreateTask POST /tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.CreateTask(c.UserContext(), p.Actor(), service.TaskCreateInput{
		TicketID:    req.TicketID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		PolicyID:    req.PolicyID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// ListTasks GET /tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	filter := repository.TaskFilter{}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	for _, s := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TaskStatus(s))
	}
	filter.Paused = parseBoolQuery(c.Query("paused"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	tasks, err := h.tasks.ListTasks(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTask GET /tasks/:id.
func (h *TasksHandler) GetTask(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	task, err := h.tasks.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// GetSLA GET /tasks/:id/sla.
func (h *TasksHandler) GetSLA(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	task, report, err := h.tasks.SLAStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaStatusResponse(domain.EntityTask, task.ID, report)})
}

// ListViolations GET /tasks/:id/violations.
func (h *TasksHandler) ListViolations(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	task, err := h.tasks.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	violations, err := h.monitor.Violations(c.UserContext(), domain.EntityTask, task.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": violationResponses(violations)})
}

// UpdateStatus PATCH /tasks/:id/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdateStatus(c.UserContext(), p.Actor(), c.Params("id"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// UpdatePriority PATCH /tasks/:id/priority.
func (h *TasksHandler) UpdatePriority(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdatePriority(c.UserContext(), p.Actor(), c.Params("id"), req.Priority, req.PolicyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// PauseSLA POST /tasks/:id/pause.
func (h *TasksHandler) PauseSLA(c *fiber.Ctx) error {
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
	task, err := h.tasks.PauseSLA(c.UserContext(), p.Actor(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// ResumeSLA POST /tasks/:id/resume.
func (h *TasksHandler) ResumeSLA(c *fiber.Ctx) error {
	p, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.ResumeSLA(c.UserContext(), p.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/sla"
)

const dateLayout = "2006-01-02"

// PolicyRequest payload for creating an SLA policy. Active defaults to true.
type PolicyRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Active      *bool        `json:"is_active"`
	Default     bool         `json:"is_default"`
	Targets     []sla.Target `json:"targets"`
}

// ToPolicy converts the request into an engine policy.
func (r PolicyRequest) ToPolicy() *sla.Policy {
	p := &sla.Policy{
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Active:      true,
		Default:     r.Default,
		Targets:     r.Targets,
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	for i := range p.Targets {
		if p.Targets[i].OperationalHours == "" {
			p.Targets[i].OperationalHours = sla.OperationalBusiness
		}
	}
	return p
}

// BusinessDayRequest describes one weekday. Weekday runs 0=Monday to 6=Sunday and
// times use HH:MM.
type BusinessDayRequest struct {
	Weekday    int    `json:"weekday"`
	Start      string `json:"start_time"`
	End        string `json:"end_time"`
	WorkingDay bool   `json:"is_working_day"`
}

// ReplaceDaysRequest payload for PUT /sla/calendar/days.
type ReplaceDaysRequest struct {
	Days []BusinessDayRequest `json:"days"`
}

// ToBusinessDays parses the request. Unparseable clock values are reported as a
// validation error.
func (r ReplaceDaysRequest) ToBusinessDays() ([]sla.BusinessDay, error) {
	verr := &sla.ValidationError{Fields: map[string]string{}}
	days := make([]sla.BusinessDay, 0, len(r.Days))
	for i, d := range r.Days {
		day := sla.BusinessDay{Weekday: sla.Weekday(d.Weekday), WorkingDay: d.WorkingDay}
		if d.Start != "" || d.WorkingDay {
			start, err := sla.ParseClock(d.Start)
			if err != nil {
				verr.Fields[fmt.Sprintf("days[%d].start_time", i)] = err.Error()
			}
			day.Start = start
		}
		if d.End != "" || d.WorkingDay {
			end, err := sla.ParseClock(d.End)
			if err != nil {
				verr.Fields[fmt.Sprintf("days[%d].end_time", i)] = err.Error()
			}
			day.End = end
		}
		days = append(days, day)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return days, nil
}

// BusinessDayResponse renders a weekday row.
type BusinessDayResponse struct {
	Weekday    int    `json:"weekday"`
	Name       string `json:"weekday_name"`
	Start      string `json:"start_time"`
	End        string `json:"end_time"`
	WorkingDay bool   `json:"is_working_day"`
}

// HolidayRequest payload. Date uses YYYY-MM-DD and Active defaults to true.
type HolidayRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"is_recurring"`
	Active    *bool  `json:"is_active"`
}

// ToHoliday parses the request.
func (r HolidayRequest) ToHoliday() (*sla.Holiday, error) {
	h := &sla.Holiday{Name: strings.TrimSpace(r.Name), Recurring: r.Recurring, Active: true}
	if r.Active != nil {
		h.Active = *r.Active
	}
	if r.Date != "" {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, &sla.ValidationError{Fields: map[string]string{"date": "expected YYYY-MM-DD"}}
		}
		h.Date = date
	}
	return h, nil
}

// HolidayResponse renders a holiday.
type HolidayResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"is_recurring"`
	Active    bool   `json:"is_active"`
}

// NewHolidayResponse maps a holiday to its response shape.
func NewHolidayResponse(h sla.Holiday) HolidayResponse {
	return HolidayResponse{
		ID:        h.ID,
		Name:      h.Name,
		Date:      h.Date.Format(dateLayout),
		Recurring: h.Recurring,
		Active:    h.Active,
	}
}

// CalendarResponse renders the business calendar.
type CalendarResponse struct {
	Timezone string                `json:"timezone"`
	Days     []BusinessDayResponse `json:"days"`
	Holidays []HolidayResponse     `json:"holidays"`
}

// NewCalendarResponse maps stored calendar rows.
func NewCalendarResponse(loc *time.Location, days []sla.BusinessDay, holidays []sla.Holiday) CalendarResponse {
	resp := CalendarResponse{
		Timezone: loc.String(),
		Days:     make([]BusinessDayResponse, 0, len(days)),
		Holidays: make([]HolidayResponse, 0, len(holidays)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, BusinessDayResponse{
			Weekday:    int(d.Weekday),
			Name:       d.Weekday.String(),
			Start:      d.Start.String(),
			End:        d.End.String(),
			WorkingDay: d.WorkingDay,
		})
	}
	for _, h := range holidays {
		resp.Holidays = append(resp.Holidays, NewHolidayResponse(h))
	}
	return resp
}

// DueTimesResponse renders computed deadlines.
type DueTimesResponse struct {
	FirstResponse    *time.Time           `json:"first_response_due"`
	NextResponse     *time.Time           `json:"next_response_due"`
	Resolution       *time.Time           `json:"resolution_due"`
	OperationalHours sla.OperationalHours `json:"operational_hours,omitempty"`
}

// NewDueTimesResponse maps engine deadlines; nil means no applicable target.
func NewDueTimesResponse(due *sla.DueTimes) *DueTimesResponse {
	if due == nil {
		return nil
	}
	resp := &DueTimesResponse{
		FirstResponse: due.FirstResponse,
		NextResponse:  due.NextResponse,
		Resolution:    due.Resolution,
	}
	if due.Target != nil {
		resp.OperationalHours = due.Target.OperationalHours
	}
	return resp
}

// SLAStatusResponse is the live SLA picture of an entity.
type SLAStatusResponse struct {
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	sla.Status
	Elapsed sla.ElapsedTime   `json:"elapsed"`
	Due     *DueTimesResponse `json:"due"`
}

// MonitorRunRequest payload.
type MonitorRunRequest struct {
	DryRun bool `json:"dry_run"`
}

// ViolationResponse renders a recorded breach.
type ViolationResponse struct {
	ID         string            `json:"id"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	PolicyID   *string           `json:"sla_policy_id"`
	Milestone  sla.MilestoneKind `json:"milestone"`
	TargetTime time.Time         `json:"target_time"`
	BreachTime time.Time         `json:"breach_time"`
	ActualTime *time.Time        `json:"actual_time"`
}

// NewViolationResponse maps a violation.
func NewViolationResponse(v domain.Violation) ViolationResponse {
	return ViolationResponse{
		ID:         v.ID,
		EntityType: v.EntityType,
		EntityID:   v.EntityID,
		PolicyID:   v.PolicyID,
		Milestone:  v.Milestone,
		TargetTime: v.TargetTime,
		BreachTime: v.BreachTime,
		ActualTime: v.ActualTime,
	}
}

// Package calendarfile loads business calendars and SLA policies from YAML files.
package calendarfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deskops/sla-service/internal/sla"
)

// CalendarFile is the on-disk calendar format.
//
//	timezone: Europe/Berlin
//	days:
//	  - weekday: monday
//	    start: "09:00"
//	    end: "17:00"
//	    working: true
//	holidays:
//	  - name: New Year
//	    date: 2024-01-01
//	    recurring: true
type CalendarFile struct {
	Timezone string         `yaml:"timezone"`
	Days     []dayEntry     `yaml:"days"`
	Holidays []holidayEntry `yaml:"holidays"`
}

type dayEntry struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Working *bool  `yaml:"working"`
}

type holidayEntry struct {
	Name      string `yaml:"name"`
	Date      string `yaml:"date"`
	Recurring bool   `yaml:"recurring"`
	Active    *bool  `yaml:"active"`
}

// Calendar is a parsed calendar file.
type Calendar struct {
	Days     []sla.BusinessDay
	Holidays []sla.Holiday
	Location *time.Location
}

// Build returns the engine snapshot of c.
func (c *Calendar) Build() *sla.Calendar {
	return sla.NewCalendar(c.Days, c.Holidays, c.Location)
}

// LoadCalendar reads and validates a calendar file. defaultLoc applies when the
// file names no timezone.
func LoadCalendar(path string, defaultLoc *time.Location) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseCalendar(data, defaultLoc)
}

// ParseCalendar decodes calendar YAML.
func ParseCalendar(data []byte, defaultLoc *time.Location) (*Calendar, error) {
	var file CalendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	loc := defaultLoc
	if loc == nil {
		loc = time.UTC
	}
	if file.Timezone != "" {
		l, err := time.LoadLocation(file.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", file.Timezone, err)
		}
		loc = l
	}

	out := &Calendar{Location: loc}
	for i, d := range file.Days {
		day, err := d.toBusinessDay()
		if err != nil {
			return nil, fmt.Errorf("days[%d]: %w", i, err)
		}
		out.Days = append(out.Days, day)
	}
	if err := sla.ValidateBusinessDays(out.Days); err != nil {
		return nil, err
	}

	for i, h := range file.Holidays {
		holiday, err := h.toHoliday()
		if err != nil {
			return nil, fmt.Errorf("holidays[%d]: %w", i, err)
		}
		out.Holidays = append(out.Holidays, holiday)
	}
	return out, nil
}

func (d dayEntry) toBusinessDay() (sla.BusinessDay, error) {
	weekday, err := ParseWeekday(d.Weekday)
	if err != nil {
		return sla.BusinessDay{}, err
	}
	day := sla.BusinessDay{Weekday: weekday, WorkingDay: true}
	if d.Working != nil {
		day.WorkingDay = *d.Working
	}
	if d.Start != "" {
		if day.Start, err = sla.ParseClock(d.Start); err != nil {
			return sla.BusinessDay{}, err
		}
	}
	if d.End != "" {
		if day.End, err = sla.ParseClock(d.End); err != nil {
			return sla.BusinessDay{}, err
		}
	}
	return day, nil
}

func (h holidayEntry) toHoliday() (sla.Holiday, error) {
	date, err := time.Parse("2006-01-02", h.Date)
	if err != nil {
		return sla.Holiday{}, fmt.Errorf("date %q: %w", h.Date, err)
	}
	holiday := sla.Holiday{Name: h.Name, Date: date, Recurring: h.Recurring, Active: true}
	if h.Active != nil {
		holiday.Active = *h.Active
	}
	if err := sla.ValidateHoliday(holiday); err != nil {
		return sla.Holiday{}, err
	}
	return holiday, nil
}

// ParseWeekday accepts full or three-letter English names, or 0 (Monday) to 6.
func ParseWeekday(s string) (sla.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range", n)
		}
		return sla.Weekday(n), nil
	}
	for w := sla.Monday; w <= sla.Sunday; w++ {
		name := strings.ToLower(w.String())
		if s == name || s == name[:3] {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// LoadPolicy reads and validates a single policy file.
func LoadPolicy(path string) (*sla.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes policy YAML. Policies are active unless the file says
// otherwise.
func ParsePolicy(data []byte) (*sla.Policy, error) {
	policy := sla.Policy{Active: true}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	for i := range policy.Targets {
		t := &policy.Targets[i]
		t.Priority = sla.ParsePriority(string(t.Priority))
		if t.OperationalHours == "" {
			t.OperationalHours = sla.OperationalBusiness
		}
	}
	if err := sla.ValidatePolicy(policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// LoadPolicyDir loads every .yaml or .yml policy in dir, ordered by file name.
func LoadPolicyDir(dir string) ([]sla.Policy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading policy dir %s: %w", dir, err)
	}

	var policies []sla.Policy
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		p, err := LoadPolicy(path)
		if err != nil {
			return nil, fmt.Errorf("loading policy %s: %w", path, err)
		}
		policies = append(policies, *p)
	}
	return policies, nil
}

package sla

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists configuration problems keyed by field path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid sla configuration: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidatePolicy checks a policy before it is saved. Priorities must be unique so
// target selection does not depend on storage order.
func ValidatePolicy(p Policy) error {
	verr := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		verr.add("name", "required")
	}
	seen := make(map[Priority]int, len(p.Targets))
	for i, t := range p.Targets {
		prefix := fmt.Sprintf("targets[%d]", i)
		if prev, dup := seen[t.Priority]; dup {
			verr.add(prefix+".priority", fmt.Sprintf("duplicates targets[%d]", prev))
		} else {
			seen[t.Priority] = i
		}
		validateTarget(verr, prefix, t)
	}
	return verr.orNil()
}

// ValidateTarget checks a single target.
func ValidateTarget(t Target) error {
	verr := &ValidationError{}
	validateTarget(verr, "target", t)
	return verr.orNil()
}

func validateTarget(verr *ValidationError, prefix string, t Target) {
	if t.Priority == "" {
		verr.add(prefix+".priority", "required")
	}
	if t.Resolution == nil {
		verr.add(prefix+".resolution", "required")
	}
	validateDuration(verr, prefix+".first_response", t.FirstResponse)
	validateDuration(verr, prefix+".next_response", t.NextResponse)
	validateDuration(verr, prefix+".resolution", t.Resolution)
	switch t.OperationalHours {
	case OperationalCalendar, OperationalBusiness, "":
	default:
		verr.add(prefix+".operational_hours", fmt.Sprintf("unknown mode %q", t.OperationalHours))
	}
}

func validateDuration(verr *ValidationError, field string, d *Duration) {
	if d == nil {
		return
	}
	if d.Magnitude <= 0 {
		verr.add(field+".magnitude", "must be positive")
	}
	if !KnownUnit(d.Unit) {
		verr.add(field+".unit", fmt.Sprintf("unknown unit %q", d.Unit))
	}
}

// ValidateBusinessDays checks weekday rows before they are saved.
func ValidateBusinessDays(days []BusinessDay) error {
	verr := &ValidationError{}
	seen := make(map[Weekday]bool, len(days))
	for i, d := range days {
		prefix := fmt.Sprintf("days[%d]", i)
		if d.Weekday < Monday || d.Weekday > Sunday {
			verr.add(prefix+".weekday", "must be between 0 and 6")
			continue
		}
		if seen[d.Weekday] {
			verr.add(prefix+".weekday", "duplicate "+d.Weekday.String())
		}
		seen[d.Weekday] = true
		if d.Start < 0 || d.End > Clock(24, 0) {
			verr.add(prefix, "times must be within the day")
		}
		if d.WorkingDay && d.End <= d.Start {
			verr.add(prefix+".end", "must be after start")
		}
	}
	return verr.orNil()
}

// ValidateHoliday checks a holiday before it is saved.
func ValidateHoliday(h Holiday) error {
	verr := &ValidationError{}
	if strings.TrimSpace(h.Name) == "" {
		verr.add("name", "required")
	}
	if h.Date.IsZero() {
		verr.add("date", "required")
	}
	return verr.orNil()
}

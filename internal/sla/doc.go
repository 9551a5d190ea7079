// Package sla computes SLA deadlines and breach status for tickets and tasks.
//
// Everything here is a pure function of its inputs: an entity snapshot, a policy
// and a business calendar. Callers load a consistent configuration snapshot once
// and persist results themselves. The package never reads ambient state and never
// fails on missing configuration; it degrades to "no SLA" or calendar time instead.
package sla

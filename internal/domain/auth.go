package domain

// SubjectType differentiates token subjects.
type SubjectType string

const (
	SubjectTypeUser    SubjectType = "USER"
	SubjectTypeStaff   SubjectType = "STAFF"
	SubjectTypeService SubjectType = "SERVICE"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

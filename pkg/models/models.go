package models

import "time"

// Domain models matching the database schema in db/migrations/0001_init.sql

// DefaultMaxCapacity is the capacity, in percentage points, of a full-time engineer.
const DefaultMaxCapacity = 100

type UserType string

const (
	UserTypeManager  UserType = "Manager"
	UserTypeEngineer UserType = "Engineer"
)

type Seniority string

const (
	SeniorityIntern      Seniority = "intern"
	SeniorityJunior      Seniority = "junior"
	SeniorityMid         Seniority = "mid"
	SenioritySenior      Seniority = "senior"
	SeniorityUnspecified Seniority = "unspecified"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// Valid reports whether s is one of the known assignment statuses.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentActive, AssignmentCompleted, AssignmentCancelled:
		return true
	}
	return false
}

// Engineer is any user of the system; managers share the table and carry Type Manager.
type Engineer struct {
	ID             int64          `json:"id" db:"id"`
	Name           string         `json:"name" db:"name" validate:"required"`
	Email          string         `json:"email" db:"email" validate:"required,email"`
	Type           UserType       `json:"type" db:"type"`
	Skills         []string       `json:"skills" db:"skills"`
	Seniority      Seniority      `json:"seniority,omitempty" db:"seniority"`
	Department     string         `json:"department,omitempty" db:"department"`
	MaxCapacity    int            `json:"maxCapacity" db:"max_capacity"`
	EmploymentType EmploymentType `json:"employmentType" db:"employment_type"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	// AllocationVersion is bumped by every assignment write for this engineer
	// and by every profile update.
	AllocationVersion int64      `json:"-" db:"allocation_version"`
	Created           int64      `json:"created" db:"created"`
	Updated           int64      `json:"updated" db:"updated"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// Capacity returns MaxCapacity, falling back to DefaultMaxCapacity when unset.
func (e *Engineer) Capacity() int {
	if e.MaxCapacity <= 0 {
		return DefaultMaxCapacity
	}
	return e.MaxCapacity
}

func (e *Engineer) Deleted() bool { return e.DeletedAt != nil }

type Project struct {
	ID             int64         `json:"id" db:"id"`
	Name           string        `json:"name" db:"name" validate:"required"`
	Description    string        `json:"description" db:"description"`
	StartDate      time.Time     `json:"startDate" db:"start_date"`
	EndDate        time.Time     `json:"endDate" db:"end_date"`
	RequiredSkills []string      `json:"requiredSkills" db:"required_skills"`
	TeamSize       int           `json:"teamSize" db:"team_size"`
	Status         ProjectStatus `json:"status" db:"status"`
	ManagerID      int64         `json:"managerId" db:"manager_id"`
	Created        int64         `json:"created" db:"created"`
	Updated        int64         `json:"updated" db:"updated"`
	DeletedAt      *time.Time    `json:"deletedAt,omitempty" db:"deleted_at"`
}

func (p *Project) Deleted() bool { return p.DeletedAt != nil }

type Assignment struct {
	ID                   int64            `json:"id" db:"id"`
	EngineerID           int64            `json:"engineerId" db:"engineer_id"`
	ProjectID            int64            `json:"projectId" db:"project_id"`
	AllocationPercentage int              `json:"allocationPercentage" db:"allocation_percentage"`
	StartDate            time.Time        `json:"startDate" db:"start_date"`
	EndDate              time.Time        `json:"endDate" db:"end_date"`
	Status               AssignmentStatus `json:"status" db:"status"`
	Role                 string           `json:"role,omitempty" db:"role"`
	Created              int64            `json:"created" db:"created"`
	Updated              int64            `json:"updated" db:"updated"`
	DeletedAt            *time.Time       `json:"deletedAt,omitempty" db:"deleted_at"`
}

func (a *Assignment) Deleted() bool { return a.DeletedAt != nil }

// AssignmentPatch carries the fields of an assignment update; nil means unchanged.
type AssignmentPatch struct {
	AllocationPercentage *int              `json:"allocationPercentage,omitempty"`
	StartDate            *time.Time        `json:"startDate,omitempty"`
	EndDate              *time.Time        `json:"endDate,omitempty"`
	Role                 *string           `json:"role,omitempty"`
	Status               *AssignmentStatus `json:"status,omitempty"`
}

// Apply returns a copy of a with the patch applied.
func (p AssignmentPatch) Apply(a Assignment) Assignment {
	if p.AllocationPercentage != nil {
		a.AllocationPercentage = *p.AllocationPercentage
	}
	if p.StartDate != nil {
		a.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		a.EndDate = *p.EndDate
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	return a
}

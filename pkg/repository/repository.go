package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/capacity/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return nil, nil when the record does not exist. List methods skip
// soft-deleted records unless the filter says otherwise.

// ErrVersionConflict is returned by assignment writes when the engineer's
// allocation version no longer matches the one the caller validated against.
var ErrVersionConflict = errors.New("allocation version conflict")

type EngineerFilter struct {
	Type           models.UserType
	Skill          string // case-insensitive substring match on any skill
	IncludeDeleted bool
}

type ProjectFilter struct {
	Status         models.ProjectStatus
	ManagerID      int64
	IncludeDeleted bool
}

type AssignmentFilter struct {
	EngineerID int64
	ProjectID  int64
	Status     models.AssignmentStatus
	ExcludeID  int64
	// From/To restrict to assignments whose window overlaps [From, To].
	From *time.Time
	To   *time.Time
	// StartsAfter restricts to assignments starting strictly after the instant.
	StartsAfter *time.Time
	Limit       int
	Offset      int
	// OrderByStartDesc sorts by start date instead of creation time.
	OrderByStartDesc bool
	IncludeDeleted   bool
}

type EngineerRepo interface {
	CreateEngineer(ctx context.Context, e *models.Engineer) (int64, error)
	GetEngineer(ctx context.Context, id int64) (*models.Engineer, error)
	GetByEmail(ctx context.Context, email string) (*models.Engineer, error)
	ListEngineers(ctx context.Context, f EngineerFilter) ([]models.Engineer, error)
	UpdateEngineer(ctx context.Context, e *models.Engineer) error
	SoftDeleteEngineer(ctx context.Context, id int64) error
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	// DeleteProject soft deletes the project and hard deletes its assignments.
	DeleteProject(ctx context.Context, id int64) (bool, error)
}

type AssignmentRepo interface {
	// CreateAssignment persists a and bumps the engineer's allocation version,
	// failing with ErrVersionConflict if it is no longer expectedVersion.
	CreateAssignment(ctx context.Context, a *models.Assignment, expectedVersion int64) (int64, error)
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)
	ListAssignments(ctx context.Context, f AssignmentFilter) ([]models.Assignment, error)
	CountAssignments(ctx context.Context, f AssignmentFilter) (int64, error)
	// UpdateAssignment applies patch under the same version check as CreateAssignment.
	// It returns nil, nil when the assignment does not exist.
	UpdateAssignment(ctx context.Context, id int64, patch models.AssignmentPatch, expectedVersion int64) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) (bool, error)
}

// Repository groups the collaborator interfaces.
type Repository struct {
	Engineer   EngineerRepo
	Project    ProjectRepo
	Assignment AssignmentRepo
}

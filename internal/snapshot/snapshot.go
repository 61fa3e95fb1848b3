package snapshot

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

// Snapshot is the raw data aggregations run over. The three collections are
// read concurrently and are not mutually consistent.
type Snapshot struct {
	Engineers   []models.Engineer
	Projects    []models.Project
	Assignments []models.Assignment
	TakenAt     time.Time
}

// ProjectName returns the name of project id, or "" if it is not in the snapshot.
func (s *Snapshot) ProjectName(id int64) string {
	for _, p := range s.Projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

// AssignmentsFor returns the snapshot's assignments for one engineer, in snapshot order.
func (s *Snapshot) AssignmentsFor(engineerID int64) []models.Assignment {
	var out []models.Assignment
	for _, a := range s.Assignments {
		if a.EngineerID == engineerID {
			out = append(out, a)
		}
	}
	return out
}

// Reader loads snapshots from the persistence collaborator.
type Reader struct {
	engineers   repository.EngineerRepo
	projects    repository.ProjectRepo
	assignments repository.AssignmentRepo
	now         func() time.Time
}

type Option func(*Reader)

// WithClock sets the clock that stamps TakenAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

func NewReader(repo *repository.Repository, opts ...Option) *Reader {
	r := &Reader{
		engineers:   repo.Engineer,
		projects:    repo.Project,
		assignments: repo.Assignment,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads non-deleted engineers (type Engineer), non-deleted projects and
// active, non-deleted assignments. Any failed read fails the whole load.
func (r *Reader) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: r.now()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		es, err := r.engineers.ListEngineers(gctx, repository.EngineerFilter{Type: models.UserTypeEngineer})
		if err != nil {
			return fmt.Errorf("list engineers: %w", err)
		}
		snap.Engineers = es
		return nil
	})
	g.Go(func() error {
		ps, err := r.projects.ListProjects(gctx, repository.ProjectFilter{})
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		snap.Projects = ps
		return nil
	})
	g.Go(func() error {
		as, err := r.assignments.ListAssignments(gctx, repository.AssignmentFilter{Status: models.AssignmentActive})
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		snap.Assignments = as
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// EngineerView is the data behind a single engineer's dashboard.
type EngineerView struct {
	Engineer models.Engineer
	// Assignments holds every non-deleted assignment of the engineer, any status.
	Assignments []models.Assignment
	Projects    []models.Project
	TakenAt     time.Time
}

// LoadForEngineer returns nil, nil when the engineer does not exist or is deleted.
func (r *Reader) LoadForEngineer(ctx context.Context, engineerID int64) (*EngineerView, error) {
	eng, err := r.engineers.GetEngineer(ctx, engineerID)
	if err != nil {
		return nil, fmt.Errorf("get engineer: %w", err)
	}
	if eng == nil || eng.Deleted() {
		return nil, nil
	}

	view := &EngineerView{Engineer: *eng, TakenAt: r.now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		as, err := r.assignments.ListAssignments(gctx, repository.AssignmentFilter{EngineerID: engineerID})
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		view.Assignments = as
		return nil
	})
	g.Go(func() error {
		ps, err := r.projects.ListProjects(gctx, repository.ProjectFilter{})
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		view.Projects = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

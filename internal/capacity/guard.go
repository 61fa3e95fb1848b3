package capacity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/garnizeh/capacity/internal/metrics"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

const defaultMaxRetries = 3

// Proposal is a candidate allocation for one engineer over [Start, End].
type Proposal struct {
	EngineerID int64
	// ProjectID is checked for existence when non-zero.
	ProjectID  int64
	Allocation int
	Start      time.Time
	End        time.Time
	// ExcludeID skips the assignment being updated so it does not conflict with itself.
	ExcludeID int64
}

// Decision is the outcome of a check against the engineer's overlapping allocations.
type Decision struct {
	EngineerID  int64
	Requested   int
	Allocated   int
	Available   int
	MaxCapacity int
	// Version is the engineer's allocation version observed before the check.
	Version int64
}

// NewAssignment is the input of Guard.Create.
type NewAssignment struct {
	EngineerID           int64
	ProjectID            int64
	AllocationPercentage int
	StartDate            time.Time
	EndDate              time.Time
	Role                 string
}

// Guard enforces that an engineer's active, overlapping allocations never exceed
// their maximum capacity. Writes for the same engineer are serialized in-process and
// committed with the store's allocation version check, so concurrent proposals that
// pass individually cannot jointly overcommit.
type Guard struct {
	engineers   repository.EngineerRepo
	projects    repository.ProjectRepo
	assignments repository.AssignmentRepo

	logger     *slog.Logger
	metrics    metrics.Recorder
	maxRetries int

	locks *xsync.Map[int64, chan struct{}]
}

type Option func(*Guard)

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(g *Guard) {
		if r != nil {
			g.metrics = r
		}
	}
}

// WithMaxRetries sets how many times a version conflict is re-validated before
// it is returned to the caller.
func WithMaxRetries(n int) Option {
	return func(g *Guard) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

func NewGuard(repo *repository.Repository, opts ...Option) *Guard {
	g := &Guard{
		engineers:   repo.Engineer,
		projects:    repo.Project,
		assignments: repo.Assignment,
		logger:      slog.Default(),
		metrics:     metrics.Nop{},
		maxRetries:  defaultMaxRetries,
		locks:       xsync.NewMap[int64, chan struct{}](),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Propose checks p without persisting anything.
func (g *Guard) Propose(ctx context.Context, p Proposal) (*Decision, error) {
	start := time.Now()
	defer func() { g.metrics.GuardLatency("propose", time.Since(start)) }()

	if err := validateProposal(p); err != nil {
		g.metrics.GuardDecision("propose", metrics.OutcomeInvalid)
		return nil, err
	}
	d, err := g.check(ctx, p)
	g.metrics.GuardDecision("propose", outcome(err))
	return d, err
}

// Create validates the request, checks capacity and persists a new active assignment.
func (g *Guard) Create(ctx context.Context, in NewAssignment) (*models.Assignment, error) {
	start := time.Now()
	defer func() { g.metrics.GuardLatency("create", time.Since(start)) }()

	a, err := g.create(ctx, in)
	g.metrics.GuardDecision("create", outcome(err))
	return a, err
}

func (g *Guard) create(ctx context.Context, in NewAssignment) (*models.Assignment, error) {
	p := Proposal{
		EngineerID: in.EngineerID,
		ProjectID:  in.ProjectID,
		Allocation: in.AllocationPercentage,
		Start:      in.StartDate,
		End:        in.EndDate,
	}
	if err := validateProposal(p); err != nil {
		return nil, err
	}
	if in.ProjectID <= 0 {
		return nil, &ValidationError{Field: "projectId", Reason: "is required"}
	}

	release, err := g.acquire(ctx, in.EngineerID)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		d, err := g.check(ctx, p)
		if err != nil {
			return nil, err
		}

		a := &models.Assignment{
			EngineerID:           in.EngineerID,
			ProjectID:            in.ProjectID,
			AllocationPercentage: in.AllocationPercentage,
			StartDate:            in.StartDate,
			EndDate:              in.EndDate,
			Status:               models.AssignmentActive,
			Role:                 in.Role,
		}
		id, err := g.assignments.CreateAssignment(ctx, a, d.Version)
		if errors.Is(err, repository.ErrVersionConflict) && attempt < g.maxRetries {
			g.metrics.GuardRetry("create")
			g.logger.Debug("allocation version moved, re-validating", "engineer_id", in.EngineerID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save assignment: %w", err)
		}

		a.ID = id
		g.logger.Debug("assignment accepted", "assignment_id", id, "engineer_id", in.EngineerID, "allocated", d.Allocated+in.AllocationPercentage, "max_capacity", d.MaxCapacity)
		return a, nil
	}
}

// Update applies patch to assignment id. Capacity is re-checked only when the
// allocation or a date changes; the check uses the new values with the unchanged
// ones taken from the stored record.
func (g *Guard) Update(ctx context.Context, id int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	start := time.Now()
	defer func() { g.metrics.GuardLatency("update", time.Since(start)) }()

	a, err := g.update(ctx, id, patch)
	g.metrics.GuardDecision("update", outcome(err))
	return a, err
}

func (g *Guard) update(ctx context.Context, id int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	cur, err := g.assignments.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if cur == nil {
		return nil, &NotFoundError{Entity: "assignment", ID: id}
	}

	release, err := g.acquire(ctx, cur.EngineerID)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		// re-read under the lock: the record may have changed while we waited
		cur, err = g.assignments.GetAssignment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get assignment: %w", err)
		}
		if cur == nil {
			return nil, &NotFoundError{Entity: "assignment", ID: id}
		}

		next := patch.Apply(*cur)
		if next.StartDate.After(next.EndDate) {
			return nil, &ValidationError{Field: "endDate", Reason: "must not be before startDate"}
		}

		var version int64
		if windowChanged(*cur, patch) {
			d, err := g.check(ctx, Proposal{
				EngineerID: cur.EngineerID,
				Allocation: next.AllocationPercentage,
				Start:      next.StartDate,
				End:        next.EndDate,
				ExcludeID:  id,
			})
			if err != nil {
				return nil, err
			}
			version = d.Version
		} else {
			eng, err := g.engineers.GetEngineer(ctx, cur.EngineerID)
			if err != nil {
				return nil, fmt.Errorf("get engineer: %w", err)
			}
			if eng == nil {
				return nil, &NotFoundError{Entity: "engineer", ID: cur.EngineerID}
			}
			version = eng.AllocationVersion
		}

		updated, err := g.assignments.UpdateAssignment(ctx, id, patch, version)
		if errors.Is(err, repository.ErrVersionConflict) && attempt < g.maxRetries {
			g.metrics.GuardRetry("update")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update assignment: %w", err)
		}
		if updated == nil {
			return nil, &NotFoundError{Entity: "assignment", ID: id}
		}
		return updated, nil
	}
}

// check runs the capacity rule for p. The engineer (and its version) is read before
// the assignments so any write landing in between invalidates the version.
func (g *Guard) check(ctx context.Context, p Proposal) (*Decision, error) {
	eng, err := g.engineers.GetEngineer(ctx, p.EngineerID)
	if err != nil {
		return nil, fmt.Errorf("get engineer: %w", err)
	}
	if eng == nil || eng.Deleted() || eng.Type != models.UserTypeEngineer {
		return nil, &NotFoundError{Entity: "engineer", ID: p.EngineerID}
	}

	if p.ProjectID != 0 {
		proj, err := g.projects.GetProject(ctx, p.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("get project: %w", err)
		}
		if proj == nil || proj.Deleted() {
			return nil, &NotFoundError{Entity: "project", ID: p.ProjectID}
		}
	}

	existing, err := g.assignments.ListAssignments(ctx, repository.AssignmentFilter{
		EngineerID: p.EngineerID,
		Status:     models.AssignmentActive,
		ExcludeID:  p.ExcludeID,
		From:       &p.Start,
		To:         &p.End,
	})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	allocated := OverlappingWeightSum(Window{Start: p.Start, End: p.End}, ActiveWindows(existing))
	maxCap := eng.Capacity()
	d := &Decision{
		EngineerID:  eng.ID,
		Requested:   p.Allocation,
		Allocated:   allocated,
		Available:   maxCap - allocated,
		MaxCapacity: maxCap,
		Version:     eng.AllocationVersion,
	}
	if allocated+p.Allocation > maxCap {
		g.logger.Info("capacity exceeded", "engineer_id", eng.ID, "requested", p.Allocation, "available", d.Available)
		return d, &CapacityExceededError{Available: d.Available, Requested: p.Allocation, MaxCapacity: maxCap}
	}
	return d, nil
}

// acquire takes the per-engineer write slot, giving up when ctx is done.
func (g *Guard) acquire(ctx context.Context, engineerID int64) (func(), error) {
	slot, _ := g.locks.LoadOrStore(engineerID, make(chan struct{}, 1))
	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func windowChanged(cur models.Assignment, p models.AssignmentPatch) bool {
	if p.AllocationPercentage != nil && *p.AllocationPercentage != cur.AllocationPercentage {
		return true
	}
	if p.StartDate != nil && !p.StartDate.Equal(cur.StartDate) {
		return true
	}
	if p.EndDate != nil && !p.EndDate.Equal(cur.EndDate) {
		return true
	}
	return false
}

func validateProposal(p Proposal) error {
	if p.EngineerID <= 0 {
		return &ValidationError{Field: "engineerId", Reason: "is required"}
	}
	if err := validateAllocation(p.Allocation); err != nil {
		return err
	}
	if p.Start.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "is required"}
	}
	if p.End.IsZero() {
		return &ValidationError{Field: "endDate", Reason: "is required"}
	}
	if p.Start.After(p.End) {
		return &ValidationError{Field: "endDate", Reason: "must not be before startDate"}
	}
	return nil
}

func validatePatch(p models.AssignmentPatch) error {
	if p.AllocationPercentage != nil {
		if err := validateAllocation(*p.AllocationPercentage); err != nil {
			return err
		}
	}
	if p.StartDate != nil && p.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "must be a valid date"}
	}
	if p.EndDate != nil && p.EndDate.IsZero() {
		return &ValidationError{Field: "endDate", Reason: "must be a valid date"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *p.Status)}
	}
	return nil
}

func validateAllocation(v int) error {
	if v <= 0 || v > 100 {
		return &ValidationError{Field: "allocationPercentage", Reason: "must be in (0, 100]"}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAccepted
	case errors.Is(err, ErrCapacityExceeded):
		return metrics.OutcomeRejected
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, repository.ErrVersionConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}

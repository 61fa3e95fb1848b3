package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

// Store is an in-memory implementation of the repository interfaces used by tests.
// Errors set on the *Err fields are returned by the matching calls.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	engineers   map[int64]*models.Engineer
	projects    map[int64]*models.Project
	assignments map[int64]*models.Assignment

	CreateErr error
	ListErr   error
	// BeforeWrite, when set, runs inside assignment writes before the version check.
	BeforeWrite func(engineerID int64)
}

var _ repository.EngineerRepo = (*Store)(nil)
var _ repository.ProjectRepo = (*Store)(nil)
var _ repository.AssignmentRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		engineers:   make(map[int64]*models.Engineer),
		projects:    make(map[int64]*models.Project),
		assignments: make(map[int64]*models.Assignment),
	}
}

// Repository returns the store wired into every collaborator slot.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{Engineer: s, Project: s, Assignment: s}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateEngineer(ctx context.Context, e *models.Engineer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	cp := *e
	cp.ID = s.id()
	cp.Skills = append([]string(nil), e.Skills...)
	if cp.Type == "" {
		cp.Type = models.UserTypeEngineer
	}
	if cp.MaxCapacity == 0 {
		cp.MaxCapacity = models.DefaultMaxCapacity
	}
	s.engineers[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetEngineer(ctx context.Context, id int64) (*models.Engineer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engineers[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Engineer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.engineers {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEngineers(ctx context.Context, f repository.EngineerFilter) ([]models.Engineer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []models.Engineer
	for _, id := range sortedKeys(s.engineers) {
		e := s.engineers[id]
		if !f.IncludeDeleted && e.Deleted() {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Skill != "" && !hasSkillLike(e.Skills, f.Skill) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *Store) UpdateEngineer(ctx context.Context, e *models.Engineer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.engineers[e.ID]
	if !ok {
		return nil
	}
	cp := *e
	// capacity changes must invalidate in-flight guard checks
	cp.AllocationVersion = cur.AllocationVersion + 1
	s.engineers[e.ID] = &cp
	return nil
}

func (s *Store) SoftDeleteEngineer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engineers[id]; ok && e.DeletedAt == nil {
		now := time.Now().UTC()
		e.DeletedAt = &now
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	cp := *p
	cp.ID = s.id()
	cp.RequiredSkills = append([]string(nil), p.RequiredSkills...)
	s.projects[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListProjects(ctx context.Context, f repository.ProjectFilter) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []models.Project
	for _, id := range sortedKeys(s.projects) {
		p := s.projects[id]
		if !f.IncludeDeleted && p.Deleted() {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.ManagerID != 0 && p.ManagerID != f.ManagerID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		cp := *p
		s.projects[p.ID] = &cp
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.Deleted() {
		return false, nil
	}
	for aid, a := range s.assignments {
		if a.ProjectID == id {
			delete(s.assignments, aid)
		}
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return true, nil
}

// checkVersion must be called with s.mu held.
func (s *Store) checkVersion(engineerID, expected int64) error {
	e, ok := s.engineers[engineerID]
	if !ok {
		return repository.ErrVersionConflict
	}
	if e.AllocationVersion != expected {
		return repository.ErrVersionConflict
	}
	e.AllocationVersion++
	return nil
}

func (s *Store) CreateAssignment(ctx context.Context, a *models.Assignment, expectedVersion int64) (int64, error) {
	if s.BeforeWrite != nil {
		s.BeforeWrite(a.EngineerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return 0, s.CreateErr
	}
	if err := s.checkVersion(a.EngineerID, expectedVersion); err != nil {
		return 0, err
	}
	cp := *a
	cp.ID = s.id()
	if cp.Status == "" {
		cp.Status = models.AssignmentActive
	}
	s.assignments[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assignments[id]; ok && !a.Deleted() {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListAssignments(ctx context.Context, f repository.AssignmentFilter) ([]models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := s.filterAssignments(f)
	if f.OrderByStartDesc {
		sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CountAssignments(ctx context.Context, f repository.AssignmentFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterAssignments(f))), nil
}

func (s *Store) filterAssignments(f repository.AssignmentFilter) []models.Assignment {
	var out []models.Assignment
	for _, id := range sortedKeys(s.assignments) {
		a := s.assignments[id]
		switch {
		case !f.IncludeDeleted && a.Deleted():
		case f.EngineerID != 0 && a.EngineerID != f.EngineerID:
		case f.ProjectID != 0 && a.ProjectID != f.ProjectID:
		case f.Status != "" && a.Status != f.Status:
		case f.ExcludeID != 0 && a.ID == f.ExcludeID:
		case f.To != nil && a.StartDate.After(*f.To):
		case f.From != nil && a.EndDate.Before(*f.From):
		case f.StartsAfter != nil && !a.StartDate.After(*f.StartsAfter):
		default:
			out = append(out, *a)
		}
	}
	return out
}

func (s *Store) UpdateAssignment(ctx context.Context, id int64, patch models.AssignmentPatch, expectedVersion int64) (*models.Assignment, error) {
	s.mu.Lock()
	cur, ok := s.assignments[id]
	s.mu.Unlock()
	if !ok || cur.Deleted() {
		return nil, nil
	}
	if s.BeforeWrite != nil {
		s.BeforeWrite(cur.EngineerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkVersion(cur.EngineerID, expectedVersion); err != nil {
		return nil, err
	}
	next := patch.Apply(*cur)
	s.assignments[id] = &next
	cp := next
	return &cp, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[id]; !ok {
		return false, nil
	}
	delete(s.assignments, id)
	return true, nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func hasSkillLike(skills []string, q string) bool {
	q = strings.ToLower(q)
	for _, s := range skills {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

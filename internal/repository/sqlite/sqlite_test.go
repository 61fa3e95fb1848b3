package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dbfs "github.com/garnizeh/capacity/db"
	"github.com/garnizeh/capacity/internal/capacity"
	dbpkg "github.com/garnizeh/capacity/internal/db"
	sqlite "github.com/garnizeh/capacity/internal/repository/sqlite"
	"github.com/garnizeh/capacity/pkg/models"
	"github.com/garnizeh/capacity/pkg/repository"
)

func setupRepo(t *testing.T) (*sqlite.SQLiteRepo, func()) {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations); err != nil {
		d.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := sqlite.New(d, nil)
	return repo, func() { d.Close() }
}

func day(d int) time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

// fixture creates a manager, one engineer and one project.
func fixture(t *testing.T, repo *sqlite.SQLiteRepo) (engineerID, projectID int64) {
	t.Helper()
	ctx := context.Background()
	mgr, err := repo.CreateEngineer(ctx, &models.Engineer{Name: "Mia", Email: "mia@example.com", Type: models.UserTypeManager})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	engineerID, err = repo.CreateEngineer(ctx, &models.Engineer{Name: "Alice", Email: "alice@example.com", Skills: []string{"Go", "PostgreSQL"}})
	if err != nil {
		t.Fatalf("create engineer: %v", err)
	}
	projectID, err = repo.CreateProject(ctx, &models.Project{Name: "Apollo", StartDate: day(1), EndDate: day(90), RequiredSkills: []string{"Go"}, ManagerID: mgr, Status: models.ProjectActive})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return engineerID, projectID
}

func TestEngineerCRUD(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.CreateEngineer(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil engineer")
	}

	got, err := repo.GetEngineer(ctx, 9999)
	if err != nil {
		t.Fatalf("expected no error when getting non-existing ID")
	}
	if got != nil {
		t.Fatalf("expected nil when getting non-existing ID got: %#v", got)
	}

	got, err = repo.GetByEmail(ctx, "a@a.com")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil for unknown email, got %#v, %v", got, err)
	}

	e := &models.Engineer{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Skills: []string{"Go", "React"}, Seniority: models.SenioritySenior}
	id, err := repo.CreateEngineer(ctx, e)
	if err != nil {
		t.Fatalf("CreateEngineer error: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}

	got, err = repo.GetEngineer(ctx, id)
	if err != nil {
		t.Fatalf("GetEngineer error: %v", err)
	}
	if got == nil || got.Email != e.Email {
		t.Fatalf("unexpected engineer: %#v", got)
	}
	if got.Type != models.UserTypeEngineer || got.MaxCapacity != 100 || got.EmploymentType != models.EmploymentFullTime {
		t.Fatalf("defaults not applied: %#v", got)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "React" {
		t.Fatalf("skills not round-tripped: %v", got.Skills)
	}
	if got.PasswordHash != "hash" {
		t.Fatalf("password hash not stored")
	}

	if _, err := repo.CreateEngineer(ctx, &models.Engineer{Name: "Dup", Email: "alice@example.com"}); err == nil {
		t.Fatalf("expected unique email violation")
	}

	got.Department = "Platform"
	got.MaxCapacity = 50
	if err := repo.UpdateEngineer(ctx, got); err != nil {
		t.Fatalf("UpdateEngineer error: %v", err)
	}
	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if byEmail.Department != "Platform" || byEmail.MaxCapacity != 50 {
		t.Fatalf("update not persisted: %#v", byEmail)
	}
	if byEmail.AllocationVersion != got.AllocationVersion+1 {
		t.Fatalf("profile update must advance allocation version: %d -> %d", got.AllocationVersion, byEmail.AllocationVersion)
	}

	if err := repo.SoftDeleteEngineer(ctx, id); err != nil {
		t.Fatalf("SoftDeleteEngineer error: %v", err)
	}
	got, err = repo.GetEngineer(ctx, id)
	if err != nil {
		t.Fatalf("GetEngineer after delete: %v", err)
	}
	if got == nil || !got.Deleted() {
		t.Fatalf("expected tombstoned engineer, got %#v", got)
	}
}

func TestListEngineersFilters(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	seed := []models.Engineer{
		{Name: "Mia", Email: "mia@example.com", Type: models.UserTypeManager, Skills: []string{"Go"}},
		{Name: "Alice", Email: "alice@example.com", Skills: []string{"Go", "PostgreSQL"}},
		{Name: "Bob", Email: "bob@example.com", Skills: []string{"React"}},
		{Name: "Gone", Email: "gone@example.com", Skills: []string{"golang"}},
	}
	var ids []int64
	for i := range seed {
		id, err := repo.CreateEngineer(ctx, &seed[i])
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}
	if err := repo.SoftDeleteEngineer(ctx, ids[3]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tests := []struct {
		name   string
		filter repository.EngineerFilter
		want   []string
	}{
		{"all live", repository.EngineerFilter{}, []string{"Mia", "Alice", "Bob"}},
		{"engineers only", repository.EngineerFilter{Type: models.UserTypeEngineer}, []string{"Alice", "Bob"}},
		{"skill substring any case", repository.EngineerFilter{Type: models.UserTypeEngineer, Skill: "postgres"}, []string{"Alice"}},
		{"skill includes deleted", repository.EngineerFilter{Skill: "GO", IncludeDeleted: true}, []string{"Mia", "Alice", "Gone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListEngineers(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListEngineers: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d engineers, want %v", len(got), tt.want)
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Fatalf("at %d got %q want %q", i, got[i].Name, tt.want[i])
				}
			}
		})
	}
}

func TestProjectCRUD(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()
	_, projectID := fixture(t, repo)

	p, err := repo.GetProject(ctx, projectID)
	if err != nil || p == nil {
		t.Fatalf("GetProject: %v, %v", p, err)
	}
	if !p.StartDate.Equal(day(1)) || !p.EndDate.Equal(day(90)) {
		t.Fatalf("dates not round-tripped: %v %v", p.StartDate, p.EndDate)
	}
	if p.TeamSize != 1 {
		t.Fatalf("expected default team size 1, got %d", p.TeamSize)
	}

	p.Status = models.ProjectCompleted
	p.RequiredSkills = []string{"Go", "Kafka"}
	if err := repo.UpdateProject(ctx, p); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	active, err := repo.ListProjects(ctx, repository.ProjectFilter{Status: models.ProjectActive})
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active projects, got %d", len(active))
	}
	done, err := repo.ListProjects(ctx, repository.ProjectFilter{Status: models.ProjectCompleted})
	if err != nil || len(done) != 1 || len(done[0].RequiredSkills) != 2 {
		t.Fatalf("unexpected completed projects %#v, %v", done, err)
	}

	missing, err := repo.GetProject(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing project")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()
	engineerID, projectID := fixture(t, repo)

	for v := int64(0); v < 2; v++ {
		if _, err := repo.CreateAssignment(ctx, &models.Assignment{EngineerID: engineerID, ProjectID: projectID, AllocationPercentage: 20, StartDate: day(1), EndDate: day(10)}, v); err != nil {
			t.Fatalf("CreateAssignment: %v", err)
		}
	}

	ok, err := repo.DeleteProject(ctx, projectID)
	if err != nil || !ok {
		t.Fatalf("DeleteProject: %v, %v", ok, err)
	}
	n, err := repo.CountAssignments(ctx, repository.AssignmentFilter{ProjectID: projectID, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("CountAssignments: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected assignments hard deleted, %d left", n)
	}

	live, err := repo.ListProjects(ctx, repository.ProjectFilter{})
	if err != nil || len(live) != 0 {
		t.Fatalf("expected project hidden from listing, got %d, %v", len(live), err)
	}
	all, err := repo.ListProjects(ctx, repository.ProjectFilter{IncludeDeleted: true})
	if err != nil || len(all) != 1 || !all[0].Deleted() {
		t.Fatalf("expected tombstoned project, got %#v, %v", all, err)
	}

	ok, err = repo.DeleteProject(ctx, projectID)
	if err != nil || ok {
		t.Fatalf("second delete should report false, got %v, %v", ok, err)
	}
}

func TestAssignmentVersioning(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()
	engineerID, projectID := fixture(t, repo)

	a := &models.Assignment{EngineerID: engineerID, ProjectID: projectID, AllocationPercentage: 40, StartDate: day(1), EndDate: day(10), Role: "dev"}
	id, err := repo.CreateAssignment(ctx, a, 0)
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	// stale token
	if _, err := repo.CreateAssignment(ctx, a, 0); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	n, err := repo.CountAssignments(ctx, repository.AssignmentFilter{EngineerID: engineerID})
	if err != nil || n != 1 {
		t.Fatalf("conflicting insert must not persist: %d, %v", n, err)
	}

	eng, err := repo.GetEngineer(ctx, engineerID)
	if err != nil || eng.AllocationVersion != 1 {
		t.Fatalf("expected version 1, got %#v, %v", eng, err)
	}

	alloc := 60
	if _, err := repo.UpdateAssignment(ctx, id, models.AssignmentPatch{AllocationPercentage: &alloc}, 0); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict on update, got %v", err)
	}
	updated, err := repo.UpdateAssignment(ctx, id, models.AssignmentPatch{AllocationPercentage: &alloc}, 1)
	if err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	if updated.AllocationPercentage != 60 || updated.Role != "dev" {
		t.Fatalf("unexpected update result %#v", updated)
	}

	got, err := repo.GetAssignment(ctx, id)
	if err != nil || got.AllocationPercentage != 60 || got.Status != models.AssignmentActive {
		t.Fatalf("update not persisted: %#v, %v", got, err)
	}

	missing, err := repo.UpdateAssignment(ctx, 999, models.AssignmentPatch{AllocationPercentage: &alloc}, 2)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing assignment, got %#v, %v", missing, err)
	}

	ok, err := repo.DeleteAssignment(ctx, id)
	if err != nil || !ok {
		t.Fatalf("DeleteAssignment: %v, %v", ok, err)
	}
	ok, err = repo.DeleteAssignment(ctx, id)
	if err != nil || ok {
		t.Fatalf("second DeleteAssignment should report false")
	}
}

func TestListAssignmentsFilters(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()
	engineerID, projectID := fixture(t, repo)

	windows := []struct {
		start, end int
		status     models.AssignmentStatus
	}{
		{1, 10, models.AssignmentActive},
		{10, 20, models.AssignmentActive},
		{25, 30, models.AssignmentCompleted},
		{40, 50, models.AssignmentActive},
	}
	var ids []int64
	for i, w := range windows {
		id, err := repo.CreateAssignment(ctx, &models.Assignment{EngineerID: engineerID, ProjectID: projectID, AllocationPercentage: 10, StartDate: day(w.start), EndDate: day(w.end), Status: w.status}, int64(i))
		if err != nil {
			t.Fatalf("CreateAssignment: %v", err)
		}
		ids = append(ids, id)
	}

	from, to := day(10), day(10)
	after := day(15)
	tests := []struct {
		name   string
		filter repository.AssignmentFilter
		want   []int64
	}{
		{"touching window overlaps both", repository.AssignmentFilter{From: &from, To: &to}, []int64{ids[0], ids[1]}},
		{"exclude self", repository.AssignmentFilter{From: &from, To: &to, ExcludeID: ids[0]}, []int64{ids[1]}},
		{"active only", repository.AssignmentFilter{Status: models.AssignmentActive}, []int64{ids[0], ids[1], ids[3]}},
		{"starts after", repository.AssignmentFilter{StartsAfter: &after}, []int64{ids[2], ids[3]}},
		{"newest start first", repository.AssignmentFilter{OrderByStartDesc: true, Limit: 2}, []int64{ids[3], ids[2]}},
		{"page two", repository.AssignmentFilter{Limit: 2, Offset: 2}, []int64{ids[2], ids[3]}},
		{"offset only", repository.AssignmentFilter{Offset: 3}, []int64{ids[3]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListAssignments(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListAssignments: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d assignments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("at %d got id %d want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	n, err := repo.CountAssignments(ctx, repository.AssignmentFilter{Status: models.AssignmentActive, Limit: 1})
	if err != nil || n != 3 {
		t.Fatalf("count ignores paging, got %d, %v", n, err)
	}
}

// Two guards share the store but not their in-process locks, so only the
// allocation version keeps them from overcommitting the engineer.
func TestGuardsOverSharedStore(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	engineerID, projectID := fixture(t, repo)

	guards := []*capacity.Guard{
		capacity.NewGuard(repo.Repository(), capacity.WithMaxRetries(10)),
		capacity.NewGuard(repo.Repository(), capacity.WithMaxRetries(10)),
	}

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(g *capacity.Guard) {
			defer wg.Done()
			_, err := g.Create(context.Background(), capacity.NewAssignment{
				EngineerID:           engineerID,
				ProjectID:            projectID,
				AllocationPercentage: 30,
				StartDate:            day(1),
				EndDate:              day(30),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, capacity.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(guards[i%2])
	}
	wg.Wait()

	if accepted != 3 || rejected != workers-3 {
		t.Fatalf("expected 3 accepted, got %d accepted %d rejected", accepted, rejected)
	}

	as, err := repo.ListAssignments(context.Background(), repository.AssignmentFilter{EngineerID: engineerID, Status: models.AssignmentActive})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if sum := capacity.PointInTimeSum(day(15), capacity.ActiveWindows(as)); sum > 100 {
		t.Fatalf("engineer overcommitted: %d", sum)
	}
}

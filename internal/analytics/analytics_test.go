package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garnizeh/capacity/internal/analytics"
	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

func engineer(id int64, name string, maxCap int) models.Engineer {
	return models.Engineer{ID: id, Name: name, Email: name + "@example.com", Type: models.UserTypeEngineer, MaxCapacity: maxCap}
}

func active(id, engineerID, projectID int64, alloc, start, end int) models.Assignment {
	return models.Assignment{
		ID:                   id,
		EngineerID:           engineerID,
		ProjectID:            projectID,
		AllocationPercentage: alloc,
		StartDate:            day(start),
		EndDate:              day(end),
		Status:               models.AssignmentActive,
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{2.5, 3},
		{66.666, 67},
		{-0.5, 0},
		{-1.5, -1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, analytics.RoundHalfUp(tt.in), "RoundHalfUp(%v)", tt.in)
	}
}

func TestSkillDistribution(t *testing.T) {
	engineers := []models.Engineer{
		{ID: 1, Name: "Alice", Skills: []string{"Go", "React"}, Department: "Platform"},
		{ID: 2, Name: "Bob", Skills: []string{"React"}},
		{ID: 3, Name: "Carol"},
	}
	d := analytics.SkillDistribution(engineers)

	require.Len(t, d, 2)
	require.Equal(t, "Go", d[0].Key)
	require.Equal(t, "React", d[1].Key)
	react, ok := d.Lookup("React")
	require.True(t, ok)
	require.Equal(t, 2, react.Count)
	require.Equal(t, []int64{1, 2}, []int64{react.Members[0].ID, react.Members[1].ID})
	require.Equal(t, "Platform", react.Members[0].Department)
	require.Equal(t, 3, d.Total())
}

func TestDepartmentDistributionCompleteness(t *testing.T) {
	engineers := []models.Engineer{
		{ID: 1, Name: "Alice", Department: "Platform", Seniority: models.SenioritySenior},
		{ID: 2, Name: "Bob"},
		{ID: 3, Name: "Carol", Department: "Platform"},
		{ID: 4, Name: "David", Department: "Mobile"},
	}
	d := analytics.DepartmentDistribution(engineers)

	require.Equal(t, len(engineers), d.Total())
	require.Equal(t, []string{"Platform", analytics.UnassignedDepartment, "Mobile"}, keys(d))
	platform, _ := d.Lookup("Platform")
	require.Equal(t, models.SenioritySenior, platform.Members[0].Seniority)
}

func TestSeniorityAndStatusFallbacks(t *testing.T) {
	sd := analytics.SeniorityDistribution([]models.Engineer{{ID: 1}, {ID: 2, Seniority: models.SeniorityJunior}})
	require.Equal(t, []string{analytics.UnspecifiedSeniority, "junior"}, keys(sd))

	pd := analytics.ProjectStatusDistribution([]models.Project{
		{ID: 1, Name: "A", Status: models.ProjectActive, TeamSize: 3},
		{ID: 2, Name: "B"},
		{ID: 3, Name: "C", Status: models.ProjectActive},
	})
	require.Equal(t, []string{"active", analytics.UnknownStatus}, keys(pd))
	act, _ := pd.Lookup("active")
	require.Equal(t, 2, act.Count)
	require.Equal(t, 3, act.Members[0].TeamSize)
}

func TestDistributionsEmpty(t *testing.T) {
	require.NotNil(t, analytics.SkillDistribution(nil))
	require.Empty(t, analytics.DepartmentDistribution(nil))
	require.Equal(t, 0, analytics.ProjectStatusDistribution(nil).Total())
}

func TestDistributionIdempotent(t *testing.T) {
	engineers := []models.Engineer{
		{ID: 1, Name: "Alice", Skills: []string{"Go"}},
		{ID: 2, Name: "Bob", Skills: []string{"Go", "SQL"}},
	}
	first := analytics.SkillDistribution(engineers)
	second := analytics.SkillDistribution(engineers)
	require.Equal(t, first, second)
	require.Equal(t, []string{"Go", "SQL"}, engineers[1].Skills)
}

func TestUtilization(t *testing.T) {
	engineers := []models.Engineer{engineer(1, "alice", 100), engineer(2, "carol", 50), engineer(3, "dave", 0)}
	assignments := []models.Assignment{
		active(1, 1, 1, 60, 1, 10),
		active(2, 2, 1, 50, 100, 200),
		{ID: 3, EngineerID: 1, AllocationPercentage: 40, Status: models.AssignmentCompleted},
	}
	u := analytics.Utilization(engineers, assignments)
	require.Equal(t, 250, u.TotalCapacity)
	require.Equal(t, 110, u.TotalUtilized)
	require.Equal(t, 44, u.UtilizationRate)

	require.Equal(t, analytics.UtilizationSummary{}, analytics.Utilization(nil, nil))
}

func TestTeamAnalytics(t *testing.T) {
	s := &snapshot.Snapshot{
		Engineers: []models.Engineer{engineer(1, "alice", 100), engineer(2, "bob", 100)},
		Projects:  []models.Project{{ID: 1, Name: "Apollo", Status: models.ProjectActive}},
		Assignments: []models.Assignment{
			active(1, 1, 1, 50, 1, 10),
			active(2, 2, 1, 25, 1, 10),
		},
	}
	r := analytics.TeamAnalytics(s)
	require.Equal(t, 2, r.Overview.TotalEngineers)
	require.Equal(t, 1, r.Overview.TotalProjects)
	require.Equal(t, 2, r.Overview.ActiveAssignments)
	require.Equal(t, 38, r.Overview.UtilizationRate)
	require.Equal(t, r.Utilization.UtilizationRate, r.Overview.UtilizationRate)
	require.Equal(t, 2, r.DepartmentDistribution.Total())
	require.Equal(t, 1, r.ProjectStatusDistribution.Total())
}

func TestClassifyPlanning(t *testing.T) {
	tests := []struct {
		util int
		want analytics.PlanningClass
	}{
		{0, analytics.PlanningUnder},
		{49, analytics.PlanningUnder},
		{50, analytics.PlanningNone},
		{79, analytics.PlanningNone},
		{80, analytics.PlanningFull},
		{100, analytics.PlanningFull},
		{101, analytics.PlanningOver},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, analytics.ClassifyPlanning(tt.util), "util %d", tt.util)
	}
}

func TestCapacityPlanning(t *testing.T) {
	s := &snapshot.Snapshot{
		Engineers: []models.Engineer{
			engineer(1, "idle", 100),
			engineer(2, "busy", 100),
			engineer(3, "parttime", 50),
			engineer(4, "mid", 100),
			engineer(5, "idle2", 100),
		},
		Projects: []models.Project{{ID: 1, Name: "Apollo"}},
		Assignments: []models.Assignment{
			active(1, 2, 1, 70, 1, 10),
			active(2, 2, 99, 50, 100, 200),
			active(3, 3, 1, 50, 1, 10),
			active(4, 4, 1, 60, 1, 10),
		},
	}
	r := analytics.CapacityPlanning(s)

	ids := make([]int64, 0, len(r.Engineers))
	for _, row := range r.Engineers {
		ids = append(ids, row.EngineerID)
	}
	// ties keep snapshot order
	require.Equal(t, []int64{2, 4, 3, 1, 5}, ids)

	busy := r.Engineers[0]
	require.Equal(t, 120, busy.CurrentAllocation)
	require.Equal(t, 0, busy.AvailableCapacity)
	require.Equal(t, analytics.PlanningOver, busy.Class)
	require.Len(t, busy.Assignments, 2)
	require.Equal(t, "Apollo", busy.Assignments[0].ProjectName)
	require.Equal(t, analytics.UnknownProject, busy.Assignments[1].ProjectName)

	// part-time engineers are still measured against 100
	part := r.Engineers[2]
	require.Equal(t, 100, part.MaxCapacity)
	require.Equal(t, 50, part.UtilizationPercentage)
	require.Equal(t, analytics.PlanningNone, part.Class)

	require.Empty(t, r.Engineers[3].Assignments)
	require.NotNil(t, r.Engineers[3].Assignments)

	require.Equal(t, 1, r.Insights.OverUtilized)
	require.Equal(t, 0, r.Insights.FullyUtilized)
	require.Equal(t, 2, r.Insights.UnderUtilized)
	// (0 + 40 + 50 + 100 + 100) / 5
	require.Equal(t, 58, r.Insights.TotalAvailableCapacity)
}

func TestCapacityPlanningEmpty(t *testing.T) {
	r := analytics.CapacityPlanning(&snapshot.Snapshot{})
	require.Empty(t, r.Engineers)
	require.Equal(t, analytics.PlanningInsights{}, r.Insights)
}

func keys(d analytics.Distribution) []string {
	out := make([]string, 0, len(d))
	for _, b := range d {
		out = append(out, b.Key)
	}
	return out
}

func TestRoster(t *testing.T) {
	engineers := []models.Engineer{engineer(1, "alice", 100), engineer(2, "carol", 50)}
	assignments := []models.Assignment{
		active(1, 1, 1, 40, 1, 10),
		active(2, 1, 2, 30, 100, 200),
		active(3, 2, 1, 60, 1, 10),
		{ID: 4, EngineerID: 2, AllocationPercentage: 20, Status: models.AssignmentCancelled},
	}
	r := analytics.Roster(engineers, assignments)
	require.Len(t, r, 2)
	require.Equal(t, 70, r[0].CurrentAllocation)
	require.Equal(t, 30, r[0].AvailableCapacity)
	require.Equal(t, "alice", r[0].Name)
	require.Equal(t, 60, r[1].CurrentAllocation)
	require.Equal(t, 0, r[1].AvailableCapacity)
}

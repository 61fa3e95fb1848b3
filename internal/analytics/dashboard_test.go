package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garnizeh/capacity/internal/analytics"
	"github.com/garnizeh/capacity/internal/snapshot"
	"github.com/garnizeh/capacity/pkg/models"
)

func TestClassifyLoad(t *testing.T) {
	tests := []struct {
		util int
		want analytics.LoadStatus
	}{
		{0, analytics.LoadUnderutilized},
		{49, analytics.LoadUnderutilized},
		{50, analytics.LoadOptimal},
		{79, analytics.LoadOptimal},
		{90, analytics.LoadOptimal},
		{91, analytics.LoadOverloaded},
		{150, analytics.LoadOverloaded},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, analytics.ClassifyLoad(tt.util), "util %d", tt.util)
	}
}

func dashboardSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Engineers: []models.Engineer{
			engineer(1, "alice", 100),
			engineer(2, "carol", 50),
			engineer(3, "dave", 100),
		},
		Projects: []models.Project{
			{ID: 1, Name: "Apollo", Status: models.ProjectActive},
			{ID: 2, Name: "Gemini", Status: models.ProjectPlanning},
			{ID: 3, Name: "Mercury", Status: models.ProjectActive},
		},
		Assignments: []models.Assignment{
			active(1, 1, 1, 60, 1, 20),
			active(2, 1, 2, 40, 10, 30),
			active(3, 1, 3, 50, 25, 40),
			active(4, 2, 1, 40, 1, 20),
			active(5, 3, 1, 80, 21, 30),
		},
	}
}

func TestTeamUtilization(t *testing.T) {
	r := analytics.TeamUtilization(dashboardSnapshot(), day(15))

	require.Len(t, r.Analytics, 3)
	alice := r.Analytics[0]
	require.Equal(t, 100, alice.TotalAllocated)
	require.Equal(t, 100, alice.UtilizationPercentage)
	require.Equal(t, analytics.LoadOverloaded, alice.Status)

	carol := r.Analytics[1]
	require.Equal(t, 50, carol.MaxCapacity)
	require.Equal(t, 80, carol.UtilizationPercentage)
	require.Equal(t, analytics.LoadOptimal, carol.Status)

	dave := r.Analytics[2]
	require.Equal(t, 0, dave.TotalAllocated)
	require.Equal(t, analytics.LoadUnderutilized, dave.Status)

	require.Equal(t, analytics.UtilizationCounts{Total: 3, Overloaded: 1, Underutilized: 1, Optimal: 1}, r.Summary)
}

func TestManagerDashboard(t *testing.T) {
	r := analytics.ManagerDashboard(dashboardSnapshot(), day(25))

	require.Len(t, r.TeamOverview, 3)
	alice := r.TeamOverview[0]
	// Apollo ended on day 20; Mercury starts on day 25
	require.Equal(t, 90, alice.TotalAllocated)
	require.Equal(t, 90, alice.UtilizationPercentage)
	require.Equal(t, 10, alice.AvailableCapacity)

	dave := r.TeamOverview[2]
	require.Equal(t, 80, dave.TotalAllocated)
	require.Equal(t, 80, dave.UtilizationPercentage)

	require.Equal(t, []analytics.StatusCount{{Status: "active", Count: 2}, {Status: "planning", Count: 1}}, r.ProjectStats)
	require.Equal(t, 5, r.ActiveAssignments)
}

func TestManagerDashboardOverCapacity(t *testing.T) {
	s := &snapshot.Snapshot{
		Engineers:   []models.Engineer{engineer(1, "alice", 100)},
		Assignments: []models.Assignment{active(1, 1, 1, 70, 1, 10), active(2, 1, 1, 50, 5, 10)},
	}
	r := analytics.ManagerDashboard(s, day(6))
	require.Equal(t, 120, r.TeamOverview[0].TotalAllocated)
	require.Equal(t, -20, r.TeamOverview[0].AvailableCapacity)
	require.Equal(t, 120, r.TeamOverview[0].UtilizationPercentage)
}

func TestEngineerDashboard(t *testing.T) {
	view := &snapshot.EngineerView{
		Engineer: engineer(1, "alice", 100),
		Projects: []models.Project{{ID: 1, Name: "Apollo"}},
		Assignments: []models.Assignment{
			active(1, 1, 1, 30, 1, 10),
			active(2, 1, 2, 20, 40, 60),
			{ID: 3, EngineerID: 1, ProjectID: 1, AllocationPercentage: 50, StartDate: day(50), EndDate: day(70), Status: models.AssignmentCancelled},
			{ID: 4, EngineerID: 1, ProjectID: 1, AllocationPercentage: 90, StartDate: day(1), EndDate: day(5), Status: models.AssignmentCompleted},
		},
	}
	r := analytics.EngineerDashboard(view, day(20))

	require.Len(t, r.CurrentAssignments, 2)
	require.Equal(t, "Apollo", r.CurrentAssignments[0].ProjectName)
	require.Equal(t, analytics.UnknownProject, r.CurrentAssignments[1].ProjectName)

	require.Len(t, r.UpcomingAssignments, 2)
	require.Equal(t, int64(2), r.UpcomingAssignments[0].ID)
	require.Equal(t, int64(3), r.UpcomingAssignments[1].ID)

	require.Equal(t, analytics.EngineerCapacity{MaxCapacity: 100, TotalAllocated: 50, AvailableCapacity: 50}, r.Capacity)
}
